package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/japaniel/gaia/pkg/lexicon"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	wordStyle  = lipgloss.NewStyle().Bold(true)
)

var categoryColors = map[lexicon.Category]lipgloss.Color{
	lexicon.Noun:      lipgloss.Color("14"),
	lexicon.Verb:      lipgloss.Color("13"),
	lexicon.Adjective: lipgloss.Color("10"),
	lexicon.Adverb:    lipgloss.Color("11"),
	lexicon.Unknown:   lipgloss.Color("8"),
}

func renderCategory(c lexicon.Category) string {
	color, ok := categoryColors[c]
	if !ok {
		color = lipgloss.Color("7")
	}
	return lipgloss.NewStyle().Foreground(color).Render(c.String())
}
