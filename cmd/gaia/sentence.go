package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/japaniel/gaia/pkg/analyze"
	"github.com/japaniel/gaia/pkg/grammar"
	"github.com/japaniel/gaia/pkg/memory"
)

func printSentence(out io.Writer, s analyze.Sentence) {
	parts := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		parts[i] = fmt.Sprintf("%s/%s", t.Word, renderCategory(t.Category))
	}
	fmt.Fprintln(out, strings.Join(parts, " "))
	if s.Valid() {
		fmt.Fprintf(out, "%s %s\n", okStyle.Render("Syntax pattern matched:"), strings.Join(s.Patterns, ", "))
	} else {
		fmt.Fprintln(out, warnStyle.Render("No syntax pattern matched."))
	}
	if unknown := s.Unknown(); len(unknown) > 0 {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Unknown words:"), strings.Join(unknown, ", "))
	}
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate SENTENCE...",
		Short: "Classify a sentence and check it against the syntax patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), engineOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			s := e.analyzer.AnalyzeSentence(strings.Join(args, " "))
			return a.emit(cmd.OutOrStdout(), s, func(out io.Writer) { printSentence(out, s) })
		},
	}
}

type hintResult struct {
	Word string `json:"word"`
	Hint string `json:"hint"`
}

func (a *app) hintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hint WORD...",
		Short: "Show grammar hints for words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), engineOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			results := make([]hintResult, len(args))
			for i, w := range args {
				results[i] = hintResult{Word: w, Hint: e.hints.Hint(w, e.resolver)}
			}
			return a.emit(cmd.OutOrStdout(), results, func(out io.Writer) {
				for _, r := range results {
					style := okStyle
					if r.Hint == grammar.NoHint {
						style = labelStyle
					}
					fmt.Fprintf(out, "%s: %s\n", wordStyle.Render(r.Word), style.Render(r.Hint))
				}
			})
		},
	}
}

func (a *app) memoriesCmd() *cobra.Command {
	var (
		limit int
		today bool
	)
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "Show the most recent memories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), engineOptions{withMemory: true})
			if err != nil {
				return err
			}
			defer e.Close()

			var records []memory.Record
			if today {
				now := time.Now()
				midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
				records, err = e.memory.Since(cmd.Context(), midnight)
			} else {
				records, err = e.memory.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if records == nil {
				records = []memory.Record{}
			}
			return a.emit(cmd.OutOrStdout(), records, func(out io.Writer) {
				if len(records) == 0 {
					fmt.Fprintln(out, labelStyle.Render("No memories available."))
					return
				}
				for _, r := range records {
					fmt.Fprintf(out, "- %s (%s)", r.Content, labelStyle.Render(r.Timestamp.Local().Format(time.RFC3339)))
					if len(r.Tags) > 0 {
						fmt.Fprintf(out, " %s", labelStyle.Render("["+strings.Join(r.Tags, ", ")+"]"))
					}
					fmt.Fprintln(out)
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", memory.DefaultRecentLimit, "Number of memories to show")
	cmd.Flags().BoolVar(&today, "today", false, "Show every memory recorded today")
	return cmd
}
