package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/gaia/pkg/analyze"
	"github.com/japaniel/gaia/pkg/lexicon"
	"github.com/japaniel/gaia/pkg/pos"
)

type lookupResult struct {
	Word        string           `json:"word"`
	Known       bool             `json:"known"`
	Category    lexicon.Category `json:"category,omitempty"`
	Definitions []string         `json:"definitions,omitempty"`
	Examples    []string         `json:"examples,omitempty"`
}

func (a *app) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup WORD...",
		Short: "Show dictionary definitions and examples (requires the curated dictionary)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), engineOptions{strictDictionary: true})
			if err != nil {
				return err
			}
			defer e.Close()

			results := make([]lookupResult, 0, len(args))
			for _, w := range args {
				r := lookupResult{Word: w}
				if entry, ok := e.store.Entry(w); ok {
					r.Known = true
					r.Category = entry.Category
					r.Definitions = entry.Definitions
					r.Examples = entry.Examples
				}
				results = append(results, r)
			}
			return a.emit(cmd.OutOrStdout(), results, func(out io.Writer) {
				for _, r := range results {
					if !r.Known {
						fmt.Fprintf(out, "\n%s\n", warnStyle.Render(fmt.Sprintf("GAIA does not yet know the word '%s'.", r.Word)))
						continue
					}
					fmt.Fprintf(out, "\n%s %s\n", labelStyle.Render("Word:"), wordStyle.Render(r.Word))
					fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Part of speech:"), renderCategory(r.Category))
					fmt.Fprintln(out, labelStyle.Render("Definitions:"))
					for _, d := range r.Definitions {
						fmt.Fprintf(out, " - %s\n", d)
					}
					fmt.Fprintln(out, labelStyle.Render("Example sentences:"))
					for _, ex := range r.Examples {
						fmt.Fprintf(out, " - %s\n", ex)
					}
				}
			})
		},
	}
}

type posResult struct {
	Word string `json:"word"`
	pos.Classification
}

func (a *app) posCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pos WORD...",
		Short: "Classify words; multiple words are treated as one sentence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), engineOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			words := analyze.Tokenize(strings.Join(args, " "))
			if len(words) == 0 {
				return fmt.Errorf("no words to classify")
			}
			classes := e.resolver.ResolveAll(words)
			results := make([]posResult, len(words))
			for i, w := range words {
				results[i] = posResult{Word: w, Classification: classes[i]}
			}
			return a.emit(cmd.OutOrStdout(), results, func(out io.Writer) {
				for _, r := range results {
					fmt.Fprintf(out, "%-20s %-12s %.2f  %s\n",
						wordStyle.Render(r.Word), renderCategory(r.Category), r.Confidence, labelStyle.Render(string(r.Source)))
				}
			})
		},
	}
}

func (a *app) learnCmd() *cobra.Command {
	var confidence float64
	cmd := &cobra.Command{
		Use:   "learn WORD CATEGORY",
		Short: "Teach a word's category; repeated learns average the confidence",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := lexicon.NewCategory(strings.ToLower(args[1]))
			if err != nil {
				return err
			}
			e, err := a.openEngine(cmd.Context(), engineOptions{withMemory: true})
			if err != nil {
				return err
			}
			defer e.Close()

			word := lexicon.Normalize(args[0])
			entry, learnErr := e.learner.Learn(cmd.Context(), word, cat, confidence)
			if learnErr != nil && entry.Category == "" {
				return learnErr
			}
			if err := e.learner.Flush(cmd.Context()); err != nil && learnErr == nil {
				learnErr = err
			}
			if _, err := e.memory.Append(cmd.Context(),
				fmt.Sprintf("GAIA learned the word '%s' as %s (confidence %.2f)", word, entry.Category, entry.Confidence),
				"learning", "language"); err != nil {
				a.logger.Warn("failed to record memory", "err", err)
			}

			result := posResult{Word: word, Classification: pos.Classification{
				Category: entry.Category, Confidence: entry.Confidence, Source: pos.SourceLearned,
			}}
			if err := a.emit(cmd.OutOrStdout(), result, func(out io.Writer) {
				fmt.Fprintf(out, "%s %s as %s (confidence %.2f)\n",
					okStyle.Render("Learned"), wordStyle.Render(word), renderCategory(entry.Category), entry.Confidence)
			}); err != nil {
				return err
			}
			return learnErr
		},
	}
	cmd.Flags().Float64Var(&confidence, "confidence", pos.DefaultLearnConfidence, "Confidence of this observation, in [0,1]")
	return cmd
}

type categoryCount struct {
	Category lexicon.Category `json:"category"`
	Words    int              `json:"words"`
}

func (a *app) wordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "words [CATEGORY]",
		Short: "List dictionary words of a category, or all categories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), engineOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			if len(args) == 0 {
				cats := e.store.Categories()
				counts := make([]categoryCount, 0, len(cats))
				for _, c := range cats {
					counts = append(counts, categoryCount{Category: c, Words: len(e.store.WordsOfCategory(c))})
				}
				return a.emit(cmd.OutOrStdout(), counts, func(out io.Writer) {
					for _, c := range counts {
						fmt.Fprintf(out, "%-12s %d\n", renderCategory(c.Category), c.Words)
					}
				})
			}

			cat, err := lexicon.NewCategory(strings.ToLower(args[0]))
			if err != nil {
				return err
			}
			words := e.store.WordsOfCategory(cat)
			if words == nil {
				words = []string{}
			}
			return a.emit(cmd.OutOrStdout(), words, func(out io.Writer) {
				if len(words) == 0 {
					fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("No %s words known.", cat)))
					return
				}
				fmt.Fprintln(out, strings.Join(words, "\n"))
			})
		},
	}
}

type tableStatus struct {
	Table lexicon.Table `json:"table"`
	Rows  int           `json:"rows"`
	Error string        `json:"error,omitempty"`
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which knowledge tables loaded and their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), engineOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			var rows []tableStatus
			for _, t := range lexicon.AllTables {
				s := tableStatus{Table: t, Rows: e.report.Counts[t]}
				if err := e.report.Errors[t]; err != nil {
					s.Error = err.Error()
				}
				rows = append(rows, s)
			}
			sort.SliceStable(rows, func(i, j int) bool { return rows[i].Error == "" && rows[j].Error != "" })
			return a.emit(cmd.OutOrStdout(), rows, func(out io.Writer) {
				fmt.Fprintln(out, titleStyle.Render("Knowledge tables"))
				for _, r := range rows {
					mark := okStyle.Render("ok")
					if r.Error != "" {
						mark = warnStyle.Render("empty")
					}
					fmt.Fprintf(out, "%-12s %-8s %6d  %s\n", r.Table, mark, r.Rows, labelStyle.Render(r.Error))
				}
			})
		},
	}
}
