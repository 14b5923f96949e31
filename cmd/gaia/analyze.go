package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/japaniel/gaia/pkg/analyze"
	"github.com/japaniel/gaia/pkg/lexicon"
)

// maxBodySize limits fetched HTML pages.
const maxBodySize = 10 * 1024 * 1024

type analyzeReport struct {
	Title     string             `json:"title,omitempty"`
	Sentences []analyze.Sentence `json:"sentences"`
	Valid     int                `json:"valid"`
}

func (a *app) analyzeCmd() *cobra.Command {
	var (
		file    string
		htmlArg string
		urlArg  string
	)
	cmd := &cobra.Command{
		Use:   "analyze [TEXT...]",
		Short: "Analyze every sentence of a text, file, HTML page or URL",
		Long: `Analyze splits the input into sentences, classifies every word and checks
each sentence against the syntax patterns. Without flags or arguments the
text is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			title, text, err := readInput(ctx, cmd.InOrStdin(), args, file, htmlArg, urlArg)
			if err != nil {
				return err
			}

			e, err := a.openEngine(ctx, engineOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			p := analyze.NewPipeline(e.analyzer)
			p.Workers = a.cfg.Analyze.Workers
			p.Logger = a.logger
			sentences, err := p.Run(ctx, text)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			report := analyzeReport{Title: title, Sentences: sentences}
			if report.Sentences == nil {
				report.Sentences = []analyze.Sentence{}
			}
			for _, s := range sentences {
				if s.Valid() {
					report.Valid++
				}
			}
			return a.emit(cmd.OutOrStdout(), report, func(out io.Writer) {
				if title != "" {
					fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Title:"), titleStyle.Render(title))
				}
				for _, s := range sentences {
					fmt.Fprintf(out, "\n%s %s\n", labelStyle.Render(fmt.Sprintf("[%d]", s.Index+1)), s.Text)
					printSentence(out, s)
				}
				fmt.Fprintf(out, "\nAnalyzed %d sentences, %d matched a syntax pattern.\n", len(sentences), report.Valid)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read plain text from a file")
	cmd.Flags().StringVar(&htmlArg, "html", "", "Extract the article text from an HTML file")
	cmd.Flags().StringVar(&urlArg, "url", "", "Fetch a web page and extract its article text")
	cmd.MarkFlagsMutuallyExclusive("file", "html", "url")
	return cmd
}

func readInput(ctx context.Context, stdin io.Reader, args []string, file, htmlPath, pageURL string) (title, text string, err error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return "", string(data), nil
	case htmlPath != "":
		f, err := os.Open(htmlPath)
		if err != nil {
			return "", "", fmt.Errorf("failed to open %s: %w", htmlPath, err)
		}
		defer f.Close()
		art, err := analyze.ExtractHTML(f, nil)
		if err != nil {
			return "", "", err
		}
		return art.Title, art.Text, nil
	case pageURL != "":
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return "", "", fmt.Errorf("invalid url: %w", err)
		}
		body, err := fetchPage(ctx, pageURL)
		if err != nil {
			return "", "", err
		}
		art, err := analyze.ExtractHTML(bytes.NewReader(body), parsed)
		if err != nil {
			return "", "", err
		}
		return art.Title, art.Text, nil
	case len(args) > 0:
		return "", strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return "", string(data), nil
}

func fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "gaia-cli")
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status code %d", pageURL, resp.StatusCode)
	}
	if resp.ContentLength > int64(maxBodySize) {
		return nil, fmt.Errorf("content-length %d exceeds limit of %d bytes", resp.ContentLength, maxBodySize)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("response body exceeded maximum size limit of %d bytes", maxBodySize)
	}
	return body, nil
}

func (a *app) fetchWordlistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-wordlist",
		Short: "Download the external wordlist if it is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Data.WordlistPath()
			a.logger.Info("ensuring wordlist", "path", path, "url", a.cfg.Data.WordlistURL)
			if err := lexicon.EnsureWordlist(cmd.Context(), path, a.cfg.Data.WordlistURL); err != nil {
				return err
			}
			words, err := lexicon.LoadWordlist(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d words at %s\n", okStyle.Render("Wordlist ready:"), len(words), path)
			return nil
		},
	}
}
