package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/japaniel/gaia/internal/config"
	"github.com/japaniel/gaia/internal/logging"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	output     string
	verbose    bool

	cfg      *config.Config
	logger   *log.Logger
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "gaia",
		Short:         "Part-of-speech resolution and sentence pattern checking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "gaia.yaml", "Path to config file")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "Output format (text|json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.lookupCmd(),
		a.posCmd(),
		a.learnCmd(),
		a.validateCmd(),
		a.hintCmd(),
		a.analyzeCmd(),
		a.wordsCmd(),
		a.memoriesCmd(),
		a.statusCmd(),
		a.fetchWordlistCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.output != "text" && a.output != "json" {
		return fmt.Errorf("unknown output format %q (want text or json)", a.output)
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.closeLog = cfg, logger, closeLog
	a.logger.Debug("configuration loaded", "config", a.configPath, "backend", cfg.Learning.Backend, "mode", cfg.Learning.Mode)
	return nil
}

// emit writes v as indented JSON in json mode, otherwise calls text.
func (a *app) emit(w io.Writer, v any, text func(w io.Writer)) error {
	if a.output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
