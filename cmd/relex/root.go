package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	configPath   string
	grammarID    string
	grammarsPath string
)

var rootCmd = &cobra.Command{
	Use:   "relex",
	Short: "relex - incremental re-tokenizer",
	Long: `relex tokenizes source text with YAML grammars and re-tokenizes edited text
incrementally, reusing every token an edit could not have affected.

Token snapshots can be kept in SQLite or PostgreSQL so unchanged documents
are never lexed twice.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./"+defaultConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVarP(&grammarID, "grammar", "g", "", "Grammar ID (default: chosen by file extension)")
	rootCmd.PersistentFlags().StringVar(&grammarsPath, "grammars", "", "Path to a custom grammar YAML file")

	// Add subcommands
	rootCmd.AddCommand(lexCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(gitCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(grammarsCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.apply(cmd.Flags()); err != nil {
		return err
	}
	setupLogging(cmd.ErrOrStderr())
	return nil
}

// setupLogging installs a text handler on w as the default logger.
func setupLogging(w io.Writer) {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
