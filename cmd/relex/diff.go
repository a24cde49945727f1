package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/praetorian-inc/relex"
	"github.com/praetorian-inc/relex/pkg/types"
	"github.com/spf13/cobra"
)

var (
	diffFormat string
	diffColor  string
)

var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Show the token changes between two files",
	Long: `Lex <old>, derive the text changes that turn it into <new>, and re-lex
incrementally. Prints which tokens were added, changed, or removed and how
many old tokens were reused.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	addDiffOutputFlags(diffCmd, &diffFormat, &diffColor)
}

func addDiffOutputFlags(cmd *cobra.Command, format, colorMode *string) {
	cmd.Flags().StringVar(format, "format", "human", "Output format: human, json")
	cmd.Flags().StringVar(colorMode, "color", "auto", "Color output: auto, always, never")
}

func runDiff(cmd *cobra.Command, args []string) error {
	oldText, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading old file: %w", err)
	}
	newText, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("reading new file: %w", err)
	}

	grammars, err := loadGrammars(grammarsPath)
	if err != nil {
		return err
	}
	g, err := selectGrammar(grammars, args[1])
	if err != nil {
		return err
	}

	res, err := relexTexts(g, string(oldText), string(newText))
	if err != nil {
		return err
	}

	return writeDiff(cmd.OutOrStdout(), diffFormat, diffColor, diffReport{
		Path:    args[1],
		Grammar: g.ID,
		Changes: res.Changes,
		Stats:   res.Stats,
	}, fmt.Sprintf("%s -> %s (%s)", args[0], args[1], g.ID), res)
}

// =============================================================================
// HELPERS
// =============================================================================

// relexTexts lexes oldText from scratch and re-lexes newText incrementally.
func relexTexts(g *types.Grammar, oldText, newText string) (*relex.Result, error) {
	lx, err := relex.NewLexer(relex.WithGrammar(g), relex.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}
	old, err := lx.Lex(oldText)
	if err != nil {
		return nil, fmt.Errorf("lexing old text: %w", err)
	}
	res, err := lx.RelexText(oldText, newText, old)
	if err != nil {
		return nil, fmt.Errorf("re-lexing: %w", err)
	}
	return res, nil
}

func writeDiff(w io.Writer, format, colorMode string, report diffReport, heading string, res *relex.Result) error {
	switch format {
	case "json":
		return writeDiffJSON(w, report)
	case "human":
		enabled, err := colorEnabled(colorMode, w)
		if err != nil {
			return err
		}
		writeDiffHuman(w, newStyles(enabled), heading, res)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
