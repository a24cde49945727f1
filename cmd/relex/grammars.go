package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/praetorian-inc/relex/pkg/grammar"
	"github.com/praetorian-inc/relex/pkg/types"
	"github.com/spf13/cobra"
)

var (
	grammarsFormat  string
	grammarsInclude string
	grammarsExclude string
)

var grammarsCmd = &cobra.Command{
	Use:   "grammars",
	Short: "Manage grammars",
	Long:  "Commands for listing and validating grammars",
}

var grammarsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available grammars",
	Long:  "Display the builtin grammars, or those of --grammars, with their IDs and extensions",
	RunE:  runGrammarsList,
}

var grammarsValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a grammar file",
	Long:  "Load a grammar YAML file and check every grammar in it, including rule examples",
	Args:  cobra.ExactArgs(1),
	RunE:  runGrammarsValidate,
}

func init() {
	grammarsCmd.AddCommand(grammarsListCmd)
	grammarsCmd.AddCommand(grammarsValidateCmd)
	grammarsListCmd.Flags().StringVar(&grammarsFormat, "format", "table", "Output format: table, json")
	grammarsListCmd.Flags().StringVar(&grammarsInclude, "include", "", "Include grammars matching regex pattern (comma-separated)")
	grammarsListCmd.Flags().StringVar(&grammarsExclude, "exclude", "", "Exclude grammars matching regex pattern (comma-separated)")
}

func runGrammarsList(cmd *cobra.Command, args []string) error {
	grammars, err := loadGrammars(grammarsPath)
	if err != nil {
		return err
	}

	if grammarsInclude != "" || grammarsExclude != "" {
		grammars, err = grammar.Filter(grammars, grammar.FilterConfig{
			Include: grammar.ParsePatterns(grammarsInclude),
			Exclude: grammar.ParsePatterns(grammarsExclude),
		})
		if err != nil {
			return fmt.Errorf("filtering grammars: %w", err)
		}
	}

	switch grammarsFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(grammars)
	case "table":
		return outputGrammarsTable(cmd, grammars)
	default:
		return fmt.Errorf("unknown output format: %s", grammarsFormat)
	}
}

func runGrammarsValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading grammar file: %w", err)
	}
	grammars, err := grammar.NewLoader().LoadGrammars(data)
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}

	for _, g := range grammars {
		if err := grammar.ValidateGrammar(g); err != nil {
			return fmt.Errorf("grammar %s: %w", g.ID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: ok (%d rules)\n", g.ID, g.Version, len(g.Rules))
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// loadGrammars returns the grammars of path, or the builtin grammars when path
// is empty. Every grammar is validated.
func loadGrammars(path string) ([]*types.Grammar, error) {
	loader := grammar.NewLoader()

	var grammars []*types.Grammar
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading grammars from %s: %w", path, err)
		}
		grammars, err = loader.LoadGrammars(data)
		if err != nil {
			return nil, fmt.Errorf("loading grammars from %s: %w", path, err)
		}
	} else {
		var err error
		grammars, err = loader.LoadBuiltinGrammars()
		if err != nil {
			return nil, fmt.Errorf("loading builtin grammars: %w", err)
		}
	}

	for _, g := range grammars {
		if err := grammar.ValidateGrammar(g); err != nil {
			return nil, fmt.Errorf("grammar %s: %w", g.ID, err)
		}
	}
	return grammars, nil
}

// selectGrammar picks --grammar when set, otherwise the grammar claiming path.
func selectGrammar(grammars []*types.Grammar, path string) (*types.Grammar, error) {
	if grammarID != "" {
		g := grammar.Find(grammars, grammarID)
		if g == nil {
			return nil, fmt.Errorf("unknown grammar: %s", grammarID)
		}
		return g, nil
	}
	g := grammar.ForPath(grammars, path)
	if g == nil {
		return nil, fmt.Errorf("no grammar for %s (use --grammar)", path)
	}
	return g, nil
}

func outputGrammarsTable(cmd *cobra.Command, grammars []*types.Grammar) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tName\tVersion\tRules\tExtensions\n")
	fmt.Fprintf(w, "--\t----\t-------\t-----\t----------\n")

	for _, g := range grammars {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", g.ID, g.Name, g.Version, len(g.Rules), strings.Join(g.Extensions, " "))
	}
	return nil
}
