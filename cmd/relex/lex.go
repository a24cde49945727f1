package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/praetorian-inc/relex/pkg/enum"
	"github.com/praetorian-inc/relex/pkg/incremental"
	"github.com/praetorian-inc/relex/pkg/lexer"
	"github.com/praetorian-inc/relex/pkg/sarif"
	"github.com/praetorian-inc/relex/pkg/store"
	"github.com/praetorian-inc/relex/pkg/types"
	"github.com/spf13/cobra"
)

var (
	lexGit           bool
	lexCommit        string
	lexStorePath     string
	lexSkipKnown     bool
	lexFormat        string
	lexTokens        bool
	lexMaxFileSize   int64
	lexIncludeHidden bool
)

var lexCmd = &cobra.Command{
	Use:   "lex <target>",
	Short: "Tokenize a file, directory, or git commit",
	Long: `Tokenize every file under <target> whose extension a grammar claims.
With --git, <target> is a repository and the files of --commit are lexed.
With --store, a token snapshot of every document is saved; --skip-known then
skips documents whose content was already lexed with the same grammar.`,
	Args: cobra.ExactArgs(1),
	RunE: runLex,
}

func init() {
	lexCmd.Flags().BoolVar(&lexGit, "git", false, "Treat target as git repository")
	lexCmd.Flags().StringVar(&lexCommit, "commit", "HEAD", "Commit to lex with --git")
	lexCmd.Flags().StringVar(&lexStorePath, "store", "", "Snapshot store: SQLite path, :memory:, or postgres:// URL")
	lexCmd.Flags().BoolVar(&lexSkipKnown, "skip-known", false, "Skip documents already in the store")
	lexCmd.Flags().StringVar(&lexFormat, "format", "human", "Output format: human, json, sarif")
	lexCmd.Flags().BoolVar(&lexTokens, "tokens", false, "Include token streams in json output")
	lexCmd.Flags().Int64Var(&lexMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to lex (bytes)")
	lexCmd.Flags().BoolVar(&lexIncludeHidden, "include-hidden", false, "Include hidden files and directories")
}

// lexResult is the outcome for one document.
type lexResult struct {
	Path      string          `json:"path"`
	Grammar   string          `json:"grammar"`
	ContentID types.ContentID `json:"content_id"`
	Count     int             `json:"token_count"`
	Errors    int             `json:"error_count"`
	Skipped   bool            `json:"skipped,omitempty"`
	Tokens    []types.Token   `json:"tokens,omitempty"`

	errors []types.Token // ERROR tokens, kept for sarif output
}

func runLex(cmd *cobra.Command, args []string) error {
	target := args[0]

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("target does not exist: %s", target)
	}
	if lexSkipKnown && lexStorePath == "" {
		return fmt.Errorf("--skip-known requires --store")
	}

	grammars, err := loadGrammars(grammarsPath)
	if err != nil {
		return err
	}

	var s store.Store
	if lexStorePath != "" {
		s, err = store.New(store.Config{Path: lexStorePath})
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
		defer s.Close()
	}

	enumerator, err := createEnumerator(target, info.IsDir(), grammars)
	if err != nil {
		return fmt.Errorf("creating enumerator: %w", err)
	}

	lx := &lexRun{
		grammars: grammars,
		programs: make(map[string]*lexer.Program),
		store:    s,
	}
	if err := enumerator.Enumerate(context.Background(), lx.document); err != nil {
		return fmt.Errorf("lexing: %w", err)
	}

	sort.Slice(lx.results, func(i, j int) bool {
		return lx.results[i].Path < lx.results[j].Path
	})
	return outputLexResults(cmd, grammars, lx.results)
}

// lexRun holds the state shared by concurrent enumeration callbacks.
type lexRun struct {
	grammars []*types.Grammar
	store    store.Store

	mu       sync.Mutex
	programs map[string]*lexer.Program
	results  []lexResult
}

func (r *lexRun) document(content []byte, contentID types.ContentID, prov types.Provenance) error {
	path := prov.Path()
	g, err := selectGrammar(r.grammars, path)
	if err != nil {
		slog.Debug("skipping document", "path", path, "reason", err)
		return nil
	}

	if lexSkipKnown {
		_, err := r.store.FindByContent(store.ContentKey{ContentID: contentID, StructuralID: g.StructuralID})
		switch {
		case err == nil:
			r.record(lexResult{Path: path, Grammar: g.ID, ContentID: contentID, Skipped: true})
			return nil
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("checking store: %w", err)
		}
	}

	p, err := r.program(g)
	if err != nil {
		return err
	}
	text := string(content)
	tokens, err := p.Tokenize(text)
	if err != nil {
		return fmt.Errorf("lexing %s: %w", path, err)
	}

	if r.store != nil {
		err := r.store.PutSnapshot(&store.Snapshot{
			DocumentID:     prov.Key(),
			ContentID:      contentID,
			GrammarID:      g.ID,
			GrammarVersion: g.Version,
			StructuralID:   g.StructuralID,
			Text:           text,
			Tokens:         tokens,
			Lookahead:      incremental.GlobalBound(tokens),
			CreatedAt:      time.Now(),
		})
		if err != nil {
			return fmt.Errorf("storing snapshot: %w", err)
		}
	}

	res := lexResult{Path: path, Grammar: g.ID, ContentID: contentID, Count: len(tokens)}
	for _, tok := range tokens {
		if tok.Type == types.TokenError {
			res.Errors++
			res.errors = append(res.errors, tok)
		}
	}
	if lexTokens {
		res.Tokens = tokens
	}
	r.record(res)
	return nil
}

func (r *lexRun) program(g *types.Grammar) (*lexer.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.programs[g.ID]; ok {
		return p, nil
	}
	p, err := lexer.Compile(g, lexer.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("compiling grammar %s: %w", g.ID, err)
	}
	r.programs[g.ID] = p
	return p, nil
}

func (r *lexRun) record(res lexResult) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

// =============================================================================
// HELPERS
// =============================================================================

// createEnumerator restricts directory and git enumeration to the extensions
// the grammars claim. A single file is always lexed.
func createEnumerator(target string, isDir bool, grammars []*types.Grammar) (enum.Enumerator, error) {
	config := enum.Config{
		Root:           target,
		IncludeHidden:  lexIncludeHidden,
		MaxFileSize:    lexMaxFileSize,
		FollowSymlinks: false,
	}
	if isDir && grammarID == "" {
		for _, g := range grammars {
			config.Extensions = append(config.Extensions, g.Extensions...)
		}
	}

	if lexGit {
		if !isDir {
			return nil, fmt.Errorf("--git target must be a repository directory")
		}
		e := enum.NewGitEnumerator(config)
		e.CommitRef = lexCommit
		return e, nil
	}

	return enum.NewFilesystemEnumerator(config), nil
}

func outputLexResults(cmd *cobra.Command, grammars []*types.Grammar, results []lexResult) error {
	switch lexFormat {
	case "sarif":
		return outputLexSARIF(cmd, grammars, results)
	case "json":
		if results == nil {
			results = []lexResult{}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	case "human":
		out := cmd.OutOrStdout()
		var tokens, skipped int
		for _, res := range results {
			if res.Skipped {
				skipped++
				fmt.Fprintf(out, "%s (%s): skipped, already lexed\n", res.Path, res.Grammar)
				continue
			}
			tokens += res.Count
			if res.Errors > 0 {
				fmt.Fprintf(out, "%s (%s): %d tokens, %d errors\n", res.Path, res.Grammar, res.Count, res.Errors)
			} else {
				fmt.Fprintf(out, "%s (%s): %d tokens\n", res.Path, res.Grammar, res.Count)
			}
		}
		fmt.Fprintf(out, "Lex complete: %d documents, %d tokens (%d skipped)\n", len(results), tokens, skipped)
		if lexStorePath != "" {
			fmt.Fprintf(out, "Snapshots stored in: %s\n", lexStorePath)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", lexFormat)
	}
}

// outputLexSARIF reports every ERROR token as a SARIF 2.1.0 result.
func outputLexSARIF(cmd *cobra.Command, grammars []*types.Grammar, results []lexResult) error {
	report := sarif.NewReport()

	used := make(map[string]bool)
	for _, res := range results {
		used[res.Grammar] = true
	}
	for _, g := range grammars {
		if used[g.ID] {
			report.AddGrammar(g)
		}
	}

	for _, res := range results {
		report.AddErrors(res.Grammar, res.Path, res.errors)
	}

	jsonBytes, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing SARIF: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(jsonBytes); err != nil {
		return fmt.Errorf("writing SARIF output: %w", err)
	}
	return nil
}
