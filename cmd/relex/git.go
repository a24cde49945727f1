package main

import (
	"fmt"
	"log/slog"

	"github.com/praetorian-inc/relex/pkg/enum"
	"github.com/spf13/cobra"
)

var (
	gitFrom   string
	gitTo     string
	gitFormat string
	gitColor  string
)

var gitCmd = &cobra.Command{
	Use:   "git <repo> <path>",
	Short: "Show the token changes of a file between two commits",
	Long: `Read <path> at --from and --to in the git repository <repo> and re-lex the
newer version incrementally from the older one.`,
	Args: cobra.ExactArgs(2),
	RunE: runGit,
}

func init() {
	gitCmd.Flags().StringVar(&gitFrom, "from", "HEAD~1", "Older revision")
	gitCmd.Flags().StringVar(&gitTo, "to", "HEAD", "Newer revision")
	addDiffOutputFlags(gitCmd, &gitFormat, &gitColor)
}

func runGit(cmd *cobra.Command, args []string) error {
	repoPath, path := args[0], args[1]

	oldText, from, err := enum.ReadGitFile(repoPath, gitFrom, path)
	if err != nil {
		return fmt.Errorf("reading %s at %s: %w", path, gitFrom, err)
	}
	newText, to, err := enum.ReadGitFile(repoPath, gitTo, path)
	if err != nil {
		return fmt.Errorf("reading %s at %s: %w", path, gitTo, err)
	}
	slog.Debug("comparing revisions", "path", path, "from", from.CommitID, "to", to.CommitID)

	grammars, err := loadGrammars(grammarsPath)
	if err != nil {
		return err
	}
	g, err := selectGrammar(grammars, path)
	if err != nil {
		return err
	}

	res, err := relexTexts(g, string(oldText), string(newText))
	if err != nil {
		return err
	}

	heading := fmt.Sprintf("%s %s..%s (%s)", path, shortID(from.CommitID), shortID(to.CommitID), g.ID)
	return writeDiff(cmd.OutOrStdout(), gitFormat, gitColor, diffReport{
		Path:    path,
		Grammar: g.ID,
		Changes: res.Changes,
		Stats:   res.Stats,
	}, heading, res)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
