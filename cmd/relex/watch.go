package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/praetorian-inc/relex"
	"github.com/spf13/cobra"
)

var (
	watchFormat string
	watchColor  string
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-lex a file incrementally every time it is saved",
	Long: `Lex <file>, then watch it and print the token changes of every save until
interrupted. Each save is re-lexed from the tokens of the previous one.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	addDiffOutputFlags(watchCmd, &watchFormat, &watchColor)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	return watchFile(ctx, cmd.OutOrStdout(), args[0])
}

// watchFile runs until ctx is done.
func watchFile(ctx context.Context, w io.Writer, path string) error {
	grammars, err := loadGrammars(grammarsPath)
	if err != nil {
		return err
	}
	g, err := selectGrammar(grammars, path)
	if err != nil {
		return err
	}
	lx, err := relex.NewLexer(relex.WithGrammar(g), relex.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	text := string(content)
	tokens, err := lx.Lex(text)
	if err != nil {
		return fmt.Errorf("lexing %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often save by renaming over the file, which drops a watch on
	// the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	fmt.Fprintf(w, "Watching %s (%s): %d tokens\n", path, g.ID, len(tokens))

	base := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "path", path, "error", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			content, err := os.ReadFile(path)
			if err != nil {
				slog.Debug("file not readable", "path", path, "error", err)
				continue
			}
			newText := string(content)
			if newText == text {
				continue
			}

			res, err := lx.RelexText(text, newText, tokens)
			if err != nil {
				return fmt.Errorf("re-lexing %s: %w", path, err)
			}
			text, tokens = newText, res.Tokens

			err = writeDiff(w, watchFormat, watchColor, diffReport{
				Path:    path,
				Grammar: g.ID,
				Changes: res.Changes,
				Stats:   res.Stats,
			}, path, res)
			if err != nil {
				return err
			}
		}
	}
}
