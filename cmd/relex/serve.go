package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/praetorian-inc/relex/pkg/scanner"
	"github.com/praetorian-inc/relex/pkg/serve"
	"github.com/praetorian-inc/relex/pkg/store"
	"github.com/spf13/cobra"
)

var serveStorePath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as streaming server for editor integration",
	Long: `Run relex as a long-lived streaming server that accepts document requests
via stdin and outputs tokens and token changes via stdout using NDJSON format.

The process compiles grammars once at startup and keeps one token snapshot
per open document, re-lexing each edit incrementally. It processes requests
until stdin closes or SIGTERM is received.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveStorePath, "store", "", "Snapshot store: SQLite path, :memory:, or postgres:// URL (default in-memory)")
}

func runServe(cmd *cobra.Command, args []string) error {
	grammars, err := loadGrammars(grammarsPath)
	if err != nil {
		return err
	}

	opts := []scanner.Option{
		scanner.WithGrammars(grammars),
		scanner.WithLogger(slog.Default()),
	}
	if serveStorePath != "" {
		s, err := store.New(store.Config{Path: serveStorePath})
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
		defer s.Close()
		opts = append(opts, scanner.WithStore(s))
	}

	// Create scanner core
	core, err := scanner.NewCore(opts...)
	if err != nil {
		return err
	}
	defer core.Close()

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Create and run server
	srv := serve.NewServer(core, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}
