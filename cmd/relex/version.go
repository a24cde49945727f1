package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/praetorian-inc/relex/pkg/grammar"
	"github.com/praetorian-inc/relex/pkg/lexer"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version of relex, its lexer engine, and the builtin grammars",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "relex v%s\n", version)
	fmt.Fprintf(out, "Engine: %s\n", lexer.EngineVersion)
	fmt.Fprintf(out, "Commit: %s\n", commit)
	fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	builtins, err := grammar.NewLoader().LoadBuiltinGrammars()
	if err != nil {
		return fmt.Errorf("loading builtin grammars: %w", err)
	}
	names := make([]string, 0, len(builtins))
	for _, g := range builtins {
		names = append(names, g.ID+"@"+g.Version)
	}
	fmt.Fprintf(out, "Grammars: %s\n", strings.Join(names, ", "))
	return nil
}
