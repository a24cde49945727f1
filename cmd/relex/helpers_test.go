package main

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every package flag variable to its default.
func resetFlags() {
	verbose, quiet = false, false
	configPath, grammarID, grammarsPath = "", "", ""

	lexGit, lexCommit = false, "HEAD"
	lexStorePath, lexSkipKnown = "", false
	lexFormat, lexTokens = "human", false
	lexMaxFileSize, lexIncludeHidden = 10*1024*1024, false

	diffFormat, diffColor = "human", "never"
	gitFrom, gitTo, gitFormat, gitColor = "HEAD~1", "HEAD", "human", "never"
	watchFormat, watchColor = "human", "never"

	grammarsFormat, grammarsInclude, grammarsExclude = "table", "", ""
	mergeOutput = "merged.db"
	serveStorePath = ""
}

// newTestCmd returns a bare command writing to a buffer.
func newTestCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	return cmd, &buf
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
