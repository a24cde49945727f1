package main

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watch test in short mode")
	}

	dir := t.TempDir()
	path := writeFile(t, dir, "calc.expr", "let x = 1;")

	resetFlags()
	t.Cleanup(resetFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, out, path)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), "Watching")
	assert.Contains(t, out.String(), "(expr): 6 tokens")

	require.NoError(t, os.WriteFile(path, []byte("let x = 12;"), 0644))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `NUMBER "12"`)
	}, 5*time.Second, 20*time.Millisecond, "output: %s", out.String())

	require.NoError(t, os.WriteFile(path, []byte("let x = 12; y"), 0644))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `+ IDENT "y"`)
	}, 5*time.Second, 20*time.Millisecond, "output: %s", out.String())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchFile_Errors(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	ctx := context.Background()
	out := &syncBuffer{}

	assert.Error(t, watchFile(ctx, out, "/nonexistent/calc.expr"))

	path := writeFile(t, t.TempDir(), "notes.txt", "text")
	assert.Error(t, watchFile(ctx, out, path), "no grammar")
}
