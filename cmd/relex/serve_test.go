package main

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/praetorian-inc/relex/pkg/serve"
	"github.com/praetorian-inc/relex/pkg/store"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand_Exists(t *testing.T) {
	// Verify serve command is registered
	cmd, _, err := rootCmd.Find([]string{"serve"})
	assert.NoError(t, err)
	assert.NotNil(t, cmd)
	assert.Equal(t, "serve", cmd.Name())
}

func TestServeCommand_Integration(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	// Create pipe for input
	pr, pw := io.Pipe()

	// Capture output
	out := &syncBuffer{}

	// Create a fresh command instance for testing
	testCmd := &cobra.Command{
		Use:  "serve",
		RunE: runServe,
	}
	testCmd.SetIn(pr)
	testCmd.SetOut(out)
	testCmd.SetErr(io.Discard)

	done := make(chan error, 1)
	go func() {
		done <- testCmd.Execute()
	}()

	// Wait for ready signal
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"type":"ready"`)
	}, 10*time.Second, 20*time.Millisecond)

	// Send close command
	_, err := pw.Write([]byte(`{"type":"close","payload":{}}` + "\n"))
	require.NoError(t, err)
	pw.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(20 * time.Second):
		t.Fatal("command did not exit in time")
	}
}

func TestServeCommand_PersistsSnapshots(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)
	serveStorePath = filepath.Join(t.TempDir(), "serve.db")

	input := `{"type":"open","payload":{"document_id":"doc","grammar":"json","text":"[1]"}}` + "\n" +
		`{"type":"edit","payload":{"document_id":"doc","text":"[1, 2]"}}` + "\n"

	var out bytes.Buffer
	testCmd := &cobra.Command{
		Use:  "serve",
		RunE: runServe,
	}
	testCmd.SetIn(strings.NewReader(input))
	testCmd.SetOut(&out)
	testCmd.SetErr(io.Discard)

	require.NoError(t, testCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		var resp serve.Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		assert.True(t, resp.Success, resp.Error)
	}

	s, err := store.NewSQLite(serveStorePath)
	require.NoError(t, err)
	defer s.Close()

	snap, err := s.GetSnapshot("doc")
	require.NoError(t, err)
	assert.Equal(t, "[1, 2]", snap.Text)
}
