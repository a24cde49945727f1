package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupHistory creates a repository where settings.ini changes across
// two commits.
func setupHistory(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for i, content := range []string{"[core]\nname = old\n", "[core]\nname = new\nmode = fast\n"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.ini"), []byte(content), 0644))
		_, err := wt.Add("settings.ini")
		require.NoError(t, err)
		_, err = wt.Commit("revision", &git.CommitOptions{
			Author: &object.Signature{
				Name:  "Test User",
				Email: "test@example.com",
				When:  time.Date(2026, 1, 1, 12, i, 0, 0, time.UTC),
			},
		})
		require.NoError(t, err)
	}
	return dir
}

func TestRunGit(t *testing.T) {
	repo := setupHistory(t)

	cmd, buf := newTestCmd(t)
	gitFormat = "json"

	err := runGit(cmd, []string{repo, "settings.ini"})
	require.NoError(t, err)

	var report diffReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "ini", report.Grammar)
	assert.Equal(t, "settings.ini", report.Path)

	var texts []string
	for _, ch := range report.Changes {
		if ch.NewToken != nil {
			texts = append(texts, ch.NewToken.Text)
		}
	}
	assert.Contains(t, texts, "new")
	assert.Contains(t, texts, "mode")
	assert.Contains(t, texts, "fast")
}

func TestRunGit_Human(t *testing.T) {
	repo := setupHistory(t)

	cmd, buf := newTestCmd(t)

	require.NoError(t, runGit(cmd, []string{repo, "settings.ini"}))
	output := buf.String()
	assert.Contains(t, output, "settings.ini ")
	assert.Contains(t, output, "(ini)")
	assert.Contains(t, output, `TEXT "fast"`)
}

func TestRunGit_SameRevision(t *testing.T) {
	repo := setupHistory(t)

	cmd, buf := newTestCmd(t)
	gitFrom = "HEAD"

	require.NoError(t, runGit(cmd, []string{repo, "settings.ini"}))
	assert.Contains(t, buf.String(), "No token changes.")
}

func TestRunGit_Errors(t *testing.T) {
	repo := setupHistory(t)

	cmd, _ := newTestCmd(t)
	assert.Error(t, runGit(cmd, []string{t.TempDir(), "settings.ini"}), "not a repository")

	cmd, _ = newTestCmd(t)
	assert.Error(t, runGit(cmd, []string{repo, "missing.ini"}))

	cmd, _ = newTestCmd(t)
	gitFrom = "HEAD~5"
	assert.Error(t, runGit(cmd, []string{repo, "settings.ini"}))
}
