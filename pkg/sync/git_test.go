package sync

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_AUTHOR_NAME", "quest")
	t.Setenv("GIT_AUTHOR_EMAIL", "quest@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "quest")
	t.Setenv("GIT_COMMITTER_EMAIL", "quest@example.com")
}

func TestInitRepoAndCommit(t *testing.T) {
	requireGit(t)
	dir := filepath.Join(t.TempDir(), "data")
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, InitRepo(ctx, dir, "", &out))
	assert.DirExists(t, filepath.Join(dir, ".git"))
	assert.Contains(t, out.String(), "Initialized quest repository")

	ignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), "journal.db\n")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "progress.txt"), []byte("0\n"), 0644))
	committed, err := Commit(ctx, dir, "first", &out)
	require.NoError(t, err)
	assert.True(t, committed)

	committed, err = Commit(ctx, dir, "nothing new", &out)
	require.NoError(t, err)
	assert.False(t, committed)
}

func TestInitRepoIsIdempotent(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, InitRepo(ctx, dir, "", &out))
	require.NoError(t, InitRepo(ctx, dir, "", &out))

	ignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(ignore, []byte("journal.db\n")))
}

func TestNotRepo(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	_, err := Commit(context.Background(), dir, "msg", &out)
	assert.ErrorIs(t, err, ErrNotRepo)

	err = SyncRepo(context.Background(), dir, &out)
	assert.ErrorIs(t, err, ErrNotRepo)
}
