package vcsgit

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireGit skips the test when no git binary is on PATH, since this
// package is a thin wrapper over the real binary and has no fake to
// substitute in its place.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	r := New(dir)
	require.NoError(t, r.Init(context.Background()))
	run := exec.Command("git", "config", "user.email", "lit@example.com")
	run.Dir = dir
	require.NoError(t, run.Run())
	run = exec.Command("git", "config", "user.name", "lit")
	run.Dir = dir
	require.NoError(t, run.Run())
	return r
}

func TestStageAllAndCommit(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.txt"), []byte("hello\n"), 0o644))

	require.NoError(t, r.StageAll(context.Background()))
	hash, err := r.Commit(context.Background(), "initial commit")
	require.NoError(t, err)
	assert.Len(t, hash, 40)
}

func TestStatusReportsUntrackedAndModified(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.txt"), []byte("hello\n"), 0o644))
	require.NoError(t, r.StageAll(context.Background()))
	_, err := r.Commit(context.Background(), "initial")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.txt"), []byte("changed\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "b.txt"), []byte("new\n"), 0o644))

	changes, err := r.Status(context.Background())
	require.NoError(t, err)

	byPath := map[string]ChangeKind{}
	for _, c := range changes {
		byPath[c.Path] = c.Kind
	}
	assert.Equal(t, Modified, byPath["a.txt"])
	assert.Equal(t, Untracked, byPath["b.txt"])
}

func TestDiffShowsWorkingTreeChange(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.txt"), []byte("hello\n"), 0o644))
	require.NoError(t, r.StageAll(context.Background()))
	_, err := r.Commit(context.Background(), "initial")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.txt"), []byte("changed\n"), 0o644))
	diff, err := r.Diff(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Contains(t, diff, "-hello")
	assert.Contains(t, diff, "+changed")
}

func TestLogReturnsCommits(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.txt"), []byte("hello\n"), 0o644))
	require.NoError(t, r.StageAll(context.Background()))
	_, err := r.Commit(context.Background(), "first commit")
	require.NoError(t, err)

	entries, err := r.Log(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "first commit", entries[0].Subject)
	assert.Len(t, entries[0].Hash, 40)
}

func TestCheckoutSwitchesRef(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.txt"), []byte("v1\n"), 0o644))
	require.NoError(t, r.StageAll(context.Background()))
	hash1, err := r.Commit(context.Background(), "v1")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.txt"), []byte("v2\n"), 0o644))
	require.NoError(t, r.StageAll(context.Background()))
	_, err = r.Commit(context.Background(), "v2")
	require.NoError(t, err)

	require.NoError(t, r.Checkout(context.Background(), hash1))
	data, err := os.ReadFile(filepath.Join(r.Dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v1\n", string(data))
}
