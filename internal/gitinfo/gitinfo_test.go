package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages", "index.md"), []byte("---\n---\nhi\n"), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("pages/index.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestHeadFromSubdirectory(t *testing.T) {
	dir := t.TempDir()
	commit := commitFile(t, dir)

	info, err := Head(filepath.Join(dir, "pages"))
	require.NoError(t, err)
	assert.Equal(t, commit, info.Commit)
	assert.Equal(t, commit[:7], info.Short())
	assert.NotEmpty(t, info.Branch)
	assert.Equal(t, commit[:7], Revision(dir))
}

func TestHeadNotRepository(t *testing.T) {
	_, err := Head(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
	assert.Empty(t, Revision(t.TempDir()))
}

func TestHeadEmptyRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = Head(dir)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotRepository)
}
