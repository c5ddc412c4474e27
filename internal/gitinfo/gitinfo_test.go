package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupOutsideRepository(t *testing.T) {
	info, err := Lookup(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestLookupEmptyRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	info, err := Lookup(dir)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestLookup(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hi"), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	// Lookup should work from a subdirectory via .git detection.
	sub := filepath.Join(dir, "deploy")
	require.NoError(t, os.MkdirAll(sub, 0755))

	info, err := Lookup(sub)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, hash.String(), info["GIT_COMMIT"])
	assert.Equal(t, "master", info["GIT_BRANCH"])
}
