package worktree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePorcelainSingleMainWorktree(t *testing.T) {
	out := "worktree /home/dev/proj\nHEAD abc123\nbranch refs/heads/main\n"
	infos := parsePorcelain(out)
	if assert.Len(t, infos, 1) {
		assert.Equal(t, "/home/dev/proj", infos[0].Path)
		assert.Equal(t, "main", infos[0].Branch)
		assert.Equal(t, "abc123", infos[0].HeadSHA)
		assert.False(t, infos[0].Detached)
		assert.True(t, infos[0].Main)
	}
}

func TestParsePorcelainMultipleRecordsFirstIsMain(t *testing.T) {
	out := "worktree /home/dev/proj\nHEAD abc123\nbranch refs/heads/main\n" +
		"\n" +
		"worktree /home/dev/proj-feature\nHEAD def456\nbranch refs/heads/feature-x\n" +
		"\n" +
		"worktree /home/dev/proj-detached\nHEAD fed987\ndetached\n"

	infos := parsePorcelain(out)
	if assert.Len(t, infos, 3) {
		assert.True(t, infos[0].Main)
		assert.False(t, infos[1].Main)
		assert.Equal(t, "feature-x", infos[1].Branch)
		assert.True(t, infos[2].Detached)
		assert.Empty(t, infos[2].Branch)
	}
}

func TestParsePorcelainEmptyInput(t *testing.T) {
	assert.Empty(t, parsePorcelain(""))
}

func TestSuggestSessionNameUsesBaseName(t *testing.T) {
	assert.Equal(t, "my-feature", SuggestSessionName("/home/dev/worktrees/my-feature"))
}

func TestCacheMemoizesUntilExpiry(t *testing.T) {
	calls := 0
	c := NewCache(50 * time.Millisecond)

	// Exercise the cache's own bookkeeping directly rather than shelling
	// out to a real git repo: seed an entry and confirm it's served back
	// without another lookup until it expires.
	c.entries["/some/dir"] = cacheEntry{root: "/some", ok: true, expires: time.Now().Add(50 * time.Millisecond)}
	root, ok := c.WorktreeRoot("/some/dir")
	assert.True(t, ok)
	assert.Equal(t, "/some", root)
	assert.Equal(t, 0, calls)

	c.Invalidate("/some/dir")
	_, stillCached := c.entries["/some/dir"]
	assert.False(t, stillCached)

	// An expired entry is not served: the lookup goes back to git, which
	// finds no worktree for a directory that does not exist.
	c.entries["/no/such/dir"] = cacheEntry{root: "/stale", ok: true, expires: time.Now().Add(-time.Second)}
	root, ok = c.WorktreeRoot("/no/such/dir")
	assert.False(t, ok)
	assert.NotEqual(t, "/stale", root)
}
