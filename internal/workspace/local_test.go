package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/notegraph/internal/errs"
)

func newTestLocal(t *testing.T) (*Local, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "page1.html"), []byte(`<a href="sub/page2.html">x</a>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "sub", "page2.html"), []byte("page2"), 0o644))
	local, err := NewLocal(root)
	require.NoError(t, err)
	return local, root
}

func TestLocalListAndRead(t *testing.T) {
	local, _ := newTestLocal(t)
	ctx := context.Background()

	entries, err := local.List(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "page1.html", Type: EntryFile},
		{Name: "sub", Type: EntryDirectory},
	}, entries)

	content, err := local.Read(ctx, "/docs//sub/page2.html")
	require.NoError(t, err)
	assert.Equal(t, "page2", content)

	_, err = local.Read(ctx, "docs/missing.html")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = local.Read(ctx, "docs")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = local.List(ctx, "../")
	assert.ErrorIs(t, err, errs.ErrPath)
}

func TestLocalMutations(t *testing.T) {
	local, root := newTestLocal(t)
	ctx := context.Background()

	require.NoError(t, local.CreateFile(ctx, "notes/new.html", "hello"))
	data, err := os.ReadFile(filepath.Join(root, "notes", "new.html"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	assert.Error(t, local.CreateFile(ctx, "notes/new.html", "again"), "existing files are not overwritten")

	require.NoError(t, local.CreateDirectory(ctx, "empty"))
	require.NoError(t, local.Rename(ctx, "notes", "archive/notes"))
	_, err = os.Stat(filepath.Join(root, "archive", "notes", "new.html"))
	require.NoError(t, err)

	assert.ErrorIs(t, local.Rename(ctx, "missing", "other"), errs.ErrNotFound)
	assert.ErrorIs(t, local.Rename(ctx, "docs", "archive"), errs.ErrPath)

	require.NoError(t, local.Delete(ctx, "archive"))
	_, err = os.Stat(filepath.Join(root, "archive"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, local.Delete(ctx, ""), errs.ErrPath)
	assert.ErrorIs(t, local.Delete(ctx, "../etc"), errs.ErrPath)
}

func TestNewLocalRejectsMissingRoot(t *testing.T) {
	_, err := NewLocal(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, errs.ErrPath)
}

func TestCachedReader(t *testing.T) {
	reads := 0
	backing := ReaderFunc(func(ctx context.Context, path string) (string, error) {
		reads++
		return "content:" + path, nil
	})

	cached, err := NewCachedReader(backing, 4)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := cached.Read(ctx, "docs/a.html")
		require.NoError(t, err)
		assert.Equal(t, "content:docs/a.html", got)
	}
	assert.Equal(t, 1, reads)

	_, _ = cached.Read(ctx, "docs/sub/b.html")
	_, _ = cached.Read(ctx, "other.html")
	assert.Equal(t, 3, cached.Len())

	cached.Invalidate("docs")
	assert.Equal(t, 1, cached.Len())

	_, _ = cached.Read(ctx, "docs/a.html")
	assert.Equal(t, 4, reads)

	cached.Purge()
	assert.Equal(t, 0, cached.Len())

	_, err = NewCachedReader(backing, 0)
	assert.Error(t, err)
}
