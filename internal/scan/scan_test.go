package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/notegraph/internal/errs"
	"github.com/morozRed/notegraph/internal/graph"
	"github.com/morozRed/notegraph/internal/ignore"
	"github.com/morozRed/notegraph/internal/workspace"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return root
}

func testOptions() Options {
	return Options{
		AllowedExtensions:     ExtensionSet([]string{"html", ".js"}),
		Ignore:                ignore.NewMatcher([]string{"private/"}),
		DefaultImageURL:       "/DefaultNodeImage.png",
		DefaultRegionImageURL: "/DefaultRegionImage.png",
		RegionImageName:       "directory.png",
		LinkPrefix:            "Notebook/",
	}
}

func TestBuildNodes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html":          "",
		"docs/page1.html":     "",
		"docs/sub/page2.html": "",
		"docs/notes.txt":      "",
		"private/secret.html": "",
		"lib/app.js":          "",
	})
	fs, err := workspace.NewLocal(root)
	require.NoError(t, err)

	ids := make([]string, 0)
	for d, err := range BuildNodes(context.Background(), fs, "", testOptions()) {
		require.NoError(t, err)
		assert.Equal(t, graph.KindFile, d.Kind)
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{"index.html", "docs/page1.html", "docs/sub/page2.html", "lib/app.js"}, ids)

	// The sequence is restartable and yields the same id set.
	again, err := Collect(BuildNodes(context.Background(), fs, "", testOptions()))
	require.NoError(t, err)
	assert.Len(t, again.Nodes, len(ids))
	node := again.Nodes["docs/sub/page2.html"]
	assert.Equal(t, "page2.html", node.Label)
	assert.Equal(t, "docs/sub", node.Parent)
	assert.Equal(t, "Notebook/docs/sub/page2.html", node.Link)
	assert.Equal(t, "/DefaultNodeImage.png", node.ImageURL)
}

func TestBuildRegionsPreOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"docs/page1.html":        "",
		"docs/sub/page2.html":    "",
		"docs/sub/directory.png": "png",
		"docs/sub/deep/x.html":   "",
		"zeta/a.html":            "",
	})
	fs, err := workspace.NewLocal(root)
	require.NoError(t, err)

	seen := make(map[string]bool)
	var regions []Descriptor
	for d, err := range BuildRegions(context.Background(), fs, "", testOptions()) {
		require.NoError(t, err)
		for existing := range seen {
			assert.False(t, strings.HasPrefix(existing, d.ID+"/"), "%s emitted before its region %s", existing, d.ID)
		}
		if d.Parent != "" {
			assert.True(t, seen[d.Parent], "parent %s of %s must be emitted first", d.Parent, d.ID)
		}
		seen[d.ID] = true
		if d.IsRegion() {
			regions = append(regions, d)
		}
	}

	ids := make([]string, 0, len(regions))
	for _, r := range regions {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"docs", "docs/sub", "docs/sub/deep", "zeta"}, ids)
	assert.Equal(t, "", regions[0].Parent)
	assert.Equal(t, "docs", regions[1].Parent)
	assert.Equal(t, "Notebook/docs/sub/directory.png", regions[1].ImageURL)
	assert.Equal(t, "/DefaultRegionImage.png", regions[0].ImageURL)
	assert.True(t, seen["docs/sub/deep/x.html"])
}

func TestBuildNodesMissingRoot(t *testing.T) {
	fs, err := workspace.NewLocal(t.TempDir())
	require.NoError(t, err)

	count := 0
	for _, err := range BuildNodes(context.Background(), fs, "missing", testOptions()) {
		count++
		assert.ErrorIs(t, err, errs.ErrPath)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	}
	assert.Equal(t, 1, count)

	_, err = Collect(BuildRegions(context.Background(), fs, "../escape", testOptions()))
	assert.ErrorIs(t, err, errs.ErrPath)
}

type flakyLister struct {
	entries map[string][]workspace.Entry
	broken  map[string]bool
}

func (f flakyLister) List(_ context.Context, path string) ([]workspace.Entry, error) {
	if f.broken[path] {
		return nil, errors.New("permission denied")
	}
	return f.entries[path], nil
}

func TestBuildRegionsSkipsUnreadableDirectories(t *testing.T) {
	lister := flakyLister{
		entries: map[string][]workspace.Entry{
			"": {
				{Name: "ok", Type: workspace.EntryDirectory},
				{Name: "locked", Type: workspace.EntryDirectory},
			},
			"ok": {{Name: "a.html", Type: workspace.EntryFile}},
		},
		broken: map[string]bool{"locked": true},
	}

	g, err := Collect(BuildRegions(context.Background(), lister, "", testOptions()))
	require.NoError(t, err)
	assert.Contains(t, g.Regions, "ok")
	assert.NotContains(t, g.Regions, "locked")
	assert.Contains(t, g.Nodes, "ok/a.html")
}

func TestBuildNodesStopsEarly(t *testing.T) {
	root := writeTree(t, map[string]string{"a.html": "", "b.html": "", "c.html": ""})
	fs, err := workspace.NewLocal(root)
	require.NoError(t, err)

	count := 0
	for range BuildNodes(context.Background(), fs, "", testOptions()) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestBuildNodesCancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.html": ""})
	fs, err := workspace.NewLocal(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Collect(BuildNodes(ctx, fs, "", testOptions()))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, errs.ErrPath)

	_, err = Collect(BuildRegions(ctx, fs, "", testOptions()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSingleDescriptors(t *testing.T) {
	opts := testOptions()

	d, ok := File("/docs//page1.html", opts)
	require.True(t, ok)
	assert.Equal(t, Descriptor{
		Kind:     graph.KindFile,
		ID:       "docs/page1.html",
		Label:    "page1.html",
		Parent:   "docs",
		Link:     "Notebook/docs/page1.html",
		ImageURL: "/DefaultNodeImage.png",
	}, d)

	_, ok = File("docs/notes.txt", opts)
	assert.False(t, ok)
	_, ok = File("private/secret.html", opts)
	assert.False(t, ok)

	r, ok := Region("docs/sub", []workspace.Entry{{Name: "directory.png", Type: workspace.EntryFile}}, opts)
	require.True(t, ok)
	assert.Equal(t, "docs", r.Parent)
	assert.Equal(t, "Notebook/docs/sub/directory.png", r.ImageURL)

	r, ok = Region("docs", nil, opts)
	require.True(t, ok)
	assert.Equal(t, "/DefaultRegionImage.png", r.ImageURL)

	_, ok = Region("private", nil, opts)
	assert.False(t, ok)
}

func TestSubtreeUsesWorkspaceIDs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"docs/page1.html":        "",
		"docs/sub/page2.html":    "",
		"docs/sub/directory.png": "",
		"other/skip.html":        "",
	})
	fs, err := workspace.NewLocal(root)
	require.NoError(t, err)

	g, err := Subtree(context.Background(), fs, "docs", testOptions())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"docs/page1.html", "docs/sub/page2.html"}, keys(g.Nodes))
	assert.ElementsMatch(t, []string{"docs/sub"}, keys(g.Regions))
	assert.Equal(t, "docs", g.Nodes["docs/page1.html"].Parent)
	assert.Equal(t, "docs/sub", g.Nodes["docs/sub/page2.html"].Parent)
	assert.Equal(t, "Notebook/docs/sub/page2.html", g.Nodes["docs/sub/page2.html"].Link)
	assert.Equal(t, "Notebook/docs/sub/directory.png", g.Regions["docs/sub"].ImageURL)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
