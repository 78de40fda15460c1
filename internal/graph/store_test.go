package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/notegraph/internal/errs"
)

func newDocsStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.UpsertRegion(Region{ID: "docs", Label: "docs"})
	s.UpsertRegion(Region{ID: "docs/sub", Label: "sub", Parent: "docs"})
	s.UpsertNode(Node{ID: "docs/page1.html", Label: "page1.html", Parent: "docs"})
	s.UpsertNode(Node{ID: "docs/sub/page2.html", Label: "page2.html", Parent: "docs/sub"})
	s.UpsertNode(Node{ID: "index.html", Label: "index.html"})
	require.NoError(t, s.UpsertEdge(NewEdge("docs/page1.html", "docs/sub/page2.html")))
	require.NoError(t, s.UpsertEdge(NewEdge("index.html", "docs/page1.html")))
	return s
}

func TestEdgeIDIsDerived(t *testing.T) {
	e := NewEdge("docs/page1.html", "docs/sub/page2.html")
	assert.Equal(t, "docs/page1.html_to_docs/sub/page2.html", e.ID)
}

func TestUpsertEdgeRejectsDanglingEndpoints(t *testing.T) {
	s := newDocsStore(t)
	err := s.UpsertEdge(NewEdge("index.html", "missing.html"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, 2, s.Stats().Edges)
}

func TestRemoveSubtreeAndRestore(t *testing.T) {
	s := newDocsStore(t)
	before := s.Snapshot()

	removed, err := s.RemoveSubtree("docs")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"docs/page1.html", "docs/sub/page2.html"}, keys(removed.Nodes))
	assert.ElementsMatch(t, []string{"docs", "docs/sub"}, keys(removed.Regions))
	assert.ElementsMatch(t, []string{
		"docs/page1.html_to_docs/sub/page2.html",
		"index.html_to_docs/page1.html",
	}, keys(removed.Edges))
	assert.Equal(t, map[string]bool{"index.html": true}, s.VisibleIDs())

	s.RestoreSubtree(removed)
	assert.Equal(t, before, s.Snapshot())

	_, err = s.RemoveSubtree("index.html")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDescendantsStopsAtSelfParent(t *testing.T) {
	g := NewSubgraph()
	g.Regions["docs"] = Region{ID: "docs", Parent: "docs", Kind: KindRegion}
	g.Nodes["docs/a.html"] = Node{ID: "docs/a.html", Parent: "docs"}
	g.Regions["other"] = Region{ID: "other", Kind: KindRegion}

	assert.Equal(t, map[string]bool{"docs/a.html": true}, g.Descendants("docs"))
	assert.Empty(t, g.Descendants("other"))
}

func TestRenamePathRewritesEndpoints(t *testing.T) {
	s := newDocsStore(t)
	require.True(t, s.RenamePath("docs/sub", "docs/archive"))

	snap := s.Snapshot()
	assert.Contains(t, snap.Regions, "docs/archive")
	assert.Equal(t, "archive", snap.Regions["docs/archive"].Label)
	node := snap.Nodes["docs/archive/page2.html"]
	assert.Equal(t, "docs/archive", node.Parent)
	assert.Contains(t, snap.Edges, "docs/page1.html_to_docs/archive/page2.html")
	assert.NotContains(t, snap.Edges, "docs/page1.html_to_docs/sub/page2.html")

	assert.False(t, s.RenamePath("nothing", "else"))
}

func TestRemovePath(t *testing.T) {
	s := newDocsStore(t)
	removed := s.RemovePath("docs/sub")
	assert.ElementsMatch(t, []string{"docs/sub/page2.html"}, keys(removed.Nodes))
	assert.ElementsMatch(t, []string{"docs/sub"}, keys(removed.Regions))
	assert.Len(t, removed.Edges, 1)
	assert.Equal(t, 1, s.Stats().Edges)
}

func TestProjectVisible(t *testing.T) {
	s := newDocsStore(t)
	s.SetDerived([]Edge{NewEdge("index.html", "docs")})

	p := s.ProjectVisible(func(id string) bool { return id == "docs/sub" })
	assert.Equal(t, []string{"docs", "docs/sub", "docs/page1.html", "docs/sub/page2.html", "index.html"}, p.NodeIDs())
	assert.Equal(t, []string{
		"docs/page1.html_to_docs/sub/page2.html",
		"index.html_to_docs/page1.html",
		"index.html_to_docs",
	}, p.EdgeIDs())

	for _, el := range p.Nodes {
		assert.Equal(t, GroupNodes, el.Group)
		if view, ok := el.Data.(RegionView); ok && view.ID == "docs/sub" {
			assert.True(t, view.Collapsed)
		}
	}
	last := p.Edges[len(p.Edges)-1].Data.(EdgeView)
	assert.True(t, last.Derived)
	assert.Len(t, p.Elements(), 8)
}

func TestResolveVisible(t *testing.T) {
	visible := map[string]bool{"docs": true, "index.html": true}

	got, ok := ResolveVisible(visible, "docs/sub/page2.html")
	require.True(t, ok)
	assert.Equal(t, "docs", got)

	got, ok = ResolveVisible(visible, "/index.html")
	require.True(t, ok)
	assert.Equal(t, "index.html", got)

	_, ok = ResolveVisible(visible, "other/page.html")
	assert.False(t, ok)

	_, ok = ResolveVisible(visible, "")
	assert.False(t, ok)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestRenamePathMovesUnderNewParent(t *testing.T) {
	g := NewSubgraph()
	g.Regions["docs"] = Region{ID: "docs", Label: "docs", Kind: KindRegion}
	g.Regions["notes"] = Region{ID: "notes", Label: "notes", Kind: KindRegion}
	g.Regions["top"] = Region{ID: "top", Label: "top", Parent: "top", Kind: KindRegion}
	g.Nodes["docs/a.html"] = Node{ID: "docs/a.html", Label: "a.html", Parent: "docs", Link: "Notebook/docs/a.html"}

	require.True(t, g.RenamePath("docs/a.html", "notes/b.html"))
	moved := g.Nodes["notes/b.html"]
	assert.Equal(t, "notes", moved.Parent)
	assert.Equal(t, "b.html", moved.Label)
	assert.Equal(t, "Notebook/notes/b.html", moved.Link)

	require.True(t, g.RenamePath("top", "renamed"))
	assert.Equal(t, "renamed", g.Regions["renamed"].Parent)
}
