package graph

import (
	"sort"
	"strings"

	"github.com/morozRed/notegraph/internal/pathutil"
)

// Subgraph is a set of nodes, regions and edges keyed by id. It is the unit
// moved in and out of the Store when regions collapse and expand.
type Subgraph struct {
	Nodes   map[string]Node
	Regions map[string]Region
	Edges   map[string]Edge
}

// NewSubgraph creates an empty subgraph.
func NewSubgraph() *Subgraph {
	return &Subgraph{
		Nodes:   make(map[string]Node),
		Regions: make(map[string]Region),
		Edges:   make(map[string]Edge),
	}
}

// Empty reports whether the subgraph holds nothing.
func (s *Subgraph) Empty() bool {
	return len(s.Nodes) == 0 && len(s.Regions) == 0 && len(s.Edges) == 0
}

// Contains reports whether id is a node or region of s.
func (s *Subgraph) Contains(id string) bool {
	if _, ok := s.Nodes[id]; ok {
		return true
	}
	_, ok := s.Regions[id]
	return ok
}

// ElementIDs returns the ids of every node and region.
func (s *Subgraph) ElementIDs() map[string]bool {
	ids := make(map[string]bool, len(s.Nodes)+len(s.Regions))
	for id := range s.Nodes {
		ids[id] = true
	}
	for id := range s.Regions {
		ids[id] = true
	}
	return ids
}

// parentOf returns the recorded parent of an element.
func (s *Subgraph) parentOf(id string) (string, bool) {
	if n, ok := s.Nodes[id]; ok {
		return n.Parent, true
	}
	if r, ok := s.Regions[id]; ok {
		return r.Parent, true
	}
	return "", false
}

// Descendants returns every element whose parent chain passes through
// regionID. A region recorded as its own parent ends the chain.
func (s *Subgraph) Descendants(regionID string) map[string]bool {
	out := make(map[string]bool)
	for id := range s.ElementIDs() {
		if id == regionID {
			continue
		}
		visited := map[string]bool{id: true}
		current, ok := s.parentOf(id)
		for ok && current != "" {
			if current == regionID {
				out[id] = true
				break
			}
			if visited[current] {
				break
			}
			visited[current] = true
			current, ok = s.parentOf(current)
		}
	}
	return out
}

// Extract removes the elements in ids plus every edge touching them and
// returns what was removed.
func (s *Subgraph) Extract(ids map[string]bool) *Subgraph {
	removed := NewSubgraph()
	for id := range ids {
		if n, ok := s.Nodes[id]; ok {
			removed.Nodes[id] = n
			delete(s.Nodes, id)
		}
		if r, ok := s.Regions[id]; ok {
			removed.Regions[id] = r
			delete(s.Regions, id)
		}
	}
	for id, e := range s.Edges {
		if e.Touches(ids) {
			removed.Edges[id] = e
			delete(s.Edges, id)
		}
	}
	return removed
}

// Merge copies every element and edge of other into s, overwriting by id.
func (s *Subgraph) Merge(other *Subgraph) {
	if other == nil {
		return
	}
	for id, n := range other.Nodes {
		s.Nodes[id] = n
	}
	for id, r := range other.Regions {
		s.Regions[id] = r
	}
	for id, e := range other.Edges {
		s.Edges[id] = e
	}
}

// Clone returns a deep copy.
func (s *Subgraph) Clone() *Subgraph {
	out := NewSubgraph()
	out.Merge(s)
	return out
}

// RemovePath removes path and everything beneath it, plus touching edges.
func (s *Subgraph) RemovePath(path string) *Subgraph {
	ids := make(map[string]bool)
	for id := range s.ElementIDs() {
		if pathutil.Within(id, path) {
			ids[id] = true
		}
	}
	removed := s.Extract(ids)
	// Edges may reference elements held elsewhere (another archive).
	for id, e := range s.Edges {
		if pathutil.Within(e.Source, path) || pathutil.Within(e.Target, path) {
			removed.Edges[id] = e
			delete(s.Edges, id)
		}
	}
	return removed
}

// RenamePath moves every element under oldPath to newPath and rewrites
// parents, labels, links and edge endpoints. It reports whether anything changed.
func (s *Subgraph) RenamePath(oldPath, newPath string) bool {
	changed := false
	rebase := func(id string) string {
		if next, ok := pathutil.Rebase(id, oldPath, newPath); ok {
			changed = true
			return next
		}
		return id
	}

	nodes := make(map[string]Node, len(s.Nodes))
	for _, n := range s.Nodes {
		id := rebase(n.ID)
		if id != n.ID {
			n.Label = pathutil.Base(id)
			if strings.HasSuffix(n.Link, n.ID) {
				n.Link = strings.TrimSuffix(n.Link, n.ID) + id
			}
		}
		n.Parent = movedParent(n.ID, n.Parent, id, oldPath, rebase)
		n.ID = id
		nodes[n.ID] = n
	}
	regions := make(map[string]Region, len(s.Regions))
	for _, r := range s.Regions {
		id := rebase(r.ID)
		if id != r.ID {
			r.Label = pathutil.Base(id)
			r.ImageURL = strings.Replace(r.ImageURL, r.ID+pathutil.Separator, id+pathutil.Separator, 1)
		}
		r.Parent = movedParent(r.ID, r.Parent, id, oldPath, rebase)
		r.ID = id
		regions[r.ID] = r
	}
	edges := make(map[string]Edge, len(s.Edges))
	for _, e := range s.Edges {
		e = NewEdge(rebase(e.Source), rebase(e.Target))
		edges[e.ID] = e
	}

	s.Nodes, s.Regions, s.Edges = nodes, regions, edges
	return changed
}

// movedParent returns the parent of an element after a rename. The renamed
// element itself moves under the directory of its new path unless it is
// recorded as its own parent.
func movedParent(oldID, parent, newID, oldPath string, rebase func(string) string) string {
	if oldID == oldPath && parent != oldID {
		return pathutil.Parent(newID)
	}
	return rebase(parent)
}

// SortedNodes returns nodes ordered by id.
func (s *Subgraph) SortedNodes() []Node {
	out := make([]Node, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortedRegions returns regions ordered by id.
func (s *Subgraph) SortedRegions() []Region {
	out := make([]Region, 0, len(s.Regions))
	for _, r := range s.Regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortedEdges returns edges ordered by id.
func (s *Subgraph) SortedEdges() []Edge {
	return sortEdges(s.Edges)
}

func sortEdges(edges map[string]Edge) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
