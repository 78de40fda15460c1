// Package graph holds the authoritative in-memory compound graph: file nodes,
// directory regions, reference edges and the parent relation between them.
package graph

import (
	"fmt"
	"sync"

	"github.com/morozRed/notegraph/internal/errs"
)

// Store is the working copy handed to the renderer. It holds the visible
// elements and the real edges between them, plus derived edges that stand in
// for references hidden behind collapsed regions.
type Store struct {
	mu      sync.RWMutex
	visible *Subgraph
	derived map[string]Edge
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		visible: NewSubgraph(),
		derived: make(map[string]Edge),
	}
}

// Replace swaps the whole visible graph, dropping derived edges.
func (s *Store) Replace(g *Subgraph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g == nil {
		g = NewSubgraph()
	}
	s.visible = g
	s.derived = make(map[string]Edge)
}

// UpsertNode inserts or replaces a file node.
func (s *Store) UpsertNode(n Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.Kind = KindFile
	s.visible.Nodes[n.ID] = n
}

// UpsertRegion inserts or replaces a region.
func (s *Store) UpsertRegion(r Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Kind = KindRegion
	s.visible.Regions[r.ID] = r
}

// UpsertEdge inserts an edge whose endpoints are both present.
func (s *Store) UpsertEdge(e Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible.Contains(e.Source) || !s.visible.Contains(e.Target) {
		return fmt.Errorf("%w: edge %s has a missing endpoint", errs.ErrNotFound, e.ID)
	}
	e.ID = EdgeID(e.Source, e.Target)
	s.visible.Edges[e.ID] = e
	return nil
}

// RemoveSubtree removes regionID, every element whose parent chain passes
// through it and every edge touching any of them. The removed part is returned
// for archival.
func (s *Store) RemoveSubtree(regionID string) (*Subgraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visible.Regions[regionID]; !ok {
		return nil, fmt.Errorf("%w: region %q", errs.ErrNotFound, regionID)
	}
	ids := s.visible.Descendants(regionID)
	ids[regionID] = true
	return s.visible.Extract(ids), nil
}

// RestoreSubtree merges a previously removed subgraph back in.
func (s *Store) RestoreSubtree(snapshot *Subgraph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible.Merge(snapshot)
}

// RemovePath removes path and everything beneath it.
func (s *Store) RemovePath(path string) *Subgraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.visible.RemovePath(path)
	for id, e := range s.derived {
		if e.Touches(removed.ElementIDs()) {
			delete(s.derived, id)
		}
	}
	return removed
}

// RenamePath rewrites every id under oldPath to newPath.
func (s *Store) RenamePath(oldPath, newPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible.RenamePath(oldPath, newPath)
}

// SetDerived replaces the derived edge set.
func (s *Store) SetDerived(edges []Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.derived = make(map[string]Edge, len(edges))
	for _, e := range edges {
		s.derived[e.ID] = e
	}
}

// Derived returns the derived edges ordered by id.
func (s *Store) Derived() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortEdges(s.derived)
}

// Has reports whether id is a visible node or region.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible.Contains(id)
}

// Node returns a visible file node.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.visible.Nodes[id]
	return n, ok
}

// Region returns a visible region.
func (s *Store) Region(id string) (Region, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.visible.Regions[id]
	return r, ok
}

// VisibleIDs returns the ids of every visible node and region.
func (s *Store) VisibleIDs() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible.ElementIDs()
}

// Snapshot returns a copy of the visible nodes, regions and real edges.
func (s *Store) Snapshot() *Subgraph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible.Clone()
}

// Stats summarizes the store contents.
type Stats struct {
	Nodes   int `json:"nodes"`
	Regions int `json:"regions"`
	Edges   int `json:"edges"`
	Derived int `json:"derived"`
}

// Stats returns element counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Nodes:   len(s.visible.Nodes),
		Regions: len(s.visible.Regions),
		Edges:   len(s.visible.Edges),
		Derived: len(s.derived),
	}
}
