package collapse

import (
	"sort"

	"github.com/morozRed/notegraph/internal/graph"
	"github.com/morozRed/notegraph/internal/pathutil"
)

// Insert adds elements and edges to the graph. Elements under a collapsed
// region go to that region's archive; edges with a missing endpoint are
// dropped.
func (c *Controller) Insert(sub *graph.Subgraph) {
	if sub == nil || sub.Empty() {
		return
	}
	c.mu.Lock()
	visible := c.store.Snapshot()
	visible.Merge(sub)
	c.commitLocked(visible)
	c.mu.Unlock()

	c.refresh("insert", "")
}

// RemovePath deletes path and everything beneath it from the store and from
// every archive. Archives of regions under path are discarded. The removed
// elements and edges are returned.
func (c *Controller) RemovePath(path string) *graph.Subgraph {
	path = pathutil.Normalize(path)
	c.mu.Lock()
	visible := c.store.Snapshot()
	removed := visible.RemovePath(path)
	for regionID, archive := range c.archives {
		if pathutil.Within(regionID, path) {
			removed.Merge(archive)
			delete(c.archives, regionID)
			continue
		}
		removed.Merge(archive.RemovePath(path))
	}
	c.commitLocked(visible)
	c.mu.Unlock()

	c.refresh("remove", path)
	return removed
}

// RenamePath moves every id under oldPath to newPath in the store and in
// every archive, re-keying archives of renamed regions. Elements that cross a
// collapse boundary are re-placed.
func (c *Controller) RenamePath(oldPath, newPath string) bool {
	oldPath, newPath = pathutil.Normalize(oldPath), pathutil.Normalize(newPath)
	c.mu.Lock()
	visible := c.store.Snapshot()
	changed := visible.RenamePath(oldPath, newPath)
	archives := make(map[string]*graph.Subgraph, len(c.archives))
	for regionID, archive := range c.archives {
		if archive.RenamePath(oldPath, newPath) {
			changed = true
		}
		if next, ok := pathutil.Rebase(regionID, oldPath, newPath); ok {
			regionID = next
		}
		archives[regionID] = archive
	}
	c.archives = archives
	c.commitLocked(visible)
	c.mu.Unlock()

	if changed {
		c.refresh("rename", newPath)
	}
	return changed
}

// ReplaceOutgoing drops every edge leaving one of sources, wherever it is
// held, and inserts edges in their place.
func (c *Controller) ReplaceOutgoing(sources map[string]bool, edges []graph.Edge) {
	c.mu.Lock()
	visible := c.store.Snapshot()
	dropOutgoing(visible, sources)
	for _, archive := range c.archives {
		dropOutgoing(archive, sources)
	}
	for _, e := range edges {
		visible.Edges[e.ID] = e
	}
	c.commitLocked(visible)
	c.mu.Unlock()

	c.refresh("relink", "")
}

func dropOutgoing(g *graph.Subgraph, sources map[string]bool) {
	for id, e := range g.Edges {
		if sources[e.Source] {
			delete(g.Edges, id)
		}
	}
}

// Exists reports whether id is a node or region, visible or archived.
func (c *Controller) Exists(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.store.Has(id) {
		return true
	}
	owner := c.ownerLocked(id)
	return owner != "" && c.archives[owner].Contains(id)
}

// HiddenBy returns the innermost collapsed region hiding path, if any.
func (c *Controller) HiddenBy(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	owner := c.ownerLocked(pathutil.Normalize(path))
	return owner, owner != ""
}

// settleLocked re-places the store contents after a collapse or expand.
func (c *Controller) settleLocked() {
	c.commitLocked(c.store.Snapshot())
}

// commitLocked rebalances visible against the archives, installs it and
// recomputes derived edges.
func (c *Controller) commitLocked(visible *graph.Subgraph) {
	dropped := c.rebalanceLocked(visible)
	if dropped > 0 {
		c.logger.Debug("dropped edges with missing endpoints", "count", dropped)
	}
	c.anchorLocked(visible)
	c.store.Replace(visible)
	c.deriveLocked()
}

// anchorLocked re-attaches the visible record of every collapsed region to
// its anchor parent. Renames can move a collapsed region under a new path.
func (c *Controller) anchorLocked(visible *graph.Subgraph) {
	for regionID := range c.archives {
		home := c.homeLocked(visible, regionID)
		if r, ok := home.Regions[regionID]; ok {
			r.Parent = AnchorParent(regionID)
			home.Regions[regionID] = r
		}
	}
}

// ownerLocked returns the innermost collapsed region strictly containing id.
func (c *Controller) ownerLocked(id string) string {
	owner := ""
	for regionID := range c.archives {
		if regionID != id && pathutil.Within(id, regionID) && len(regionID) > len(owner) {
			owner = regionID
		}
	}
	return owner
}

func (c *Controller) homeLocked(visible *graph.Subgraph, id string) *graph.Subgraph {
	if owner := c.ownerLocked(id); owner != "" {
		return c.archives[owner]
	}
	return visible
}

// locateLocked returns where id lives: "" for the store, or a region id.
func (c *Controller) locateLocked(visible *graph.Subgraph, id string) (string, bool) {
	if visible.Contains(id) {
		return "", true
	}
	owner := c.ownerLocked(id)
	if owner != "" && c.archives[owner].Contains(id) {
		return owner, true
	}
	return "", false
}

func (c *Controller) edgeHomeLocked(visible *graph.Subgraph, e graph.Edge) (string, bool) {
	source, ok := c.locateLocked(visible, e.Source)
	if !ok {
		return "", false
	}
	target, ok := c.locateLocked(visible, e.Target)
	if !ok {
		return "", false
	}
	if source != "" {
		return source, true
	}
	return target, true
}

// rebalanceLocked moves every misplaced element and edge to its home and
// returns the number of edges dropped for missing endpoints.
func (c *Controller) rebalanceLocked(visible *graph.Subgraph) int {
	pending := graph.NewSubgraph()

	misplaced := make(map[string]bool)
	for id := range visible.ElementIDs() {
		if c.ownerLocked(id) != "" {
			misplaced[id] = true
		}
	}
	pending.Merge(visible.Extract(misplaced))
	for regionID, archive := range c.archives {
		ids := make(map[string]bool)
		for id := range archive.ElementIDs() {
			// The archive keeps the region's own pre-collapse record.
			if id != regionID && c.ownerLocked(id) != regionID {
				ids[id] = true
			}
		}
		if len(ids) > 0 {
			pending.Merge(archive.Extract(ids))
		}
	}

	for id, n := range pending.Nodes {
		c.homeLocked(visible, id).Nodes[id] = n
	}
	for id, r := range pending.Regions {
		c.homeLocked(visible, id).Regions[id] = r
	}

	for id, e := range visible.Edges {
		if !visible.Contains(e.Source) || !visible.Contains(e.Target) {
			pending.Edges[id] = e
			delete(visible.Edges, id)
		}
	}
	for regionID, archive := range c.archives {
		for id, e := range archive.Edges {
			if home, ok := c.edgeHomeLocked(visible, e); !ok || home != regionID {
				pending.Edges[id] = e
				delete(archive.Edges, id)
			}
		}
	}

	dropped := 0
	for id, e := range pending.Edges {
		home, ok := c.edgeHomeLocked(visible, e)
		switch {
		case !ok:
			dropped++
		case home == "":
			visible.Edges[id] = e
		default:
			c.archives[home].Edges[id] = e
		}
	}
	return dropped
}

// deriveLocked recomputes the edges standing in for archived ones: each
// endpoint is remapped to its nearest visible id and self loops are skipped.
func (c *Controller) deriveLocked() {
	visible := c.store.VisibleIDs()
	byID := make(map[string]graph.Edge)
	for _, archive := range c.archives {
		for _, e := range archive.Edges {
			source, ok := graph.ResolveVisible(visible, e.Source)
			if !ok {
				continue
			}
			target, ok := graph.ResolveVisible(visible, e.Target)
			if !ok || source == target {
				continue
			}
			derived := graph.NewEdge(source, target)
			byID[derived.ID] = derived
		}
	}

	out := make([]graph.Edge, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.store.SetDerived(out)
	derivedEdges.Set(float64(len(out)))
}
