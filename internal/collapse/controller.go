// Package collapse implements the region collapse/expand state machine over a
// graph.Store. A collapsed region hides its subtree behind the region node and
// keeps the hidden elements and edges in an archive keyed by region id.
package collapse

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/morozRed/notegraph/internal/graph"
	"github.com/morozRed/notegraph/internal/pathutil"
)

// Refresher receives a layout refresh request after the visible graph changes.
type Refresher interface {
	Refresh(reason, regionID string)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(reason, regionID string)

func (f RefresherFunc) Refresh(reason, regionID string) {
	f(reason, regionID)
}

// Options configures a Controller.
type Options struct {
	Refresher Refresher
	Logger    *slog.Logger
}

// Controller owns the archives of collapsed regions. Every real edge lives in
// exactly one place: the store when both endpoints are visible, otherwise the
// archive of the innermost collapsed region hiding one of them.
type Controller struct {
	mu        sync.RWMutex
	store     *graph.Store
	archives  map[string]*graph.Subgraph
	refresher Refresher
	logger    *slog.Logger
}

// New creates a controller over store with every region expanded.
func New(store *graph.Store, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:     store,
		archives:  make(map[string]*graph.Subgraph),
		refresher: opts.Refresher,
		logger:    logger,
	}
}

// AnchorParent returns the parent a region is re-attached to while collapsed:
// the part of its id before the last separator, or the id itself at the top
// level.
func AnchorParent(regionID string) string {
	idx := strings.LastIndex(regionID, pathutil.Separator)
	if idx == -1 {
		return regionID
	}
	return regionID[:idx]
}

// Collapse hides the subtree of regionID. It reports false, changing nothing,
// when the region is not visible or already collapsed.
func (c *Controller) Collapse(regionID string) bool {
	regionID = pathutil.Normalize(regionID)
	c.mu.Lock()
	applied := c.collapseLocked(regionID)
	c.mu.Unlock()

	c.record("collapse", regionID, applied)
	if applied {
		c.refresh("collapse", regionID)
	}
	return applied
}

func (c *Controller) collapseLocked(regionID string) bool {
	if _, ok := c.archives[regionID]; ok {
		return false
	}
	if _, ok := c.store.Region(regionID); !ok {
		return false
	}

	snapshot, err := c.store.RemoveSubtree(regionID)
	if err != nil {
		return false
	}
	anchored := snapshot.Regions[regionID]
	anchored.Parent = AnchorParent(regionID)
	c.store.UpsertRegion(anchored)
	c.archives[regionID] = snapshot

	c.settleLocked()
	return true
}

// Expand restores the archived subtree of regionID. It reports false when the
// region is not collapsed or is itself hidden by a collapsed ancestor.
func (c *Controller) Expand(regionID string) bool {
	regionID = pathutil.Normalize(regionID)
	c.mu.Lock()
	applied := c.expandLocked(regionID)
	c.mu.Unlock()

	c.record("expand", regionID, applied)
	if applied {
		c.refresh("expand", regionID)
	}
	return applied
}

func (c *Controller) expandLocked(regionID string) bool {
	archive, ok := c.archives[regionID]
	if !ok {
		return false
	}
	if !c.store.Has(regionID) {
		return false
	}
	delete(c.archives, regionID)
	c.store.RestoreSubtree(archive)

	c.settleLocked()
	return true
}

// IsCollapsed reports whether regionID is collapsed.
func (c *Controller) IsCollapsed(regionID string) bool {
	regionID = pathutil.Normalize(regionID)
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.archives[regionID]
	return ok
}

// Collapsed returns the collapsed region ids in sorted order.
func (c *Controller) Collapsed() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.archives))
	for id := range c.archives {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Archive returns a copy of the archive held for regionID.
func (c *Controller) Archive(regionID string) (*graph.Subgraph, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	archive, ok := c.archives[regionID]
	if !ok {
		return nil, false
	}
	return archive.Clone(), true
}

// Hidden returns a copy of every archived element and edge.
func (c *Controller) Hidden() *graph.Subgraph {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := graph.NewSubgraph()
	for _, archive := range c.archives {
		out.Merge(archive)
	}
	return out
}

// Full returns a copy of the whole graph as if every region were expanded.
func (c *Controller) Full() *graph.Subgraph {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.store.Snapshot()
	for _, archive := range c.archives {
		out.Merge(archive)
	}
	// Pre-collapse records win over anchored ones.
	for regionID, archive := range c.archives {
		if r, ok := archive.Regions[regionID]; ok {
			out.Regions[regionID] = r
		}
	}
	return out
}

// ResolveVisible maps target to the nearest visible id.
func (c *Controller) ResolveVisible(target string) (string, bool) {
	return graph.ResolveVisible(c.store.VisibleIDs(), target)
}

// Project returns the visible graph with each region's collapse state.
func (c *Controller) Project() graph.Projection {
	collapsed := make(map[string]bool)
	for _, id := range c.Collapsed() {
		collapsed[id] = true
	}
	return c.store.ProjectVisible(func(regionID string) bool {
		return collapsed[regionID]
	})
}

// Load replaces the whole graph with g and collapses the given regions,
// deepest first so nested collapses survive. It returns the regions that
// were applied.
func (c *Controller) Load(g *graph.Subgraph, collapsed []string) []string {
	ordered := make([]string, 0, len(collapsed))
	for _, id := range collapsed {
		if id = pathutil.Normalize(id); id != "" {
			ordered = append(ordered, id)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return depth(ordered[i]) > depth(ordered[j])
	})

	c.mu.Lock()
	c.store.Replace(g)
	c.archives = make(map[string]*graph.Subgraph)
	applied := make([]string, 0, len(ordered))
	for _, id := range ordered {
		if c.collapseLocked(id) {
			applied = append(applied, id)
		}
	}
	c.deriveLocked()
	c.mu.Unlock()

	archivedRegions.Set(float64(len(applied)))
	c.refresh("load", "")
	sort.Strings(applied)
	return applied
}

func depth(id string) int {
	return strings.Count(id, pathutil.Separator)
}

func (c *Controller) refresh(reason, regionID string) {
	if c.refresher != nil {
		c.refresher.Refresh(reason, regionID)
	}
}

func (c *Controller) record(operation, regionID string, applied bool) {
	result := "noop"
	if applied {
		result = "applied"
	}
	operationsTotal.WithLabelValues(operation, result).Inc()
	if !applied {
		c.logger.Debug("region state unchanged", "operation", operation, "region", regionID)
		return
	}
	c.mu.RLock()
	archivedRegions.Set(float64(len(c.archives)))
	c.mu.RUnlock()
}
