package notebook

import (
	"context"
	"fmt"
	"slices"

	"github.com/morozRed/notegraph/internal/edges"
	"github.com/morozRed/notegraph/internal/errs"
	"github.com/morozRed/notegraph/internal/graph"
	"github.com/morozRed/notegraph/internal/pathutil"
	"github.com/morozRed/notegraph/internal/scan"
)

// RegionEditing is the collapse/expand surface offered to navigation and
// rendering code.
type RegionEditing interface {
	Collapse(regionID string) bool
	Expand(regionID string) bool
	IsCollapsed(regionID string) bool
	Collapsed() []string
	ResolveVisible(path string) (string, bool)
}

// PathEditing is the file CRUD surface. It is only offered when the
// workspace accepts writes.
type PathEditing interface {
	CreateFile(ctx context.Context, path, content string) error
	CreateDirectory(ctx context.Context, path string) error
	RenamePath(ctx context.Context, oldPath, newPath string) error
	DeletePath(ctx context.Context, path string) error
}

var (
	_ RegionEditing = (*Service)(nil)
	_ PathEditing   = (*Service)(nil)
)

// RegionEditing returns the collapse/expand capability.
func (s *Service) RegionEditing() RegionEditing {
	return s
}

// PathEditing returns the file CRUD capability, or false for a read-only
// workspace.
func (s *Service) PathEditing() (PathEditing, bool) {
	if s.mutator == nil {
		return nil, false
	}
	return s, true
}

// CreateFile creates a file through the workspace and adds its node, any
// missing ancestor regions and its outgoing edges.
func (s *Service) CreateFile(ctx context.Context, path, content string) error {
	id, err := s.mutablePath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.regions.Exists(id) {
		return fmt.Errorf("%w: %s already exists", errs.ErrPath, id)
	}
	if err := s.mutator.CreateFile(ctx, id, content); err != nil {
		return err
	}
	s.generation.Add(1)
	s.reader.Invalidate(id)

	sub := graph.NewSubgraph()
	s.addAncestorsLocked(ctx, sub, id)
	d, isNode := scan.File(id, s.scanOpts)
	if isNode {
		sub.Nodes[id] = d.Node()
	}
	s.regions.Insert(sub)
	if isNode {
		s.relinkSourcesLocked(ctx, map[string]bool{id: true})
	}
	return nil
}

// CreateDirectory creates a directory through the workspace and adds its
// region.
func (s *Service) CreateDirectory(ctx context.Context, path string) error {
	id, err := s.mutablePath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.regions.Exists(id) {
		return fmt.Errorf("%w: %s already exists", errs.ErrPath, id)
	}
	if err := s.mutator.CreateDirectory(ctx, id); err != nil {
		return err
	}
	s.generation.Add(1)

	sub := graph.NewSubgraph()
	s.addAncestorsLocked(ctx, sub, id)
	if d, ok := scan.Region(id, nil, s.scanOpts); ok {
		sub.Regions[id] = d.Region()
	}
	s.regions.Insert(sub)
	return nil
}

// RenamePath renames or moves a file or directory through the workspace and
// rewrites every id, parent, label, link and edge endpoint under it. Moved
// files have their references resolved again from the new location.
func (s *Service) RenamePath(ctx context.Context, oldPath, newPath string) error {
	oldID, err := s.mutablePath(oldPath)
	if err != nil {
		return err
	}
	newID, err := s.mutablePath(newPath)
	if err != nil {
		return err
	}
	if oldID == newID {
		return nil
	}
	if pathutil.Within(newID, oldID) {
		return fmt.Errorf("%w: cannot move %s into itself", errs.ErrPath, oldID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.regions.Exists(newID) {
		return fmt.Errorf("%w: %s already exists", errs.ErrPath, newID)
	}
	if err := s.mutator.Rename(ctx, oldID, newID); err != nil {
		return err
	}
	s.generation.Add(1)
	s.reader.Invalidate(oldID)
	s.reader.Invalidate(newID)
	collapsedBefore := s.regions.Collapsed()

	existed := s.regions.Exists(oldID)
	if existed {
		s.regions.RenamePath(oldID, newID)
		// A rename can change a file's extension.
		for id := range s.regions.Full().Nodes {
			if !pathutil.Within(id, newID) {
				continue
			}
			if _, ok := scan.File(id, s.scanOpts); !ok {
				s.regions.RemovePath(id)
			}
		}
	} else {
		s.insertPathLocked(ctx, newID)
	}

	sources := make(map[string]bool)
	for id := range s.regions.Full().Nodes {
		if pathutil.Within(id, newID) {
			sources[id] = true
		}
	}
	if len(sources) > 0 {
		s.relinkSourcesLocked(ctx, sources)
	}
	if !slices.Equal(collapsedBefore, s.regions.Collapsed()) {
		s.saveCollapsedLocked()
	}
	return nil
}

// DeletePath deletes a file or directory through the workspace and removes
// it, its subtree and every touching edge from the graph.
func (s *Service) DeletePath(ctx context.Context, path string) error {
	id, err := s.mutablePath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutator.Delete(ctx, id); err != nil {
		return err
	}
	s.generation.Add(1)
	s.reader.Invalidate(id)

	collapsedBefore := s.regions.Collapsed()
	removed := s.regions.RemovePath(id)
	s.logger.Debug("removed path",
		"path", id,
		"nodes", len(removed.Nodes),
		"regions", len(removed.Regions),
		"edges", len(removed.Edges))
	if !slices.Equal(collapsedBefore, s.regions.Collapsed()) {
		s.saveCollapsedLocked()
	}
	return nil
}

func (s *Service) mutablePath(path string) (string, error) {
	if s.mutator == nil {
		return "", ErrReadOnly
	}
	id, err := pathutil.Clean(path)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: the root cannot be modified", errs.ErrPath)
	}
	return id, nil
}

// addAncestorsLocked adds a region for every missing ancestor of id.
func (s *Service) addAncestorsLocked(ctx context.Context, sub *graph.Subgraph, id string) {
	ancestors := pathutil.Ancestors(id)
	slices.Reverse(ancestors)
	for _, dir := range ancestors {
		if s.regions.Exists(dir) {
			continue
		}
		children, _ := s.fs.List(ctx, dir)
		if d, ok := scan.Region(dir, children, s.scanOpts); ok {
			sub.Regions[dir] = d.Region()
		}
	}
}

// insertPathLocked adds a path that was not part of the graph before, such
// as a file renamed to an allowed extension or a directory moved in from an
// ignored location.
func (s *Service) insertPathLocked(ctx context.Context, id string) {
	sub := graph.NewSubgraph()
	s.addAncestorsLocked(ctx, sub, id)

	children, err := s.fs.List(ctx, id)
	if err == nil {
		if d, ok := scan.Region(id, children, s.scanOpts); ok {
			sub.Regions[id] = d.Region()
			tree, err := scan.Subtree(ctx, s.fs, id, s.scanOpts)
			if err != nil {
				s.logger.Warn("failed to scan moved directory", "path", id, "error", err)
			} else {
				sub.Merge(tree)
			}
		}
	} else if d, ok := scan.File(id, s.scanOpts); ok {
		sub.Nodes[id] = d.Node()
	}
	s.regions.Insert(sub)
}

// relinkSourcesLocked recomputes the outgoing edges of sources.
func (s *Service) relinkSourcesLocked(ctx context.Context, sources map[string]bool) {
	ids := nodeIDs(s.regions.Full())
	found, report, err := edges.SynthesizeFrom(ctx, keys(sources), ids, s.reader, s.synthOpts)
	if err != nil {
		s.logger.Warn("failed to synthesize edges", "sources", len(sources), "error", err)
		return
	}
	if len(report.Failed) > 0 {
		s.logger.Debug("unreadable sources during relink", "failed", report.Failed)
	}
	s.regions.ReplaceOutgoing(sources, found)
}
