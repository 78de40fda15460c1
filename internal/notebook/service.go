// Package notebook owns the working graph of one notebook root. A Service is
// the single writer over the graph store: full scans, incremental file CRUD
// and collapse/expand all go through it.
package notebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/morozRed/notegraph/internal/collapse"
	"github.com/morozRed/notegraph/internal/edges"
	"github.com/morozRed/notegraph/internal/fileutil"
	"github.com/morozRed/notegraph/internal/graph"
	"github.com/morozRed/notegraph/internal/ignore"
	"github.com/morozRed/notegraph/internal/links"
	"github.com/morozRed/notegraph/internal/pathutil"
	"github.com/morozRed/notegraph/internal/scan"
	"github.com/morozRed/notegraph/internal/search"
	"github.com/morozRed/notegraph/internal/state"
	"github.com/morozRed/notegraph/internal/workspace"
)

var (
	// ErrScanSuperseded is returned by a scan whose results were discarded
	// because a newer scan or mutation started while it ran.
	ErrScanSuperseded = errors.New("scan superseded by a newer generation")
	// ErrReadOnly is returned by file operations on a workspace without a
	// Mutator.
	ErrReadOnly = errors.New("workspace is read-only")
)

const defaultCacheSize = 512

// Options configures a Service.
type Options struct {
	Scan      scan.Options
	Synthesis edges.Options
	CacheSize int
	// ReadOnly disables file operations even when the workspace supports them.
	ReadOnly bool
	// StateRoot, when set, is where the collapsed set and file hashes are
	// persisted after each change.
	StateRoot string
	// Collapsed is applied after the first scan.
	Collapsed []string
	Logger    *slog.Logger
}

// ScanReport summarizes a full scan.
type ScanReport struct {
	Generation uint64        `json:"generation"`
	Nodes      int           `json:"nodes"`
	Regions    int           `json:"regions"`
	Edges      int           `json:"edges"`
	Collapsed  []string      `json:"collapsed"`
	Synthesis  edges.Report  `json:"synthesis"`
	Changes    *Changes      `json:"changes,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Changes lists files that differ from the last persisted scan.
type Changes struct {
	Changed  []string `json:"changed"`
	Deleted  []string `json:"deleted"`
	Impacted []string `json:"impacted"`
}

// Service is the owner of one notebook graph.
type Service struct {
	mu sync.Mutex

	fs      workspace.FS
	mutator workspace.Mutator
	reader  *workspace.CachedReader
	store   *graph.Store
	regions *collapse.Controller
	events  *broker

	scanOpts  scan.Options
	synthOpts edges.Options
	stateRoot string
	logger    *slog.Logger

	generation atomic.Uint64
	applied    atomic.Uint64
	pending    []string
}

// New creates a service over fs. Call Rescan to populate the graph.
func New(fs workspace.FS, opts Options) (*Service, error) {
	if fs == nil {
		return nil, errors.New("notebook: nil workspace")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	reader, err := workspace.NewCachedReader(fs, size)
	if err != nil {
		return nil, fmt.Errorf("notebook: %w", err)
	}

	s := &Service{
		fs:        fs,
		reader:    reader,
		store:     graph.NewStore(),
		events:    newBroker(),
		scanOpts:  opts.Scan,
		synthOpts: opts.Synthesis,
		stateRoot: opts.StateRoot,
		logger:    logger,
		pending:   append([]string(nil), opts.Collapsed...),
	}
	if s.scanOpts.Logger == nil {
		s.scanOpts.Logger = logger
	}
	if s.synthOpts.Logger == nil {
		s.synthOpts.Logger = logger
	}
	if s.synthOpts.Registry == nil {
		s.synthOpts.Registry = links.NewRegistry()
	}
	if m, ok := fs.(workspace.Mutator); ok && !opts.ReadOnly {
		s.mutator = m
	}
	s.regions = collapse.New(s.store, collapse.Options{
		Refresher: collapse.RefresherFunc(s.publishLayout),
		Logger:    logger,
	})
	return s, nil
}

// Generation returns the generation of the graph currently installed.
func (s *Service) Generation() uint64 {
	return s.applied.Load()
}

// Rescan rebuilds the whole graph from the workspace. Scanning and synthesis
// run without the writer lock; the result is installed only if no newer scan
// or mutation started meanwhile, otherwise ErrScanSuperseded is returned.
func (s *Service) Rescan(ctx context.Context) (ScanReport, error) {
	started := time.Now()
	gen := s.generation.Add(1)

	g, err := scan.Collect(scan.BuildRegions(ctx, s.fs, "", s.scanOpts))
	if err != nil {
		scansTotal.WithLabelValues("failed").Inc()
		return ScanReport{}, fmt.Errorf("scan: %w", err)
	}

	s.reader.Purge()
	ids := nodeIDs(g)
	found, synthReport, err := edges.Synthesize(ctx, ids, s.reader, s.synthOpts)
	if err != nil {
		scansTotal.WithLabelValues("failed").Inc()
		return ScanReport{}, fmt.Errorf("synthesize: %w", err)
	}
	for _, e := range found {
		g.Edges[e.ID] = e
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current := s.generation.Load(); current != gen {
		scansTotal.WithLabelValues("superseded").Inc()
		s.logger.Info("discarding superseded scan", "generation", gen, "current", current)
		return ScanReport{}, ErrScanSuperseded
	}

	collapsed := s.regions.Collapsed()
	if s.pending != nil {
		collapsed, s.pending = s.pending, nil
	}
	// Load keeps its argument as the visible graph and collapses it in place.
	applied := s.regions.Load(g.Clone(), collapsed)
	s.applied.Store(gen)

	report := ScanReport{
		Generation: gen,
		Nodes:      len(g.Nodes),
		Regions:    len(g.Regions),
		Edges:      len(g.Edges),
		Collapsed:  applied,
		Synthesis:  synthReport,
	}
	if s.stateRoot != "" {
		changes, err := s.saveScanStateLocked(ctx, g)
		if err != nil {
			s.logger.Warn("failed to save state", "error", err)
		}
		report.Changes = changes
	}

	report.Duration = time.Since(started)
	scansTotal.WithLabelValues("applied").Inc()
	scanDuration.Observe(report.Duration.Seconds())
	s.logger.Debug("scan applied",
		"generation", gen,
		"nodes", report.Nodes,
		"regions", report.Regions,
		"edges", report.Edges,
		"failed_reads", len(synthReport.Failed))
	return report, nil
}

// Relink recomputes every edge from current file contents without walking
// the directory tree again.
func (s *Service) Relink(ctx context.Context) (edges.Report, error) {
	gen := s.generation.Add(1)
	full := s.regions.Full()
	s.reader.Purge()

	found, report, err := edges.Synthesize(ctx, nodeIDs(full), s.reader, s.synthOpts)
	if err != nil {
		return edges.Report{}, fmt.Errorf("synthesize: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation.Load() != gen {
		return edges.Report{}, ErrScanSuperseded
	}
	full = s.regions.Full()
	full.Edges = make(map[string]graph.Edge, len(found))
	for _, e := range found {
		if full.Contains(e.Source) && full.Contains(e.Target) {
			full.Edges[e.ID] = e
		}
	}
	s.regions.Load(full, s.regions.Collapsed())
	s.applied.Store(gen)
	return report, nil
}

// Collapse hides the subtree of regionID. Unknown or already collapsed
// regions are left alone and false is returned.
func (s *Service) Collapse(regionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := s.regions.Collapse(regionID)
	if applied {
		s.saveCollapsedLocked()
	}
	return applied
}

// Expand restores the subtree of regionID. Regions that are not collapsed,
// or are hidden by a collapsed ancestor, are left alone and false is returned.
func (s *Service) Expand(regionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := s.regions.Expand(regionID)
	if applied {
		s.saveCollapsedLocked()
	}
	return applied
}

// IsCollapsed reports whether regionID is collapsed.
func (s *Service) IsCollapsed(regionID string) bool {
	return s.regions.IsCollapsed(pathutil.Normalize(regionID))
}

// Collapsed returns the collapsed region ids.
func (s *Service) Collapsed() []string {
	return s.regions.Collapsed()
}

// ResolveVisible maps path to the nearest visible node or region id.
func (s *Service) ResolveVisible(path string) (string, bool) {
	return s.regions.ResolveVisible(path)
}

// Project returns the visible graph for the renderer.
func (s *Service) Project() graph.Projection {
	return s.regions.Project()
}

// Ignore returns the matcher applied by scans.
func (s *Service) Ignore() *ignore.Matcher {
	return s.scanOpts.Ignore
}

// Stats returns element counts of the visible graph.
func (s *Service) Stats() graph.Stats {
	return s.store.Stats()
}

// Search ranks every node and region, visible or hidden, against query. Each
// result's Focus is the visible id to center on.
func (s *Service) Search(query string, limit int) []search.Result {
	index := search.Build(s.regions.Full())
	return search.WithFocus(search.Search(index, query, limit), s.store.VisibleIDs())
}

// Link is one reference found in a file.
type Link struct {
	Raw      string `json:"raw"`
	Target   string `json:"target,omitempty"`
	Resolved bool   `json:"resolved"`
}

// Links extracts the references of one file and resolves them against the
// current node set.
func (s *Service) Links(ctx context.Context, path string) ([]Link, error) {
	id, err := pathutil.Clean(path)
	if err != nil {
		return nil, err
	}
	content, err := s.reader.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	refs, err := s.synthOpts.Registry.Extract(ctx, id, content)
	if err != nil {
		s.logger.Warn("reference extraction incomplete", "node", id, "error", err)
	}

	ids := nodeIDs(s.regions.Full())
	out := make([]Link, 0, len(refs))
	for _, raw := range refs {
		target, ok := edges.ResolveReference(id, raw, ids, s.synthOpts.LinkPrefix)
		out = append(out, Link{Raw: raw, Target: target, Resolved: ok})
	}
	return out, nil
}

// Subscribe returns a channel of layout events and a function that ends the
// subscription.
func (s *Service) Subscribe(buffer int) (<-chan Event, func()) {
	return s.events.subscribe(buffer)
}

func (s *Service) publishLayout(reason, regionID string) {
	s.events.publish(Event{
		Type:       EventLayout,
		Reason:     reason,
		Region:     regionID,
		Generation: s.generation.Load(),
	})
}

func (s *Service) saveCollapsedLocked() {
	if s.stateRoot == "" {
		return
	}
	st, err := state.Load(s.stateRoot)
	if err != nil {
		s.logger.Warn("failed to load state", "error", err)
		st = state.NewState()
	}
	st.SetCollapsed(s.regions.Collapsed())
	st.Generation = s.applied.Load()
	if err := st.Save(s.stateRoot); err != nil {
		s.logger.Warn("failed to save state", "error", err)
	}
}

// saveScanStateLocked records content hashes and outgoing references of every
// file and reports what changed since the previous save.
func (s *Service) saveScanStateLocked(ctx context.Context, g *graph.Subgraph) (*Changes, error) {
	previous, err := state.Load(s.stateRoot)
	if err != nil {
		previous = state.NewState()
	}

	deps := make(map[string][]string)
	for _, e := range g.Edges {
		deps[e.Source] = append(deps[e.Source], e.Target)
	}

	next := state.NewState()
	hashes := make(map[string]string, len(g.Nodes))
	for id := range g.Nodes {
		content, err := s.reader.Read(ctx, id)
		if err != nil {
			continue
		}
		hash := fileutil.HashContent(content)
		hashes[id] = hash
		next.SetFile(id, hash, deps[id])
	}

	changed := previous.ChangedFiles(hashes)
	deleted := previous.DeletedFiles(fileutil.ToSet(keys(hashes)))
	changes := &Changes{
		Changed:  changed,
		Deleted:  deleted,
		Impacted: previous.ImpactedFiles(changed, deleted),
	}

	next.SetCollapsed(s.regions.Collapsed())
	next.Generation = s.applied.Load()
	return changes, next.Save(s.stateRoot)
}

func nodeIDs(g *graph.Subgraph) map[string]bool {
	ids := make(map[string]bool, len(g.Nodes))
	for id := range g.Nodes {
		ids[id] = true
	}
	return ids
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
