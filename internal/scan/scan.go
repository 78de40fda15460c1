// Package scan walks a workspace directory tree and emits the file-node and
// region descriptors that populate the graph store.
package scan

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"strings"

	"github.com/morozRed/notegraph/internal/errs"
	"github.com/morozRed/notegraph/internal/graph"
	"github.com/morozRed/notegraph/internal/ignore"
	"github.com/morozRed/notegraph/internal/pathutil"
	"github.com/morozRed/notegraph/internal/workspace"
)

// DefaultExtensions are the node-eligible file types.
var DefaultExtensions = []string{".html", ".htm", ".php", ".js", ".py"}

// Options controls which entries become descriptors and how they are decorated.
type Options struct {
	// AllowedExtensions holds lower-cased extensions including the dot.
	AllowedExtensions map[string]bool
	Ignore            *ignore.Matcher

	DefaultImageURL       string
	DefaultRegionImageURL string
	// RegionImageName is the file that, when present in a directory, becomes
	// that region's image.
	RegionImageName string
	// LinkPrefix is prepended to ids to form servable links.
	LinkPrefix string

	Logger *slog.Logger
}

// ExtensionSet builds an AllowedExtensions set, adding missing dots.
func ExtensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) allowed(name string) bool {
	if len(o.AllowedExtensions) == 0 {
		return ExtensionSet(DefaultExtensions)[pathutil.Ext(name)]
	}
	return o.AllowedExtensions[pathutil.Ext(name)]
}

// Descriptor is one emitted element: a file node or a region.
type Descriptor struct {
	Kind     graph.Kind
	ID       string
	Label    string
	Parent   string
	Link     string
	ImageURL string
}

// IsRegion reports whether d describes a directory.
func (d Descriptor) IsRegion() bool {
	return d.Kind == graph.KindRegion
}

// Node converts a file descriptor into a graph node.
func (d Descriptor) Node() graph.Node {
	return graph.Node{
		ID:       d.ID,
		Label:    d.Label,
		Link:     d.Link,
		ImageURL: d.ImageURL,
		Parent:   d.Parent,
		Kind:     graph.KindFile,
	}
}

// Region converts a region descriptor into a graph region.
func (d Descriptor) Region() graph.Region {
	return graph.Region{
		ID:       d.ID,
		Label:    d.Label,
		Parent:   d.Parent,
		ImageURL: d.ImageURL,
		Kind:     graph.KindRegion,
	}
}

// BuildNodes yields a descriptor for every allowed file beneath rootDir,
// keyed by its path relative to rootDir. The sequence is lazy and may be
// ranged over again to rescan. A missing rootDir yields one errs.ErrPath
// error; unreadable subdirectories are logged and skipped.
func BuildNodes(ctx context.Context, fs workspace.Lister, rootDir string, opts Options) iter.Seq2[Descriptor, error] {
	return walk(ctx, fs, rootDir, opts, false)
}

// BuildRegions yields region descriptors for every subdirectory beneath
// rootDir together with allowed file descriptors, in pre-order: a region is
// always yielded before anything it contains.
func BuildRegions(ctx context.Context, fs workspace.Lister, rootDir string, opts Options) iter.Seq2[Descriptor, error] {
	return walk(ctx, fs, rootDir, opts, true)
}

// Collect drains a descriptor sequence into a subgraph, stopping at the first error.
func Collect(seq iter.Seq2[Descriptor, error]) (*graph.Subgraph, error) {
	g := graph.NewSubgraph()
	for d, err := range seq {
		if err != nil {
			return nil, err
		}
		if d.IsRegion() {
			g.Regions[d.ID] = d.Region()
			continue
		}
		g.Nodes[d.ID] = d.Node()
	}
	return g, nil
}

func walk(ctx context.Context, fs workspace.Lister, rootDir string, opts Options, withRegions bool) iter.Seq2[Descriptor, error] {
	return func(yield func(Descriptor, error) bool) {
		root, err := pathutil.Clean(rootDir)
		if err != nil {
			yield(Descriptor{}, err)
			return
		}
		entries, err := fs.List(ctx, root)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(Descriptor{}, ctxErr)
				return
			}
			yield(Descriptor{}, fmt.Errorf("%w: cannot list root %q: %w", errs.ErrPath, rootDir, err))
			return
		}
		w := &walker{ctx: ctx, fs: fs, root: root, opts: opts, withRegions: withRegions, yield: yield}
		w.visit("", entries)
	}
}

type walker struct {
	ctx         context.Context
	fs          workspace.Lister
	root        string
	opts        Options
	withRegions bool
	yield       func(Descriptor, error) bool
	stopped     bool
}

func (w *walker) emit(d Descriptor, err error) bool {
	if w.stopped {
		return false
	}
	if !w.yield(d, err) {
		w.stopped = true
	}
	return !w.stopped
}

// visit emits the children of dir (relative to root) in pre-order.
func (w *walker) visit(dir string, entries []workspace.Entry) bool {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	for _, entry := range entries {
		if err := w.ctx.Err(); err != nil {
			w.emit(Descriptor{}, err)
			w.stopped = true
			return false
		}

		rel := joinID(dir, entry.Name)
		if w.opts.Ignore.ShouldIgnore(joinID(w.root, rel), entry.IsDir()) {
			continue
		}

		if !entry.IsDir() {
			if !w.opts.allowed(entry.Name) {
				continue
			}
			if !w.emit(w.fileDescriptor(dir, rel, entry.Name), nil) {
				return false
			}
			continue
		}

		children, err := w.fs.List(w.ctx, joinID(w.root, rel))
		if err != nil {
			if w.ctx.Err() != nil {
				w.emit(Descriptor{}, w.ctx.Err())
				w.stopped = true
				return false
			}
			w.opts.logger().Warn("skipping unreadable directory", "path", rel, "error", err)
			continue
		}

		if w.withRegions {
			if !w.emit(w.regionDescriptor(dir, rel, entry.Name, children), nil) {
				return false
			}
		}
		if !w.visit(rel, children) {
			return false
		}
	}
	return true
}

func (w *walker) fileDescriptor(parent, id, name string) Descriptor {
	return Descriptor{
		Kind:     graph.KindFile,
		ID:       id,
		Label:    name,
		Parent:   parent,
		Link:     w.opts.LinkPrefix + joinID(w.root, id),
		ImageURL: w.opts.DefaultImageURL,
	}
}

func (w *walker) regionDescriptor(parent, id, name string, children []workspace.Entry) Descriptor {
	image := w.opts.DefaultRegionImageURL
	if w.opts.RegionImageName != "" {
		for _, child := range children {
			if !child.IsDir() && child.Name == w.opts.RegionImageName {
				image = w.opts.LinkPrefix + joinID(w.root, id) + pathutil.Separator + child.Name
				break
			}
		}
	}
	return Descriptor{
		Kind:     graph.KindRegion,
		ID:       id,
		Label:    name,
		Parent:   parent,
		ImageURL: image,
	}
}

// Subtree collects the regions and files beneath dir keyed by their
// workspace-relative ids. dir itself is not included.
func Subtree(ctx context.Context, fs workspace.Lister, dir string, opts Options) (*graph.Subgraph, error) {
	dir = pathutil.Normalize(dir)
	g, err := Collect(BuildRegions(ctx, fs, dir, opts))
	if err != nil || dir == "" {
		return g, err
	}

	prefixed := func(id string) string {
		if id == "" {
			return dir
		}
		return joinID(dir, id)
	}
	out := graph.NewSubgraph()
	for _, n := range g.Nodes {
		n.ID, n.Parent = prefixed(n.ID), prefixed(n.Parent)
		out.Nodes[n.ID] = n
	}
	for _, r := range g.Regions {
		r.ID, r.Parent = prefixed(r.ID), prefixed(r.Parent)
		out.Regions[r.ID] = r
	}
	return out, nil
}

// File returns the descriptor for one file id, or false when the file is
// ignored or its extension is not allowed.
func File(id string, opts Options) (Descriptor, bool) {
	id = pathutil.Normalize(id)
	name := pathutil.Base(id)
	if id == "" || !opts.allowed(name) || opts.Ignore.ShouldIgnore(id, false) {
		return Descriptor{}, false
	}
	w := &walker{opts: opts}
	return w.fileDescriptor(pathutil.Parent(id), id, name), true
}

// Region returns the descriptor for one directory id given its children, or
// false when the directory is ignored.
func Region(id string, children []workspace.Entry, opts Options) (Descriptor, bool) {
	id = pathutil.Normalize(id)
	if id == "" || opts.Ignore.ShouldIgnore(id, true) {
		return Descriptor{}, false
	}
	w := &walker{opts: opts}
	return w.regionDescriptor(pathutil.Parent(id), id, pathutil.Base(id), children), true
}

func joinID(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + pathutil.Separator + name
}
