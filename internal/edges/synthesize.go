// Package edges turns references found in file contents into graph edges.
package edges

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/morozRed/notegraph/internal/errs"
	"github.com/morozRed/notegraph/internal/graph"
	"github.com/morozRed/notegraph/internal/links"
	"github.com/morozRed/notegraph/internal/pathutil"
	"github.com/morozRed/notegraph/internal/workspace"
)

// SentinelID is a placeholder node id that never has content to scan.
const SentinelID = "default"

const (
	defaultConcurrency = 8
	defaultReadTimeout = 5 * time.Second
)

// Options configures a synthesis pass.
type Options struct {
	Registry    *links.Registry
	LinkPrefix  string
	Concurrency int
	ReadTimeout time.Duration
	// Progress, when set, is called after each source is processed. It may
	// be called from several goroutines at once.
	Progress func(source string, done, total int)
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Registry == nil {
		o.Registry = links.NewRegistry()
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Report summarizes one synthesis pass.
type Report struct {
	Sources    int      `json:"sources"`
	Edges      int      `json:"edges"`
	Unresolved int      `json:"unresolved"`
	Failed     []string `json:"failed,omitempty"`
}

type nodeResult struct {
	edges      []graph.Edge
	unresolved int
	failed     bool
}

// Synthesize reads every node in ids and returns the edges its references
// resolve to. A node whose content cannot be read is logged and skipped; the
// pass still completes. The returned error is non-nil only when ctx ends.
func Synthesize(ctx context.Context, ids map[string]bool, reader workspace.Reader, opts Options) ([]graph.Edge, Report, error) {
	sources := make([]string, 0, len(ids))
	for id := range ids {
		sources = append(sources, id)
	}
	return SynthesizeFrom(ctx, sources, ids, reader, opts)
}

// SynthesizeFrom is Synthesize restricted to the given source nodes. Targets
// still resolve against the full ids set.
func SynthesizeFrom(ctx context.Context, sources []string, ids map[string]bool, reader workspace.Reader, opts Options) ([]graph.Edge, Report, error) {
	opts = opts.withDefaults()
	started := time.Now()

	sources = eligibleSources(sources, ids)
	results := make([]nodeResult, len(sources))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, source := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = synthesizeNode(gctx, source, ids, reader, opts)
			if opts.Progress != nil {
				opts.Progress(source, int(done.Add(1)), len(sources))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Report{}, err
	}

	report := Report{Sources: len(sources)}
	byID := make(map[string]graph.Edge)
	for i, res := range results {
		if res.failed {
			report.Failed = append(report.Failed, sources[i])
			continue
		}
		report.Unresolved += res.unresolved
		for _, e := range res.edges {
			byID[e.ID] = e
		}
	}

	out := make([]graph.Edge, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	report.Edges = len(out)

	synthesisDuration.Observe(time.Since(started).Seconds())
	synthesisEdges.Observe(float64(len(out)))
	return out, report, nil
}

func eligibleSources(sources []string, ids map[string]bool) []string {
	seen := make(map[string]bool, len(sources))
	out := make([]string, 0, len(sources))
	for _, id := range sources {
		if id == SentinelID || seen[id] || !ids[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func synthesizeNode(ctx context.Context, source string, ids map[string]bool, reader workspace.Reader, opts Options) nodeResult {
	readCtx, cancel := context.WithTimeout(ctx, opts.ReadTimeout)
	defer cancel()

	content, err := reader.Read(readCtx, source)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("read timed out after %s: %w", opts.ReadTimeout, err)
		}
		opts.Logger.Warn("skipping unreadable node",
			"node", source,
			"error", fmt.Errorf("%w: %w", errs.ErrExtraction, err))
		synthesisReads.WithLabelValues("failed").Inc()
		return nodeResult{failed: true}
	}
	synthesisReads.WithLabelValues("ok").Inc()

	refs, err := opts.Registry.Extract(ctx, source, content)
	if err != nil {
		// Partial results from the other extractors are still used.
		opts.Logger.Warn("reference extraction incomplete", "node", source, "error", err)
	}

	var res nodeResult
	for _, raw := range refs {
		target, ok := ResolveReference(source, raw, ids, opts.LinkPrefix)
		if !ok {
			res.unresolved++
			continue
		}
		res.edges = append(res.edges, graph.NewEdge(source, target))
	}
	return res
}

// ResolveReference maps a raw reference found in source to a node id. The
// reference is tried relative to the source directory first, then relative to
// the root. Self references and references to unknown ids fail.
func ResolveReference(source, raw string, ids map[string]bool, linkPrefix string) (string, bool) {
	ref, ok := links.Clean(raw, linkPrefix)
	if !ok {
		return "", false
	}
	candidates := make([]string, 0, 2)
	if target, ok := pathutil.Resolve(source, ref); ok {
		candidates = append(candidates, target)
	}
	if target, ok := pathutil.Join("", ref); ok {
		candidates = append(candidates, target)
	}
	for _, target := range candidates {
		if target != source && ids[target] {
			return target, true
		}
	}
	return "", false
}
