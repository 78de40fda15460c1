// Package watch turns filesystem notifications under a notebook root into
// debounced batches of relative path changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/morozRed/notegraph/internal/ignore"
	"github.com/morozRed/notegraph/internal/pathutil"
)

// Op is the kind of change observed for a path.
type Op int

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
	OpRename
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is one observed change. Path is relative to the watched root.
type Change struct {
	Path string
	Op   Op
	Time time.Time
}

// Handler receives each debounced batch from a single goroutine.
type Handler func(ctx context.Context, changes []Change)

type Options struct {
	Debounce   time.Duration
	Ignore     *ignore.Matcher
	BufferSize int
	Logger     *slog.Logger
}

// Watcher watches a directory tree and batches changes.
type Watcher struct {
	root     string
	handler  Handler
	debounce time.Duration
	ignore   *ignore.Matcher
	logger   *slog.Logger

	fsw     *fsnotify.Watcher
	changes chan Change
}

// New creates a watcher for root. Call Run to start watching.
func New(root string, handler Handler, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = 250 * time.Millisecond
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1024
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		root:     abs,
		handler:  handler,
		debounce: opts.Debounce,
		ignore:   opts.Ignore,
		logger:   opts.Logger,
		fsw:      fsw,
		changes:  make(chan Change, opts.BufferSize),
	}, nil
}

// Run watches until ctx is done, then flushes the pending batch and closes
// the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.debounceLoop(ctx)
	}()

	w.processEvents(ctx)
	<-done
	return nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel := w.relative(path); rel != "" && w.ignore.ShouldIgnore(rel, true) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) relative(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return ""
	}
	return pathutil.Normalize(rel)
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			rel := w.relative(event.Name)
			if rel == "" {
				continue
			}
			isDir := false
			if info, err := os.Stat(event.Name); err == nil {
				isDir = info.IsDir()
			}
			if w.ignore.ShouldIgnore(rel, isDir) {
				continue
			}

			select {
			case w.changes <- Change{Path: rel, Op: convertOp(event.Op), Time: time.Now()}:
			default:
				w.logger.Warn("watch buffer full, dropping change", "path", rel)
			}

			if isDir && event.Has(fsnotify.Create) {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory", "path", rel, "error", err)
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpWrite
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var batch []Change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func(ctx context.Context) {
		if len(batch) > 0 {
			if deduped := dedupe(batch); len(deduped) > 0 && w.handler != nil {
				w.handler(ctx, deduped)
			}
			batch = nil
		}
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			// The handler may still need a live context for the final batch.
			flush(context.WithoutCancel(ctx))
			return
		case change := <-w.changes:
			batch = append(batch, change)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush(ctx)
		}
	}
}

// dedupe keeps the latest change per path, in first-seen order.
func dedupe(changes []Change) []Change {
	seen := make(map[string]int, len(changes))
	out := make([]Change, 0, len(changes))
	for _, change := range changes {
		if idx, ok := seen[change.Path]; ok {
			out[idx] = change
			continue
		}
		seen[change.Path] = len(out)
		out = append(out, change)
	}
	return out
}
