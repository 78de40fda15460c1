package links

import (
	"context"
	"fmt"

	"github.com/morozRed/notegraph/internal/pathutil"
)

// Extractor returns raw reference candidates for one file.
type Extractor func(ctx context.Context, path, text string) ([]string, error)

// Registry maps file extensions to extractors. It is assembled once and only
// looked up by key afterwards.
type Registry struct {
	byExt    map[string]Extractor
	fallback Extractor
}

// Hyperlinks is the extractor for markup files.
func Hyperlinks(_ context.Context, _ string, text string) ([]string, error) {
	return Extract(text), nil
}

// NewRegistry returns the default table: attribute references for every
// file, plus parsed imports for JavaScript and Python sources.
func NewRegistry() *Registry {
	r := &Registry{
		byExt:    make(map[string]Extractor),
		fallback: Hyperlinks,
	}
	r.Register(".js", combine(Hyperlinks, scriptExtractor(JavaScriptImports)))
	r.Register(".mjs", combine(Hyperlinks, scriptExtractor(JavaScriptImports)))
	r.Register(".py", combine(Hyperlinks, scriptExtractor(PythonImports)))
	return r
}

// Register binds an extension (with leading dot) to an extractor.
func (r *Registry) Register(ext string, fn Extractor) {
	r.byExt[ext] = fn
}

// Lookup returns the extractor for path.
func (r *Registry) Lookup(path string) Extractor {
	if fn, ok := r.byExt[pathutil.Ext(path)]; ok {
		return fn
	}
	return r.fallback
}

// Extract runs the extractor registered for path.
func (r *Registry) Extract(ctx context.Context, path, text string) ([]string, error) {
	return r.Lookup(path)(ctx, path, text)
}

func scriptExtractor(parse func(context.Context, []byte) ([]string, error)) Extractor {
	return func(ctx context.Context, path, text string) ([]string, error) {
		specs, err := parse(ctx, []byte(text))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return specs, nil
	}
}

// combine runs every extractor and concatenates the results. A failing
// extractor does not discard what the others found.
func combine(extractors ...Extractor) Extractor {
	return func(ctx context.Context, path, text string) ([]string, error) {
		var out []string
		var firstErr error
		for _, fn := range extractors {
			refs, err := fn(ctx, path, text)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			out = append(out, refs...)
		}
		return out, firstErr
	}
}
