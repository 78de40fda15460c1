// Package pathutil canonicalizes slash-separated ids relative to the notebook root.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/morozRed/notegraph/internal/errs"
)

// Separator is the separator used in every node and region id.
const Separator = "/"

// Normalize strips leading slashes, collapses repeated slashes and drops "."
// segments and trailing slashes. Empty input yields "". Normalize is idempotent.
func Normalize(path string) string {
	if path == "" {
		return ""
	}
	path = filepath.ToSlash(path)

	segments := strings.Split(path, Separator)
	out := segments[:0]
	for _, segment := range segments {
		if segment == "" || segment == "." {
			continue
		}
		out = append(out, segment)
	}
	return strings.Join(out, Separator)
}

// Clean normalizes path and rejects traversal segments and NUL bytes.
func Clean(path string) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("%w: %q contains a NUL byte", errs.ErrPath, path)
	}
	normalized := Normalize(path)
	for _, segment := range strings.Split(normalized, Separator) {
		if segment == ".." {
			return "", fmt.Errorf("%w: %q contains traversal segments", errs.ErrPath, path)
		}
	}
	return normalized, nil
}

// Resolve joins a reference onto the directory of source, honoring "." and
// ".." segments. It returns false when the reference climbs above the root.
func Resolve(source, ref string) (string, bool) {
	base := Parent(Normalize(source))
	return Join(base, ref)
}

// Join appends ref to dir, honoring "." and "..". It returns false when the
// result would climb above the root.
func Join(dir, ref string) (string, bool) {
	segments := make([]string, 0, 8)
	if dir = Normalize(dir); dir != "" {
		segments = append(segments, strings.Split(dir, Separator)...)
	}
	for _, segment := range strings.Split(filepath.ToSlash(ref), Separator) {
		switch segment {
		case "", ".":
			continue
		case "..":
			if len(segments) == 0 {
				return "", false
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, segment)
		}
	}
	return strings.Join(segments, Separator), true
}

// Parent returns the id of the enclosing directory, or "" at the root.
func Parent(id string) string {
	idx := strings.LastIndex(id, Separator)
	if idx == -1 {
		return ""
	}
	return id[:idx]
}

// Base returns the last segment of id.
func Base(id string) string {
	idx := strings.LastIndex(id, Separator)
	if idx == -1 {
		return id
	}
	return id[idx+1:]
}

// Ancestors returns the proper prefixes of id from deepest to shallowest.
func Ancestors(id string) []string {
	id = Normalize(id)
	out := make([]string, 0, strings.Count(id, Separator))
	for {
		idx := strings.LastIndex(id, Separator)
		if idx == -1 {
			return out
		}
		id = id[:idx]
		out = append(out, id)
	}
}

// Within reports whether id equals prefix or lies beneath it.
func Within(id, prefix string) bool {
	if prefix == "" {
		return true
	}
	return id == prefix || strings.HasPrefix(id, prefix+Separator)
}

// Rebase rewrites id from under oldPrefix to under newPrefix. It returns
// false when id is not within oldPrefix.
func Rebase(id, oldPrefix, newPrefix string) (string, bool) {
	if id == oldPrefix {
		return newPrefix, true
	}
	if !strings.HasPrefix(id, oldPrefix+Separator) {
		return id, false
	}
	rest := id[len(oldPrefix)+1:]
	if newPrefix == "" {
		return rest, true
	}
	return newPrefix + Separator + rest, true
}

// Ext returns the lower-cased extension of id including the dot.
func Ext(id string) string {
	return strings.ToLower(filepath.Ext(Base(id)))
}
