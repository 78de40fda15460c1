// Package links finds outgoing references in notebook file contents.
package links

import (
	"regexp"
	"strings"
)

// referencePattern matches attribute-style references, single or double quoted.
var referencePattern = regexp.MustCompile(`(?i)\b(href|src|data-src|data|srcset|action)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// Extract returns the raw reference candidates found in text, in order of
// first appearance and without duplicates. Candidates are not resolved
// against any node set.
func Extract(text string) []string {
	matches := referencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	add := func(value string) {
		value = strings.TrimSpace(value)
		if value == "" || seen[value] {
			return
		}
		seen[value] = true
		out = append(out, value)
	}

	for _, m := range matches {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		if strings.EqualFold(m[1], "srcset") {
			for _, part := range strings.Split(value, ",") {
				if fields := strings.Fields(part); len(fields) > 0 {
					add(fields[0])
				}
			}
			continue
		}
		add(value)
	}
	return out
}

var externalPrefixes = []string{"http://", "https://", "//", "mailto:", "javascript:", "data:", "tel:", "#"}

// Clean turns a raw candidate into a root- or source-relative path. It drops
// external references, strips query strings and fragments, a leading slash
// and linkPrefix. It returns false when nothing usable is left.
func Clean(ref, linkPrefix string) (string, bool) {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	for _, prefix := range externalPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}
	if idx := strings.IndexAny(ref, "?#"); idx != -1 {
		ref = ref[:idx]
	}
	ref = strings.TrimLeft(ref, "/")
	if linkPrefix != "" {
		ref = strings.TrimPrefix(ref, strings.TrimLeft(linkPrefix, "/"))
	}
	if ref == "" {
		return "", false
	}
	return ref, true
}
