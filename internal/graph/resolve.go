package graph

import "github.com/morozRed/notegraph/internal/pathutil"

// ResolveVisible maps target to the nearest id present in visible: the
// target itself, or its deepest visible ancestor. It returns false when no
// ancestor is visible.
func ResolveVisible(visible map[string]bool, target string) (string, bool) {
	target = pathutil.Normalize(target)
	if target == "" {
		return "", false
	}
	if visible[target] {
		return target, true
	}
	for _, ancestor := range pathutil.Ancestors(target) {
		if visible[ancestor] {
			return ancestor, true
		}
	}
	return "", false
}
