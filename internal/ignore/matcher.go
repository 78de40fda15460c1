package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName is the per-notebook ignore file read from the root directory.
const FileName = ".notegraphignore"

// DefaultRules are excluded from every scan. User rules may re-include them
// with a negation.
var DefaultRules = []string{
	".git/",
	".notegraph/",
	"node_modules/",
	"__pycache__/",
	".DS_Store",
	"*.swp",
	"*.tmp",
}

// Matcher applies gitignore rules with "last rule wins" behavior.
type Matcher struct {
	compiled *gitignore.GitIgnore
	rules    []string
}

// NewMatcher builds a matcher from user-provided rules appended to DefaultRules.
func NewMatcher(userRules []string) *Matcher {
	all := make([]string, 0, len(DefaultRules)+len(userRules))
	all = append(all, DefaultRules...)
	for _, line := range userRules {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		all = append(all, line)
	}
	return &Matcher{
		compiled: gitignore.CompileIgnoreLines(all...),
		rules:    all,
	}
}

// ShouldIgnore returns true when relPath should be excluded.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	if m == nil {
		return false
	}
	relPath = normalizePath(relPath)
	if relPath == "" {
		return false
	}
	if isDir {
		return m.compiled.MatchesPath(relPath + "/")
	}
	return m.compiled.MatchesPath(relPath)
}

// Rules returns the effective rule list, defaults first.
func (m *Matcher) Rules() []string {
	out := make([]string, len(m.rules))
	copy(out, m.rules)
	return out
}

// LoadRules reads FileName from root. A missing file yields no rules.
func LoadRules(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	defer f.Close()

	rules := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return rules, nil
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	path = strings.TrimPrefix(path, "/")
	return strings.TrimSuffix(path, "/")
}
