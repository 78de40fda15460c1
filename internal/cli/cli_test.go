package cli

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/morozRed/notegraph/internal/config"
	"github.com/morozRed/notegraph/internal/graph"
	"github.com/morozRed/notegraph/internal/ignore"
	"github.com/morozRed/notegraph/internal/notebook"
	"github.com/morozRed/notegraph/internal/state"
)

func writeNotebook(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "index.html"), `<a href="docs/page1.html">one</a>`)
	mustWriteFile(t, filepath.Join(root, "docs", "page1.html"), `<a href="sub/page2.html">next</a> <a href="missing.html">gone</a>`)
	mustWriteFile(t, filepath.Join(root, "docs", "sub", "page2.html"), `<p>leaf</p>`)
	return root
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var runErr error
	out := captureStdout(t, func() {
		cmd := NewRootCommand("test")
		cmd.SetArgs(args)
		cmd.SetErr(io.Discard)
		runErr = cmd.Execute()
	})
	return out, runErr
}

func TestInitWritesDefaultsOnce(t *testing.T) {
	root := t.TempDir()

	if _, err := runCommand(t, "init", "--root", root); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	configPath := filepath.Join(root, config.FileName)
	assertExists(t, configPath)
	assertExists(t, filepath.Join(root, ignore.FileName))

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	cfg, err := config.Parse(data)
	if err != nil {
		t.Fatalf("written config does not parse: %v", err)
	}
	if cfg.LinkPrefix != "Notebook/" {
		t.Fatalf("expected default link prefix, got %q", cfg.LinkPrefix)
	}

	mustWriteFile(t, configPath, "link_prefix: Custom/\n")
	if _, err := runCommand(t, "init", "--root", root); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	data, _ = os.ReadFile(configPath)
	if string(data) != "link_prefix: Custom/\n" {
		t.Fatalf("init overwrote an existing config: %q", data)
	}
}

func TestScanReportsGraphAndChanges(t *testing.T) {
	root := writeNotebook(t)

	out, err := runCommand(t, "scan", "--root", root, "--json")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	var summary ScanSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("failed to decode scan output: %v\n%s", err, out)
	}
	if summary.Nodes != 3 || summary.Regions != 2 || summary.Edges != 2 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.Unresolved != 1 {
		t.Fatalf("expected one unresolved reference, got %d", summary.Unresolved)
	}
	if summary.Changed != 3 {
		t.Fatalf("expected every file to be new on the first scan, got %d", summary.Changed)
	}
	assertExists(t, state.Path(root))

	mustWriteFile(t, filepath.Join(root, "docs", "sub", "page2.html"), `<p>edited</p>`)
	out, err = runCommand(t, "scan", "--root", root, "--json")
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	summary = ScanSummary{}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("failed to decode scan output: %v", err)
	}
	if strings.Join(summary.ChangedFiles, ",") != "docs/sub/page2.html" {
		t.Fatalf("expected only page2 to change, got %v", summary.ChangedFiles)
	}
	if !containsString(summary.ImpactedFiles, "docs/page1.html") {
		t.Fatalf("expected page1 to be impacted, got %v", summary.ImpactedFiles)
	}
}

func TestScanTextOutput(t *testing.T) {
	root := writeNotebook(t)
	out, err := runCommand(t, "scan", "--root", root)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !strings.HasPrefix(out, "scan: nodes=3 regions=2 edges=2 unresolved=1") {
		t.Fatalf("unexpected scan output: %q", out)
	}
}

func TestViewCollapsesRegions(t *testing.T) {
	root := writeNotebook(t)

	out, err := runCommand(t, "view", "--root", root, "--collapse", "docs/sub")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	for _, want := range []string{
		"region docs (expanded)",
		"region docs/sub (collapsed)",
		"edge   docs/page1.html -> docs/sub (derived)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "page2.html") {
		t.Fatalf("collapsed file leaked into view:\n%s", out)
	}

	// The collapsed set is remembered for the next run.
	out, err = runCommand(t, "view", "--root", root, "--jsonl")
	if err != nil {
		t.Fatalf("view --jsonl failed: %v", err)
	}
	lines := 0
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var el map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &el); err != nil {
			t.Fatalf("invalid jsonl line %q: %v", scanner.Text(), err)
		}
		lines++
	}
	// docs, docs/sub, index.html, docs/page1.html, one real and one derived edge.
	if lines != 6 {
		t.Fatalf("expected 6 elements, got %d:\n%s", lines, out)
	}
}

func TestViewJSONMatchesProjectionShape(t *testing.T) {
	root := writeNotebook(t)
	out, err := runCommand(t, "view", "--root", root, "--json")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	var p struct {
		Nodes []graph.Element `json:"nodes"`
		Edges []graph.Element `json:"edges"`
	}
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("failed to decode view output: %v", err)
	}
	if len(p.Nodes) != 5 || len(p.Edges) != 2 {
		t.Fatalf("expected 5 nodes and 2 edges, got %d and %d", len(p.Nodes), len(p.Edges))
	}
	for _, el := range p.Edges {
		if el.Group != graph.GroupEdges {
			t.Fatalf("edge element in group %q", el.Group)
		}
	}
}

func TestResolveLinksAndSearch(t *testing.T) {
	root := writeNotebook(t)
	if _, err := runCommand(t, "view", "--root", root, "--collapse", "docs"); err != nil {
		t.Fatalf("view failed: %v", err)
	}

	out, err := runCommand(t, "resolve", "--root", root, "docs/sub/page2.html")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if strings.TrimSpace(out) != "docs" {
		t.Fatalf("expected docs, got %q", out)
	}
	if _, err := runCommand(t, "resolve", "--root", root, "elsewhere.html"); err == nil {
		t.Fatalf("expected resolve of an unknown top-level path to fail")
	}

	out, err = runCommand(t, "links", "--root", root, "--json", "docs/page1.html")
	if err != nil {
		t.Fatalf("links failed: %v", err)
	}
	var found []notebook.Link
	if err := json.Unmarshal([]byte(out), &found); err != nil {
		t.Fatalf("failed to decode links: %v", err)
	}
	if len(found) != 2 || found[0].Target != "docs/sub/page2.html" || found[1].Resolved {
		t.Fatalf("unexpected links: %+v", found)
	}

	out, err = runCommand(t, "search", "--root", root, "page2")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(out, "docs/sub/page2.html") || !strings.Contains(out, "(inside docs)") {
		t.Fatalf("unexpected search output: %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, value := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
		if _, err := ParseLogLevel(value); err != nil {
			t.Fatalf("ParseLogLevel(%q) failed: %v", value, err)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Fatalf("expected an unknown level to fail")
	}
}

func TestRootRejectsInvalidLogLevel(t *testing.T) {
	root := writeNotebook(t)
	if _, err := runCommand(t, "scan", "--root", root, "--log-level", "loud"); err == nil {
		t.Fatalf("expected scan with an invalid log level to fail")
	}
}

func TestOptionalFlagsOnBareCommand(t *testing.T) {
	cmd := &cobra.Command{}
	if v, err := OptionalStringFlag(cmd, "missing"); err != nil || v != "" {
		t.Fatalf("expected empty value, got %q (%v)", v, err)
	}
	if v, err := OptionalBoolFlag(cmd, "missing", true); err != nil || !v {
		t.Fatalf("expected fallback, got %v (%v)", v, err)
	}

	cmd.Flags().StringSlice("collapse", nil, "")
	mustSetFlag(t, cmd, "collapse", " docs , ,docs/sub")
	got, err := OptionalStringSliceFlag(cmd, "collapse")
	if err != nil {
		t.Fatalf("OptionalStringSliceFlag failed: %v", err)
	}
	if strings.Join(got, "|") != "docs|docs/sub" {
		t.Fatalf("unexpected slice: %v", got)
	}
}

func TestSummarizePaths(t *testing.T) {
	if got := SummarizePaths([]string{"a", "b"}, 8); got != "a, b" {
		t.Fatalf("unexpected summary %q", got)
	}
	if got := SummarizePaths([]string{"a", "b", "c"}, 2); got != "a, b ... (+1 more)" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func mustSetFlag(t *testing.T, cmd *cobra.Command, key, value string) {
	t.Helper()
	if err := cmd.Flags().Set(key, value); err != nil {
		t.Fatalf("failed to set --%s=%s: %v", key, value, err)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = writer
	defer func() {
		os.Stdout = original
		_ = writer.Close()
		_ = reader.Close()
	}()

	fn()

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close stdout writer: %v", err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read captured stdout: %v", err)
	}
	return string(data)
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}
