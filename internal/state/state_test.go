package state

import (
	"os"
	"reflect"
	"testing"
)

func TestChangedAndDeletedFiles(t *testing.T) {
	s := NewState()
	s.SetFileHash("a.html", "a1")
	s.SetFileHash("b.html", "b1")
	s.SetFileHash("c.html", "c1")

	changed := s.ChangedFiles(map[string]string{
		"a.html": "a1",
		"b.html": "b2",
		"d.html": "d1",
	})
	expectSet(t, changed, []string{"b.html", "d.html"})

	deleted := s.DeletedFiles(map[string]bool{
		"a.html": true,
		"b.html": true,
		"d.html": true,
	})
	expectSet(t, deleted, []string{"c.html"})
}

func TestImpactedFilesClosure(t *testing.T) {
	s := NewState()
	s.SetFile("a.html", "1", []string{"b.html"})
	s.SetFile("c.html", "2", []string{"a.html"})
	s.SetFile("d.html", "3", []string{"x.html"})

	impacted := s.ImpactedFiles([]string{"b.html"}, nil)
	want := []string{"a.html", "b.html", "c.html"}
	if !reflect.DeepEqual(impacted, want) {
		t.Fatalf("expected impacted %v, got %v", want, impacted)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	s := NewState()
	s.SetCollapsed([]string{"docs/sub", "docs", "docs/sub"})
	s.Generation = 3
	s.SetFile("docs/page1.html", "abc", []string{"docs/sub/page2.html"})
	if err := s.Save(root); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded.Collapsed, []string{"docs", "docs/sub"}) {
		t.Fatalf("unexpected collapsed set %v", loaded.Collapsed)
	}
	if loaded.Generation != 3 {
		t.Fatalf("expected generation 3, got %d", loaded.Generation)
	}
	if hash, ok := loaded.GetFileHash("docs/page1.html"); !ok || hash != "abc" {
		t.Fatalf("expected stored hash, got %q (%v)", hash, ok)
	}
}

func TestSaveSkipsUnchangedContent(t *testing.T) {
	root := t.TempDir()

	s := NewState()
	s.SetCollapsed([]string{"docs"})
	if err := s.Save(root); err != nil {
		t.Fatalf("save: %v", err)
	}
	before, err := os.ReadFile(Path(root))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	again := NewState()
	again.SetCollapsed([]string{"docs"})
	if err := again.Save(root); err != nil {
		t.Fatalf("save: %v", err)
	}
	after, err := os.ReadFile(Path(root))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("expected state file to stay untouched")
	}
}

func TestLoadMissingReturnsEmptyState(t *testing.T) {
	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Version != CurrentStateVersion || len(s.Collapsed) != 0 || s.Files == nil {
		t.Fatalf("unexpected empty state %#v", s)
	}
}

func TestMigrateStateFillsDefaults(t *testing.T) {
	s := &State{}

	migrateState(s)

	if s.Version != CurrentStateVersion {
		t.Fatalf("expected version %q, got %q", CurrentStateVersion, s.Version)
	}
	if s.Files == nil || s.Collapsed == nil {
		t.Fatalf("expected initialized collections")
	}
}

func expectSet(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d (%v)", len(want), len(got), got)
	}

	index := make(map[string]bool, len(got))
	for _, item := range got {
		index[item] = true
	}

	for _, item := range want {
		if !index[item] {
			t.Fatalf("expected item %q in %v", item, got)
		}
	}
}
