// Package state persists UI state between runs: which regions are collapsed
// and the content hashes seen by the last scan.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/morozRed/notegraph/internal/fileutil"
)

const (
	Dir                 = ".notegraph"
	StateFile           = "state.json"
	CurrentStateVersion = "1"
)

// FileState tracks one file node as of the last scan.
type FileState struct {
	Hash         string    `json:"hash"`
	Dependencies []string  `json:"dependencies,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// State is the persisted UI state. It is not a graph format: the graph is
// always rebuilt from disk.
type State struct {
	Version    string               `json:"version"`
	UpdatedAt  time.Time            `json:"updated_at"`
	Generation uint64               `json:"generation,omitempty"`
	Collapsed  []string             `json:"collapsed"`
	Files      map[string]FileState `json:"files"`
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Version:   CurrentStateVersion,
		Collapsed: []string{},
		Files:     make(map[string]FileState),
	}
}

// Path returns the state file location under root.
func Path(root string) string {
	return filepath.Join(root, Dir, StateFile)
}

// Load reads state from root. A missing file yields an empty state.
func Load(root string) (*State, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	migrateState(&state)

	return &state, nil
}

// Save writes state under root, leaving the file untouched when nothing
// changed besides the timestamp.
func (s *State) Save(root string) error {
	migrateState(s)
	sort.Strings(s.Collapsed)

	previous, err := Load(root)
	if err == nil && previous.equalContent(s) {
		return nil
	}

	s.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Join(root, Dir), 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	return fileutil.WriteIfChanged(Path(root), data)
}

// SetCollapsed replaces the collapsed region set.
func (s *State) SetCollapsed(regions []string) {
	s.Collapsed = fileutil.DedupeStrings(regions)
	sort.Strings(s.Collapsed)
}

// SetFile records the hash and outgoing references of a file.
func (s *State) SetFile(file, hash string, dependencies []string) {
	deps := fileutil.DedupeStrings(dependencies)
	sort.Strings(deps)
	s.Files[file] = FileState{
		Hash:         hash,
		Dependencies: deps,
		UpdatedAt:    time.Now().UTC(),
	}
}

// SetFileHash updates the hash for a file
func (s *State) SetFileHash(file, hash string) {
	s.SetFile(file, hash, nil)
}

// GetFileHash returns the stored hash for a file
func (s *State) GetFileHash(file string) (string, bool) {
	fs, ok := s.Files[file]
	if !ok {
		return "", false
	}
	return fs.Hash, true
}

// HasChanged returns true if the file hash differs from stored
func (s *State) HasChanged(file, currentHash string) bool {
	storedHash, ok := s.GetFileHash(file)
	if !ok {
		return true // New file
	}
	return storedHash != currentHash
}

// RemoveFile removes a file from state tracking
func (s *State) RemoveFile(file string) {
	delete(s.Files, file)
}

// ChangedFiles returns files that are new or modified, sorted.
func (s *State) ChangedFiles(currentHashes map[string]string) []string {
	changed := make([]string, 0)
	for file, hash := range currentHashes {
		if s.HasChanged(file, hash) {
			changed = append(changed, file)
		}
	}
	sort.Strings(changed)
	return changed
}

// DeletedFiles returns tracked files that no longer exist, sorted.
func (s *State) DeletedFiles(currentFiles map[string]bool) []string {
	deleted := make([]string, 0)
	for file := range s.Files {
		if !currentFiles[file] {
			deleted = append(deleted, file)
		}
	}
	sort.Strings(deleted)
	return deleted
}

// ImpactedFiles returns changed/deleted files plus every file that links to
// them, transitively.
func (s *State) ImpactedFiles(changedFiles, deletedFiles []string) []string {
	reverse := make(map[string][]string)
	for file, fileState := range s.Files {
		for _, dep := range fileState.Dependencies {
			reverse[dep] = append(reverse[dep], file)
		}
	}

	impacted := make(map[string]bool)
	queue := make([]string, 0, len(changedFiles)+len(deletedFiles))
	for _, file := range append(append([]string{}, changedFiles...), deletedFiles...) {
		if !impacted[file] {
			impacted[file] = true
			queue = append(queue, file)
		}
	}

	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]
		for _, depender := range reverse[file] {
			if impacted[depender] {
				continue
			}
			impacted[depender] = true
			queue = append(queue, depender)
		}
	}

	return fileutil.MapKeysSorted(impacted)
}

func (s *State) equalContent(other *State) bool {
	if s.Version != other.Version || s.Generation != other.Generation {
		return false
	}
	if len(s.Collapsed) != len(other.Collapsed) || len(s.Files) != len(other.Files) {
		return false
	}
	for i := range s.Collapsed {
		if s.Collapsed[i] != other.Collapsed[i] {
			return false
		}
	}
	for file, fs := range s.Files {
		prev, ok := other.Files[file]
		if !ok || prev.Hash != fs.Hash || len(prev.Dependencies) != len(fs.Dependencies) {
			return false
		}
		for i := range fs.Dependencies {
			if prev.Dependencies[i] != fs.Dependencies[i] {
				return false
			}
		}
	}
	return true
}

func migrateState(s *State) {
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	if s.Collapsed == nil {
		s.Collapsed = []string{}
	}

	switch s.Version {
	case "":
		s.Version = CurrentStateVersion
	case CurrentStateVersion:
		// no-op
	default:
		// Keep unknown versions untouched but ensure required fields are initialized.
	}
}
