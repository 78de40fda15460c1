package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/morozRed/notegraph/internal/errs"
	"github.com/morozRed/notegraph/internal/pathutil"
)

// Local is a workspace rooted at a directory on the local disk.
type Local struct {
	root string
}

var (
	_ FS      = (*Local)(nil)
	_ Mutator = (*Local)(nil)
)

// NewLocal returns a workspace rooted at root. The root must exist and be a directory.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: root %q: %v", errs.ErrPath, abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: root %q is not a directory", errs.ErrPath, abs)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute root directory.
func (l *Local) Root() string {
	return l.root
}

// Abs maps a workspace-relative path onto the disk, rejecting traversal.
func (l *Local) Abs(path string) (string, error) {
	clean, err := pathutil.Clean(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *Local) List(ctx context.Context, path string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := l.Abs(path)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return nil, wrapNotFound(path, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entry := Entry{Name: de.Name(), Type: EntryFile}
		isDir := de.IsDir()
		if de.Type()&fs.ModeSymlink != 0 {
			// Follow symlinks for classification only.
			if info, statErr := os.Stat(filepath.Join(abs, de.Name())); statErr == nil {
				isDir = info.IsDir()
			}
		}
		if isDir {
			entry.Type = EntryDirectory
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (l *Local) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := l.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", wrapNotFound(path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", errs.ErrNotFound, path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", wrapNotFound(path, err)
	}
	return string(data), nil
}

func (l *Local) CreateFile(ctx context.Context, path, content string) error {
	abs, err := l.mutablePath(ctx, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", path, err)
	}
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		_ = os.Remove(abs)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func (l *Local) CreateDirectory(ctx context.Context, path string) error {
	abs, err := l.mutablePath(ctx, path)
	if err != nil {
		return err
	}
	if err := os.Mkdir(abs, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

func (l *Local) Rename(ctx context.Context, oldPath, newPath string) error {
	oldAbs, err := l.mutablePath(ctx, oldPath)
	if err != nil {
		return err
	}
	newAbs, err := l.mutablePath(ctx, newPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(oldAbs); err != nil {
		return wrapNotFound(oldPath, err)
	}
	if _, err := os.Stat(newAbs); err == nil {
		return fmt.Errorf("%w: %s already exists", errs.ErrPath, newPath)
	}
	if err := os.MkdirAll(filepath.Dir(newAbs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", newPath, err)
	}
	if err := os.Rename(oldAbs, newAbs); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}

func (l *Local) Delete(ctx context.Context, path string) error {
	abs, err := l.mutablePath(ctx, path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return wrapNotFound(path, err)
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// mutablePath resolves path for a write and refuses the root itself.
func (l *Local) mutablePath(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if pathutil.Normalize(path) == "" {
		return "", fmt.Errorf("%w: the workspace root cannot be modified", errs.ErrPath)
	}
	return l.Abs(path)
}

func wrapNotFound(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s: %v", errs.ErrNotFound, path, err)
	}
	return fmt.Errorf("%s: %w", path, err)
}
