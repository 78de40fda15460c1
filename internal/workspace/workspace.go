// Package workspace defines the directory-listing, content-read and file-CRUD
// collaborators the graph core consumes, plus a local-disk implementation.
package workspace

import "context"

// EntryType distinguishes files from directories in a listing.
type EntryType string

const (
	EntryFile      EntryType = "file"
	EntryDirectory EntryType = "directory"
)

// Entry is one child returned by Lister.List.
type Entry struct {
	Name string    `json:"name"`
	Type EntryType `json:"fileType"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Type == EntryDirectory
}

// Lister lists the direct children of a directory. path is relative to the
// workspace root; "" is the root itself.
type Lister interface {
	List(ctx context.Context, path string) ([]Entry, error)
}

// Reader returns the text content of a file. Missing or unreadable files fail
// with an error wrapping errs.ErrNotFound.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// FS is the read side of a workspace.
type FS interface {
	Lister
	Reader
}

// Mutator is implemented by workspaces that allow file CRUD. Each method
// either succeeds completely or leaves the workspace unchanged.
type Mutator interface {
	CreateFile(ctx context.Context, path, content string) error
	CreateDirectory(ctx context.Context, path string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	Delete(ctx context.Context, path string) error
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, path string) (string, error)

func (f ReaderFunc) Read(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}
