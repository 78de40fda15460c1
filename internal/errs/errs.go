// Package errs holds the error taxonomy shared by the graph core.
package errs

import "errors"

var (
	// ErrPath marks an invalid or unsafe path (traversal, NUL bytes, escaping the root).
	ErrPath = errors.New("invalid path")

	// ErrNotFound marks a missing file, directory, node or region id.
	ErrNotFound = errors.New("not found")

	// ErrExtraction marks content that could not be read during edge synthesis.
	ErrExtraction = errors.New("content unreadable")

	// ErrState marks a region transition that does not apply to the current state.
	ErrState = errors.New("invalid region state")
)
