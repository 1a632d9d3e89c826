// Package source abstracts where repository files come from: the local filesystem or a
// GitHub repository read through the REST API.
package source

import (
	"context"
	"errors"
)

// ErrEntryNotFound reports a directory or file that the source does not hold.
var ErrEntryNotFound = errors.New("entry not found")

// Entry is one child of a listed directory.
type Entry struct {
	Name string
	Kind string
	Size int64
}

// RepoSource lists directories and reads files by slash-separated paths relative to its root.
// The root directory is the empty path.
type RepoSource interface {
	Name() string
	ListEntries(ctx context.Context, directory string) ([]Entry, error)
	ReadFile(ctx context.Context, filePath string) ([]byte, error)
}
