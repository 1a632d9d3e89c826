package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/temirov/repoctx/internal/types"
)

const (
	errorReadDirectoryFormat = "reading directory %s: %w"
	errorReadFileFormat      = "reading file %s: %w"
)

// LocalSource serves a directory tree on the local filesystem.
type LocalSource struct {
	rootDirectory string
}

// NewLocalSource returns a source rooted at rootDirectory.
func NewLocalSource(rootDirectory string) *LocalSource {
	return &LocalSource{rootDirectory: rootDirectory}
}

// Name returns the base name of the root directory.
func (local *LocalSource) Name() string {
	return filepath.Base(filepath.Clean(local.rootDirectory))
}

// ListEntries reads the immediate children of directory. Links to files are followed, links to
// directories are left out so traversal cannot cycle, and a dangling link is listed as a file.
func (local *LocalSource) ListEntries(ctx context.Context, directory string) ([]Entry, error) {
	if contextError := ctx.Err(); contextError != nil {
		return nil, contextError
	}
	absolutePath := local.resolve(directory)
	directoryEntries, readError := os.ReadDir(absolutePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			readError = errors.Join(ErrEntryNotFound, readError)
		}
		return nil, fmt.Errorf(errorReadDirectoryFormat, absolutePath, readError)
	}
	entries := make([]Entry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		entry := Entry{Name: directoryEntry.Name(), Kind: types.NodeTypeFile}
		info, infoError := os.Stat(filepath.Join(absolutePath, directoryEntry.Name()))
		if infoError != nil {
			entries = append(entries, entry)
			continue
		}
		switch {
		case info.IsDir() && directoryEntry.Type()&fs.ModeSymlink != 0:
			continue
		case info.IsDir():
			entry.Kind = types.NodeTypeDirectory
		default:
			entry.Size = info.Size()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReadFile returns the bytes of filePath.
func (local *LocalSource) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	if contextError := ctx.Err(); contextError != nil {
		return nil, contextError
	}
	absolutePath := local.resolve(filePath)
	content, readError := os.ReadFile(absolutePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			readError = errors.Join(ErrEntryNotFound, readError)
		}
		return nil, fmt.Errorf(errorReadFileFormat, absolutePath, readError)
	}
	return content, nil
}

func (local *LocalSource) resolve(relativePath string) string {
	if relativePath == "" {
		return local.rootDirectory
	}
	return filepath.Join(local.rootDirectory, filepath.FromSlash(relativePath))
}

var _ RepoSource = (*LocalSource)(nil)
