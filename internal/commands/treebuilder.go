package commands

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/repoctx/internal/filter"
	"github.com/temirov/repoctx/internal/source"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	treeIndentUnit         = "  "
	directorySuffix        = "/"
	warningListDirectory   = "skipping unreadable directory"
	debugSkippedPath       = "path skipped"
	logFieldPath           = "path"
	logFieldReason         = "reason"
	errorTraverseFormat    = "traversing %s: %w"
	errorRootListingFormat = "listing root %s: %w"
)

// Tree is the ordered entry list produced by one traversal and its text rendering.
type Tree struct {
	Name     string
	Entries  []types.FileEntry
	Rendered string
}

// Files returns the file entries in traversal order.
func (tree Tree) Files() []types.FileEntry {
	files := make([]types.FileEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if !entry.IsDirectory() {
			files = append(files, entry)
		}
	}
	return files
}

// TreeBuilder walks a RepoSource depth-first and records every entry the filter keeps.
type TreeBuilder struct {
	Source source.RepoSource
	Filter filter.PathFilter
	// Root is the slash path of the directory to traverse; empty means the source root.
	Root   string
	Logger *zap.Logger
}

// Build traverses the tree. Children of a directory are ordered case-insensitively with ties
// broken by byte order; files and directories are interleaved. A directory that cannot be
// listed is kept without children and a warning is logged; only an unlistable Root fails.
func (treeBuilder *TreeBuilder) Build(ctx context.Context) (Tree, error) {
	logger := treeBuilder.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	root := utils.NormalizeSlashPath(treeBuilder.Root)
	tree := Tree{Name: treeBuilder.Source.Name()}
	if root != utils.EmptyString {
		tree.Name = path.Base(root)
	}

	rootEntries, listError := treeBuilder.Source.ListEntries(ctx, root)
	if listError != nil {
		return Tree{}, wrapTraversalError(root, listError)
	}
	var rendered strings.Builder
	var visit func(directory string, entries []source.Entry, depth int) error
	visit = func(directory string, entries []source.Entry, depth int) error {
		for _, entry := range sortEntries(entries) {
			if contextError := ctx.Err(); contextError != nil {
				return contextError
			}
			entryPath := utils.JoinSlashPath(directory, entry.Name)
			isDirectory := entry.Kind == types.NodeTypeDirectory
			if treeBuilder.skip(entryPath, isDirectory, logger) {
				continue
			}
			tree.Entries = append(tree.Entries, types.FileEntry{
				Path:  entryPath,
				Name:  entry.Name,
				Kind:  entry.Kind,
				Size:  entry.Size,
				Depth: depth,
			})
			rendered.WriteString(strings.Repeat(treeIndentUnit, depth))
			rendered.WriteString(entry.Name)
			if !isDirectory {
				rendered.WriteByte('\n')
				continue
			}
			rendered.WriteString(directorySuffix + "\n")
			children, childError := treeBuilder.Source.ListEntries(ctx, entryPath)
			if childError != nil {
				if contextError := ctx.Err(); contextError != nil {
					return contextError
				}
				logger.Warn(warningListDirectory, zap.String(logFieldPath, entryPath), zap.Error(childError))
				continue
			}
			if visitError := visit(entryPath, children, depth+1); visitError != nil {
				return visitError
			}
		}
		return nil
	}
	if visitError := visit(root, rootEntries, 0); visitError != nil {
		return Tree{}, visitError
	}
	tree.Rendered = strings.TrimSuffix(rendered.String(), "\n")
	return tree, nil
}

func (treeBuilder *TreeBuilder) skip(entryPath string, isDirectory bool, logger *zap.Logger) bool {
	if treeBuilder.Filter == nil {
		return false
	}
	if rules, evaluates := treeBuilder.Filter.(filter.SkipRules); evaluates {
		verdict := rules.Evaluate(entryPath, isDirectory)
		if verdict.Skipped() {
			logger.Debug(debugSkippedPath, zap.String(logFieldPath, entryPath), zap.Stringer(logFieldReason, verdict))
		}
		return verdict.Skipped()
	}
	return treeBuilder.Filter.ShouldSkip(entryPath, isDirectory)
}

func sortEntries(entries []source.Entry) []source.Entry {
	sorted := append([]source.Entry(nil), entries...)
	sort.SliceStable(sorted, func(left, right int) bool {
		leftFolded := strings.ToLower(sorted[left].Name)
		rightFolded := strings.ToLower(sorted[right].Name)
		if leftFolded != rightFolded {
			return leftFolded < rightFolded
		}
		return sorted[left].Name < sorted[right].Name
	})
	return sorted
}

func wrapTraversalError(root string, err error) error {
	if root == utils.EmptyString {
		return fmt.Errorf(errorRootListingFormat, ".", err)
	}
	return fmt.Errorf(errorTraverseFormat, root, err)
}
