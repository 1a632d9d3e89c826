// Package config loads application configuration and repository ignore files.
package config

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/temirov/repoctx/internal/source"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	// binarySectionHeader identifies the section listing binary content patterns.
	binarySectionHeader = "[binary]"
	// ignoreSectionHeader identifies the section listing ignore patterns.
	ignoreSectionHeader = "[ignore]"
	commentPrefix       = "#"

	errorLoadIgnoreFileFormat = "loading %s: %w"
	errorScanIgnoreFileFormat = "scanning %s: %w"
)

// IgnoreOptions selects which ignore files are honored while loading patterns.
type IgnoreOptions struct {
	UseGitignore  bool
	UseIgnoreFile bool
	// SkipDirectory prunes directories whose ignore files must not be read.
	SkipDirectory func(relativePath string) bool
}

// IgnorePatterns are the parsed patterns of every ignore file in a repository.
type IgnorePatterns struct {
	Ignore []gitignore.Pattern
	Binary []gitignore.Pattern
}

// ParseIgnoreFile splits ignore file content into ignore patterns and the patterns listed
// under a [binary] section. Comments and blank lines are dropped.
func ParseIgnoreFile(content []byte) ([]string, []string, error) {
	var ignorePatterns []string
	var binaryContentPatterns []string
	currentSectionHeader := ignoreSectionHeader
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		if strings.EqualFold(trimmedLine, binarySectionHeader) {
			currentSectionHeader = binarySectionHeader
			continue
		}
		if strings.EqualFold(trimmedLine, ignoreSectionHeader) {
			currentSectionHeader = ignoreSectionHeader
			continue
		}
		if currentSectionHeader == binarySectionHeader {
			binaryContentPatterns = append(binaryContentPatterns, trimmedLine)
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, nil, scanError
	}
	return ignorePatterns, binaryContentPatterns, nil
}

// LoadRepositoryIgnorePatterns walks the repository and parses utils.IgnoreFileName and
// utils.GitIgnoreFileName in every directory. Patterns are scoped to the directory holding
// the file, the way git scopes nested .gitignore files.
func LoadRepositoryIgnorePatterns(ctx context.Context, repository source.RepoSource, options IgnoreOptions) (IgnorePatterns, error) {
	var patterns IgnorePatterns
	if !options.UseGitignore && !options.UseIgnoreFile {
		return patterns, nil
	}

	var visit func(directory string) error
	visit = func(directory string) error {
		if contextError := ctx.Err(); contextError != nil {
			return contextError
		}
		entries, listError := repository.ListEntries(ctx, directory)
		if listError != nil {
			return nil
		}
		domain := utils.SplitPathSegments(directory)
		var subdirectories []string
		for _, entry := range entries {
			entryPath := utils.JoinSlashPath(directory, entry.Name)
			if entry.Kind == types.NodeTypeDirectory {
				if entry.Name == utils.GitDirectoryName || (options.SkipDirectory != nil && options.SkipDirectory(entryPath)) {
					continue
				}
				subdirectories = append(subdirectories, entryPath)
				continue
			}
			useFile := (entry.Name == utils.IgnoreFileName && options.UseIgnoreFile) || (entry.Name == utils.GitIgnoreFileName && options.UseGitignore)
			if !useFile {
				continue
			}
			if loadError := patterns.load(ctx, repository, entryPath, domain, entry.Name == utils.IgnoreFileName); loadError != nil {
				return loadError
			}
		}
		for _, subdirectory := range subdirectories {
			if visitError := visit(subdirectory); visitError != nil {
				return visitError
			}
		}
		return nil
	}

	if visitError := visit(""); visitError != nil {
		return IgnorePatterns{}, visitError
	}
	return patterns, nil
}

func (patterns *IgnorePatterns) load(ctx context.Context, repository source.RepoSource, filePath string, domain []string, acceptBinarySection bool) error {
	content, readError := repository.ReadFile(ctx, filePath)
	if readError != nil {
		if errors.Is(readError, source.ErrEntryNotFound) {
			return nil
		}
		return fmt.Errorf(errorLoadIgnoreFileFormat, filePath, readError)
	}
	ignoreLines, binaryLines, parseError := ParseIgnoreFile(content)
	if parseError != nil {
		return fmt.Errorf(errorScanIgnoreFileFormat, filePath, parseError)
	}
	for _, pattern := range utils.DeduplicatePatterns(ignoreLines) {
		patterns.Ignore = append(patterns.Ignore, gitignore.ParsePattern(pattern, domain))
	}
	if !acceptBinarySection {
		return nil
	}
	for _, pattern := range utils.DeduplicatePatterns(binaryLines) {
		patterns.Binary = append(patterns.Binary, gitignore.ParsePattern(pattern, domain))
	}
	return nil
}

