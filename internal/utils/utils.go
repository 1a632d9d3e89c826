// Package utils contains general helper functions used across repoctx.
package utils

import "strings"

// Ignore file constants used across the project.
const (
	// IgnoreFileName is the name of the project's ignore file.
	IgnoreFileName = ".ignore"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
)

const pathSegmentSeparator = "/"

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// NormalizeSlashPath converts separators to forward slashes and trims leading "./" and slashes.
func NormalizeSlashPath(relativePath string) string {
	normalized := strings.ReplaceAll(relativePath, "\\", pathSegmentSeparator)
	normalized = strings.TrimPrefix(normalized, "./")
	normalized = strings.Trim(normalized, pathSegmentSeparator)
	if normalized == "." {
		return EmptyString
	}
	return normalized
}

// SplitPathSegments splits a slash path into its non-empty segments.
func SplitPathSegments(relativePath string) []string {
	normalized := NormalizeSlashPath(relativePath)
	if normalized == EmptyString {
		return nil
	}
	rawSegments := strings.Split(normalized, pathSegmentSeparator)
	segments := make([]string, 0, len(rawSegments))
	for _, segment := range rawSegments {
		if segment != EmptyString {
			segments = append(segments, segment)
		}
	}
	return segments
}

// JoinSlashPath joins a parent and a child with a forward slash, omitting an empty parent.
func JoinSlashPath(parent string, child string) string {
	if parent == EmptyString {
		return child
	}
	return parent + pathSegmentSeparator + child
}
