// Package types defines every cross‑package data structure used by the repoctx CLI.
package types

import (
	"fmt"
	"strings"
)

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
)

// FileEntry is a single node discovered while traversing a repository source.
type FileEntry struct {
	Path  string
	Name  string
	Kind  string
	Size  int64
	Depth int
}

// IsDirectory reports whether the entry describes a directory.
func (entry FileEntry) IsDirectory() bool {
	return entry.Kind == NodeTypeDirectory
}

// CompressionLevel governs how aggressively file content is reduced.
type CompressionLevel string

const (
	CompressionNone   CompressionLevel = "none"
	CompressionLight  CompressionLevel = "light"
	CompressionMedium CompressionLevel = "medium"
	CompressionHeavy  CompressionLevel = "heavy"

	invalidCompressionLevelFormat = "invalid compression level %q (expected none, light, medium or heavy)"
)

var compressionLevelRanks = map[CompressionLevel]int{
	CompressionNone:   0,
	CompressionLight:  1,
	CompressionMedium: 2,
	CompressionHeavy:  3,
}

// ParseCompressionLevel converts user input into a CompressionLevel. Empty input means none.
func ParseCompressionLevel(value string) (CompressionLevel, error) {
	normalized := CompressionLevel(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return CompressionNone, nil
	}
	if _, known := compressionLevelRanks[normalized]; !known {
		return CompressionNone, fmt.Errorf(invalidCompressionLevelFormat, value)
	}
	return normalized, nil
}

// Rank orders levels from none (0) to heavy (3).
func (level CompressionLevel) Rank() int {
	return compressionLevelRanks[level]
}

// AtLeast reports whether the level is as strict as other.
func (level CompressionLevel) AtLeast(other CompressionLevel) bool {
	return level.Rank() >= other.Rank()
}

// PlaceholderKind explains why a chunk does not carry the file's full text.
type PlaceholderKind string

const (
	PlaceholderNone        PlaceholderKind = ""
	PlaceholderBinary      PlaceholderKind = "binary"
	PlaceholderUnavailable PlaceholderKind = "unavailable"
	PlaceholderTruncated   PlaceholderKind = "truncated"
)

// Elision records a span of the original text that was removed.
type Elision struct {
	Reason    string `yaml:"reason"`
	StartLine int    `yaml:"start_line"`
	EndLine   int    `yaml:"end_line"`
	StartByte int    `yaml:"start_byte"`
	EndByte   int    `yaml:"end_byte"`
	Lines     int    `yaml:"lines"`
}

// CompressionSummary describes what compression did to a single file.
type CompressionSummary struct {
	Level         CompressionLevel `yaml:"level"`
	OriginalLines int              `yaml:"original_lines"`
	OutputLines   int              `yaml:"output_lines"`
	OmittedLines  int              `yaml:"omitted_lines"`
	Fallback      string           `yaml:"fallback,omitempty"`
	Elisions      []Elision        `yaml:"elisions,omitempty"`
}

// ContentChunk is the rendered content of one file entry.
type ContentChunk struct {
	Path          string
	OriginalSize  int64
	Text          string
	WasCompressed bool
	Placeholder   PlaceholderKind
	DebugNote     string
	Lines         int
	Tokens        int
	Compression   CompressionSummary
}
