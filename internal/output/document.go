// Package output assembles the flattened repository document and its companion reports.
package output

import (
	"fmt"
	"strings"

	"github.com/temirov/repoctx/internal/types"
)

const (
	readmeHeader           = "README:"
	readmeNotFound         = "README not found."
	summaryHeader          = "Repository Summary:"
	structureHeaderFormat  = "Repository Structure: %s"
	contentsHeader         = "File Contents:"
	fileHeaderFormat       = "File: %s"
	compressedSuffixFormat = " (compressed: %s, %d of %d lines omitted)"
	truncatedSuffixFormat  = " (truncated: %d of %d lines omitted)"
	contentLabel           = "Content:"
	debugHeader            = "Compression debug:"
	debugElisionFormat     = "  - lines %d-%d (bytes %d-%d): %s, %d %s"
	debugNoteFormat        = "  - note: %s"
	sectionSeparator       = "\n\n"
	singularLineNoun       = "line"
	pluralLineNoun         = "lines"
)

// Document is everything one analysis run renders. It is assembled once and never mutated.
type Document struct {
	// Instructions is prepended verbatim when not empty.
	Instructions string
	// Name labels the structure section.
	Name string
	// Readme is the README text; empty means no README was found.
	Readme string
	// Summary is the rendered repository summary; empty omits the section.
	Summary string
	// Tree is the rendered structure without a trailing newline.
	Tree   string
	Chunks []types.ContentChunk
	// Debug appends the elision list to every compressed or truncated file.
	Debug bool
}

// Assemble renders the document sections in their fixed order: instructions, README, summary,
// structure and one content section per chunk in chunk order.
func Assemble(document Document) string {
	var builder strings.Builder

	if instructions := strings.TrimRight(document.Instructions, "\n"); instructions != "" {
		builder.WriteString(instructions)
		builder.WriteString(sectionSeparator)
	}

	readme := strings.TrimRight(document.Readme, "\n")
	if strings.TrimSpace(readme) == "" {
		readme = readmeNotFound
	}
	builder.WriteString(readmeHeader + "\n")
	builder.WriteString(readme)
	builder.WriteString(sectionSeparator)

	if summary := strings.TrimRight(document.Summary, "\n"); summary != "" {
		builder.WriteString(summaryHeader + "\n")
		builder.WriteString(summary)
		builder.WriteString(sectionSeparator)
	}

	builder.WriteString(fmt.Sprintf(structureHeaderFormat, document.Name))
	builder.WriteByte('\n')
	if document.Tree != "" {
		builder.WriteString(document.Tree)
		builder.WriteByte('\n')
	}
	builder.WriteByte('\n')

	builder.WriteString(contentsHeader + "\n\n")
	for _, chunk := range document.Chunks {
		writeChunk(&builder, chunk, document.Debug)
	}
	return builder.String()
}

func writeChunk(builder *strings.Builder, chunk types.ContentChunk, debug bool) {
	builder.WriteString(fmt.Sprintf(fileHeaderFormat, chunk.Path))
	builder.WriteString(headerSuffix(chunk))
	builder.WriteByte('\n')

	switch chunk.Placeholder {
	case types.PlaceholderBinary, types.PlaceholderUnavailable:
		builder.WriteString(contentLabel + " " + chunk.Text + "\n\n")
		return
	}
	builder.WriteString(contentLabel + "\n")
	if text := strings.TrimRight(chunk.Text, "\n"); text != "" {
		builder.WriteString(text)
		builder.WriteByte('\n')
	}
	if debug {
		writeDebug(builder, chunk)
	}
	builder.WriteByte('\n')
}

func headerSuffix(chunk types.ContentChunk) string {
	summary := chunk.Compression
	switch {
	case chunk.Placeholder == types.PlaceholderTruncated:
		return fmt.Sprintf(truncatedSuffixFormat, summary.OmittedLines, summary.OriginalLines)
	case chunk.WasCompressed:
		return fmt.Sprintf(compressedSuffixFormat, summary.Level, summary.OmittedLines, summary.OriginalLines)
	}
	return ""
}

func writeDebug(builder *strings.Builder, chunk types.ContentChunk) {
	elisions := chunk.Compression.Elisions
	if len(elisions) == 0 && chunk.DebugNote == "" {
		return
	}
	builder.WriteString(debugHeader + "\n")
	if chunk.DebugNote != "" {
		builder.WriteString(fmt.Sprintf(debugNoteFormat, chunk.DebugNote))
		builder.WriteByte('\n')
	}
	for _, elision := range elisions {
		builder.WriteString(FormatElision(elision))
		builder.WriteByte('\n')
	}
}

// FormatElision renders one elision as a debug list item.
func FormatElision(elision types.Elision) string {
	noun := pluralLineNoun
	if elision.Lines == 1 {
		noun = singularLineNoun
	}
	return fmt.Sprintf(debugElisionFormat, elision.StartLine, elision.EndLine, elision.StartByte, elision.EndByte, elision.Reason, elision.Lines, noun)
}
