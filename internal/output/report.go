package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/temirov/repoctx/internal/types"
)

const (
	reportIndent            = 2
	errorEncodeReportFormat = "encoding compression report: %w"
)

// CompressionReport is the machine-readable companion of a document rendered with
// compression debugging enabled.
type CompressionReport struct {
	Document     string       `yaml:"document"`
	Level        string       `yaml:"level"`
	OmittedLines int          `yaml:"omitted_lines"`
	Files        []FileReport `yaml:"files"`
}

// FileReport describes what happened to one file.
type FileReport struct {
	Path        string                   `yaml:"path"`
	Placeholder types.PlaceholderKind    `yaml:"placeholder,omitempty"`
	Compressed  bool                     `yaml:"compressed"`
	Compression types.CompressionSummary `yaml:"compression"`
}

// BuildCompressionReport lists every chunk of a document in document order.
func BuildCompressionReport(documentName string, level types.CompressionLevel, chunks []types.ContentChunk) CompressionReport {
	report := CompressionReport{Document: documentName, Level: string(level), Files: make([]FileReport, 0, len(chunks))}
	for _, chunk := range chunks {
		report.OmittedLines += chunk.Compression.OmittedLines
		report.Files = append(report.Files, FileReport{
			Path:        chunk.Path,
			Placeholder: chunk.Placeholder,
			Compressed:  chunk.WasCompressed,
			Compression: chunk.Compression,
		})
	}
	return report
}

// WriteCompressionReport encodes the report as YAML.
func WriteCompressionReport(writer io.Writer, report CompressionReport) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(reportIndent)
	if encodeError := encoder.Encode(report); encodeError != nil {
		return fmt.Errorf(errorEncodeReportFormat, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(errorEncodeReportFormat, closeError)
	}
	return nil
}
