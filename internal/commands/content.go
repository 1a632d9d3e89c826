package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/repoctx/internal/compress"
	"github.com/temirov/repoctx/internal/filter"
	"github.com/temirov/repoctx/internal/source"
	"github.com/temirov/repoctx/internal/tokenizer"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	// BinaryPlaceholderText replaces the content of binary files.
	BinaryPlaceholderText = "Skipped binary file"
	// UnavailablePlaceholderPrefix starts the placeholder of files that could not be read.
	UnavailablePlaceholderPrefix = "Content unavailable: "

	defaultMaxFileBytes  = 512 * 1024
	defaultMaxFileLines  = 10000
	defaultTruncateLines = 1000

	errorWrapKindFormat      = "%w: %w"
	warningReadFailed        = "file content unavailable"
	debugDecodeFailed        = "file content is binary"
	warningTokenCountFailed  = "failed to count tokens"
	debugCompressionFallback = "compression fallback"
)

// ContentLimits caps the size of a single file's content. Files above MaxFileBytes or
// MaxFileLines keep only their first TruncateLines lines.
type ContentLimits struct {
	MaxFileBytes  int64
	MaxFileLines  int
	TruncateLines int
}

// DefaultContentLimits returns the built-in content limits.
func DefaultContentLimits() ContentLimits {
	return ContentLimits{MaxFileBytes: defaultMaxFileBytes, MaxFileLines: defaultMaxFileLines, TruncateLines: defaultTruncateLines}
}

func (limits ContentLimits) withDefaults() ContentLimits {
	defaults := DefaultContentLimits()
	if limits.MaxFileBytes <= 0 {
		limits.MaxFileBytes = defaults.MaxFileBytes
	}
	if limits.MaxFileLines <= 0 {
		limits.MaxFileLines = defaults.MaxFileLines
	}
	if limits.TruncateLines <= 0 {
		limits.TruncateLines = defaults.TruncateLines
	}
	return limits
}

// ContentCollector turns file entries into content chunks. Per-file failures become
// placeholders; only cancellation aborts a collection.
type ContentCollector struct {
	Source       source.RepoSource
	Filter       filter.PathFilter
	Compressor   *compress.Compressor
	Level        types.CompressionLevel
	Limits       ContentLimits
	Workers      int
	TokenCounter tokenizer.Counter
	// Debug records the size-limit elision of truncated files.
	Debug  bool
	Logger *zap.Logger
}

// Collect returns one chunk per file entry, in entry order. Directory entries are skipped.
func (collector *ContentCollector) Collect(ctx context.Context, entries []types.FileEntry) ([]types.ContentChunk, error) {
	files := make([]types.FileEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDirectory() {
			files = append(files, entry)
		}
	}

	workers := collector.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	chunks := make([]types.ContentChunk, len(files))
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for index := range files {
		index := index
		group.Go(func() error {
			chunk, collectError := collector.collectFile(groupContext, files[index])
			if collectError != nil {
				return collectError
			}
			chunks[index] = chunk
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}
	return chunks, nil
}

func (collector *ContentCollector) collectFile(ctx context.Context, entry types.FileEntry) (types.ContentChunk, error) {
	logger := collector.logger()
	chunk := types.ContentChunk{Path: entry.Path, OriginalSize: entry.Size}

	if collector.Filter != nil && collector.Filter.IsBinaryPath(entry.Path) {
		chunk.Text = BinaryPlaceholderText
		chunk.Placeholder = types.PlaceholderBinary
		return chunk, nil
	}

	data, readError := collector.Source.ReadFile(ctx, entry.Path)
	if readError != nil {
		if contextError := ctx.Err(); contextError != nil {
			return types.ContentChunk{}, contextError
		}
		wrapped := fmt.Errorf(errorWrapKindFormat, types.ErrRead, readError)
		logger.Warn(warningReadFailed, zap.String(logFieldPath, entry.Path), zap.Error(wrapped))
		chunk.Text = UnavailablePlaceholderPrefix + unavailableReason(readError)
		chunk.Placeholder = types.PlaceholderUnavailable
		return chunk, nil
	}
	chunk.OriginalSize = int64(len(data))

	text, decoded := utils.DecodeText(data)
	if !decoded {
		logger.Debug(debugDecodeFailed, zap.String(logFieldPath, entry.Path), zap.Error(types.ErrDecode))
		chunk.Text = BinaryPlaceholderText
		chunk.Placeholder = types.PlaceholderBinary
		return chunk, nil
	}
	chunk.Lines = utils.CountLines(text)

	limits := collector.Limits.withDefaults()
	switch {
	case chunk.OriginalSize > limits.MaxFileBytes || chunk.Lines > limits.MaxFileLines:
		chunk.Text, chunk.Compression = truncateText(entry.Path, text, limits, collector.Debug)
		chunk.Placeholder = types.PlaceholderTruncated
	case collector.Compressor != nil:
		result := collector.Compressor.Compress(ctx, text, collector.Level, entry.Path)
		chunk.Text = result.Text
		chunk.WasCompressed = result.Compressed
		chunk.Compression = result.Meta
		if result.Meta.Fallback != utils.EmptyString {
			logger.Debug(debugCompressionFallback, zap.String(logFieldPath, entry.Path), zap.String(logFieldReason, result.Meta.Fallback))
			chunk.DebugNote = result.Meta.Fallback
		}
	default:
		chunk.Text = text
	}

	if collector.TokenCounter != nil {
		counted, countError := tokenizer.CountText(collector.TokenCounter, chunk.Text)
		if countError != nil {
			logger.Warn(warningTokenCountFailed, zap.String(logFieldPath, entry.Path), zap.Error(countError))
		} else {
			chunk.Tokens = counted.Tokens
		}
	}
	return chunk, nil
}

func (collector *ContentCollector) logger() *zap.Logger {
	if collector.Logger == nil {
		return zap.NewNop()
	}
	return collector.Logger
}

// truncateText keeps the leading lines of text that fit the limits and appends a size-limit
// marker for the rest. At least one line is always omitted.
func truncateText(filePath string, text string, limits ContentLimits, debug bool) (string, types.CompressionSummary) {
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == utils.EmptyString {
		lines = lines[:len(lines)-1]
	}
	kept := min(limits.TruncateLines, len(lines)-1)
	keptBytes := 0
	for index := 0; index < kept; index++ {
		if int64(keptBytes+len(lines[index])) > limits.MaxFileBytes {
			kept = index
			break
		}
		keptBytes += len(lines[index])
	}

	omitted := len(lines) - kept
	var builder strings.Builder
	for _, current := range lines[:kept] {
		builder.WriteString(current)
	}
	if kept > 0 && !strings.HasSuffix(lines[kept-1], "\n") {
		builder.WriteByte('\n')
	}
	builder.WriteString(compress.FormatMarker(filePath, utils.EmptyString, omitted, compress.ReasonSizeLimit))
	builder.WriteByte('\n')

	summary := types.CompressionSummary{
		Level:         types.CompressionNone,
		OriginalLines: len(lines),
		OutputLines:   kept + 1,
		OmittedLines:  omitted,
	}
	if debug && omitted > 0 {
		summary.Elisions = []types.Elision{{
			Reason:    compress.ReasonSizeLimit,
			StartLine: kept + 1,
			EndLine:   len(lines),
			StartByte: keptBytes,
			EndByte:   len(text),
			Lines:     omitted,
		}}
	}
	return builder.String(), summary
}

func unavailableReason(err error) string {
	if errors.Is(err, source.ErrEntryNotFound) {
		return source.ErrEntryNotFound.Error()
	}
	return err.Error()
}
