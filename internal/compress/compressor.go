// Package compress shrinks source text with language-aware heuristics while keeping it
// readable. Removed spans are replaced by markers of the form
// "... N lines omitted (reason) ...", prefixed by the language's line comment.
//
// Levels are cumulative: medium starts from the settled light result and heavy from the settled
// medium result. Every pass only shortens the text and each level is repeated until it stops
// shrinking, so stricter levels never produce longer output and compressing an output again at
// the same level returns it unchanged. Markers carry their counts, so merged markers still
// report exact line totals.
package compress

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/repoctx/internal/types"
)

const (
	fallbackSyntaxFormat = "%w: %s did not parse, kept light compression: %v"
	fallbackPanicFormat  = "%w: %v"
	logFieldPath         = "path"
	logFieldLevel        = "level"
	fallbackLogMessage   = "compression fell back"

	maximumRounds = 32
)

var compressionStages = []types.CompressionLevel{types.CompressionLight, types.CompressionMedium, types.CompressionHeavy}

// Result is the outcome of compressing one file.
type Result struct {
	Text       string
	Compressed bool
	Meta       types.CompressionSummary
}

// Option customises a Compressor.
type Option func(*Compressor)

// WithDebug records an elision for every removed span.
func WithDebug(enabled bool) Option {
	return func(compressor *Compressor) {
		compressor.debug = enabled
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(compressor *Compressor) {
		if logger != nil {
			compressor.logger = logger
		}
	}
}

// Compressor applies compression levels to file content. It is safe for concurrent use.
type Compressor struct {
	thresholds Thresholds
	debug      bool
	logger     *zap.Logger
}

// NewCompressor constructs a Compressor with normalized thresholds.
func NewCompressor(thresholds Thresholds, options ...Option) *Compressor {
	compressor := &Compressor{thresholds: thresholds.Normalized(), logger: zap.NewNop()}
	for _, option := range options {
		option(compressor)
	}
	return compressor
}

// Compress reduces text at level. Files shorter than the minimum line count, level none and
// unknown levels return the text unchanged.
func (compressor *Compressor) Compress(ctx context.Context, text string, level types.CompressionLevel, filePath string) (result Result) {
	parsed := parseSourceText(text)
	result = Result{
		Text: text,
		Meta: types.CompressionSummary{Level: level, OriginalLines: len(parsed.lines), OutputLines: len(parsed.lines)},
	}
	if level.Rank() == 0 || len(parsed.lines) < compressor.thresholds.MinimumLines {
		return result
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			fallback := fmt.Errorf(fallbackPanicFormat, types.ErrCompression, recovered)
			compressor.logger.Warn(fallbackLogMessage, zap.String(logFieldPath, filePath), zap.String(logFieldLevel, string(level)), zap.Error(fallback))
			result = Result{
				Text: text,
				Meta: types.CompressionSummary{Level: level, OriginalLines: len(parsed.lines), OutputLines: len(parsed.lines), Fallback: fallback.Error()},
			}
		}
	}()

	lang := languageForPath(filePath)
	target := types.CompressionLight
	fallback := ""
	if level.AtLeast(types.CompressionMedium) {
		if validationError := validateSyntax(ctx, lang, []byte(text)); validationError != nil {
			fallbackError := fmt.Errorf(fallbackSyntaxFormat, types.ErrCompression, lang.name, validationError)
			compressor.logger.Debug(fallbackLogMessage, zap.String(logFieldPath, filePath), zap.String(logFieldLevel, string(level)), zap.Error(fallbackError))
			fallback = fallbackError.Error()
		} else {
			target = level
		}
	}

	lines := parsed.lines
	output := text
	for _, stage := range compressionStages {
		if !target.AtLeast(stage) {
			break
		}
		lines, output = compressor.settle(lines, output, stage, lang, parsed.trailingNewline)
	}

	result.Text = output
	result.Compressed = output != text
	result.Meta.OutputLines = len(lines)
	result.Meta.OmittedLines = len(parsed.lines) - retainedLines(lines)
	result.Meta.Fallback = fallback
	if compressor.debug {
		result.Meta.Elisions = collectElisions(lines, parsed.spans)
	}
	return result
}

// settle repeats the passes of stage until the text stops shrinking. A pass either shortens the
// text or leaves it unchanged, so the result is also a fixed point of every lower stage.
func (compressor *Compressor) settle(lines []line, text string, stage types.CompressionLevel, lang language, trailingNewline bool) ([]line, string) {
	for round := 0; round < maximumRounds; round++ {
		next := compressor.pass(parseSourceText(text).lines, stage, lang)
		nextText := renderLines(next, trailingNewline)
		if len(nextText) >= len(text) {
			break
		}
		lines = composeLines(lines, next)
		text = nextText
	}
	return lines, text
}

// pass runs every transform up to stage once.
func (compressor *Compressor) pass(lines []line, stage types.CompressionLevel, lang language) []line {
	lines = compressor.applyLight(lines, lang)
	if stage.AtLeast(types.CompressionMedium) {
		lines = compressor.applyMedium(lines, lang)
	}
	if stage.AtLeast(types.CompressionHeavy) {
		lines = compressor.applyHeavy(lines, lang)
	}
	return lines
}

func (compressor *Compressor) applyLight(lines []line, lang language) []line {
	thresholds := compressor.thresholds.Light
	lines = collapseBlankRuns(lines)
	lines = collapseDuplicates(lines, thresholds.RepeatThreshold, lang)
	return compressComments(lines, thresholds.CommentBlockLines, lang)
}

func (compressor *Compressor) applyMedium(lines []line, lang language) []line {
	thresholds := compressor.thresholds.Medium
	lines = dropBlankLines(lines)
	lines = collapseDuplicates(lines, thresholds.RepeatThreshold, lang)
	lines = compressComments(lines, thresholds.CommentBlockLines, lang)
	lines = summarizeImports(lines, thresholds.ImportLines, lang)
	lines = sampleData(lines, mediumSampleLimits, lang)
	if !lang.structural {
		return lines
	}
	return structureWalker{lang: lang, mode: modeTruncate, bodyThreshold: thresholds.FunctionBodyLines}.walk(lines)
}

func (compressor *Compressor) applyHeavy(lines []line, lang language) []line {
	thresholds := compressor.thresholds.Heavy
	lines = collapseDuplicates(lines, thresholds.RepeatThreshold, lang)
	lines = compressComments(lines, thresholds.CommentBlockLines, lang)
	lines = summarizeImports(lines, thresholds.ImportLines, lang)
	lines = sampleData(lines, heavySampleLimits, lang)
	if lang.structural {
		lines = structureWalker{lang: lang, mode: modeTruncate, bodyThreshold: thresholds.FunctionBodyLines}.walk(lines)
		lines = structureWalker{lang: lang, mode: modeSkeleton}.walk(lines)
	}
	return clipLongLines(lines, lang)
}
