package compress

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/temirov/repoctx/internal/types"
)

const (
	reasonBlankLines     = "blank lines"
	reasonRepeatedLine   = "repeated line"
	reasonComment        = "comment"
	reasonDocstring      = "docstring"
	reasonFunctionBody   = "function body"
	reasonNonDeclaration = "non-declaration code"
	reasonImports        = "imports"
	reasonDataSample     = "data sample"
	reasonLongLine       = "long line"
	// ReasonSizeLimit marks content cut because the file exceeded the size ceiling.
	ReasonSizeLimit = "size limit"

	markerFormat        = "... %d %s omitted (%s) ..."
	clipMarkerFormat    = " ... %d chars omitted (%s) ..."
	markerPatternFormat = `^\s*(?:(?://|#|--|;)\s?)?\.\.\. (\d+) lines? omitted \((%s)\) \.\.\.\s*$`
)

var markerReasons = []string{
	reasonBlankLines,
	reasonRepeatedLine,
	reasonComment,
	reasonDocstring,
	reasonFunctionBody,
	reasonNonDeclaration,
	reasonImports,
	reasonDataSample,
	ReasonSizeLimit,
}

var markerPattern = compileMarkerPattern(markerReasons)

func compileMarkerPattern(reasons []string) *regexp.Regexp {
	quoted := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		quoted = append(quoted, regexp.QuoteMeta(reason))
	}
	return regexp.MustCompile(fmt.Sprintf(markerPatternFormat, strings.Join(quoted, "|")))
}

// line is one line of the working text. Every line knows which input lines it stands for so
// elisions can be reported against the input and markers can be merged without losing counts.
type line struct {
	text      string
	first     int
	last      int
	weight    int
	marker    bool
	synthetic bool
	pinned    bool
	reason    string
	// clippedAt is the byte offset where a long line was cut, or zero when it is whole.
	clippedAt int
	// hidden counts blank lines inside a marker's span dropped before the marker was formed.
	hidden int
}

type byteSpan struct {
	start int
	end   int
}

// sourceText is the parsed input of a single Compress call.
type sourceText struct {
	lines           []line
	spans           []byteSpan
	trailingNewline bool
}

func parseSourceText(text string) sourceText {
	parsed := sourceText{trailingNewline: strings.HasSuffix(text, "\n")}
	body := text
	if parsed.trailingNewline {
		body = strings.TrimSuffix(body, "\n")
	}
	if body == "" && !parsed.trailingNewline {
		return parsed
	}
	offset := 0
	for index, rawLine := range strings.Split(body, "\n") {
		current := line{text: rawLine, first: index, last: index, weight: 1, pinned: index == 0}
		if count, reason, isMarker := parseMarker(rawLine); isMarker {
			current.marker = true
			current.weight = count
			current.reason = reason
		}
		parsed.lines = append(parsed.lines, current)
		parsed.spans = append(parsed.spans, byteSpan{start: offset, end: offset + len(rawLine)})
		offset += len(rawLine) + 1
	}
	return parsed
}

func renderLines(lines []line, trailingNewline bool) string {
	var builder strings.Builder
	for index, current := range lines {
		if index > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(current.text)
	}
	if trailingNewline && len(lines) > 0 {
		builder.WriteByte('\n')
	}
	return builder.String()
}

func parseMarker(text string) (int, string, bool) {
	matches := markerPattern.FindStringSubmatch(text)
	if matches == nil {
		return 0, "", false
	}
	count, convertError := strconv.Atoi(matches[1])
	if convertError != nil || count <= 0 {
		return 0, "", false
	}
	return count, matches[2], true
}

// FormatMarker renders an elision marker for the language of filePath.
func FormatMarker(filePath string, indent string, count int, reason string) string {
	return formatMarker(languageForPath(filePath), indent, count, reason)
}

func formatMarker(lang language, indent string, count int, reason string) string {
	noun := "lines"
	if count == 1 {
		noun = "line"
	}
	body := fmt.Sprintf(markerFormat, count, noun, reason)
	if prefix := lang.markerPrefix(); prefix != "" {
		return indent + prefix + " " + body
	}
	return indent + body
}

func leadingWhitespace(text string) string {
	return text[:len(text)-len(strings.TrimLeft(text, " \t"))]
}

func indentWidth(text string) int {
	width := 0
	for _, character := range leadingWhitespace(text) {
		if character == '\t' {
			width += 4
			continue
		}
		width++
	}
	return width
}

func isBlank(current line) bool {
	return !current.marker && strings.TrimSpace(current.text) == ""
}

// collapse replaces run with a single marker. It refuses when the run holds a pinned line, is
// already a lone marker, or when the marker would not be shorter than the lines it replaces.
func collapse(run []line, reason string, lang language) (line, bool) {
	if len(run) == 0 {
		return line{}, false
	}
	if len(run) == 1 && run[0].marker {
		return line{}, false
	}
	weight := 0
	covered := 0
	removedBytes := 0
	for _, current := range run {
		if current.pinned {
			return line{}, false
		}
		weight += current.weight
		covered += current.last - current.first + 1
		removedBytes += len(current.text) + 1
	}
	first := run[0].first
	last := run[len(run)-1].last
	weight += (last - first + 1) - covered

	text := formatMarker(lang, leadingWhitespace(run[0].text), weight, reason)
	if len(text)+1 >= removedBytes {
		return line{}, false
	}
	return line{
		text:      text,
		first:     first,
		last:      last,
		weight:    weight,
		marker:    true,
		synthetic: true,
		reason:    reason,
	}, true
}

// collapseRun collapses the stretches of run between pinned lines, keeping pinned lines.
func collapseRun(run []line, reason string, lang language) []line {
	result := make([]line, 0, len(run))
	segmentStart := 0
	flush := func(segmentEnd int) {
		segment := run[segmentStart:segmentEnd]
		if marker, ok := collapse(segment, reason, lang); ok {
			result = append(result, marker)
			return
		}
		result = append(result, segment...)
	}
	for index, current := range run {
		if !current.pinned {
			continue
		}
		flush(index)
		result = append(result, current)
		segmentStart = index + 1
	}
	flush(len(run))
	return result
}

// retainedLines counts output lines copied from the input rather than synthesized.
func retainedLines(lines []line) int {
	retained := 0
	for _, current := range lines {
		if !current.synthetic {
			retained++
		}
	}
	return retained
}

// composeLines maps lines produced from the rendering of current back onto the lines current
// stands for, so every pass reports against the original input.
func composeLines(current []line, next []line) []line {
	composed := make([]line, 0, len(next))
	for _, produced := range next {
		if !produced.synthetic {
			source := current[produced.first]
			source.text = produced.text
			if produced.clippedAt > 0 && source.clippedAt == 0 {
				source.clippedAt = produced.clippedAt
			}
			composed = append(composed, source)
			continue
		}
		covered := 0
		for _, source := range current[produced.first : produced.last+1] {
			covered += source.last - source.first + 1
			produced.hidden += source.hidden
		}
		produced.first = current[produced.first].first
		produced.last = current[produced.last].last
		produced.hidden += (produced.last - produced.first + 1) - covered
		composed = append(composed, produced)
	}
	return composed
}

// collectElisions reports every synthesized marker, clipped line and silently dropped blank line.
func collectElisions(lines []line, spans []byteSpan) []types.Elision {
	var elisions []types.Elision
	appendGap := func(from int, to int) {
		if from > to {
			return
		}
		elisions = append(elisions, types.Elision{
			Reason:    reasonBlankLines,
			StartLine: from + 1,
			EndLine:   to + 1,
			StartByte: spans[from].start,
			EndByte:   spans[to].end,
			Lines:     to - from + 1,
		})
	}
	next := 0
	for _, current := range lines {
		if current.first > next {
			appendGap(next, current.first-1)
		}
		if current.synthetic {
			elisions = append(elisions, types.Elision{
				Reason:    current.reason,
				StartLine: current.first + 1,
				EndLine:   current.last + 1,
				StartByte: spans[current.first].start,
				EndByte:   spans[current.last].end,
				Lines:     current.weight,
			})
			if current.hidden > 0 {
				elisions = append(elisions, types.Elision{
					Reason:    reasonBlankLines,
					StartLine: current.first + 1,
					EndLine:   current.last + 1,
					StartByte: spans[current.first].start,
					EndByte:   spans[current.last].end,
					Lines:     current.hidden,
				})
			}
		}
		if current.clippedAt > 0 && !current.synthetic {
			elisions = append(elisions, types.Elision{
				Reason:    reasonLongLine,
				StartLine: current.first + 1,
				EndLine:   current.first + 1,
				StartByte: spans[current.first].start + current.clippedAt,
				EndByte:   spans[current.first].end,
			})
		}
		if current.last+1 > next {
			next = current.last + 1
		}
	}
	appendGap(next, len(spans)-1)
	return elisions
}
