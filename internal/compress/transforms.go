package compress

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maximumLineLength = 100
	longLineSlack     = 60
)

var docstringDelimiters = []string{`"""`, `'''`}

// collapseBlankRuns keeps the first line of every run of blank lines.
func collapseBlankRuns(lines []line) []line {
	result := make([]line, 0, len(lines))
	previousBlank := false
	for _, current := range lines {
		blank := isBlank(current)
		if blank && previousBlank && !current.pinned {
			continue
		}
		result = append(result, current)
		previousBlank = blank
	}
	return result
}

// dropBlankLines removes every blank line except a pinned first line.
func dropBlankLines(lines []line) []line {
	result := make([]line, 0, len(lines))
	for _, current := range lines {
		if isBlank(current) && !current.pinned {
			continue
		}
		result = append(result, current)
	}
	return result
}

// collapseDuplicates keeps the first line of every run of identical lines longer than
// threshold and replaces the rest with a count marker.
func collapseDuplicates(lines []line, threshold int, lang language) []line {
	result := make([]line, 0, len(lines))
	for index := 0; index < len(lines); {
		current := lines[index]
		runEnd := index + 1
		if !current.marker && !isBlank(current) {
			for runEnd < len(lines) && !lines[runEnd].marker && lines[runEnd].text == current.text {
				runEnd++
			}
		}
		run := lines[index:runEnd]
		if len(run) > threshold {
			if marker, ok := collapse(run[1:], reasonRepeatedLine, lang); ok {
				result = append(result, run[0], marker)
				index = runEnd
				continue
			}
		}
		result = append(result, run...)
		index = runEnd
	}
	return result
}

// compressComments shortens comment and docstring blocks longer than maxLines to their first
// and last lines around a marker. Markers terminate line-comment blocks.
func compressComments(lines []line, maxLines int, lang language) []line {
	result := make([]line, 0, len(lines))
	for index := 0; index < len(lines); {
		current := lines[index]
		if current.marker {
			result = append(result, current)
			index++
			continue
		}
		trimmed := strings.TrimSpace(current.text)

		if blockEnd, reason, ok := delimitedBlockEnd(lines, index, trimmed, lang); ok {
			result = append(result, shortenBlock(lines[index:blockEnd+1], maxLines, reason, lang)...)
			index = blockEnd + 1
			continue
		}

		if lang.isLineComment(trimmed) {
			blockEnd := index + 1
			for blockEnd < len(lines) && !lines[blockEnd].marker && lang.isLineComment(strings.TrimSpace(lines[blockEnd].text)) {
				blockEnd++
			}
			result = append(result, shortenBlock(lines[index:blockEnd], maxLines, reasonComment, lang)...)
			index = blockEnd
			continue
		}

		result = append(result, current)
		index++
	}
	return result
}

// delimitedBlockEnd finds the closing line of a block comment or docstring opened on lines[start].
func delimitedBlockEnd(lines []line, start int, trimmed string, lang language) (int, string, bool) {
	if lang.blockStart != "" && strings.HasPrefix(trimmed, lang.blockStart) {
		if strings.Contains(trimmed[len(lang.blockStart):], lang.blockEnd) {
			return 0, "", false
		}
		for index := start + 1; index < len(lines); index++ {
			if !lines[index].marker && strings.Contains(lines[index].text, lang.blockEnd) {
				return index, reasonComment, true
			}
		}
		return 0, "", false
	}
	if !lang.docstrings {
		return 0, "", false
	}
	for _, delimiter := range docstringDelimiters {
		opening := strings.TrimLeft(trimmed, "rRuUbB")
		if !strings.HasPrefix(opening, delimiter) || strings.Count(opening, delimiter) != 1 {
			continue
		}
		for index := start + 1; index < len(lines); index++ {
			if !lines[index].marker && strings.Contains(lines[index].text, delimiter) {
				return index, reasonDocstring, true
			}
		}
		return 0, "", false
	}
	return 0, "", false
}

func shortenBlock(block []line, maxLines int, reason string, lang language) []line {
	if len(block) <= maxLines || len(block) < 3 {
		return block
	}
	marker, ok := collapse(block[1:len(block)-1], reason, lang)
	if !ok {
		return block
	}
	return []line{block[0], marker, block[len(block)-1]}
}

// summarizeImports replaces import runs longer than threshold with a marker. Runs are
// consecutive top-level import statements or the members of a grouped import list.
func summarizeImports(lines []line, threshold int, lang language) []line {
	if lang.imports == nil {
		return lines
	}
	result := make([]line, 0, len(lines))
	for index := 0; index < len(lines); {
		current := lines[index]
		if current.marker {
			result = append(result, current)
			index++
			continue
		}
		if lang.importBlock != "" && strings.TrimSpace(current.text) == lang.importBlock {
			if closing, ok := importBlockEnd(lines, index); ok {
				result = append(result, current)
				result = append(result, limitImportRun(lines[index+1:closing], threshold, lang)...)
				result = append(result, lines[closing])
				index = closing + 1
				continue
			}
		}
		runEnd := index
		for runEnd < len(lines) && isImportStatement(lines[runEnd], lang) {
			runEnd++
		}
		if runEnd == index {
			result = append(result, current)
			index++
			continue
		}
		result = append(result, limitImportRun(lines[index:runEnd], threshold, lang)...)
		index = runEnd
	}
	return result
}

func importBlockEnd(lines []line, start int) (int, bool) {
	for index := start + 1; index < len(lines); index++ {
		if !lines[index].marker && strings.TrimSpace(lines[index].text) == ")" {
			return index, true
		}
	}
	return 0, false
}

func isImportStatement(current line, lang language) bool {
	if current.marker || indentWidth(current.text) > 0 {
		return false
	}
	return lang.imports.MatchString(current.text)
}

func limitImportRun(run []line, threshold int, lang language) []line {
	if len(run) <= threshold {
		return run
	}
	return collapseRun(run, reasonImports, lang)
}

// clipLongLines cuts lines longer than maximumLineLength+longLineSlack to maximumLineLength
// bytes followed by a count of the omitted characters. Declarations and lines whose braces
// would no longer balance stay whole.
func clipLongLines(lines []line, lang language) []line {
	result := make([]line, 0, len(lines))
	for _, current := range lines {
		if current.marker || len(current.text) <= maximumLineLength+longLineSlack || !clippable(current, lang) {
			result = append(result, current)
			continue
		}
		cut := maximumLineLength
		for cut > 1 && !utf8.RuneStart(current.text[cut]) {
			cut--
		}
		clipped := current
		clipped.text = current.text[:cut] + fmt.Sprintf(clipMarkerFormat, utf8.RuneCountInString(current.text[cut:]), reasonLongLine)
		clipped.clippedAt = cut
		if lang.structural && braceDelta(clipped, lang) != 0 {
			result = append(result, current)
			continue
		}
		result = append(result, clipped)
	}
	return result
}

func clippable(current line, lang language) bool {
	if !lang.structural {
		return true
	}
	return braceDelta(current, lang) == 0 && classifyDeclaration(current.text, lang) == notDeclaration
}
