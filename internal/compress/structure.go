package compress

import (
	"regexp"
	"strings"
)

type declarationKind int

const (
	notDeclaration declarationKind = iota
	functionDeclaration
	containerDeclaration
)

const maximumSignatureLines = 12

var (
	keywordDeclarationPattern = regexp.MustCompile(`^(?:(?:export|default|public|private|protected|internal|static|abstract|final|sealed|open|override|virtual|async|unsafe|extern|inline|partial|data|pub(?:\([a-z]+\))?)\s+)*(func|def|class|function|fn|interface|struct|enum|trait|impl|type|module|object|record|namespace|fun|union)(?:\s|<|\*)`)
	cLikeSignaturePattern     = regexp.MustCompile(`^(?:[A-Za-z_$][\w$<>\[\],.?*&:]*\s+)+[*&]*[A-Za-z_$~][\w$]*\s*\([^;]*$`)
	methodShorthandPattern    = regexp.MustCompile(`^(?:(?:async|static|get|set|public|private|protected|readonly|override)\s+)*[A-Za-z_$][\w$]*\s*\([^;]*\)\s*(?::\s*[^{;=]+)?\{$`)
	arrowFunctionPattern      = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+[\w$]+\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b[^{]*|\([^)]*\)\s*(?::[^=]+)?=>|[\w$]+\s*=>)\s*\{$`)
	leadingIdentifierPattern  = regexp.MustCompile(`^[A-Za-z_$][\w$]*`)
)

var containerKeywords = map[string]struct{}{
	"class":     {},
	"interface": {},
	"struct":    {},
	"enum":      {},
	"trait":     {},
	"impl":      {},
	"module":    {},
	"object":    {},
	"record":    {},
	"namespace": {},
	"union":     {},
	"type":      {},
}

var statementKeywords = map[string]struct{}{
	"if": {}, "else": {}, "for": {}, "foreach": {}, "while": {}, "do": {}, "switch": {}, "case": {},
	"catch": {}, "try": {}, "finally": {}, "return": {}, "throw": {}, "new": {}, "delete": {},
	"await": {}, "yield": {}, "go": {}, "defer": {}, "raise": {}, "elif": {}, "except": {},
	"with": {}, "assert": {}, "print": {}, "select": {}, "using": {}, "lock": {}, "synchronized": {},
	"sizeof": {}, "typeof": {}, "instanceof": {}, "goto": {}, "break": {}, "continue": {},
	"import": {}, "from": {}, "package": {}, "require": {}, "include": {}, "echo": {}, "when": {},
	"match": {}, "let": {}, "const": {}, "var": {},
}

// classifyDeclaration recognises function and container declarations by their first line.
func classifyDeclaration(text string, lang language) declarationKind {
	code := strings.TrimSpace(codeOnly(text, lang))
	if code == "" {
		return notDeclaration
	}
	if matches := keywordDeclarationPattern.FindStringSubmatch(code); matches != nil {
		if _, container := containerKeywords[matches[1]]; container {
			return containerDeclaration
		}
		return functionDeclaration
	}
	if arrowFunctionPattern.MatchString(code) {
		return functionDeclaration
	}
	if !lang.cLike {
		return notDeclaration
	}
	if _, statement := statementKeywords[leadingIdentifierPattern.FindString(code)]; statement {
		return notDeclaration
	}
	if strings.Contains(strings.SplitN(code, "(", 2)[0], "=") {
		return notDeclaration
	}
	if methodShorthandPattern.MatchString(code) {
		return functionDeclaration
	}
	if cLikeSignaturePattern.MatchString(code) && hasSignatureEnding(code) {
		return functionDeclaration
	}
	return notDeclaration
}

func hasSignatureEnding(code string) bool {
	return strings.HasSuffix(code, "{") || strings.HasSuffix(code, ")") || strings.HasSuffix(code, ",") || strings.HasSuffix(code, "(")
}

// codeOnly strips string and character literals and the trailing line comment.
func codeOnly(text string, lang language) string {
	var builder strings.Builder
	var quote byte
	escaped := false
	for index := 0; index < len(text); index++ {
		character := text[index]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case character == '\\' && quote != '`':
				escaped = true
			case character == quote:
				quote = 0
			}
			continue
		}
		if character == '"' || character == '\'' || character == '`' {
			quote = character
			continue
		}
		if lang.lineComment != "" && strings.HasPrefix(text[index:], lang.lineComment) {
			break
		}
		builder.WriteByte(character)
	}
	return builder.String()
}

func delimiterBalance(code string, open byte, close byte) int {
	return strings.Count(code, string(open)) - strings.Count(code, string(close))
}

func braceDelta(current line, lang language) int {
	if current.marker {
		return 0
	}
	return delimiterBalance(codeOnly(current.text, lang), '{', '}')
}

// block locates the pieces of a declaration that owns a body.
type block struct {
	bodyStart int
	bodyEnd   int
	closing   int
	end       int
	braced    bool
}

// locateBlock finds the body of the declaration starting at lines[start]. It reports false for
// one-line declarations and for bodies whose braces do not balance.
func locateBlock(lines []line, start int, lang language) (block, bool) {
	signatureEnd := start
	parenthesisDepth := delimiterBalance(codeOnly(lines[start].text, lang), '(', ')')
	for parenthesisDepth > 0 {
		signatureEnd++
		if signatureEnd >= len(lines) || signatureEnd-start >= maximumSignatureLines || lines[signatureEnd].marker {
			return block{}, false
		}
		parenthesisDepth += delimiterBalance(codeOnly(lines[signatureEnd].text, lang), '(', ')')
	}

	tail := strings.TrimSpace(codeOnly(lines[signatureEnd].text, lang))
	switch {
	case strings.HasSuffix(tail, "{"):
		return braceBlock(lines, start, signatureEnd, lang)
	case signatureEnd+1 < len(lines) && strings.TrimSpace(lines[signatureEnd+1].text) == "{":
		return braceBlock(lines, start, signatureEnd+1, lang)
	case strings.HasSuffix(tail, ":"):
		return indentBlock(lines, start, signatureEnd)
	}
	return block{}, false
}

func braceBlock(lines []line, start int, openingLine int, lang language) (block, bool) {
	depth := 0
	for index := start; index <= openingLine; index++ {
		depth += braceDelta(lines[index], lang)
	}
	if depth <= 0 {
		return block{}, false
	}
	openingDepth := depth
	for index := openingLine + 1; index < len(lines); index++ {
		delta := braceDelta(lines[index], lang)
		if depth+delta > 0 {
			depth += delta
			continue
		}
		if depth != openingDepth || depth+delta != 0 {
			return block{}, false
		}
		return block{bodyStart: openingLine + 1, bodyEnd: index, closing: index, end: index + 1, braced: true}, true
	}
	return block{}, false
}

func indentBlock(lines []line, start int, signatureEnd int) (block, bool) {
	baseIndent := indentWidth(lines[start].text)
	lastBodyLine := signatureEnd
	for index := signatureEnd + 1; index < len(lines); index++ {
		if isBlank(lines[index]) {
			continue
		}
		if indentWidth(lines[index].text) <= baseIndent {
			break
		}
		lastBodyLine = index
	}
	if lastBodyLine == signatureEnd {
		return block{}, false
	}
	return block{bodyStart: signatureEnd + 1, bodyEnd: lastBodyLine + 1, closing: -1, end: lastBodyLine + 1}, true
}

type walkMode int

const (
	// modeTruncate shortens long function bodies to a marker and the final return.
	modeTruncate walkMode = iota
	// modeSkeleton keeps declarations with the first and last line of each body.
	modeSkeleton
)

type structureWalker struct {
	lang          language
	mode          walkMode
	bodyThreshold int
}

func (walker structureWalker) walk(lines []line) []line {
	result := make([]line, 0, len(lines))
	var pending []line
	flush := func() {
		if walker.mode == modeSkeleton {
			result = append(result, walker.collapseStatements(pending)...)
		} else {
			result = append(result, pending...)
		}
		pending = nil
	}

	for index := 0; index < len(lines); {
		current := lines[index]
		kind := notDeclaration
		if !current.marker {
			kind = classifyDeclaration(current.text, walker.lang)
		}
		if kind == notDeclaration {
			pending = append(pending, current)
			index++
			continue
		}

		flush()
		located, ok := locateBlock(lines, index, walker.lang)
		if !ok {
			result = append(result, current)
			index++
			continue
		}
		result = append(result, lines[index:located.bodyStart]...)
		body := lines[located.bodyStart:located.bodyEnd]
		if kind == containerDeclaration {
			result = append(result, walker.walk(body)...)
		} else {
			result = append(result, walker.reduceBody(body, located.braced)...)
		}
		if located.closing >= 0 {
			result = append(result, lines[located.closing])
		}
		index = located.end
	}
	flush()
	return result
}

func (walker structureWalker) reduceBody(body []line, braced bool) []line {
	if walker.mode == modeTruncate {
		return walker.truncateBody(body, braced)
	}
	return walker.skeletonBody(body, braced)
}

func (walker structureWalker) truncateBody(body []line, braced bool) []line {
	if len(body) <= walker.bodyThreshold {
		return body
	}
	elided := body
	var finalReturn []line
	last := body[len(body)-1]
	if isReturnStatement(last) && indentWidth(last.text) == indentWidth(body[0].text) && (!braced || braceDelta(last, walker.lang) == 0) {
		elided = body[:len(body)-1]
		finalReturn = []line{last}
	}
	marker, ok := collapse(elided, reasonFunctionBody, walker.lang)
	if !ok {
		return body
	}
	return append([]line{marker}, finalReturn...)
}

func (walker structureWalker) skeletonBody(body []line, braced bool) []line {
	if len(body) < 3 {
		return body
	}
	first := body[0]
	last := body[len(body)-1]
	firstDelta := braceDelta(first, walker.lang)
	keepEnds := !braced || (firstDelta >= 0 && firstDelta+braceDelta(last, walker.lang) == 0)
	if keepEnds {
		if marker, ok := collapse(body[1:len(body)-1], reasonFunctionBody, walker.lang); ok {
			return []line{first, marker, last}
		}
		return body
	}
	if marker, ok := collapse(body, reasonFunctionBody, walker.lang); ok {
		return []line{marker}
	}
	return body
}

// collapseStatements replaces a run of non-declaration lines with a marker. When the run's
// braces do not balance, lines that open or close braces stay so enclosing blocks still close.
func (walker structureWalker) collapseStatements(run []line) []line {
	if len(run) == 0 {
		return nil
	}
	balance := 0
	for _, current := range run {
		balance += braceDelta(current, walker.lang)
	}
	if balance == 0 {
		return collapseRun(run, reasonNonDeclaration, walker.lang)
	}
	result := make([]line, 0, len(run))
	segmentStart := 0
	for index, current := range run {
		if braceDelta(current, walker.lang) == 0 {
			continue
		}
		result = append(result, collapseRun(run[segmentStart:index], reasonNonDeclaration, walker.lang)...)
		result = append(result, current)
		segmentStart = index + 1
	}
	return append(result, collapseRun(run[segmentStart:], reasonNonDeclaration, walker.lang)...)
}

func isReturnStatement(current line) bool {
	if current.marker {
		return false
	}
	trimmed := strings.TrimSpace(current.text)
	return trimmed == "return" || strings.HasPrefix(trimmed, "return ") || strings.HasPrefix(trimmed, "return;") || strings.HasPrefix(trimmed, "return(")
}
