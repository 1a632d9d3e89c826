// Package filter decides which repository paths take part in a document.
//
// Matchers run short-circuit in a fixed precedence: explicit skip tokens, repository ignore
// patterns, fixed ignored names, then the binary extension set. The first three remove an
// entry from the document entirely; a binary extension keeps the entry in the tree and only
// replaces its content with a placeholder.
package filter

import (
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/temirov/repoctx/internal/utils"
)

// Verdict is the outcome of evaluating a path against SkipRules.
type Verdict int

const (
	VerdictInclude Verdict = iota
	VerdictSkipExplicit
	VerdictSkipIgnoreFile
	VerdictSkipIgnoredName
	VerdictBinary
)

const globMetaCharacters = "*?["

// String returns a short description used in debug logging.
func (verdict Verdict) String() string {
	switch verdict {
	case VerdictSkipExplicit:
		return "explicit skip"
	case VerdictSkipIgnoreFile:
		return "ignore file"
	case VerdictSkipIgnoredName:
		return "ignored name"
	case VerdictBinary:
		return "binary extension"
	default:
		return "include"
	}
}

// Skipped reports whether the verdict removes the path from the document.
func (verdict Verdict) Skipped() bool {
	return verdict == VerdictSkipExplicit || verdict == VerdictSkipIgnoreFile || verdict == VerdictSkipIgnoredName
}

// PathFilter is the predicate consumed by traversal and content collection.
type PathFilter interface {
	ShouldSkip(relativePath string, isDirectory bool) bool
	IsBinaryPath(relativePath string) bool
}

// Options configures SkipRules. Nil default lists select the built-in defaults.
type Options struct {
	SkipTokens         []string
	IgnorePatterns     []gitignore.Pattern
	BinaryPatterns     []gitignore.Pattern
	IgnoredDirectories []string
	IgnoredFiles       []string
	BinaryExtensions   []string
}

// SkipRules is an immutable set of matchers. The zero value includes everything.
type SkipRules struct {
	skipTokens         []skipToken
	ignoreMatcher      gitignore.Matcher
	binaryMatcher      gitignore.Matcher
	ignoredDirectories map[string]struct{}
	ignoredFiles       map[string]struct{}
	binaryExtensions   []string
}

type skipToken struct {
	segments      []string
	anchored      bool
	directoryOnly bool
}

// NewSkipRules builds SkipRules from options.
func NewSkipRules(options Options) SkipRules {
	ignoredDirectories := options.IgnoredDirectories
	if ignoredDirectories == nil {
		ignoredDirectories = DefaultIgnoredDirectories
	}
	ignoredFiles := options.IgnoredFiles
	if ignoredFiles == nil {
		ignoredFiles = DefaultIgnoredFiles
	}
	binaryExtensions := options.BinaryExtensions
	if binaryExtensions == nil {
		binaryExtensions = DefaultBinaryExtensions
	}

	rules := SkipRules{
		ignoredDirectories: toSet(ignoredDirectories),
		ignoredFiles:       toSet(ignoredFiles),
	}
	for _, extension := range binaryExtensions {
		rules.binaryExtensions = append(rules.binaryExtensions, strings.ToLower(extension))
	}
	for _, rawToken := range utils.DeduplicatePatterns(options.SkipTokens) {
		if token, ok := parseSkipToken(rawToken); ok {
			rules.skipTokens = append(rules.skipTokens, token)
		}
	}
	if len(options.IgnorePatterns) > 0 {
		rules.ignoreMatcher = gitignore.NewMatcher(options.IgnorePatterns)
	}
	if len(options.BinaryPatterns) > 0 {
		rules.binaryMatcher = gitignore.NewMatcher(options.BinaryPatterns)
	}
	return rules
}

func parseSkipToken(rawToken string) (skipToken, bool) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(rawToken, "\\", "/"))
	if trimmed == utils.EmptyString {
		return skipToken{}, false
	}
	directoryOnly := strings.HasSuffix(trimmed, "/")
	anchored := strings.Contains(strings.Trim(trimmed, "/"), "/") || strings.HasPrefix(trimmed, "/")
	segments := utils.SplitPathSegments(trimmed)
	if len(segments) == 0 {
		return skipToken{}, false
	}
	return skipToken{segments: segments, anchored: anchored, directoryOnly: directoryOnly}, true
}

// ShouldSkip reports whether the path must be omitted from both the tree and the content.
func (rules SkipRules) ShouldSkip(relativePath string, isDirectory bool) bool {
	return rules.Evaluate(relativePath, isDirectory).Skipped()
}

// IsBinaryPath reports whether the file's content must be replaced by a binary placeholder.
func (rules SkipRules) IsBinaryPath(relativePath string) bool {
	return rules.Evaluate(relativePath, false) == VerdictBinary
}

// Evaluate returns the first matching verdict in precedence order.
func (rules SkipRules) Evaluate(relativePath string, isDirectory bool) Verdict {
	segments := utils.SplitPathSegments(relativePath)
	if len(segments) == 0 {
		return VerdictInclude
	}

	for _, token := range rules.skipTokens {
		if token.matches(segments, isDirectory) {
			return VerdictSkipExplicit
		}
	}

	if rules.ignoreMatcher != nil && rules.ignoreMatcher.Match(segments, isDirectory) {
		return VerdictSkipIgnoreFile
	}

	if rules.matchesIgnoredName(segments, isDirectory) {
		return VerdictSkipIgnoredName
	}

	if isDirectory {
		return VerdictInclude
	}
	if rules.binaryMatcher != nil && rules.binaryMatcher.Match(segments, false) {
		return VerdictBinary
	}
	lowerName := strings.ToLower(segments[len(segments)-1])
	for _, extension := range rules.binaryExtensions {
		if strings.HasSuffix(lowerName, extension) && len(lowerName) > len(extension) {
			return VerdictBinary
		}
	}
	return VerdictInclude
}

func (rules SkipRules) matchesIgnoredName(segments []string, isDirectory bool) bool {
	lastIndex := len(segments) - 1
	for index, segment := range segments {
		segmentIsDirectory := index < lastIndex || isDirectory
		if segmentIsDirectory {
			if _, ignored := rules.ignoredDirectories[segment]; ignored {
				return true
			}
			continue
		}
		if _, ignored := rules.ignoredFiles[segment]; ignored {
			return true
		}
	}
	return false
}

func (token skipToken) matches(segments []string, isDirectory bool) bool {
	lastIndex := len(segments) - 1
	if !token.anchored {
		pattern := token.segments[0]
		for index, segment := range segments {
			if token.directoryOnly && index == lastIndex && !isDirectory {
				continue
			}
			if segmentMatches(pattern, segment) {
				return true
			}
		}
		return false
	}

	if len(segments) < len(token.segments) {
		return false
	}
	if token.directoryOnly && len(segments) == len(token.segments) && !isDirectory {
		return false
	}
	for index, pattern := range token.segments {
		if !segmentMatches(pattern, segments[index]) {
			return false
		}
	}
	return true
}

func segmentMatches(pattern string, segment string) bool {
	if !strings.ContainsAny(pattern, globMetaCharacters) {
		return pattern == segment
	}
	matched, matchError := path.Match(pattern, segment)
	return matchError == nil && matched
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

var _ PathFilter = SkipRules{}
