package output

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/temirov/repoctx/internal/compress"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	maximumListedLanguages = 3
	goModuleFileName       = "go.mod"

	summaryContentsFormat     = "Repository contains %d files (%s, %d lines)."
	summaryLanguagesFormat    = "Main languages: %s."
	summaryLanguageFormat     = "%s (%d)"
	summaryOtherFormat        = ", and %d other %s"
	summaryLargestFormat      = "Largest file: %s (%d lines)."
	summaryPlaceholdersFormat = "Placeholders: %d binary, %d unavailable, %d truncated."
	summaryOmittedFormat      = "Compression omitted %d of %d lines (%.1f%%)."
	summaryModuleFormat       = "Go module: %s"
	summaryGoVersionFormat    = " (go %s)"
	summaryModuleSuffix       = "."
	summaryDuplicatesFormat   = "Duplicate code: %d %s repeated across files, largest %d lines in %s."

	minimumDuplicateSectionBytes = 50
	duplicatePathSeparator       = ", "
)

var duplicateCommentPrefixes = []string{"//", "#"}

// LanguageCount is the number of files detected for one language.
type LanguageCount struct {
	Name  string
	Files int
}

// DuplicateSection is a block of consecutive code lines found verbatim in more than one file.
type DuplicateSection struct {
	Lines int
	Paths []string
}

// RepositorySummary aggregates statistics over the chunks of one document.
type RepositorySummary struct {
	Files        int
	TotalBytes   int64
	TotalLines   int
	Languages    []LanguageCount
	LargestPath  string
	LargestLines int
	Binary       int
	Unavailable  int
	Truncated    int
	OmittedLines int
	ModulePath   string
	GoVersion    string
	Duplicates   []DuplicateSection
}

// Summarize computes a RepositorySummary. goModule holds the raw go.mod of the traversal
// root, or nil when there is none; an unparsable go.mod is ignored.
func Summarize(chunks []types.ContentChunk, goModule []byte) RepositorySummary {
	summary := RepositorySummary{Files: len(chunks)}
	languageFiles := map[string]int{}
	for _, chunk := range chunks {
		summary.TotalBytes += chunk.OriginalSize
		summary.TotalLines += chunk.Lines
		summary.OmittedLines += chunk.Compression.OmittedLines
		switch chunk.Placeholder {
		case types.PlaceholderBinary:
			summary.Binary++
		case types.PlaceholderUnavailable:
			summary.Unavailable++
		case types.PlaceholderTruncated:
			summary.Truncated++
		}
		if chunk.Lines > summary.LargestLines {
			summary.LargestPath = chunk.Path
			summary.LargestLines = chunk.Lines
		}
		if language := compress.LanguageName(chunk.Path); language != utils.EmptyString {
			languageFiles[language]++
		}
	}

	for name, files := range languageFiles {
		summary.Languages = append(summary.Languages, LanguageCount{Name: name, Files: files})
	}
	sort.Slice(summary.Languages, func(left, right int) bool {
		if summary.Languages[left].Files != summary.Languages[right].Files {
			return summary.Languages[left].Files > summary.Languages[right].Files
		}
		return summary.Languages[left].Name < summary.Languages[right].Name
	})

	summary.Duplicates = findDuplicateSections(chunks)

	if len(goModule) > 0 {
		moduleFile, parseError := modfile.ParseLax(goModuleFileName, goModule, nil)
		if parseError == nil && moduleFile.Module != nil {
			summary.ModulePath = moduleFile.Module.Mod.Path
			if moduleFile.Go != nil {
				summary.GoVersion = moduleFile.Go.Version
			}
		}
	}
	return summary
}

// Render formats the summary as the body of the Repository Summary section.
func (summary RepositorySummary) Render() string {
	lines := []string{fmt.Sprintf(summaryContentsFormat, summary.Files, utils.FormatFileSize(summary.TotalBytes), summary.TotalLines)}

	if len(summary.Languages) > 0 {
		listed := summary.Languages
		if len(listed) > maximumListedLanguages {
			listed = listed[:maximumListedLanguages]
		}
		parts := make([]string, 0, len(listed))
		for _, language := range listed {
			parts = append(parts, fmt.Sprintf(summaryLanguageFormat, language.Name, language.Files))
		}
		languages := strings.Join(parts, ", ")
		if remaining := len(summary.Languages) - len(listed); remaining > 0 {
			noun := "languages"
			if remaining == 1 {
				noun = "language"
			}
			languages += fmt.Sprintf(summaryOtherFormat, remaining, noun)
		}
		lines = append(lines, fmt.Sprintf(summaryLanguagesFormat, languages))
	}

	if summary.LargestPath != utils.EmptyString {
		lines = append(lines, fmt.Sprintf(summaryLargestFormat, summary.LargestPath, summary.LargestLines))
	}
	if summary.Binary+summary.Unavailable+summary.Truncated > 0 {
		lines = append(lines, fmt.Sprintf(summaryPlaceholdersFormat, summary.Binary, summary.Unavailable, summary.Truncated))
	}
	if summary.OmittedLines > 0 && summary.TotalLines > 0 {
		ratio := float64(summary.OmittedLines) * 100 / float64(summary.TotalLines)
		lines = append(lines, fmt.Sprintf(summaryOmittedFormat, summary.OmittedLines, summary.TotalLines, ratio))
	}
	if summary.ModulePath != utils.EmptyString {
		module := fmt.Sprintf(summaryModuleFormat, summary.ModulePath)
		if summary.GoVersion != utils.EmptyString {
			module += fmt.Sprintf(summaryGoVersionFormat, summary.GoVersion)
		}
		lines = append(lines, module+summaryModuleSuffix)
	}
	if len(summary.Duplicates) > 0 {
		largest := summary.Duplicates[0]
		for _, section := range summary.Duplicates[1:] {
			if section.Lines > largest.Lines {
				largest = section
			}
		}
		noun := "sections"
		if len(summary.Duplicates) == 1 {
			noun = "section"
		}
		lines = append(lines, fmt.Sprintf(summaryDuplicatesFormat, len(summary.Duplicates), noun, largest.Lines, strings.Join(largest.Paths, duplicatePathSeparator)))
	}
	return strings.Join(lines, "\n")
}

// findDuplicateSections splits every file into runs of non-blank, non-comment lines and
// reports the runs longer than minimumDuplicateSectionBytes that occur in at least two files.
// Sections are ordered by first appearance.
func findDuplicateSections(chunks []types.ContentChunk) []DuplicateSection {
	type occurrence struct {
		lines int
		paths []string
	}
	var order []string
	occurrences := map[string]*occurrence{}
	for _, chunk := range chunks {
		if chunk.Placeholder != types.PlaceholderNone {
			continue
		}
		for _, section := range codeSections(chunk.Text) {
			key := strings.Join(section, "\n")
			if len(key) <= minimumDuplicateSectionBytes {
				continue
			}
			found, known := occurrences[key]
			if !known {
				found = &occurrence{lines: len(section)}
				occurrences[key] = found
				order = append(order, key)
			}
			if len(found.paths) == 0 || found.paths[len(found.paths)-1] != chunk.Path {
				found.paths = append(found.paths, chunk.Path)
			}
		}
	}

	var duplicates []DuplicateSection
	for _, key := range order {
		if found := occurrences[key]; len(found.paths) > 1 {
			duplicates = append(duplicates, DuplicateSection{Lines: found.lines, Paths: found.paths})
		}
	}
	return duplicates
}

func codeSections(text string) [][]string {
	var sections [][]string
	var current []string
	for _, rawLine := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(rawLine)
		if trimmed == utils.EmptyString || isCommentLine(trimmed) {
			if len(current) > 0 {
				sections = append(sections, current)
				current = nil
			}
			continue
		}
		current = append(current, trimmed)
	}
	if len(current) > 0 {
		sections = append(sections, current)
	}
	return sections
}

func isCommentLine(trimmed string) bool {
	for _, prefix := range duplicateCommentPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}
