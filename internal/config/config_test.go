package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/temirov/repoctx/internal/source"
	"github.com/temirov/repoctx/internal/utils"
)

// writeTestFile creates a file with the specified content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if makeDirError := os.MkdirAll(filepath.Dir(filePath), 0o755); makeDirError != nil {
		testingHandle.Fatalf("failed to create %s: %v", filepath.Dir(filePath), makeDirError)
	}
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

// TestParseIgnoreFileSections verifies comments are dropped and [binary] patterns are separated.
func TestParseIgnoreFileSections(testingHandle *testing.T) {
	content := "# comment\n*.log\n\n[binary]\nassets/*.dat\n[ignore]\ntmp/\n"
	ignorePatterns, binaryPatterns, parseError := ParseIgnoreFile([]byte(content))
	if parseError != nil {
		testingHandle.Fatalf("ParseIgnoreFile failed: %v", parseError)
	}
	if !reflect.DeepEqual(ignorePatterns, []string{"*.log", "tmp/"}) {
		testingHandle.Fatalf("unexpected ignore patterns %v", ignorePatterns)
	}
	if !reflect.DeepEqual(binaryPatterns, []string{"assets/*.dat"}) {
		testingHandle.Fatalf("unexpected binary patterns %v", binaryPatterns)
	}
}

// TestLoadRepositoryIgnorePatternsScopesNestedFiles verifies nested ignore files only apply beneath their directory.
func TestLoadRepositoryIgnorePatternsScopesNestedFiles(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), "*.log\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "nested", utils.GitIgnoreFileName), "generated.txt\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.IgnoreFileName), "scratch/\n[binary]\n*.dat\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "pruned", utils.GitIgnoreFileName), "*.go\n")

	patterns, loadError := LoadRepositoryIgnorePatterns(context.Background(), source.NewLocalSource(rootDirectory), IgnoreOptions{
		UseGitignore:  true,
		UseIgnoreFile: true,
		SkipDirectory: func(relativePath string) bool { return relativePath == "pruned" },
	})
	if loadError != nil {
		testingHandle.Fatalf("LoadRepositoryIgnorePatterns failed: %v", loadError)
	}

	ignoreMatcher := gitignore.NewMatcher(patterns.Ignore)
	testCases := []struct {
		testName    string
		path        []string
		isDirectory bool
		expected    bool
	}{
		{testName: "root log", path: []string{"debug.log"}, expected: true},
		{testName: "nested log", path: []string{"nested", "deep", "trace.log"}, expected: true},
		{testName: "nested generated", path: []string{"nested", "generated.txt"}, expected: true},
		{testName: "root generated", path: []string{"generated.txt"}, expected: false},
		{testName: "scratch directory", path: []string{"scratch"}, isDirectory: true, expected: true},
		{testName: "pruned pattern unused", path: []string{"main.go"}, expected: false},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.testName, func(testingHandle *testing.T) {
			if matched := ignoreMatcher.Match(testCase.path, testCase.isDirectory); matched != testCase.expected {
				testingHandle.Fatalf("Match(%v) = %v, want %v", testCase.path, matched, testCase.expected)
			}
		})
	}

	binaryMatcher := gitignore.NewMatcher(patterns.Binary)
	if !binaryMatcher.Match([]string{"assets", "blob.dat"}, false) {
		testingHandle.Fatalf("expected binary pattern to match assets/blob.dat")
	}
}

// TestLoadRepositoryIgnorePatternsHonorsToggles verifies disabled ignore files are not read.
func TestLoadRepositoryIgnorePatternsHonorsToggles(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), "*.log\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.IgnoreFileName), "*.tmp\n")

	patterns, loadError := LoadRepositoryIgnorePatterns(context.Background(), source.NewLocalSource(rootDirectory), IgnoreOptions{UseIgnoreFile: true})
	if loadError != nil {
		testingHandle.Fatalf("LoadRepositoryIgnorePatterns failed: %v", loadError)
	}
	matcher := gitignore.NewMatcher(patterns.Ignore)
	if matcher.Match([]string{"debug.log"}, false) {
		testingHandle.Fatalf("expected .gitignore to be ignored when disabled")
	}
	if !matcher.Match([]string{"cache.tmp"}, false) {
		testingHandle.Fatalf("expected .ignore pattern to apply")
	}

	patterns, loadError = LoadRepositoryIgnorePatterns(context.Background(), source.NewLocalSource(rootDirectory), IgnoreOptions{})
	if loadError != nil {
		testingHandle.Fatalf("LoadRepositoryIgnorePatterns failed: %v", loadError)
	}
	if len(patterns.Ignore) != 0 || len(patterns.Binary) != 0 {
		testingHandle.Fatalf("expected no patterns when both ignore files are disabled")
	}
}
