package filter

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

func TestEvaluate(testingInstance *testing.T) {
	rules := NewSkipRules(Options{
		SkipTokens:     []string{"docs/", "src/gen", "*.log", "node_modules", "docs/"},
		IgnorePatterns: []gitignore.Pattern{gitignore.ParsePattern("*.tmp", nil)},
		BinaryPatterns: []gitignore.Pattern{gitignore.ParsePattern("*.dat", nil)},
	})

	testCases := []struct {
		testName        string
		relativePath    string
		isDirectory     bool
		expectedVerdict Verdict
	}{
		{testName: "plain_source", relativePath: "cmd/main.go", expectedVerdict: VerdictInclude},
		{testName: "root_path", relativePath: "", isDirectory: true, expectedVerdict: VerdictInclude},
		{testName: "directory_token_matches_directory", relativePath: "docs", isDirectory: true, expectedVerdict: VerdictSkipExplicit},
		{testName: "directory_token_matches_descendant", relativePath: "docs/guide.md", expectedVerdict: VerdictSkipExplicit},
		{testName: "directory_token_ignores_file", relativePath: "notes/docs", expectedVerdict: VerdictInclude},
		{testName: "anchored_token_matches_prefix", relativePath: "src/gen/model.go", expectedVerdict: VerdictSkipExplicit},
		{testName: "anchored_token_needs_root", relativePath: "lib/src/gen/model.go", expectedVerdict: VerdictInclude},
		{testName: "glob_token", relativePath: "logs/app.log", expectedVerdict: VerdictSkipExplicit},
		{testName: "explicit_before_ignored_name", relativePath: "web/node_modules", isDirectory: true, expectedVerdict: VerdictSkipExplicit},
		{testName: "ignore_file_pattern", relativePath: "cache/session.tmp", expectedVerdict: VerdictSkipIgnoreFile},
		{testName: "ignored_directory", relativePath: "service/__pycache__/mod.pyc", expectedVerdict: VerdictSkipIgnoredName},
		{testName: "ignored_file", relativePath: "README.md", expectedVerdict: VerdictSkipIgnoredName},
		{testName: "ignored_file_name_as_directory", relativePath: "LICENSE", isDirectory: true, expectedVerdict: VerdictInclude},
		{testName: "binary_extension", relativePath: "assets/Logo.PNG", expectedVerdict: VerdictBinary},
		{testName: "compound_binary_extension", relativePath: "release/app.tar.gz", expectedVerdict: VerdictBinary},
		{testName: "binary_section_pattern", relativePath: "fixtures/sample.dat", expectedVerdict: VerdictBinary},
		{testName: "extension_only_name", relativePath: ".png", expectedVerdict: VerdictInclude},
		{testName: "binary_extension_on_directory", relativePath: "bundle.zip", isDirectory: true, expectedVerdict: VerdictInclude},
	}

	for _, testCase := range testCases {
		testingInstance.Run(testCase.testName, func(testingInstance *testing.T) {
			verdict := rules.Evaluate(testCase.relativePath, testCase.isDirectory)
			if verdict != testCase.expectedVerdict {
				testingInstance.Fatalf("Evaluate(%q) = %s, expected %s", testCase.relativePath, verdict, testCase.expectedVerdict)
			}
		})
	}
}

func TestPathFilterPredicates(testingInstance *testing.T) {
	rules := NewSkipRules(Options{SkipTokens: []string{"vendor"}})

	if !rules.ShouldSkip("vendor", true) {
		testingInstance.Fatalf("expected vendor to be skipped")
	}
	if rules.ShouldSkip("image.png", false) {
		testingInstance.Fatalf("binary files stay in the tree")
	}
	if !rules.IsBinaryPath("image.png") {
		testingInstance.Fatalf("expected image.png to be binary")
	}
	if rules.IsBinaryPath("vendor/image.png") {
		testingInstance.Fatalf("skipped paths are not reported as binary")
	}
}

func TestCustomDefaultLists(testingInstance *testing.T) {
	rules := NewSkipRules(Options{
		IgnoredDirectories: []string{},
		IgnoredFiles:       []string{"Makefile"},
		BinaryExtensions:   []string{".BIN"},
	})

	if rules.ShouldSkip("node_modules/index.js", false) {
		testingInstance.Fatalf("empty directory list must disable directory defaults")
	}
	if !rules.ShouldSkip("Makefile", false) {
		testingInstance.Fatalf("expected custom ignored file")
	}
	if !rules.IsBinaryPath("firmware.bin") {
		testingInstance.Fatalf("binary extensions match case-insensitively")
	}
	if rules.IsBinaryPath("logo.png") {
		testingInstance.Fatalf("custom binary list replaces the defaults")
	}
}

func TestZeroValueIncludesEverything(testingInstance *testing.T) {
	var rules SkipRules
	for _, relativePath := range []string{"node_modules/index.js", "README.md", "logo.png"} {
		if verdict := rules.Evaluate(relativePath, false); verdict != VerdictInclude {
			testingInstance.Fatalf("Evaluate(%q) = %s, expected include", relativePath, verdict)
		}
	}
}
