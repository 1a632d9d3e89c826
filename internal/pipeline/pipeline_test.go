package pipeline_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/repoctx/internal/pipeline"
	"github.com/temirov/repoctx/internal/types"
)

type recordingCopier struct {
	copied []string
}

func (copier *recordingCopier) Copy(text string) error {
	copier.copied = append(copier.copied, text)
	return nil
}

func writeRepository(t *testing.T, files map[string]string) string {
	t.Helper()
	rootDirectory := filepath.Join(t.TempDir(), "demo")
	for relativePath, content := range files {
		absolutePath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
		require.NoError(t, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
		require.NoError(t, os.WriteFile(absolutePath, []byte(content), 0o644))
	}
	require.NoError(t, os.MkdirAll(rootDirectory, 0o755))
	return rootDirectory
}

func TestRunSkipsExplicitTokens(t *testing.T) {
	repository := writeRepository(t, map[string]string{
		"README.md":         "Hello",
		"a.py":              "print(1)\n",
		"node_modules/x.js": "module.exports = 1\n",
	})
	outputDirectory := t.TempDir()
	copier := &recordingCopier{}

	results, runError := pipeline.NewRunner(nil, copier).Run(context.Background(), pipeline.Options{
		Input:           repository,
		SkipTokens:      []string{"node_modules"},
		OutputDirectory: outputDirectory,
		Copy:            true,
	})
	require.NoError(t, runError)
	require.Len(t, results, 1)

	expected := "README:\nHello\n\n" +
		"Repository Structure: demo\n" +
		"a.py\n\n" +
		"File Contents:\n\n" +
		"File: a.py\n" +
		"Content:\n" +
		"print(1)\n\n"
	assert.Equal(t, expected, results[0].Text)
	assert.Equal(t, filepath.Join(outputDirectory, "demo_analysis.txt"), results[0].Path)
	assert.Equal(t, 1, results[0].Files)

	written, readError := os.ReadFile(results[0].Path)
	require.NoError(t, readError)
	assert.Equal(t, expected, string(written))
	assert.Equal(t, []string{expected}, copier.copied)
}

func TestRunFansOutSubdirectories(t *testing.T) {
	repository := writeRepository(t, map[string]string{
		"left/one.go":           "package left\n",
		"left/README.md":        "Left side",
		"right/two.go":          "package right\n",
		"right/nested/three.py": "print(3)\n",
	})
	outputDirectory := t.TempDir()

	results, runError := pipeline.NewRunner(nil, nil).Run(context.Background(), pipeline.Options{
		Input:           repository,
		Subdirectories:  []string{"left", "right"},
		OutputDirectory: outputDirectory,
		OutputStem:      "ctx",
	})
	require.NoError(t, runError)
	require.Len(t, results, 2)

	left, right := results[0], results[1]
	assert.Equal(t, filepath.Join(outputDirectory, "ctx_left_analysis.txt"), left.Path)
	assert.Equal(t, filepath.Join(outputDirectory, "ctx_right_analysis.txt"), right.Path)

	assert.Contains(t, left.Text, "README:\nLeft side\n\n")
	assert.Contains(t, left.Text, "Repository Structure: left\none.go\n\n")
	assert.Contains(t, left.Text, "File: left/one.go\n")
	assert.NotContains(t, left.Text, "two.go")
	assert.Equal(t, 1, left.Files)

	assert.Contains(t, right.Text, "README:\nREADME not found.\n\n")
	assert.Contains(t, right.Text, "Repository Structure: right\nnested/\n  three.py\ntwo.go\n\n")
	assert.NotContains(t, right.Text, "one.go")
	assert.Equal(t, 2, right.Files)

	for _, result := range results {
		_, statError := os.Stat(result.Path)
		assert.NoError(t, statError)
	}
}

func TestRunRejectsSubdirectoryOutsideRepository(t *testing.T) {
	repository := writeRepository(t, map[string]string{"a.txt": "a"})
	_, runError := pipeline.NewRunner(nil, nil).Run(context.Background(), pipeline.Options{
		Input:           repository,
		Subdirectories:  []string{"../elsewhere"},
		OutputDirectory: t.TempDir(),
	})
	assert.ErrorIs(t, runError, types.ErrInputResolution)
}

func TestRunRejectsSubdirectoriesSharingAStem(t *testing.T) {
	repository := writeRepository(t, map[string]string{
		"a/b/one.go": "package b\n",
		"a_b/two.go": "package a_b\n",
	})
	outputDirectory := t.TempDir()
	_, runError := pipeline.NewRunner(nil, nil).Run(context.Background(), pipeline.Options{
		Input:           repository,
		Subdirectories:  []string{"a/b", "a_b"},
		OutputDirectory: outputDirectory,
	})
	require.ErrorIs(t, runError, types.ErrInputResolution)
	assert.Contains(t, runError.Error(), "a_b_analysis.txt")

	entries, readError := os.ReadDir(outputDirectory)
	require.NoError(t, readError)
	assert.Empty(t, entries)
}

func TestRunMergesEquivalentSubdirectories(t *testing.T) {
	repository := writeRepository(t, map[string]string{"docs/guide.md": "guide"})
	results, runError := pipeline.NewRunner(nil, nil).Run(context.Background(), pipeline.Options{
		Input:           repository,
		Subdirectories:  []string{"docs", "docs/", "./docs"},
		OutputDirectory: t.TempDir(),
	})
	require.NoError(t, runError)
	assert.Len(t, results, 1)
}

func TestRunHonorsIgnoreFiles(t *testing.T) {
	repository := writeRepository(t, map[string]string{
		".gitignore":     "secret/\n*.log\n",
		"secret/key.txt": "hunter2",
		"app.log":        "log line",
		"main.go":        "package main\n",
	})

	testCases := []struct {
		testName     string
		useGitignore bool
		present      []string
		absent       []string
	}{
		{testName: "gitignore honored", useGitignore: true, present: []string{"File: main.go"}, absent: []string{"secret", "app.log"}},
		{testName: "gitignore disabled", useGitignore: false, present: []string{"File: main.go", "File: app.log", "File: secret/key.txt"}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.testName, func(t *testing.T) {
			results, runError := pipeline.NewRunner(nil, nil).Run(context.Background(), pipeline.Options{
				Input:           repository,
				OutputDirectory: t.TempDir(),
				UseGitignore:    testCase.useGitignore,
			})
			require.NoError(t, runError)
			for _, expected := range testCase.present {
				assert.Contains(t, results[0].Text, expected)
			}
			for _, unexpected := range testCase.absent {
				assert.NotContains(t, results[0].Text, unexpected)
			}
			assert.NotContains(t, results[0].Text, "File: .gitignore")
		})
	}
}

func TestRunWritesSummaryInstructionsAndReport(t *testing.T) {
	var builder strings.Builder
	builder.WriteString("package demo\n\nfunc Sum() int {\n\ttotal := 0\n")
	for index := 0; index < 60; index++ {
		builder.WriteString("\ttotal++\n")
	}
	builder.WriteString("\treturn total\n}\n")
	repository := writeRepository(t, map[string]string{
		"go.mod":   "module example.com/demo\n\ngo 1.22\n",
		"sum.go":   builder.String(),
		"logo.png": "\x89PNG",
	})
	instructionsFile := filepath.Join(t.TempDir(), "instructions.txt")
	require.NoError(t, os.WriteFile(instructionsFile, []byte("Explain this repository.\n"), 0o644))
	outputDirectory := t.TempDir()

	results, runError := pipeline.NewRunner(nil, nil).Run(context.Background(), pipeline.Options{
		Input:            repository,
		Level:            types.CompressionHeavy,
		CompressionDebug: true,
		Summary:          true,
		InstructionsFile: instructionsFile,
		OutputDirectory:  outputDirectory,
	})
	require.NoError(t, runError)
	require.Len(t, results, 1)
	text := results[0].Text

	assert.True(t, strings.HasPrefix(text, "Explain this repository.\n\nREADME:\nREADME not found.\n\nRepository Summary:\n"))
	assert.Contains(t, text, "Go module: example.com/demo (go 1.22).")
	assert.Contains(t, text, "Placeholders: 1 binary, 0 unavailable, 0 truncated.")
	assert.Contains(t, text, "File: logo.png\nContent: Skipped binary file\n")
	assert.Contains(t, text, "File: sum.go (compressed: heavy, ")
	assert.Contains(t, text, "Compression debug:\n")

	assert.Equal(t, filepath.Join(outputDirectory, "demo_compression.yaml"), results[0].ReportPath)
	report, readError := os.ReadFile(results[0].ReportPath)
	require.NoError(t, readError)
	assert.Contains(t, string(report), "path: sum.go\n")
	assert.Contains(t, string(report), "reason: function body\n")
}

func TestRunReportsOutputWriteFailure(t *testing.T) {
	repository := writeRepository(t, map[string]string{"a.txt": "a"})
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))

	_, runError := pipeline.NewRunner(nil, nil).Run(context.Background(), pipeline.Options{Input: repository, OutputDirectory: blocker})
	assert.ErrorIs(t, runError, types.ErrOutputWrite)
}

func TestRunRejectsUnresolvableInput(t *testing.T) {
	testCases := []struct {
		testName      string
		options       pipeline.Options
		expectedError error
	}{
		{testName: "neither directory nor repository", options: pipeline.Options{Input: "no/such/place/here"}, expectedError: types.ErrInputResolution},
		{testName: "remote with subdirectories", options: pipeline.Options{Input: "https://github.com/octo/demo", Subdirectories: []string{"docs"}}, expectedError: types.ErrInputResolution},
		{testName: "remote without token", options: pipeline.Options{Input: "https://github.com/octo/demo"}, expectedError: types.ErrAuthentication},
	}
	for _, testCase := range testCases {
		t.Run(testCase.testName, func(t *testing.T) {
			testCase.options.OutputDirectory = t.TempDir()
			_, runError := pipeline.NewRunner(nil, nil).Run(context.Background(), testCase.options)
			assert.ErrorIs(t, runError, testCase.expectedError)
		})
	}
}

func TestRunReadsRemoteRepository(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"name":"demo","default_branch":"main"}`))
	})
	mux.HandleFunc("/repos/octo/demo/git/trees/main", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]any{
			"sha": "root",
			"tree": []map[string]any{
				{"path": "README.md", "type": "blob", "sha": "sha-readme", "size": 6},
				{"path": "src", "type": "tree", "sha": "sha-src"},
				{"path": "src/app.js", "type": "blob", "sha": "sha-app", "size": 11},
				{"path": "node_modules", "type": "tree", "sha": "sha-modules"},
				{"path": "node_modules/dep.js", "type": "blob", "sha": "sha-dep", "size": 3},
			},
		})
	})
	blobs := map[string]string{"sha-readme": "Remote", "sha-app": "console.log(1)\n"}
	mux.HandleFunc("/repos/octo/demo/git/blobs/", func(writer http.ResponseWriter, request *http.Request) {
		content, exists := blobs[strings.TrimPrefix(request.URL.Path, "/repos/octo/demo/git/blobs/")]
		if !exists {
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = writer.Write([]byte(content))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	results, runError := pipeline.NewRunner(nil, nil).Run(context.Background(), pipeline.Options{
		Input:           "github.com/octo/demo",
		GitHubToken:     "token",
		GitHubBaseURL:   server.URL,
		OutputDirectory: t.TempDir(),
	})
	require.NoError(t, runError)
	require.Len(t, results, 1)

	expected := "README:\nRemote\n\n" +
		"Repository Structure: demo\n" +
		"src/\n" +
		"  app.js\n\n" +
		"File Contents:\n\n" +
		"File: src/app.js\n" +
		"Content:\n" +
		"console.log(1)\n\n"
	assert.Equal(t, expected, results[0].Text)
}
