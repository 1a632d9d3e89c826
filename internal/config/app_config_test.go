package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/repoctx/internal/utils"
)

type configTestCase struct {
	name               string
	globalContent      string
	localContent       string
	explicitPath       string
	explicitContent    string
	expectDirectory    string
	expectLevel        string
	expectSummary      *bool
	expectTokens       *bool
	expectModel        string
	expectCopy         *bool
	expectExclude      []string
	expectHeavyBody    *int
	expectMaxFileLines *int
}

func boolPointer(value bool) *bool {
	pointer := value
	return &pointer
}

func intPointer(value int) *int {
	pointer := value
	return &pointer
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []configTestCase{
		{
			name:            "local_overrides_global",
			globalContent:   "output:\n  directory: global-out\ncompression:\n  level: light\ndocument:\n  summary: false\ncopy: true\n",
			localContent:    "compression:\n  level: heavy\n  heavy:\n    function_body_lines: 4\ntokens:\n  enabled: true\n  model: custom\ncopy: false\n",
			expectDirectory: "global-out",
			expectLevel:     "heavy",
			expectSummary:   boolPointer(false),
			expectTokens:    boolPointer(true),
			expectModel:     "custom",
			expectCopy:      boolPointer(false),
			expectHeavyBody: intPointer(4),
		},
		{
			name:               "explicit_path_replaces_local",
			globalContent:      "paths:\n  exclude: [vendor]\n",
			localContent:       "compression:\n  level: medium\n",
			explicitPath:       "custom.yaml",
			explicitContent:    "limits:\n  max_file_lines: 20\npaths:\n  exclude: [dist, dist, docs]\n",
			expectExclude:      []string{"dist", "docs"},
			expectMaxFileLines: intPointer(20),
		},
		{
			name:          "global_only",
			globalContent: "paths:\n  exclude: [vendor]\n",
			expectExclude: []string{"vendor"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDir := t.TempDir()
			workingDir := t.TempDir()
			configDir := filepath.Join(homeDir, utils.GlobalConfigDirectoryName)
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				t.Fatalf("create config dir: %v", err)
			}
			if testCase.globalContent != "" {
				globalPath := filepath.Join(configDir, utils.ConfigFileName)
				if err := os.WriteFile(globalPath, []byte(testCase.globalContent), 0o600); err != nil {
					t.Fatalf("write global config: %v", err)
				}
			}
			if testCase.localContent != "" {
				localPath := filepath.Join(workingDir, utils.ConfigFileName)
				if err := os.WriteFile(localPath, []byte(testCase.localContent), 0o600); err != nil {
					t.Fatalf("write local config: %v", err)
				}
			}
			if testCase.explicitPath != "" {
				target := filepath.Join(workingDir, testCase.explicitPath)
				if err := os.WriteFile(target, []byte(testCase.explicitContent), 0o600); err != nil {
					t.Fatalf("write explicit config: %v", err)
				}
			}

			loadedConfig, err := LoadApplicationConfiguration(LoadOptions{
				WorkingDirectory: workingDir,
				ExplicitFilePath: testCase.explicitPath,
				HomeDirectory:    homeDir,
			})
			if err != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", err)
			}

			if loadedConfig.Output.Directory != testCase.expectDirectory {
				t.Fatalf("expected directory %q, got %q", testCase.expectDirectory, loadedConfig.Output.Directory)
			}
			if loadedConfig.Compression.Level != testCase.expectLevel {
				t.Fatalf("expected level %q, got %q", testCase.expectLevel, loadedConfig.Compression.Level)
			}
			assertBoolPointer(t, "summary", testCase.expectSummary, loadedConfig.Document.Summary)
			assertBoolPointer(t, "tokens", testCase.expectTokens, loadedConfig.Tokens.Enabled)
			assertBoolPointer(t, "copy", testCase.expectCopy, loadedConfig.Copy)
			assertIntPointer(t, "heavy function body", testCase.expectHeavyBody, loadedConfig.Compression.Heavy.FunctionBodyLines)
			assertIntPointer(t, "max file lines", testCase.expectMaxFileLines, loadedConfig.Limits.MaxFileLines)
			if loadedConfig.Tokens.Model != testCase.expectModel {
				t.Fatalf("expected model %q, got %q", testCase.expectModel, loadedConfig.Tokens.Model)
			}
			if len(loadedConfig.Paths.Exclude) != len(testCase.expectExclude) {
				t.Fatalf("expected exclude %v, got %v", testCase.expectExclude, loadedConfig.Paths.Exclude)
			}
			for index, pattern := range testCase.expectExclude {
				if loadedConfig.Paths.Exclude[index] != pattern {
					t.Fatalf("expected exclude %v, got %v", testCase.expectExclude, loadedConfig.Paths.Exclude)
				}
			}
		})
	}
}

func TestLoadApplicationConfigurationRejectsMissingExplicitFile(t *testing.T) {
	_, err := LoadApplicationConfiguration(LoadOptions{
		WorkingDirectory: t.TempDir(),
		ExplicitFilePath: "absent.yaml",
		HomeDirectory:    t.TempDir(),
	})
	if err == nil {
		t.Fatalf("expected an error for a missing explicit configuration file")
	}
}

func TestCompressionConfigurationThresholds(t *testing.T) {
	configuration := CompressionConfiguration{
		MinimumLines: intPointer(10),
		Medium:       CompressionLevelConfiguration{FunctionBodyLines: intPointer(30)},
		Heavy:        CompressionLevelConfiguration{RepeatThreshold: intPointer(1), ImportLines: intPointer(2)},
	}
	thresholds := configuration.Thresholds()
	if thresholds.MinimumLines != 10 {
		t.Fatalf("expected minimum lines 10, got %d", thresholds.MinimumLines)
	}
	if thresholds.Medium.FunctionBodyLines != 30 {
		t.Fatalf("expected medium body lines 30, got %d", thresholds.Medium.FunctionBodyLines)
	}
	if thresholds.Heavy.RepeatThreshold != 1 {
		t.Fatalf("expected heavy repeat threshold 1, got %d", thresholds.Heavy.RepeatThreshold)
	}
	if thresholds.Heavy.ImportLines != 2 {
		t.Fatalf("expected heavy import lines 2, got %d", thresholds.Heavy.ImportLines)
	}
	if thresholds.Medium.ImportLines != 8 {
		t.Fatalf("expected default medium import lines 8, got %d", thresholds.Medium.ImportLines)
	}
	if thresholds.Light.CommentBlockLines != 8 {
		t.Fatalf("expected default light comment block lines, got %d", thresholds.Light.CommentBlockLines)
	}
}

func assertBoolPointer(t *testing.T, label string, expected *bool, actual *bool) {
	t.Helper()
	if expected == nil {
		if actual != nil {
			t.Fatalf("expected no %s override, got %v", label, *actual)
		}
		return
	}
	if actual == nil || *actual != *expected {
		t.Fatalf("unexpected %s value", label)
	}
}

func assertIntPointer(t *testing.T, label string, expected *int, actual *int) {
	t.Helper()
	if expected == nil {
		if actual != nil {
			t.Fatalf("expected no %s override, got %d", label, *actual)
		}
		return
	}
	if actual == nil || *actual != *expected {
		t.Fatalf("unexpected %s value", label)
	}
}
