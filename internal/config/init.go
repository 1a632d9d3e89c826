package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/repoctx/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	defaultConfigurationTemplate = `output:
  directory: outputs
paths:
  exclude: []
  use_gitignore: true
  use_ignore: true
compression:
  level: none
  minimum_lines: 50
  light:
    repeat_threshold: 3
    comment_block_lines: 8
  medium:
    repeat_threshold: 3
    comment_block_lines: 5
    function_body_lines: 15
    import_lines: 8
  heavy:
    repeat_threshold: 2
    comment_block_lines: 3
    function_body_lines: 8
    import_lines: 3
limits:
  max_file_bytes: 524288
  max_file_lines: 10000
  truncate_lines: 1000
document:
  instructions_file: ""
  # summary: true
tokens:
  enabled: false
  model: gpt-4o
workers: 0
copy: false
`
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
	// HomeDirectory overrides the user home directory for the global target.
	HomeDirectory string
}

// InitializeConfiguration writes the default configuration to the requested target.
func InitializeConfiguration(options InitOptions) (string, error) {
	target := options.Target
	if target == "" {
		target = InitTargetLocal
	}
	var destinationPath string
	switch target {
	case InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			current, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", err)
			}
			workingDirectory = current
		}
		destinationPath = filepath.Join(workingDirectory, utils.ConfigFileName)
	case InitTargetGlobal:
		homeDirectory := options.HomeDirectory
		if homeDirectory == "" {
			userHome, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home directory for configuration: %w", err)
			}
			homeDirectory = userHome
		}
		configurationDirectory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
		if err := os.MkdirAll(configurationDirectory, 0o755); err != nil {
			return "", fmt.Errorf("create configuration directory %s: %w", configurationDirectory, err)
		}
		destinationPath = filepath.Join(configurationDirectory, utils.ConfigFileName)
	default:
		return "", fmt.Errorf("unsupported init target %q", target)
	}

	if _, err := os.Stat(destinationPath); err == nil {
		if !options.Force {
			return "", fmt.Errorf("configuration file already exists at %s", destinationPath)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, err)
	}

	template := DefaultConfigurationTemplate()
	var parsed templateDocument
	decoder := yaml.NewDecoder(strings.NewReader(template))
	decoder.KnownFields(true)
	if err := decoder.Decode(&parsed); err != nil {
		return "", fmt.Errorf("validate configuration template: %w", err)
	}

	if err := os.WriteFile(destinationPath, []byte(template), 0o600); err != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, err)
	}

	return destinationPath, nil
}

// templateDocument mirrors the top-level keys of the configuration template.
type templateDocument struct {
	Output      map[string]any `yaml:"output"`
	Paths       map[string]any `yaml:"paths"`
	Compression map[string]any `yaml:"compression"`
	Limits      map[string]any `yaml:"limits"`
	Document    map[string]any `yaml:"document"`
	Tokens      map[string]any `yaml:"tokens"`
	Workers     int            `yaml:"workers"`
	Copy        bool           `yaml:"copy"`
}

// DefaultConfigurationTemplate returns the YAML written by InitializeConfiguration.
func DefaultConfigurationTemplate() string {
	return defaultConfigurationTemplate
}
