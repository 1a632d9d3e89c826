package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/repoctx/internal/compress"
	"github.com/temirov/repoctx/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// HomeDirectory overrides the directory holding the global configuration.
	HomeDirectory string
}

// ApplicationConfiguration holds run defaults. Pointer fields distinguish unset values from
// zero values so local files can override global ones selectively.
type ApplicationConfiguration struct {
	Output      OutputConfiguration      `mapstructure:"output"`
	Paths       PathConfiguration        `mapstructure:"paths"`
	Compression CompressionConfiguration `mapstructure:"compression"`
	Limits      LimitConfiguration       `mapstructure:"limits"`
	Document    DocumentConfiguration    `mapstructure:"document"`
	Tokens      TokenConfiguration       `mapstructure:"tokens"`
	Workers     *int                     `mapstructure:"workers"`
	Copy        *bool                    `mapstructure:"copy"`
}

// OutputConfiguration controls where documents are written.
type OutputConfiguration struct {
	Directory string `mapstructure:"directory"`
}

// PathConfiguration configures exclusion rules for traversal.
type PathConfiguration struct {
	Exclude       []string `mapstructure:"exclude"`
	UseGitignore  *bool    `mapstructure:"use_gitignore"`
	UseIgnoreFile *bool    `mapstructure:"use_ignore"`
}

// CompressionConfiguration selects the default level and tunes the heuristics.
type CompressionConfiguration struct {
	Level        string                        `mapstructure:"level"`
	MinimumLines *int                          `mapstructure:"minimum_lines"`
	Light        CompressionLevelConfiguration `mapstructure:"light"`
	Medium       CompressionLevelConfiguration `mapstructure:"medium"`
	Heavy        CompressionLevelConfiguration `mapstructure:"heavy"`
}

// CompressionLevelConfiguration tunes a single compression level.
type CompressionLevelConfiguration struct {
	RepeatThreshold   *int `mapstructure:"repeat_threshold"`
	CommentBlockLines *int `mapstructure:"comment_block_lines"`
	FunctionBodyLines *int `mapstructure:"function_body_lines"`
	ImportLines       *int `mapstructure:"import_lines"`
}

// LimitConfiguration bounds the size of a single file's content.
type LimitConfiguration struct {
	MaxFileBytes  *int64 `mapstructure:"max_file_bytes"`
	MaxFileLines  *int   `mapstructure:"max_file_lines"`
	TruncateLines *int   `mapstructure:"truncate_lines"`
}

// DocumentConfiguration controls optional document sections.
type DocumentConfiguration struct {
	InstructionsFile string `mapstructure:"instructions_file"`
	Summary          *bool  `mapstructure:"summary"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	homeDirectory := options.HomeDirectory
	if homeDirectory == "" {
		if userHome, err := os.UserHomeDir(); err == nil {
			homeDirectory = userHome
		}
	}
	if homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		if options.ExplicitFilePath != "" {
			if _, statErr := os.Stat(localPath); statErr != nil {
				return ApplicationConfiguration{}, fmt.Errorf("configuration file %s: %w", localPath, statErr)
			}
		}
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	merged.Paths.Exclude = utils.DeduplicatePatterns(merged.Paths.Exclude)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Output.Directory != "" {
		result.Output.Directory = override.Output.Directory
	}
	result.Paths = result.Paths.merge(override.Paths)
	result.Compression = result.Compression.merge(override.Compression)
	result.Limits = result.Limits.merge(override.Limits)
	result.Document = result.Document.merge(override.Document)
	result.Tokens = result.Tokens.merge(override.Tokens)
	result.Workers = mergeValue(result.Workers, override.Workers)
	result.Copy = mergeValue(result.Copy, override.Copy)
	return result
}

func (config PathConfiguration) merge(override PathConfiguration) PathConfiguration {
	result := config
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, utils.DeduplicatePatterns(override.Exclude)...)
	}
	result.UseGitignore = mergeValue(result.UseGitignore, override.UseGitignore)
	result.UseIgnoreFile = mergeValue(result.UseIgnoreFile, override.UseIgnoreFile)
	return result
}

func (config CompressionConfiguration) merge(override CompressionConfiguration) CompressionConfiguration {
	result := config
	if override.Level != "" {
		result.Level = override.Level
	}
	result.MinimumLines = mergeValue(result.MinimumLines, override.MinimumLines)
	result.Light = result.Light.merge(override.Light)
	result.Medium = result.Medium.merge(override.Medium)
	result.Heavy = result.Heavy.merge(override.Heavy)
	return result
}

func (config CompressionLevelConfiguration) merge(override CompressionLevelConfiguration) CompressionLevelConfiguration {
	return CompressionLevelConfiguration{
		RepeatThreshold:   mergeValue(config.RepeatThreshold, override.RepeatThreshold),
		CommentBlockLines: mergeValue(config.CommentBlockLines, override.CommentBlockLines),
		FunctionBodyLines: mergeValue(config.FunctionBodyLines, override.FunctionBodyLines),
		ImportLines:       mergeValue(config.ImportLines, override.ImportLines),
	}
}

func (config LimitConfiguration) merge(override LimitConfiguration) LimitConfiguration {
	return LimitConfiguration{
		MaxFileBytes:  mergeValue(config.MaxFileBytes, override.MaxFileBytes),
		MaxFileLines:  mergeValue(config.MaxFileLines, override.MaxFileLines),
		TruncateLines: mergeValue(config.TruncateLines, override.TruncateLines),
	}
}

func (config DocumentConfiguration) merge(override DocumentConfiguration) DocumentConfiguration {
	result := config
	if override.InstructionsFile != "" {
		result.InstructionsFile = override.InstructionsFile
	}
	result.Summary = mergeValue(result.Summary, override.Summary)
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	result.Enabled = mergeValue(result.Enabled, override.Enabled)
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// Thresholds applies the configured overrides to the built-in compression thresholds.
func (config CompressionConfiguration) Thresholds() compress.Thresholds {
	thresholds := compress.DefaultThresholds()
	if config.MinimumLines != nil {
		thresholds.MinimumLines = *config.MinimumLines
	}
	thresholds.Light = config.Light.apply(thresholds.Light)
	thresholds.Medium = config.Medium.apply(thresholds.Medium)
	thresholds.Heavy = config.Heavy.apply(thresholds.Heavy)
	return thresholds
}

func (config CompressionLevelConfiguration) apply(base compress.LevelThresholds) compress.LevelThresholds {
	result := base
	if config.RepeatThreshold != nil {
		result.RepeatThreshold = *config.RepeatThreshold
	}
	if config.CommentBlockLines != nil {
		result.CommentBlockLines = *config.CommentBlockLines
	}
	if config.FunctionBodyLines != nil {
		result.FunctionBodyLines = *config.FunctionBodyLines
	}
	if config.ImportLines != nil {
		result.ImportLines = *config.ImportLines
	}
	return result
}

func mergeValue[T any](current *T, override *T) *T {
	if override == nil {
		return current
	}
	cloned := *override
	return &cloned
}
