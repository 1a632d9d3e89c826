package cli

import (
	"strings"

	"github.com/temirov/repoctx/internal/commands"
	"github.com/temirov/repoctx/internal/config"
	"github.com/temirov/repoctx/internal/pipeline"
	"github.com/temirov/repoctx/internal/tokenizer"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

// rootFlags holds the raw values of the root command flags.
type rootFlags struct {
	skipTokens       []string
	compress         string
	compressionDebug bool
	outputStem       string
	outputDirectory  string
	configPath       string
	instructionsFile string
	summary          bool
	tokens           bool
	model            string
	workers          int
	copy             bool
	noGitignore      bool
	noIgnore         bool
}

// resolveOptions combines flags and configuration. A flag the user set wins over
// configuration, which wins over the built-in default. Skip tokens from both sources apply.
func resolveOptions(changed func(string) bool, flags rootFlags, configuration config.ApplicationConfiguration, arguments []string) (pipeline.Options, error) {
	levelText := configuration.Compression.Level
	if changed(compressFlagName) {
		levelText = flags.compress
	}
	level, levelError := types.ParseCompressionLevel(levelText)
	if levelError != nil {
		return pipeline.Options{}, levelError
	}

	options := pipeline.Options{
		Input:            arguments[0],
		Subdirectories:   arguments[1:],
		SkipTokens:       utils.DeduplicatePatterns(append(append([]string(nil), configuration.Paths.Exclude...), flags.skipTokens...)),
		Level:            level,
		Thresholds:       configuration.Compression.Thresholds(),
		Limits:           contentLimits(configuration.Limits),
		CompressionDebug: flags.compressionDebug,
		OutputDirectory:  pickString(changed(outputDirectoryFlagName), flags.outputDirectory, configuration.Output.Directory, utils.DefaultOutputDirectory),
		OutputStem:       strings.TrimSpace(flags.outputStem),
		InstructionsFile: pickString(changed(instructionsFlagName), flags.instructionsFile, configuration.Document.InstructionsFile, utils.EmptyString),
		Summary:          pickBool(changed(summaryFlagName), flags.summary, configuration.Document.Summary, level != types.CompressionNone),
		CountTokens:      pickBool(changed(tokensFlagName), flags.tokens, configuration.Tokens.Enabled, false),
		Model:            pickString(changed(modelFlagName), flags.model, configuration.Tokens.Model, tokenizer.DefaultModel),
		Workers:          pickInt(changed(workersFlagName), flags.workers, configuration.Workers, 0),
		Copy:             pickBool(changed(copyFlagName), flags.copy, configuration.Copy, false),
		UseGitignore:     pickBool(changed(noGitignoreFlagName), !flags.noGitignore, configuration.Paths.UseGitignore, true),
		UseIgnoreFile:    pickBool(changed(noIgnoreFlagName), !flags.noIgnore, configuration.Paths.UseIgnoreFile, true),
	}
	return options, nil
}

func contentLimits(limits config.LimitConfiguration) commands.ContentLimits {
	resolved := commands.DefaultContentLimits()
	if limits.MaxFileBytes != nil && *limits.MaxFileBytes > 0 {
		resolved.MaxFileBytes = *limits.MaxFileBytes
	}
	if limits.MaxFileLines != nil && *limits.MaxFileLines > 0 {
		resolved.MaxFileLines = *limits.MaxFileLines
	}
	if limits.TruncateLines != nil && *limits.TruncateLines > 0 {
		resolved.TruncateLines = *limits.TruncateLines
	}
	return resolved
}

func pickString(flagChanged bool, flagValue string, configured string, fallback string) string {
	if flagChanged {
		return flagValue
	}
	if strings.TrimSpace(configured) != utils.EmptyString {
		return configured
	}
	return fallback
}

func pickBool(flagChanged bool, flagValue bool, configured *bool, fallback bool) bool {
	if flagChanged {
		return flagValue
	}
	if configured != nil {
		return *configured
	}
	return fallback
}

func pickInt(flagChanged bool, flagValue int, configured *int, fallback int) int {
	if flagChanged {
		return flagValue
	}
	if configured != nil {
		return *configured
	}
	return fallback
}
