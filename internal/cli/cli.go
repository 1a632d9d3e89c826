// Package cli provides the repoctx command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repoctx/internal/config"
	"github.com/temirov/repoctx/internal/pipeline"
	"github.com/temirov/repoctx/internal/services/clipboard"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	rootUse              = utils.ApplicationName + " <github_url_or_local_path> [subdirectory ...]"
	rootShortDescription = "flatten a repository into a single LLM context document"
	rootLongDescription  = `repoctx reads a local directory or a GitHub repository and writes one text
document holding the README, the directory structure and the content of every
source file. Use --compress to shrink file contents, --skip to leave paths out and
subdirectory arguments to write one document per subdirectory.`
	rootUsageExample = `  # Analyze the current directory with medium compression
  repoctx . --compress medium

  # Analyze two subdirectories separately and skip test data and fixtures
  repoctx . internal cmd --skip testdata,fixtures

  # Analyze a GitHub repository at a branch and copy the result
  GITHUB_TOKEN=... repoctx https://github.com/owner/repo/tree/main --copy`

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write the default configuration to ./config.yaml, or to ~/.repoctx/config.yaml with --global.`

	skipFlagName             = "skip"
	skipFlagShorthand        = "s"
	compressFlagName         = "compress"
	compressFlagShorthand    = "c"
	compressionDebugFlagName = "compression-debug"
	outputFlagName           = "output"
	outputFlagShorthand      = "o"
	outputDirectoryFlagName  = "output-dir"
	configFlagName           = "config"
	instructionsFlagName     = "instructions"
	summaryFlagName          = "summary"
	tokensFlagName           = "tokens"
	modelFlagName            = "model"
	workersFlagName          = "workers"
	copyFlagName             = "copy"
	noGitignoreFlagName      = "no-gitignore"
	noIgnoreFlagName         = "no-ignore"
	verboseFlagName          = "verbose"
	verboseFlagShorthand     = "v"
	versionFlagName          = "version"
	globalFlagName           = "global"
	forceFlagName            = "force"

	skipFlagDescription             = "skip paths whose segment equals the token; globs and slash paths are allowed (comma-separated or repeated)"
	compressFlagDescription         = "compression level: none, light, medium or heavy"
	compressionDebugFlagDescription = "list every elision and write a YAML compression report"
	outputFlagDescription           = "output file name stem"
	outputDirectoryFlagDescription  = "directory receiving the documents"
	configFlagDescription           = "configuration file replacing ./config.yaml"
	instructionsFlagDescription     = "file whose content is prepended to the document"
	summaryFlagDescription          = "include the repository summary section"
	tokensFlagDescription           = "count the tokens of each document"
	modelFlagDescription            = "tokenizer model used for token counting"
	workersFlagDescription          = "number of files read concurrently (0 uses every CPU)"
	copyFlagDescription             = "copy the document to the clipboard"
	noGitignoreFlagDescription      = "do not use .gitignore files"
	noIgnoreFlagDescription         = "do not use .ignore files"
	verboseFlagDescription          = "log skipped paths and compression fallbacks"
	versionFlagDescription          = "display application version"
	globalFlagDescription           = "write the global configuration"
	forceFlagDescription            = "overwrite an existing configuration file"

	versionTemplate           = utils.ApplicationName + " version: %s\n"
	configurationWrittenLabel = "configuration written"
	logFieldPath              = "path"
	dotEnvFileName            = ".env"
	warningDotEnvFormat       = "ignoring %s"

	errorMissingInput      = "an input directory or GitHub repository URL is required"
	errorWorkingDirectory  = "unable to determine working directory: %w"
	errorLoadConfiguration = "loading configuration: %w"
)

// environment holds the process state the commands read. Tests replace it.
type environment struct {
	logger           *zap.Logger
	logLevel         zap.AtomicLevel
	copier           clipboard.Copier
	workingDirectory string
	homeDirectory    string
	lookupEnv        func(string) (string, bool)
	gitHubBaseURL    string
}

// Execute runs the repoctx application with the process arguments. SIGINT and SIGTERM cancel
// the run.
func Execute(logger *zap.Logger, logLevel zap.AtomicLevel) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(errorWorkingDirectory, workingDirectoryError)
	}
	rootCommand := createRootCommand(environment{
		logger:           logger,
		logLevel:         logLevel,
		copier:           clipboard.NewSystemClipboard(),
		workingDirectory: workingDirectory,
		lookupEnv:        os.LookupEnv,
	})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root command and its init subcommand.
func createRootCommand(env environment) *cobra.Command {
	var flags rootFlags
	var showVersion bool
	var verbose bool

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				_, writeError := fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return writeError
			}
			if len(arguments) == 0 {
				return errors.New(errorMissingInput)
			}
			if verbose {
				env.logLevel.SetLevel(zap.DebugLevel)
			}
			return runAnalysis(command, env, flags, arguments)
		},
	}

	flagSet := rootCommand.Flags()
	flagSet.StringSliceVarP(&flags.skipTokens, skipFlagName, skipFlagShorthand, nil, skipFlagDescription)
	flagSet.StringVarP(&flags.compress, compressFlagName, compressFlagShorthand, "", compressFlagDescription)
	registerBooleanFlag(flagSet, &flags.compressionDebug, compressionDebugFlagName, false, compressionDebugFlagDescription)
	flagSet.StringVarP(&flags.outputStem, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	flagSet.StringVar(&flags.outputDirectory, outputDirectoryFlagName, utils.DefaultOutputDirectory, outputDirectoryFlagDescription)
	flagSet.StringVar(&flags.configPath, configFlagName, "", configFlagDescription)
	flagSet.StringVar(&flags.instructionsFile, instructionsFlagName, "", instructionsFlagDescription)
	registerBooleanFlag(flagSet, &flags.summary, summaryFlagName, false, summaryFlagDescription)
	registerBooleanFlag(flagSet, &flags.tokens, tokensFlagName, false, tokensFlagDescription)
	flagSet.StringVar(&flags.model, modelFlagName, "", modelFlagDescription)
	flagSet.IntVar(&flags.workers, workersFlagName, 0, workersFlagDescription)
	registerBooleanFlag(flagSet, &flags.copy, copyFlagName, false, copyFlagDescription)
	registerBooleanFlag(flagSet, &flags.noGitignore, noGitignoreFlagName, false, noGitignoreFlagDescription)
	registerBooleanFlag(flagSet, &flags.noIgnore, noIgnoreFlagName, false, noIgnoreFlagDescription)
	flagSet.BoolVarP(&verbose, verboseFlagName, verboseFlagShorthand, false, verboseFlagDescription)
	flagSet.BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.AddCommand(createInitCommand(env))
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func createInitCommand(env environment) *cobra.Command {
	var global bool
	var force bool
	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destination, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: env.workingDirectory,
				HomeDirectory:    env.homeDirectory,
			})
			if initError != nil {
				return initError
			}
			env.logger.Info(configurationWrittenLabel, zap.String(logFieldPath, destination))
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

func runAnalysis(command *cobra.Command, env environment, flags rootFlags, arguments []string) error {
	loadDotEnv(env)
	configuration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: env.workingDirectory,
		ExplicitFilePath: flags.configPath,
		HomeDirectory:    env.homeDirectory,
	})
	if loadError != nil {
		return fmt.Errorf(errorLoadConfiguration, loadError)
	}
	options, resolveError := resolveOptions(command.Flags().Changed, flags, configuration, arguments)
	if resolveError != nil {
		return resolveError
	}
	options.GitHubToken, _ = env.lookupEnv(utils.GitHubTokenEnvironmentVariable)
	options.GitHubBaseURL = env.gitHubBaseURL
	if options.InstructionsFile != "" && !filepath.IsAbs(options.InstructionsFile) {
		options.InstructionsFile = filepath.Join(env.workingDirectory, options.InstructionsFile)
	}
	if !filepath.IsAbs(options.OutputDirectory) {
		options.OutputDirectory = filepath.Join(env.workingDirectory, options.OutputDirectory)
	}

	_, runError := pipeline.NewRunner(env.logger, env.copier).Run(command.Context(), options)
	return runError
}

// loadDotEnv reads .env from the working directory without overriding set variables.
func loadDotEnv(env environment) {
	dotEnvPath := filepath.Join(env.workingDirectory, dotEnvFileName)
	if loadError := godotenv.Load(dotEnvPath); loadError != nil && !errors.Is(loadError, fs.ErrNotExist) {
		env.logger.Warn(fmt.Sprintf(warningDotEnvFormat, dotEnvPath), zap.Error(loadError))
	}
}
