// Package pipeline runs a complete analysis: it resolves the input into a repository source,
// builds one document per traversal root and writes the documents to disk.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/repoctx/internal/commands"
	"github.com/temirov/repoctx/internal/compress"
	"github.com/temirov/repoctx/internal/config"
	"github.com/temirov/repoctx/internal/filter"
	"github.com/temirov/repoctx/internal/output"
	"github.com/temirov/repoctx/internal/services/clipboard"
	"github.com/temirov/repoctx/internal/source"
	"github.com/temirov/repoctx/internal/tokenizer"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	goModuleFileName    = "go.mod"
	stemSeparator       = "_"
	parentDirectory     = ".."
	documentSeparator   = "\n"
	outputDirectoryMode = 0o755
	outputFileMode      = 0o644

	errorWrapKindFormat       = "%w: %w"
	errorInstructionsFormat   = "reading instructions %s: %w"
	errorIgnorePatternsFormat = "loading ignore patterns: %w"
	errorTokenizerFormat      = "initializing tokenizer: %w"
	errorSubdirectoryFormat   = "%w: subdirectory %q is outside the repository"
	errorStemCollisionFormat  = "%w: subdirectories %q and %q would both write %s"
	errorTargetFormat         = "analyzing %s: %w"
	errorWriteFormat          = "writing %s: %w"

	infoOpeningRemote   = "fetching repository tree"
	infoDocumentWritten = "document written"
	warningCopyFailed   = "failed to copy document to clipboard"
	warningTokensFailed = "failed to count document tokens"
	logFieldRepository  = "repository"
	logFieldPath        = "path"
	logFieldFiles       = "files"
	logFieldSize        = "size"
	logFieldTokens      = "tokens"
	logFieldModel       = "model"
)

var readmeFileNames = []string{"README.md", "README.txt", "README"}

// Options describes one run. Zero values select the built-in defaults.
type Options struct {
	Input          string
	Subdirectories []string
	SkipTokens     []string

	Level            types.CompressionLevel
	Thresholds       compress.Thresholds
	Limits           commands.ContentLimits
	CompressionDebug bool

	OutputDirectory string
	// OutputStem replaces the repository or subdirectory name in output file names.
	OutputStem string

	InstructionsFile string
	Summary          bool
	CountTokens      bool
	Model            string
	Workers          int
	Copy             bool

	UseGitignore  bool
	UseIgnoreFile bool

	GitHubToken string
	// GitHubBaseURL overrides the GitHub REST endpoint.
	GitHubBaseURL string
}

// DocumentResult describes one written document.
type DocumentResult struct {
	Name       string
	Path       string
	ReportPath string
	Text       string
	Files      int
	Bytes      int
	Tokens     int
	Model      string
}

// Runner executes analyses.
type Runner struct {
	Logger    *zap.Logger
	Clipboard clipboard.Copier
}

// NewRunner constructs a Runner. A nil logger discards log output.
func NewRunner(logger *zap.Logger, copier clipboard.Copier) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Logger: logger, Clipboard: copier}
}

type target struct {
	root string
	name string
	stem string
}

// Run analyzes the input and writes one document per target. With subdirectories the targets
// are the subdirectories of a local input and run concurrently; otherwise the whole source is
// the single target.
func (runner *Runner) Run(ctx context.Context, options Options) ([]DocumentResult, error) {
	location, resolveError := source.Resolve(options.Input, options.Subdirectories)
	if resolveError != nil {
		return nil, resolveError
	}
	repository, openError := runner.openSource(ctx, location, options)
	if openError != nil {
		return nil, openError
	}

	instructions, instructionsError := readInstructions(options.InstructionsFile)
	if instructionsError != nil {
		return nil, instructionsError
	}
	rules, rulesError := runner.buildSkipRules(ctx, repository, location, options)
	if rulesError != nil {
		return nil, rulesError
	}
	targets, targetsError := planTargets(repository.Name(), options)
	if targetsError != nil {
		return nil, targetsError
	}

	var counter tokenizer.Counter
	model := utils.EmptyString
	if options.CountTokens {
		createdCounter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: options.Model})
		if counterError != nil {
			return nil, fmt.Errorf(errorTokenizerFormat, counterError)
		}
		counter = createdCounter
		model = resolvedModel
	}

	analysis := analysis{
		repository:   repository,
		rules:        rules,
		options:      options,
		instructions: instructions,
		compressor:   compress.NewCompressor(options.Thresholds, compress.WithDebug(options.CompressionDebug), compress.WithLogger(runner.Logger)),
		counter:      counter,
		model:        model,
		logger:       runner.Logger,
	}
	results := make([]DocumentResult, len(targets))
	group, groupContext := errgroup.WithContext(ctx)
	for index, current := range targets {
		index, current := index, current
		group.Go(func() error {
			result, analysisError := analysis.run(groupContext, current)
			if analysisError != nil {
				return fmt.Errorf(errorTargetFormat, current.name, analysisError)
			}
			results[index] = result
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}

	for _, result := range results {
		runner.Logger.Info(infoDocumentWritten,
			zap.String(logFieldPath, result.Path),
			zap.Int(logFieldFiles, result.Files),
			zap.String(logFieldSize, utils.FormatFileSize(int64(result.Bytes))),
			zap.Int(logFieldTokens, result.Tokens),
			zap.String(logFieldModel, result.Model),
		)
	}
	if options.Copy {
		runner.copyDocuments(results)
	}
	return results, nil
}

func (runner *Runner) openSource(ctx context.Context, location source.Location, options Options) (source.RepoSource, error) {
	if !location.IsRemote() {
		return source.NewLocalSource(location.LocalPath), nil
	}
	client, clientError := source.NewGitHubClient(options.GitHubToken, options.GitHubBaseURL)
	if clientError != nil {
		return nil, clientError
	}
	runner.Logger.Debug(infoOpeningRemote, zap.String(logFieldRepository, location.Remote.String()))
	return source.OpenGitHubSource(ctx, client, *location.Remote, runner.Logger)
}

// buildSkipRules combines explicit tokens, fixed rules and, for local sources, the patterns of
// every ignore file not inside an already skipped directory.
func (runner *Runner) buildSkipRules(ctx context.Context, repository source.RepoSource, location source.Location, options Options) (filter.SkipRules, error) {
	ruleOptions := filter.Options{SkipTokens: options.SkipTokens}
	if location.IsRemote() || (!options.UseGitignore && !options.UseIgnoreFile) {
		return filter.NewSkipRules(ruleOptions), nil
	}
	baseRules := filter.NewSkipRules(ruleOptions)
	patterns, loadError := config.LoadRepositoryIgnorePatterns(ctx, repository, config.IgnoreOptions{
		UseGitignore:  options.UseGitignore,
		UseIgnoreFile: options.UseIgnoreFile,
		SkipDirectory: func(relativePath string) bool { return baseRules.ShouldSkip(relativePath, true) },
	})
	if loadError != nil {
		return filter.SkipRules{}, fmt.Errorf(errorIgnorePatternsFormat, loadError)
	}
	ruleOptions.IgnorePatterns = patterns.Ignore
	ruleOptions.BinaryPatterns = patterns.Binary
	return filter.NewSkipRules(ruleOptions), nil
}

func planTargets(repositoryName string, options Options) ([]target, error) {
	if len(options.Subdirectories) == 0 {
		stem := repositoryName
		if options.OutputStem != utils.EmptyString {
			stem = options.OutputStem
		}
		return []target{{name: repositoryName, stem: stem}}, nil
	}
	targets := make([]target, 0, len(options.Subdirectories))
	rootsByStem := map[string]string{}
	for _, subdirectory := range utils.DeduplicatePatterns(options.Subdirectories) {
		root := utils.NormalizeSlashPath(path.Clean(utils.NormalizeSlashPath(subdirectory)))
		if root == utils.EmptyString || root == parentDirectory || strings.HasPrefix(root, parentDirectory+"/") {
			return nil, fmt.Errorf(errorSubdirectoryFormat, types.ErrInputResolution, subdirectory)
		}
		flattened := strings.ReplaceAll(root, "/", stemSeparator)
		stem := flattened
		if options.OutputStem != utils.EmptyString {
			stem = options.OutputStem + stemSeparator + flattened
		}
		if previousRoot, taken := rootsByStem[stem]; taken {
			if previousRoot == root {
				continue
			}
			return nil, fmt.Errorf(errorStemCollisionFormat, types.ErrInputResolution, previousRoot, root, stem+utils.AnalysisFileSuffix)
		}
		rootsByStem[stem] = root
		targets = append(targets, target{root: root, name: path.Base(root), stem: stem})
	}
	return targets, nil
}

func readInstructions(instructionsFile string) (string, error) {
	if strings.TrimSpace(instructionsFile) == utils.EmptyString {
		return utils.EmptyString, nil
	}
	content, readError := os.ReadFile(instructionsFile)
	if readError != nil {
		return utils.EmptyString, fmt.Errorf(errorInstructionsFormat, instructionsFile, readError)
	}
	return string(content), nil
}

func (runner *Runner) copyDocuments(results []DocumentResult) {
	if runner.Clipboard == nil {
		return
	}
	texts := make([]string, 0, len(results))
	for _, result := range results {
		texts = append(texts, result.Text)
	}
	if copyError := runner.Clipboard.Copy(strings.Join(texts, documentSeparator)); copyError != nil {
		runner.Logger.Warn(warningCopyFailed, zap.Error(copyError))
	}
}

// analysis holds what every target of one run shares. It is read-only once built.
type analysis struct {
	repository   source.RepoSource
	rules        filter.SkipRules
	options      Options
	instructions string
	compressor   *compress.Compressor
	counter      tokenizer.Counter
	model        string
	logger       *zap.Logger
}

func (analysis analysis) run(ctx context.Context, current target) (DocumentResult, error) {
	treeBuilder := commands.TreeBuilder{Source: analysis.repository, Filter: analysis.rules, Root: current.root, Logger: analysis.logger}
	tree, buildError := treeBuilder.Build(ctx)
	if buildError != nil {
		return DocumentResult{}, buildError
	}
	tree.Name = current.name

	collector := commands.ContentCollector{
		Source:       analysis.repository,
		Filter:       analysis.rules,
		Compressor:   analysis.compressor,
		Level:        analysis.options.Level,
		Limits:       analysis.options.Limits,
		Workers:      analysis.options.Workers,
		TokenCounter: analysis.counter,
		Debug:        analysis.options.CompressionDebug,
		Logger:       analysis.logger,
	}
	chunks, collectError := collector.Collect(ctx, tree.Entries)
	if collectError != nil {
		return DocumentResult{}, collectError
	}

	document := output.Document{
		Instructions: analysis.instructions,
		Name:         tree.Name,
		Readme:       analysis.readReadme(ctx, current.root),
		Tree:         tree.Rendered,
		Chunks:       chunks,
		Debug:        analysis.options.CompressionDebug,
	}
	if analysis.options.Summary {
		goModule, _ := analysis.repository.ReadFile(ctx, utils.JoinSlashPath(current.root, goModuleFileName))
		document.Summary = output.Summarize(chunks, goModule).Render()
	}
	text := output.Assemble(document)
	content := []byte(text)

	result := DocumentResult{Name: tree.Name, Text: text, Files: len(chunks), Bytes: len(content), Model: analysis.model}
	if analysis.counter != nil {
		counted, countError := tokenizer.CountBytes(analysis.counter, content)
		if countError != nil {
			analysis.logger.Warn(warningTokensFailed, zap.Error(countError))
		} else {
			result.Tokens = counted.Tokens
		}
	}

	outputDirectory := analysis.options.OutputDirectory
	if outputDirectory == utils.EmptyString {
		outputDirectory = utils.DefaultOutputDirectory
	}
	result.Path = filepath.Join(outputDirectory, current.stem+utils.AnalysisFileSuffix)
	if writeError := writeDocument(outputDirectory, result.Path, content); writeError != nil {
		return DocumentResult{}, writeError
	}
	if analysis.options.CompressionDebug {
		result.ReportPath = filepath.Join(outputDirectory, current.stem+utils.CompressionReportSuffix)
		report := output.BuildCompressionReport(tree.Name, analysis.options.Level, chunks)
		if reportError := writeReport(result.ReportPath, report); reportError != nil {
			return DocumentResult{}, reportError
		}
	}
	return result, nil
}

// readReadme returns the first README variant found at root, or an empty string.
func (analysis analysis) readReadme(ctx context.Context, root string) string {
	for _, readmeName := range readmeFileNames {
		content, readError := analysis.repository.ReadFile(ctx, utils.JoinSlashPath(root, readmeName))
		if readError != nil {
			continue
		}
		if text, decoded := utils.DecodeText(content); decoded {
			return text
		}
	}
	return utils.EmptyString
}

func writeDocument(outputDirectory string, documentPath string, content []byte) error {
	if mkdirError := os.MkdirAll(outputDirectory, outputDirectoryMode); mkdirError != nil {
		return fmt.Errorf(errorWrapKindFormat, types.ErrOutputWrite, fmt.Errorf(errorWriteFormat, outputDirectory, mkdirError))
	}
	if writeError := os.WriteFile(documentPath, content, outputFileMode); writeError != nil {
		return fmt.Errorf(errorWrapKindFormat, types.ErrOutputWrite, fmt.Errorf(errorWriteFormat, documentPath, writeError))
	}
	return nil
}

func writeReport(reportPath string, report output.CompressionReport) (resultError error) {
	reportFile, createError := os.Create(reportPath)
	if createError != nil {
		return fmt.Errorf(errorWrapKindFormat, types.ErrOutputWrite, fmt.Errorf(errorWriteFormat, reportPath, createError))
	}
	defer func() {
		if closeError := reportFile.Close(); closeError != nil && resultError == nil {
			resultError = fmt.Errorf(errorWrapKindFormat, types.ErrOutputWrite, closeError)
		}
	}()
	if encodeError := output.WriteCompressionReport(reportFile, report); encodeError != nil {
		return fmt.Errorf(errorWrapKindFormat, types.ErrOutputWrite, encodeError)
	}
	return nil
}

