package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

const (
	// ApplicationName is the command name used in help output and configuration paths.
	ApplicationName = "repoctx"
	// ConfigFileName is the configuration file looked up in the working directory.
	ConfigFileName = "config.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".repoctx"
	// ApplicationExecutionFailedMessage prefixes fatal errors reported by main.
	ApplicationExecutionFailedMessage = "repoctx failed"
	// LoggerInitializationFailedMessageFormat reports logger construction failures.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// AnalysisFileSuffix is appended to the output stem of every document.
	AnalysisFileSuffix = "_analysis.txt"
	// CompressionReportSuffix is appended to the output stem of the compression debug report.
	CompressionReportSuffix = "_compression.yaml"
	// DefaultOutputDirectory is where documents are written unless configured otherwise.
	DefaultOutputDirectory = "outputs"
	// GitHubTokenEnvironmentVariable holds the credential used for remote repositories.
	GitHubTokenEnvironmentVariable = "GITHUB_TOKEN"
)
