package filter

// DefaultIgnoredDirectories lists directory names that never contribute source to a document:
// version-control metadata, dependency caches, virtual environments, build output and editor state.
var DefaultIgnoredDirectories = []string{
	".git",
	".hg",
	".svn",
	"node_modules",
	"bower_components",
	"__pycache__",
	".mypy_cache",
	".pytest_cache",
	".tox",
	"venv",
	".venv",
	"env",
	"build",
	"dist",
	"target",
	".gradle",
	".next",
	".nuxt",
	".idea",
	".vscode",
}

// DefaultIgnoredFiles lists file names excluded from traversal. README and LICENSE variants are
// surfaced through the README section instead of a content section.
var DefaultIgnoredFiles = []string{
	"README.md",
	"README.txt",
	"README",
	"LICENSE",
	"LICENSE.txt",
	"LICENSE.md",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"bun.lockb",
	"poetry.lock",
	"Pipfile.lock",
	"composer.lock",
	".DS_Store",
	"Thumbs.db",
	".gitignore",
	".ignore",
}

// DefaultBinaryExtensions lists extensions whose content is never rendered. Compound
// extensions such as ".tar.gz" and ".min.js" are matched against the end of the name.
var DefaultBinaryExtensions = []string{
	".pyc", ".pyo", ".class", ".jar", ".war", ".o", ".a", ".obj", ".lib",
	".exe", ".dll", ".so", ".dylib", ".bin", ".wasm",
	".zip", ".tar", ".gz", ".tgz", ".tar.gz", ".bz2", ".xz", ".7z", ".rar",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp", ".ico", ".svg", ".psd",
	".woff", ".woff2", ".ttf", ".otf", ".eot",
	".mp3", ".wav", ".ogg", ".flac", ".mp4", ".avi", ".mov", ".wmv", ".mkv", ".webm",
	".sqlite", ".db",
	".min.js", ".min.css",
}
