package compress

import (
	"path"
	"regexp"
	"strings"
)

// language describes the lexical conventions the heuristics need for one file type.
type language struct {
	name        string
	lineComment string
	blockStart  string
	blockEnd    string
	docstrings  bool
	// structural enables declaration detection and body reduction.
	structural bool
	// cLike enables signature detection for methods without a declaration keyword.
	cLike bool
	// imports matches a top-level single-line import statement.
	imports *regexp.Regexp
	// importBlock opens a grouped import list closed by a lone ")".
	importBlock string
	// sampled enables sampling of long arrays and objects in data files.
	sampled bool
}

const (
	languageNameGo         = "Go"
	languageNamePython     = "Python"
	languageNameJavaScript = "JavaScript"
	languageNameTypeScript = "TypeScript"
)

var plainText = language{}

var (
	goImportPattern         = regexp.MustCompile(`^import\s+(?:[\w.]+\s+)?"[^"]+"\s*$`)
	pythonImportPattern     = regexp.MustCompile(`^(?:import\s+[^(\\#]+|from\s+\S+\s+import\s+[^(\\#]+)$`)
	javaScriptImportPattern = regexp.MustCompile(`^(?:import\s[^;]*['"][^'"]+['"];?|(?:const|let|var)\s+[\w${}\s,:]+=\s*require\(['"][^'"]+['"]\);?)\s*$`)
)

func (lang language) withImports(pattern *regexp.Regexp, block string) language {
	lang.imports = pattern
	lang.importBlock = block
	return lang
}

var pythonLanguage = language{name: languageNamePython, lineComment: "#", docstrings: true, structural: true, imports: pythonImportPattern}

func slashLanguage(name string, cLike bool) language {
	return language{name: name, lineComment: "//", blockStart: "/*", blockEnd: "*/", structural: true, cLike: cLike}
}

func hashLanguage(name string, structural bool) language {
	return language{name: name, lineComment: "#", structural: structural}
}

func dashLanguage(name string) language {
	return language{name: name, lineComment: "--"}
}

func dataLanguage(name string) language {
	return language{name: name}
}

var languagesByExtension = map[string]language{
	".go":     slashLanguage(languageNameGo, false).withImports(goImportPattern, "import ("),
	".js":     slashLanguage(languageNameJavaScript, true).withImports(javaScriptImportPattern, ""),
	".jsx":    slashLanguage(languageNameJavaScript, true).withImports(javaScriptImportPattern, ""),
	".mjs":    slashLanguage(languageNameJavaScript, true).withImports(javaScriptImportPattern, ""),
	".cjs":    slashLanguage(languageNameJavaScript, true).withImports(javaScriptImportPattern, ""),
	".ts":     slashLanguage(languageNameTypeScript, true).withImports(javaScriptImportPattern, ""),
	".tsx":    slashLanguage(languageNameTypeScript, true).withImports(javaScriptImportPattern, ""),
	".java":   slashLanguage("Java", true),
	".kt":     slashLanguage("Kotlin", true),
	".kts":    slashLanguage("Kotlin", true),
	".scala":  slashLanguage("Scala", true),
	".groovy": slashLanguage("Groovy", true),
	".gradle": slashLanguage("Groovy", true),
	".c":      slashLanguage("C", true),
	".h":      slashLanguage("C", true),
	".cc":     slashLanguage("C++", true),
	".cpp":    slashLanguage("C++", true),
	".cxx":    slashLanguage("C++", true),
	".hpp":    slashLanguage("C++", true),
	".cs":     slashLanguage("C#", true),
	".rs":     slashLanguage("Rust", false),
	".swift":  slashLanguage("Swift", true),
	".dart":   slashLanguage("Dart", true),
	".php":    slashLanguage("PHP", true),
	".proto":  slashLanguage("Protocol Buffers", false),
	".py":     pythonLanguage,
	".pyi":    pythonLanguage,
	".rb":     hashLanguage("Ruby", true),
	".sh":     hashLanguage("Shell", false),
	".bash":   hashLanguage("Shell", false),
	".zsh":    hashLanguage("Shell", false),
	".pl":     hashLanguage("Perl", true),
	".r":      hashLanguage("R", false),
	".ex":     hashLanguage("Elixir", true),
	".exs":    hashLanguage("Elixir", true),
	".jl":     hashLanguage("Julia", true),
	".tf":     {name: "HCL", lineComment: "#", blockStart: "/*", blockEnd: "*/"},
	".hcl":    {name: "HCL", lineComment: "#", blockStart: "/*", blockEnd: "*/"},
	".yaml":   hashLanguage("YAML", false),
	".yml":    hashLanguage("YAML", false),
	".toml":   hashLanguage("TOML", false),
	".ini":    {name: "INI", lineComment: ";"},
	".cfg":    {name: "INI", lineComment: ";"},
	".sql":    dashLanguage("SQL"),
	".lua":    dashLanguage("Lua"),
	".hs":     dashLanguage("Haskell"),
	".css":    {name: "CSS", blockStart: "/*", blockEnd: "*/"},
	".scss":   {name: "SCSS", lineComment: "//", blockStart: "/*", blockEnd: "*/"},
	".less":   {name: "Less", lineComment: "//", blockStart: "/*", blockEnd: "*/"},
	".md":     dataLanguage("Markdown"),
	".rst":    dataLanguage("reStructuredText"),
	".txt":    dataLanguage("Text"),
	".json":   {name: "JSON", sampled: true},
	".xml":    dataLanguage("XML"),
	".html":   dataLanguage("HTML"),
	".htm":    dataLanguage("HTML"),
	".csv":    dataLanguage("CSV"),
}

var languagesByFileName = map[string]language{
	"Makefile":   hashLanguage("Makefile", false),
	"Dockerfile": hashLanguage("Dockerfile", false),
	"go.mod":     slashLanguage("Go Module", false),
}

func languageForPath(filePath string) language {
	baseName := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	if detected, known := languagesByFileName[baseName]; known {
		detected.structural = false
		return detected
	}
	if detected, known := languagesByExtension[strings.ToLower(path.Ext(baseName))]; known {
		return detected
	}
	return plainText
}

// LanguageName returns a human-readable language for the path, or an empty string when unknown.
func LanguageName(filePath string) string {
	return languageForPath(filePath).name
}

// markerPrefix is the comment leader placed before elision markers.
func (lang language) markerPrefix() string {
	if lang.lineComment != "" {
		return lang.lineComment
	}
	return ""
}

func (lang language) isLineComment(trimmed string) bool {
	if lang.lineComment == "" || !strings.HasPrefix(trimmed, lang.lineComment) {
		return false
	}
	if lang.lineComment == "#" && strings.HasPrefix(trimmed, "#!") {
		return false
	}
	return true
}
