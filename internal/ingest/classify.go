package ingest

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skipDirs are directory names excluded from the working set entirely:
// version-control metadata, dependency caches, and build output.
var skipDirs = map[string]bool{
	".git":             true,
	".svn":             true,
	".hg":              true,
	"node_modules":     true,
	"vendor":           true,
	"bower_components": true,
	"__pycache__":      true,
	".venv":            true,
	"venv":             true,
	"dist":             true,
	"build":            true,
	"target":           true,
	".idea":            true,
	".vscode":          true,
	".next":            true,
	".cache":           true,
}

// assetBasenames are manifest, lockfile, and build-config names that pass
// through unconverted regardless of extension.
var assetBasenames = map[string]bool{
	"package.json":       true,
	"package-lock.json":  true,
	"yarn.lock":          true,
	"pnpm-lock.yaml":     true,
	"go.mod":             true,
	"go.sum":             true,
	"pom.xml":            true,
	"build.gradle":       true,
	"gradle.lockfile":    true,
	"requirements.txt":   true,
	"Pipfile":            true,
	"poetry.lock":        true,
	"pyproject.toml":     true,
	"Cargo.toml":         true,
	"Cargo.lock":         true,
	"Gemfile":            true,
	"Gemfile.lock":       true,
	"composer.json":      true,
	"composer.lock":      true,
	"Makefile":           true,
	"Dockerfile":         true,
	"docker-compose.yml": true,
	"tsconfig.json":      true,
	".gitignore":         true,
	".env.example":       true,
	"README.md":          true,
	"LICENSE":            true,
}

// binaryExtensions classify files as binary assets by extension alone,
// before any content sniffing.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".svg": true, ".pdf": true, ".zip": true, ".tar": true, ".gz": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true,
	".o": true, ".class": true, ".jar": true, ".wasm": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".mov": true, ".bin": true,
}

// extensionLanguage maps convertible source extensions to language labels.
var extensionLanguage = map[string]string{
	".py":    "Python",
	".java":  "Java",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".mjs":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".go":    "Go",
	".cs":    "C#",
	".cpp":   "C++",
	".cc":    "C++",
	".hpp":   "C++",
	".c":     "C",
	".h":     "C",
	".rs":    "Rust",
	".rb":    "Ruby",
	".php":   "PHP",
	".kt":    "Kotlin",
	".swift": "Swift",
	".html":  "HTML",
	".css":   "CSS",
	".scss":  "SCSS",
	".sql":   "SQL",
	".sh":    "Shell",
}

// IsBinaryContent reports whether data looks binary: a NUL byte within
// the first 512 bytes.
func IsBinaryContent(data []byte) bool {
	n := 512
	if len(data) < n {
		n = len(data)
	}
	for i := 0; i < n; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}

// SkipDir reports whether a directory name is excluded from walks.
func SkipDir(name string) bool {
	return skipDirs[name]
}

// IsAssetName reports whether a basename is a recognized pass-through
// config or lockfile.
func IsAssetName(name string) bool {
	return assetBasenames[name]
}

// IsBinaryExtension reports whether the extension marks a binary asset.
func IsBinaryExtension(path string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(path))]
}

// DetectLanguage returns the language label for a convertible source file,
// or "" when the extension is not recognized.
func DetectLanguage(path string) string {
	return extensionLanguage[strings.ToLower(filepath.Ext(path))]
}

// matchAny reports whether a slash-separated relative path matches any of
// the doublestar patterns.
func matchAny(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}
