package models

import (
	"path/filepath"
	"strings"
	"time"
)

type File struct {
	ID          string    `json:"id"`
	RepoID      string    `json:"repositoryId"`
	DirectoryID string    `json:"directoryId"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Language    string    `json:"language"`
	ContentHash string    `json:"contentHash"`
	LineCount   int       `json:"lineCount"`
	Summary     *string   `json:"summary,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Language detection by extension
var LanguageByExtension = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".java": "java",
	".go":   "go",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".kt":   "kotlin",
	".kts":  "kotlin",
}

// DetectLanguage maps a path to a language identifier. The boolean is false
// for extensions outside the table; such files are not processed.
func DetectLanguage(path string) (string, bool) {
	lang, ok := LanguageByExtension[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// lockfiles are never analyzed even when their extension is known.
var lockfiles = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"Cargo.lock":        true,
}

// IsAnalyzable reports whether a repository-relative path is eligible for
// extraction: a detected language, not hidden, not a lockfile.
func IsAnalyzable(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || lockfiles[name] {
		return false
	}
	_, ok := DetectLanguage(path)
	return ok
}
