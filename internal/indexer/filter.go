package indexer

import (
	"fmt"

	"github.com/dpolishuk/coderead/internal/models"
	"github.com/gobwas/glob"
)

// FileFilter decides which repository paths are analyzed.
type FileFilter struct {
	ignore []glob.Glob
}

// NewFileFilter compiles ignore patterns. Patterns use '/' as separator, so
// "vendor/**" excludes a whole tree and "*.pb.go" only matches at the root.
func NewFileFilter(patterns []string) (*FileFilter, error) {
	f := &FileFilter{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		f.ignore = append(f.ignore, g)
	}
	return f, nil
}

// Accept reports whether path has a detected language, is not a lockfile or
// hidden file, and matches no ignore pattern.
func (f *FileFilter) Accept(path string) bool {
	if !models.IsAnalyzable(path) {
		return false
	}
	for _, g := range f.ignore {
		if g.Match(path) {
			return false
		}
	}
	return true
}

// Select returns the accepted paths in their original order.
func (f *FileFilter) Select(paths []string) []string {
	selected := []string{}
	for _, p := range paths {
		if f.Accept(p) {
			selected = append(selected, p)
		}
	}
	return selected
}
