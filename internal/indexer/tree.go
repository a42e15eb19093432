package indexer

import (
	"context"
	"fmt"
	"path"

	"github.com/dpolishuk/coderead/internal/models"
)

// TreeBuilder materializes the directory chain of file paths.
type TreeBuilder struct {
	store DirectoryStore
}

func NewTreeBuilder(store DirectoryStore) *TreeBuilder {
	return &TreeBuilder{store: store}
}

// Ensure returns the directory at dirPath, creating it and any missing
// ancestors. "" is the root, named after the repository. Calling it again
// for the same path returns the same record.
func (b *TreeBuilder) Ensure(ctx context.Context, repo *models.Repository, dirPath string) (*models.Directory, error) {
	dirPath = cleanDirPath(dirPath)

	existing, ok, err := b.store.FindDirectory(ctx, repo.ID, dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to look up directory %q: %w", dirPath, err)
	}
	if ok {
		return existing, nil
	}

	dir := &models.Directory{
		RepoID: repo.ID,
		Path:   dirPath,
		Name:   repo.Name,
	}
	if dirPath != "" {
		parent, err := b.Ensure(ctx, repo, parentDir(dirPath))
		if err != nil {
			return nil, err
		}
		dir.ParentID = &parent.ID
		dir.Name = path.Base(dirPath)
	}

	created, err := b.store.CreateDirectory(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory %q: %w", dirPath, err)
	}
	return created, nil
}

// DirOf returns the directory part of a slash-separated file path, "" for
// files at the root.
func DirOf(filePath string) string {
	return parentDir(cleanDirPath(filePath))
}

func parentDir(p string) string {
	d := path.Dir(p)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

func cleanDirPath(p string) string {
	if p == "" {
		return ""
	}
	c := path.Clean(p)
	if c == "." || c == "/" {
		return ""
	}
	for len(c) > 0 && c[0] == '/' {
		c = c[1:]
	}
	return c
}
