package indexer

import (
	"context"

	"github.com/dpolishuk/coderead/internal/models"
)

// DirectoryStore resolves and creates directory records.
type DirectoryStore interface {
	// FindDirectory looks a directory up by its exact path.
	FindDirectory(ctx context.Context, repoID, path string) (*models.Directory, bool, error)
	// CreateDirectory stores dir, returning the existing record when one with
	// the same (repository, path) already exists.
	CreateDirectory(ctx context.Context, dir *models.Directory) (*models.Directory, error)
}

// Store is the persistence the analysis pipeline runs against.
type Store interface {
	DirectoryStore

	GetRepository(ctx context.Context, id string) (*models.Repository, error)
	UpdateRepositoryAnalysis(ctx context.Context, repoID string, summary *string, lastCommitHash string) error

	GetJob(ctx context.Context, id string) (*models.AnalysisJob, error)
	// UpdateJob persists job. It returns models.ErrJobTerminal without
	// writing when the stored job has already finished.
	UpdateJob(ctx context.Context, job *models.AnalysisJob) error

	FindFile(ctx context.Context, repoID, path string) (*models.File, bool, error)
	// SaveFile upserts file and replaces all of its code units in one
	// transaction.
	SaveFile(ctx context.Context, file *models.File, units []*models.CodeUnit) error
	DeleteFile(ctx context.Context, repoID, path string) error

	ListDirectories(ctx context.Context, repoID string) ([]*models.Directory, error)
	ListDirectoryFiles(ctx context.Context, dirID string) ([]*models.File, error)
	ListChildDirectories(ctx context.Context, dirID string) ([]*models.Directory, error)
	UpdateDirectorySummary(ctx context.Context, dirID string, summary string) error
}
