package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dpolishuk/coderead/internal/db"
	"github.com/dpolishuk/coderead/internal/git"
	"github.com/dpolishuk/coderead/internal/models"
	"github.com/dpolishuk/coderead/internal/worker"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// Store is the part of the graph store the HTTP API reads and writes.
type Store interface {
	CreateRepository(ctx context.Context, repo *models.Repository) (*models.Repository, error)
	GetRepository(ctx context.Context, id string) (*models.Repository, error)
	ListRepositories(ctx context.Context) ([]*models.Repository, error)
	DeleteRepository(ctx context.Context, id string) error

	GetTree(ctx context.Context, repoID string) (*db.TreeNode, error)
	GetGraph(ctx context.Context, repoID string) (*db.GraphData, error)
	FindDirectory(ctx context.Context, repoID, path string) (*models.Directory, bool, error)
	ListChildDirectories(ctx context.Context, dirID string) ([]*models.Directory, error)
	ListDirectoryFiles(ctx context.Context, dirID string) ([]*models.File, error)
	FindFile(ctx context.Context, repoID, path string) (*models.File, bool, error)
	ListTopLevelUnits(ctx context.Context, fileID string) ([]*models.CodeUnit, error)
	GetCodeUnit(ctx context.Context, id string) (*models.CodeUnit, error)

	CreateJob(ctx context.Context, job *models.AnalysisJob) error
	GetJob(ctx context.Context, id string) (*models.AnalysisJob, error)
	ListJobs(ctx context.Context, repoID string) ([]*models.AnalysisJob, error)
	CancelJob(ctx context.Context, id string) (*models.AnalysisJob, error)
}

// Queue hands analysis jobs to the background workers.
type Queue interface {
	Enqueue(task worker.Task) error
	Revoke(jobID string, terminate bool)
}

type Handler struct {
	store Store
	queue Queue
	now   func() time.Time
}

func NewHandler(store Store, queue Queue) *Handler {
	return &Handler{
		store: store,
		queue: queue,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type DirectoryDetail struct {
	*models.Directory
	Children []*models.Directory `json:"children"`
	Files    []*models.File      `json:"files"`
}

type FileDetail struct {
	*models.File
	CodeUnits []*models.CodeUnit `json:"codeUnits"`
}

// ListRepositories returns all repositories
func (h *Handler) ListRepositories(c fiber.Ctx) error {
	repos, err := h.store.ListRepositories(c.Context())
	if err != nil {
		return internalError(c, err)
	}
	if repos == nil {
		repos = []*models.Repository{}
	}
	return c.JSON(fiber.Map{"repositories": repos, "total": len(repos)})
}

// GetRepository returns a single repository
func (h *Handler) GetRepository(c fiber.Ctx) error {
	repo, err := h.store.GetRepository(c.Context(), c.Params("id"))
	if err != nil {
		return lookupError(c, err, "repository not found")
	}
	return c.JSON(repo)
}

// CreateRepository registers a repository from its GitHub URL
func (h *Handler) CreateRepository(c fiber.Ctx) error {
	var input models.CreateRepositoryInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	owner, name, err := git.ParseRepoURL(input.URL)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	created, err := h.store.CreateRepository(c.Context(), &models.Repository{
		Owner:         owner,
		Name:          name,
		URL:           fmt.Sprintf("https://github.com/%s/%s", owner, name),
		DefaultBranch: "main",
	})
	if errors.Is(err, db.ErrDuplicate) {
		return c.Status(400).JSON(fiber.Map{"error": "repository already registered"})
	}
	if err != nil {
		return internalError(c, err)
	}
	return c.Status(201).JSON(created)
}

// DeleteRepository removes a repository and everything analyzed for it
func (h *Handler) DeleteRepository(c fiber.Ctx) error {
	if err := h.store.DeleteRepository(c.Context(), c.Params("id")); err != nil {
		return lookupError(c, err, "repository not found")
	}
	return c.SendStatus(204)
}

// SyncRepository queues an analysis job for the repository
func (h *Handler) SyncRepository(c fiber.Ctx) error {
	repo, err := h.store.GetRepository(c.Context(), c.Params("id"))
	if err != nil {
		return lookupError(c, err, "repository not found")
	}

	job := models.NewAnalysisJob(uuid.New().String(), repo, h.now())
	if err := h.store.CreateJob(c.Context(), job); err != nil {
		return internalError(c, err)
	}

	if err := h.queue.Enqueue(worker.Task{JobID: job.ID, RepoID: repo.ID}); err != nil {
		log.Printf("Failed to enqueue job %s: %v", job.ID, err)
		if _, cerr := h.store.CancelJob(c.Context(), job.ID); cerr != nil {
			log.Printf("Failed to cancel unqueued job %s: %v", job.ID, cerr)
		}
		return c.Status(503).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(job)
}

// GetRepositoryTree returns the nested directory tree
func (h *Handler) GetRepositoryTree(c fiber.Ctx) error {
	repoID := c.Params("id")
	if _, err := h.store.GetRepository(c.Context(), repoID); err != nil {
		return lookupError(c, err, "repository not found")
	}

	tree, err := h.store.GetTree(c.Context(), repoID)
	if err != nil {
		return internalError(c, err)
	}
	if tree == nil {
		return c.JSON([]*db.TreeNode{})
	}
	return c.JSON([]*db.TreeNode{tree})
}

// GetRepositoryGraph returns the repository as nodes and edges
func (h *Handler) GetRepositoryGraph(c fiber.Ctx) error {
	repoID := c.Params("id")
	if _, err := h.store.GetRepository(c.Context(), repoID); err != nil {
		return lookupError(c, err, "repository not found")
	}

	graph, err := h.store.GetGraph(c.Context(), repoID)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(graph)
}

// GetDirectory returns a directory with its subdirectories and files. An
// empty path addresses the repository root.
func (h *Handler) GetDirectory(c fiber.Ctx) error {
	dir, ok, err := h.store.FindDirectory(c.Context(), c.Params("id"), c.Params("*"))
	if err != nil {
		return internalError(c, err)
	}
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "directory not found"})
	}

	children, err := h.store.ListChildDirectories(c.Context(), dir.ID)
	if err != nil {
		return internalError(c, err)
	}
	files, err := h.store.ListDirectoryFiles(c.Context(), dir.ID)
	if err != nil {
		return internalError(c, err)
	}
	if children == nil {
		children = []*models.Directory{}
	}
	if files == nil {
		files = []*models.File{}
	}
	return c.JSON(DirectoryDetail{Directory: dir, Children: children, Files: files})
}

// GetFile returns a file with its top-level code units
func (h *Handler) GetFile(c fiber.Ctx) error {
	file, ok, err := h.store.FindFile(c.Context(), c.Params("id"), c.Params("*"))
	if err != nil {
		return internalError(c, err)
	}
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "file not found"})
	}

	units, err := h.store.ListTopLevelUnits(c.Context(), file.ID)
	if err != nil {
		return internalError(c, err)
	}
	if units == nil {
		units = []*models.CodeUnit{}
	}
	return c.JSON(FileDetail{File: file, CodeUnits: units})
}

// GetCodeUnit returns a code unit with its direct children
func (h *Handler) GetCodeUnit(c fiber.Ctx) error {
	unit, err := h.store.GetCodeUnit(c.Context(), c.Params("id"))
	if err != nil {
		return lookupError(c, err, "code unit not found")
	}
	if unit.Children == nil {
		unit.Children = []*models.CodeUnit{}
	}
	return c.JSON(unit)
}

// ListJobs returns jobs newest first, optionally for one repository
func (h *Handler) ListJobs(c fiber.Ctx) error {
	jobs, err := h.store.ListJobs(c.Context(), c.Query("repositoryId"))
	if err != nil {
		return internalError(c, err)
	}
	if jobs == nil {
		jobs = []*models.AnalysisJob{}
	}
	return c.JSON(fiber.Map{"jobs": jobs, "total": len(jobs)})
}

// GetJob returns a job and its progress
func (h *Handler) GetJob(c fiber.Ctx) error {
	job, err := h.store.GetJob(c.Context(), c.Params("id"))
	if err != nil {
		return lookupError(c, err, "job not found")
	}
	return c.JSON(job)
}

// CancelJob fails a pending or running job and stops its worker
func (h *Handler) CancelJob(c fiber.Ctx) error {
	job, err := h.store.CancelJob(c.Context(), c.Params("id"))
	if errors.Is(err, models.ErrJobNotCancellable) {
		return c.Status(400).JSON(fiber.Map{"error": "job cannot be cancelled"})
	}
	if err != nil {
		return lookupError(c, err, "job not found")
	}

	h.queue.Revoke(job.ID, true)
	return c.JSON(job)
}

func lookupError(c fiber.Ctx, err error, notFound string) error {
	if errors.Is(err, db.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": notFound})
	}
	return internalError(c, err)
}

func internalError(c fiber.Ctx, err error) error {
	log.Printf("Request %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}
