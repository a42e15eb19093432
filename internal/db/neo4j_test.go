package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dpolishuk/coderead/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}

	cfg := Neo4jConfig{
		URI:      uri,
		Username: getEnvOrDefault("NEO4J_USER", "neo4j"),
		Password: getEnvOrDefault("NEO4J_PASSWORD", "coderead_password"),
		Database: getEnvOrDefault("NEO4J_DATABASE", "neo4j"),
	}

	ctx := context.Background()
	client, err := NewNeo4jClient(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.EnsureSchema(ctx))
	return NewStore(client)
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func createTestRepository(t *testing.T, store *Store) *models.Repository {
	t.Helper()
	ctx := context.Background()
	repo, err := store.CreateRepository(ctx, &models.Repository{
		Owner: "test-" + uuid.New().String()[:8],
		Name:  "hello",
		URL:   "https://github.com/test/hello",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteRepository(context.Background(), repo.ID) })
	return repo
}

func TestNeo4jPing(t *testing.T) {
	store := setupTestStore(t)
	assert.NoError(t, store.client.Ping(context.Background()))
}

func TestRepositoryLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := createTestRepository(t, store)

	_, err := store.CreateRepository(ctx, &models.Repository{Owner: repo.Owner, Name: repo.Name})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := store.GetRepository(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.Owner, got.Owner)
	assert.Nil(t, got.LastCommitHash)

	summary := "A greeting service."
	require.NoError(t, store.UpdateRepositoryAnalysis(ctx, repo.ID, &summary, "abc123"))
	require.NoError(t, store.UpdateRepositoryAnalysis(ctx, repo.ID, nil, "def456"))

	got, err = store.FindRepositoryByName(ctx, repo.Owner, repo.Name)
	require.NoError(t, err)
	assert.Equal(t, "def456", models.Deref(got.LastCommitHash))
	assert.Equal(t, summary, models.Deref(got.Summary))

	_, err = store.GetRepository(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryUpsert(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := createTestRepository(t, store)

	root, err := store.CreateDirectory(ctx, &models.Directory{RepoID: repo.ID, Path: "", Name: repo.Name})
	require.NoError(t, err)
	again, err := store.CreateDirectory(ctx, &models.Directory{RepoID: repo.ID, Path: "", Name: repo.Name})
	require.NoError(t, err)
	assert.Equal(t, root.ID, again.ID)

	src, err := store.CreateDirectory(ctx, &models.Directory{RepoID: repo.ID, Path: "src", Name: "src", ParentID: &root.ID})
	require.NoError(t, err)

	found, ok, err := store.FindDirectory(ctx, repo.ID, "src")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, src.ID, found.ID)
	assert.Equal(t, root.ID, *found.ParentID)

	children, err := store.ListChildDirectories(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)

	require.NoError(t, store.UpdateDirectorySummary(ctx, src.ID, "Sources."))
	found, _, err = store.FindDirectory(ctx, repo.ID, "src")
	require.NoError(t, err)
	assert.Equal(t, "Sources.", models.Deref(found.Summary))
}

func TestSaveFileReplacesUnits(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := createTestRepository(t, store)

	root, err := store.CreateDirectory(ctx, &models.Directory{RepoID: repo.ID, Path: "", Name: repo.Name})
	require.NoError(t, err)

	file := &models.File{RepoID: repo.ID, DirectoryID: root.ID, Path: "calc.py", Name: "calc.py", Language: "python", ContentHash: "h1", LineCount: 9}
	class := &models.CodeUnit{Type: models.UnitClass, Name: "Calculator", StartLine: 1, EndLine: 9, Signature: "class Calculator:",
		Children: []*models.CodeUnit{{Type: models.UnitMethod, Name: "add", StartLine: 2, EndLine: 3, Signature: "def add(self, a, b):", Metadata: map[string]any{"parent_class": "Calculator"}}}}
	require.NoError(t, store.SaveFile(ctx, file, []*models.CodeUnit{class}))

	top, err := store.ListTopLevelUnits(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, top, 1)

	detail, err := store.GetCodeUnit(ctx, top[0].ID)
	require.NoError(t, err)
	require.Len(t, detail.Children, 1)
	assert.Equal(t, "add", detail.Children[0].Name)
	assert.Equal(t, "Calculator", detail.Children[0].Metadata["parent_class"])

	firstID := file.ID
	file.ContentHash = "h2"
	require.NoError(t, store.SaveFile(ctx, file, []*models.CodeUnit{{Type: models.UnitFunction, Name: "main", StartLine: 1, EndLine: 2}}))
	assert.Equal(t, firstID, file.ID)

	top, err = store.ListTopLevelUnits(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "main", top[0].Name)

	_, err = store.GetCodeUnit(ctx, detail.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	tree, err := store.GetTree(ctx, repo.ID)
	require.NoError(t, err)
	require.NotNil(t, tree)
	require.Len(t, tree.Files, 1)
	assert.Equal(t, "h2", tree.Files[0].ContentHash)

	require.NoError(t, store.DeleteFile(ctx, repo.ID, "calc.py"))
	_, ok, err := store.FindFile(ctx, repo.ID, "calc.py")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJobUpdatesAreGuarded(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := createTestRepository(t, store)

	job := models.NewAnalysisJob(uuid.New().String(), repo, time.Now().UTC())
	require.NoError(t, store.CreateJob(ctx, job))

	require.NoError(t, job.Start(time.Now().UTC()))
	job.SetTotalFiles(4)
	job.FileProcessed(1, 4)
	require.NoError(t, store.UpdateJob(ctx, job))

	cancelled, err := store.CancelJob(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.Cancelled())
	assert.Equal(t, 20, cancelled.Progress)

	job.FileProcessed(2, 4)
	assert.ErrorIs(t, store.UpdateJob(ctx, job), models.ErrJobTerminal)

	_, err = store.CancelJob(ctx, job.ID)
	assert.ErrorIs(t, err, models.ErrJobNotCancellable)

	jobs, err := store.ListJobs(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobFailed, jobs[0].Status)
}

func TestDeleteRepositoryCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := createTestRepository(t, store)

	root, err := store.CreateDirectory(ctx, &models.Directory{RepoID: repo.ID, Path: "", Name: repo.Name})
	require.NoError(t, err)
	file := &models.File{RepoID: repo.ID, DirectoryID: root.ID, Path: "a.go", Name: "a.go", Language: "go"}
	require.NoError(t, store.SaveFile(ctx, file, []*models.CodeUnit{{Type: models.UnitFunction, Name: "A"}}))
	require.NoError(t, store.CreateJob(ctx, models.NewAnalysisJob(uuid.New().String(), repo, time.Now().UTC())))

	require.NoError(t, store.DeleteRepository(ctx, repo.ID))

	_, ok, err := store.FindFile(ctx, repo.ID, "a.go")
	require.NoError(t, err)
	assert.False(t, ok)
	dirs, err := store.ListDirectories(ctx, repo.ID)
	require.NoError(t, err)
	assert.Empty(t, dirs)
	jobs, err := store.ListJobs(ctx, repo.ID)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	assert.ErrorIs(t, store.DeleteRepository(ctx, repo.ID), ErrNotFound)
}
