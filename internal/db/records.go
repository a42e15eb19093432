package db

import (
	"encoding/json"
	"time"

	"github.com/dpolishuk/coderead/internal/models"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// props is the property map of a node returned under key.
func props(record *neo4j.Record, key string) map[string]any {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return nil
	}
	if node, ok := v.(neo4j.Node); ok {
		return node.Props
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func getString(p map[string]any, key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

func getStringPtr(p map[string]any, key string) *string {
	if s, ok := p[key].(string); ok {
		return &s
	}
	return nil
}

func getInt(p map[string]any, key string) int {
	if n, ok := p[key].(int64); ok {
		return int(n)
	}
	return 0
}

func getIntPtr(p map[string]any, key string) *int {
	if n, ok := p[key].(int64); ok {
		v := int(n)
		return &v
	}
	return nil
}

func getTime(p map[string]any, key string) time.Time {
	if t, ok := p[key].(time.Time); ok {
		return t
	}
	return time.Time{}
}

func getTimePtr(p map[string]any, key string) *time.Time {
	if t, ok := p[key].(time.Time); ok {
		return &t
	}
	return nil
}

func toRepository(p map[string]any) *models.Repository {
	return &models.Repository{
		ID:             getString(p, "id"),
		Owner:          getString(p, "owner"),
		Name:           getString(p, "name"),
		URL:            getString(p, "url"),
		DefaultBranch:  getString(p, "defaultBranch"),
		LastCommitHash: getStringPtr(p, "lastCommitHash"),
		Summary:        getStringPtr(p, "summary"),
		CreatedAt:      getTime(p, "createdAt"),
		UpdatedAt:      getTime(p, "updatedAt"),
	}
}

func toDirectory(p map[string]any) *models.Directory {
	return &models.Directory{
		ID:        getString(p, "id"),
		RepoID:    getString(p, "repoId"),
		ParentID:  getStringPtr(p, "parentId"),
		Path:      getString(p, "path"),
		Name:      getString(p, "name"),
		Summary:   getStringPtr(p, "summary"),
		CreatedAt: getTime(p, "createdAt"),
		UpdatedAt: getTime(p, "updatedAt"),
	}
}

func toFile(p map[string]any) *models.File {
	return &models.File{
		ID:          getString(p, "id"),
		RepoID:      getString(p, "repoId"),
		DirectoryID: getString(p, "directoryId"),
		Path:        getString(p, "path"),
		Name:        getString(p, "name"),
		Language:    getString(p, "language"),
		ContentHash: getString(p, "contentHash"),
		LineCount:   getInt(p, "lineCount"),
		Summary:     getStringPtr(p, "summary"),
		CreatedAt:   getTime(p, "createdAt"),
		UpdatedAt:   getTime(p, "updatedAt"),
	}
}

func toCodeUnit(p map[string]any) *models.CodeUnit {
	unit := &models.CodeUnit{
		ID:          getString(p, "id"),
		FileID:      getString(p, "fileId"),
		ParentID:    getStringPtr(p, "parentId"),
		Type:        models.CodeUnitType(getString(p, "type")),
		Name:        getString(p, "name"),
		StartLine:   getInt(p, "startLine"),
		EndLine:     getInt(p, "endLine"),
		Signature:   getString(p, "signature"),
		Description: getStringPtr(p, "description"),
		Metadata:    map[string]any{},
		CreatedAt:   getTime(p, "createdAt"),
		UpdatedAt:   getTime(p, "updatedAt"),
	}
	if raw := getString(p, "metadata"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &unit.Metadata)
	}
	return unit
}

func toJob(p map[string]any) *models.AnalysisJob {
	return &models.AnalysisJob{
		ID:             getString(p, "id"),
		RepoID:         getString(p, "repoId"),
		Status:         models.JobStatus(getString(p, "status")),
		JobType:        models.JobType(getString(p, "jobType")),
		Progress:       getInt(p, "progress"),
		TotalFiles:     getIntPtr(p, "totalFiles"),
		ProcessedFiles: getInt(p, "processedFiles"),
		ErrorMessage:   getStringPtr(p, "errorMessage"),
		StartedAt:      getTimePtr(p, "startedAt"),
		CompletedAt:    getTimePtr(p, "completedAt"),
		CreatedAt:      getTime(p, "createdAt"),
	}
}

// optional converts nil pointers into Cypher nulls.
func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
