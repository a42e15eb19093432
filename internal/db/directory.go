package db

import (
	"context"
	"fmt"
	"time"

	"github.com/dpolishuk/coderead/internal/models"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func (s *Store) FindDirectory(ctx context.Context, repoID, path string) (*models.Directory, bool, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, `
			MATCH (d:Directory {repoId: $repoId, path: $path})
			RETURN d
		`, map[string]any{"repoId": repoID, "path": path})
		if err != nil {
			return nil, err
		}
		if records.Next(ctx) {
			return toDirectory(props(records.Record(), "d")), nil
		}
		return nil, records.Err()
	})
	if err != nil {
		return nil, false, err
	}
	if result == nil {
		return nil, false, nil
	}
	return result.(*models.Directory), true, nil
}

// CreateDirectory upserts a directory on (repoId, path) and links it under
// its parent, or under the repository for the root.
func (s *Store) CreateDirectory(ctx context.Context, dir *models.Directory) (*models.Directory, error) {
	now := time.Now().UTC()

	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, `
			MERGE (d:Directory {repoId: $repoId, path: $path})
			ON CREATE SET d.id = $id,
			              d.name = $name,
			              d.parentId = $parentId,
			              d.createdAt = $now,
			              d.updatedAt = $now
			RETURN d
		`, map[string]any{
			"id":       uuid.New().String(),
			"repoId":   dir.RepoID,
			"path":     dir.Path,
			"name":     dir.Name,
			"parentId": optional(dir.ParentID),
			"now":      now,
		})
		if err != nil {
			return nil, err
		}
		record, err := records.Single(ctx)
		if err != nil {
			return nil, err
		}
		stored := toDirectory(props(record, "d"))

		link := `
			MATCH (p:Directory {id: $parentId}), (d:Directory {id: $id})
			MERGE (p)-[:CONTAINS]->(d)
		`
		if stored.ParentID == nil {
			link = `
				MATCH (p:Repository {id: $repoId}), (d:Directory {id: $id})
				MERGE (p)-[:CONTAINS]->(d)
			`
		}
		_, err = tx.Run(ctx, link, map[string]any{
			"id":       stored.ID,
			"repoId":   stored.RepoID,
			"parentId": optional(stored.ParentID),
		})
		return stored, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return result.(*models.Directory), nil
}

func (s *Store) ListDirectories(ctx context.Context, repoID string) ([]*models.Directory, error) {
	return s.listDirectories(ctx, `
		MATCH (d:Directory {repoId: $id})
		RETURN d
		ORDER BY d.path
	`, repoID)
}

func (s *Store) ListChildDirectories(ctx context.Context, dirID string) ([]*models.Directory, error) {
	return s.listDirectories(ctx, `
		MATCH (d:Directory {parentId: $id})
		RETURN d
		ORDER BY d.name
	`, dirID)
}

func (s *Store) listDirectories(ctx context.Context, query, id string) ([]*models.Directory, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		dirs := []*models.Directory{}
		for records.Next(ctx) {
			dirs = append(dirs, toDirectory(props(records.Record(), "d")))
		}
		return dirs, records.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Directory), nil
}

func (s *Store) UpdateDirectorySummary(ctx context.Context, dirID string, summary string) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (d:Directory {id: $id})
			SET d.summary = $summary, d.updatedAt = $now
		`, map[string]any{"id": dirID, "summary": summary, "now": time.Now().UTC()})
		return nil, err
	})
	return err
}
