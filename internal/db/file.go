package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dpolishuk/coderead/internal/models"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func (s *Store) FindFile(ctx context.Context, repoID, path string) (*models.File, bool, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, `
			MATCH (f:File {repoId: $repoId, path: $path})
			RETURN f
		`, map[string]any{"repoId": repoID, "path": path})
		if err != nil {
			return nil, err
		}
		if records.Next(ctx) {
			return toFile(props(records.Record(), "f")), nil
		}
		return nil, records.Err()
	})
	if err != nil {
		return nil, false, err
	}
	if result == nil {
		return nil, false, nil
	}
	return result.(*models.File), true, nil
}

// SaveFile upserts file and replaces its code units in a single transaction.
// IDs are assigned to file and units in place.
func (s *Store) SaveFile(ctx context.Context, file *models.File, units []*models.CodeUnit) error {
	now := time.Now().UTC()
	if file.ID == "" {
		file.ID = uuid.New().String()
		file.CreatedAt = now
	}
	file.UpdatedAt = now

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, `
			MERGE (f:File {repoId: $repoId, path: $path})
			ON CREATE SET f.id = $id, f.createdAt = $now
			SET f.directoryId = $directoryId,
			    f.name = $name,
			    f.language = $language,
			    f.contentHash = $contentHash,
			    f.lineCount = $lineCount,
			    f.summary = $summary,
			    f.updatedAt = $now
			WITH f
			OPTIONAL MATCH (:Directory)-[c:CONTAINS]->(f)
			DELETE c
			WITH DISTINCT f
			MATCH (d:Directory {id: $directoryId})
			MERGE (d)-[:CONTAINS]->(f)
			RETURN f.id AS id
		`, map[string]any{
			"id":          file.ID,
			"repoId":      file.RepoID,
			"path":        file.Path,
			"directoryId": file.DirectoryID,
			"name":        file.Name,
			"language":    file.Language,
			"contentHash": file.ContentHash,
			"lineCount":   file.LineCount,
			"summary":     optional(file.Summary),
			"now":         now,
		})
		if err != nil {
			return nil, err
		}
		record, err := records.Single(ctx)
		if err != nil {
			return nil, err
		}
		id, _ := record.Get("id")
		file.ID, _ = id.(string)

		if _, err := tx.Run(ctx, `
			MATCH (u:CodeUnit {fileId: $fileId})
			DETACH DELETE u
		`, map[string]any{"fileId": file.ID}); err != nil {
			return nil, err
		}

		rows, err := unitRows(file, units, now)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}

		_, err = tx.Run(ctx, `
			UNWIND $units AS row
			CREATE (u:CodeUnit)
			SET u = row
			WITH u
			MATCH (f:File {id: u.fileId})
			OPTIONAL MATCH (p:CodeUnit {id: u.parentId})
			FOREACH (_ IN CASE WHEN p IS NULL THEN [1] ELSE [] END | CREATE (f)-[:DECLARES]->(u))
			FOREACH (_ IN CASE WHEN p IS NULL THEN [] ELSE [1] END | CREATE (p)-[:ENCLOSES]->(u))
		`, map[string]any{"units": rows})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to save file %s: %w", file.Path, err)
	}
	return nil
}

// unitRows flattens the unit forest parents first, assigning IDs.
func unitRows(file *models.File, units []*models.CodeUnit, now time.Time) ([]map[string]any, error) {
	var rows []map[string]any
	var err error
	for _, root := range units {
		root.Walk(func(unit, parent *models.CodeUnit) {
			unit.ID = uuid.New().String()
			unit.FileID = file.ID
			unit.ParentID = nil
			if parent != nil {
				unit.ParentID = &parent.ID
			}
			unit.CreatedAt = now
			unit.UpdatedAt = now

			if unit.Metadata == nil {
				unit.Metadata = map[string]any{}
			}
			metadata, mErr := json.Marshal(unit.Metadata)
			if mErr != nil && err == nil {
				err = mErr
			}
			rows = append(rows, map[string]any{
				"id":          unit.ID,
				"repoId":      file.RepoID,
				"fileId":      unit.FileID,
				"parentId":    optional(unit.ParentID),
				"type":        string(unit.Type),
				"name":        unit.Name,
				"startLine":   unit.StartLine,
				"endLine":     unit.EndLine,
				"signature":   unit.Signature,
				"description": optional(unit.Description),
				"metadata":    string(metadata),
				"createdAt":   now,
				"updatedAt":   now,
			})
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode unit metadata: %w", err)
	}
	return rows, nil
}

// DeleteFile removes a file and its code units. Missing files are ignored.
func (s *Store) DeleteFile(ctx context.Context, repoID, path string) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (f:File {repoId: $repoId, path: $path})
			OPTIONAL MATCH (u:CodeUnit {fileId: f.id})
			DETACH DELETE u, f
		`, map[string]any{"repoId": repoID, "path": path})
		return nil, err
	})
	return err
}

func (s *Store) ListDirectoryFiles(ctx context.Context, dirID string) ([]*models.File, error) {
	return s.listFiles(ctx, `
		MATCH (f:File {directoryId: $id})
		RETURN f
		ORDER BY f.name
	`, dirID)
}

// ListRepositoryFiles returns every file of a repository ordered by path.
func (s *Store) ListRepositoryFiles(ctx context.Context, repoID string) ([]*models.File, error) {
	return s.listFiles(ctx, `
		MATCH (f:File {repoId: $id})
		RETURN f
		ORDER BY f.path
	`, repoID)
}

func (s *Store) listFiles(ctx context.Context, query, id string) ([]*models.File, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		files := []*models.File{}
		for records.Next(ctx) {
			files = append(files, toFile(props(records.Record(), "f")))
		}
		return files, records.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.File), nil
}
