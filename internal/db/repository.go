package db

import (
	"context"
	"fmt"
	"time"

	"github.com/dpolishuk/coderead/internal/models"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CreateRepository registers a repository. It returns ErrDuplicate when
// owner/name is already registered.
func (s *Store) CreateRepository(ctx context.Context, repo *models.Repository) (*models.Repository, error) {
	repo.ID = uuid.New().String()
	now := time.Now().UTC()
	repo.CreatedAt = now
	repo.UpdatedAt = now

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existing, err := tx.Run(ctx, `
			MATCH (r:Repository {owner: $owner, name: $name})
			RETURN r.id AS id
		`, map[string]any{"owner": repo.Owner, "name": repo.Name})
		if err != nil {
			return nil, err
		}
		if existing.Next(ctx) {
			return nil, ErrDuplicate
		}

		query := `
			CREATE (r:Repository {
				id: $id,
				owner: $owner,
				name: $name,
				url: $url,
				defaultBranch: $defaultBranch,
				createdAt: $now,
				updatedAt: $now
			})
		`
		_, err = tx.Run(ctx, query, map[string]any{
			"id":            repo.ID,
			"owner":         repo.Owner,
			"name":          repo.Name,
			"url":           repo.URL,
			"defaultBranch": repo.DefaultBranch,
			"now":           now,
		})
		return nil, err
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	return repo, nil
}

func (s *Store) GetRepository(ctx context.Context, id string) (*models.Repository, error) {
	return s.findRepository(ctx, `MATCH (r:Repository {id: $id}) RETURN r`, map[string]any{"id": id})
}

// FindRepositoryByName looks a repository up by owner and name.
func (s *Store) FindRepositoryByName(ctx context.Context, owner, name string) (*models.Repository, error) {
	return s.findRepository(ctx, `MATCH (r:Repository {owner: $owner, name: $name}) RETURN r`,
		map[string]any{"owner": owner, "name": name})
}

func (s *Store) findRepository(ctx context.Context, query string, params map[string]any) (*models.Repository, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if records.Next(ctx) {
			return toRepository(props(records.Record(), "r")), nil
		}
		return nil, records.Err()
	})

	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("repository: %w", ErrNotFound)
	}
	return result.(*models.Repository), nil
}

func (s *Store) ListRepositories(ctx context.Context) ([]*models.Repository, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, `
			MATCH (r:Repository)
			RETURN r
			ORDER BY r.createdAt DESC
		`, nil)
		if err != nil {
			return nil, err
		}

		repos := []*models.Repository{}
		for records.Next(ctx) {
			repos = append(repos, toRepository(props(records.Record(), "r")))
		}
		return repos, records.Err()
	})

	if err != nil {
		return nil, err
	}
	return result.([]*models.Repository), nil
}

// UpdateRepositoryAnalysis records the revision an analysis reached. A nil
// summary keeps the stored one.
func (s *Store) UpdateRepositoryAnalysis(ctx context.Context, repoID string, summary *string, lastCommitHash string) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (r:Repository {id: $id})
			SET r.lastCommitHash = $lastCommitHash,
			    r.summary = coalesce($summary, r.summary),
			    r.updatedAt = $now
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":             repoID,
			"lastCommitHash": lastCommitHash,
			"summary":        optional(summary),
			"now":            time.Now().UTC(),
		})
		return nil, err
	})
	return err
}

// DeleteRepository removes a repository with its directories, files, code
// units and jobs.
func (s *Store) DeleteRepository(ctx context.Context, id string) error {
	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, `MATCH (r:Repository {id: $id}) RETURN r.id AS id`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !records.Next(ctx) {
			return false, records.Err()
		}

		for _, label := range []string{"CodeUnit", "File", "Directory", "AnalysisJob"} {
			query := "MATCH (n:" + label + " {repoId: $id}) DETACH DELETE n"
			if _, err := tx.Run(ctx, query, map[string]any{"id": id}); err != nil {
				return nil, err
			}
		}
		_, err = tx.Run(ctx, `MATCH (r:Repository {id: $id}) DETACH DELETE r`, map[string]any{"id": id})
		return true, err
	})
	if err != nil {
		return err
	}
	if deleted, _ := result.(bool); !deleted {
		return fmt.Errorf("repository: %w", ErrNotFound)
	}
	return nil
}
