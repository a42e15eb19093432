package db

import (
	"context"
	"fmt"
	"time"

	"github.com/dpolishuk/coderead/internal/models"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func jobParams(job *models.AnalysisJob) map[string]any {
	return map[string]any{
		"id":             job.ID,
		"repoId":         job.RepoID,
		"status":         string(job.Status),
		"jobType":        string(job.JobType),
		"progress":       job.Progress,
		"totalFiles":     optional(job.TotalFiles),
		"processedFiles": job.ProcessedFiles,
		"errorMessage":   optional(job.ErrorMessage),
		"startedAt":      optional(job.StartedAt),
		"completedAt":    optional(job.CompletedAt),
		"createdAt":      job.CreatedAt,
	}
}

func (s *Store) CreateJob(ctx context.Context, job *models.AnalysisJob) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, `
			MATCH (r:Repository {id: $repoId})
			CREATE (j:AnalysisJob {
				id: $id,
				repoId: $repoId,
				status: $status,
				jobType: $jobType,
				progress: $progress,
				totalFiles: $totalFiles,
				processedFiles: $processedFiles,
				errorMessage: $errorMessage,
				startedAt: $startedAt,
				completedAt: $completedAt,
				createdAt: $createdAt
			})
			CREATE (r)-[:HAS_JOB]->(j)
			RETURN j.id AS id
		`, jobParams(job))
		if err != nil {
			return nil, err
		}
		if !records.Next(ctx) {
			if err := records.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("repository: %w", ErrNotFound)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.AnalysisJob, error) {
	jobs, err := s.listJobs(ctx, `MATCH (j:AnalysisJob {id: $id}) RETURN j`, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("job: %w", ErrNotFound)
	}
	return jobs[0], nil
}

// ListJobs returns jobs newest first, restricted to one repository when
// repoID is set.
func (s *Store) ListJobs(ctx context.Context, repoID string) ([]*models.AnalysisJob, error) {
	return s.listJobs(ctx, `
		MATCH (j:AnalysisJob)
		WHERE $repoId = '' OR j.repoId = $repoId
		RETURN j
		ORDER BY j.createdAt DESC
	`, map[string]any{"repoId": repoID})
}

func (s *Store) listJobs(ctx context.Context, query string, params map[string]any) ([]*models.AnalysisJob, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		jobs := []*models.AnalysisJob{}
		for records.Next(ctx) {
			jobs = append(jobs, toJob(props(records.Record(), "j")))
		}
		return jobs, records.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.AnalysisJob), nil
}

// UpdateJob writes job over the stored record unless the stored record is
// already completed or failed, in which case models.ErrJobTerminal is
// returned and nothing is written.
func (s *Store) UpdateJob(ctx context.Context, job *models.AnalysisJob) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, updateJob(ctx, tx, job)
	})
	return err
}

// updateJob touches the node first so its write lock is held before the
// stored status is read.
func updateJob(ctx context.Context, tx neo4j.ManagedTransaction, job *models.AnalysisJob) error {
	records, err := tx.Run(ctx, `
		MATCH (j:AnalysisJob {id: $id})
		SET j._touched = true
		WITH j, j.status IN ['completed', 'failed'] AS finished
		REMOVE j._touched
		WITH j, finished
		FOREACH (_ IN CASE WHEN finished THEN [] ELSE [1] END |
			SET j.status = $status,
			    j.progress = $progress,
			    j.totalFiles = $totalFiles,
			    j.processedFiles = $processedFiles,
			    j.errorMessage = $errorMessage,
			    j.startedAt = $startedAt,
			    j.completedAt = $completedAt
		)
		RETURN finished
	`, jobParams(job))
	if err != nil {
		return err
	}
	if !records.Next(ctx) {
		if err := records.Err(); err != nil {
			return err
		}
		return fmt.Errorf("job: %w", ErrNotFound)
	}
	finished, _ := records.Record().Get("finished")
	if done, _ := finished.(bool); done {
		return models.ErrJobTerminal
	}
	return nil
}

// CancelJob force-fails a pending or running job.
func (s *Store) CancelJob(ctx context.Context, id string) (*models.AnalysisJob, error) {
	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, `
			MATCH (j:AnalysisJob {id: $id})
			SET j._touched = true
			REMOVE j._touched
			RETURN j
		`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !records.Next(ctx) {
			if err := records.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("job: %w", ErrNotFound)
		}

		job := toJob(props(records.Record(), "j"))
		if err := job.Cancel(time.Now().UTC()); err != nil {
			return nil, err
		}
		if err := updateJob(ctx, tx, job); err != nil {
			return nil, err
		}
		return job, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.AnalysisJob), nil
}
