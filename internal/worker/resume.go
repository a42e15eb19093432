package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dpolishuk/coderead/internal/models"
)

// ErrInterrupted is recorded on jobs that were running when the process
// stopped.
var ErrInterrupted = errors.New("interrupted by server restart")

// JobStore is the job persistence Resume needs.
type JobStore interface {
	ListJobs(ctx context.Context, repoID string) ([]*models.AnalysisJob, error)
	UpdateJob(ctx context.Context, job *models.AnalysisJob) error
}

// Resume re-enqueues jobs left pending by a previous process and fails the
// ones it left running, whose partial work cannot be continued.
func (p *Pool) Resume(ctx context.Context, store JobStore, now time.Time) error {
	jobs, err := store.ListJobs(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	var requeued, failed int
	// Oldest first so that per-repository order is preserved.
	for i := len(jobs) - 1; i >= 0; i-- {
		job := jobs[i]
		switch job.Status {
		case models.JobPending:
			err := p.Enqueue(Task{JobID: job.ID, RepoID: job.RepoID})
			if err == nil {
				requeued++
				continue
			}
			if ferr := job.Fail(err, now); ferr != nil {
				return ferr
			}
		case models.JobRunning:
			if ferr := job.Fail(ErrInterrupted, now); ferr != nil {
				return ferr
			}
		default:
			continue
		}
		if err := store.UpdateJob(ctx, job); err != nil && !errors.Is(err, models.ErrJobTerminal) {
			return fmt.Errorf("failed to update job %s: %w", job.ID, err)
		}
		failed++
	}

	if requeued > 0 || failed > 0 {
		log.Printf("Resumed %d pending jobs, failed %d interrupted jobs", requeued, failed)
	}
	return nil
}
