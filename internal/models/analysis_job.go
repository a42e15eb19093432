package models

import (
	"errors"
	"time"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type JobType string

const (
	JobFull        JobType = "full"
	JobIncremental JobType = "incremental"
)

// CancelledMessage is the error message recorded for user cancellation.
const CancelledMessage = "Cancelled by user"

const (
	fileProgressSpan        = 80
	directoriesDoneProgress = 90
)

var (
	ErrJobTerminal       = errors.New("job is already finished")
	ErrJobNotCancellable = errors.New("job cannot be cancelled")
	ErrJobCancelled      = errors.New("job was cancelled")
)

type AnalysisJob struct {
	ID             string     `json:"id"`
	RepoID         string     `json:"repositoryId"`
	Status         JobStatus  `json:"status"`
	JobType        JobType    `json:"jobType"`
	Progress       int        `json:"progress"`
	TotalFiles     *int       `json:"totalFiles,omitempty"`
	ProcessedFiles int        `json:"processedFiles"`
	ErrorMessage   *string    `json:"errorMessage,omitempty"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// NewAnalysisJob returns a pending job for repo. Incremental jobs are only
// possible once the repository has a processed revision.
func NewAnalysisJob(id string, repo *Repository, now time.Time) *AnalysisJob {
	jobType := JobFull
	if repo.LastCommitHash != nil && *repo.LastCommitHash != "" {
		jobType = JobIncremental
	}
	return &AnalysisJob{
		ID:        id,
		RepoID:    repo.ID,
		Status:    JobPending,
		JobType:   jobType,
		CreatedAt: now,
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Start moves a pending job to running.
func (j *AnalysisJob) Start(now time.Time) error {
	if j.Status.IsTerminal() {
		return ErrJobTerminal
	}
	j.Status = JobRunning
	j.StartedAt = &now
	return nil
}

// SetTotalFiles records how many files the run selected.
func (j *AnalysisJob) SetTotalFiles(n int) {
	j.TotalFiles = &n
}

// FileProcessed records that processed of total files are done. File
// processing spans progress 0 to 80; an empty selection contributes nothing.
func (j *AnalysisJob) FileProcessed(processed, total int) {
	j.ProcessedFiles = processed
	if total > 0 {
		j.raiseProgress(processed * fileProgressSpan / total)
	}
}

// DirectoriesSummarized marks the end of directory summarization.
func (j *AnalysisJob) DirectoriesSummarized() {
	j.raiseProgress(directoriesDoneProgress)
}

// Complete moves a running job to completed with progress 100.
func (j *AnalysisJob) Complete(now time.Time) error {
	if j.Status.IsTerminal() {
		return ErrJobTerminal
	}
	j.Status = JobCompleted
	j.raiseProgress(100)
	j.CompletedAt = &now
	return nil
}

// Fail moves the job to failed with cause as its message.
func (j *AnalysisJob) Fail(cause error, now time.Time) error {
	if j.Status.IsTerminal() {
		return ErrJobTerminal
	}
	msg := cause.Error()
	j.Status = JobFailed
	j.ErrorMessage = &msg
	j.CompletedAt = &now
	return nil
}

// Cancel force-fails a pending or running job.
func (j *AnalysisJob) Cancel(now time.Time) error {
	if j.Status != JobPending && j.Status != JobRunning {
		return ErrJobNotCancellable
	}
	msg := CancelledMessage
	j.Status = JobFailed
	j.ErrorMessage = &msg
	j.CompletedAt = &now
	return nil
}

// Cancelled reports whether the job was stopped by a user.
func (j *AnalysisJob) Cancelled() bool {
	return j.Status == JobFailed && j.ErrorMessage != nil && *j.ErrorMessage == CancelledMessage
}

func (j *AnalysisJob) raiseProgress(p int) {
	if j.Status == JobFailed {
		return
	}
	if p > 100 {
		p = 100
	}
	if p > j.Progress {
		j.Progress = p
	}
}
