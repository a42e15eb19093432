package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalysisJobType(t *testing.T) {
	now := time.Now()

	fresh := &Repository{ID: "r1"}
	assert.Equal(t, JobFull, NewAnalysisJob("j1", fresh, now).JobType)

	hash := "abc123"
	synced := &Repository{ID: "r1", LastCommitHash: &hash}
	job := NewAnalysisJob("j2", synced, now)
	assert.Equal(t, JobIncremental, job.JobType)
	assert.Equal(t, JobPending, job.Status)
	assert.Equal(t, 0, job.Progress)
}

func TestJobLifecycleProgress(t *testing.T) {
	now := time.Now()
	job := NewAnalysisJob("j1", &Repository{ID: "r1"}, now)

	require.NoError(t, job.Start(now))
	assert.Equal(t, JobRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.SetTotalFiles(4)
	seen := []int{job.Progress}
	for i := 1; i <= 4; i++ {
		job.FileProcessed(i, 4)
		seen = append(seen, job.Progress)
	}
	assert.Equal(t, []int{0, 20, 40, 60, 80}, seen)
	assert.Equal(t, 4, job.ProcessedFiles)

	job.DirectoriesSummarized()
	assert.Equal(t, 90, job.Progress)

	require.NoError(t, job.Complete(now))
	assert.Equal(t, JobCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.CompletedAt)
}

func TestJobProgressNeverDecreases(t *testing.T) {
	job := NewAnalysisJob("j1", &Repository{ID: "r1"}, time.Now())
	require.NoError(t, job.Start(time.Now()))

	job.DirectoriesSummarized()
	job.FileProcessed(1, 10)
	assert.Equal(t, 90, job.Progress)
}

func TestEmptySelectionContributesNoProgress(t *testing.T) {
	job := NewAnalysisJob("j1", &Repository{ID: "r1"}, time.Now())
	require.NoError(t, job.Start(time.Now()))

	job.SetTotalFiles(0)
	job.FileProcessed(0, 0)
	assert.Equal(t, 0, job.Progress)
	require.NotNil(t, job.TotalFiles)
	assert.Equal(t, 0, *job.TotalFiles)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	now := time.Now()

	completed := NewAnalysisJob("j1", &Repository{ID: "r1"}, now)
	require.NoError(t, completed.Start(now))
	require.NoError(t, completed.Complete(now))
	assert.ErrorIs(t, completed.Fail(errors.New("late"), now), ErrJobTerminal)
	assert.ErrorIs(t, completed.Start(now), ErrJobTerminal)
	assert.Equal(t, JobCompleted, completed.Status)

	failed := NewAnalysisJob("j2", &Repository{ID: "r1"}, now)
	require.NoError(t, failed.Start(now))
	require.NoError(t, failed.Fail(errors.New("clone failed"), now))
	assert.Equal(t, "clone failed", *failed.ErrorMessage)
	assert.ErrorIs(t, failed.Complete(now), ErrJobTerminal)
	failed.FileProcessed(5, 5)
	assert.Equal(t, 0, failed.Progress)
	assert.Equal(t, JobFailed, failed.Status)
}

func TestCancel(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		prepare func(j *AnalysisJob)
		wantErr error
	}{
		{"pending", func(j *AnalysisJob) {}, nil},
		{"running", func(j *AnalysisJob) { _ = j.Start(now) }, nil},
		{"completed", func(j *AnalysisJob) { _ = j.Start(now); _ = j.Complete(now) }, ErrJobNotCancellable},
		{"failed", func(j *AnalysisJob) { _ = j.Start(now); _ = j.Fail(errors.New("boom"), now) }, ErrJobNotCancellable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewAnalysisJob("j", &Repository{ID: "r"}, now)
			tt.prepare(job)
			before := job.Status

			err := job.Cancel(now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, job.Status)
				assert.False(t, job.Cancelled())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, JobFailed, job.Status)
			assert.Equal(t, CancelledMessage, *job.ErrorMessage)
			assert.True(t, job.Cancelled())
		})
	}
}
