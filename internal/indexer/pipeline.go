package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path"
	"time"

	"github.com/dpolishuk/coderead/internal/git"
	"github.com/dpolishuk/coderead/internal/llm"
	"github.com/dpolishuk/coderead/internal/models"
	"github.com/dpolishuk/coderead/pkg/treesitter"
)

// Syncer keeps local working copies in step with their remotes.
type Syncer interface {
	CloneOrPull(ctx context.Context, owner, name, token string) (*git.SyncResult, error)
	AllFiles(owner, name string) ([]string, error)
	ReadFile(owner, name, path string) (string, error)
}

type Options struct {
	// AuthToken is passed to the syncer for private repositories.
	AuthToken      string
	IgnorePatterns []string
	// OnProgress is called after every persisted job update.
	OnProgress func(job *models.AnalysisJob)
}

// Pipeline runs analysis jobs: sync, select, extract, describe, summarize.
type Pipeline struct {
	store      Store
	syncer     Syncer
	extractor  *Extractor
	tree       *TreeBuilder
	summarizer *Summarizer
	filter     *FileFilter
	opts       Options
	now        func() time.Time
}

func NewPipeline(store Store, syncer Syncer, describer llm.Describer, registry *treesitter.Registry, opts Options) (*Pipeline, error) {
	filter, err := NewFileFilter(opts.IgnorePatterns)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		store:      store,
		syncer:     syncer,
		extractor:  NewExtractor(registry),
		tree:       NewTreeBuilder(store),
		summarizer: NewSummarizer(describer, store),
		filter:     filter,
		opts:       opts,
		now:        time.Now,
	}, nil
}

// Run executes the job with the given ID to a terminal state. A job that
// fails is recorded as failed and its error returned. A job cancelled while
// running returns models.ErrJobCancelled and keeps its cancelled record.
func (p *Pipeline) Run(ctx context.Context, jobID string) error {
	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job.Status.IsTerminal() {
		if job.Cancelled() {
			return models.ErrJobCancelled
		}
		return models.ErrJobTerminal
	}

	runErr := p.run(ctx, job)
	if runErr == nil {
		return nil
	}
	if errors.Is(runErr, models.ErrJobCancelled) {
		log.Printf("Job %s cancelled", job.ID)
		return runErr
	}

	// The run context may be the reason for failure; the record must still land.
	saveCtx := context.WithoutCancel(ctx)
	stored, err := p.store.GetJob(saveCtx, jobID)
	if err == nil && stored.Status.IsTerminal() {
		if stored.Cancelled() {
			return models.ErrJobCancelled
		}
		return runErr
	}

	log.Printf("Job %s failed: %v", job.ID, runErr)
	if err := job.Fail(runErr, p.now()); err == nil {
		if err := p.store.UpdateJob(saveCtx, job); err != nil {
			log.Printf("Failed to record failure of job %s: %v", job.ID, err)
		}
		p.notify(job)
	}
	return runErr
}

func (p *Pipeline) run(ctx context.Context, job *models.AnalysisJob) error {
	repo, err := p.store.GetRepository(ctx, job.RepoID)
	if err != nil {
		return fmt.Errorf("failed to load repository: %w", err)
	}

	if err := job.Start(p.now()); err != nil {
		return err
	}
	if err := p.saveJob(ctx, job); err != nil {
		return err
	}

	log.Printf("Syncing %s", repo.FullName())
	synced, err := p.syncer.CloneOrPull(ctx, repo.Owner, repo.Name, p.opts.AuthToken)
	if err != nil {
		return fmt.Errorf("failed to sync repository: %w", err)
	}

	files, err := p.selectFiles(job, repo, synced)
	if err != nil {
		return err
	}
	log.Printf("Analyzing %d files of %s at %s (%s)", len(files), repo.FullName(), synced.Commit, job.JobType)

	job.SetTotalFiles(len(files))
	if err := p.saveJob(ctx, job); err != nil {
		return err
	}

	for i, filePath := range files {
		if err := p.checkCancelled(ctx, job.ID); err != nil {
			return err
		}
		if err := p.processFile(ctx, repo, filePath); err != nil {
			log.Printf("Error processing file %s: %v", filePath, err)
		}
		job.FileProcessed(i+1, len(files))
		if err := p.saveJob(ctx, job); err != nil {
			return err
		}
	}

	if err := p.summarizer.SummarizeDirectories(ctx, repo); err != nil {
		return err
	}
	job.DirectoriesSummarized()
	if err := p.saveJob(ctx, job); err != nil {
		return err
	}

	summary, err := p.summarizer.SummarizeRepository(ctx, repo)
	if err != nil {
		return err
	}
	if err := p.store.UpdateRepositoryAnalysis(ctx, repo.ID, summary, synced.Commit); err != nil {
		return fmt.Errorf("failed to update repository: %w", err)
	}

	if err := job.Complete(p.now()); err != nil {
		return err
	}
	if err := p.saveJob(ctx, job); err != nil {
		return err
	}
	log.Printf("Job %s completed for %s", job.ID, repo.FullName())
	return nil
}

// selectFiles picks the candidate paths of this run. Only an incremental
// job against a repository with a processed revision uses the diff.
func (p *Pipeline) selectFiles(job *models.AnalysisJob, repo *models.Repository, synced *git.SyncResult) ([]string, error) {
	if job.JobType == models.JobIncremental && models.Deref(repo.LastCommitHash) != "" {
		return p.filter.Select(synced.ChangedFiles), nil
	}
	all, err := p.syncer.AllFiles(repo.Owner, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return p.filter.Select(all), nil
}

// processFile brings the stored record of one file in line with the working
// copy. Unchanged content and unsupported languages are skipped.
func (p *Pipeline) processFile(ctx context.Context, repo *models.Repository, filePath string) error {
	content, err := p.syncer.ReadFile(repo.Owner, repo.Name, filePath)
	if errors.Is(err, fs.ErrNotExist) {
		if err := p.store.DeleteFile(ctx, repo.ID, filePath); err != nil {
			return fmt.Errorf("failed to delete removed file: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	dir, err := p.tree.Ensure(ctx, repo, DirOf(filePath))
	if err != nil {
		return err
	}

	hash := git.HashContent(content)
	existing, found, err := p.store.FindFile(ctx, repo.ID, filePath)
	if err != nil {
		return fmt.Errorf("failed to look up file: %w", err)
	}
	if found && existing.ContentHash == hash {
		return nil
	}

	language, _ := models.DetectLanguage(filePath)
	result, ok, err := p.extractor.Extract(ctx, []byte(content), language)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	file := existing
	if !found {
		file = &models.File{
			RepoID: repo.ID,
			Path:   filePath,
			Name:   path.Base(filePath),
		}
	}
	file.DirectoryID = dir.ID
	file.Language = result.Language
	file.ContentHash = hash
	file.LineCount = result.LineCount

	p.summarizer.DescribeUnits(ctx, result.Language, result.Units)
	file.Summary, err = p.summarizer.SummarizeFile(ctx, file, result.Units)
	if err != nil {
		return err
	}

	if err := p.store.SaveFile(ctx, file, result.Units); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

// checkCancelled observes cancellation at file boundaries.
func (p *Pipeline) checkCancelled(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to reload job: %w", err)
	}
	if stored.Status.IsTerminal() {
		return models.ErrJobCancelled
	}
	return nil
}

func (p *Pipeline) saveJob(ctx context.Context, job *models.AnalysisJob) error {
	if err := p.store.UpdateJob(ctx, job); err != nil {
		if errors.Is(err, models.ErrJobTerminal) {
			return models.ErrJobCancelled
		}
		return fmt.Errorf("failed to update job: %w", err)
	}
	p.notify(job)
	return nil
}

func (p *Pipeline) notify(job *models.AnalysisJob) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(job)
	}
}
