package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
)

var ErrQueueFull = errors.New("job queue is full")

// Runner executes one analysis job to completion.
type Runner interface {
	Run(ctx context.Context, jobID string) error
}

// Task is a queued analysis job.
type Task struct {
	JobID  string
	RepoID string
}

// Pool runs queued jobs on a fixed number of workers. Jobs of the same
// repository never run concurrently; a job whose repository is busy waits in
// that repository's backlog without holding a worker.
type Pool struct {
	runner  Runner
	workers int
	tasks   chan Task

	mu      sync.Mutex
	queued  map[string]bool
	revoked map[string]bool
	running map[string]context.CancelFunc
	busy    map[string]bool
	backlog map[string][]Task
}

func NewPool(runner Runner, workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}
	return &Pool{
		runner:  runner,
		workers: workers,
		tasks:   make(chan Task, queueSize),
		queued:  make(map[string]bool),
		revoked: make(map[string]bool),
		running: make(map[string]context.CancelFunc),
		busy:    make(map[string]bool),
		backlog: make(map[string][]Task),
	}
}

// Enqueue schedules a job without blocking.
func (p *Pool) Enqueue(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case p.tasks <- task:
		p.queued[task.JobID] = true
		return nil
	default:
		return ErrQueueFull
	}
}

// Revoke drops a queued job. With terminate set, a running job has its
// context cancelled as well. Unknown job IDs are ignored.
func (p *Pool) Revoke(jobID string, terminate bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cancel, ok := p.running[jobID]; ok {
		if terminate {
			cancel()
		}
		return
	}
	if !p.queued[jobID] {
		return
	}
	for repoID, waiting := range p.backlog {
		for i, task := range waiting {
			if task.JobID == jobID {
				p.backlog[repoID] = append(waiting[:i:i], waiting[i+1:]...)
				delete(p.queued, jobID)
				return
			}
		}
	}
	p.revoked[jobID] = true
}

// Run starts the workers and blocks until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			p.work(gctx)
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-p.tasks:
			for next, ok := p.claim(task); ok; next, ok = p.release(next) {
				p.execute(ctx, next)
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// claim marks the task's repository busy and returns the task, or parks it
// in the backlog when the repository already has a running job.
func (p *Pool) claim(task Task) (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.takeRevoked(task) {
		return Task{}, false
	}
	if p.busy[task.RepoID] {
		p.backlog[task.RepoID] = append(p.backlog[task.RepoID], task)
		return Task{}, false
	}
	p.busy[task.RepoID] = true
	return task, true
}

// release frees the repository of a finished task and hands back the next
// job from its backlog, keeping the repository busy if there is one.
func (p *Pool) release(done Task) (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for waiting := p.backlog[done.RepoID]; len(waiting) > 0; waiting = p.backlog[done.RepoID] {
		next := waiting[0]
		p.backlog[done.RepoID] = waiting[1:]
		if !p.takeRevoked(next) {
			return next, true
		}
	}
	delete(p.backlog, done.RepoID)
	delete(p.busy, done.RepoID)
	return Task{}, false
}

// takeRevoked consumes a pending revocation for task. Callers hold p.mu.
func (p *Pool) takeRevoked(task Task) bool {
	if !p.revoked[task.JobID] {
		return false
	}
	delete(p.revoked, task.JobID)
	delete(p.queued, task.JobID)
	log.Printf("Skipping revoked job %s", task.JobID)
	return true
}

func (p *Pool) execute(ctx context.Context, task Task) {
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	delete(p.queued, task.JobID)
	p.running[task.JobID] = cancel
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.running, task.JobID)
		p.mu.Unlock()
	}()

	if err := p.runner.Run(jobCtx, task.JobID); err != nil {
		log.Printf("Job %s ended with error: %v", task.JobID, err)
	}
}
