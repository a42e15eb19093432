package indexer

import (
	"context"
	"fmt"
	"sync"

	"github.com/dpolishuk/coderead/internal/models"
)

// memStore is an in-memory Store used by the pipeline tests.
type memStore struct {
	mu     sync.Mutex
	nextID int
	repos  map[string]*models.Repository
	jobs   map[string]*models.AnalysisJob
	dirs   map[string]*models.Directory
	files  map[string]*models.File
	units  map[string][]*models.CodeUnit

	saveFileCalls int
}

func newMemStore() *memStore {
	return &memStore{
		repos: map[string]*models.Repository{},
		jobs:  map[string]*models.AnalysisJob{},
		dirs:  map[string]*models.Directory{},
		files: map[string]*models.File{},
		units: map[string][]*models.CodeUnit{},
	}
}

func (s *memStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *memStore) addRepo(repo *models.Repository) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *repo
	s.repos[repo.ID] = &cp
}

func (s *memStore) addJob(job *models.AnalysisJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
}

func (s *memStore) cancelJob(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.jobs[id].Cancel(s.jobs[id].CreatedAt)
}

func (s *memStore) GetRepository(_ context.Context, id string) (*models.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	repo, ok := s.repos[id]
	if !ok {
		return nil, fmt.Errorf("repository %s not found", id)
	}
	cp := *repo
	return &cp, nil
}

func (s *memStore) UpdateRepositoryAnalysis(_ context.Context, repoID string, summary *string, lastCommitHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	repo := s.repos[repoID]
	if summary != nil {
		repo.Summary = summary
	}
	repo.LastCommitHash = &lastCommitHash
	return nil
}

func (s *memStore) GetJob(_ context.Context, id string) (*models.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	cp := *job
	return &cp, nil
}

func (s *memStore) UpdateJob(_ context.Context, job *models.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.jobs[job.ID]; ok && stored.Status.IsTerminal() {
		return models.ErrJobTerminal
	}
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *memStore) FindDirectory(_ context.Context, repoID, path string) (*models.Directory, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.dirs {
		if d.RepoID == repoID && d.Path == path {
			cp := *d
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (s *memStore) CreateDirectory(_ context.Context, dir *models.Directory) (*models.Directory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.dirs {
		if d.RepoID == dir.RepoID && d.Path == dir.Path {
			cp := *d
			return &cp, nil
		}
	}
	cp := *dir
	cp.ID = s.id("dir")
	s.dirs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memStore) FindFile(_ context.Context, repoID, path string) (*models.File, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.fileByPath(repoID, path); f != nil {
		cp := *f
		return &cp, true, nil
	}
	return nil, false, nil
}

func (s *memStore) fileByPath(repoID, path string) *models.File {
	for _, f := range s.files {
		if f.RepoID == repoID && f.Path == path {
			return f
		}
	}
	return nil
}

func (s *memStore) SaveFile(_ context.Context, file *models.File, units []*models.CodeUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveFileCalls++
	if file.ID == "" {
		file.ID = s.id("file")
	}
	cp := *file
	s.files[file.ID] = &cp
	for _, root := range units {
		root.Walk(func(unit, parent *models.CodeUnit) {
			unit.ID = s.id("unit")
			unit.FileID = file.ID
			if parent != nil {
				unit.ParentID = &parent.ID
			}
		})
	}
	s.units[file.ID] = units
	return nil
}

func (s *memStore) DeleteFile(_ context.Context, repoID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.fileByPath(repoID, path); f != nil {
		delete(s.files, f.ID)
		delete(s.units, f.ID)
	}
	return nil
}

func (s *memStore) ListDirectories(_ context.Context, repoID string) ([]*models.Directory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Directory
	for _, d := range s.dirs {
		if d.RepoID == repoID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) ListDirectoryFiles(_ context.Context, dirID string) ([]*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.File
	for _, f := range s.files {
		if f.DirectoryID == dirID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) ListChildDirectories(_ context.Context, dirID string) ([]*models.Directory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Directory
	for _, d := range s.dirs {
		if d.ParentID != nil && *d.ParentID == dirID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) UpdateDirectorySummary(_ context.Context, dirID string, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[dirID].Summary = &summary
	return nil
}

func (s *memStore) dirByPath(repoID, path string) *models.Directory {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.dirs {
		if d.RepoID == repoID && d.Path == path {
			cp := *d
			return &cp
		}
	}
	return nil
}

func (s *memStore) file(repoID, path string) (*models.File, []*models.CodeUnit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.fileByPath(repoID, path)
	if f == nil {
		return nil, nil
	}
	cp := *f
	return &cp, s.units[f.ID]
}
