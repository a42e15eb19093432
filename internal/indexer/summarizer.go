package indexer

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/dpolishuk/coderead/internal/llm"
	"github.com/dpolishuk/coderead/internal/models"
)

// Summarizer produces unit descriptions and file, directory and repository
// summaries. Unit, directory and repository failures leave the value unset.
type Summarizer struct {
	describer llm.Describer
	store     Store
}

func NewSummarizer(describer llm.Describer, store Store) *Summarizer {
	return &Summarizer{describer: describer, store: store}
}

// DescribeUnits sets Description on every unit of the forest that the
// describer can handle.
func (s *Summarizer) DescribeUnits(ctx context.Context, language string, units []*models.CodeUnit) {
	for _, root := range units {
		root.Walk(func(unit, _ *models.CodeUnit) {
			text, err := s.describer.DescribeUnit(ctx, language, unit)
			if err != nil {
				log.Printf("Error describing %s %s: %v", unit.Type, unit.Name, err)
				unit.Description = nil
				return
			}
			unit.Description = models.StringPtr(text)
		})
	}
}

// SummarizeFile summarizes a file from its described top-level units. It
// returns nil without calling the describer when no unit is described.
func (s *Summarizer) SummarizeFile(ctx context.Context, file *models.File, units []*models.CodeUnit) (*string, error) {
	var described []llm.UnitDescription
	for _, u := range units {
		if u.Description == nil || *u.Description == "" {
			continue
		}
		described = append(described, llm.UnitDescription{Type: u.Type, Name: u.Name, Description: *u.Description})
	}
	if len(described) == 0 {
		return nil, nil
	}

	text, err := s.describer.SummarizeFile(ctx, file.Path, file.Language, described)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize file: %w", err)
	}
	return models.StringPtr(text), nil
}

// SummarizeDirectories summarizes every directory of repo deepest first, in
// descending path order, so children are summarized before their parents.
// Directories without summarized content are left untouched.
func (s *Summarizer) SummarizeDirectories(ctx context.Context, repo *models.Repository) error {
	dirs, err := s.store.ListDirectories(ctx, repo.ID)
	if err != nil {
		return fmt.Errorf("failed to list directories: %w", err)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path > dirs[j].Path })

	for _, dir := range dirs {
		files, subdirs, err := s.contents(ctx, dir)
		if err != nil {
			return err
		}
		if len(files) == 0 && len(subdirs) == 0 {
			continue
		}

		label := dir.Path
		if dir.IsRoot() {
			label = repo.Name
		}
		text, err := s.describer.SummarizeDirectory(ctx, label, files, subdirs)
		if err != nil {
			log.Printf("Error summarizing directory %q: %v", dir.Path, err)
			continue
		}
		if err := s.store.UpdateDirectorySummary(ctx, dir.ID, text); err != nil {
			return fmt.Errorf("failed to save directory summary: %w", err)
		}
		dir.Summary = &text
	}
	return nil
}

// SummarizeRepository summarizes repo from the root directory's files and
// child directories. It returns nil when there is nothing to summarize or
// the describer fails.
func (s *Summarizer) SummarizeRepository(ctx context.Context, repo *models.Repository) (*string, error) {
	root, ok, err := s.store.FindDirectory(ctx, repo.ID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load root directory: %w", err)
	}
	if !ok {
		return nil, nil
	}

	files, subdirs, err := s.contents(ctx, root)
	if err != nil {
		return nil, err
	}
	items := files
	for _, d := range subdirs {
		items = append(items, llm.Summary{Name: d.Name + "/", Summary: d.Summary})
	}
	if len(items) == 0 {
		return nil, nil
	}

	text, err := s.describer.SummarizeRepository(ctx, repo.Name, items)
	if err != nil {
		log.Printf("Error summarizing repository %s: %v", repo.FullName(), err)
		return nil, nil
	}
	return models.StringPtr(text), nil
}

// contents returns the summarized direct files and child directories of dir.
func (s *Summarizer) contents(ctx context.Context, dir *models.Directory) ([]llm.Summary, []llm.Summary, error) {
	files, err := s.store.ListDirectoryFiles(ctx, dir.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list files of %q: %w", dir.Path, err)
	}
	children, err := s.store.ListChildDirectories(ctx, dir.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list subdirectories of %q: %w", dir.Path, err)
	}

	var fileSummaries, dirSummaries []llm.Summary
	for _, f := range files {
		if f.Summary != nil && *f.Summary != "" {
			fileSummaries = append(fileSummaries, llm.Summary{Name: f.Name, Summary: *f.Summary})
		}
	}
	for _, d := range children {
		if d.Summary != nil && *d.Summary != "" {
			dirSummaries = append(dirSummaries, llm.Summary{Name: d.Name, Summary: *d.Summary})
		}
	}
	return fileSummaries, dirSummaries, nil
}
