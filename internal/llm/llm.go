package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/dpolishuk/coderead/internal/models"
)

var ErrEmptyResponse = errors.New("llm: empty response from model")

// Request is a single chat completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// UnitDescription is a described code unit fed into a file summary.
type UnitDescription struct {
	Type        models.CodeUnitType
	Name        string
	Description string
}

// Summary is a summarized file or directory fed into a parent summary.
type Summary struct {
	Name    string
	Summary string
}

// Describer is the description capability used by the analysis pipeline.
type Describer interface {
	DescribeUnit(ctx context.Context, language string, unit *models.CodeUnit) (string, error)
	SummarizeFile(ctx context.Context, path, language string, units []UnitDescription) (string, error)
	SummarizeDirectory(ctx context.Context, path string, files, dirs []Summary) (string, error)
	SummarizeRepository(ctx context.Context, name string, items []Summary) (string, error)
}

// Service renders prompts and forwards them to a Generator.
type Service struct {
	gen Generator
}

func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

func (s *Service) DescribeUnit(ctx context.Context, language string, unit *models.CodeUnit) (string, error) {
	return s.generate(ctx, unitRequest(language, unit))
}

func (s *Service) SummarizeFile(ctx context.Context, path, language string, units []UnitDescription) (string, error) {
	return s.generate(ctx, fileRequest(path, language, units))
}

func (s *Service) SummarizeDirectory(ctx context.Context, path string, files, dirs []Summary) (string, error) {
	return s.generate(ctx, directoryRequest(path, files, dirs))
}

func (s *Service) SummarizeRepository(ctx context.Context, name string, items []Summary) (string, error) {
	return s.generate(ctx, repositoryRequest(name, items))
}

func (s *Service) generate(ctx context.Context, req Request) (string, error) {
	text, err := s.gen.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
