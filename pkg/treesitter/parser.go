package treesitter

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser is a tree-sitter parser bound to one language. A sitter.Parser is
// not safe for concurrent use, so Parse serializes callers.
type Parser struct {
	language string
	mu       sync.Mutex
	parser   *sitter.Parser
}

func (p *Parser) Language() string {
	return p.language
}

func (p *Parser) Parse(ctx context.Context, content []byte) (*sitter.Tree, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, err := p.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return tree, nil
}

// Registry lazily creates one Parser per language and keeps it for the
// lifetime of the process. Lookups are safe for concurrent use; a parser is
// constructed at most once per language.
type Registry struct {
	mu      sync.Mutex
	parsers map[string]*Parser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]*Parser)}
}

// ParserFor returns the parser for language, creating it on first use. The
// boolean is false when no grammar exists for the language.
func (r *Registry) ParserFor(language string) (*Parser, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.parsers[language]; ok {
		return p, true
	}
	grammar, ok := grammars[language]
	if !ok {
		return nil, false
	}
	sp := sitter.NewParser()
	sp.SetLanguage(grammar())
	p := &Parser{language: language, parser: sp}
	r.parsers[language] = p
	return p, true
}

// Close releases every cached parser.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for lang, p := range r.parsers {
		p.mu.Lock()
		p.parser.Close()
		p.mu.Unlock()
		delete(r.parsers, lang)
	}
}
