package llm

import (
	"context"
	"fmt"

	"github.com/dpolishuk/coderead/internal/config"
)

// NewFromConfig builds the configured provider behind the description cache.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Service, error) {
	var gen Generator
	switch cfg.LLMProvider {
	case "openai", "":
		gen = NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.OpenAIModel)
	case "gemini":
		g, err := NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		gen = g
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}

	cached, err := NewCachedGenerator(gen, cfg.LLMCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create description cache: %w", err)
	}
	return NewService(cached), nil
}
