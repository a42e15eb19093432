package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyValueIsKept(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("IGNORE_PATTERNS", "")

	cfg := Load()
	assert.Equal(t, "", cfg.GitHubToken)
	assert.Empty(t, cfg.IgnorePatterns)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("IGNORE_PATTERNS", "vendor/**, **/*_test.go ,,")
	t.Setenv("LLM_CACHE_SIZE", "lots")

	cfg := Load()
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, []string{"vendor/**", "**/*_test.go"}, cfg.IgnorePatterns)
	assert.Equal(t, 4096, cfg.LLMCacheSize)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,b"))
}
