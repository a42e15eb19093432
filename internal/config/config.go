package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Neo4jURI       string
	Neo4jUser      string
	Neo4jPass      string
	Neo4jDatabase  string
	ReposPath      string
	GitRemoteBase  string
	GitHubToken    string
	LLMProvider    string
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	GeminiKey      string
	GeminiModel    string
	LLMCacheSize   int
	WorkerCount    int
	IgnorePatterns []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("BACKEND_PORT", "8000"),
		Neo4jURI:       getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:      getEnv("NEO4J_USER", "neo4j"),
		Neo4jPass:      getEnv("NEO4J_PASSWORD", "coderead_password"),
		Neo4jDatabase:  getEnv("NEO4J_DATABASE", "neo4j"),
		ReposPath:      getEnv("REPOS_PATH", "./repositories"),
		GitRemoteBase:  getEnv("GIT_REMOTE_BASE", "https://github.com"),
		GitHubToken:    getEnv("GITHUB_TOKEN", ""),
		LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
		OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-5-nano"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMCacheSize:   getEnvInt("LLM_CACHE_SIZE", 4096),
		WorkerCount:    getEnvInt("WORKER_COUNT", 2),
		IgnorePatterns: splitList(getEnv("IGNORE_PATTERNS", "")),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
