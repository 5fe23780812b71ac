// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/newsloop/newsloop/agent"
)

// Checkpoint backends.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds everything a run needs from the environment.
type Config struct {
	OpenAIAPIKey  string
	TavilyAPIKey  string
	PioneerAPIKey string
	PioneerModel  string
	RekaAPIKey    string

	PlannerModel string
	AnalystModel string

	MaxSearchIterations int
	MaxVideos           int
	MaxVideosPerTopic   int
	IncludeDomains      []string

	CheckpointBackend string
	SQLitePath        string
	RedisAddr         string
	RedisPassword     string
	PostgresURL       string

	ReportsDir string
	LogLevel   string
}

// Load reads the environment, after loading the .env file if one
// exists. Missing required keys are reported together.
func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		TavilyAPIKey:  os.Getenv("TAVILY_API_KEY"),
		PioneerAPIKey: os.Getenv("PIONEER_API_KEY"),
		PioneerModel:  getenv("PIONEER_ENRICHER_MODEL_ID", "a4888bce-85dc-4f2c-852f-97641cf71915"),
		RekaAPIKey:    os.Getenv("REKA_API_KEY"),

		PlannerModel: os.Getenv("PLANNER_MODEL"),
		AnalystModel: os.Getenv("ANALYST_MODEL"),

		MaxSearchIterations: getenvInt("MAX_SEARCH_ITERATIONS", agent.MaxSearchIterations),
		MaxVideos:           getenvInt("MAX_VIDEOS", agent.DefaultMaxVideos),
		MaxVideosPerTopic:   getenvInt("MAX_VIDEOS_PER_TOPIC", agent.DefaultMaxVideosPerTopic),
		IncludeDomains:      getenvList("INCLUDE_DOMAINS"),

		CheckpointBackend: getenv("CHECKPOINT_BACKEND", BackendNone),
		SQLitePath:        getenv("SQLITE_PATH", "newsloop.db"),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		PostgresURL:       os.Getenv("POSTGRES_URL"),

		ReportsDir: getenv("REPORTS_DIR", "reportes"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
	}

	var missing []string
	if cfg.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if cfg.TavilyAPIKey == "" {
		missing = append(missing, "TAVILY_API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch cfg.CheckpointBackend {
	case BackendNone, BackendMemory, BackendSQLite, BackendRedis, BackendPostgres:
	default:
		return nil, fmt.Errorf("config: unknown checkpoint backend %q", cfg.CheckpointBackend)
	}
	if cfg.CheckpointBackend == BackendPostgres && cfg.PostgresURL == "" {
		return nil, fmt.Errorf("config: POSTGRES_URL is required for the postgres backend")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
