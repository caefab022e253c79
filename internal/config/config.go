package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
	BackendRedis     = "redis"
	BackendPathstore = "pathstore"
)

type Config struct {
	Port     string
	LogLevel string

	// Optional bearer token for /api routes.
	APIKey string

	// Document store
	StoreBackend    string
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	PathstoreURL    string
	PathstoreAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// Upload and parse limits
	MaxUploadBytes  int64
	MaxPages        int
	MaxLinesPerPage int

	// Ranking
	RankTopSections int
	RankTopExcerpts int

	ListLimit   int
	CORSOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real env vars take precedence.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:     envOr("PORT", "8001"),
		LogLevel: envOr("LOG_LEVEL", "info"),

		APIKey: os.Getenv("API_KEY"),

		StoreBackend:    strings.ToLower(envOr("STORE_BACKEND", BackendMemory)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisAddr:       envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         envInt("REDIS_DB", 0),
		PathstoreURL:    envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),
		JobTTL:       envDuration("JOB_TTL", 1*time.Hour),

		MaxUploadBytes:  envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		MaxPages:        envInt("MAX_PAGES", 500),
		MaxLinesPerPage: envInt("MAX_LINES_PER_PAGE", 2000),

		RankTopSections: envInt("RANK_TOP_SECTIONS", 10),
		RankTopExcerpts: envInt("RANK_TOP_EXCERPTS", 5),

		ListLimit:   envInt("LIST_LIMIT", 100),
		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 500
	}
	if cfg.MaxLinesPerPage <= 0 {
		cfg.MaxLinesPerPage = 2000
	}
	if cfg.RankTopSections <= 0 {
		cfg.RankTopSections = 10
	}
	if cfg.RankTopExcerpts <= 0 {
		cfg.RankTopExcerpts = 5
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 100
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	case BackendPathstore:
		if c.PathstoreURL == "" {
			return fmt.Errorf("PATHSTORE_URL is required for the pathstore store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.RankTopExcerpts > c.RankTopSections {
		return fmt.Errorf("RANK_TOP_EXCERPTS (%d) must not exceed RANK_TOP_SECTIONS (%d)", c.RankTopExcerpts, c.RankTopSections)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
