package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	JWTSecret   string           `json:"jwt_secret"`
	Port        int              `json:"port"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	AI          AIConfig         `json:"ai"`
	EmbedCache  EmbedCacheConfig `json:"embed_cache"`
	Retrieval   RetrievalConfig  `json:"retrieval"`
	Style       StyleConfig      `json:"style"`
	Recorder    RecorderConfig   `json:"recorder"`
	Document    DocumentConfig   `json:"document"`
	FileStore   FileStoreConfig  `json:"file_store"`
	CORSOrigins []string         `json:"cors_origins"`
	RateLimitMS int              `json:"rate_limit_ms"`
	Schedule    ScheduleConfig   `json:"schedule"`
}

type DatabaseConfig struct {
	Driver       string `json:"driver"`
	DSN          string `json:"dsn"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	DBName       string `json:"dbname"`
	SSLMode      string `json:"sslmode"`
	EmbeddingDim int    `json:"embedding_dim"`
}

type AIConfig struct {
	Providers map[string]interface{} `json:"providers"`
	Embed     []ModelRef             `json:"embed"`
	Generate  []ModelRef             `json:"generate"`
	Timeout   int                    `json:"timeout"`
}

type ModelRef struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type EmbedCacheConfig struct {
	LRUSize       int      `json:"lru_size"`
	LRUTTLSeconds int      `json:"lru_ttl_seconds"`
	LRUTaskTypes  []string `json:"lru_task_types"`
	DBEnabled     bool     `json:"db_enabled"`
	MaxAgeDays    int      `json:"max_age_days"`
}

type RetrievalConfig struct {
	Threshold       *float64 `json:"threshold"`
	ExchangeLimit   int      `json:"exchange_limit"`
	DocumentLimit   int      `json:"document_limit"`
	TimeoutSeconds  int      `json:"timeout_seconds"`
	MaxExcerptRunes int      `json:"max_excerpt_runes"`
}

type StyleConfig struct {
	DraftWindow int `json:"draft_window"`
	TopTopics   int `json:"top_topics"`
	TopPhrases  int `json:"top_phrases"`
}

type RecorderConfig struct {
	TimeoutSeconds int `json:"timeout_seconds"`
	MinWords       int `json:"min_words"`
}

type DocumentConfig struct {
	ChunkSize      int   `json:"chunk_size"`
	MaxUploadBytes int64 `json:"max_upload_bytes"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ScheduleConfig struct {
	EmbedCacheCleanup string `json:"embed_cache_cleanup"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.RateLimitMS < 0 {
		return fmt.Errorf("rate_limit_ms must not be negative")
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	switch cfg.Database.Driver {
	case "":
		cfg.Database.Driver = "postgres"
		fallthrough
	case "postgres":
		if cfg.Database.DSN == "" && cfg.Database.Host == "" {
			return fmt.Errorf("database.dsn or database.host is required")
		}
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver must be postgres or memory")
	}
	if cfg.Database.EmbeddingDim == 0 {
		cfg.Database.EmbeddingDim = 768
	}
	if cfg.Database.EmbeddingDim < 0 {
		return fmt.Errorf("database.embedding_dim must be positive")
	}

	if len(cfg.AI.Embed) == 0 {
		return fmt.Errorf("ai.embed requires at least one provider")
	}
	if len(cfg.AI.Generate) == 0 {
		return fmt.Errorf("ai.generate requires at least one provider")
	}
	for _, ref := range append(append([]ModelRef{}, cfg.AI.Embed...), cfg.AI.Generate...) {
		if ref.Provider == "" || ref.Model == "" {
			return fmt.Errorf("ai model entries need provider and model")
		}
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 30
	}

	if cfg.EmbedCache.MaxAgeDays == 0 {
		cfg.EmbedCache.MaxAgeDays = 30
	}
	if cfg.EmbedCache.LRUSize > 0 && cfg.EmbedCache.LRUTTLSeconds == 0 {
		cfg.EmbedCache.LRUTTLSeconds = 600
	}

	if cfg.Retrieval.Threshold == nil {
		def := 0.1
		cfg.Retrieval.Threshold = &def
	}
	if t := *cfg.Retrieval.Threshold; t < 0 || t >= 1 {
		return fmt.Errorf("retrieval.threshold must be in [0,1)")
	}
	if cfg.Retrieval.ExchangeLimit == 0 {
		cfg.Retrieval.ExchangeLimit = 3
	}
	if cfg.Retrieval.DocumentLimit == 0 {
		cfg.Retrieval.DocumentLimit = 2
	}
	if cfg.Retrieval.TimeoutSeconds == 0 {
		cfg.Retrieval.TimeoutSeconds = 5
	}
	if cfg.Retrieval.MaxExcerptRunes == 0 {
		cfg.Retrieval.MaxExcerptRunes = 1000
	}

	if cfg.Style.DraftWindow == 0 {
		cfg.Style.DraftWindow = 200
	}
	if cfg.Recorder.TimeoutSeconds == 0 {
		cfg.Recorder.TimeoutSeconds = 15
	}
	if cfg.Recorder.MinWords == 0 {
		cfg.Recorder.MinWords = 3
	}
	if cfg.Document.ChunkSize == 0 {
		cfg.Document.ChunkSize = 1000
	}
	if cfg.Document.MaxUploadBytes == 0 {
		cfg.Document.MaxUploadBytes = 5 << 20
	}
	if cfg.Schedule.EmbedCacheCleanup == "" {
		cfg.Schedule.EmbedCacheCleanup = "30 3 * * *"
	}

	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	switch cfg.FileStore.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("file_store.type must be local or s3")
	}
	if cfg.FileStore.Data == nil {
		return fmt.Errorf("file_store.data is required")
	}
	return nil
}
