package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	HTTP        HTTPConfig
	AWS         AWSConfig
	Idempotency IdempotencyConfig
	Events      EventsConfig
}

type AppConfig struct {
	Env      string `env:"ENVIRONMENT" env-default:"dev"`
	RunLocal bool   `env:"RUN_LOCAL" env-default:"false"`
}

type HTTPConfig struct {
	Port               string `env:"PORT" env-default:"8080"`
	CORSOrigins        string `env:"CORS_ORIGINS" env-default:"*"`
	MaxUploadMemoryMB  int64  `env:"MAX_UPLOAD_MEMORY_MB" env-default:"8"`
	ShutdownTimeoutSec int    `env:"SHUTDOWN_TIMEOUT_SECONDS" env-default:"10"`
}

type AWSConfig struct {
	Region           string `env:"AWS_REGION" env-default:"us-east-1"`
	EndpointOverride string `env:"AWS_ENDPOINT_OVERRIDE" env-default:""`
	RecordsTable     string `env:"RECORDS_TABLE" env-default:"todo-lists"`
}

// IdempotencyConfig enables replay of create responses when Table is set.
type IdempotencyConfig struct {
	Table    string `env:"IDEMPOTENCY_TABLE" env-default:""`
	TTLHours int    `env:"IDEMPOTENCY_TTL_HOURS" env-default:"48"`
}

// EventsConfig enables record change events when QueueURL is set.
type EventsConfig struct {
	QueueURL         string `env:"EVENTS_QUEUE_URL" env-default:""`
	MetricsNamespace string `env:"METRICS_NAMESPACE" env-default:"TodoList"`
}

// Load reads an optional .env file from the working directory and then the environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if cfg.HTTP.MaxUploadMemoryMB <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_MEMORY_MB must be positive, got %d", cfg.HTTP.MaxUploadMemoryMB)
	}
	if cfg.Idempotency.TTLHours <= 0 {
		return Config{}, fmt.Errorf("IDEMPOTENCY_TTL_HOURS must be positive, got %d", cfg.Idempotency.TTLHours)
	}
	return cfg, nil
}

func (c Config) IsProd() bool { return c.App.Env == "prod" }

func (c HTTPConfig) MaxUploadMemory() int64 { return c.MaxUploadMemoryMB << 20 }

func (c HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

func (c IdempotencyConfig) Enabled() bool { return c.Table != "" }

func (c IdempotencyConfig) TTL() time.Duration { return time.Duration(c.TTLHours) * time.Hour }

func (c EventsConfig) Enabled() bool { return c.QueueURL != "" }
