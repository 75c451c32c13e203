package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string     `env:"HTTP_ADDR" envDefault:":5000"`
	LogLevel       slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	DBPath         string     `env:"DB_PATH" envDefault:"data/challenges.db"`
	SeedChallenges bool       `env:"SEED_CHALLENGES" envDefault:"true"`
	ForceSeed      bool       `env:"FORCE_SEED" envDefault:"false"`
	ChallengesFile string     `env:"CHALLENGES_FILE"`
	SPADir         string     `env:"SPA_DIR"`
	AllowedOrigins []string   `env:"ALLOWED_ORIGINS" envSeparator:","`
	RedisURL       string     `env:"REDIS_URL"`

	Executor  Executor  `envPrefix:"EXECUTOR_"`
	Generator Generator `envPrefix:"GENERATOR_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
}

type Executor struct {
	URL                string        `env:"URL" envDefault:"https://emkc.org/api/v2/piston"`
	CompileTimeout     time.Duration `env:"COMPILE_TIMEOUT" envDefault:"5s"`
	RunTimeout         time.Duration `env:"RUN_TIMEOUT" envDefault:"5s"`
	CompileMemoryLimit int64         `env:"COMPILE_MEMORY_LIMIT" envDefault:"-1"`
	RunMemoryLimit     int64         `env:"RUN_MEMORY_LIMIT" envDefault:"-1"`
	RuntimesTTL        time.Duration `env:"RUNTIMES_TTL" envDefault:"10m"`
	Concurrency        int           `env:"CONCURRENCY" envDefault:"2"`
}

// Generator is the optional chat completions challenge author. It is only
// used when APIKey is set.
type Generator struct {
	URL         string        `env:"URL" envDefault:"https://api.openai.com/v1/chat/completions"`
	APIKey      string        `env:"API_KEY"`
	Model       string        `env:"MODEL" envDefault:"gpt-3.5-turbo"`
	Language    string        `env:"LANGUAGE" envDefault:"javascript"`
	Temperature float64       `env:"TEMPERATURE" envDefault:"0.7"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"20s"`
}

// RateLimit applies to run and submit requests, per connection. Burst is
// only used by the in-process limiter.
type RateLimit struct {
	PerMinute int `env:"PER_MINUTE" envDefault:"30"`
	Burst     int `env:"BURST" envDefault:"5"`
}

// Load reads the environment, after loading a .env file from the working
// directory if there is one.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
