package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":5000" {
		t.Errorf("HTTPAddr = %q, want :5000", cfg.HTTPAddr)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.Executor.RunTimeout != 5*time.Second || cfg.Executor.CompileTimeout != 5*time.Second {
		t.Errorf("executor timeouts = %v/%v, want 5s/5s", cfg.Executor.CompileTimeout, cfg.Executor.RunTimeout)
	}
	if cfg.Executor.RunMemoryLimit != -1 {
		t.Errorf("RunMemoryLimit = %d, want -1", cfg.Executor.RunMemoryLimit)
	}
	if !cfg.SeedChallenges || cfg.ForceSeed {
		t.Errorf("seed flags = %v/%v, want true/false", cfg.SeedChallenges, cfg.ForceSeed)
	}
	if cfg.Generator.APIKey != "" {
		t.Errorf("Generator.APIKey = %q, want empty", cfg.Generator.APIKey)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("EXECUTOR_RUN_TIMEOUT", "2s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "10")
	t.Setenv("ALLOWED_ORIGINS", "localhost:3000,example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.Executor.RunTimeout != 2*time.Second {
		t.Errorf("RunTimeout = %v", cfg.Executor.RunTimeout)
	}
	if cfg.RateLimit.PerMinute != 10 {
		t.Errorf("PerMinute = %d", cfg.RateLimit.PerMinute)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GENERATOR_API_KEY=sk-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set.
	t.Setenv("GENERATOR_API_KEY", "")
	os.Unsetenv("GENERATOR_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generator.APIKey != "sk-dotenv" {
		t.Errorf("APIKey = %q, want sk-dotenv", cfg.Generator.APIKey)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EXECUTOR_RUN_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
