// Package config loads settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"willvault/api/internal/email"
	"willvault/api/internal/export"
)

type Config struct {
	Addr          string `yaml:"addr"`
	DatabaseURL   string `yaml:"databaseURL"`
	MigrationsDir string `yaml:"migrationsDir"`
	CORSOrigin    string `yaml:"corsOrigin"`

	JWTSecret  string        `yaml:"jwtSecret"`
	AccessTTL  time.Duration `yaml:"accessTTL"`
	RefreshTTL time.Duration `yaml:"refreshTTL"`

	// Redis is optional. When set it holds refresh tokens and local
	// snapshots; otherwise Postgres and SQLite do.
	RedisURL   string `yaml:"redisURL"`
	SQLitePath string `yaml:"sqlitePath"`

	Guidance Guidance             `yaml:"guidance"`
	SMTP     email.Config         `yaml:"smtp"`
	Archive  export.ArchiveConfig `yaml:"archive"`
	Wizard   Wizard               `yaml:"wizard"`
}

type Guidance struct {
	AnthropicAPIKey  string        `yaml:"anthropicAPIKey"`
	AnthropicBaseURL string        `yaml:"anthropicBaseURL"`
	AnthropicModel   string        `yaml:"anthropicModel"`
	GeminiAPIKey     string        `yaml:"geminiAPIKey"`
	GeminiModel      string        `yaml:"geminiModel"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"maxRetries"`
}

type Wizard struct {
	DebounceDelay time.Duration `yaml:"debounceDelay"`
	SaveTimeout   time.Duration `yaml:"saveTimeout"`
	IdleTimeout   time.Duration `yaml:"idleTimeout"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

func defaults() Config {
	return Config{
		Addr:          ":8787",
		MigrationsDir: "./db/migrations",
		CORSOrigin:    "*",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    30 * 24 * time.Hour,
		SQLitePath:    "./data/snapshots.db",
		Guidance: Guidance{
			Timeout:    30 * time.Second,
			MaxRetries: 2,
		},
		SMTP: email.Config{
			Port:     "587",
			FromName: "WillVault",
		},
		Archive: export.ArchiveConfig{
			Bucket: "willvault-wills",
		},
		Wizard: Wizard{
			DebounceDelay: 300 * time.Millisecond,
			SaveTimeout:   10 * time.Second,
			IdleTimeout:   time.Hour,
			SweepInterval: 15 * time.Minute,
		},
	}
}

// Load reads path (when non-empty) over the defaults, then applies the
// environment.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = getenv("API_ADDR", cfg.Addr)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.MigrationsDir = getenv("WILLVAULT_MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.CORSOrigin = getenv("WILLVAULT_CORS_ORIGIN", cfg.CORSOrigin)
	cfg.JWTSecret = getenv("WILLVAULT_JWT_SECRET", cfg.JWTSecret)
	cfg.AccessTTL = time.Duration(getenvInt("WILLVAULT_ACCESS_TTL_SECONDS", int(cfg.AccessTTL/time.Second))) * time.Second
	cfg.RefreshTTL = time.Duration(getenvInt("WILLVAULT_REFRESH_TTL_SECONDS", int(cfg.RefreshTTL/time.Second))) * time.Second
	cfg.RedisURL = getenv("REDIS_URL", cfg.RedisURL)
	cfg.SQLitePath = getenv("WILLVAULT_SQLITE_PATH", cfg.SQLitePath)

	g := &cfg.Guidance
	g.AnthropicAPIKey = getenv("ANTHROPIC_API_KEY", g.AnthropicAPIKey)
	g.AnthropicBaseURL = getenv("ANTHROPIC_BASE_URL", g.AnthropicBaseURL)
	g.AnthropicModel = getenv("ANTHROPIC_MODEL", g.AnthropicModel)
	g.GeminiAPIKey = getenv("GEMINI_API_KEY", g.GeminiAPIKey)
	g.GeminiModel = getenv("GEMINI_MODEL", g.GeminiModel)
	g.Timeout = time.Duration(getenvInt("WILLVAULT_GUIDANCE_TIMEOUT_SECONDS", int(g.Timeout/time.Second))) * time.Second
	g.MaxRetries = getenvInt("WILLVAULT_GUIDANCE_MAX_RETRIES", g.MaxRetries)

	// SMTP - email disabled if not configured
	s := &cfg.SMTP
	s.Host = getenv("SMTP_HOST", s.Host)
	s.Port = getenv("SMTP_PORT", s.Port)
	s.Username = getenv("SMTP_USERNAME", s.Username)
	s.Password = getenv("SMTP_PASSWORD", s.Password)
	s.From = getenv("SMTP_FROM", s.From)
	s.FromName = getenv("SMTP_FROM_NAME", s.FromName)

	a := &cfg.Archive
	a.Endpoint = getenv("MINIO_ENDPOINT", a.Endpoint)
	a.AccessKey = getenv("MINIO_ACCESS_KEY", a.AccessKey)
	a.SecretKey = getenv("MINIO_SECRET_KEY", a.SecretKey)
	a.Bucket = getenv("MINIO_BUCKET", a.Bucket)
	a.UseSSL = getenvBool("MINIO_USE_SSL", a.UseSSL)

	w := &cfg.Wizard
	w.DebounceDelay = time.Duration(getenvInt("WILLVAULT_DEBOUNCE_MS", int(w.DebounceDelay/time.Millisecond))) * time.Millisecond
	w.SaveTimeout = time.Duration(getenvInt("WILLVAULT_SAVE_TIMEOUT_SECONDS", int(w.SaveTimeout/time.Second))) * time.Second
	w.IdleTimeout = time.Duration(getenvInt("WILLVAULT_IDLE_TIMEOUT_MINUTES", int(w.IdleTimeout/time.Minute))) * time.Minute
	w.SweepInterval = time.Duration(getenvInt("WILLVAULT_SWEEP_INTERVAL_MINUTES", int(w.SweepInterval/time.Minute))) * time.Minute
}

// Validate reports every setting the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("WILLVAULT_JWT_SECRET is required"))
	} else if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("WILLVAULT_JWT_SECRET must be at least 16 characters"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.Wizard.SweepInterval <= 0 {
		errs = append(errs, errors.New("wizard sweep interval must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
