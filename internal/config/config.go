// Package config loads the server configuration. Values are layered:
// defaults, then an optional YAML or JSONC file, then REALTY_* environment
// variables, then command-line flags that were set explicitly.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/lborres/realty/internal/logging"
)

const minSecretLen = 32

type Config struct {
	Addr     string `json:"addr" yaml:"addr"`
	Secret   string `json:"secret" yaml:"secret"`
	AppID    string `json:"app_id" yaml:"app_id"`
	BasePath string `json:"base_path" yaml:"base_path"`

	Session   SessionConfig   `json:"session" yaml:"session"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Documents DocumentsConfig `json:"documents" yaml:"documents"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	CSRF      CSRFConfig      `json:"csrf" yaml:"csrf"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

type SessionConfig struct {
	MaxAge        Duration `json:"max_age" yaml:"max_age"`
	CookieName    string   `json:"cookie_name" yaml:"cookie_name"`
	Secure        bool     `json:"secure" yaml:"secure"`
	Domain        string   `json:"domain" yaml:"domain"`
	Store         string   `json:"store" yaml:"store"` // memory | postgres | redis
	CacheTTL      Duration `json:"cache_ttl" yaml:"cache_ttl"`
	CacheSize     int      `json:"cache_size" yaml:"cache_size"`
	DisableCache  bool     `json:"disable_cache" yaml:"disable_cache"`
	SweepInterval Duration `json:"sweep_interval" yaml:"sweep_interval"`
}

type DatabaseConfig struct {
	DSN     string `json:"dsn" yaml:"dsn"`
	Migrate bool   `json:"migrate" yaml:"migrate"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	Prefix   string `json:"prefix" yaml:"prefix"`
}

type DocumentsConfig struct {
	Backend   string `json:"backend" yaml:"backend"` // none | memory | s3
	Bucket    string `json:"bucket" yaml:"bucket"`
	Region    string `json:"region" yaml:"region"`
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	AccessKey string `json:"access_key" yaml:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key"`
	Prefix    string `json:"prefix" yaml:"prefix"`
}

// LLMConfig points at an OpenAI-compatible chat-completion endpoint. An
// empty Endpoint disables the advisor.
type LLMConfig struct {
	Endpoint    string   `json:"endpoint" yaml:"endpoint"`
	APIKey      string   `json:"api_key" yaml:"api_key"`
	Model       string   `json:"model" yaml:"model"`
	Timeout     Duration `json:"timeout" yaml:"timeout"`
	Temperature float64  `json:"temperature" yaml:"temperature"`
	MaxTokens   int      `json:"max_tokens" yaml:"max_tokens"`
}

type CSRFConfig struct {
	Disabled bool `json:"disabled" yaml:"disabled"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns development defaults. Secret is left empty on purpose and
// must be supplied.
func Default() *Config {
	return &Config{
		Addr:  ":8000",
		AppID: "default-app-id",
		Session: SessionConfig{
			MaxAge:        Duration{2 * time.Hour},
			CookieName:    "realty_session",
			Store:         "memory",
			CacheTTL:      Duration{5 * time.Minute},
			CacheSize:     500,
			SweepInterval: Duration{10 * time.Minute},
		},
		Database: DatabaseConfig{Migrate: true},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "realty:",
		},
		Documents: DocumentsConfig{
			Backend: "none",
			Region:  "us-east-1",
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Timeout:     Duration{15 * time.Second},
			Temperature: 0.7,
			MaxTokens:   512,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Secret == "" {
		errs = append(errs, errors.New("secret is required"))
	} else if len(c.Secret) < minSecretLen {
		errs = append(errs, fmt.Errorf("secret must be at least %d characters", minSecretLen))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.Session.MaxAge.Duration <= 0 {
		errs = append(errs, errors.New("session.max_age must be positive"))
	}

	switch c.Session.Store {
	case "memory":
	case "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for the postgres session store"))
		}
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session.store %q", c.Session.Store))
	}

	switch c.Documents.Backend {
	case "none", "memory":
	case "s3":
		if c.Documents.Bucket == "" {
			errs = append(errs, errors.New("documents.bucket is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown documents.backend %q", c.Documents.Backend))
	}

	if c.LLM.Endpoint != "" && c.LLM.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("llm.timeout must be positive"))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
