package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const envPrefix = "REALTY_"

// Load builds the configuration from args (without the program name) and
// the environment looked up through getenv. It does not validate.
func Load(args []string, getenv func(string) string) (*Config, error) {
	// First pass only locates the config file.
	var configPath string
	probe := pflag.NewFlagSet("realty-server", pflag.ContinueOnError)
	probe.SetOutput(io.Discard)
	bindFlags(probe, Default(), &configPath)
	if err := probe.Parse(args); err != nil {
		return nil, err
	}
	if !probe.Changed("config") {
		configPath = getenv(envPrefix + "CONFIG")
	}

	cfg := Default()
	if configPath != "" {
		if err := LoadFile(configPath, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	// Flags are bound with the current values as defaults, so only flags
	// present in args change anything.
	fs := pflag.NewFlagSet("realty-server", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	bindFlags(fs, cfg, &configPath)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Usage returns the flag help text.
func Usage() string {
	var path string
	fs := pflag.NewFlagSet("realty-server", pflag.ContinueOnError)
	bindFlags(fs, Default(), &path)
	return fs.FlagUsages()
}

func bindFlags(fs *pflag.FlagSet, cfg *Config, configPath *string) {
	fs.StringVarP(configPath, "config", "c", *configPath, "path to a YAML or JSONC config file")
	fs.StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "listen address")
	fs.StringVar(&cfg.Secret, "secret", cfg.Secret, "signing secret (min 32 characters)")
	fs.StringVar(&cfg.AppID, "app-id", cfg.AppID, "document namespace")
	fs.StringVar(&cfg.BasePath, "base-path", cfg.BasePath, "route prefix")

	fs.DurationVar(&cfg.Session.MaxAge.Duration, "session-max-age", cfg.Session.MaxAge.Duration, "session lifetime")
	fs.StringVar(&cfg.Session.CookieName, "cookie-name", cfg.Session.CookieName, "session cookie name")
	fs.BoolVar(&cfg.Session.Secure, "cookie-secure", cfg.Session.Secure, "mark cookies Secure")
	fs.StringVar(&cfg.Session.Domain, "cookie-domain", cfg.Session.Domain, "cookie domain")
	fs.StringVar(&cfg.Session.Store, "session-store", cfg.Session.Store, "session store: memory, postgres or redis")
	fs.BoolVar(&cfg.Session.DisableCache, "disable-cache", cfg.Session.DisableCache, "disable the in-process session cache")

	fs.StringVarP(&cfg.Database.DSN, "database-dsn", "d", cfg.Database.DSN, "PostgreSQL DSN")
	fs.BoolVar(&cfg.Database.Migrate, "migrate", cfg.Database.Migrate, "apply migrations on start")

	fs.StringVar(&cfg.Redis.Addr, "redis-addr", cfg.Redis.Addr, "Redis address")

	fs.StringVar(&cfg.Documents.Backend, "documents", cfg.Documents.Backend, "document backend: none, memory or s3")
	fs.StringVar(&cfg.Documents.Bucket, "s3-bucket", cfg.Documents.Bucket, "S3 bucket")
	fs.StringVar(&cfg.Documents.Endpoint, "s3-endpoint", cfg.Documents.Endpoint, "S3 endpoint for compatible stores")

	fs.StringVar(&cfg.LLM.Endpoint, "llm-endpoint", cfg.LLM.Endpoint, "chat-completion URL")
	fs.StringVar(&cfg.LLM.Model, "llm-model", cfg.LLM.Model, "chat-completion model")
	fs.DurationVar(&cfg.LLM.Timeout.Duration, "llm-timeout", cfg.LLM.Timeout.Duration, "chat-completion timeout")

	fs.BoolVar(&cfg.CSRF.Disabled, "disable-csrf", cfg.CSRF.Disabled, "disable the anti-forgery check")

	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug, info, warn or error")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "json or text")
}

// LoadFile overlays the file at path onto cfg. .yaml and .yml files are YAML;
// anything else is JSON with comments and trailing commas allowed. Unknown
// keys are rejected.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return nil
}

type envVar struct {
	name string
	set  func(cfg *Config, v string) error
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		*field(cfg) = v
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(cfg) = b
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(cfg) = n
		return nil
	}
}

func duration(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(cfg) = d
		return nil
	}
}

var envVars = []envVar{
	{"ADDR", str(func(c *Config) *string { return &c.Addr })},
	{"SECRET", str(func(c *Config) *string { return &c.Secret })},
	{"APP_ID", str(func(c *Config) *string { return &c.AppID })},
	{"BASE_PATH", str(func(c *Config) *string { return &c.BasePath })},

	{"SESSION_MAX_AGE", duration(func(c *Config) *time.Duration { return &c.Session.MaxAge.Duration })},
	{"SESSION_COOKIE_NAME", str(func(c *Config) *string { return &c.Session.CookieName })},
	{"SESSION_SECURE", boolean(func(c *Config) *bool { return &c.Session.Secure })},
	{"SESSION_DOMAIN", str(func(c *Config) *string { return &c.Session.Domain })},
	{"SESSION_STORE", str(func(c *Config) *string { return &c.Session.Store })},
	{"SESSION_CACHE_TTL", duration(func(c *Config) *time.Duration { return &c.Session.CacheTTL.Duration })},
	{"SESSION_CACHE_SIZE", integer(func(c *Config) *int { return &c.Session.CacheSize })},
	{"SESSION_DISABLE_CACHE", boolean(func(c *Config) *bool { return &c.Session.DisableCache })},
	{"SESSION_SWEEP_INTERVAL", duration(func(c *Config) *time.Duration { return &c.Session.SweepInterval.Duration })},

	{"DATABASE_DSN", str(func(c *Config) *string { return &c.Database.DSN })},
	{"DATABASE_MIGRATE", boolean(func(c *Config) *bool { return &c.Database.Migrate })},

	{"REDIS_ADDR", str(func(c *Config) *string { return &c.Redis.Addr })},
	{"REDIS_PASSWORD", str(func(c *Config) *string { return &c.Redis.Password })},
	{"REDIS_DB", integer(func(c *Config) *int { return &c.Redis.DB })},
	{"REDIS_PREFIX", str(func(c *Config) *string { return &c.Redis.Prefix })},

	{"DOCUMENTS_BACKEND", str(func(c *Config) *string { return &c.Documents.Backend })},
	{"S3_BUCKET", str(func(c *Config) *string { return &c.Documents.Bucket })},
	{"S3_REGION", str(func(c *Config) *string { return &c.Documents.Region })},
	{"S3_ENDPOINT", str(func(c *Config) *string { return &c.Documents.Endpoint })},
	{"S3_ACCESS_KEY", str(func(c *Config) *string { return &c.Documents.AccessKey })},
	{"S3_SECRET_KEY", str(func(c *Config) *string { return &c.Documents.SecretKey })},
	{"S3_PREFIX", str(func(c *Config) *string { return &c.Documents.Prefix })},

	{"LLM_ENDPOINT", str(func(c *Config) *string { return &c.LLM.Endpoint })},
	{"LLM_API_KEY", str(func(c *Config) *string { return &c.LLM.APIKey })},
	{"LLM_MODEL", str(func(c *Config) *string { return &c.LLM.Model })},
	{"LLM_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.LLM.Timeout.Duration })},
	{"LLM_MAX_TOKENS", integer(func(c *Config) *int { return &c.LLM.MaxTokens })},

	{"CSRF_DISABLED", boolean(func(c *Config) *bool { return &c.CSRF.Disabled })},

	{"LOG_LEVEL", str(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FORMAT", str(func(c *Config) *string { return &c.Log.Format })},
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	for _, ev := range envVars {
		v := getenv(envPrefix + ev.name)
		if v == "" {
			continue
		}
		if err := ev.set(cfg, v); err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, ev.name, err)
		}
	}
	return nil
}
