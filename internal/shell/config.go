package shell

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultAdvisorTimeout = 15 * time.Second

	EnvAPIURL         = "REALTY_API_URL"
	EnvAdvisorTimeout = "REALTY_ADVISOR_TIMEOUT"
)

// Config is resolved once at start-up.
type Config struct {
	APIURL         string
	AdvisorTimeout time.Duration
}

// ResolveConfig applies, per field: the explicit value, then the
// environment, then the default.
func ResolveConfig(explicit Config, getenv func(string) string) (Config, error) {
	cfg := explicit

	if cfg.APIURL == "" {
		cfg.APIURL = getenv(EnvAPIURL)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	u, err := url.Parse(cfg.APIURL)
	if err != nil {
		return Config{}, fmt.Errorf("api url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, fmt.Errorf("api url %q must be an absolute http(s) URL", cfg.APIURL)
	}

	if cfg.AdvisorTimeout <= 0 {
		if v := getenv(EnvAdvisorTimeout); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("%s: %w", EnvAdvisorTimeout, err)
			}
			cfg.AdvisorTimeout = d
		}
	}
	if cfg.AdvisorTimeout <= 0 {
		cfg.AdvisorTimeout = DefaultAdvisorTimeout
	}

	return cfg, nil
}
