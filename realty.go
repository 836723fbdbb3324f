// Package realty assembles the session-auth backend, the per-user document
// endpoints and the AI advisor behind a pluggable HTTP adapter.
package realty

import (
	"fmt"
	"time"

	"github.com/lborres/realty/core"
	"github.com/lborres/realty/pkg/cache"
	"github.com/lborres/realty/pkg/crypto"
	"github.com/lborres/realty/services"
)

type (
	Realty        = core.Realty
	SessionConfig = core.SessionConfig
	CacheConfig   = core.CacheConfig
	CookieConfig  = core.CookieConfig
)

const (
	defaultSecretLen  = 32
	defaultCookieName = "realty_session"
	defaultAppID      = "default-app-id"
)

// Config wires storage and transport into a Realty. Users, Sessions and HTTP
// are required.
type Config struct {
	Secret string

	Users     core.UserStorage
	Sessions  core.SessionStorage
	Documents core.DocumentStore // nil: preferences and listings answer 501
	Chat      core.ChatCompleter // nil: the advisor answers 501
	HTTP      core.HTTPAdapter

	CacheAdapter   core.Cache
	DisableCache   bool
	CacheConfig    *CacheConfig
	SessionConfig  *SessionConfig
	Cookie         CookieConfig
	PasswordHasher crypto.PasswordHasher
	DisableCSRF    bool

	AppID    string
	BasePath string
}

func New(config Config) (*Realty, error) {
	if config.Secret == "" {
		return nil, core.ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", core.ErrSecretTooShort, defaultSecretLen)
	}
	if config.Users == nil || config.Sessions == nil {
		return nil, core.ErrStorageRequired
	}
	if config.HTTP == nil {
		return nil, core.ErrHTTPAdapterRequired
	}

	// Set Defaults

	cacheAdapter := config.CacheAdapter
	if cacheAdapter == nil && !config.DisableCache {
		cacheConfig := CacheConfig{TTL: 5 * time.Minute, MaxSize: 500}
		if config.CacheConfig != nil {
			cacheConfig = *config.CacheConfig
		}
		cacheAdapter = cache.NewInMemoryCache(cacheConfig)
	}
	if config.DisableCache {
		cacheAdapter = nil
	}

	sessionConfig := core.DefaultSessionConfig()
	if config.SessionConfig != nil && config.SessionConfig.MaxAge > 0 {
		sessionConfig = *config.SessionConfig
	}

	passwordHasher := config.PasswordHasher
	if passwordHasher == nil {
		passwordHasher = crypto.NewArgon2()
	}

	appID := config.AppID
	if appID == "" {
		appID = defaultAppID
	}

	cookie := config.Cookie
	if cookie.Name == "" {
		cookie.Name = defaultCookieName
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	if cookie.SameSite == "" {
		cookie.SameSite = "Lax"
	}

	sessionManager := services.NewSessionManager(sessionConfig, config.Sessions, cacheAdapter)

	r := &Realty{
		Auth:      services.NewAuthService(config.Users, passwordHasher, sessionManager),
		Insights:  services.UnimplementedInsights{},
		Sessions:  sessionManager,
		Endpoints: services.NewEndpointRegistry().Endpoints(),
		Cookie:    cookie,
		Session:   sessionConfig,
		BasePath:  config.BasePath,
	}

	if config.Documents != nil {
		r.Preferences = services.NewPreferencesService(config.Documents, appID)
		r.Listings = services.NewListingService(config.Documents, appID)
	} else {
		r.Preferences = services.UnimplementedPreferences{}
		r.Listings = services.UnimplementedListings{}
	}

	if config.Chat != nil {
		r.Advisor = services.NewAdvisor(config.Chat, r.Preferences)
	} else {
		r.Advisor = services.UnimplementedAdvisor{}
	}

	if !config.DisableCSRF {
		r.CSRF = crypto.NewCSRF(config.Secret, sessionConfig.MaxAge)
	}

	if err := config.HTTP.RegisterRoutes(r); err != nil {
		return nil, err
	}

	return r, nil
}
