// Package server assembles the realty HTTP server from configuration: it
// selects the storage backends, runs the session sweeper and shuts down
// gracefully on SIGINT or SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/lborres/realty"
	fiberadapter "github.com/lborres/realty/adapters/fiber"
	"github.com/lborres/realty/adapters/memory"
	pgxadapter "github.com/lborres/realty/adapters/pgx"
	redisadapter "github.com/lborres/realty/adapters/redis"
	s3adapter "github.com/lborres/realty/adapters/s3"
	"github.com/lborres/realty/core"
	"github.com/lborres/realty/internal/config"
	"github.com/lborres/realty/internal/logging"
	"github.com/lborres/realty/pkg/llm"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	http    *fiber.App
	realty  *realty.Realty
	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{config: c, logger: logger}
	ok := false
	defer func() {
		if !ok {
			app.close()
		}
	}()

	users, sessions, err := app.openStores(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := app.openDocuments(ctx)
	if err != nil {
		return nil, err
	}

	var chat core.ChatCompleter
	if c.LLM.Endpoint != "" {
		chat = llm.New(llm.Config{
			Endpoint:    c.LLM.Endpoint,
			APIKey:      c.LLM.APIKey,
			Model:       c.LLM.Model,
			Temperature: c.LLM.Temperature,
			MaxTokens:   c.LLM.MaxTokens,
			Timeout:     c.LLM.Timeout.Duration,
		}, nil)
	} else {
		logger.Warn(ctx, "llm.endpoint not set, advisor endpoints answer 501")
	}

	app.http = fiber.New(fiber.Config{AppName: "realty"})

	r, err := realty.New(realty.Config{
		Secret:        c.Secret,
		Users:         users,
		Sessions:      sessions,
		Documents:     docs,
		Chat:          chat,
		HTTP:          fiberadapter.New(app.http, logger.With("component", "http")),
		DisableCache:  c.Session.DisableCache,
		CacheConfig:   &realty.CacheConfig{TTL: c.Session.CacheTTL.Duration, MaxSize: c.Session.CacheSize},
		SessionConfig: &realty.SessionConfig{MaxAge: c.Session.MaxAge.Duration},
		Cookie: realty.CookieConfig{
			Name:   c.Session.CookieName,
			Domain: c.Session.Domain,
			Secure: c.Session.Secure,
		},
		DisableCSRF: c.CSRF.Disabled,
		AppID:       c.AppID,
		BasePath:    c.BasePath,
	})
	if err != nil {
		return nil, err
	}
	app.realty = r

	ok = true
	return app, nil
}

// openStores picks the user and session stores. Users live in PostgreSQL
// whenever a DSN is configured, otherwise in memory.
func (app *App) openStores(ctx context.Context) (core.UserStorage, core.SessionStorage, error) {
	c := app.config

	var pg *pgxadapter.Adapter
	if c.Database.DSN != "" {
		pool, err := pgxadapter.Connect(ctx, c.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		app.closers = append(app.closers, func() error { pool.Close(); return nil })

		pg = pgxadapter.New(pool)
		if c.Database.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
	}

	mem := memory.New()
	var users core.UserStorage = mem
	if pg != nil {
		users = pg
	}

	switch c.Session.Store {
	case "postgres":
		return users, pg, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		app.closers = append(app.closers, rdb.Close)

		store := redisadapter.NewSessionStore(rdb, c.Redis.Prefix)
		if err := store.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		return users, store, nil
	default:
		return users, mem, nil
	}
}

func (app *App) openDocuments(ctx context.Context) (core.DocumentStore, error) {
	d := app.config.Documents
	switch d.Backend {
	case "memory":
		return memory.NewDocumentStore(), nil
	case "s3":
		store, err := s3adapter.New(ctx, s3adapter.Config{
			Bucket:    d.Bucket,
			Region:    d.Region,
			Endpoint:  d.Endpoint,
			AccessKey: d.AccessKey,
			SecretKey: d.SecretKey,
			Prefix:    d.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		return store, nil
	default:
		app.logger.Warn(ctx, "documents.backend is none, preferences and listings answer 501")
		return nil, nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run listens on the configured address until a signal arrives or ctx ends.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	ln, err := net.Listen("tcp", app.config.Addr)
	if err != nil {
		return err
	}
	return app.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then drains requests and releases the
// backends.
func (app *App) Serve(ctx context.Context, ln net.Listener) error {
	defer app.close()

	g, ctx := errgroup.WithContext(ctx)

	app.logger.Info(ctx, "Starting app...", "addr", ln.Addr().String(), "session_store", app.config.Session.Store, "documents", app.config.Documents.Backend)

	g.Go(func() error {
		return app.http.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	})

	g.Go(func() error {
		app.sweep(ctx)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		app.logger.Info(context.Background(), "shutting down")
		return app.http.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// sweep periodically removes expired sessions from storage.
func (app *App) sweep(ctx context.Context) {
	interval := app.config.Session.SweepInterval.Duration
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.realty.Sessions.Sweep(ctx)
			if err != nil {
				app.logger.Error(ctx, "session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "expired sessions removed", "count", n)
			}
			if stats, ok := app.realty.Sessions.CacheStats(); ok {
				app.logger.Debug(ctx, "session cache", "hits", stats.Hits, "misses", stats.Misses, "size", stats.Size)
			}
		}
	}
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}
