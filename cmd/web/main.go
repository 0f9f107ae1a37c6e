// Command web starts the sample discovery API. All settings come from the
// environment (or a .env file); see pkg/config for the variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"Crate-Go/pkg/analyzer"
	"Crate-Go/pkg/cache"
	"Crate-Go/pkg/completion"
	"Crate-Go/pkg/config"
	"Crate-Go/pkg/db"
	"Crate-Go/pkg/handlers"
	"Crate-Go/pkg/pipeline"
	"Crate-Go/pkg/spotify"
)

const purgeInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("server stopped with error")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// server holds everything run needs to serve and later release.
type server struct {
	handler http.Handler
	db      *db.DB
	cache   cache.Cache
	closers []func() error
}

func (s *server) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			log.WithError(err).Warn("shutdown: close failed")
		}
	}
}

// build wires the dependency graph from cfg without starting anything.
func build(ctx context.Context, cfg *config.Config) (*server, error) {
	s := &server{}

	database, err := db.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	s.db = database
	s.closers = append(s.closers, database.Close)

	c, err := openCache(ctx, cfg, database)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.cache = c
	if r, ok := c.(*cache.Redis); ok {
		s.closers = append(s.closers, r.Close)
	}

	var completer completion.Completer
	if cfg.AIEnabled() {
		completer = completion.NewClient(completion.Config{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.CompletionTimeout,
		})
	} else {
		log.Warn("OPENAI_API_KEY not set; prompt analysis uses the keyword table")
	}
	an := analyzer.New(completer)

	if !cfg.SpotifyConfigured() {
		log.Warn("Spotify credentials not set; catalog searches will return nothing")
	}
	sc := spotify.NewSpotifyClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyTimeout,
		spotify.WithMarket(cfg.SpotifyMarket),
		spotify.WithRateLimit(cfg.SpotifyRateLimit),
	)

	p := pipeline.New(an, sc, pipeline.WithCache(c, cfg.CacheTTL))

	app := &handlers.Application{
		Pipeline:          p,
		Analyzer:          an,
		Cache:             c,
		History:           database,
		SignKey:           []byte(cfg.SessionSecret),
		FrontendURL:       cfg.FrontendURL,
		AIEnabled:         cfg.AIEnabled(),
		SpotifyConfigured: cfg.SpotifyConfigured(),
	}
	if cfg.SpotifyConfigured() {
		app.OAuth = spotify.NewOAuthConfig(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURI)
	}
	s.handler = app.Routes(cfg.CORSOrigins)
	return s, nil
}

// openCache selects the recommendation cache named by CACHE_BACKEND.
func openCache(ctx context.Context, cfg *config.Config, database *db.DB) (cache.Cache, error) {
	switch cfg.CacheBackend {
	case cache.BackendRedis:
		r, err := cache.DialRedis(ctx, cache.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cache.DefaultPrefix,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	case cache.BackendSQL:
		return cache.NewSQL(database), nil
	case cache.BackendNone:
		return cache.Nop{}, nil
	default:
		return cache.NewMemory(), nil
	}
}

// purger is implemented by the cache backends that keep expired entries
// around until asked to drop them.
type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// purgerFor returns what the purge ticker should sweep for the configured
// backend, or nil when the backend expires entries on its own.
func (s *server) purgerFor(backend string) purger {
	switch backend {
	case cache.BackendSQL:
		return s.db
	case cache.BackendMemory:
		if m, ok := s.cache.(*cache.Memory); ok {
			return m
		}
	}
	return nil
}

// purgeExpired removes stale cache entries until ctx is cancelled.
func purgeExpired(ctx context.Context, p purger, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("cache purge failed")
				continue
			}
			if n > 0 {
				log.WithField("rows", n).Debug("purged expired cache entries")
			}
		}
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	s, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if p := s.purgerFor(cfg.CacheBackend); p != nil {
		go purgeExpired(ctx, p, purgeInterval)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":          srv.Addr,
			"cache":         cfg.CacheBackend,
			"db_driver":     cfg.DatabaseDriver,
			"ai_enabled":    cfg.AIEnabled(),
			"spotify_oauth": cfg.SpotifyConfigured(),
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
