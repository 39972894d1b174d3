package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/ifacetool/internal/cache"
	"github.com/nao1215/ifacetool/internal/config"
	"github.com/nao1215/ifacetool/internal/engine"
	"github.com/nao1215/ifacetool/internal/fetch"
	"github.com/nao1215/ifacetool/internal/store"
)

// newStoreClient creates a store client from the config and the
// credentials in the environment.
func newStoreClient(cfg *config.Config, logger *slog.Logger) (*store.Client, error) {
	creds, err := store.CredentialsFromEnv(config.CredentialsEnv)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		logger.Warn("no store credentials, sending anonymous requests", "env", config.CredentialsEnv)
	}
	return store.NewClient(store.Options{
		BaseURL:     cfg.StoreURL,
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
		Credentials: creds,
		Logger:      logger,
	})
}

// openCache opens the identity cache. The cache only saves store round
// trips, so failing to open it is logged and nil returned.
func openCache(cfg *config.Config, logger *slog.Logger) *cache.IdentityDB {
	if cfg.CacheDir == "" {
		return nil
	}
	db, err := cache.Open(cfg.CacheDir, cache.DefaultOptions())
	if err != nil {
		logger.Warn("identity cache unavailable", "dir", cfg.CacheDir, "error", err)
		return nil
	}
	logger.Debug("identity cache opened", "path", db.Path())
	return db
}

// newEngine locates the simulation engine for the workspace.
func newEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	e, err := engine.New(engine.Options{
		Path:    cfg.EnginePath,
		WorkDir: cfg.WorkDir,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set engine_path in %s or put it on PATH)", err, config.DefaultConfigFile)
	}
	logger.Debug("using engine", "path", e.Path())
	return e, nil
}

// newFetcher wires the store client, cache and engine into a Fetcher.
// The returned close function releases the cache.
func newFetcher(cfg *config.Config, logger *slog.Logger, decls fetch.DeclFetcher) (*fetch.Fetcher, func(), error) {
	client, err := newStoreClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []fetch.Option{
		fetch.WithConcurrency(cfg.Concurrency),
		fetch.WithLogger(logger),
	}
	closeFn := func() {}
	if db := openCache(cfg, logger); db != nil {
		opts = append(opts, fetch.WithCache(db))
		closeFn = func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close identity cache", "error", err)
			}
		}
	}
	if decls != nil {
		opts = append(opts, fetch.WithDeclFetcher(decls))
	}

	return fetch.NewFetcher(cfg.WorkDir, client, opts...), closeFn, nil
}

// withSuggestion adds a "did you mean" hint from the config aliases when the
// store does not know one of names.
func withSuggestion(err error, file *config.File, names []string) error {
	var apiErr *store.APIError
	if !errors.As(err, &apiErr) || !apiErr.NotFound() {
		return err
	}
	for _, name := range names {
		if !strings.Contains(apiErr.URL, "/"+name) {
			continue
		}
		if s := file.Suggest(name); s != "" {
			return fmt.Errorf("%w (did you mean %q?)", err, s)
		}
	}
	return err
}
