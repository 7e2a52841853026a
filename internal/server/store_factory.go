package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pickup-games/internal/app/games"
	"pickup-games/internal/app/ratings"
	"pickup-games/internal/config"
	"pickup-games/internal/store"
)

// backend is everything the services need from persistence.
type backend interface {
	games.Store
	ratings.UserScanner
	Ping(ctx context.Context) error
}

// closer is implemented by backends holding connections.
type closer interface {
	Close(ctx context.Context) error
}

// mongoOpener remains a var so tests can avoid a live database.
var mongoOpener = func(ctx context.Context, uri, database string) (backend, error) {
	st, err := store.NewMongoStore(ctx, uri, database)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (backend, error) {
	if cfg.Backend != config.StoreMongo {
		if logger != nil {
			logger.Info("using in-memory store")
		}
		return store.NewMemoryStore(), nil
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("store backend %q requires MONGODB_URI", cfg.Backend)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	st, err := mongoOpener(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if logger != nil {
		logger.Info("using mongo store", slog.String("database", cfg.MongoDatabase))
	}
	return st, nil
}
