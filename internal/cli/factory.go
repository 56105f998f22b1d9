package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/relstore"
	"github.com/aretw0/relstore/internal/config"
	"github.com/aretw0/relstore/pkg/adapters/dynamodb"
	"github.com/aretw0/relstore/pkg/adapters/file"
	"github.com/aretw0/relstore/pkg/adapters/memory"
	"github.com/aretw0/relstore/pkg/adapters/redis"
	"github.com/aretw0/relstore/pkg/adapters/sqlite"
	"github.com/aretw0/relstore/pkg/adapters/uuidgen"
	"github.com/aretw0/relstore/pkg/persistence/middleware"
	"github.com/aretw0/relstore/pkg/ports"
	"github.com/aretw0/relstore/pkg/schema"
)

// Backend is an opened backing store together with whatever must be released on exit.
type Backend struct {
	ports.KV
	closers []func() error
}

// Close releases the underlying connections.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenBackend builds the adapter selected by cfg and wraps it with the configured
// middleware. Metrics are recorded only when reg is not nil.
func OpenBackend(ctx context.Context, cfg config.Config, reg prometheus.Registerer, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	switch cfg.Backend {
	case config.BackendMemory:
		b.KV = memory.NewStore()

	case config.BackendFile:
		b.KV = file.New(cfg.File.Path)

	case config.BackendRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		b.KV = store
		b.closers = append(b.closers, store.Close)

	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err := sqlite.Open(cfg.SQLite.Path, sqlite.WithTable(cfg.SQLite.Table))
		if err != nil {
			return nil, err
		}
		b.KV = store
		b.closers = append(b.closers, store.Close)

	case config.BackendDynamoDB:
		store, err := dynamodb.NewFromEnv(ctx, cfg.DynamoDB.Region, cfg.DynamoDB.Endpoint, dynamodb.Config{Table: cfg.DynamoDB.Table})
		if err != nil {
			return nil, err
		}
		b.KV = store

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	var mws []middleware.Middleware
	if reg != nil {
		mws = append(mws, middleware.NewMetricsMiddleware(middleware.NewMetrics(reg)))
	}
	if cfg.Encryption.Enabled() {
		enc, err := encryptionConfig(cfg.Encryption)
		if err != nil {
			b.Close()
			return nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	b.KV = middleware.Chain(b.KV, mws...)

	logger.Debug("backend opened", "backend", cfg.Backend, "encrypted", cfg.Encryption.Enabled(), "metrics", reg != nil)
	return b, nil
}

func encryptionConfig(c config.EncryptionConfig) (middleware.EncryptionConfig, error) {
	active, err := middleware.ParseKey(c.Key)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("encryption key: %w", err)
	}

	enc := middleware.EncryptionConfig{ActiveKey: active, AllowPlaintext: c.AllowPlaintext}
	for i, s := range c.FallbackKeys {
		key, err := middleware.ParseKey(s)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("fallback key %d: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}

// OpenStore compiles the configured schema file over an opened backend.
func OpenStore(ctx context.Context, cfg config.Config, reg prometheus.Registerer, logger *slog.Logger) (*relstore.Store, *Backend, error) {
	if cfg.Schema == "" {
		return nil, nil, errors.New("no schema file configured (use --schema or the config file)")
	}

	policy, err := schema.ParseDefaultPolicy(cfg.DefaultPolicy)
	if err != nil {
		return nil, nil, err
	}

	backend, err := OpenBackend(ctx, cfg, reg, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := relstore.DefineFile(backend, cfg.Schema,
		relstore.WithNamespace(cfg.Namespace),
		relstore.WithLogger(logger),
		relstore.WithDefaultPolicy(policy),
		relstore.WithIDGenerator(uuidgen.New(uuidgen.Version(cfg.IDVersion))),
	)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return store, backend, nil
}
