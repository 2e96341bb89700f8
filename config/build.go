/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/codec"
	"github.com/suparena/modelstore/instrument"
	"github.com/suparena/modelstore/provider/badger"
	"github.com/suparena/modelstore/provider/cache"
	"github.com/suparena/modelstore/provider/dynamodb"
	"github.com/suparena/modelstore/provider/file"
	"github.com/suparena/modelstore/provider/memory"
	"github.com/suparena/modelstore/provider/null"
	"github.com/suparena/modelstore/provider/redis"
	"github.com/suparena/modelstore/provider/session"
	"github.com/suparena/modelstore/provider/sqlite"
	"github.com/suparena/modelstore/registry"
)

// DefaultCacheSize bounds cache storages that declare no size.
const DefaultCacheSize = 1024

// DefaultSession is the session id used by session storages that declare none.
const DefaultSession = "default"

// BuildOption customizes Build.
type BuildOption func(*builder)

// WithLogger sets the logger handed to storages and backends.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(b *builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithRegisterer sets where metrics collectors are registered.
func WithRegisterer(reg prometheus.Registerer) BuildOption {
	return func(b *builder) {
		b.registerer = reg
	}
}

// WithSessions sets the session store backing session storages.
func WithSessions(sessions *session.Sessions) BuildOption {
	return func(b *builder) {
		b.sessions = sessions
	}
}

// WithDynamoDBClient replaces the client built from Backends.DynamoDB.
func WithDynamoDBClient(client dynamodb.Client) BuildOption {
	return func(b *builder) {
		b.dynamo = client
	}
}

// Runtime is a built configuration. Close releases the backend connections.
type Runtime struct {
	*modelstore.Factory
	models  map[string]modelstore.ModelType
	closers []func() error
}

// Model returns the model type the storage registered under name was built
// for; chains, managers and untyped storages report the wildcard.
func (r *Runtime) Model(name string) (modelstore.ModelType, bool) {
	model, ok := r.models[name]
	return model, ok
}

// Close closes every backend opened by Build.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

type builder struct {
	cfg        *Config
	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    *instrument.Metrics
	sessions   *session.Sessions

	redis  goredis.UniversalClient
	badger *badgerdb.DB
	sqlite *sql.DB
	dynamo dynamodb.Client

	runtime *Runtime
	built   map[string]modelstore.Storage
}

// Build creates every declared storage in declaration order and registers it
// with a new Factory under its name. Backends are opened once and shared.
func Build(ctx context.Context, cfg *Config, opts ...BuildOption) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &builder{
		cfg:        cfg,
		logger:     slog.Default(),
		registerer: prometheus.DefaultRegisterer,
		built:      make(map[string]modelstore.Storage, len(cfg.Storages)),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.sessions == nil {
		b.sessions = session.NewSessions()
	}
	b.runtime = &Runtime{
		Factory: modelstore.NewFactory(nil).WithLogger(b.logger),
		models:  make(map[string]modelstore.ModelType, len(cfg.Storages)),
	}

	if cfg.Metrics {
		metrics, err := instrument.NewMetrics(b.registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		b.metrics = metrics
	}

	for _, sc := range cfg.Storages {
		model, err := b.model(sc)
		if err != nil {
			_ = b.runtime.Close()
			return nil, fmt.Errorf("storage %q: %w", sc.Name, err)
		}
		b.runtime.models[sc.Name] = model

		storage, err := b.build(ctx, sc, model)
		if err != nil {
			_ = b.runtime.Close()
			return nil, fmt.Errorf("storage %q: %w", sc.Name, err)
		}
		if b.metrics != nil {
			storage = instrument.Wrap(sc.Name, storage, b.metrics)
		}
		b.built[sc.Name] = storage
		b.runtime.Register(sc.Name, storage)
	}

	b.logger.Info("storages built", "count", len(cfg.Storages), "metrics", cfg.Metrics)
	return b.runtime, nil
}

// model resolves the declared model type. Names missing from the registry
// fall back to the wildcard, except for dynamodb which decodes into the type.
func (b *builder) model(sc StorageConfig) (modelstore.ModelType, error) {
	model, err := registry.LookupType(sc.Model)
	if err == nil {
		return model, nil
	}
	if sc.Type == TypeDynamoDB {
		return modelstore.ModelType{}, fmt.Errorf("dynamodb decodes items into a registered model type: %w", err)
	}
	b.logger.Warn("model type not registered, storing untyped models",
		"storage", sc.Name, "model", sc.Model, "registered", registry.TypeNames())
	return modelstore.ModelType{}, nil
}

func (b *builder) build(ctx context.Context, sc StorageConfig, model modelstore.ModelType) (modelstore.Storage, error) {
	c, err := codec.ByName(sc.Codec)
	if err != nil {
		return nil, err
	}

	switch sc.Type {
	case TypeMemory:
		return memory.New(model), nil

	case TypeNull:
		return null.New(model), nil

	case TypeFile:
		opts := []file.Option{file.WithCodec(c)}
		if sc.Prefix != "" {
			opts = append(opts, file.WithPrefix(sc.Prefix))
		}
		return file.New(sc.Dir, model, opts...)

	case TypeSession:
		id := sc.Session
		if id == "" {
			id = DefaultSession
		}
		return session.New(b.sessions.Bag(id), model, session.WithNamespace(sc.Namespace)), nil

	case TypeCache:
		size := sc.Size
		if size <= 0 {
			size = DefaultCacheSize
		}
		var opts []cache.Option
		if sc.Namespace != "" {
			opts = append(opts, cache.WithNamespace(sc.Namespace))
		}
		return cache.New(cache.NewLRUPool(size, sc.Lifetime), model, opts...), nil

	case TypeRedis:
		client := b.redisClient()
		opts := []redis.Option{redis.WithCodec(c), redis.WithLifetime(sc.Lifetime)}
		if sc.Namespace != "" {
			opts = append(opts, redis.WithNamespace(sc.Namespace))
		}
		return redis.New(client, model, opts...), nil

	case TypeBadger:
		db, err := b.badgerDB()
		if err != nil {
			return nil, err
		}
		opts := []badger.Option{badger.WithCodec(c), badger.WithLifetime(sc.Lifetime)}
		if sc.Namespace != "" {
			opts = append(opts, badger.WithNamespace(sc.Namespace))
		}
		return badger.New(db, model, opts...), nil

	case TypeSQLite:
		db, err := b.sqliteDB()
		if err != nil {
			return nil, err
		}
		opts := []sqlite.Option{sqlite.WithCodec(c)}
		if sc.ModelName != "" {
			opts = append(opts, sqlite.WithModelName(sc.ModelName))
		}
		return sqlite.New(db, model, opts...), nil

	case TypeDynamoDB:
		client, err := b.dynamoClient(ctx)
		if err != nil {
			return nil, err
		}
		opts := []dynamodb.Option{dynamodb.WithLogger(b.logger)}
		if len(sc.KeyTemplates) > 0 {
			opts = append(opts, dynamodb.WithKeyTemplates(sc.KeyTemplates))
		}
		if sc.EntityType != "" {
			opts = append(opts, dynamodb.WithEntityType(sc.EntityType))
		}
		return dynamodb.New(client, sc.Table, model, opts...)

	case TypeChain:
		chain := modelstore.NewChain(modelstore.WithLogger(b.logger))
		for _, ref := range sc.Storages {
			chain.Register(ref, b.built[ref])
		}
		return chain, nil

	case TypeManager:
		if sc.Storage == "" {
			return modelstore.NewManager(nil), nil
		}
		return modelstore.NewManager(b.built[sc.Storage]), nil
	}

	return nil, fmt.Errorf("unknown type %q", sc.Type)
}

func (b *builder) redisClient() goredis.UniversalClient {
	if b.redis == nil {
		rc := b.cfg.Backends.Redis
		client := goredis.NewClient(&goredis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		b.redis = client
		b.runtime.closers = append(b.runtime.closers, client.Close)
		b.logger.Info("redis client created", "addr", rc.Addr, "db", rc.DB)
	}
	return b.redis
}

func (b *builder) badgerDB() (*badgerdb.DB, error) {
	if b.badger == nil {
		db, err := badger.Open(b.cfg.Backends.Badger.Dir, b.logger)
		if err != nil {
			return nil, err
		}
		b.badger = db
		b.runtime.closers = append(b.runtime.closers, db.Close)
	}
	return b.badger, nil
}

func (b *builder) sqliteDB() (*sql.DB, error) {
	if b.sqlite == nil {
		db, err := sqlite.Open(b.cfg.Backends.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.sqlite = db
		b.runtime.closers = append(b.runtime.closers, db.Close)
	}
	return b.sqlite, nil
}

func (b *builder) dynamoClient(ctx context.Context) (dynamodb.Client, error) {
	if b.dynamo == nil {
		client, err := dynamodb.NewClient(ctx, b.cfg.Backends.DynamoDB, b.logger)
		if err != nil {
			return nil, err
		}
		b.dynamo = client
	}
	return b.dynamo, nil
}
