/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package badger provides a Storage on an embedded Badger database. Keys are
// namespaced per model type, so one database can hold several storages.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/codec"
	"github.com/suparena/modelstore/identity"
)

// Storage is a Badger adapter.
type Storage struct {
	modelstore.Base

	db       *badger.DB
	keys     *identity.KeyBuilder
	codec    codec.Codec
	lifetime time.Duration
}

// Option configures a Storage
type Option func(*Storage)

// WithNamespace sets the namespace prefix mixed into every key.
func WithNamespace(prefix string) Option {
	return func(s *Storage) {
		s.keys.Prefix = prefix
	}
}

// WithLifetime expires entries lifetime after each flush; 0 keeps them forever.
func WithLifetime(lifetime time.Duration) Option {
	return func(s *Storage) {
		s.lifetime = lifetime
	}
}

// WithCodec selects the model encoding, JSON by default.
func WithCodec(c codec.Codec) Option {
	return func(s *Storage) {
		s.codec = c
	}
}

// Open opens a Badger database in dir; an empty dir opens an in-memory database.
func Open(dir string, logger *slog.Logger) (*badger.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}
	logger.Info("badger database opened", "dir", dir, "in_memory", dir == "")
	return db, nil
}

// New creates a Storage over db. The caller owns db and closes it.
func New(db *badger.DB, model modelstore.ModelType, opts ...Option) *Storage {
	s := &Storage{
		Base:  modelstore.NewBase(model),
		db:    db,
		keys:  identity.NewKeyBuilder(model.Name(), ""),
		codec: codec.JSON,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storage) prefix() []byte {
	return []byte(s.keys.Namespace() + identity.KeySeparator)
}

func (s *Storage) decode(value []byte) (any, error) {
	return s.Model.Decode(value, s.codec.Unmarshal)
}

func get(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Find implements modelstore.Storage
func (s *Storage) Find(ctx context.Context, id any) (any, error) {
	key, err := s.keys.Key(id)
	if err != nil {
		return nil, err
	}

	var value []byte
	err = s.db.View(func(txn *badger.Txn) error {
		value, err = get(txn, key)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger: get %s: %w", key, err)
	}
	if value == nil {
		return nil, nil
	}
	return s.decode(value)
}

// FindMultiple implements modelstore.Storage in a single read transaction.
func (s *Storage) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	keys, err := s.keys.Keys(ids)
	if err != nil {
		return nil, err
	}

	values := make([][]byte, 0, len(keys))
	err = s.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			value, err := get(txn, key)
			if err != nil {
				return err
			}
			if value != nil {
				values = append(values, value)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: get: %w", err)
	}
	return s.decodeAll(values)
}

func (s *Storage) decodeAll(values [][]byte) ([]any, error) {
	models := make([]any, 0, len(values))
	for _, value := range values {
		model, err := s.decode(value)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, nil
}

// Has implements modelstore.Storage
func (s *Storage) Has(ctx context.Context, id any) (bool, error) {
	key, err := s.keys.Key(id)
	if err != nil {
		return false, err
	}

	found := false
	err = s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			found = true
			return nil
		}
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("badger: get %s: %w", key, err)
	}
	return found, nil
}

// FindAll implements modelstore.Storage with a prefix scan in key order.
func (s *Storage) FindAll(ctx context.Context) ([]any, error) {
	var values [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: scan: %w", err)
	}
	return s.decodeAll(values)
}

// Flush implements modelstore.Storage
func (s *Storage) Flush(ctx context.Context, id any, model any) (bool, error) {
	key, err := s.keys.Key(id)
	if err != nil {
		return false, err
	}

	value, err := s.codec.Marshal(model)
	if err != nil {
		return false, fmt.Errorf("failed to encode model %s: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if s.lifetime > 0 {
			entry = entry.WithTTL(s.lifetime)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return false, fmt.Errorf("badger: set %s: %w", key, err)
	}
	return true, nil
}

// Remove implements modelstore.Storage
func (s *Storage) Remove(ctx context.Context, id any, model any) (bool, error) {
	key, err := s.keys.Key(id)
	if err != nil {
		return false, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return false, fmt.Errorf("badger: delete %s: %w", key, err)
	}
	return true, nil
}

// RemoveAll drops every key of the storage's namespace.
func (s *Storage) RemoveAll(ctx context.Context) (bool, error) {
	if err := s.db.DropPrefix(s.prefix()); err != nil {
		return false, fmt.Errorf("badger: drop prefix: %w", err)
	}
	return true, nil
}

// FindOrCreate implements modelstore.CreateAware
func (s *Storage) FindOrCreate(ctx context.Context, id any) (any, error) {
	return modelstore.FindOrCreate(ctx, s, id)
}

var (
	_ modelstore.Storage      = (*Storage)(nil)
	_ modelstore.SupportAware = (*Storage)(nil)
	_ modelstore.CreateAware  = (*Storage)(nil)
)

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
