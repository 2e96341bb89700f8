/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package redis provides a Storage backed by a Redis keyspace. Models are
// encoded with a codec and written under "<namespace>:<identifier>", with an
// optional lifetime.
package redis

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/codec"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/identity"
)

const backend = "redis"

const scanCount = 100

// Storage is a Redis adapter. RemoveAll flushes the selected database, so
// give each Storage a database of its own when that matters.
type Storage struct {
	modelstore.Base

	client   goredis.UniversalClient
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

// WithLifetime expires keys lifetime after each flush; 0 keeps them forever.
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

// WithNamespaceGenerator replaces the namespace generator.
func WithNamespaceGenerator(g identity.NamespaceGenerator) Option {
	return func(s *Storage) {
		s.keys.Generator = g
	}
}

// New creates a Storage over client.
func New(client goredis.UniversalClient, model modelstore.ModelType, opts ...Option) *Storage {
	s := &Storage{
		Base:   modelstore.NewBase(model),
		client: client,
		keys:   identity.NewKeyBuilder(model.Name(), ""),
		codec:  codec.JSON,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the Redis key of id.
func (s *Storage) Key(id any) (string, error) {
	return s.keys.Key(id)
}

func unavailable(err error) error {
	return errors.NewBackendUnavailableError(backend, err)
}

func (s *Storage) decode(value string) (any, error) {
	return s.Model.Decode([]byte(value), s.codec.Unmarshal)
}

// Find implements modelstore.Storage
func (s *Storage) Find(ctx context.Context, id any) (any, error) {
	key, err := s.keys.Key(id)
	if err != nil {
		return nil, err
	}

	value, err := s.client.Get(ctx, key).Result()
	if stderrors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return s.decode(value)
}

// FindMultiple implements modelstore.Storage with a single MGET.
func (s *Storage) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	keys, err := s.keys.Keys(ids)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, keys)
}

func (s *Storage) fetch(ctx context.Context, keys []string) ([]any, error) {
	if len(keys) == 0 {
		return []any{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	models := make([]any, 0, len(values))
	for i, v := range values {
		value, ok := v.(string)
		if !ok {
			continue
		}
		model, err := s.decode(value)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", keys[i], err)
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

	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

// FindAll implements modelstore.Storage. The namespace is walked with SCAN and
// models are returned in key order.
func (s *Storage) FindAll(ctx context.Context) ([]any, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.keys.Pattern(), scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable(err)
	}

	sort.Strings(keys)
	return s.fetch(ctx, keys)
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

	if err := s.client.Set(ctx, key, value, s.lifetime).Err(); err != nil {
		return false, unavailable(err)
	}
	return true, nil
}

// Remove implements modelstore.Storage
func (s *Storage) Remove(ctx context.Context, id any, model any) (bool, error) {
	key, err := s.keys.Key(id)
	if err != nil {
		return false, err
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return false, unavailable(err)
	}
	return true, nil
}

// RemoveAll flushes the whole database.
func (s *Storage) RemoveAll(ctx context.Context) (bool, error) {
	if err := s.client.FlushDB(ctx).Err(); err != nil {
		return false, unavailable(err)
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
