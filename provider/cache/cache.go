/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package cache provides a Storage over a key-value cache pool. Keys are
// namespaced per model type; listing is not available.
package cache

import (
	"context"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/identity"
)

// Storage writes models to a Pool under "<namespace>:<identifier>".
type Storage struct {
	modelstore.Base

	pool Pool
	keys *identity.KeyBuilder
}

// Option configures a Storage
type Option func(*Storage)

// WithNamespace sets the namespace prefix mixed into every key.
func WithNamespace(prefix string) Option {
	return func(s *Storage) {
		s.keys.Prefix = prefix
	}
}

// WithNamespaceGenerator replaces the namespace generator.
func WithNamespaceGenerator(g identity.NamespaceGenerator) Option {
	return func(s *Storage) {
		s.keys.Generator = g
	}
}

// New creates a Storage over pool.
func New(pool Pool, model modelstore.ModelType, opts ...Option) *Storage {
	s := &Storage{
		Base: modelstore.NewBase(model),
		pool: pool,
		keys: identity.NewKeyBuilder(model.Name(), ""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the pool key of id.
func (s *Storage) Key(id any) (string, error) {
	return s.keys.Key(id)
}

// Find implements modelstore.Storage
func (s *Storage) Find(ctx context.Context, id any) (any, error) {
	key, err := s.keys.Key(id)
	if err != nil {
		return nil, err
	}
	model, ok := s.pool.Get(key)
	if !ok {
		return nil, nil
	}
	return model, nil
}

// FindMultiple implements modelstore.Storage
func (s *Storage) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	keys, err := s.keys.Keys(ids)
	if err != nil {
		return nil, err
	}
	models := make([]any, 0, len(keys))
	for _, key := range keys {
		if model, ok := s.pool.Get(key); ok {
			models = append(models, model)
		}
	}
	return models, nil
}

// Has implements modelstore.Storage
func (s *Storage) Has(ctx context.Context, id any) (bool, error) {
	key, err := s.keys.Key(id)
	if err != nil {
		return false, err
	}
	return s.pool.Has(key), nil
}

// FindAll is not supported by cache pools.
func (s *Storage) FindAll(ctx context.Context) ([]any, error) {
	return nil, errors.NewUnsupportedError("findAll", "cache")
}

// Flush implements modelstore.Storage
func (s *Storage) Flush(ctx context.Context, id any, model any) (bool, error) {
	key, err := s.keys.Key(id)
	if err != nil {
		return false, err
	}
	return s.pool.Save(key, model), nil
}

// Remove implements modelstore.Storage
func (s *Storage) Remove(ctx context.Context, id any, model any) (bool, error) {
	key, err := s.keys.Key(id)
	if err != nil {
		return false, err
	}
	return s.pool.Delete(key), nil
}

// RemoveAll clears the whole pool, including entries of other namespaces.
func (s *Storage) RemoveAll(ctx context.Context) (bool, error) {
	return s.pool.Clear(), nil
}

// FindOrCreate implements modelstore.CreateAware
func (s *Storage) FindOrCreate(ctx context.Context, id any) (any, error) {
	return modelstore.FindOrCreate(ctx, s, id)
}

var (
	_ modelstore.Storage      = (*Storage)(nil)
	_ modelstore.SupportAware = (*Storage)(nil)
	_ modelstore.CreateAware  = (*Storage)(nil)
	_ Pool                    = (*LRUPool)(nil)
)
