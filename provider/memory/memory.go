/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-process Storage backed by an insertion-ordered map
package memory

import (
	"context"
	"sync"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/identity"
)

// Storage keeps models in memory keyed by their flattened identifier.
// FindAll returns models in the order their keys were first flushed.
type Storage struct {
	modelstore.Base

	mu        sync.RWMutex
	flattener identity.Flattener
	keys      []string
	models    map[string]any

	flushError     error
	removeError    error
	removeAllError error
}

// Option configures a Storage
type Option func(*Storage)

// WithFlattener overrides the identifier flattener
func WithFlattener(f identity.Flattener) Option {
	return func(s *Storage) {
		s.flattener = f
	}
}

// New creates a Storage for the given model type; the zero ModelType accepts every model
func New(model modelstore.ModelType, opts ...Option) *Storage {
	s := &Storage{
		Base:      modelstore.NewBase(model),
		flattener: identity.NewFlattener(),
		models:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithFlushError makes Flush operations return an error
func (s *Storage) WithFlushError(err error) *Storage {
	s.flushError = err
	return s
}

// WithRemoveError makes Remove operations return an error
func (s *Storage) WithRemoveError(err error) *Storage {
	s.removeError = err
	return s
}

// WithRemoveAllError makes RemoveAll operations return an error
func (s *Storage) WithRemoveAllError(err error) *Storage {
	s.removeAllError = err
	return s
}

// Find implements modelstore.Storage
func (s *Storage) Find(ctx context.Context, id any) (any, error) {
	key := s.flattener.Flatten(id)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models[key], nil
}

// FindMultiple implements modelstore.Storage
func (s *Storage) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	return modelstore.FindEach(ctx, ids, s.Find)
}

// Has implements modelstore.Storage
func (s *Storage) Has(ctx context.Context, id any) (bool, error) {
	key := s.flattener.Flatten(id)

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.models[key]
	return exists, nil
}

// FindAll implements modelstore.Storage
func (s *Storage) FindAll(ctx context.Context) ([]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models := make([]any, 0, len(s.keys))
	for _, key := range s.keys {
		models = append(models, s.models[key])
	}
	return models, nil
}

// Flush implements modelstore.Storage
func (s *Storage) Flush(ctx context.Context, id any, model any) (bool, error) {
	if s.flushError != nil {
		return false, s.flushError
	}
	key := s.flattener.Flatten(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.models[key] = model
	return true, nil
}

// Remove implements modelstore.Storage. Removing an unknown identifier succeeds.
func (s *Storage) Remove(ctx context.Context, id any, model any) (bool, error) {
	if s.removeError != nil {
		return false, s.removeError
	}
	key := s.flattener.Flatten(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[key]; !exists {
		return true, nil
	}
	delete(s.models, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i:i], s.keys[i+1:]...)
			break
		}
	}
	return true, nil
}

// RemoveAll implements modelstore.Storage
func (s *Storage) RemoveAll(ctx context.Context) (bool, error) {
	if s.removeAllError != nil {
		return false, s.removeAllError
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = nil
	s.models = make(map[string]any)
	return true, nil
}

// FindOrCreate implements modelstore.CreateAware
func (s *Storage) FindOrCreate(ctx context.Context, id any) (any, error) {
	return modelstore.FindOrCreate(ctx, s, id)
}

// Helper methods for testing

// Count returns the number of stored models
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Keys returns the flattened keys in insertion order
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Compile-time interface compliance checks
var (
	_ modelstore.Storage      = (*Storage)(nil)
	_ modelstore.SupportAware = (*Storage)(nil)
	_ modelstore.CreateAware  = (*Storage)(nil)
)
