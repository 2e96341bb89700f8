/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package session provides a Storage over the attribute bag of a user session.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/identity"
)

// DefaultNamespace is the bag key of wildcard storages.
const DefaultNamespace = "storage"

// namespaceMu serializes the creation of namespace entries across storages.
var namespaceMu sync.Mutex

// Storage keeps models in their own MemoryBag stored in the session Bag
// under the storage's namespace, keyed by flattened identifier. Storages on
// one bag are isolated unless they use the same namespace.
type Storage struct {
	modelstore.Base

	bag       Bag
	namespace string
	flattener identity.Flattener
}

// Option configures a Storage
type Option func(*Storage)

// WithNamespace overrides the bag key holding the storage's models. It
// defaults to the model type name.
func WithNamespace(namespace string) Option {
	return func(s *Storage) {
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// WithFlattener overrides the identifier flattener.
func WithFlattener(f identity.Flattener) Option {
	return func(s *Storage) {
		s.flattener = f
	}
}

// New creates a Storage over bag.
func New(bag Bag, model modelstore.ModelType, opts ...Option) *Storage {
	s := &Storage{
		Base:      modelstore.NewBase(model),
		bag:       bag,
		namespace: model.Name(),
		flattener: identity.NewFlattener(),
	}
	if s.namespace == "" {
		s.namespace = DefaultNamespace
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace returns the bag key holding the storage's models.
func (s *Storage) Namespace() string {
	return s.namespace
}

func (s *Storage) key(id any) string {
	return s.flattener.Flatten(id)
}

// models returns the namespace bag, creating it when create is set. A missing
// namespace yields nil.
func (s *Storage) models(create bool) (*MemoryBag, error) {
	if v, ok := s.bag.Get(s.namespace); ok {
		return s.asNamespace(v)
	}
	if !create {
		return nil, nil
	}

	namespaceMu.Lock()
	defer namespaceMu.Unlock()
	if v, ok := s.bag.Get(s.namespace); ok {
		return s.asNamespace(v)
	}
	ns := NewMemoryBag()
	s.bag.Set(s.namespace, ns)
	return ns, nil
}

func (s *Storage) asNamespace(v any) (*MemoryBag, error) {
	ns, ok := v.(*MemoryBag)
	if !ok {
		return nil, fmt.Errorf("session key %q holds a %T, not a storage namespace", s.namespace, v)
	}
	return ns, nil
}

// Find implements modelstore.Storage
func (s *Storage) Find(ctx context.Context, id any) (any, error) {
	ns, err := s.models(false)
	if err != nil || ns == nil {
		return nil, err
	}
	model, _ := ns.Get(s.key(id))
	return model, nil
}

// FindMultiple implements modelstore.Storage
func (s *Storage) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	return modelstore.FindEach(ctx, ids, s.Find)
}

// Has implements modelstore.Storage
func (s *Storage) Has(ctx context.Context, id any) (bool, error) {
	ns, err := s.models(false)
	if err != nil || ns == nil {
		return false, err
	}
	_, ok := ns.Get(s.key(id))
	return ok, nil
}

// FindAll implements modelstore.Storage in insertion order.
func (s *Storage) FindAll(ctx context.Context) ([]any, error) {
	ns, err := s.models(false)
	if err != nil {
		return nil, err
	}
	if ns == nil {
		return []any{}, nil
	}

	keys := ns.Keys()
	models := make([]any, 0, len(keys))
	for _, k := range keys {
		if model, ok := ns.Get(k); ok {
			models = append(models, model)
		}
	}
	return models, nil
}

// Flush implements modelstore.Storage
func (s *Storage) Flush(ctx context.Context, id any, model any) (bool, error) {
	ns, err := s.models(true)
	if err != nil {
		return false, err
	}
	ns.Set(s.key(id), model)
	return true, nil
}

// Remove implements modelstore.Storage
func (s *Storage) Remove(ctx context.Context, id any, model any) (bool, error) {
	ns, err := s.models(false)
	if err != nil {
		return false, err
	}
	if ns != nil {
		ns.Delete(s.key(id))
	}
	return true, nil
}

// RemoveAll implements modelstore.Storage by dropping the namespace. Other
// bag keys survive.
func (s *Storage) RemoveAll(ctx context.Context) (bool, error) {
	if _, err := s.models(false); err != nil {
		return false, err
	}
	s.bag.Delete(s.namespace)
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
	_ Bag                     = (*MemoryBag)(nil)
)
