/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"fmt"
	"reflect"

	"github.com/suparena/modelstore/errors"
)

// Manager is a facade over exactly one storage, adapter or chain. Every
// operation fails with a MissingStorageError while no storage is configured.
type Manager struct {
	storage Storage
}

// NewManager creates a Manager. storage may be nil and set later; a nil
// pointer behind the interface counts as nil.
func NewManager(storage Storage) *Manager {
	return &Manager{storage: orNil(storage)}
}

// SetStorage replaces the wrapped storage.
func (m *Manager) SetStorage(storage Storage) {
	m.storage = orNil(storage)
}

// orNil collapses a typed nil, e.g. (*memory.Storage)(nil), to a nil Storage.
func orNil(storage Storage) Storage {
	if storage == nil {
		return nil
	}
	switch v := reflect.ValueOf(storage); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			return nil
		}
	}
	return storage
}

// HasStorage reports whether a storage is configured.
func (m *Manager) HasStorage() bool {
	return m.storage != nil
}

// Storage returns the wrapped storage, or nil.
func (m *Manager) Storage() Storage {
	return m.storage
}

func (m *Manager) guard() error {
	if m.storage == nil {
		return &errors.MissingStorageError{}
	}
	return nil
}

func (m *Manager) creator(operation string) (CreateAware, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	ca, ok := m.storage.(CreateAware)
	if !ok {
		return nil, errors.NewUnsupportedError(operation, fmt.Sprintf("%T", m.storage))
	}
	return ca, nil
}

// Create delegates to the storage's CreateAware implementation.
func (m *Manager) Create(ctx context.Context) (any, error) {
	ca, err := m.creator("create")
	if err != nil {
		return nil, err
	}
	return ca.Create(ctx)
}

// FindOrCreate delegates to the storage's CreateAware implementation.
func (m *Manager) FindOrCreate(ctx context.Context, id any) (any, error) {
	ca, err := m.creator("findOrCreate")
	if err != nil {
		return nil, err
	}
	return ca.FindOrCreate(ctx, id)
}

// Find implements Storage.
func (m *Manager) Find(ctx context.Context, id any) (any, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.storage.Find(ctx, id)
}

// FindMultiple implements Storage.
func (m *Manager) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.storage.FindMultiple(ctx, ids)
}

// Has implements Storage.
func (m *Manager) Has(ctx context.Context, id any) (bool, error) {
	if err := m.guard(); err != nil {
		return false, err
	}
	return m.storage.Has(ctx, id)
}

// FindAll implements Storage.
func (m *Manager) FindAll(ctx context.Context) ([]any, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.storage.FindAll(ctx)
}

// Flush implements Storage.
func (m *Manager) Flush(ctx context.Context, id any, model any) (bool, error) {
	if err := m.guard(); err != nil {
		return false, err
	}
	return m.storage.Flush(ctx, id, model)
}

// Remove implements Storage.
func (m *Manager) Remove(ctx context.Context, id any, model any) (bool, error) {
	if err := m.guard(); err != nil {
		return false, err
	}
	return m.storage.Remove(ctx, id, model)
}

// RemoveAll implements Storage.
func (m *Manager) RemoveAll(ctx context.Context) (bool, error) {
	if err := m.guard(); err != nil {
		return false, err
	}
	return m.storage.RemoveAll(ctx)
}
