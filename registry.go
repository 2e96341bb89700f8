/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import "sync"

// Entry is a named registration.
type Entry struct {
	Name    string
	Storage Storage
}

// Registry is an ordered, named collection of storages. Registration order is
// significant: chains read from storages in that order.
//
// Re-registering an existing name replaces the storage in place and keeps its
// position. Storages are never invoked while the registry lock is held.
type Registry struct {
	mu       sync.RWMutex
	names    []string
	storages map[string]Storage
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		storages: make(map[string]Storage),
	}
}

// Register inserts or replaces the storage registered under name.
// A nil storage, typed or not, is ignored.
func (r *Registry) Register(name string, storage Storage) *Registry {
	if orNil(storage) == nil {
		return r
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.storages[name]; !exists {
		r.names = append(r.names, name)
	}
	r.storages[name] = storage
	return r
}

// Unregister removes the storage registered under name, if any.
func (r *Registry) Unregister(name string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.storages[name]; !exists {
		return r
	}
	delete(r.storages, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i:i], r.names[i+1:]...)
			break
		}
	}
	return r
}

// All returns the registered storages in registration order.
func (r *Registry) All() []Storage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	storages := make([]Storage, len(r.names))
	for i, name := range r.names {
		storages[i] = r.storages[name]
	}
	return storages
}

// Entries returns the registrations in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, len(r.names))
	for i, name := range r.names {
		entries[i] = Entry{Name: name, Storage: r.storages[name]}
	}
	return entries
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Get returns the storage registered under name, or nil.
func (r *Registry) Get(name string) Storage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.storages[name]
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.storages[name]
	return exists
}

// Count returns the number of registrations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
