/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"log/slog"

	"github.com/suparena/modelstore/errors"
)

// Factory resolves top-level storages (managers, chains or plain adapters) by
// logical name.
type Factory struct {
	registry *Registry
	logger   *slog.Logger
}

// NewFactory creates a Factory over registry, or over a new one when nil.
func NewFactory(registry *Registry) *Factory {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Factory{
		registry: registry,
		logger:   slog.Default(),
	}
}

// WithLogger sets the factory's logger and returns the factory.
func (f *Factory) WithLogger(logger *slog.Logger) *Factory {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// Register makes storage available under name, replacing any previous one.
func (f *Factory) Register(name string, storage Storage) *Factory {
	f.registry.Register(name, storage)
	f.logger.Debug("storage registered", "name", name)
	return f
}

// GetStorage returns the storage registered under name.
func (f *Factory) GetStorage(name string) (Storage, error) {
	storage := f.registry.Get(name)
	if storage == nil {
		return nil, errors.NewMissingStorageError(name)
	}
	return storage, nil
}

// Has reports whether name is registered.
func (f *Factory) Has(name string) bool {
	return f.registry.Has(name)
}

// Names lists registered storage names in registration order.
func (f *Factory) Names() []string {
	return f.registry.Names()
}
