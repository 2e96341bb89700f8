/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"fmt"

	"github.com/suparena/modelstore/errors"
)

// Locator selects the registered storages that accept a model.
type Locator struct {
	registry *Registry
}

// NewLocator creates a Locator bound to registry.
func NewLocator(registry *Registry) *Locator {
	return &Locator{registry: registry}
}

// Locate returns, in registration order, every storage whose Support accepts
// model. Storages that are not SupportAware accept everything. An empty result
// is a MissingStorageError naming the model type.
func (l *Locator) Locate(model any) ([]Storage, error) {
	entries, err := l.LocateEntries(model)
	if err != nil {
		return nil, err
	}
	storages := make([]Storage, len(entries))
	for i, e := range entries {
		storages[i] = e.Storage
	}
	return storages, nil
}

// LocateEntries is Locate keeping the registration names.
func (l *Locator) LocateEntries(model any) ([]Entry, error) {
	var located []Entry
	for _, e := range l.registry.Entries() {
		if sa, ok := e.Storage.(SupportAware); ok && !sa.Support(model) {
			continue
		}
		located = append(located, e)
	}

	if len(located) == 0 {
		return nil, errors.NewMissingStorageForModelError(fmt.Sprintf("%T", model))
	}
	return located, nil
}
