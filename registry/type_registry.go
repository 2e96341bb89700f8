/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/modelstore"
)

// typeRegistry maps a model name (like "product") to its declared model type.
var (
	typeRegistry = make(map[string]modelstore.ModelType)
	typeMu       sync.RWMutex
)

// RegisterType registers a model type under name.
// If a type is already registered for the given name, it panics to prevent accidental overrides.
func RegisterType(name string, model modelstore.ModelType) {
	typeMu.Lock()
	defer typeMu.Unlock()

	if _, exists := typeRegistry[name]; exists {
		panic(fmt.Sprintf("type registry: type %q already registered", name))
	}
	typeRegistry[name] = model
}

// Register is RegisterType for T.
func Register[T any](name string) {
	RegisterType(name, modelstore.ModelOf[T]())
}

// LookupType returns the model type registered under name.
// The empty name and "any" resolve to the wildcard model type.
func LookupType(name string) (modelstore.ModelType, error) {
	if name == "" || name == "any" {
		return modelstore.ModelType{}, nil
	}

	typeMu.RLock()
	defer typeMu.RUnlock()

	model, ok := typeRegistry[name]
	if !ok {
		return modelstore.ModelType{}, fmt.Errorf("type registry: no type registered for %q", name)
	}
	return model, nil
}

// TypeNames lists the registered names in sorted order.
func TypeNames() []string {
	typeMu.RLock()
	defer typeMu.RUnlock()

	names := make([]string, 0, len(typeRegistry))
	for name := range typeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
