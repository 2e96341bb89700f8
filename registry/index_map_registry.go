/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"

	"github.com/suparena/modelstore"
)

// IndexMapRegistry associates model types with their DynamoDB key templates.

var (
	indexMapRegistry = make(map[reflect.Type]map[string]string)
	mu               sync.RWMutex
)

// RegisterIndexMap associates T with a key template map (PK, SK, etc.).
func RegisterIndexMap[T any](idxMap map[string]string) {
	RegisterIndexMapFor(modelstore.ModelOf[T](), idxMap)
}

// RegisterIndexMapFor associates model with a key template map.
func RegisterIndexMapFor(model modelstore.ModelType, idxMap map[string]string) {
	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[model.Type()] = idxMap
}

// GetIndexMap retrieves the key templates for T, if any.
func GetIndexMap[T any]() (map[string]string, bool) {
	return GetIndexMapFor(modelstore.ModelOf[T]())
}

// GetIndexMapFor retrieves the key templates of model, if any.
func GetIndexMapFor(model modelstore.ModelType) (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[model.Type()]
	return m, ok
}
