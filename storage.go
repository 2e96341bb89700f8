/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import "context"

// Storage is the contract every backend adapter, chain and manager implements.
//
// Identifiers are ints, strings or identity.Composite values; models are opaque.
// Find returns nil, nil when the identifier is unknown.
type Storage interface {
	Find(ctx context.Context, id any) (any, error)

	// FindMultiple returns models in the order the identifiers were requested,
	// silently dropping identifiers that do not resolve.
	FindMultiple(ctx context.Context, ids []any) ([]any, error)

	Has(ctx context.Context, id any) (bool, error)

	FindAll(ctx context.Context) ([]any, error)

	Flush(ctx context.Context, id any, model any) (bool, error)

	Remove(ctx context.Context, id any, model any) (bool, error)

	RemoveAll(ctx context.Context) (bool, error)
}

// SupportAware is implemented by storages that only accept some model types.
// Storages without it support every model.
type SupportAware interface {
	Support(model any) bool
}

// CreateAware is implemented by storages able to instantiate their model type.
type CreateAware interface {
	Create(ctx context.Context) (any, error)
	FindOrCreate(ctx context.Context, id any) (any, error)
}

// MergeStrategy folds the results of several storages holding the same identifier.
// previous is nil for the first hit.
type MergeStrategy interface {
	Merge(next, previous any) any
}

// MergeFunc adapts a function to MergeStrategy.
type MergeFunc func(next, previous any) any

// Merge implements MergeStrategy.
func (f MergeFunc) Merge(next, previous any) any {
	return f(next, previous)
}

type creatingStorage interface {
	Storage
	Create(ctx context.Context) (any, error)
}

// FindOrCreate finds id in s and falls back to s.Create when it is absent.
// Adapters use it to implement CreateAware.FindOrCreate.
func FindOrCreate(ctx context.Context, s creatingStorage, id any) (any, error) {
	model, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if model != nil {
		return model, nil
	}
	return s.Create(ctx)
}

// FindEach resolves ids one by one through find, keeping request order and
// dropping identifiers that resolve to nil. Adapters without a batch read use it
// for FindMultiple.
func FindEach(ctx context.Context, ids []any, find func(context.Context, any) (any, error)) ([]any, error) {
	models := make([]any, 0, len(ids))
	for _, id := range ids {
		model, err := find(ctx, id)
		if err != nil {
			return nil, err
		}
		if model != nil {
			models = append(models, model)
		}
	}
	return models, nil
}

// Compile-time interface compliance checks
var (
	_ Storage     = (*Chain)(nil)
	_ Storage     = (*Manager)(nil)
	_ CreateAware = (*Manager)(nil)
)
