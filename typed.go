/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"fmt"

	"github.com/suparena/modelstore/errors"
)

// Typed provides type-safe access to a Storage holding models of type T
type Typed[T any] struct {
	storage Storage
}

// NewTyped wraps storage for models of type T
func NewTyped[T any](storage Storage) *Typed[T] {
	return &Typed[T]{storage: storage}
}

// GetTyped is a convenience function to resolve a named storage for type T
func GetTyped[T any](f *Factory, name string) (*Typed[T], error) {
	storage, err := f.GetStorage(name)
	if err != nil {
		return nil, err
	}
	return NewTyped[T](storage), nil
}

// Storage returns the wrapped storage
func (t *Typed[T]) Storage() Storage {
	return t.storage
}

func (t *Typed[T]) assert(model any) (T, error) {
	typed, ok := model.(T)
	if !ok {
		var zero T
		return zero, errors.NewValidationError("model", fmt.Sprintf("%T is not %T", model, zero))
	}
	return typed, nil
}

// Find retrieves the model for id; ok is false when it does not exist
func (t *Typed[T]) Find(ctx context.Context, id any) (model T, ok bool, err error) {
	found, err := t.storage.Find(ctx, id)
	if err != nil || found == nil {
		return model, false, err
	}
	model, err = t.assert(found)
	if err != nil {
		return model, false, err
	}
	return model, true, nil
}

// Get is Find returning a NotFoundError for unknown identifiers
func (t *Typed[T]) Get(ctx context.Context, id any) (T, error) {
	model, ok, err := t.Find(ctx, id)
	if err != nil {
		return model, err
	}
	if !ok {
		return model, errors.NewNotFoundError(fmt.Sprintf("%T", model), fmt.Sprint(id))
	}
	return model, nil
}

// FindMultiple retrieves the models for ids in request order
func (t *Typed[T]) FindMultiple(ctx context.Context, ids ...any) ([]T, error) {
	found, err := t.storage.FindMultiple(ctx, ids)
	if err != nil {
		return nil, err
	}
	return t.all(found)
}

// FindAll retrieves every model
func (t *Typed[T]) FindAll(ctx context.Context) ([]T, error) {
	found, err := t.storage.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return t.all(found)
}

func (t *Typed[T]) all(found []any) ([]T, error) {
	models := make([]T, 0, len(found))
	for _, f := range found {
		model, err := t.assert(f)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, nil
}

// Has reports whether id exists
func (t *Typed[T]) Has(ctx context.Context, id any) (bool, error) {
	return t.storage.Has(ctx, id)
}

// Flush stores model under id
func (t *Typed[T]) Flush(ctx context.Context, id any, model T) (bool, error) {
	return t.storage.Flush(ctx, id, model)
}

// Remove deletes the model stored under id
func (t *Typed[T]) Remove(ctx context.Context, id any, model T) (bool, error) {
	return t.storage.Remove(ctx, id, model)
}
