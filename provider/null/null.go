/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package null provides a Storage that stores nothing, for tests and for
// disabling a layer of a chain.
package null

import (
	"context"

	"github.com/suparena/modelstore"
)

// Storage discards writes and never finds anything.
type Storage struct {
	modelstore.Base
}

// New creates a Storage for the given model type.
func New(model modelstore.ModelType) *Storage {
	return &Storage{Base: modelstore.NewBase(model)}
}

func (s *Storage) Find(ctx context.Context, id any) (any, error) {
	return nil, nil
}

func (s *Storage) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	return []any{}, nil
}

func (s *Storage) Has(ctx context.Context, id any) (bool, error) {
	return false, nil
}

func (s *Storage) FindAll(ctx context.Context) ([]any, error) {
	return []any{}, nil
}

func (s *Storage) Flush(ctx context.Context, id any, model any) (bool, error) {
	return true, nil
}

func (s *Storage) Remove(ctx context.Context, id any, model any) (bool, error) {
	return true, nil
}

func (s *Storage) RemoveAll(ctx context.Context) (bool, error) {
	return true, nil
}

var (
	_ modelstore.Storage      = (*Storage)(nil)
	_ modelstore.SupportAware = (*Storage)(nil)
)
