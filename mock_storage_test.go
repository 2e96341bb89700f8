/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// mockStorage records every call so tests can assert which adapters a chain consulted
type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Find(ctx context.Context, id any) (any, error) {
	args := m.Called(ctx, id)
	return args.Get(0), args.Error(1)
}

func (m *mockStorage) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	args := m.Called(ctx, ids)
	models, _ := args.Get(0).([]any)
	return models, args.Error(1)
}

func (m *mockStorage) Has(ctx context.Context, id any) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockStorage) FindAll(ctx context.Context) ([]any, error) {
	args := m.Called(ctx)
	models, _ := args.Get(0).([]any)
	return models, args.Error(1)
}

func (m *mockStorage) Flush(ctx context.Context, id any, model any) (bool, error) {
	args := m.Called(ctx, id, model)
	return args.Bool(0), args.Error(1)
}

func (m *mockStorage) Remove(ctx context.Context, id any, model any) (bool, error) {
	args := m.Called(ctx, id, model)
	return args.Bool(0), args.Error(1)
}

func (m *mockStorage) RemoveAll(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// supportingMock adds a support predicate to mockStorage
type supportingMock struct {
	mockStorage
	supports func(model any) bool
}

func (m *supportingMock) Support(model any) bool {
	return m.supports(model)
}
