/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore"
	serrors "github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/identity"
	"github.com/suparena/modelstore/internal/testmodels"
	"github.com/suparena/modelstore/provider/memory"
)

type chainFixture struct {
	apple    *testmodels.Product
	pear     *testmodels.Product
	storage1 *memory.Storage
	storage2 *memory.Storage
	chain    *modelstore.Chain
}

func newChainFixture(t *testing.T) *chainFixture {
	t.Helper()
	ctx := context.Background()

	f := &chainFixture{
		apple:    testmodels.NewProduct(1, "foo", "Apple"),
		pear:     testmodels.NewProduct(2, "bar", "Pear"),
		storage1: memory.New(modelstore.ModelOf[*testmodels.Product]()),
		storage2: memory.New(modelstore.ModelOf[*testmodels.Product]()),
	}
	_, err := f.storage1.Flush(ctx, 2, f.pear)
	require.NoError(t, err)
	_, err = f.storage2.Flush(ctx, 2, f.pear)
	require.NoError(t, err)

	f.chain = modelstore.NewChain().
		Register("product1", f.storage1).
		Register("product2", f.storage2)
	return f
}

func TestChainFind(t *testing.T) {
	ctx := context.Background()

	t.Run("Hit", func(t *testing.T) {
		f := newChainFixture(t)
		model, err := f.chain.Find(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, f.pear, model)
	})

	t.Run("MissingModel", func(t *testing.T) {
		f := newChainFixture(t)
		model, err := f.chain.Find(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, model)
	})

	t.Run("WithoutStorages", func(t *testing.T) {
		model, err := modelstore.NewChain().Find(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, model)
	})

	t.Run("FirstRegisteredWinsAndShortCircuits", func(t *testing.T) {
		modelX := testmodels.NewProduct(2, "x", "X")
		modelY := testmodels.NewProduct(2, "y", "Y")

		a := &mockStorage{}
		a.On("Has", mock.Anything, 2).Return(true, nil)
		a.On("Find", mock.Anything, 2).Return(modelX, nil)
		b := &mockStorage{}
		b.On("Has", mock.Anything, 2).Return(true, nil)
		b.On("Find", mock.Anything, 2).Return(modelY, nil)

		chain := modelstore.NewChain().Register("a", a).Register("b", b)

		model, err := chain.Find(ctx, 2)
		require.NoError(t, err)
		assert.Same(t, modelX, model)

		a.AssertNumberOfCalls(t, "Find", 1)
		b.AssertNumberOfCalls(t, "Find", 0)
		b.AssertNumberOfCalls(t, "Has", 0)
	})

	t.Run("SkipsStoragesWithoutIdentifier", func(t *testing.T) {
		modelY := testmodels.NewProduct(2, "y", "Y")

		a := &mockStorage{}
		a.On("Has", mock.Anything, 2).Return(false, nil)
		b := &mockStorage{}
		b.On("Has", mock.Anything, 2).Return(true, nil)
		b.On("Find", mock.Anything, 2).Return(modelY, nil)

		chain := modelstore.NewChain().Register("a", a).Register("b", b)

		model, err := chain.Find(ctx, 2)
		require.NoError(t, err)
		assert.Same(t, modelY, model)
		a.AssertNotCalled(t, "Find", mock.Anything, 2)
	})

	t.Run("AdapterErrorPropagates", func(t *testing.T) {
		boom := serrors.NewBackendUnavailableError("redis", errors.New("refused"))
		a := &mockStorage{}
		a.On("Has", mock.Anything, 2).Return(false, boom)
		b := &mockStorage{}

		chain := modelstore.NewChain().Register("a", a).Register("b", b)

		_, err := chain.Find(ctx, 2)
		assert.ErrorIs(t, err, boom)
		assert.True(t, serrors.IsBackendUnavailable(err))
		b.AssertNotCalled(t, "Has", mock.Anything, mock.Anything)
	})
}

func TestChainFindWithMergeStrategy(t *testing.T) {
	ctx := context.Background()
	modelX := testmodels.NewProduct(2, "x", "")
	modelY := testmodels.NewProduct(2, "", "described")

	newMocks := func() (*mockStorage, *mockStorage, *mockStorage) {
		a := &mockStorage{}
		a.On("Has", mock.Anything, 2).Return(true, nil)
		a.On("Find", mock.Anything, 2).Return(modelX, nil)
		empty := &mockStorage{}
		empty.On("Has", mock.Anything, 2).Return(false, nil)
		b := &mockStorage{}
		b.On("Has", mock.Anything, 2).Return(true, nil)
		b.On("Find", mock.Anything, 2).Return(modelY, nil)
		return a, empty, b
	}

	t.Run("FoldsEveryHitLeftToRight", func(t *testing.T) {
		a, empty, b := newMocks()

		var calls [][2]any
		strategy := modelstore.MergeFunc(func(next, previous any) any {
			calls = append(calls, [2]any{next, previous})
			if previous == nil {
				return next
			}
			merged := *previous.(*testmodels.Product)
			n := next.(*testmodels.Product)
			if merged.Sku == "" {
				merged.Sku = n.Sku
			}
			if merged.Description == "" {
				merged.Description = n.Description
			}
			return &merged
		})

		chain := modelstore.NewChain(modelstore.WithMergeStrategy(strategy)).
			Register("a", a).Register("empty", empty).Register("b", b)

		model, err := chain.Find(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, &testmodels.Product{ID: 2, Sku: "x", Description: "described"}, model)

		require.Len(t, calls, 2)
		assert.Same(t, modelX, calls[0][0])
		assert.Nil(t, calls[0][1])
		assert.Same(t, modelY, calls[1][0])
		b.AssertNumberOfCalls(t, "Find", 1)
		empty.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	})

	t.Run("LastHitWins", func(t *testing.T) {
		a, empty, b := newMocks()
		chain := modelstore.NewChain().Register("a", a).Register("empty", empty).Register("b", b)
		chain.SetMergeStrategy(modelstore.MergeFunc(func(next, _ any) any { return next }))

		model, err := chain.Find(ctx, 2)
		require.NoError(t, err)
		assert.Same(t, modelY, model)
		a.AssertNumberOfCalls(t, "Find", 1)
		b.AssertNumberOfCalls(t, "Find", 1)
	})

	t.Run("ClearingStrategyRestoresShortCircuit", func(t *testing.T) {
		a, empty, b := newMocks()
		chain := modelstore.NewChain(modelstore.WithMergeStrategy(modelstore.MergeFunc(func(next, _ any) any { return next }))).
			Register("a", a).Register("empty", empty).Register("b", b)
		chain.SetMergeStrategy(nil)

		model, err := chain.Find(ctx, 2)
		require.NoError(t, err)
		assert.Same(t, modelX, model)
		b.AssertNumberOfCalls(t, "Find", 0)
	})
}

func TestChainFindMultiple(t *testing.T) {
	ctx := context.Background()

	t.Run("RequestOrder", func(t *testing.T) {
		f := newChainFixture(t)
		_, err := f.chain.Flush(ctx, 1, f.apple)
		require.NoError(t, err)

		models, err := f.chain.FindMultiple(ctx, []any{1, 2})
		require.NoError(t, err)
		assert.Equal(t, []any{f.apple, f.pear}, models)

		models, err = f.chain.FindMultiple(ctx, []any{2, 1})
		require.NoError(t, err)
		assert.Equal(t, []any{f.pear, f.apple}, models)
	})

	t.Run("CompositeIdentifiers", func(t *testing.T) {
		f := newChainFixture(t)
		criteria1 := identity.Columns("product_id", 1)
		criteria2 := identity.Columns("product_id", 2)
		_, err := f.chain.Flush(ctx, criteria1, f.apple)
		require.NoError(t, err)

		models, err := f.chain.FindMultiple(ctx, []any{criteria1, criteria2})
		require.NoError(t, err)
		assert.Equal(t, []any{f.apple, f.pear}, models)
	})

	t.Run("MissingModelsAreDropped", func(t *testing.T) {
		f := newChainFixture(t)
		models, err := f.chain.FindMultiple(ctx, []any{3, 2, 4})
		require.NoError(t, err)
		assert.Equal(t, []any{f.pear}, models)
	})

	t.Run("WithoutStorages", func(t *testing.T) {
		models, err := modelstore.NewChain().FindMultiple(ctx, []any{3, 4})
		require.NoError(t, err)
		assert.Empty(t, models)
	})

	t.Run("EachIdentifierResolvedIndependently", func(t *testing.T) {
		x := testmodels.NewProduct(1, "x", "")
		y := testmodels.NewProduct(2, "y", "")
		a := &mockStorage{}
		a.On("Has", mock.Anything, 1).Return(true, nil)
		a.On("Has", mock.Anything, 2).Return(false, nil)
		a.On("Find", mock.Anything, 1).Return(x, nil)
		b := &mockStorage{}
		b.On("Has", mock.Anything, 2).Return(true, nil)
		b.On("Find", mock.Anything, 2).Return(y, nil)

		chain := modelstore.NewChain().Register("a", a).Register("b", b)

		models, err := chain.FindMultiple(ctx, []any{1, 2})
		require.NoError(t, err)
		assert.Equal(t, []any{x, y}, models)
		b.AssertNotCalled(t, "Has", mock.Anything, 1)
	})
}

func TestChainHas(t *testing.T) {
	ctx := context.Background()
	f := newChainFixture(t)

	has, err := f.chain.Has(ctx, 2)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = f.chain.Has(ctx, 1)
	require.NoError(t, err)
	assert.False(t, has)

	t.Run("ShortCircuits", func(t *testing.T) {
		a := &mockStorage{}
		a.On("Has", mock.Anything, 7).Return(true, nil)
		b := &mockStorage{}

		chain := modelstore.NewChain().Register("a", a).Register("b", b)
		has, err := chain.Has(ctx, 7)
		require.NoError(t, err)
		assert.True(t, has)
		b.AssertNotCalled(t, "Has", mock.Anything, mock.Anything)
	})

	t.Run("AgreesWithFind", func(t *testing.T) {
		single := modelstore.NewChain().Register("only", f.storage1)
		for _, id := range []any{1, 2, 3} {
			has, err := single.Has(ctx, id)
			require.NoError(t, err)
			model, err := single.Find(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, has, model != nil, "identifier %v", id)
		}
	})
}

func TestChainFindAll(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstNonEmptyWins", func(t *testing.T) {
		f := newChainFixture(t)
		_, err := f.storage2.Flush(ctx, 5, f.apple)
		require.NoError(t, err)

		models, err := f.chain.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []any{f.pear}, models)
	})

	t.Run("SkipsEmptyStorages", func(t *testing.T) {
		modelY := testmodels.NewProduct(9, "y", "")
		a := &mockStorage{}
		a.On("FindAll", mock.Anything).Return([]any{}, nil)
		b := &mockStorage{}
		b.On("FindAll", mock.Anything).Return([]any{modelY}, nil)
		c := &mockStorage{}

		chain := modelstore.NewChain().Register("a", a).Register("b", b).Register("c", c)

		models, err := chain.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []any{modelY}, models)
		c.AssertNotCalled(t, "FindAll", mock.Anything)
	})

	t.Run("NotAUnion", func(t *testing.T) {
		a := memory.New(modelstore.ModelType{})
		b := memory.New(modelstore.ModelType{})
		_, _ = a.Flush(ctx, 1, "first")
		_, _ = b.Flush(ctx, 2, "second")

		chain := modelstore.NewChain().Register("a", a).Register("b", b)
		models, err := chain.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []any{"first"}, models)
	})

	t.Run("EmptyChain", func(t *testing.T) {
		models, err := modelstore.NewChain().FindAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, models)
		assert.Empty(t, models)
	})

	t.Run("UnsupportedPropagates", func(t *testing.T) {
		a := &mockStorage{}
		a.On("FindAll", mock.Anything).Return(nil, serrors.NewUnsupportedError("findAll", "cache"))

		chain := modelstore.NewChain().Register("a", a)
		_, err := chain.FindAll(ctx)
		assert.True(t, serrors.IsUnsupported(err))
	})
}

func TestChainFlush(t *testing.T) {
	ctx := context.Background()

	t.Run("WritesToEveryLocatedStorage", func(t *testing.T) {
		f := newChainFixture(t)

		ok, err := f.chain.Flush(ctx, 1, f.apple)
		require.NoError(t, err)
		assert.True(t, ok)

		for _, s := range []*memory.Storage{f.storage1, f.storage2} {
			model, err := s.Find(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, f.apple, model)
		}
	})

	t.Run("FlushThenFind", func(t *testing.T) {
		f := newChainFixture(t)
		orange := testmodels.NewProduct(2, "bar", "Orange")

		ok, err := f.chain.Flush(ctx, 2, orange)
		require.NoError(t, err)
		assert.True(t, ok)

		model, err := f.chain.Find(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, orange, model)
		assert.NotEqual(t, f.pear, model)
	})

	t.Run("RoutesByModelType", func(t *testing.T) {
		products := memory.New(modelstore.ModelOf[*testmodels.Product]())
		categories := memory.New(modelstore.ModelOf[*testmodels.Category]())
		chain := modelstore.NewChain().Register("products", products).Register("categories", categories)

		_, err := chain.Flush(ctx, 1, testmodels.NewCategory(1, "Fruit"))
		require.NoError(t, err)

		assert.Equal(t, 0, products.Count())
		assert.Equal(t, 1, categories.Count())
	})

	t.Run("SucceedsIfAnyWriteSucceeds", func(t *testing.T) {
		product := testmodels.NewProduct(3, "z", "")
		a := &mockStorage{}
		a.On("Flush", mock.Anything, 3, product).Return(false, nil)
		b := &mockStorage{}
		b.On("Flush", mock.Anything, 3, product).Return(true, nil)

		chain := modelstore.NewChain().Register("a", a).Register("b", b)
		ok, err := chain.Flush(ctx, 3, product)
		require.NoError(t, err)
		assert.True(t, ok)
		a.AssertNumberOfCalls(t, "Flush", 1)
		b.AssertNumberOfCalls(t, "Flush", 1)
	})

	t.Run("FailsIfEveryWriteFails", func(t *testing.T) {
		product := testmodels.NewProduct(3, "z", "")
		a := &mockStorage{}
		a.On("Flush", mock.Anything, 3, product).Return(false, nil)

		chain := modelstore.NewChain().Register("a", a)
		ok, err := chain.Flush(ctx, 3, product)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("MissingStorage", func(t *testing.T) {
		chain := modelstore.NewChain().
			Register("categories", memory.New(modelstore.ModelOf[*testmodels.Category]()))

		_, err := chain.Flush(ctx, 1, testmodels.NewProduct(1, "a", ""))
		assert.True(t, serrors.IsMissingStorage(err))
	})

	t.Run("ErrorAbortsFanOutWithoutRollback", func(t *testing.T) {
		boom := errors.New("disk full")
		first := memory.New(modelstore.ModelType{})
		failing := memory.New(modelstore.ModelType{}).WithFlushError(boom)
		last := memory.New(modelstore.ModelType{})

		chain := modelstore.NewChain().Register("first", first).Register("failing", failing).Register("last", last)

		_, err := chain.Flush(ctx, 1, "model")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, first.Count())
		assert.Equal(t, 0, last.Count())
	})

	t.Run("WildcardStorages", func(t *testing.T) {
		chain := modelstore.NewChain().
			Register("product1", memory.New(modelstore.ModelType{})).
			Register("product2", memory.New(modelstore.ModelType{}))
		pear := testmodels.NewProduct(2, "bar", "Pear")

		_, err := chain.Flush(ctx, 2, pear)
		require.NoError(t, err)
		model, err := chain.Find(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, pear, model)

		ok, err := chain.Remove(ctx, 2, pear)
		require.NoError(t, err)
		assert.True(t, ok)
		has, err := chain.Has(ctx, 2)
		require.NoError(t, err)
		assert.False(t, has)
	})
}

func TestChainRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesFromLocatedStorages", func(t *testing.T) {
		f := newChainFixture(t)
		ok, err := f.chain.Remove(ctx, 2, f.pear)
		require.NoError(t, err)
		assert.True(t, ok)

		has, err := f.chain.Has(ctx, 2)
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("MissingIdentifier", func(t *testing.T) {
		f := newChainFixture(t)
		ok, err := f.chain.Remove(ctx, 1, f.apple)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("OnlyLocatedStorages", func(t *testing.T) {
		category := testmodels.NewCategory(1, "Fruit")
		products := &supportingMock{supports: func(model any) bool { return false }}
		categories := &mockStorage{}
		categories.On("Remove", mock.Anything, 1, category).Return(true, nil)

		chain := modelstore.NewChain().Register("products", products).Register("categories", categories)
		ok, err := chain.Remove(ctx, 1, category)
		require.NoError(t, err)
		assert.True(t, ok)
		products.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MissingStorage", func(t *testing.T) {
		chain := modelstore.NewChain()
		_, err := chain.Remove(ctx, 1, testmodels.NewProduct(1, "a", ""))
		assert.True(t, serrors.IsMissingStorage(err))
	})
}

func TestChainRemoveAll(t *testing.T) {
	ctx := context.Background()

	t.Run("ClearsEveryStorage", func(t *testing.T) {
		f := newChainFixture(t)
		categories := memory.New(modelstore.ModelOf[*testmodels.Category]())
		_, _ = categories.Flush(ctx, 1, testmodels.NewCategory(1, "Fruit"))
		f.chain.Register("categories", categories)

		ok, err := f.chain.RemoveAll(ctx)
		require.NoError(t, err)
		assert.True(t, ok)

		has, err := f.chain.Has(ctx, 2)
		require.NoError(t, err)
		assert.False(t, has)
		assert.Equal(t, 0, categories.Count())

		models, err := f.chain.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, models)
	})

	t.Run("AllMustSucceed", func(t *testing.T) {
		a := &mockStorage{}
		a.On("RemoveAll", mock.Anything).Return(false, nil)
		b := &mockStorage{}
		b.On("RemoveAll", mock.Anything).Return(true, nil)

		chain := modelstore.NewChain().Register("a", a).Register("b", b)
		ok, err := chain.RemoveAll(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		b.AssertNumberOfCalls(t, "RemoveAll", 1)
	})

	t.Run("ErrorPropagates", func(t *testing.T) {
		boom := errors.New("boom")
		chain := modelstore.NewChain().
			Register("a", memory.New(modelstore.ModelType{}).WithRemoveAllError(boom))

		_, err := chain.RemoveAll(ctx)
		assert.ErrorIs(t, err, boom)
	})
}

func TestChainSharedRegistry(t *testing.T) {
	ctx := context.Background()
	r := modelstore.NewRegistry()
	chain := modelstore.NewChain(modelstore.WithRegistry(r))

	s := memory.New(modelstore.ModelType{})
	r.Register("late", s)

	_, err := chain.Flush(ctx, 1, "model")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())
	assert.Same(t, r, chain.Registry())
}
