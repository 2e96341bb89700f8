/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"log/slog"
)

// Chain is a composite Storage over the storages of a Registry.
//
// Reads (Find, FindMultiple, Has) scan every registered storage in registration
// order. Without a merge strategy the first storage holding the identifier wins
// and later storages are not consulted; with one, every hit is folded through
// it. FindAll returns the first non-empty result, it never unions.
//
// Writes (Flush, Remove) go to every storage the Locator selects for the model;
// RemoveAll goes to every registered storage. Fan-out is sequential and stops at
// the first adapter error; earlier writes are not rolled back.
type Chain struct {
	registry *Registry
	locator  *Locator
	merge    MergeStrategy
	logger   *slog.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithRegistry makes the chain operate on an existing registry.
func WithRegistry(registry *Registry) ChainOption {
	return func(c *Chain) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithMergeStrategy sets the strategy folding multiple hits in Find.
func WithMergeStrategy(strategy MergeStrategy) ChainOption {
	return func(c *Chain) {
		c.merge = strategy
	}
}

// WithLogger sets the chain's logger.
func WithLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChain creates a Chain with its own registry unless WithRegistry is given.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{
		registry: NewRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.locator = NewLocator(c.registry)
	return c
}

// Register adds storage to the chain's registry.
func (c *Chain) Register(name string, storage Storage) *Chain {
	c.registry.Register(name, storage)
	return c
}

// SetMergeStrategy replaces the merge strategy; nil restores first-hit reads.
func (c *Chain) SetMergeStrategy(strategy MergeStrategy) {
	c.merge = strategy
}

// Registry returns the chain's registry.
func (c *Chain) Registry() *Registry {
	return c.registry
}

// Find implements Storage.
func (c *Chain) Find(ctx context.Context, id any) (any, error) {
	return c.resolve(ctx, c.registry.Entries(), id)
}

// FindMultiple implements Storage.
func (c *Chain) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	entries := c.registry.Entries()
	models := make([]any, 0, len(ids))
	for _, id := range ids {
		model, err := c.resolve(ctx, entries, id)
		if err != nil {
			return nil, err
		}
		if model != nil {
			models = append(models, model)
		}
	}
	return models, nil
}

func (c *Chain) resolve(ctx context.Context, entries []Entry, id any) (any, error) {
	var model any
	for _, e := range entries {
		has, err := e.Storage.Has(ctx, id)
		if err != nil {
			return nil, err
		}
		if !has {
			continue
		}

		next, err := e.Storage.Find(ctx, id)
		if err != nil {
			return nil, err
		}

		if c.merge == nil {
			c.logger.DebugContext(ctx, "chain resolved identifier", "storage", e.Name, "identifier", id)
			return next, nil
		}
		model = c.merge.Merge(next, model)
	}
	return model, nil
}

// Has implements Storage.
func (c *Chain) Has(ctx context.Context, id any) (bool, error) {
	for _, s := range c.registry.All() {
		has, err := s.Has(ctx, id)
		if err != nil {
			return false, err
		}
		if has {
			return true, nil
		}
	}
	return false, nil
}

// FindAll implements Storage.
func (c *Chain) FindAll(ctx context.Context) ([]any, error) {
	for _, e := range c.registry.Entries() {
		models, err := e.Storage.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		if len(models) > 0 {
			c.logger.DebugContext(ctx, "chain listed models", "storage", e.Name, "count", len(models))
			return models, nil
		}
	}
	return []any{}, nil
}

// Flush implements Storage. It succeeds when at least one located storage
// reports success.
func (c *Chain) Flush(ctx context.Context, id any, model any) (bool, error) {
	entries, err := c.locator.LocateEntries(model)
	if err != nil {
		return false, err
	}

	flushed := false
	for _, e := range entries {
		ok, err := e.Storage.Flush(ctx, id, model)
		if err != nil {
			return false, err
		}
		if ok {
			flushed = true
		}
	}
	c.logger.DebugContext(ctx, "chain flushed model", "identifier", id, "storages", len(entries), "ok", flushed)
	return flushed, nil
}

// Remove implements Storage. It succeeds when at least one located storage
// reports success.
func (c *Chain) Remove(ctx context.Context, id any, model any) (bool, error) {
	entries, err := c.locator.LocateEntries(model)
	if err != nil {
		return false, err
	}

	removed := false
	for _, e := range entries {
		ok, err := e.Storage.Remove(ctx, id, model)
		if err != nil {
			return false, err
		}
		if ok {
			removed = true
		}
	}
	c.logger.DebugContext(ctx, "chain removed model", "identifier", id, "storages", len(entries), "ok", removed)
	return removed, nil
}

// RemoveAll implements Storage. Every registered storage is cleared; the result
// is true only if all of them report success.
func (c *Chain) RemoveAll(ctx context.Context) (bool, error) {
	result := true
	for _, s := range c.registry.All() {
		ok, err := s.RemoveAll(ctx)
		if err != nil {
			return false, err
		}
		result = ok && result
	}
	return result, nil
}
