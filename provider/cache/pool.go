/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Pool is the key-value cache a Storage writes through.
type Pool interface {
	Get(key string) (any, bool)
	Has(key string) bool
	Save(key string, value any) bool
	Delete(key string) bool
	Clear() bool
}

// LRUPool is a bounded in-process Pool whose entries expire after a fixed TTL.
type LRUPool struct {
	lru *expirable.LRU[string, any]
}

// NewLRUPool creates a pool holding at most size entries; size 0 is unbounded
// and ttl 0 disables expiry.
func NewLRUPool(size int, ttl time.Duration) *LRUPool {
	return &LRUPool{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

func (p *LRUPool) Get(key string) (any, bool) {
	return p.lru.Get(key)
}

// Has peeks so expired entries are not reported and recency is untouched.
func (p *LRUPool) Has(key string) bool {
	_, ok := p.lru.Peek(key)
	return ok
}

func (p *LRUPool) Save(key string, value any) bool {
	p.lru.Add(key, value)
	return true
}

// Delete reports true even when key was absent.
func (p *LRUPool) Delete(key string) bool {
	p.lru.Remove(key)
	return true
}

func (p *LRUPool) Clear() bool {
	p.lru.Purge()
	return true
}

// Len returns the number of cached entries, expired ones included until swept.
func (p *LRUPool) Len() int {
	return p.lru.Len()
}
