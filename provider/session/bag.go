/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package session

import "sync"

// Bag is the attribute container of a user session. HTTP session libraries
// are adapted to it; the caller owns starting and saving the session.
type Bag interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	// Keys lists keys in insertion order.
	Keys() []string
	Clear()
}

// MemoryBag is a concurrency-safe, insertion-ordered Bag.
type MemoryBag struct {
	mu     sync.RWMutex
	keys   []string
	values map[string]any
}

// NewMemoryBag creates an empty MemoryBag.
func NewMemoryBag() *MemoryBag {
	return &MemoryBag{values: make(map[string]any)}
}

func (b *MemoryBag) Get(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok
}

func (b *MemoryBag) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

func (b *MemoryBag) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.values[key]; !ok {
		return
	}
	delete(b.values, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i:i], b.keys[i+1:]...)
			break
		}
	}
}

func (b *MemoryBag) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, len(b.keys))
	copy(keys, b.keys)
	return keys
}

func (b *MemoryBag) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = nil
	b.values = make(map[string]any)
}

// Sessions hands out one MemoryBag per session id.
type Sessions struct {
	mu   sync.Mutex
	bags map[string]*MemoryBag
}

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{bags: make(map[string]*MemoryBag)}
}

// Bag returns the bag of sessionID, creating it on first use.
func (s *Sessions) Bag(sessionID string) *MemoryBag {
	s.mu.Lock()
	defer s.mu.Unlock()
	bag, ok := s.bags[sessionID]
	if !ok {
		bag = NewMemoryBag()
		s.bags[sessionID] = bag
	}
	return bag
}

// Destroy drops the bag of sessionID.
func (s *Sessions) Destroy(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bags, sessionID)
}
