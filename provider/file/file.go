/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package file provides a Storage keeping one encoded file per model in a
// directory.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/codec"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/identity"
)

// DefaultPrefix is prepended to every model file name.
const DefaultPrefix = "storage-model-"

// tempPrefix starts the names of the files an in-progress Flush writes
// before renaming them. Such files are never listed.
const tempPrefix = ".tmp-"

// Storage stores models as files named <dir>/<prefix><sanitized identifier>.
// Loaded and flushed models are kept in an identity map, so repeated finds
// return the same value without touching the disk.
type Storage struct {
	modelstore.Base

	dir       string
	prefix    string
	codec     codec.Codec
	flattener identity.Flattener

	mu          sync.RWMutex
	identityMap map[string]any
}

// Option configures a Storage
type Option func(*Storage)

// WithCodec selects the model encoding, JSON by default.
func WithCodec(c codec.Codec) Option {
	return func(s *Storage) {
		s.codec = c
	}
}

// WithPrefix overrides the file name prefix. The prefix must not be empty.
func WithPrefix(prefix string) Option {
	return func(s *Storage) {
		s.prefix = prefix
	}
}

// WithFlattener overrides the identifier flattener.
func WithFlattener(f identity.Flattener) Option {
	return func(s *Storage) {
		s.flattener = f
	}
}

// New creates a Storage in dir, creating the directory when missing. Models
// are decoded into the declared model type; the wildcard decodes into maps.
func New(dir string, model modelstore.ModelType, opts ...Option) (*Storage, error) {
	s := &Storage{
		Base:        modelstore.NewBase(model),
		dir:         dir,
		prefix:      DefaultPrefix,
		codec:       codec.JSON,
		flattener:   identity.NewFlattener(),
		identityMap: make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.prefix == "" || strings.HasPrefix(s.prefix, tempPrefix) {
		return nil, errors.NewValidationError("prefix", "must be non-empty and must not start with "+tempPrefix)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return s, nil
}

// Dir returns the storage directory.
func (s *Storage) Dir() string {
	return s.dir
}

func (s *Storage) name(id any) string {
	return SanitizeIdentifier(s.flattener.Flatten(id))
}

func (s *Storage) path(name string) string {
	return filepath.Join(s.dir, s.prefix+name)
}

func (s *Storage) load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.Model.Decode(data, s.codec.Unmarshal)
}

// Find implements modelstore.Storage
func (s *Storage) Find(ctx context.Context, id any) (any, error) {
	name := s.name(id)

	s.mu.RLock()
	model, cached := s.identityMap[name]
	s.mu.RUnlock()
	if cached {
		return model, nil
	}

	model, err := s.load(s.path(name))
	if err != nil || model == nil {
		return nil, err
	}

	s.mu.Lock()
	s.identityMap[name] = model
	s.mu.Unlock()
	return model, nil
}

// FindMultiple implements modelstore.Storage
func (s *Storage) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	return modelstore.FindEach(ctx, ids, s.Find)
}

// Has implements modelstore.Storage
func (s *Storage) Has(ctx context.Context, id any) (bool, error) {
	name := s.name(id)

	s.mu.RLock()
	_, cached := s.identityMap[name]
	s.mu.RUnlock()
	if cached {
		return true, nil
	}

	_, err := os.Stat(s.path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *Storage) files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), s.prefix) || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// FindAll implements modelstore.Storage. Models are returned in file name order.
func (s *Storage) FindAll(ctx context.Context) ([]any, error) {
	names, err := s.files()
	if err != nil {
		return nil, err
	}

	models := make([]any, 0, len(names))
	for _, name := range names {
		model, err := s.load(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		if model != nil {
			models = append(models, model)
		}
	}
	return models, nil
}

// Flush implements modelstore.Storage. The file is replaced atomically.
func (s *Storage) Flush(ctx context.Context, id any, model any) (bool, error) {
	name := s.name(id)
	data, err := s.codec.Marshal(model)
	if err != nil {
		return false, fmt.Errorf("failed to encode model %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return false, fmt.Errorf("failed to write model %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to write model %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to write model %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to write model %s: %w", name, err)
	}

	s.identityMap[name] = model
	return true, nil
}

// Remove implements modelstore.Storage. Removing an unknown identifier succeeds.
func (s *Storage) Remove(ctx context.Context, id any, model any) (bool, error) {
	name := s.name(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to remove model %s: %w", name, err)
	}
	delete(s.identityMap, name)
	return true, nil
}

// RemoveAll implements modelstore.Storage. Only files carrying the prefix are deleted.
func (s *Storage) RemoveAll(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.files()
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	s.identityMap = make(map[string]any)
	return true, nil
}

// FindOrCreate implements modelstore.CreateAware
func (s *Storage) FindOrCreate(ctx context.Context, id any) (any, error) {
	return modelstore.FindOrCreate(ctx, s, id)
}

var (
	_ modelstore.Storage      = (*Storage)(nil)
	_ modelstore.SupportAware = (*Storage)(nil)
	_ modelstore.CreateAware  = (*Storage)(nil)
)
