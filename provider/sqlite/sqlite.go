/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqlite provides a Storage persisting encoded models in a SQLite
// table shared by every model type.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/codec"
	"github.com/suparena/modelstore/identity"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `CREATE TABLE IF NOT EXISTS models (
	model_type TEXT NOT NULL,
	id         TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (model_type, id)
)`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite database at path and creates the models table.
func Open(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := MemoryPath
	if path != MemoryPath {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == MemoryPath {
		// every connection would see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// Storage keeps the models of one model type as rows of the models table.
type Storage struct {
	modelstore.Base

	db        *sql.DB
	modelName string
	codec     codec.Codec
	flattener identity.Flattener
	now       func() time.Time
}

// Option configures a Storage
type Option func(*Storage)

// WithModelName overrides the model_type column value, the model's fully
// qualified type name by default.
func WithModelName(name string) Option {
	return func(s *Storage) {
		s.modelName = name
	}
}

// WithCodec selects the payload encoding, JSON by default.
func WithCodec(c codec.Codec) Option {
	return func(s *Storage) {
		s.codec = c
	}
}

// New creates a Storage over db, which must have been opened with Open.
func New(db *sql.DB, model modelstore.ModelType, opts ...Option) *Storage {
	s := &Storage{
		Base:      modelstore.NewBase(model),
		db:        db,
		modelName: model.Name(),
		codec:     codec.JSON,
		flattener: identity.NewFlattener(),
		now:       time.Now,
	}
	if s.modelName == "" {
		s.modelName = "any"
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storage) decode(payload []byte) (any, error) {
	return s.Model.Decode(payload, s.codec.Unmarshal)
}

// Find implements modelstore.Storage
func (s *Storage) Find(ctx context.Context, id any) (any, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM models WHERE model_type = ? AND id = ?`,
		s.modelName, s.flattener.Flatten(id),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find model: %w", err)
	}
	return s.decode(payload)
}

// FindMultiple implements modelstore.Storage with a single IN query; rows are
// reordered to match the request.
func (s *Storage) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	if len(ids) == 0 {
		return []any{}, nil
	}

	keys := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, s.modelName)
	for i, id := range ids {
		keys[i] = s.flattener.Flatten(id)
		args = append(args, keys[i])
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM models WHERE model_type = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("find models: %w", err)
	}
	defer rows.Close()

	payloads := make(map[string][]byte, len(ids))
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		payloads[key] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate models: %w", err)
	}

	models := make([]any, 0, len(keys))
	for _, key := range keys {
		payload, ok := payloads[key]
		if !ok {
			continue
		}
		model, err := s.decode(payload)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, nil
}

// Has implements modelstore.Storage
func (s *Storage) Has(ctx context.Context, id any) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM models WHERE model_type = ? AND id = ?)`,
		s.modelName, s.flattener.Flatten(id),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has model: %w", err)
	}
	return exists == 1, nil
}

// FindAll implements modelstore.Storage. Models come back in first-flush order.
func (s *Storage) FindAll(ctx context.Context) ([]any, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM models WHERE model_type = ? ORDER BY rowid`,
		s.modelName,
	)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	models := []any{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		model, err := s.decode(payload)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate models: %w", err)
	}
	return models, nil
}

// Flush implements modelstore.Storage as an upsert.
func (s *Storage) Flush(ctx context.Context, id any, model any) (bool, error) {
	payload, err := s.codec.Marshal(model)
	if err != nil {
		return false, fmt.Errorf("failed to encode model: %w", err)
	}

	now := toMillis(s.now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO models (model_type, id, payload, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (model_type, id) DO UPDATE SET
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		s.modelName, s.flattener.Flatten(id), payload, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("flush model: %w", err)
	}
	return true, nil
}

// Remove implements modelstore.Storage
func (s *Storage) Remove(ctx context.Context, id any, model any) (bool, error) {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM models WHERE model_type = ? AND id = ?`,
		s.modelName, s.flattener.Flatten(id),
	)
	if err != nil {
		return false, fmt.Errorf("remove model: %w", err)
	}
	return true, nil
}

// RemoveAll deletes the rows of the storage's model type only.
func (s *Storage) RemoveAll(ctx context.Context) (bool, error) {
	_, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE model_type = ?`, s.modelName)
	if err != nil {
		return false, fmt.Errorf("remove models: %w", err)
	}
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
