/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config declares storages in a YAML document and builds them into
// a modelstore.Factory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/modelstore/provider/dynamodb"
)

// Storage types understood by Build.
const (
	TypeMemory   = "memory"
	TypeNull     = "null"
	TypeFile     = "file"
	TypeSession  = "session"
	TypeCache    = "cache"
	TypeRedis    = "redis"
	TypeBadger   = "badger"
	TypeDynamoDB = "dynamodb"
	TypeSQLite   = "sqlite"
	TypeChain    = "chain"
	TypeManager  = "manager"
)

var knownTypes = map[string]bool{
	TypeMemory: true, TypeNull: true, TypeFile: true, TypeSession: true, TypeCache: true,
	TypeRedis: true, TypeBadger: true, TypeDynamoDB: true, TypeSQLite: true,
	TypeChain: true, TypeManager: true,
}

// Config is the root configuration document.
type Config struct {
	// Metrics wraps every storage with Prometheus instrumentation.
	Metrics  bool            `yaml:"metrics"`
	Backends Backends        `yaml:"backends"`
	Storages []StorageConfig `yaml:"storages"`
}

// Backends holds the connections shared by the storages of one type.
type Backends struct {
	Redis    RedisConfig           `yaml:"redis"`
	Badger   BadgerConfig          `yaml:"badger"`
	SQLite   SQLiteConfig          `yaml:"sqlite"`
	DynamoDB dynamodb.ClientConfig `yaml:"dynamodb"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"MODELSTORE_REDIS_ADDR"`
	Password string `yaml:"password" env:"MODELSTORE_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"MODELSTORE_REDIS_DB"`
}

type BadgerConfig struct {
	// Dir is the database directory; empty runs in memory.
	Dir string `yaml:"dir" env:"MODELSTORE_BADGER_DIR"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" env:"MODELSTORE_SQLITE_PATH"`
}

// StorageConfig declares one named storage. Fields apply to the types noted.
type StorageConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// Model is a name registered with the registry package; empty accepts any model.
	Model string `yaml:"model"`

	Codec     string        `yaml:"codec"`     // file, redis, badger, sqlite
	Namespace string        `yaml:"namespace"` // cache, redis, badger, session
	Prefix    string        `yaml:"prefix"`    // file
	Lifetime  time.Duration `yaml:"lifetime"`  // cache, redis, badger
	Dir       string        `yaml:"dir"`       // file
	Size      int           `yaml:"size"`      // cache
	Session   string        `yaml:"session"`   // session

	Table        string            `yaml:"table"`         // dynamodb
	EntityType   string            `yaml:"entity_type"`   // dynamodb
	KeyTemplates map[string]string `yaml:"key_templates"` // dynamodb
	ModelName    string            `yaml:"model_name"`    // sqlite

	Storages []string `yaml:"storages"` // chain
	Storage  string   `yaml:"storage"`  // manager
}

// LoadEnv loads .env files into the process environment. Missing files are
// skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", file, err)
		}
	}
	return nil
}

// Load reads the YAML document at path and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// overrides are the environment variables applied on top of the document.
type overrides struct {
	Metrics *bool `env:"MODELSTORE_METRICS"`
}

// Parse decodes a YAML document, applies environment overrides and
// validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := env.Parse(&cfg.Backends); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	var o overrides
	if err := env.Parse(&o); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if o.Metrics != nil {
		cfg.Metrics = *o.Metrics
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks names, types and references. Chains and managers may only
// reference storages declared before them.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Storages))
	for i, sc := range c.Storages {
		if sc.Name == "" {
			return fmt.Errorf("storage #%d: name is required", i)
		}
		if seen[sc.Name] {
			return fmt.Errorf("storage %q: declared twice", sc.Name)
		}
		if !knownTypes[sc.Type] {
			return fmt.Errorf("storage %q: unknown type %q", sc.Name, sc.Type)
		}

		switch sc.Type {
		case TypeChain:
			for _, ref := range sc.Storages {
				if !seen[ref] {
					return fmt.Errorf("storage %q: chain member %q is not declared before it", sc.Name, ref)
				}
			}
		case TypeManager:
			if sc.Storage != "" && !seen[sc.Storage] {
				return fmt.Errorf("storage %q: managed storage %q is not declared before it", sc.Name, sc.Storage)
			}
		case TypeFile:
			if sc.Dir == "" {
				return fmt.Errorf("storage %q: dir is required", sc.Name)
			}
		case TypeDynamoDB:
			if sc.Table == "" {
				return fmt.Errorf("storage %q: table is required", sc.Name)
			}
		}
		seen[sc.Name] = true
	}
	return nil
}
