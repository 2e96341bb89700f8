/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package codec serializes models for byte-oriented backends.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec encodes and decodes models.
type Codec interface {
	Name() string
	Marshal(model any) ([]byte, error)
	Unmarshal(data []byte, target any) error
}

type jsonCodec struct{}

// JSON encodes models with encoding/json and honours `json` struct tags.
var JSON Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(model any) ([]byte, error) {
	return json.Marshal(model)
}

func (jsonCodec) Unmarshal(data []byte, target any) error {
	return json.Unmarshal(data, target)
}

type yamlCodec struct{}

// YAML encodes models with yaml.v3 and honours `yaml` struct tags.
var YAML Codec = yamlCodec{}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Marshal(model any) ([]byte, error) {
	return yaml.Marshal(model)
}

func (yamlCodec) Unmarshal(data []byte, target any) error {
	return yaml.Unmarshal(data, target)
}

// ByName returns the codec registered under name; the empty name selects JSON.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
