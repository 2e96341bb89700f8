/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"fmt"
	"reflect"

	"github.com/suparena/modelstore/errors"
)

// ModelType declares the concrete type a storage holds. The zero value is the
// wildcard: it supports every model and decodes into maps, but cannot create one.
type ModelType struct {
	typ reflect.Type
}

// ModelOf declares T as the model type, typically a pointer such as *Product.
func ModelOf[T any]() ModelType {
	return ModelType{typ: reflect.TypeFor[T]()}
}

// ModelTypeOf declares the dynamic type of model.
func ModelTypeOf(model any) ModelType {
	if model == nil {
		return ModelType{}
	}
	return ModelType{typ: reflect.TypeOf(model)}
}

// Declared reports whether a concrete type was declared.
func (m ModelType) Declared() bool {
	return m.typ != nil
}

// Type returns the declared reflect.Type, nil for the wildcard.
func (m ModelType) Type() reflect.Type {
	return m.typ
}

// Name is the fully qualified type name, e.g. "*github.com/acme/shop.Product".
// It feeds namespace generation, so it must not change between processes.
func (m ModelType) Name() string {
	if m.typ == nil {
		return ""
	}
	return typeName(m.typ)
}

func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + typeName(t.Elem())
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// String returns the short Go notation of the type.
func (m ModelType) String() string {
	if m.typ == nil {
		return "any"
	}
	return m.typ.String()
}

// Supports reports whether model is of the declared type. Interface types match
// every implementation.
func (m ModelType) Supports(model any) bool {
	if m.typ == nil {
		return true
	}
	if model == nil {
		return false
	}
	t := reflect.TypeOf(model)
	if m.typ.Kind() == reflect.Interface {
		return t.Implements(m.typ)
	}
	return t == m.typ
}

// New returns a fresh zero model: a pointer to a new value for pointer types.
func (m ModelType) New() (any, error) {
	if m.typ == nil || m.typ.Kind() == reflect.Interface {
		return nil, errors.NewUnsupportedError("create", m.String())
	}
	if m.typ.Kind() == reflect.Pointer {
		return reflect.New(m.typ.Elem()).Interface(), nil
	}
	return reflect.Zero(m.typ).Interface(), nil
}

// Target returns a pointer to decode into and a function returning the decoded
// model in its declared shape. The wildcard decodes into map[string]any.
func (m ModelType) Target() (any, func() any, error) {
	switch {
	case m.typ == nil:
		var v map[string]any
		return &v, func() any { return v }, nil
	case m.typ.Kind() == reflect.Interface:
		return nil, nil, fmt.Errorf("cannot decode into interface type %s", m.typ)
	case m.typ.Kind() == reflect.Pointer:
		p := reflect.New(m.typ.Elem())
		return p.Interface(), func() any { return p.Interface() }, nil
	default:
		p := reflect.New(m.typ)
		return p.Interface(), func() any { return p.Elem().Interface() }, nil
	}
}

// Decode unmarshals data into a new model of the declared type.
func (m ModelType) Decode(data []byte, unmarshal func([]byte, any) error) (any, error) {
	target, model, err := m.Target()
	if err != nil {
		return nil, err
	}
	if err := unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", m, err)
	}
	return model(), nil
}

// Base carries the declared model type of an adapter and provides its
// SupportAware and Create implementations. Adapters embed it.
type Base struct {
	Model ModelType
}

// NewBase creates a Base for the given model type.
func NewBase(model ModelType) Base {
	return Base{Model: model}
}

// Support implements SupportAware.
func (b Base) Support(model any) bool {
	return b.Model.Supports(model)
}

// Create returns a new zero model of the declared type.
func (b Base) Create(ctx context.Context) (any, error) {
	return b.Model.New()
}
