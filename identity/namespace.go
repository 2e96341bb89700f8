/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package identity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/spaolacci/murmur3"
)

// DefaultNamespaceSeparator sits between prefix and hash.
const DefaultNamespaceSeparator = "_"

// NamespaceGenerator derives a namespace token from a type name and optional prefix.
type NamespaceGenerator interface {
	Generate(typeName, prefix string) string
}

// HashFunc maps a type name to a stable digest.
type HashFunc func(typeName string) string

// MD5Hash is the default HashFunc. It keeps keys compatible with stores
// written by other clients of the same key format.
func MD5Hash(typeName string) string {
	sum := md5.Sum([]byte(typeName))
	return hex.EncodeToString(sum[:])
}

// Murmur3Hash is a 128-bit murmur3 HashFunc.
func Murmur3Hash(typeName string) string {
	h1, h2 := murmur3.Sum128([]byte(typeName))
	return fmt.Sprintf("%016x%016x", h1, h2)
}

// DefaultNamespaceGenerator produces hash(typeName), or prefix+separator+hash(typeName)
// when a prefix is given. Adapters sharing a generator configuration address the
// same type under the same namespace.
type DefaultNamespaceGenerator struct {
	separator string
	hash      HashFunc
}

// NamespaceOption configures a DefaultNamespaceGenerator.
type NamespaceOption func(*DefaultNamespaceGenerator)

// WithSeparator overrides the prefix separator.
func WithSeparator(separator string) NamespaceOption {
	return func(g *DefaultNamespaceGenerator) {
		g.separator = separator
	}
}

// WithHash overrides the hash function.
func WithHash(hash HashFunc) NamespaceOption {
	return func(g *DefaultNamespaceGenerator) {
		if hash != nil {
			g.hash = hash
		}
	}
}

// NewNamespaceGenerator creates a generator using MD5Hash and "_" unless overridden.
func NewNamespaceGenerator(opts ...NamespaceOption) *DefaultNamespaceGenerator {
	g := &DefaultNamespaceGenerator{
		separator: DefaultNamespaceSeparator,
		hash:      MD5Hash,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate implements NamespaceGenerator. An empty prefix means no prefix.
func (g *DefaultNamespaceGenerator) Generate(typeName, prefix string) string {
	if prefix == "" {
		return g.hash(typeName)
	}
	return prefix + g.separator + g.hash(typeName)
}
