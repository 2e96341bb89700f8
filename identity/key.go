/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package identity

// KeySeparator sits between namespace and identifier in a storage key.
const KeySeparator = ":"

// KeyBuilder turns identifiers into namespaced storage keys for key-addressed
// backends: flatten, validate, then prefix with the namespace token.
type KeyBuilder struct {
	Flattener Flattener
	Validator Validator
	Generator NamespaceGenerator

	// TypeName is the model type identifier hashed into the namespace.
	TypeName string
	// Prefix is the optional namespace prefix.
	Prefix string
}

// NewKeyBuilder creates a KeyBuilder with the default flattener, validator and generator.
func NewKeyBuilder(typeName, prefix string) *KeyBuilder {
	return &KeyBuilder{
		Flattener: NewFlattener(),
		Validator: NewValidator(),
		Generator: NewNamespaceGenerator(),
		TypeName:  typeName,
		Prefix:    prefix,
	}
}

// Namespace returns the namespace token for the builder's type.
func (b *KeyBuilder) Namespace() string {
	return b.Generator.Generate(b.TypeName, b.Prefix)
}

// Key builds "<namespace>:<flattened identifier>".
func (b *KeyBuilder) Key(identifier any) (string, error) {
	id := b.Flattener.Flatten(identifier)
	if err := b.Validator.Validate(id); err != nil {
		return "", err
	}
	return b.Namespace() + KeySeparator + id, nil
}

// Keys builds keys for every identifier, failing on the first invalid one.
func (b *KeyBuilder) Keys(identifiers []any) ([]string, error) {
	keys := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		key, err := b.Key(identifier)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Pattern returns the glob matching every key of the namespace.
func (b *KeyBuilder) Pattern() string {
	return b.Namespace() + KeySeparator + "*"
}
