/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package identity

import (
	"fmt"
	"sort"
	"strings"
)

// Separator joins the values of a composite identifier.
const Separator = "_"

// Flattener normalizes an identifier into a single string key.
type Flattener interface {
	Flatten(identifier any) string
}

// Column is one column/value pair of a composite identifier.
type Column struct {
	Name  string
	Value any
}

// Composite is an ordered composite identifier.
type Composite []Column

// Columns builds a Composite from alternating name/value arguments:
//
//	identity.Columns("product_id", 4, "category_id", 1)
//
// A trailing name without a value is ignored.
func Columns(pairs ...any) Composite {
	c := make(Composite, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		c = append(c, Column{Name: fmt.Sprint(pairs[i]), Value: pairs[i+1]})
	}
	return c
}

// Values returns the column values in order.
func (c Composite) Values() []any {
	values := make([]any, len(c))
	for i, col := range c {
		values[i] = col.Value
	}
	return values
}

// DefaultFlattener joins composite values with Separator and stringifies scalars.
//
// Column names are not encoded: Columns("a", 1, "b", 2) and Columns("x", 1, "y", 2)
// both flatten to "1_2".
type DefaultFlattener struct{}

// NewFlattener returns the default flattener.
func NewFlattener() DefaultFlattener {
	return DefaultFlattener{}
}

// Flatten implements Flattener.
func (DefaultFlattener) Flatten(identifier any) string {
	switch id := identifier.(type) {
	case nil:
		return ""
	case string:
		return id
	case Composite:
		return join(id.Values())
	case []any:
		return join(id)
	case []string:
		return strings.Join(id, Separator)
	case map[string]any:
		// maps carry no insertion order, sorted keys keep the key stable
		keys := make([]string, 0, len(id))
		for k := range id {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = id[k]
		}
		return join(values)
	case map[string]string:
		keys := make([]string, 0, len(id))
		for k := range id {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = id[k]
		}
		return join(values)
	default:
		return scalar(id)
	}
}

func join(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = scalar(v)
	}
	return strings.Join(parts, Separator)
}

func scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		// true flattens to "1", false to the empty string
		if s {
			return "1"
		}
		return ""
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}
