/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamodb

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/modelstore/identity"
)

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandKey fills the macros of every template. A composite identifier
// resolves "{column}" macros by column name; every other macro receives the
// flattened identifier.
func expandKey(templates map[string]string, flattener identity.Flattener, id any) (map[string]string, error) {
	flat := flattener.Flatten(id)
	if flat == "" {
		return nil, errors.New("identifier can not be empty")
	}

	columns := map[string]string{}
	if composite, ok := id.(identity.Composite); ok {
		for _, c := range composite {
			columns[c.Name] = flattener.Flatten(c.Value)
		}
	}

	expanded := make(map[string]string, len(templates))
	for field, template := range templates {
		expanded[field] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			if v, ok := columns[strings.Trim(macro, "{}")]; ok {
				return v
			}
			return flat
		})
	}
	return expanded, nil
}

// buildKey converts expanded templates into a DynamoDB key.
func buildKey(expanded map[string]string) (map[string]types.AttributeValue, error) {
	if len(expanded) == 0 {
		return nil, errors.New("no key templates configured")
	}
	key := make(map[string]types.AttributeValue, len(expanded))
	for field, value := range expanded {
		if value == "" {
			return nil, fmt.Errorf("expanded key attribute %s is empty", field)
		}
		key[field] = &types.AttributeValueMemberS{Value: value}
	}
	return key, nil
}

// keyString renders the key attributes of item in a stable order, so items
// returned by batch reads can be matched with the identifiers requested.
func keyString(fields []string, item map[string]types.AttributeValue) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		if s, ok := item[f].(*types.AttributeValueMemberS); ok {
			parts[i] = s.Value
		}
	}
	return strings.Join(parts, "\x00")
}

func keyFields(templates map[string]string) []string {
	fields := make([]string, 0, len(templates))
	for f := range templates {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
