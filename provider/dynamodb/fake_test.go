/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamodb_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/modelstore/provider/dynamodb"
)

// fakeClient is an in-memory single table. Scan honours Limit before the
// EntityType filter, like DynamoDB does.
type fakeClient struct {
	mu     sync.Mutex
	fields []string
	items  map[string]map[string]types.AttributeValue

	scanErrors        []error
	unprocessedRounds int
	calls             map[string]int
}

func newFakeClient(fields ...string) *fakeClient {
	sort.Strings(fields)
	return &fakeClient{
		fields: fields,
		items:  make(map[string]map[string]types.AttributeValue),
		calls:  make(map[string]int),
	}
}

func (f *fakeClient) id(item map[string]types.AttributeValue) string {
	parts := make([]string, len(f.fields))
	for i, field := range f.fields {
		if s, ok := item[field].(*types.AttributeValueMemberS); ok {
			parts[i] = s.Value
		}
	}
	return strings.Join(parts, "|")
}

func (f *fakeClient) sortedIDs() []string {
	ids := make([]string, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (f *fakeClient) project(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(f.fields))
	for _, field := range f.fields {
		out[field] = item[field]
	}
	return out
}

func (f *fakeClient) GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetItem"]++

	item, ok := f.items[f.id(params.Key)]
	if !ok {
		return &sdk.GetItemOutput{}, nil
	}
	if params.ProjectionExpression != nil {
		item = f.project(item)
	}
	return &sdk.GetItemOutput{Item: item}, nil
}

func (f *fakeClient) BatchGetItem(ctx context.Context, params *sdk.BatchGetItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["BatchGetItem"]++

	out := &sdk.BatchGetItemOutput{
		Responses:       map[string][]map[string]types.AttributeValue{},
		UnprocessedKeys: map[string]types.KeysAndAttributes{},
	}
	for table, request := range params.RequestItems {
		keys := request.Keys
		if f.unprocessedRounds > 0 && len(keys) > 1 {
			f.unprocessedRounds--
			out.UnprocessedKeys[table] = types.KeysAndAttributes{Keys: keys[1:]}
			keys = keys[:1]
		}
		for _, key := range keys {
			if item, ok := f.items[f.id(key)]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func (f *fakeClient) PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["PutItem"]++

	f.items[f.id(params.Item)] = params.Item
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteItem"]++

	delete(f.items, f.id(params.Key))
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeClient) Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Scan"]++

	if len(f.scanErrors) > 0 {
		err := f.scanErrors[0]
		f.scanErrors = f.scanErrors[1:]
		return nil, err
	}

	ids := f.sortedIDs()
	start := 0
	if params.ExclusiveStartKey != nil {
		last := f.id(params.ExclusiveStartKey)
		start = sort.SearchStrings(ids, last)
		if start < len(ids) && ids[start] == last {
			start++
		}
	}

	end := len(ids)
	if params.Limit != nil && start+int(*params.Limit) < end {
		end = start + int(*params.Limit)
	}

	want := params.ExpressionAttributeValues[":et"].(*types.AttributeValueMemberS).Value
	out := &sdk.ScanOutput{}
	for _, id := range ids[start:end] {
		item := f.items[id]
		et, ok := item[dynamodb.EntityTypeAttribute].(*types.AttributeValueMemberS)
		if !ok || et.Value != want {
			continue
		}
		if params.ProjectionExpression != nil {
			item = f.project(item)
		}
		out.Items = append(out.Items, item)
	}
	if end < len(ids) {
		out.LastEvaluatedKey = f.project(f.items[ids[end-1]])
	}
	return out, nil
}

func (f *fakeClient) callCount(operation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[operation]
}

var _ dynamodb.Client = (*fakeClient)(nil)
