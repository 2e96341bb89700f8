/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package dynamodb provides a Storage on a single DynamoDB table shared by
// several model types. Key attributes are expanded from templates such as
// "PRODUCT#{id}" and every item carries an EntityType attribute naming its
// model type.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/modelstore"
	serrors "github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/identity"
	"github.com/suparena/modelstore/registry"
)

const backend = "dynamodb"

// EntityTypeAttribute names the attribute holding the model type of an item.
const EntityTypeAttribute = "EntityType"

// maxBatchGetKeys is the BatchGetItem limit per request.
const maxBatchGetKeys = 100

// DefaultKeyTemplates addresses an item by its identifier alone.
var DefaultKeyTemplates = map[string]string{"PK": "{id}", "SK": "{id}"}

// Storage is a DynamoDB adapter for one model type.
type Storage struct {
	modelstore.Base

	client     Client
	tableName  string
	entityType string
	templates  map[string]string
	fields     []string
	flattener  identity.Flattener
	logger     *slog.Logger

	pageSize     int32
	maxRetries   int
	retryBackoff time.Duration
}

// Option configures a Storage
type Option func(*Storage)

// WithKeyTemplates sets the key attribute templates. Without it the templates
// registered for the model type are used, then DefaultKeyTemplates.
func WithKeyTemplates(templates map[string]string) Option {
	return func(s *Storage) {
		s.templates = templates
	}
}

// WithEntityType overrides the EntityType attribute value, the model's type
// name by default.
func WithEntityType(name string) Option {
	return func(s *Storage) {
		s.entityType = name
	}
}

// WithPageSize sets the Scan page size.
func WithPageSize(size int32) Option {
	return func(s *Storage) {
		s.pageSize = size
	}
}

// WithRetry configures retries of throttled scans.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(s *Storage) {
		s.maxRetries = maxRetries
		s.retryBackoff = backoff
	}
}

// WithLogger sets the storage's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Storage on tableName. The model type must be declared, it is
// needed to decode items.
func New(client Client, tableName string, model modelstore.ModelType, opts ...Option) (*Storage, error) {
	if !model.Declared() {
		return nil, serrors.NewValidationError("model", "dynamodb storage requires a declared model type")
	}
	if tableName == "" {
		return nil, serrors.NewValidationError("table", "can not be empty")
	}

	s := &Storage{
		Base:         modelstore.NewBase(model),
		client:       client,
		tableName:    tableName,
		entityType:   entityTypeName(model),
		flattener:    identity.NewFlattener(),
		logger:       slog.Default(),
		pageSize:     100,
		maxRetries:   3,
		retryBackoff: 100 * time.Millisecond,
	}
	if templates, ok := registry.GetIndexMapFor(model); ok {
		s.templates = templates
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.templates) == 0 {
		s.templates = DefaultKeyTemplates
	}
	s.fields = keyFields(s.templates)
	return s, nil
}

func entityTypeName(model modelstore.ModelType) string {
	t := model.Type()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return model.String()
}

// EntityType returns the EntityType attribute value of the storage's items.
func (s *Storage) EntityType() string {
	return s.entityType
}

func unavailable(operation string, err error) error {
	return serrors.NewBackendUnavailableError(backend, fmt.Errorf("%s: %w", operation, err))
}

func (s *Storage) key(id any) (map[string]types.AttributeValue, error) {
	expanded, err := expandKey(s.templates, s.flattener, id)
	if err != nil {
		return nil, serrors.NewValidationError("identifier", err.Error())
	}
	return buildKey(expanded)
}

func (s *Storage) decode(item map[string]types.AttributeValue) (any, error) {
	target, model, err := s.Model.Target()
	if err != nil {
		return nil, err
	}
	if err := attributevalue.UnmarshalMap(item, target); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return model(), nil
}

// Find implements modelstore.Storage with GetItem.
func (s *Storage) Find(ctx context.Context, id any) (any, error) {
	key, err := s.key(id)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, unavailable("GetItem", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return s.decode(out.Item)
}

// FindMultiple implements modelstore.Storage with BatchGetItem, returning
// models in request order.
func (s *Storage) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	order := make([]string, 0, len(ids))
	var keys []map[string]types.AttributeValue
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		key, err := s.key(id)
		if err != nil {
			return nil, err
		}
		ks := keyString(s.fields, key)
		order = append(order, ks)
		if !seen[ks] {
			seen[ks] = true
			keys = append(keys, key)
		}
	}

	items := make(map[string]map[string]types.AttributeValue, len(keys))
	for start := 0; start < len(keys); start += maxBatchGetKeys {
		end := min(start+maxBatchGetKeys, len(keys))
		if err := s.batchGet(ctx, keys[start:end], items); err != nil {
			return nil, err
		}
	}

	models := make([]any, 0, len(order))
	for _, ks := range order {
		item, ok := items[ks]
		if !ok {
			continue
		}
		model, err := s.decode(item)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, nil
}

func (s *Storage) batchGet(ctx context.Context, keys []map[string]types.AttributeValue, items map[string]map[string]types.AttributeValue) error {
	request := map[string]types.KeysAndAttributes{s.tableName: {Keys: keys}}

	for attempt := 0; len(request) > 0; attempt++ {
		if attempt > s.maxRetries {
			return unavailable("BatchGetItem", errors.New("unprocessed keys remain after retries"))
		}
		if attempt > 0 {
			if err := s.wait(ctx, attempt); err != nil {
				return err
			}
		}

		out, err := s.client.BatchGetItem(ctx, &sdk.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return unavailable("BatchGetItem", err)
		}
		for _, item := range out.Responses[s.tableName] {
			items[keyString(s.fields, item)] = item
		}
		request = out.UnprocessedKeys
	}
	return nil
}

// Has implements modelstore.Storage with a GetItem projected on the key.
func (s *Storage) Has(ctx context.Context, id any) (bool, error) {
	key, err := s.key(id)
	if err != nil {
		return false, err
	}

	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:                &s.tableName,
		Key:                      key,
		ProjectionExpression:     aws.String("#k"),
		ExpressionAttributeNames: map[string]string{"#k": s.fields[0]},
	})
	if err != nil {
		return false, unavailable("GetItem", err)
	}
	return out.Item != nil, nil
}

// scanInput builds a Scan of the items of the storage's entity type.
func (s *Storage) scanInput(projection *string, names map[string]string) *sdk.ScanInput {
	if names == nil {
		names = map[string]string{}
	}
	names["#et"] = EntityTypeAttribute

	return &sdk.ScanInput{
		TableName:                &s.tableName,
		FilterExpression:         aws.String("#et = :et"),
		ProjectionExpression:     projection,
		ExpressionAttributeNames: names,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":et": &types.AttributeValueMemberS{Value: s.entityType},
		},
		Limit: aws.Int32(s.pageSize),
	}
}

// scan walks every page of items of the storage's entity type.
func (s *Storage) scan(ctx context.Context, projection *string, names map[string]string, fn func(map[string]types.AttributeValue) error) error {
	input := s.scanInput(projection, names)

	pages := 0
	for {
		out, err := s.scanWithRetry(ctx, input)
		if err != nil {
			return err
		}
		pages++

		for _, item := range out.Items {
			if err := fn(item); err != nil {
				return err
			}
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	s.logger.DebugContext(ctx, "dynamodb scan completed", "table", s.tableName, "entity_type", s.entityType, "pages", pages)
	return nil
}

// scanWithRetry executes a scan page, retrying throttled requests with a
// linear backoff.
func (s *Storage) scanWithRetry(ctx context.Context, input *sdk.ScanInput) (*sdk.ScanOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}

		out, err := s.client.Scan(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, unavailable("Scan", err)
		}
		s.logger.WarnContext(ctx, "dynamodb scan throttled", "table", s.tableName, "attempt", attempt+1, "error", err)
	}

	return nil, unavailable("Scan", fmt.Errorf("failed after %d retries: %w", s.maxRetries, lastErr))
}

func (s *Storage) wait(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(attempt) * s.retryBackoff):
		return nil
	}
}

// FindAll implements modelstore.Storage by draining Stream. The first
// failure aborts the scan.
func (s *Storage) FindAll(ctx context.Context) ([]any, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	models := []any{}
	for result := range s.Stream(ctx) {
		if result.Err != nil {
			return nil, result.Err
		}
		models = append(models, result.Model)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// Flush implements modelstore.Storage with PutItem. Key attributes and the
// EntityType attribute are added to the marshaled model.
func (s *Storage) Flush(ctx context.Context, id any, model any) (bool, error) {
	key, err := s.key(id)
	if err != nil {
		return false, err
	}

	av, err := attributevalue.MarshalMap(model)
	if err != nil {
		return false, fmt.Errorf("failed to marshal model: %w", err)
	}
	for k, v := range key {
		av[k] = v
	}
	av[EntityTypeAttribute] = &types.AttributeValueMemberS{Value: s.entityType}

	_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &s.tableName,
		Item:      av,
	})
	if err != nil {
		return false, unavailable("PutItem", err)
	}
	return true, nil
}

// Remove implements modelstore.Storage with DeleteItem.
func (s *Storage) Remove(ctx context.Context, id any, model any) (bool, error) {
	key, err := s.key(id)
	if err != nil {
		return false, err
	}

	_, err = s.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return false, unavailable("DeleteItem", err)
	}
	return true, nil
}

// RemoveAll deletes every item of the storage's entity type. Items of other
// model types sharing the table are kept.
func (s *Storage) RemoveAll(ctx context.Context) (bool, error) {
	names := make(map[string]string, len(s.fields))
	projection := ""
	for i, f := range s.fields {
		placeholder := fmt.Sprintf("#k%d", i)
		names[placeholder] = f
		if i > 0 {
			projection += ", "
		}
		projection += placeholder
	}

	var keys []map[string]types.AttributeValue
	if err := s.scan(ctx, aws.String(projection), names, func(item map[string]types.AttributeValue) error {
		keys = append(keys, item)
		return nil
	}); err != nil {
		return false, err
	}

	for _, key := range keys {
		_, err := s.client.DeleteItem(ctx, &sdk.DeleteItemInput{
			TableName: &s.tableName,
			Key:       key,
		})
		if err != nil {
			return false, unavailable("DeleteItem", err)
		}
	}
	s.logger.DebugContext(ctx, "dynamodb items removed", "table", s.tableName, "entity_type", s.entityType, "count", len(keys))
	return true, nil
}

// FindOrCreate implements modelstore.CreateAware
func (s *Storage) FindOrCreate(ctx context.Context, id any) (any, error) {
	return modelstore.FindOrCreate(ctx, s, id)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

var (
	_ modelstore.Storage      = (*Storage)(nil)
	_ modelstore.SupportAware = (*Storage)(nil)
	_ modelstore.CreateAware  = (*Storage)(nil)
)
