/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// StreamResult is one item of a Stream. Err is set on a decode failure or
// on the final result of a failed scan.
type StreamResult struct {
	Model any
	Raw   map[string]types.AttributeValue
	Err   error
	Meta  StreamMeta
}

// StreamMeta locates a result in the scan.
type StreamMeta struct {
	Index int64 // 0-based
	Page  int   // 1-based
}

// StreamProgress is reported after every page and once at the end.
type StreamProgress struct {
	ItemsProcessed int64
	PagesProcessed int
	LastKey        map[string]types.AttributeValue
	Errors         []error
	StartTime      time.Time
	CurrentRate    float64 // items per second
}

// StreamOptions configures a Stream.
type StreamOptions struct {
	BufferSize      int
	ProgressHandler func(StreamProgress)
	// ErrorHandler decides whether a decode failure ends the stream; without
	// one the stream ends.
	ErrorHandler func(error) bool
}

// StreamOption is a functional option for Stream.
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns the options used when none are given.
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{BufferSize: 100}
}

// WithBufferSize sets the result channel buffer size.
func WithBufferSize(size int) StreamOption {
	return func(o *StreamOptions) {
		if size >= 0 {
			o.BufferSize = size
		}
	}
}

// WithProgressHandler sets the progress callback.
func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(o *StreamOptions) {
		o.ProgressHandler = handler
	}
}

// WithErrorHandler sets the decode failure callback. Return true to continue.
func WithErrorHandler(handler func(error) bool) StreamOption {
	return func(o *StreamOptions) {
		o.ErrorHandler = handler
	}
}

// Stream scans every item of the storage's entity type page by page and
// delivers the decoded models in scan order. The channel is closed when the
// scan ends, fails or ctx is done.
func (s *Storage) Stream(ctx context.Context, opts ...StreamOption) <-chan StreamResult {
	options := DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}

	results := make(chan StreamResult, options.BufferSize)
	go s.streamWorker(ctx, options, results)
	return results
}

func (s *Storage) streamWorker(ctx context.Context, options StreamOptions, results chan<- StreamResult) {
	defer close(results)

	var (
		index  int64
		page   int
		errs   []error
		start  = time.Now()
		input  = s.scanInput(nil, nil)
		report = func(lastKey map[string]types.AttributeValue) {
			if options.ProgressHandler == nil {
				return
			}
			progress := StreamProgress{
				ItemsProcessed: index,
				PagesProcessed: page,
				LastKey:        lastKey,
				Errors:         errs,
				StartTime:      start,
			}
			if elapsed := time.Since(start).Seconds(); elapsed > 0 {
				progress.CurrentRate = float64(index) / elapsed
			}
			options.ProgressHandler(progress)
		}
	)

	send := func(result StreamResult) bool {
		select {
		case <-ctx.Done():
			return false
		case results <- result:
			return true
		}
	}

	for {
		out, err := s.scanWithRetry(ctx, input)
		if err != nil {
			send(StreamResult{Err: err, Meta: StreamMeta{Index: index, Page: page}})
			return
		}
		page++

		for _, item := range out.Items {
			result := StreamResult{Raw: item, Meta: StreamMeta{Index: index, Page: page}}
			result.Model, result.Err = s.decode(item)
			index++

			if !send(result) {
				return
			}
			if result.Err != nil {
				errs = append(errs, result.Err)
				if options.ErrorHandler == nil || !options.ErrorHandler(result.Err) {
					return
				}
			}
		}

		report(out.LastEvaluatedKey)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	s.logger.DebugContext(ctx, "dynamodb stream completed", "table", s.tableName, "entity_type", s.entityType, "items", index, "pages", page)
	report(nil)
}
