/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package instrument decorates storages with Prometheus metrics.
package instrument

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/suparena/modelstore"
	serrors "github.com/suparena/modelstore/errors"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultFalse = "false"
	ResultError = "error"
)

// Metrics holds the collectors shared by every instrumented storage.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "modelstore",
		Name:      "operations_total",
		Help:      "Storage operations by storage, operation and result",
	}, []string{"storage", "operation", "result"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "modelstore",
		Name:      "operation_duration_seconds",
		Help:      "Storage operation latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"storage", "operation"})

	m := &Metrics{operations: operations, duration: duration}
	if reg == nil {
		return m, nil
	}

	if err := reg.Register(operations); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.operations = are.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	return m, nil
}

// Operations returns the operation counter.
func (m *Metrics) Operations() *prometheus.CounterVec {
	return m.operations
}

// Duration returns the latency histogram.
func (m *Metrics) Duration() *prometheus.HistogramVec {
	return m.duration
}

// Storage records every operation of the wrapped storage. It forwards
// SupportAware and CreateAware to the wrapped storage.
type Storage struct {
	name    string
	inner   modelstore.Storage
	metrics *Metrics
}

// Wrap instruments storage under the given storage label.
func Wrap(name string, storage modelstore.Storage, metrics *Metrics) *Storage {
	return &Storage{name: name, inner: storage, metrics: metrics}
}

// Unwrap returns the instrumented storage.
func (s *Storage) Unwrap() modelstore.Storage {
	return s.inner
}

func (s *Storage) observe(operation string, start time.Time, ok bool, err error) {
	result := ResultOK
	switch {
	case err != nil:
		result = ResultError
	case !ok:
		result = ResultFalse
	}
	s.metrics.operations.WithLabelValues(s.name, operation, result).Inc()
	s.metrics.duration.WithLabelValues(s.name, operation).Observe(time.Since(start).Seconds())
}

func (s *Storage) Find(ctx context.Context, id any) (any, error) {
	start := time.Now()
	model, err := s.inner.Find(ctx, id)
	s.observe("find", start, model != nil, err)
	return model, err
}

func (s *Storage) FindMultiple(ctx context.Context, ids []any) ([]any, error) {
	start := time.Now()
	models, err := s.inner.FindMultiple(ctx, ids)
	s.observe("findMultiple", start, true, err)
	return models, err
}

func (s *Storage) Has(ctx context.Context, id any) (bool, error) {
	start := time.Now()
	has, err := s.inner.Has(ctx, id)
	s.observe("has", start, has, err)
	return has, err
}

func (s *Storage) FindAll(ctx context.Context) ([]any, error) {
	start := time.Now()
	models, err := s.inner.FindAll(ctx)
	s.observe("findAll", start, true, err)
	return models, err
}

func (s *Storage) Flush(ctx context.Context, id any, model any) (bool, error) {
	start := time.Now()
	ok, err := s.inner.Flush(ctx, id, model)
	s.observe("flush", start, ok, err)
	return ok, err
}

func (s *Storage) Remove(ctx context.Context, id any, model any) (bool, error) {
	start := time.Now()
	ok, err := s.inner.Remove(ctx, id, model)
	s.observe("remove", start, ok, err)
	return ok, err
}

func (s *Storage) RemoveAll(ctx context.Context) (bool, error) {
	start := time.Now()
	ok, err := s.inner.RemoveAll(ctx)
	s.observe("removeAll", start, ok, err)
	return ok, err
}

// Support forwards to the wrapped storage; storages without a predicate
// support every model.
func (s *Storage) Support(model any) bool {
	if sa, ok := s.inner.(modelstore.SupportAware); ok {
		return sa.Support(model)
	}
	return true
}

// Create forwards to the wrapped storage when it is CreateAware.
func (s *Storage) Create(ctx context.Context) (any, error) {
	ca, ok := s.inner.(modelstore.CreateAware)
	if !ok {
		return nil, serrors.NewUnsupportedError("create", s.name)
	}
	start := time.Now()
	model, err := ca.Create(ctx)
	s.observe("create", start, true, err)
	return model, err
}

// FindOrCreate forwards to the wrapped storage when it is CreateAware.
func (s *Storage) FindOrCreate(ctx context.Context, id any) (any, error) {
	ca, ok := s.inner.(modelstore.CreateAware)
	if !ok {
		return nil, serrors.NewUnsupportedError("findOrCreate", s.name)
	}
	start := time.Now()
	model, err := ca.FindOrCreate(ctx, id)
	s.observe("findOrCreate", start, true, err)
	return model, err
}

var (
	_ modelstore.Storage      = (*Storage)(nil)
	_ modelstore.SupportAware = (*Storage)(nil)
	_ modelstore.CreateAware  = (*Storage)(nil)
)
