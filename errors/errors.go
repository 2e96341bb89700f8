/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a model is not found
	ErrNotFound = errors.New("model not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingStorage is returned when no storage is registered under a name
	// or no storage supports a model's type
	ErrMissingStorage = errors.New("missing storage")

	// ErrUnsupported is returned when a storage does not implement an operation
	ErrUnsupported = errors.New("unsupported operation")

	// ErrBackendUnavailable is returned when a backend store cannot be reached
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// NotFoundError represents an error when a model is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MissingStorageError is returned when a storage lookup yields nothing.
// Name is set for lookups by name, ModelType for lookups by model.
type MissingStorageError struct {
	Name      string
	ModelType string
}

func (e *MissingStorageError) Error() string {
	switch {
	case e.Name != "":
		return fmt.Sprintf("no storage registered for %q", e.Name)
	case e.ModelType != "":
		return fmt.Sprintf("no storage supports model of type %s", e.ModelType)
	default:
		return "no storage configured"
	}
}

func (e *MissingStorageError) Is(target error) bool {
	return target == ErrMissingStorage
}

// UnsupportedError represents an operation a storage does not implement
type UnsupportedError struct {
	Operation string
	Storage   string
}

func (e *UnsupportedError) Error() string {
	if e.Storage != "" {
		return fmt.Sprintf("storage %s does not support %q", e.Storage, e.Operation)
	}
	return fmt.Sprintf("%q is not supported", e.Operation)
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// BackendUnavailableError wraps the failure of an external store
type BackendUnavailableError struct {
	Backend string
	Err     error
}

func (e *BackendUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s not accessible", e.Backend)
	}
	return fmt.Sprintf("%s not accessible: %v", e.Backend, e.Err)
}

func (e *BackendUnavailableError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(modelType, key string) error {
	return &NotFoundError{Type: modelType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewMissingStorageError creates a MissingStorageError for a storage name
func NewMissingStorageError(name string) error {
	return &MissingStorageError{Name: name}
}

// NewMissingStorageForModelError creates a MissingStorageError for a model type
func NewMissingStorageForModelError(modelType string) error {
	return &MissingStorageError{ModelType: modelType}
}

// NewUnsupportedError creates a new UnsupportedError
func NewUnsupportedError(operation, storage string) error {
	return &UnsupportedError{Operation: operation, Storage: storage}
}

// NewBackendUnavailableError wraps err as a BackendUnavailableError
func NewBackendUnavailableError(backend string, err error) error {
	return &BackendUnavailableError{Backend: backend, Err: err}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMissingStorage checks if an error is a missing storage error
func IsMissingStorage(err error) bool {
	return errors.Is(err, ErrMissingStorage)
}

// IsUnsupported checks if an error is an unsupported operation error
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// IsBackendUnavailable checks if an error is a backend unavailable error
func IsBackendUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}
