/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package identity

import (
	"fmt"
	"strings"

	"github.com/suparena/modelstore/errors"
)

// ReservedCharacters may not appear in a validated identifier.
const ReservedCharacters = `{}()/\@:`

// Validator rejects malformed string keys before storage keys are built.
type Validator interface {
	Validate(identifier any) error
}

// DefaultValidator enforces a non-empty string free of ReservedCharacters.
type DefaultValidator struct{}

// NewValidator returns the default validator.
func NewValidator() DefaultValidator {
	return DefaultValidator{}
}

// Validate implements Validator. Failures match errors.ErrInvalidInput.
func (DefaultValidator) Validate(identifier any) error {
	id, ok := identifier.(string)
	if !ok {
		return errors.NewValidationError("identifier", fmt.Sprintf("must be string, %T given", identifier))
	}
	if id == "" {
		return errors.NewValidationError("identifier", "can not be empty")
	}
	if strings.ContainsAny(id, ReservedCharacters) {
		return errors.NewValidationError("identifier",
			fmt.Sprintf("%q contains illegal characters %q", id, ReservedCharacters))
	}
	return nil
}
