// Package apperr holds the error types command and query handlers return.
// The HTTP layer maps each of them to a problem details response.
package apperr

import (
	"errors"
	"fmt"
)

const defaultValidationMessage = "One or more validation failures have occurred."

// Failure is a single rule violation on a request property.
type Failure struct {
	Property string
	Message  string
}

// ValidationError carries every failure of a request grouped by property.
type ValidationError struct {
	Errors map[string][]string
}

// NewValidationError groups failures by property, keeping their order.
func NewValidationError(failures ...Failure) *ValidationError {
	e := &ValidationError{Errors: make(map[string][]string)}
	for _, f := range failures {
		e.Errors[f.Property] = append(e.Errors[f.Property], f.Message)
	}
	return e
}

func (e *ValidationError) Error() string {
	return defaultValidationMessage
}

// Messages flattens the grouped errors.
func (e *ValidationError) Messages() []string {
	var out []string
	for _, msgs := range e.Errors {
		out = append(out, msgs...)
	}
	return out
}

type NotFoundError struct {
	Name string
	Key  any
}

func NewNotFound(name string, key any) *NotFoundError {
	return &NotFoundError{Name: name, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Entity %q (%v) was not found.", e.Name, e.Key)
}

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "User is not authenticated."
	}
	return e.Message
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	if e.Message == "" {
		return "Access is forbidden."
	}
	return e.Message
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}
