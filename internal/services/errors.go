package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("forbidden")
	ErrAmountMismatch     = errors.New("amount mismatch")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries per-field messages keyed by the request field name.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{Fields: map[string][]string{}}
	v.Add(field, message)
	return v
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}
