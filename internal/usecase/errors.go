package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrForbidden = errors.New("forbidden")
	// ErrServiceUnavailable marks storage or allocator faults. The wrapped detail
	// is for logs only and never reaches the client.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ValidationError reports malformed input keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Fields[k]
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func newFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}
