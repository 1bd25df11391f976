// README: Error taxonomy shared by services and mapped to HTTP statuses by handlers.
package types

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrValidation marks malformed or missing input. Maps to 400.
	ErrValidation = errors.New("validation error")
	// ErrNotFound covers both "does not exist" and "not yours". Maps to 404.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned for duplicates and lost compare-and-set races. Maps to 409.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState is returned when a checked status transition is not in the graph. Maps to 409.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrForbiddenOrigin rejects callbacks from outside the allow-list. Maps to 403.
	ErrForbiddenOrigin = errors.New("origin not allowed")
	// ErrPersistence wraps store failures on the primary write path. Maps to 500.
	ErrPersistence = errors.New("persistence failure")
)

// FieldErrors collects field-level validation messages. It unwraps to ErrValidation.
type FieldErrors map[string]string

func (f FieldErrors) Add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (f FieldErrors) Unwrap() error { return ErrValidation }

// Err returns nil when no field failed.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// Fields extracts field details from anywhere in err's chain.
func Fields(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
