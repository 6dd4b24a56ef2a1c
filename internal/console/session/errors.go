package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrAuthenticationFailed = errors.New("session: authentication failed")
	ErrNoRefreshToken       = errors.New("session: no refresh token")
	ErrRefreshRejected      = errors.New("session: refresh rejected")
	ErrUnauthorized         = errors.New("session: not authorized")
	ErrValidation           = errors.New("session: validation failed")
)

// ValidationError lists field problems found before any backend call. It
// matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %s", k, e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
