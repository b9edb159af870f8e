package views

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
)

var (
	// ErrNotFound maps to 404.
	ErrNotFound = errors.New("views: not found")
	// ErrValidation maps to 422.
	ErrValidation = errors.New("views: validation failed")
	// ErrIdentityConflict maps to 409.
	ErrIdentityConflict = errors.New("views: identity conflict")
)

// ConfigurationError reports a view that cannot be registered.
type ConfigurationError struct {
	View   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.View == "" {
		return "views: configuration: " + e.Reason
	}
	return fmt.Sprintf("views: %s: %s", e.View, e.Reason)
}

// StatusCode maps a handler error to its HTTP status. Errors outside the
// request taxonomy are 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, schema.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrIdentityConflict), errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NotFound wraps ErrNotFound with a description of what is missing.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
