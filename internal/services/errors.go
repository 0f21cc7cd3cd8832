package services

import (
	"errors"
	"fmt"
)

// Business failure sentinels. Handlers translate these to HTTP
// statuses; infrastructure errors pass through untouched and surface
// as generic failures.
var (
	// ErrNotFound means the target entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness rule was violated
	ErrConflict = errors.New("conflict")

	// ErrInvalidState means the operation is not legal for the
	// entity's current state, e.g. a second checkout or editing a
	// checked-in pre-registration
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidCredentials covers both unknown-username and
	// wrong-password so callers cannot enumerate accounts
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError reports bad or missing input on a named field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validationf builds a ValidationError for a field
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsValidation extracts a ValidationError from an error chain
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
