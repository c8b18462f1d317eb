package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Callers wrap these with
// fmt.Errorf("%w: ...") and the API maps them with errors.Is.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrExternalService  = errors.New("external service error")
	ErrTransient        = errors.New("temporary storage failure, retry later")
	ErrUnauthenticated  = errors.New("authentication failed")

	// ErrInvalidQuery is a ValidationFailed raised by the list query builder.
	ErrInvalidQuery = fmt.Errorf("%w: invalid query", ErrValidation)

	ErrInvalidRoleTransition = fmt.Errorf("%w: invalid role transition", ErrValidation)
)

// Validationf builds a ValidationFailed error with a human readable reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
