package schedule

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFamily    = errors.New("family is not configured")
	ErrDinnerConfirmed  = errors.New("dinner is confirmed; availability is frozen")
	ErrAlreadyConfirmed = errors.New("dinner is already confirmed")
	ErrEmptyRotation    = errors.New("host rotation is empty")
	ErrInvalidDateKey   = errors.New("invalid date key")
	ErrInvalidMealLog   = errors.New("invalid meal log")
)

// ValidationError is returned when a request is rejected before any write.
// A ValidationError always means nothing was applied.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
