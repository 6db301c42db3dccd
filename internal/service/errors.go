package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSeeded means the rotation config was never created
	ErrNotSeeded = errors.New("rotation config has not been created")
	// ErrTooManyConflicts means every attempt lost a concurrent version check
	ErrTooManyConflicts = errors.New("too many concurrent updates")

	errConflict = errors.New("version conflict")
)

// Outcome says what a caller can assume about a failed write
type Outcome int

const (
	// NotApplied means nothing was written
	NotApplied Outcome = iota
	// Unknown means the commit itself failed and the write may have landed
	Unknown
)

func (o Outcome) String() string {
	if o == Unknown {
		return "unknown"
	}
	return "not_applied"
}

// StoreError reports a persistence failure during a mutation
type StoreError struct {
	Op      string
	Outcome Outcome
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: store failure (%s): %v", e.Op, e.Outcome, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// MaybeApplied reports whether the write could have been committed.
// Callers must re-read before retrying a confirmation in that case.
func (e *StoreError) MaybeApplied() bool {
	return e.Outcome == Unknown
}

// ExternalServiceError wraps a failure of a third-party call
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
