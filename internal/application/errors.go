package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when a session token or admin key is missing or invalid.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested employee does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidCode is returned when a supplied access code does not match.
	ErrInvalidCode = errors.New("application: invalid access code")
	// ErrBlocked is returned when the employee is locked out.
	ErrBlocked = errors.New("application: access blocked")
	// ErrDuplicateBadge is returned when registering a badge that already exists.
	ErrDuplicateBadge = errors.New("application: duplicate badge")
	// ErrTokenNotFound is returned when no locked employee holds the unlock token.
	ErrTokenNotFound = errors.New("application: unlock token not found")
	// ErrNotLocked is returned when unlocking an employee who is not locked.
	ErrNotLocked = errors.New("application: employee not locked")
	// ErrConcurrentUpdate is returned when attempt bookkeeping keeps losing races.
	ErrConcurrentUpdate = errors.New("application: concurrent update")

	// ErrAlreadyExists is reported by stores when a unique value is taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrConflict is reported by stores when a conditional update finds the row changed.
	ErrConflict = errors.New("application: conflicting update")
)

// InvalidCodeError reports a wrong code together with the attempt count it consumed.
type InvalidCodeError struct {
	Attempt int
	Max     int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("%v (attempt %d/%d)", ErrInvalidCode, e.Attempt, e.Max)
}

func (e *InvalidCodeError) Unwrap() error {
	return ErrInvalidCode
}

// BlockedError carries the unlock token the employee must hand to an administrator.
type BlockedError struct {
	Token string
	// NewlyLocked is set when this call consumed the final attempt.
	NewlyLocked bool
}

func (e *BlockedError) Error() string {
	return ErrBlocked.Error()
}

func (e *BlockedError) Unwrap() error {
	return ErrBlocked
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
