package records

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the API client and the lookup session.
var (
	ErrNetwork       = errors.New("network error")
	ErrAuth          = errors.New("authentication error")
	ErrRateLimited   = errors.New("rate limited")
	ErrNotFound      = errors.New("not found")
	ErrStaleResponse = errors.New("stale response")
)

// APIError describes a failed call to the records backend. It matches both
// its taxonomy Kind and the underlying cause with errors.Is.
type APIError struct {
	Kind   error
	Op     string
	Status int
	Err    error
}

func (e *APIError) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsAuth reports whether err must be handed to the auth collaborator.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}
