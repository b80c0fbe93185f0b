// Package hook notifies external collaborators around pipeline events,
// e.g. an experiment tracker receiving run metrics.
package hook

import (
	"errors"
)

// Hook is a pair of before/after notifications around processing a value T.
type Hook[T any] interface {
	// Before is called before the value T is processed.
	Before(T) error

	// After is called after the value T is processed.
	After(T) error
}

var ErrHookFailed = errors.New("hook failed")
