// Package ctxerr defines the error taxonomy raised at the boundary of the
// context propagation core: configuration errors, activation errors raised
// by an individual manager, and reactivation errors raised while restoring a
// snapshot.
package ctxerr

import (
	"errors"
	"fmt"
)

// ConfigurationError is returned when a wrapper is invoked and neither its
// snapshot nor its snapshot supplier yields a snapshot. Wrapper and future
// constructors do not check their arguments, so a missing snapshot surfaces
// at invocation and a nil delegate is not checked at all. It is never
// swallowed.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("context configuration error: %s", e.Reason)
}

// NewConfigurationError builds a ConfigurationError with the given reason.
func NewConfigurationError(reason string) error {
	return &ConfigurationError{Reason: reason}
}

// ActivationError wraps a failure from a single manager's
// InitializeNewContext call.
type ActivationError struct {
	Manager string
	Cause   error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("context manager %q rejected activation: %v", e.Manager, e.Cause)
}

func (e *ActivationError) Unwrap() error { return e.Cause }

// NewActivationError wraps cause as an ActivationError for the named manager.
func NewActivationError(manager string, cause error) error {
	return &ActivationError{Manager: manager, Cause: cause}
}

// ReactivationError wraps the error returned by the first manager whose
// InitializeNewContext fails while reactivating a snapshot, after all
// already-created handles have been rolled back.
type ReactivationError struct {
	Manager string
	Cause   error
}

func (e *ReactivationError) Error() string {
	return fmt.Sprintf("failed to reactivate context manager %q: %v", e.Manager, e.Cause)
}

func (e *ReactivationError) Unwrap() error { return e.Cause }

// NewReactivationError wraps cause as a ReactivationError for the named
// manager.
func NewReactivationError(manager string, cause error) error {
	return &ReactivationError{Manager: manager, Cause: cause}
}

// CloseError is the first error encountered while closing a composite
// reactivation handle. It is surfaced only after every contained handle has
// been attempted.
type CloseError struct {
	Manager string
	Cause   error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("failed to close context handle for manager %q: %v", e.Manager, e.Cause)
}

func (e *CloseError) Unwrap() error { return e.Cause }

// NewCloseError wraps cause as a CloseError for the named manager.
func NewCloseError(manager string, cause error) error {
	return &CloseError{Manager: manager, Cause: cause}
}

// Is reports whether err is (or wraps) a ConfigurationError, ActivationError,
// ReactivationError, or CloseError.
func Is(err error) bool {
	var cfg *ConfigurationError
	var act *ActivationError
	var react *ReactivationError
	var cl *CloseError
	return errors.As(err, &cfg) || errors.As(err, &act) || errors.As(err, &react) || errors.As(err, &cl)
}
