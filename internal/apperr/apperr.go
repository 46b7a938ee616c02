// Package apperr defines the error taxonomy shared by every core operation.
// Each service method returns exactly one of these kinds so that callers can
// branch with errors.Is without inspecting messages. Handlers translate the
// kinds into HTTP status codes via HTTPStatus.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound means the referenced task, payment, technician or session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the identity lacks the ownership or role the operation needs.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means an atomic conditional write matched nothing because a
	// competing request changed the precondition first.
	ErrConflict = errors.New("conflict")
	// ErrInvalidTransition means the requested status is unknown or unreachable
	// from the current one.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrValidation means the caller supplied malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrDependency means the storage or file layer failed.
	ErrDependency = errors.New("dependency failure")
	// ErrUnauthenticated means no usable credential was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// TransitionError reports an illegal status change. From is empty when the
// target is not a member of the status enumeration at all.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("unknown status %q", e.To)
	}
	return fmt.Sprintf("illegal transition from %q to %q", e.From, e.To)
}

// Is makes errors.Is(err, ErrInvalidTransition) hold.
func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// DependencyError wraps a failure of an external collaborator.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *DependencyError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDependency) hold.
func (e *DependencyError) Is(target error) bool { return target == ErrDependency }

// Dependency wraps err as a DependencyError unless it already belongs to the
// taxonomy, in which case it is returned unchanged. A nil err stays nil.
func Dependency(op string, err error) error {
	if err == nil || Known(err) {
		return err
	}
	return &DependencyError{Op: op, Err: err}
}

// Known reports whether err already carries one of the taxonomy kinds.
func Known(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

var kinds = []error{
	ErrNotFound, ErrForbidden, ErrConflict, ErrInvalidTransition,
	ErrValidation, ErrDependency, ErrUnauthenticated,
}

// Validation returns an ErrValidation carrying a field-specific message.
func Validation(msg string) error { return fmt.Errorf("%w: %s", ErrValidation, msg) }

// Forbidden returns an ErrForbidden carrying a reason.
func Forbidden(msg string) error { return fmt.Errorf("%w: %s", ErrForbidden, msg) }

// Conflict returns an ErrConflict carrying a reason.
func Conflict(msg string) error { return fmt.Errorf("%w: %s", ErrConflict, msg) }

// HTTPStatus maps an error to the status code a handler should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
