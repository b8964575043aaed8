package task

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes task failures.
type ErrorCode string

const (
	// CodeSuspendPoint means a suspend point's own evaluation failed.
	CodeSuspendPoint ErrorCode = "SUSPEND_POINT_FAILURE"

	// CodeEffect means a background operation reported an error.
	CodeEffect ErrorCode = "EFFECT_FAILURE"

	// CodePanic means a poll panicked and the reactor recovered it.
	CodePanic ErrorCode = "TASK_PANIC"

	// CodeCancelled means the task was cancelled before it finished.
	CodeCancelled ErrorCode = "CANCELLED"

	// CodeTimeout means a Timeout deadline passed first.
	CodeTimeout ErrorCode = "TIMEOUT"
)

// Error is a task failure with a category.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	default:
		return string(e.Code)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// ErrTimeout is the cause carried by a Timeout failure.
var ErrTimeout = errors.New("deadline passed")

// SuspendPointFailure wraps err as a suspend point failure. Errors that are
// already task errors are returned unchanged.
func SuspendPointFailure(err error) error {
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Code: CodeSuspendPoint, Err: err}
}

// EffectFailure wraps err as an effect failure.
func EffectFailure(name string, err error) error {
	return &Error{Code: CodeEffect, Message: name, Err: err}
}

// Cancelled returns the failure reported for a cancelled task.
func Cancelled(reason string) error {
	return &Error{Code: CodeCancelled, Message: reason}
}

func hasCode(err error, code ErrorCode) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// IsSuspendPointFailure reports whether err is a suspend point failure.
func IsSuspendPointFailure(err error) bool { return hasCode(err, CodeSuspendPoint) }

// IsEffectFailure reports whether err is an effect failure.
func IsEffectFailure(err error) bool { return hasCode(err, CodeEffect) }

// IsPanic reports whether err is a recovered panic.
func IsPanic(err error) bool { return hasCode(err, CodePanic) }

// IsCancelled reports whether err is a cancellation.
func IsCancelled(err error) bool { return hasCode(err, CodeCancelled) }

// IsTimeout reports whether err is a Timeout failure.
func IsTimeout(err error) bool { return hasCode(err, CodeTimeout) }

// BranchError identifies which child of a Race or Join failed.
type BranchError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *BranchError) Error() string {
	return fmt.Sprintf("branch %d: %v", e.Index, e.Err)
}

// Unwrap returns the branch's error.
func (e *BranchError) Unwrap() error { return e.Err }
