package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is a misuse of the engine detected while ticking or
// registering reactors. Task failures are not RuntimeErrors; they complete
// the reactor and are reported as outcomes.
type RuntimeError struct {
	Code      RuntimeErrorCode
	Message   string
	ReactorID string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeWorldBorrowed means Tick found the world already borrowed.
	ErrCodeWorldBorrowed RuntimeErrorCode = "WORLD_BORROWED"

	// ErrCodeDuplicateReactor means a reactor ID is already registered.
	ErrCodeDuplicateReactor RuntimeErrorCode = "DUPLICATE_REACTOR"

	// ErrCodeReentrantTick means Tick was called from inside a tick.
	ErrCodeReentrantTick RuntimeErrorCode = "REENTRANT_TICK"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.ReactorID != "" {
		return fmt.Sprintf("%s: %s (reactor=%s)", e.Code, e.Message, e.ReactorID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsWorldBorrowed reports whether err is a WORLD_BORROWED runtime error.
func IsWorldBorrowed(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeWorldBorrowed
}

// IsDuplicateReactor reports whether err is a DUPLICATE_REACTOR runtime error.
func IsDuplicateReactor(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeDuplicateReactor
}

// ErrNotDone is returned by Handle.Result while the reactor is pending.
var ErrNotDone = errors.New("reactor has not finished")

// PanicError carries a value recovered from a panicking poll.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
