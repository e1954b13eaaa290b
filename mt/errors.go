package mt

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUserCancelled reports that the user cancelled the operation. It is never
// presented as an error.
var ErrUserCancelled = errors.New("operation cancelled by user")

// ErrClosed is returned when work is submitted to a closed Core.
var ErrClosed = errors.New("job core is closed")

// SystemError is a failure of the environment rather than of the operation,
// such as an unexpected panic or an I/O error outside the backend.
type SystemError struct {
	Msg string
	Err error
}

func (e *SystemError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }

// OperationError is a backend-specific failure surfaced to the user as text.
type OperationError struct {
	Op  string
	Msg string
	Err error
}

func (e *OperationError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *OperationError) Unwrap() error { return e.Err }

// IsUserCancel reports whether err reflects a cancellation the user asked for.
func IsUserCancel(err error) bool {
	return errors.Is(err, ErrUserCancelled) || errors.Is(err, context.Canceled)
}

// ErrorSlot holds at most one error. The first Set wins.
type ErrorSlot struct {
	mu  sync.Mutex
	err error
}

// Set stores err if the slot is empty. It reports whether err was stored.
func (s *ErrorSlot) Set(err error) bool {
	if err == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false
	}
	s.err = err
	return true
}

// Err returns the stored error, if any.
func (s *ErrorSlot) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// IsSet reports whether an error has been stored.
func (s *ErrorSlot) IsSet() bool {
	return s.Err() != nil
}
