package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyOpen matches any *AlreadyOpenError.
	ErrAlreadyOpen = errors.New("window already open")
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("window not found")
	// ErrUnsupported matches any *UnsupportedOperationError.
	ErrUnsupported = errors.New("unsupported operation")
)

// AlreadyOpenError is returned when opening a window that is already open.
type AlreadyOpenError struct {
	ID string
}

func (e *AlreadyOpenError) Error() string {
	return fmt.Sprintf("window %q is already open", e.ID)
}

func (e *AlreadyOpenError) Is(target error) bool {
	return target == ErrAlreadyOpen
}

// NotFoundError is returned when a command targets a window that is not in
// the state the command needs.
type NotFoundError struct {
	ID     string
	Reason string
}

func (e *NotFoundError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("window %q not found", e.ID)
	}
	return fmt.Sprintf("window %q not found: %s", e.ID, e.Reason)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UnsupportedOperationError describes a command the window's configuration
// does not allow. The session manager treats it as a no-op.
type UnsupportedOperationError struct {
	ID string
	Op string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("window %q does not support %s", e.ID, e.Op)
}

func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupported
}

const (
	reasonNotOpen      = "not open"
	reasonNotMinimized = "not minimized"
	reasonMinimized    = "minimized"
)
