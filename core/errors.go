package core

import "fmt"

// InternalError is the panic value used when the window object graph is
// inconsistent: a split layout failing its sentinel check, or a window used
// or freed after it was already freed.
type InternalError struct {
	Op     string
	Reason string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("core: %s: %s", e.Op, e.Reason)
}

func fatal(op, reason string) {
	panic(&InternalError{Op: op, Reason: reason})
}
