package container

import "fmt"

// MergeError reports a slice that ended because its merge function or its
// source failed. The container's state is left at the last published value.
type MergeError struct {
	SliceID string
	Err     error
}

// Error implements the error interface.
func (e *MergeError) Error() string {
	return fmt.Sprintf("merge failed in slice %s: %v", e.SliceID, e.Err)
}

// Unwrap enables error unwrapping for errors.Is and errors.As.
func (e *MergeError) Unwrap() error {
	return e.Err
}
