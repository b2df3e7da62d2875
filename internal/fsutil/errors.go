package fsutil

import (
	"errors"
	"fmt"
)

// ErrFilesystem marks failures to read or write calibration inputs and
// outputs. Callers test for it with errors.Is.
var ErrFilesystem = errors.New("filesystem error")

// OpError records the operation and path of a failed filesystem call.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the filesystem kind and the underlying cause.
func (e *OpError) Unwrap() []error {
	return []error{ErrFilesystem, e.Err}
}

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Path: path, Err: err}
}
