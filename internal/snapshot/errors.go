package snapshot

import (
	"errors"
	"fmt"
)

// ErrMalformedSnapshot matches every parse failure.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// MalformedError reports the field path that failed validation.
type MalformedError struct {
	Path   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMalformedSnapshot, e.Path, e.Reason)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedSnapshot
}

func malformed(path, format string, args ...interface{}) error {
	return &MalformedError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
