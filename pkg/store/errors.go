package store

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat marks a progress file that cannot be decoded.
	ErrFormat = errors.New("malformed progress file")
	// ErrNotFound is returned by Load when no progress file exists.
	ErrNotFound = errors.New("progress file not found")
	// ErrIO is returned by Save when the target cannot be written.
	ErrIO = errors.New("progress file not writable")
)

// FormatError describes where decoding failed. Line is 1-based; 0 means
// the error is not tied to a line.
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", ErrFormat, e.Reason)
	}
	return fmt.Sprintf("%s: line %d: %s", ErrFormat, e.Line, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

func formatErrorf(line int, format string, args ...any) error {
	return &FormatError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
