package tracker

import (
	"errors"
	"fmt"
)

// StorageError is returned when the tracker file is missing, unreadable or unwritable.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError reports a row or input that lacks a required value or
// carries a value outside a closed set.
type ValidationError struct {
	Field string
	Line  int // CSV line number, 0 when not read from the file
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Msg)
	}
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NotFoundError is returned when no record matches a company or index.
type NotFoundError struct {
	Company string
	Index   int
}

func (e *NotFoundError) Error() string {
	if e.Company != "" {
		return fmt.Sprintf("no application for company %q", e.Company)
	}
	return fmt.Sprintf("no application at index %d", e.Index)
}

// IsNotFound reports whether err carries a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err carries a *StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
