package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType is returned for inputs whose extension or content
	// cannot be decoded.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrFileTooLarge is returned when an input exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyGrid is returned when a decoded file holds no rows.
	ErrEmptyGrid = errors.New("empty file: no rows found")

	// ErrNoFile is returned when a request carries no input file.
	ErrNoFile = errors.New("no file provided")

	// ErrNoData is returned when an operation needs a loaded grid.
	ErrNoData = errors.New("no data loaded")
)

// ValidationError rejects an input before any processing.
type ValidationError struct {
	File string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %v", e.File, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ParseError reports that a codec could not produce a grid.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ProcessingError reports an unexpected failure inside the pipeline.
type ProcessingError struct {
	File  string
	Stage CleanPhase
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing %s during %s: %v", e.File, e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// ExportError reports an encode, archive or sink failure.
type ExportError struct {
	File string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.File, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// ErrorKind names the taxonomy bucket of err, or "" for untyped errors.
func ErrorKind(err error) string {
	var (
		ve *ValidationError
		pe *ParseError
		re *ProcessingError
		ee *ExportError
	)
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &re):
		return "processing"
	case errors.As(err, &ee):
		return "export"
	}
	return ""
}
