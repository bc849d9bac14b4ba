package domain

import (
	"errors"
	"fmt"
)

// ErrMissingColumn reports a required column absent from the input header.
var ErrMissingColumn = errors.New("missing required column")

// ParseError reports an input value that cannot be interpreted. It is fatal
// to the run.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s at line %d: %q: %v", e.Field, e.Line, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s: %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingDataError reports a row lacking a required field after imputation.
// Cleaning drops such rows instead of surfacing the error.
type MissingDataError struct {
	Line  int
	Field string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("line %d: missing %s", e.Line, e.Field)
}

// InsufficientDataError reports a region that cannot be modeled. The pipeline
// skips such regions instead of failing.
type InsufficientDataError struct {
	Region string
	Rows   int
	Min    int
	Err    error
}

func (e *InsufficientDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("region %s: insufficient data: %v", e.Region, e.Err)
	}
	return fmt.Sprintf("region %s: insufficient data: %d lagged rows, need %d", e.Region, e.Rows, e.Min)
}

func (e *InsufficientDataError) Unwrap() error { return e.Err }
