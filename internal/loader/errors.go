// Package loader turns raw tabular sources into the normalized listings and
// incidents tables. Loading happens once per source at startup; any failure
// is a DataLoadError and aborts startup.
package loader

import (
	"errors"
	"fmt"
)

// DataLoadError reports a required source that is missing, unreadable, or
// malformed. It is fatal and never retried.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("data load %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// NewDataLoadError wraps err as a DataLoadError for the named source.
func NewDataLoadError(source string, err error) *DataLoadError {
	return &DataLoadError{Source: source, Err: err}
}

// IsDataLoadError reports whether err (or any error in its chain) is a DataLoadError.
func IsDataLoadError(err error) bool {
	var dle *DataLoadError
	return errors.As(err, &dle)
}
