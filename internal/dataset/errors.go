package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDataLoad matches every *LoadError through errors.Is.
var ErrDataLoad = errors.New("data load failed")

// LoadError reports why a source could not be turned into a Table. Row is the 1-based
// row number in the source and is zero when the failure is not tied to a row.
type LoadError struct {
	Source string
	Row    int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load %s", e.Source)
	if e.Row > 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %s", e.Column)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return target == ErrDataLoad
}

func loadErr(source string, err error) *LoadError {
	return &LoadError{Source: source, Err: err}
}
