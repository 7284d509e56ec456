package schedule

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("schedule file not found")
	ErrIO        = errors.New("schedule file unreadable")
	ErrMalformed = errors.New("malformed schedule")
)

// LoadError describes a failed Load. Kind is one of ErrNotFound, ErrIO or
// ErrMalformed and is matched by errors.Is.
type LoadError struct {
	Kind error
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{e.Kind, e.Err} }
