package ephys

import (
	"errors"
	"fmt"
	"strings"
)

// UnsupportedFormatError means the path's extension or scheme maps to no
// adapter. Fatal: there is no fallback for an unrecognized format.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported recording format: %s", e.Path)
}

// MissingBackendError means a preferred reading backend is unavailable.
// Recoverable: the caller tries the next tier with a warning.
type MissingBackendError struct {
	Backend string
	Err     error
}

func (e *MissingBackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %q unavailable: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("backend %q unavailable", e.Backend)
}

func (e *MissingBackendError) Unwrap() error { return e.Err }

// MalformedContainerError means the expected internal structure of a
// container is missing or unreadable. Recoverable: triggers the legacy tier.
type MalformedContainerError struct {
	Path   string
	Detail string
	Err    error
}

func (e *MalformedContainerError) Error() string {
	msg := fmt.Sprintf("malformed container %s: %s", e.Path, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedContainerError) Unwrap() error { return e.Err }

// StackingMismatchError means sweeps were not uniform length where
// uniformity is a format property (ABF). Fatal: the flat format has no
// reconciliation path.
type StackingMismatchError struct {
	Lengths []int
}

func (e *StackingMismatchError) Error() string {
	return fmt.Sprintf("sweep lengths are not uniform, cannot stack: %v", e.Lengths)
}

// Attempt records one tried strategy and why it failed.
type Attempt struct {
	Strategy string
	Err      error
}

// OpenError aggregates every attempted strategy after all tiers failed.
// The original (first) failure is preserved and surfaced, never silently
// swallowed into a degraded result.
type OpenError struct {
	Path     string
	Attempts []Attempt
}

func (e *OpenError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return fmt.Sprintf("all strategies failed for %s [%s]", e.Path, strings.Join(parts, "; "))
}

// Unwrap exposes every attempt's error so errors.Is/As see through the
// aggregate.
func (e *OpenError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Recoverable reports whether an adapter failure should trigger the next
// fallback tier rather than surfacing immediately.
func Recoverable(err error) bool {
	var mb *MissingBackendError
	var mc *MalformedContainerError
	return errors.As(err, &mb) || errors.As(err, &mc)
}
