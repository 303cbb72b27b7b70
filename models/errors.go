package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the store, search and service layers.
var (
	// ErrInvalidConfiguration indicates chunking or service parameters that can never work,
	// e.g. an overlap that leaves a non-positive stride.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidArgument indicates a caller bug such as parallel sequences of different
	// lengths or vectors of mismatched dimension.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorage indicates the underlying persistence is unavailable or corrupt.
	ErrStorage = errors.New("storage error")

	// ErrProvider indicates an external embedding or generation call failed.
	ErrProvider = errors.New("provider error")

	// ErrNotFound is only surfaced by the service layer; stores and search report
	// unknown documents as empty results.
	ErrNotFound = errors.New("not found")
)

// ProviderError carries the cause of a failed external AI call.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrProvider) hold for every ProviderError.
func (e *ProviderError) Is(target error) bool { return target == ErrProvider }
