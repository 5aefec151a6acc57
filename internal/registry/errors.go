package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSpecifier is returned for specifiers outside the known set
	ErrUnknownSpecifier = errors.New("unknown module specifier")
	// ErrMaxDepthExceeded is returned when require nests too deeply
	ErrMaxDepthExceeded = errors.New("maximum require depth exceeded")
	// ErrDuplicateSpecifier is returned when a specifier is defined twice
	ErrDuplicateSpecifier = errors.New("module specifier already defined")
	// ErrRegistrySealed is returned when defining after Seal
	ErrRegistrySealed = errors.New("registry is sealed")
	// ErrInvalidManifest is returned for manifests that fail to decode or validate
	ErrInvalidManifest = errors.New("invalid module manifest")
)

// RequireError records the specifier and nesting depth of a failed require
type RequireError struct {
	Specifier string
	Depth     int
	Err       error
}

// Error implements the error interface
func (e *RequireError) Error() string {
	return fmt.Sprintf("require %s (depth %d): %v", e.Specifier, e.Depth, e.Err)
}

// Unwrap returns the underlying error
func (e *RequireError) Unwrap() error {
	return e.Err
}

// IsUnknownSpecifier reports whether err was caused by an unknown specifier
func IsUnknownSpecifier(err error) bool {
	return errors.Is(err, ErrUnknownSpecifier)
}

// IsMaxDepthExceeded reports whether err was caused by the depth guard
func IsMaxDepthExceeded(err error) bool {
	return errors.Is(err, ErrMaxDepthExceeded)
}
