package dictionary

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced attribute, vendor or value does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidName is returned for names that are too long or contain invalid characters
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidNumber is returned for attribute numbers out of range for their parent
	ErrInvalidNumber = errors.New("invalid attribute number")

	// ErrInvalidType is returned when a type cannot be used in the given position
	ErrInvalidType = errors.New("invalid type")

	// ErrInvalidFlags is returned for incompatible flag combinations
	ErrInvalidFlags = errors.New("invalid flags")

	// ErrDuplicate is returned when a name is already bound to something different
	ErrDuplicate = errors.New("duplicate definition")

	// ErrInvalidOID is returned for malformed OID strings
	ErrInvalidOID = errors.New("invalid oid")

	// ErrUnknownVendor is returned when a vendor cannot be resolved
	ErrUnknownVendor = errors.New("unknown vendor")

	// ErrSyntax is returned for malformed dictionary lines
	ErrSyntax = errors.New("syntax error")

	// ErrInsecureFile is returned for dictionary files that are not safe to read
	ErrInsecureFile = errors.New("insecure file")
)

// LoadError carries the file and line at which a dictionary load failed
type LoadError struct {
	File string
	Line int
	Err  error
}

// Error implements the error interface
func (e *LoadError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("%s[%d]: %v", e.File, e.Line, e.Err)
}

// Unwrap returns the underlying error
func (e *LoadError) Unwrap() error {
	return e.Err
}

// attrError prefixes err with the attribute being added
func attrError(name string, err error) error {
	return fmt.Errorf("failed adding %q: %w", name, err)
}
