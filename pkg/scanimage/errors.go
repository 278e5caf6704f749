package scanimage

import (
	"errors"
	"fmt"
)

var (
	ErrVersionNotFound = errors.New("scanimage: no known header dialect matches")
	ErrMissingField    = errors.New("scanimage: header field missing")
	ErrNotScalar       = errors.New("scanimage: value is not a scalar")
	ErrSyntax          = errors.New("scanimage: unsupported expression")
)

// MissingFieldError reports an acquisition property whose header field is
// absent for the active dialect.
type MissingFieldError struct {
	Property string
	Field    string
	Dialect  string
}

func (e *MissingFieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("scanimage: %s has no header field in dialect %s", e.Property, e.Dialect)
	}
	return fmt.Sprintf("scanimage: %s: field %q missing from dialect %s header", e.Property, e.Field, e.Dialect)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}
