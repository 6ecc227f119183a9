package review

import (
	"errors"
	"fmt"
)

// ErrSchema is matched by every *SchemaError via errors.Is.
var ErrSchema = errors.New("review payload does not match schema")

// SchemaError names the first field of a payload that is missing or malformed.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is allows errors.Is to work with SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

func missing(field string) *SchemaError {
	return &SchemaError{Field: field, Reason: "missing"}
}

func malformed(field, format string, args ...any) *SchemaError {
	return &SchemaError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
