package decoder

import (
	"errors"
	"fmt"
)

// Decoder errors.
var (
	// ErrUnknownMessageType indicates the type id has no registered descriptor.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrMalformedMessage indicates the bytes do not parse as the resolved type.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrUnknownEnumValue indicates an enum number with no symbolic constant.
	ErrUnknownEnumValue = errors.New("unknown enum value")
)

// FieldError reports a normalization failure at a field path such as
// "outputs[2].script_type".
type FieldError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}
