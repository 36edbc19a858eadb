package snapshot

import (
	"errors"
	"fmt"
)

// Domain errors for snapshot decoding.
// Every decode failure satisfies errors.Is(err, ErrDecode) and one of the
// more specific errors below.
var (
	// ErrDecode is the umbrella error for any malformed payload.
	ErrDecode = errors.New("snapshot: decode failed")

	// ErrArity is returned when an array has the wrong number of elements.
	ErrArity = errors.New("snapshot: wrong array length")

	// ErrType is returned when a value has the wrong type tag.
	ErrType = errors.New("snapshot: wrong type")

	// ErrTruncated is returned when the buffer ends before the value does.
	ErrTruncated = errors.New("snapshot: truncated buffer")

	// ErrTrailingData is returned when bytes remain after a complete snapshot.
	ErrTrailingData = errors.New("snapshot: trailing data")
)

// DecodeError describes the first structural mismatch found while decoding.
type DecodeError struct {
	// Path locates the offending value, e.g. "layers[1][0].hue".
	Path string

	// Err is one of ErrArity, ErrType, ErrTruncated or ErrTrailingData,
	// possibly wrapped with detail.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("snapshot: decoding %s: %v", e.Path, e.Err)
}

// Unwrap exposes both the specific cause and ErrDecode to errors.Is.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}
