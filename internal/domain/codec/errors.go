package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned for a kind that has no registered codec.
	ErrUnknownKind = errors.New("unknown value kind")

	// ErrMalformed is returned when a serialized form cannot be decoded.
	ErrMalformed = errors.New("malformed serialized value")

	// ErrKindMismatch is returned when a cell is handed to the codec of another kind.
	ErrKindMismatch = errors.New("cell kind does not match codec")
)

// Op names the direction of a failed conversion.
type Op string

const (
	OpEncode Op = "encode"
	OpDecode Op = "decode"
)

// CodecError reports a failed encode or decode for a specific kind.
// Codec errors are local to the value and never retried.
type CodecError struct {
	Kind Kind
	Op   Op
	Err  error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s %s value: %v", e.Op, e.Kind, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func decodeError(kind Kind, format string, args ...any) error {
	return &CodecError{
		Kind: kind,
		Op:   OpDecode,
		Err:  fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...)),
	}
}

func encodeError(kind Kind, err error) error {
	return &CodecError{Kind: kind, Op: OpEncode, Err: err}
}
