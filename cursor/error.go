package cursor

import (
	"errors"
	"fmt"
)

// Kind classifies a cursor failure.
type Kind int

const (
	// KindRead is a native engine failure during a positional read.
	KindRead Kind = iota + 1
	// KindWrite is a native engine failure during a put, including a
	// violated append ordering assertion.
	KindWrite
	// KindDelete is a native engine failure during a delete.
	KindDelete
	// KindDecode reports stored bytes that do not conform to the table's
	// codecs.
	KindDecode
	// KindInvalidRange reports a range walk built from an unsupported
	// start bound or a contradictory bound pair.
	KindInvalidRange
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindDelete:
		return "delete"
	case KindDecode:
		return "decode"
	case KindInvalidRange:
		return "invalid range"
	default:
		return "unknown"
	}
}

// Error is a failed cursor operation. Absence of data is never an Error;
// lookups report it as a nil result.
type Error struct {
	Kind  Kind
	Table string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cursor: table %s: %v: %v", e.Table, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrBusy rejects cursor use while a walker built on it is still alive.
var ErrBusy = errors.New("cursor: busy, release the active walker first")

// IsKind reports whether err is a cursor Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsDecode reports whether err is a decode failure.
func IsDecode(err error) bool {
	return IsKind(err, KindDecode)
}

// IsInvalidRange reports whether err is a range construction failure.
func IsInvalidRange(err error) bool {
	return IsKind(err, KindInvalidRange)
}
