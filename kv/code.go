package kv

import "errors"

// Code is a native engine condition. Engines normalize their own sentinel
// errors to these codes at the boundary so callers never handle engine
// internals directly.
type Code int

const (
	// ErrNotFound reports that no entry satisfies a positional or keyed
	// lookup.
	ErrNotFound Code = iota + 1
	// ErrKeyExists reports a PutNoOverwrite on a present key.
	ErrKeyExists
	// ErrKeyOrder reports a violated PutAppend/PutAppendDup ordering
	// assertion.
	ErrKeyOrder
	// ErrNoCurrent reports a DelCurrent on an unpositioned cursor.
	ErrNoCurrent
)

func (c Code) Error() string {
	switch c {
	case ErrNotFound:
		return "kv: not found"
	case ErrKeyExists:
		return "kv: key exists"
	case ErrKeyOrder:
		return "kv: key out of order"
	case ErrNoCurrent:
		return "kv: no current entry"
	default:
		return "kv: unknown error"
	}
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsKeyExists reports whether err is, or wraps, ErrKeyExists.
func IsKeyExists(err error) bool {
	return errors.Is(err, ErrKeyExists)
}

// IsKeyOrder reports whether err is, or wraps, ErrKeyOrder.
func IsKeyOrder(err error) bool {
	return errors.Is(err, ErrKeyOrder)
}
