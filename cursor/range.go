package cursor

import (
	"bytes"
	"errors"
)

const (
	boundNone = iota
	boundIncluded
	boundExcluded
)

// Bound delimits one side of a key range.
type Bound[K any] struct {
	kind int
	key  K
}

// Included bounds the range at key, key itself belonging to it.
func Included[K any](key K) Bound[K] {
	return Bound[K]{boundIncluded, key}
}

// Excluded bounds the range just before key. Only valid as an end bound.
func Excluded[K any](key K) Bound[K] {
	return Bound[K]{boundExcluded, key}
}

// Unbounded leaves a side of the range open.
func Unbounded[K any]() Bound[K] {
	return Bound[K]{}
}

// RangeWalker yields pairs in ascending key order, stopping before the
// first key violating the end bound. The same liveness and hazard rules as
// Walker apply.
type RangeWalker[K, V any] struct {
	c       *Cursor[K, V]
	start   *Pair[K, V]
	cur     *Pair[K, V]
	endKind int
	end     []byte // encoded end key, when bounded
	err     error
	done    bool
}

// WalkRange builds a walker over [start, end]. An excluded start bound, or
// a start key sorting after a bounded end key, is rejected here with an
// invalid-range error instead of silently yielding nothing.
func (c *Cursor[K, V]) WalkRange(start, end Bound[K]) (*RangeWalker[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}

	var (
		p   *Pair[K, V]
		err error
	)
	switch start.kind {
	case boundExcluded:
		return nil, &Error{KindInvalidRange, c.tbl.Name, errors.New("excluded start bound not supported")}
	case boundIncluded:
		if end.kind != boundNone &&
			bytes.Compare(c.tbl.Key.Encode(start.key), c.tbl.Key.Encode(end.key)) > 0 {
			return nil, &Error{KindInvalidRange, c.tbl.Name, errors.New("start bound after end bound")}
		}
		p, err = c.seek(start.key)
	default:
		p, err = c.first()
	}
	if err != nil {
		return nil, err
	}

	w := &RangeWalker[K, V]{c: c, start: p, endKind: end.kind, done: p == nil}
	if end.kind != boundNone {
		w.end = c.tbl.Key.Encode(end.key)
	}
	c.busy = true
	return w, nil
}

// Next fetches the following in-range pair, reporting whether one is
// available.
func (w *RangeWalker[K, V]) Next() bool {
	if w.done {
		return false
	}
	p := w.start
	w.start = nil
	if p == nil {
		var err error
		p, err = w.c.next()
		if err != nil {
			w.err, w.done = err, true
			return false
		}
		if p == nil {
			w.done = true
			return false
		}
	}
	if !w.inRange(p.Key) {
		w.done = true
		return false
	}
	w.cur = p
	return true
}

func (w *RangeWalker[K, V]) inRange(key K) bool {
	switch w.endKind {
	case boundIncluded:
		return bytes.Compare(w.c.tbl.Key.Encode(key), w.end) <= 0
	case boundExcluded:
		return bytes.Compare(w.c.tbl.Key.Encode(key), w.end) < 0
	default:
		return true
	}
}

// Key returns the key of the last fetched pair.
func (w *RangeWalker[K, V]) Key() K { return w.cur.Key }

// Value returns the value of the last fetched pair.
func (w *RangeWalker[K, V]) Value() V { return w.cur.Value }

// Err returns the error that ended the walk, if any.
func (w *RangeWalker[K, V]) Err() error { return w.err }

// Release ends the walk and unlocks the cursor.
func (w *RangeWalker[K, V]) Release() {
	if w.c != nil {
		w.c.busy = false
		w.c = nil
	}
	w.done = true
}
