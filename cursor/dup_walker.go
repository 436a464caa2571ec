package cursor

import "github.com/tablekv/tablekv/kv"

// DupWalker yields the values stored under a single key, in subkey order,
// never crossing into another key. The same liveness and hazard rules as
// Walker apply.
type DupWalker[K, V, S any] struct {
	c       *DupCursor[K, V, S]
	start   *Pair[K, V]
	pending error // reported by the first pull
	cur     *Pair[K, V]
	err     error
	done    bool
}

// WalkDup builds a duplicate-scoped walker. The start position depends on
// the given arguments:
//   - key and sub: the first value under key with subkey >= sub;
//   - key only: the first value under key;
//   - sub only: the first value of the table's first key with subkey >= sub;
//     on an empty table the first pull fails with a read error instead of
//     yielding nothing;
//   - neither: the table's first value.
func (c *DupCursor[K, V, S]) WalkDup(key *K, sub *S) (*DupWalker[K, V, S], error) {
	if c.busy {
		return nil, ErrBusy
	}

	var (
		start   *Pair[K, V]
		pending error
	)
	switch {
	case key != nil && sub != nil:
		v, err := c.seekBySubkey(*key, *sub)
		if err != nil {
			return nil, err
		}
		if v != nil {
			start = &Pair[K, V]{*key, *v}
		}
	case key != nil:
		p, err := c.seekExact(*key)
		if err != nil {
			return nil, err
		}
		start = p
	case sub != nil:
		first, err := c.first()
		if err != nil {
			return nil, err
		}
		if first == nil {
			// surfaced on the first pull, not here
			pending = &Error{KindRead, c.tbl.Name, kv.ErrNotFound}
		} else {
			v, err := c.seekBySubkey(first.Key, *sub)
			if err != nil {
				return nil, err
			}
			if v != nil {
				start = &Pair[K, V]{first.Key, *v}
			}
		}
	default:
		p, err := c.first()
		if err != nil {
			return nil, err
		}
		start = p
	}

	c.busy = true
	return &DupWalker[K, V, S]{
		c:       c,
		start:   start,
		pending: pending,
		done:    start == nil && pending == nil,
	}, nil
}

// Next fetches the next value under the walked key, reporting whether one
// is available.
func (w *DupWalker[K, V, S]) Next() bool {
	if w.done {
		return false
	}
	if w.pending != nil {
		w.err, w.pending = w.pending, nil
		w.done = true
		return false
	}
	if w.start != nil {
		w.cur, w.start = w.start, nil
		return true
	}
	p, err := w.c.nextDup()
	if err != nil {
		w.err, w.done = err, true
		return false
	}
	if p == nil {
		w.done = true
		return false
	}
	w.cur = p
	return true
}

// Key returns the key of the last fetched pair.
func (w *DupWalker[K, V, S]) Key() K { return w.cur.Key }

// Value returns the value of the last fetched pair.
func (w *DupWalker[K, V, S]) Value() V { return w.cur.Value }

// Err returns the error that ended the walk, if any.
func (w *DupWalker[K, V, S]) Err() error { return w.err }

// Release ends the walk and unlocks the cursor.
func (w *DupWalker[K, V, S]) Release() {
	if w.c != nil {
		w.c.busy = false
		w.c = nil
	}
	w.done = true
}
