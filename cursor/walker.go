package cursor

// Walker lazily yields a table's decoded pairs in ascending key order.
// While a walker is alive, every other operation on its cursor fails with
// ErrBusy; Release returns the cursor to direct use, left wherever the last
// fetch landed. A walker is not restartable.
//
// Caller hazard: writing through the cursor between pulls (after Release,
// or through another cursor of the same transaction) invalidates the rest
// of the walk in an engine-defined way.
type Walker[K, V any] struct {
	c     *Cursor[K, V]
	start *Pair[K, V]
	cur   *Pair[K, V]
	err   error
	done  bool
}

// Walk builds a forward walker. With a start key the walk begins at the
// first entry >= start, otherwise at the table's first entry.
func (c *Cursor[K, V]) Walk(start *K) (*Walker[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}
	var (
		p   *Pair[K, V]
		err error
	)
	if start != nil {
		p, err = c.seek(*start)
	} else {
		p, err = c.first()
	}
	if err != nil {
		return nil, err
	}
	c.busy = true
	return &Walker[K, V]{c: c, start: p, done: p == nil}, nil
}

// Next fetches the following pair, reporting whether one is available.
func (w *Walker[K, V]) Next() bool {
	if w.done {
		return false
	}
	if w.start != nil {
		w.cur, w.start = w.start, nil
		return true
	}
	p, err := w.c.next()
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
func (w *Walker[K, V]) Key() K { return w.cur.Key }

// Value returns the value of the last fetched pair.
func (w *Walker[K, V]) Value() V { return w.cur.Value }

// Err returns the error that ended the walk, if any.
func (w *Walker[K, V]) Err() error { return w.err }

// Release ends the walk and unlocks the cursor.
func (w *Walker[K, V]) Release() {
	if w.c != nil {
		w.c.busy = false
		w.c = nil
	}
	w.done = true
}

// ReverseWalker yields pairs in descending key order. The same liveness and
// hazard rules as Walker apply.
type ReverseWalker[K, V any] struct {
	c     *Cursor[K, V]
	start *Pair[K, V]
	cur   *Pair[K, V]
	err   error
	done  bool
}

// WalkBack builds a backward walker. With a start key the walk begins at
// the first entry >= start, falling back to the table's last entry when no
// such entry exists; without one it begins at the last entry.
func (c *Cursor[K, V]) WalkBack(start *K) (*ReverseWalker[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}
	var (
		p   *Pair[K, V]
		err error
	)
	if start != nil {
		p, err = c.seek(*start)
		if err == nil && p == nil {
			p, err = c.last()
		}
	} else {
		p, err = c.last()
	}
	if err != nil {
		return nil, err
	}
	c.busy = true
	return &ReverseWalker[K, V]{c: c, start: p, done: p == nil}, nil
}

// Next fetches the preceding pair, reporting whether one is available.
func (w *ReverseWalker[K, V]) Next() bool {
	if w.done {
		return false
	}
	if w.start != nil {
		w.cur, w.start = w.start, nil
		return true
	}
	p, err := w.c.prev()
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
func (w *ReverseWalker[K, V]) Key() K { return w.cur.Key }

// Value returns the value of the last fetched pair.
func (w *ReverseWalker[K, V]) Value() V { return w.cur.Value }

// Err returns the error that ended the walk, if any.
func (w *ReverseWalker[K, V]) Err() error { return w.err }

// Release ends the walk and unlocks the cursor.
func (w *ReverseWalker[K, V]) Release() {
	if w.c != nil {
		w.c.busy = false
		w.c = nil
	}
	w.done = true
}
