// Package cursor layers a typed cursor and walker protocol over the byte
// cursors of the kv capability. A cursor is scoped to one transaction and
// one table, decodes every fetched entry through the table's codecs, and is
// valid only while its transaction is open.
package cursor

import (
	"github.com/tablekv/tablekv/kv"
	"github.com/tablekv/tablekv/table"
)

// Pair is a decoded entry.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// Cursor is a read-only cursor over one table. Lookups return a nil pair for
// absence; errors are always *Error values.
type Cursor[K, V any] struct {
	c    kv.Cursor
	tbl  table.Table[K, V]
	busy bool
}

// New opens a read-only cursor over tbl within tx.
func New[K, V any](tx kv.Tx, tbl table.Table[K, V]) (*Cursor[K, V], error) {
	c, err := tx.Cursor(tbl.Name)
	if err != nil {
		return nil, &Error{KindRead, tbl.Name, err}
	}
	return &Cursor[K, V]{c: c, tbl: tbl}, nil
}

// Close releases the native cursor. A cursor must not be used after its
// transaction ends.
func (c *Cursor[K, V]) Close() {
	c.c.Close()
}

func (c *Cursor[K, V]) decode(k, v []byte) (*Pair[K, V], error) {
	key, err := c.tbl.Key.Decode(k)
	if err != nil {
		return nil, &Error{KindDecode, c.tbl.Name, err}
	}
	val, err := c.tbl.Value.Decompress(v)
	if err != nil {
		return nil, &Error{KindDecode, c.tbl.Name, err}
	}
	return &Pair[K, V]{key, val}, nil
}

// read turns a native cursor result into a decoded pair, nil for absence.
func (c *Cursor[K, V]) read(k, v []byte, err error) (*Pair[K, V], error) {
	if err != nil {
		if kv.IsNotFound(err) {
			return nil, nil
		}
		return nil, &Error{KindRead, c.tbl.Name, err}
	}
	return c.decode(k, v)
}

func (c *Cursor[K, V]) first() (*Pair[K, V], error)   { return c.read(c.c.First()) }
func (c *Cursor[K, V]) last() (*Pair[K, V], error)    { return c.read(c.c.Last()) }
func (c *Cursor[K, V]) next() (*Pair[K, V], error)    { return c.read(c.c.Next()) }
func (c *Cursor[K, V]) prev() (*Pair[K, V], error)    { return c.read(c.c.Prev()) }
func (c *Cursor[K, V]) current() (*Pair[K, V], error) { return c.read(c.c.Current()) }

func (c *Cursor[K, V]) seek(key K) (*Pair[K, V], error) {
	return c.read(c.c.Seek(c.tbl.Key.Encode(key)))
}

func (c *Cursor[K, V]) seekExact(key K) (*Pair[K, V], error) {
	return c.read(c.c.SeekExact(c.tbl.Key.Encode(key)))
}

// First positions at the smallest key; nil if the table is empty.
func (c *Cursor[K, V]) First() (*Pair[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}
	return c.first()
}

// Last positions at the largest key; nil if the table is empty.
func (c *Cursor[K, V]) Last() (*Pair[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}
	return c.last()
}

// Next advances one entry; nil at the end. On a dup-sort table it steps
// across the duplicate values of a key.
func (c *Cursor[K, V]) Next() (*Pair[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}
	return c.next()
}

// Prev retreats one entry; nil at the beginning.
func (c *Cursor[K, V]) Prev() (*Pair[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}
	return c.prev()
}

// Current returns the entry at the current position without moving; nil if
// the cursor is unpositioned.
func (c *Cursor[K, V]) Current() (*Pair[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}
	return c.current()
}

// Seek positions at the first entry with key >= the given key; nil if no
// such entry exists.
func (c *Cursor[K, V]) Seek(key K) (*Pair[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}
	return c.seek(key)
}

// SeekExact positions exactly at key; nil if absent, leaving the cursor
// unpositioned.
func (c *Cursor[K, V]) SeekExact(key K) (*Pair[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}
	return c.seekExact(key)
}
