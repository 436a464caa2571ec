package cursor

import (
	"github.com/tablekv/tablekv/kv"
	"github.com/tablekv/tablekv/table"
)

// RWCursor adds the write protocol to Cursor. It can only be constructed
// from a read-write transaction, so a read-only cursor never exposes
// mutations.
type RWCursor[K, V any] struct {
	Cursor[K, V]
	w kv.RWCursor
}

// NewRW opens a read-write cursor over tbl within tx.
func NewRW[K, V any](tx kv.RWTx, tbl table.Table[K, V]) (*RWCursor[K, V], error) {
	w, err := tx.RWCursor(tbl.Name)
	if err != nil {
		return nil, &Error{KindWrite, tbl.Name, err}
	}
	return &RWCursor[K, V]{Cursor[K, V]{c: w, tbl: tbl}, w}, nil
}

func (c *RWCursor[K, V]) put(key K, val V, flags kv.PutFlags) error {
	if c.busy {
		return ErrBusy
	}
	if err := c.w.Put(c.tbl.Key.Encode(key), c.tbl.Value.Compress(val), flags); err != nil {
		return &Error{KindWrite, c.tbl.Name, err}
	}
	return nil
}

// Upsert inserts or overwrites the value for key.
func (c *RWCursor[K, V]) Upsert(key K, val V) error {
	return c.put(key, val, kv.PutUpsert)
}

// Insert stores the value only if key is absent. A present key fails with a
// write error wrapping kv.ErrKeyExists.
func (c *RWCursor[K, V]) Insert(key K, val V) error {
	return c.put(key, val, kv.PutNoOverwrite)
}

// Append inserts asserting that key sorts after every key in the table. A
// violated assertion fails with a write error wrapping kv.ErrKeyOrder.
func (c *RWCursor[K, V]) Append(key K, val V) error {
	return c.put(key, val, kv.PutAppend)
}

// DeleteCurrent deletes the entry at the current position; it fails if the
// cursor is unpositioned.
func (c *RWCursor[K, V]) DeleteCurrent() error {
	if c.busy {
		return ErrBusy
	}
	if err := c.w.Del(kv.DelCurrent); err != nil {
		return &Error{KindDelete, c.tbl.Name, err}
	}
	return nil
}
