package cursor

import (
	"github.com/tablekv/tablekv/kv"
	"github.com/tablekv/tablekv/table"
)

// DupCursor is a read-only cursor over a dup-sort table. The plain protocol
// steps across individual values; the Dup operations are scoped to the
// duplicates of one key.
type DupCursor[K, V, S any] struct {
	Cursor[K, V]
	d   kv.DupCursor
	dup table.DupTable[K, V, S]
}

// NewDup opens a read-only cursor over the dup-sort table tbl within tx.
func NewDup[K, V, S any](tx kv.Tx, tbl table.DupTable[K, V, S]) (*DupCursor[K, V, S], error) {
	c, err := tx.Cursor(tbl.Name)
	if err != nil {
		return nil, &Error{KindRead, tbl.Name, err}
	}
	d := kv.NewDupCursor(c, tbl.KeyLen)
	return &DupCursor[K, V, S]{Cursor[K, V]{c: d, tbl: tbl.Table}, d, tbl}, nil
}

func (c *DupCursor[K, V, S]) nextDup() (*Pair[K, V], error) {
	return c.read(c.d.NextDup())
}

func (c *DupCursor[K, V, S]) decodeValue(v []byte, err error) (*V, error) {
	if err != nil {
		if kv.IsNotFound(err) {
			return nil, nil
		}
		return nil, &Error{KindRead, c.tbl.Name, err}
	}
	val, err := c.tbl.Value.Decompress(v)
	if err != nil {
		return nil, &Error{KindDecode, c.tbl.Name, err}
	}
	return &val, nil
}

// NextDup advances to the next value under the same key; nil when the key
// has no more duplicates.
func (c *DupCursor[K, V, S]) NextDup() (*Pair[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}
	return c.nextDup()
}

// NextNoDup advances to the first value of the next distinct key, skipping
// the remaining duplicates of the current one.
func (c *DupCursor[K, V, S]) NextNoDup() (*Pair[K, V], error) {
	if c.busy {
		return nil, ErrBusy
	}
	return c.read(c.d.NextNoDup())
}

// NextDupVal is NextDup returning the value only, the key being unchanged.
func (c *DupCursor[K, V, S]) NextDupVal() (*V, error) {
	if c.busy {
		return nil, ErrBusy
	}
	_, v, err := c.d.NextDup()
	return c.decodeValue(v, err)
}

func (c *DupCursor[K, V, S]) seekBySubkey(key K, sub S) (*V, error) {
	v, err := c.d.SeekBothRange(c.tbl.Key.Encode(key), c.dup.SubKey.Encode(sub))
	return c.decodeValue(v, err)
}

// SeekBySubkey positions at the first value under key whose subkey is >= sub
// and returns that value; nil if key is absent or no duplicate satisfies the
// bound.
func (c *DupCursor[K, V, S]) SeekBySubkey(key K, sub S) (*V, error) {
	if c.busy {
		return nil, ErrBusy
	}
	return c.seekBySubkey(key, sub)
}

// RWDupCursor adds the write protocol, including the duplicate-specific
// operations, to DupCursor.
type RWDupCursor[K, V, S any] struct {
	DupCursor[K, V, S]
	w kv.DupRWCursor
}

// NewRWDup opens a read-write cursor over the dup-sort table tbl within tx.
func NewRWDup[K, V, S any](tx kv.RWTx, tbl table.DupTable[K, V, S]) (*RWDupCursor[K, V, S], error) {
	rw, err := tx.RWCursor(tbl.Name)
	if err != nil {
		return nil, &Error{KindWrite, tbl.Name, err}
	}
	d := kv.NewDupRWCursor(rw, tbl.KeyLen)
	return &RWDupCursor[K, V, S]{
		DupCursor[K, V, S]{Cursor[K, V]{c: d, tbl: tbl.Table}, d, tbl},
		d,
	}, nil
}

func (c *RWDupCursor[K, V, S]) put(key K, val V, flags kv.PutFlags) error {
	if c.busy {
		return ErrBusy
	}
	if err := c.w.Put(c.tbl.Key.Encode(key), c.tbl.Value.Compress(val), flags); err != nil {
		return &Error{KindWrite, c.tbl.Name, err}
	}
	return nil
}

// Upsert adds a value under key; duplicates are kept in subkey order.
func (c *RWDupCursor[K, V, S]) Upsert(key K, val V) error {
	return c.put(key, val, kv.PutUpsert)
}

// Insert stores the value only if no value at all exists under key.
func (c *RWDupCursor[K, V, S]) Insert(key K, val V) error {
	return c.put(key, val, kv.PutNoOverwrite)
}

// Append inserts asserting that key sorts at the table's end.
func (c *RWDupCursor[K, V, S]) Append(key K, val V) error {
	return c.put(key, val, kv.PutAppend)
}

// AppendDup is Append with the ordering assertion over (key, subkey) pairs.
func (c *RWDupCursor[K, V, S]) AppendDup(key K, val V) error {
	return c.put(key, val, kv.PutAppendDup)
}

// DeleteCurrent deletes the value at the current position.
func (c *RWDupCursor[K, V, S]) DeleteCurrent() error {
	if c.busy {
		return ErrBusy
	}
	if err := c.w.Del(kv.DelCurrent); err != nil {
		return &Error{KindDelete, c.tbl.Name, err}
	}
	return nil
}

// DeleteCurrentDuplicates deletes every value under the current key.
func (c *RWDupCursor[K, V, S]) DeleteCurrentDuplicates() error {
	if c.busy {
		return ErrBusy
	}
	if err := c.w.Del(kv.DelAllDups); err != nil {
		return &Error{KindDelete, c.tbl.Name, err}
	}
	return nil
}
