package kv

import (
	"bytes"
	"fmt"
)

// Dup-sort tables keep several values per key, sorted by the value bytes.
// Engines here have no native support for that, so it is emulated once for
// all of them: each (key, value) pair is stored as a single composite key
// key‖value with an empty stored value. Keys must have a fixed encoded width
// so the two parts can be told apart, and values must begin with the encoded
// subkey so composite ordering is (key, subkey) ordering.

// DupCursor extends Cursor with duplicate-key operations. The plain Cursor
// operations step across individual values, including the duplicates of one
// key.
type DupCursor interface {
	Cursor
	// NextDup advances to the next value under the same key.
	NextDup() (key, val []byte, err error)
	// NextNoDup advances to the first value of the next distinct key.
	NextNoDup() (key, val []byte, err error)
	// SeekBothRange positions at the first value under key whose subkey
	// prefix is >= subkey, returning the value only.
	SeekBothRange(key, subkey []byte) (val []byte, err error)
}

// DupRWCursor is the mutable variant of DupCursor. Put understands
// PutAppendDup, Del understands DelAllDups.
type DupRWCursor interface {
	DupCursor
	Put(key, val []byte, flags PutFlags) error
	Del(flags DelFlags) error
}

// NewDupCursor adapts a plain cursor over a dup-sort table's composite
// entries. keyLen is the fixed encoded key width.
func NewDupCursor(c Cursor, keyLen int) DupCursor {
	return &dupCursor{c: c, keyLen: keyLen}
}

// NewDupRWCursor is the mutable variant of NewDupCursor.
func NewDupRWCursor(c RWCursor, keyLen int) DupRWCursor {
	return &dupRWCursor{dupCursor{c: c, keyLen: keyLen}, c}
}

type dupCursor struct {
	c      Cursor
	keyLen int
	cur    []byte // composite key at the current position, nil if unpositioned
}

func (d *dupCursor) split(comp []byte) ([]byte, []byte, error) {
	if len(comp) < d.keyLen {
		return nil, nil, fmt.Errorf("kv: dup entry shorter than key width %d", d.keyLen)
	}
	return comp[:d.keyLen], comp[d.keyLen:], nil
}

// adopt records the fetched composite key as the current position and splits
// it into its key and value parts.
func (d *dupCursor) adopt(comp []byte, err error) ([]byte, []byte, error) {
	if err != nil {
		if IsNotFound(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	k, v, err := d.split(comp)
	if err != nil {
		return nil, nil, err
	}
	d.cur = append(d.cur[:0], comp...)
	return k, v, nil
}

func (d *dupCursor) First() ([]byte, []byte, error) {
	comp, _, err := d.c.First()
	return d.adopt(comp, err)
}

func (d *dupCursor) Last() ([]byte, []byte, error) {
	comp, _, err := d.c.Last()
	return d.adopt(comp, err)
}

func (d *dupCursor) Next() ([]byte, []byte, error) {
	comp, _, err := d.c.Next()
	return d.adopt(comp, err)
}

func (d *dupCursor) Prev() ([]byte, []byte, error) {
	comp, _, err := d.c.Prev()
	return d.adopt(comp, err)
}

func (d *dupCursor) Current() ([]byte, []byte, error) {
	comp, _, err := d.c.Current()
	if err != nil {
		return nil, nil, err
	}
	return d.split(comp)
}

func (d *dupCursor) Seek(key []byte) ([]byte, []byte, error) {
	comp, _, err := d.c.Seek(key)
	return d.adopt(comp, err)
}

// SeekExact positions at the first value under key.
func (d *dupCursor) SeekExact(key []byte) ([]byte, []byte, error) {
	comp, _, err := d.c.Seek(key)
	if err == nil && !bytes.HasPrefix(comp, key) {
		err = ErrNotFound
	}
	if err != nil {
		d.cur = nil
		if IsNotFound(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return d.adopt(comp, nil)
}

func (d *dupCursor) NextDup() ([]byte, []byte, error) {
	if d.cur == nil {
		return nil, nil, ErrNoCurrent
	}
	key := d.cur[:d.keyLen]
	comp, _, err := d.c.Next()
	if err != nil {
		return nil, nil, err
	}
	if !bytes.HasPrefix(comp, key) {
		// next distinct key; step back to keep the position
		d.c.Prev()
		return nil, nil, ErrNotFound
	}
	return d.adopt(comp, nil)
}

func (d *dupCursor) NextNoDup() ([]byte, []byte, error) {
	if d.cur == nil {
		return d.First()
	}
	key := d.cur[:d.keyLen]
	for {
		comp, _, err := d.c.Next()
		if err != nil {
			return nil, nil, err
		}
		if !bytes.HasPrefix(comp, key) {
			return d.adopt(comp, nil)
		}
	}
}

func (d *dupCursor) SeekBothRange(key, subkey []byte) ([]byte, error) {
	comp, _, err := d.c.Seek(append(append([]byte(nil), key...), subkey...))
	if err == nil && !bytes.HasPrefix(comp, key) {
		err = ErrNotFound
	}
	if err != nil {
		d.cur = nil
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	_, v, err := d.split(comp)
	if err != nil {
		return nil, err
	}
	d.cur = append(d.cur[:0], comp...)
	return v, nil
}

func (d *dupCursor) Close() {
	d.c.Close()
}

type dupRWCursor struct {
	dupCursor
	w RWCursor
}

func (d *dupRWCursor) Put(key, val []byte, flags PutFlags) error {
	comp := append(append(make([]byte, 0, len(key)+len(val)), key...), val...)
	switch flags {
	case PutNoOverwrite:
		k, _, err := d.c.Seek(key)
		if err == nil && bytes.HasPrefix(k, key) {
			return ErrKeyExists
		}
		if err != nil && !IsNotFound(err) {
			return err
		}
		return d.w.Put(comp, nil, PutUpsert)
	case PutAppend, PutAppendDup:
		return d.w.Put(comp, nil, PutAppend)
	default:
		return d.w.Put(comp, nil, PutUpsert)
	}
}

func (d *dupRWCursor) Del(flags DelFlags) error {
	if d.cur == nil {
		return ErrNoCurrent
	}
	if flags != DelAllDups {
		return d.w.Del(flags)
	}
	key := append([]byte(nil), d.cur[:d.keyLen]...)
	for {
		k, _, err := d.c.Seek(key)
		if err != nil {
			if IsNotFound(err) {
				break
			}
			return err
		}
		if !bytes.HasPrefix(k, key) {
			break
		}
		if err := d.w.Del(DelCurrent); err != nil {
			return err
		}
	}
	d.cur = nil
	return nil
}
