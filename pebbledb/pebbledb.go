// Package pebbledb adapts pebble to the kv engine capability. Read
// transactions run over snapshots, write transactions over indexed batches.
package pebbledb

import (
	"bytes"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"
	"github.com/tablekv/tablekv/kv"
)

var _ kv.Engine = (*PebbleDB)(nil)

// PebbleDB wraps a pebble instance.
type PebbleDB struct {
	db *pebble.DB
}

// Open opens or creates the database at path.
func Open(path string) (*PebbleDB, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "open pebble")
	}
	return &PebbleDB{db}, nil
}

// OpenMem opens a database on an in-memory filesystem, mainly for tests.
func OpenMem() (*PebbleDB, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, err
	}
	return &PebbleDB{db}, nil
}

func (p *PebbleDB) Begin() (kv.Tx, error) {
	return &roTx{p.db.NewSnapshot()}, nil
}

func (p *PebbleDB) BeginRW() (kv.RWTx, error) {
	return &rwTx{p.db.NewIndexedBatch()}, nil
}

func (p *PebbleDB) Close() error {
	return p.db.Close()
}

// iterSource is the read surface shared by snapshots and indexed batches.
type iterSource interface {
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

type roTx struct {
	snap *pebble.Snapshot
}

func (t *roTx) Cursor(table string) (kv.Cursor, error) {
	return kv.NewPrefixCursor(&cursor{src: t.snap}, kv.TablePrefix(table)), nil
}

func (t *roTx) Rollback() error {
	return t.snap.Close()
}

type rwTx struct {
	batch *pebble.Batch
}

func (t *rwTx) Cursor(table string) (kv.Cursor, error) {
	return kv.NewPrefixCursor(&cursor{src: t.batch}, kv.TablePrefix(table)), nil
}

func (t *rwTx) RWCursor(table string) (kv.RWCursor, error) {
	return kv.NewPrefixRWCursor(&rwCursor{cursor{src: t.batch}, t.batch}, kv.TablePrefix(table)), nil
}

func (t *rwTx) Commit() error {
	return t.batch.Commit(pebble.NoSync)
}

func (t *rwTx) Rollback() error {
	return t.batch.Close()
}

// cursor keeps its position as a copied key and runs every step on a fresh
// short-lived iterator, so in-transaction writes are always visible.
type cursor struct {
	src  iterSource
	k, v []byte
	del  bool // current entry deleted; k remains as a resume marker
}

func (c *cursor) set(it *pebble.Iterator) ([]byte, []byte, error) {
	c.k = append(c.k[:0], it.Key()...)
	c.v = append(c.v[:0], it.Value()...)
	c.del = false
	return c.k, c.v, nil
}

func (c *cursor) clear(it *pebble.Iterator) ([]byte, []byte, error) {
	if err := it.Error(); err != nil {
		return nil, nil, err
	}
	c.k, c.v, c.del = nil, nil, false
	return nil, nil, kv.ErrNotFound
}

func (c *cursor) miss(it *pebble.Iterator) ([]byte, []byte, error) {
	if err := it.Error(); err != nil {
		return nil, nil, err
	}
	return nil, nil, kv.ErrNotFound
}

func (c *cursor) First() ([]byte, []byte, error) {
	it, err := c.src.NewIter(nil)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()
	if !it.First() {
		return c.clear(it)
	}
	return c.set(it)
}

func (c *cursor) Last() ([]byte, []byte, error) {
	it, err := c.src.NewIter(nil)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()
	if !it.Last() {
		return c.clear(it)
	}
	return c.set(it)
}

func (c *cursor) Next() ([]byte, []byte, error) {
	if c.k == nil {
		return c.First()
	}
	it, err := c.src.NewIter(nil)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()
	ok := it.SeekGE(c.k)
	if ok && bytes.Equal(it.Key(), c.k) {
		ok = it.Next()
	}
	if !ok {
		return c.miss(it)
	}
	return c.set(it)
}

func (c *cursor) Prev() ([]byte, []byte, error) {
	if c.k == nil {
		return c.Last()
	}
	it, err := c.src.NewIter(nil)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()
	if !it.SeekLT(c.k) {
		return c.miss(it)
	}
	return c.set(it)
}

func (c *cursor) Current() ([]byte, []byte, error) {
	if c.k == nil || c.del {
		return nil, nil, kv.ErrNotFound
	}
	return c.k, c.v, nil
}

func (c *cursor) Seek(key []byte) ([]byte, []byte, error) {
	it, err := c.src.NewIter(nil)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()
	if !it.SeekGE(key) {
		return c.clear(it)
	}
	return c.set(it)
}

func (c *cursor) SeekExact(key []byte) ([]byte, []byte, error) {
	it, err := c.src.NewIter(nil)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()
	if !it.SeekGE(key) || !bytes.Equal(it.Key(), key) {
		return c.clear(it)
	}
	return c.set(it)
}

func (c *cursor) Close() {}

type rwCursor struct {
	cursor
	batch *pebble.Batch
}

func (c *rwCursor) Put(key, val []byte, flags kv.PutFlags) error {
	switch flags {
	case kv.PutNoOverwrite:
		_, closer, err := c.batch.Get(key)
		if err == nil {
			closer.Close()
			return kv.ErrKeyExists
		}
		if err != pebble.ErrNotFound {
			return err
		}
	case kv.PutAppend:
		last, _, err := c.Last()
		if err != nil && !kv.IsNotFound(err) {
			return err
		}
		if err == nil && bytes.Compare(key, last) <= 0 {
			return kv.ErrKeyOrder
		}
	}
	return c.batch.Set(key, val, pebble.NoSync)
}

func (c *rwCursor) Del(flags kv.DelFlags) error {
	if c.k == nil || c.del {
		return kv.ErrNoCurrent
	}
	if err := c.batch.Delete(c.k, pebble.NoSync); err != nil {
		return err
	}
	c.del = true
	return nil
}
