// Package badgerdb adapts badger to the kv engine capability. Badger
// iterators run in one direction only, so bidirectional stepping is emulated
// with short-lived forward and reverse iterators re-seeking the tracked
// position.
package badgerdb

import (
	"bytes"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"
	"github.com/tablekv/tablekv/kv"
)

var _ kv.Engine = (*BadgerDB)(nil)

// BadgerDB wraps a badger instance.
type BadgerDB struct {
	db *badger.DB
}

// Open opens or creates the database at path.
func Open(path string) (*BadgerDB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return &BadgerDB{db}, nil
}

func (b *BadgerDB) Begin() (kv.Tx, error) {
	return &roTx{b.db.NewTransaction(false)}, nil
}

func (b *BadgerDB) BeginRW() (kv.RWTx, error) {
	return &rwTx{roTx{b.db.NewTransaction(true)}}, nil
}

func (b *BadgerDB) Close() error {
	return b.db.Close()
}

type roTx struct {
	txn *badger.Txn
}

func (t *roTx) Cursor(table string) (kv.Cursor, error) {
	return kv.NewPrefixCursor(&cursor{txn: t.txn}, kv.TablePrefix(table)), nil
}

func (t *roTx) Rollback() error {
	t.txn.Discard()
	return nil
}

type rwTx struct {
	roTx
}

func (t *rwTx) RWCursor(table string) (kv.RWCursor, error) {
	return kv.NewPrefixRWCursor(&rwCursor{cursor{txn: t.txn}, t.txn}, kv.TablePrefix(table)), nil
}

func (t *rwTx) Commit() error {
	return t.txn.Commit()
}

func newIter(txn *badger.Txn, reverse bool) *badger.Iterator {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = reverse
	return txn.NewIterator(opts)
}

// cursor keeps its position as a copied key. Each step opens an iterator in
// the needed direction, seeks the tracked key and closes it again; pending
// transaction writes are visible to fresh iterators.
type cursor struct {
	txn  *badger.Txn
	k, v []byte
	del  bool // current entry deleted; k remains as a resume marker
}

func (c *cursor) set(it *badger.Iterator) ([]byte, []byte, error) {
	item := it.Item()
	c.k = item.KeyCopy(c.k[:0])
	val, err := item.ValueCopy(c.v[:0])
	if err != nil {
		return nil, nil, err
	}
	c.v = val
	c.del = false
	return c.k, c.v, nil
}

func (c *cursor) clear() ([]byte, []byte, error) {
	c.k, c.v, c.del = nil, nil, false
	return nil, nil, kv.ErrNotFound
}

func (c *cursor) First() ([]byte, []byte, error) {
	it := newIter(c.txn, false)
	defer it.Close()
	it.Rewind()
	if !it.Valid() {
		return c.clear()
	}
	return c.set(it)
}

func (c *cursor) Last() ([]byte, []byte, error) {
	it := newIter(c.txn, true)
	defer it.Close()
	it.Rewind()
	if !it.Valid() {
		return c.clear()
	}
	return c.set(it)
}

func (c *cursor) Next() ([]byte, []byte, error) {
	if c.k == nil {
		return c.First()
	}
	it := newIter(c.txn, false)
	defer it.Close()
	it.Seek(c.k)
	if it.Valid() && bytes.Equal(it.Item().Key(), c.k) {
		it.Next()
	}
	if !it.Valid() {
		return nil, nil, kv.ErrNotFound
	}
	return c.set(it)
}

func (c *cursor) Prev() ([]byte, []byte, error) {
	if c.k == nil {
		return c.Last()
	}
	// reverse iterators seek to the largest key <= the given key
	it := newIter(c.txn, true)
	defer it.Close()
	it.Seek(c.k)
	if it.Valid() && bytes.Equal(it.Item().Key(), c.k) {
		it.Next()
	}
	if !it.Valid() {
		return nil, nil, kv.ErrNotFound
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
	it := newIter(c.txn, false)
	defer it.Close()
	it.Seek(key)
	if !it.Valid() {
		return c.clear()
	}
	return c.set(it)
}

func (c *cursor) SeekExact(key []byte) ([]byte, []byte, error) {
	item, err := c.txn.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return c.clear()
		}
		return nil, nil, err
	}
	c.k = item.KeyCopy(c.k[:0])
	val, err := item.ValueCopy(c.v[:0])
	if err != nil {
		return nil, nil, err
	}
	c.v = val
	c.del = false
	return c.k, c.v, nil
}

func (c *cursor) Close() {}

type rwCursor struct {
	cursor
	txn *badger.Txn
}

func (c *rwCursor) Put(key, val []byte, flags kv.PutFlags) error {
	switch flags {
	case kv.PutNoOverwrite:
		_, err := c.txn.Get(key)
		if err == nil {
			return kv.ErrKeyExists
		}
		if err != badger.ErrKeyNotFound {
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
	return c.txn.Set(key, val)
}

func (c *rwCursor) Del(flags kv.DelFlags) error {
	if c.k == nil || c.del {
		return kv.ErrNoCurrent
	}
	// badger retains the key slice until commit; c.k is reused by set, so
	// hand it a copy.
	if err := c.txn.Delete(append([]byte(nil), c.k...)); err != nil {
		return err
	}
	c.del = true
	return nil
}
