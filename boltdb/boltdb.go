// Package boltdb adapts bbolt to the kv engine capability. Each table maps
// to one bucket, so no key prefixing is needed.
package boltdb

import (
	"bytes"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/tablekv/tablekv/kv"
	"go.etcd.io/bbolt"
)

var (
	_   kv.Engine = (*BoltDB)(nil)
	log           = log15.New("pkg", "boltdb")
)

// BoltDB wraps a bbolt database.
type BoltDB struct {
	db *bbolt.DB
}

// Open opens or creates the database file at path.
func Open(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{NoSync: true})
	if err != nil {
		return nil, errors.Wrap(err, "open boltdb")
	}
	log.Debug("database opened", "path", path)
	return &BoltDB{db}, nil
}

func (b *BoltDB) Begin() (kv.Tx, error) {
	tx, err := b.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &roTx{tx}, nil
}

func (b *BoltDB) BeginRW() (kv.RWTx, error) {
	tx, err := b.db.Begin(true)
	if err != nil {
		return nil, err
	}
	return &rwTx{roTx{tx}}, nil
}

func (b *BoltDB) Close() error {
	return b.db.Close()
}

type roTx struct {
	tx *bbolt.Tx
}

func (t *roTx) Cursor(table string) (kv.Cursor, error) {
	bkt := t.tx.Bucket([]byte(table))
	if bkt == nil {
		// unknown table reads as empty
		return emptyCursor{}, nil
	}
	return &cursor{bkt: bkt}, nil
}

func (t *roTx) Rollback() error {
	return t.tx.Rollback()
}

type rwTx struct {
	roTx
}

func (t *rwTx) RWCursor(table string) (kv.RWCursor, error) {
	bkt, err := t.tx.CreateBucketIfNotExists([]byte(table))
	if err != nil {
		return nil, err
	}
	return &cursor{bkt: bkt}, nil
}

func (t *rwTx) Commit() error {
	return t.tx.Commit()
}

// cursor keeps its position as a copied key and re-seeks a fresh bbolt
// cursor on every step. Re-seeking sidesteps bbolt's rule that a cursor is
// invalidated by bucket mutations.
type cursor struct {
	bkt  *bbolt.Bucket
	k, v []byte
	del  bool // current entry deleted; k remains as a resume marker
}

func (c *cursor) set(k, v []byte) ([]byte, []byte, error) {
	c.k = append(c.k[:0], k...)
	c.v = append(c.v[:0], v...)
	c.del = false
	return c.k, c.v, nil
}

func (c *cursor) clear() ([]byte, []byte, error) {
	c.k, c.v, c.del = nil, nil, false
	return nil, nil, kv.ErrNotFound
}

func (c *cursor) First() ([]byte, []byte, error) {
	k, v := c.bkt.Cursor().First()
	if k == nil {
		return c.clear()
	}
	return c.set(k, v)
}

func (c *cursor) Last() ([]byte, []byte, error) {
	k, v := c.bkt.Cursor().Last()
	if k == nil {
		return c.clear()
	}
	return c.set(k, v)
}

func (c *cursor) Next() ([]byte, []byte, error) {
	if c.k == nil {
		return c.First()
	}
	bc := c.bkt.Cursor()
	k, v := bc.Seek(c.k)
	if k != nil && bytes.Equal(k, c.k) {
		k, v = bc.Next()
	}
	if k == nil {
		return nil, nil, kv.ErrNotFound
	}
	return c.set(k, v)
}

func (c *cursor) Prev() ([]byte, []byte, error) {
	if c.k == nil {
		return c.Last()
	}
	bc := c.bkt.Cursor()
	k, v := bc.Seek(c.k)
	if k == nil {
		// every key sorts before the marker
		k, v = bc.Last()
	} else {
		k, v = bc.Prev()
	}
	if k == nil {
		return nil, nil, kv.ErrNotFound
	}
	return c.set(k, v)
}

func (c *cursor) Current() ([]byte, []byte, error) {
	if c.k == nil || c.del {
		return nil, nil, kv.ErrNotFound
	}
	return c.k, c.v, nil
}

func (c *cursor) Seek(key []byte) ([]byte, []byte, error) {
	k, v := c.bkt.Cursor().Seek(key)
	if k == nil {
		return c.clear()
	}
	return c.set(k, v)
}

func (c *cursor) SeekExact(key []byte) ([]byte, []byte, error) {
	k, v := c.bkt.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return c.clear()
	}
	return c.set(k, v)
}

func (c *cursor) Close() {}

func (c *cursor) Put(key, val []byte, flags kv.PutFlags) error {
	switch flags {
	case kv.PutNoOverwrite:
		if c.bkt.Get(key) != nil {
			return kv.ErrKeyExists
		}
	case kv.PutAppend:
		if last, _ := c.bkt.Cursor().Last(); last != nil && bytes.Compare(key, last) <= 0 {
			return kv.ErrKeyOrder
		}
	}
	return c.bkt.Put(key, val)
}

func (c *cursor) Del(flags kv.DelFlags) error {
	if c.k == nil || c.del {
		return kv.ErrNoCurrent
	}
	if err := c.bkt.Delete(c.k); err != nil {
		return err
	}
	c.del = true
	return nil
}

// emptyCursor serves reads of tables that do not exist yet.
type emptyCursor struct{}

func (emptyCursor) First() ([]byte, []byte, error)          { return nil, nil, kv.ErrNotFound }
func (emptyCursor) Last() ([]byte, []byte, error)           { return nil, nil, kv.ErrNotFound }
func (emptyCursor) Next() ([]byte, []byte, error)           { return nil, nil, kv.ErrNotFound }
func (emptyCursor) Prev() ([]byte, []byte, error)           { return nil, nil, kv.ErrNotFound }
func (emptyCursor) Current() ([]byte, []byte, error)        { return nil, nil, kv.ErrNotFound }
func (emptyCursor) Seek([]byte) ([]byte, []byte, error)     { return nil, nil, kv.ErrNotFound }
func (emptyCursor) SeekExact([]byte) ([]byte, []byte, error) { return nil, nil, kv.ErrNotFound }
func (emptyCursor) Close()                                  {}
