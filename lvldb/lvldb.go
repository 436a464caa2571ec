// Package lvldb adapts goleveldb to the kv engine capability. The keyspace
// is flat, so table scoping is done with key prefixes.
package lvldb

import (
	"bytes"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/tablekv/tablekv/kv"
)

var (
	writeOpt = opt.WriteOptions{}
	readOpt  = opt.ReadOptions{}

	_   kv.Engine = (*LevelDB)(nil)
	log           = log15.New("pkg", "lvldb")
)

// Options customizes opening a database file.
type Options struct {
	CacheSize           int // in MiB
	FileDescriptorCache int
}

// LevelDB wraps a goleveldb instance.
type LevelDB struct {
	db *leveldb.DB
}

// Open opens or creates the database at path. A corrupted database is
// recovered in place.
func Open(path string, options *Options) (*LevelDB, error) {
	if options == nil {
		options = &Options{}
	}
	cacheSize := options.CacheSize
	if cacheSize < 16 {
		cacheSize = 16
	}
	fdCache := options.FileDescriptorCache
	if fdCache < 16 {
		fdCache = 16
	}

	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: fdCache,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB, // two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
		DisableSeeksCompaction: true,
	})
	if _, corrupted := err.(*dberrors.ErrCorrupted); corrupted {
		log.Warn("database corrupted, recovering", "path", path)
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open leveldb")
	}
	return &LevelDB{db}, nil
}

// OpenMem opens an in-memory database, mainly for tests.
func OpenMem() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db}, nil
}

func (l *LevelDB) Begin() (kv.Tx, error) {
	snap, err := l.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	return &roTx{snap}, nil
}

func (l *LevelDB) BeginRW() (kv.RWTx, error) {
	tr, err := l.db.OpenTransaction()
	if err != nil {
		return nil, err
	}
	return &rwTx{tr}, nil
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

// reader is the read surface shared by snapshots and open transactions.
type reader interface {
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
	Has(key []byte, ro *opt.ReadOptions) (bool, error)
}

type roTx struct {
	snap *leveldb.Snapshot
}

func (t *roTx) Cursor(table string) (kv.Cursor, error) {
	return kv.NewPrefixCursor(&cursor{src: t.snap}, kv.TablePrefix(table)), nil
}

func (t *roTx) Rollback() error {
	t.snap.Release()
	return nil
}

type rwTx struct {
	tr *leveldb.Transaction
}

func (t *rwTx) Cursor(table string) (kv.Cursor, error) {
	return kv.NewPrefixCursor(&cursor{src: t.tr}, kv.TablePrefix(table)), nil
}

func (t *rwTx) RWCursor(table string) (kv.RWCursor, error) {
	return kv.NewPrefixRWCursor(&rwCursor{cursor{src: t.tr}, t.tr}, kv.TablePrefix(table)), nil
}

func (t *rwTx) Commit() error {
	return t.tr.Commit()
}

func (t *rwTx) Rollback() error {
	t.tr.Discard()
	return nil
}

// cursor keeps its position as a copied key and runs every step on a fresh
// short-lived iterator, so in-transaction writes are always visible.
type cursor struct {
	src  reader
	k, v []byte
	del  bool // current entry deleted; k remains as a resume marker
}

func (c *cursor) set(it iterator.Iterator) ([]byte, []byte, error) {
	c.k = append(c.k[:0], it.Key()...)
	c.v = append(c.v[:0], it.Value()...)
	c.del = false
	return c.k, c.v, nil
}

func (c *cursor) clear(it iterator.Iterator) ([]byte, []byte, error) {
	if err := it.Error(); err != nil {
		return nil, nil, err
	}
	c.k, c.v, c.del = nil, nil, false
	return nil, nil, kv.ErrNotFound
}

func (c *cursor) miss(it iterator.Iterator) ([]byte, []byte, error) {
	if err := it.Error(); err != nil {
		return nil, nil, err
	}
	return nil, nil, kv.ErrNotFound
}

func (c *cursor) First() ([]byte, []byte, error) {
	it := c.src.NewIterator(nil, &readOpt)
	defer it.Release()
	if !it.First() {
		return c.clear(it)
	}
	return c.set(it)
}

func (c *cursor) Last() ([]byte, []byte, error) {
	it := c.src.NewIterator(nil, &readOpt)
	defer it.Release()
	if !it.Last() {
		return c.clear(it)
	}
	return c.set(it)
}

func (c *cursor) Next() ([]byte, []byte, error) {
	if c.k == nil {
		return c.First()
	}
	it := c.src.NewIterator(nil, &readOpt)
	defer it.Release()
	ok := it.Seek(c.k)
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
	it := c.src.NewIterator(nil, &readOpt)
	defer it.Release()
	var ok bool
	if it.Seek(c.k) {
		ok = it.Prev()
	} else {
		// every key sorts before the marker
		ok = it.Last()
	}
	if !ok {
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
	it := c.src.NewIterator(nil, &readOpt)
	defer it.Release()
	if !it.Seek(key) {
		return c.clear(it)
	}
	return c.set(it)
}

func (c *cursor) SeekExact(key []byte) ([]byte, []byte, error) {
	it := c.src.NewIterator(nil, &readOpt)
	defer it.Release()
	if !it.Seek(key) || !bytes.Equal(it.Key(), key) {
		return c.clear(it)
	}
	return c.set(it)
}

func (c *cursor) Close() {}

type rwCursor struct {
	cursor
	tr *leveldb.Transaction
}

func (c *rwCursor) Put(key, val []byte, flags kv.PutFlags) error {
	switch flags {
	case kv.PutNoOverwrite:
		has, err := c.tr.Has(key, &readOpt)
		if err != nil {
			return err
		}
		if has {
			return kv.ErrKeyExists
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
	return c.tr.Put(key, val, &writeOpt)
}

func (c *rwCursor) Del(flags kv.DelFlags) error {
	if c.k == nil || c.del {
		return kv.ErrNoCurrent
	}
	if err := c.tr.Delete(c.k, &writeOpt); err != nil {
		return err
	}
	c.del = true
	return nil
}
