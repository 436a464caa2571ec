// Package store provides typed point access over an engine's tables for
// callers that don't need iteration. Each operation runs in a short-lived
// transaction through the cursor protocol.
package store

import (
	"github.com/tablekv/tablekv/cursor"
	"github.com/tablekv/tablekv/kv"
	"github.com/tablekv/tablekv/table"
)

// Store is a typed key-value view of one table.
type Store[K, V any] struct {
	eng   kv.Engine
	tbl   table.Table[K, V]
	cache *Cache
}

// New creates a store over tbl. cache may be nil.
func New[K, V any](eng kv.Engine, tbl table.Table[K, V], cache *Cache) *Store[K, V] {
	return &Store[K, V]{eng, tbl, cache}
}

func (s *Store[K, V]) cacheKey(encKey []byte) []byte {
	return append(kv.TablePrefix(s.tbl.Name), encKey...)
}

// Get returns the value under key, nil if absent.
func (s *Store[K, V]) Get(key K) (*V, error) {
	ck := s.cacheKey(s.tbl.Key.Encode(key))
	if dec, ok := s.cache.getDecoded(ck); ok {
		val := dec.(V)
		return &val, nil
	}
	if enc := s.cache.getEncoded(ck); enc != nil {
		val, err := s.tbl.Value.Decompress(enc)
		if err != nil {
			return nil, err
		}
		s.cache.setDecoded(ck, val)
		return &val, nil
	}

	tx, err := s.eng.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c, err := cursor.New(tx, s.tbl)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	p, err := c.SeekExact(key)
	if err != nil || p == nil {
		return nil, err
	}
	s.cache.setEncoded(ck, s.tbl.Value.Compress(p.Value))
	s.cache.setDecoded(ck, p.Value)
	return &p.Value, nil
}

// Has reports whether key is present.
func (s *Store[K, V]) Has(key K) (bool, error) {
	ck := s.cacheKey(s.tbl.Key.Encode(key))
	if _, ok := s.cache.getDecoded(ck); ok {
		return true, nil
	}
	if s.cache.getEncoded(ck) != nil {
		return true, nil
	}

	tx, err := s.eng.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	c, err := cursor.New(tx, s.tbl)
	if err != nil {
		return false, err
	}
	defer c.Close()

	p, err := c.SeekExact(key)
	return p != nil, err
}

// Put inserts or overwrites the value under key.
func (s *Store[K, V]) Put(key K, val V) error {
	tx, err := s.eng.BeginRW()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	c, err := cursor.NewRW(tx, s.tbl)
	if err != nil {
		return err
	}
	if err := c.Upsert(key, val); err != nil {
		c.Close()
		return err
	}
	c.Close()
	if err := tx.Commit(); err != nil {
		return err
	}

	ck := s.cacheKey(s.tbl.Key.Encode(key))
	s.cache.setEncoded(ck, s.tbl.Value.Compress(val))
	s.cache.setDecoded(ck, val)
	return nil
}

// Delete removes the entry under key. Deleting an absent key is a no-op.
func (s *Store[K, V]) Delete(key K) error {
	tx, err := s.eng.BeginRW()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	c, err := cursor.NewRW(tx, s.tbl)
	if err != nil {
		return err
	}
	p, err := c.SeekExact(key)
	if err != nil {
		c.Close()
		return err
	}
	if p != nil {
		if err := c.DeleteCurrent(); err != nil {
			c.Close()
			return err
		}
	}
	c.Close()
	if err := tx.Commit(); err != nil {
		return err
	}
	s.cache.forget(s.cacheKey(s.tbl.Key.Encode(key)))
	return nil
}
