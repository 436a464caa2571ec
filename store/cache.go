package store

import (
	"github.com/coocood/freecache"
	lru "github.com/hashicorp/golang-lru"
)

// Cache is a two-tier read cache: compressed values in freecache, decoded
// values in an lru. A nil *Cache is valid and caches nothing, so stores can
// share one or run without.
type Cache struct {
	enc *freecache.Cache
	dec *lru.Cache
}

// NewCache creates a cache holding up to encSizeMB megabytes of compressed
// values and decCount decoded values. Either tier can be disabled with a
// non-positive size.
func NewCache(encSizeMB int, decCount int) *Cache {
	var c Cache
	if encSizeMB > 0 {
		c.enc = freecache.NewCache(encSizeMB * 1024 * 1024)
	}
	if decCount > 0 {
		c.dec, _ = lru.New(decCount)
	}
	return &c
}

func (c *Cache) getEncoded(key []byte) []byte {
	if c == nil || c.enc == nil {
		return nil
	}
	val, _ := c.enc.Get(key)
	return val
}

func (c *Cache) setEncoded(key, val []byte) {
	if c == nil || c.enc == nil {
		return
	}
	c.enc.Set(key, val, 0)
}

func (c *Cache) getDecoded(key []byte) (interface{}, bool) {
	if c == nil || c.dec == nil {
		return nil, false
	}
	return c.dec.Get(string(key))
}

func (c *Cache) setDecoded(key []byte, val interface{}) {
	if c == nil || c.dec == nil {
		return
	}
	c.dec.Add(string(key), val)
}

func (c *Cache) forget(key []byte) {
	if c == nil {
		return
	}
	if c.enc != nil {
		c.enc.Del(key)
	}
	if c.dec != nil {
		c.dec.Remove(string(key))
	}
}
