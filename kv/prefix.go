package kv

import "bytes"

// NewPrefixCursor confines a cursor over a flat keyspace to the entries
// carrying the given prefix, stripping the prefix from returned keys. Engines
// without native table scoping build their table cursors with it.
func NewPrefixCursor(c Cursor, prefix []byte) Cursor {
	return &prefixCursor{c: c, prefix: append([]byte(nil), prefix...)}
}

// NewPrefixRWCursor is the mutable variant of NewPrefixCursor. The append
// ordering check of PutAppend is performed against the prefixed range, not
// the whole keyspace.
func NewPrefixRWCursor(c RWCursor, prefix []byte) RWCursor {
	return &prefixRWCursor{
		prefixCursor{c: c, prefix: append([]byte(nil), prefix...)},
		c,
	}
}

type prefixCursor struct {
	c      Cursor
	prefix []byte
	pos    bool
}

func (p *prefixCursor) makeKey(key []byte) []byte {
	return append(append(make([]byte, 0, len(p.prefix)+len(key)), p.prefix...), key...)
}

// adopt validates an entry fetched from the raw cursor and strips the prefix.
func (p *prefixCursor) adopt(k, v []byte, err error) ([]byte, []byte, error) {
	if err != nil {
		if IsNotFound(err) {
			p.pos = false
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if !bytes.HasPrefix(k, p.prefix) {
		p.pos = false
		return nil, nil, ErrNotFound
	}
	p.pos = true
	return k[len(p.prefix):], v, nil
}

func (p *prefixCursor) First() ([]byte, []byte, error) {
	return p.adopt(p.c.Seek(p.prefix))
}

func (p *prefixCursor) Last() ([]byte, []byte, error) {
	end := prefixEnd(p.prefix)
	if end == nil {
		return p.adopt(p.c.Last())
	}
	k, v, err := p.c.Seek(end)
	if err == nil {
		k, v, err = p.c.Prev()
	} else if IsNotFound(err) {
		k, v, err = p.c.Last()
	}
	return p.adopt(k, v, err)
}

func (p *prefixCursor) Next() ([]byte, []byte, error) {
	if !p.pos {
		return p.First()
	}
	k, v, err := p.c.Next()
	if err != nil {
		return nil, nil, err
	}
	if !bytes.HasPrefix(k, p.prefix) {
		// crossed the table's right edge; step back inside
		p.c.Prev()
		return nil, nil, ErrNotFound
	}
	return k[len(p.prefix):], v, nil
}

func (p *prefixCursor) Prev() ([]byte, []byte, error) {
	if !p.pos {
		return p.Last()
	}
	k, v, err := p.c.Prev()
	if err != nil {
		return nil, nil, err
	}
	if !bytes.HasPrefix(k, p.prefix) {
		p.c.Next()
		return nil, nil, ErrNotFound
	}
	return k[len(p.prefix):], v, nil
}

func (p *prefixCursor) Current() ([]byte, []byte, error) {
	if !p.pos {
		return nil, nil, ErrNotFound
	}
	k, v, err := p.c.Current()
	if err != nil {
		return nil, nil, err
	}
	if !bytes.HasPrefix(k, p.prefix) {
		return nil, nil, ErrNotFound
	}
	return k[len(p.prefix):], v, nil
}

func (p *prefixCursor) Seek(key []byte) ([]byte, []byte, error) {
	return p.adopt(p.c.Seek(p.makeKey(key)))
}

func (p *prefixCursor) SeekExact(key []byte) ([]byte, []byte, error) {
	k, v, err := p.c.SeekExact(p.makeKey(key))
	if err != nil {
		p.pos = false
		return nil, nil, err
	}
	p.pos = true
	return k[len(p.prefix):], v, nil
}

func (p *prefixCursor) Close() {
	p.c.Close()
}

type prefixRWCursor struct {
	prefixCursor
	w RWCursor
}

func (p *prefixRWCursor) Put(key, val []byte, flags PutFlags) error {
	if flags == PutAppend {
		last, _, err := p.Last()
		if err != nil && !IsNotFound(err) {
			return err
		}
		if err == nil && bytes.Compare(key, last) <= 0 {
			return ErrKeyOrder
		}
		return p.w.Put(p.makeKey(key), val, PutUpsert)
	}
	return p.w.Put(p.makeKey(key), val, flags)
}

func (p *prefixRWCursor) Del(flags DelFlags) error {
	if !p.pos {
		return ErrNoCurrent
	}
	return p.w.Del(flags)
}

// TablePrefix derives the key prefix scoping a named table in a flat
// keyspace. The length byte keeps distinct table names from producing
// overlapping prefixes. Names are limited to 255 bytes.
func TablePrefix(table string) []byte {
	if len(table) > 255 {
		table = table[:255]
	}
	return append([]byte{byte(len(table))}, table...)
}

// prefixEnd returns the smallest key greater than every key carrying the
// prefix, or nil if no such key exists.
func prefixEnd(prefix []byte) []byte {
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] < 0xff {
			end := make([]byte, i+1)
			copy(end, prefix)
			end[i]++
			return end
		}
	}
	return nil
}
