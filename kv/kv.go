// Package kv defines the capability boundary between the typed cursor layer
// and the underlying sorted key-value engines. Engines adapt themselves to
// these interfaces; everything above talks bytes and native codes only.
package kv

// Engine is an opened database able to start transactions.
type Engine interface {
	// Begin starts a read-only transaction.
	Begin() (Tx, error)
	// BeginRW starts a read-write transaction.
	BeginRW() (RWTx, error)
	Close() error
}

// Tx is a read-only transaction.
type Tx interface {
	// Cursor opens a cursor over the named table. An unknown table reads
	// as empty.
	Cursor(table string) (Cursor, error)
	Rollback() error
}

// RWTx is a read-write transaction.
type RWTx interface {
	Tx
	// RWCursor opens a mutable cursor over the named table, creating the
	// table if needed.
	RWCursor(table string) (RWCursor, error)
	Commit() error
}

// Cursor is a positionable handle over one table's entries, sorted by key
// bytes. All methods return ErrNotFound when no entry satisfies the request;
// any other error is an engine failure.
//
// Position rules:
//   - Next on an unpositioned cursor behaves like First, Prev like Last.
//   - Current on an unpositioned cursor returns ErrNotFound.
//   - A failed SeekExact leaves the cursor unpositioned.
//   - Returned slices are valid until the next call on the same cursor.
type Cursor interface {
	First() (key, val []byte, err error)
	Last() (key, val []byte, err error)
	Next() (key, val []byte, err error)
	Prev() (key, val []byte, err error)
	Current() (key, val []byte, err error)
	// Seek positions at the first entry with key >= the given key.
	Seek(key []byte) (k, v []byte, err error)
	// SeekExact positions at the given key, or fails with ErrNotFound.
	SeekExact(key []byte) (k, v []byte, err error)
	Close()
}

// PutFlags selects the write mode of RWCursor.Put.
type PutFlags uint8

const (
	// PutUpsert inserts or overwrites.
	PutUpsert PutFlags = iota
	// PutNoOverwrite fails with ErrKeyExists if the key is present.
	PutNoOverwrite
	// PutAppend asserts the key sorts after every key in the table and
	// fails with ErrKeyOrder otherwise.
	PutAppend
	// PutAppendDup is PutAppend with the assertion over (key, subkey)
	// pairs. Only meaningful through a dup-sort cursor; raw engine
	// cursors never receive it.
	PutAppendDup
)

// DelFlags selects the delete mode of RWCursor.Del.
type DelFlags uint8

const (
	// DelCurrent deletes the entry at the current position and fails with
	// ErrNoCurrent if the cursor is unpositioned. Afterwards the cursor
	// is unpositioned, but Next resumes after the deleted key and Prev
	// before it.
	DelCurrent DelFlags = iota
	// DelAllDups deletes every value under the current key. Only
	// meaningful through a dup-sort cursor.
	DelAllDups
)

// RWCursor extends Cursor with mutations. Obtainable only from an RWTx.
type RWCursor interface {
	Cursor
	Put(key, val []byte, flags PutFlags) error
	Del(flags DelFlags) error
}
