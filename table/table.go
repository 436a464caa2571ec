// Package table binds domain key and value types to their byte-level
// representation in the underlying store.
package table

// KeyCodec converts a domain key to and from its stored byte form. The
// encoding must preserve the domain order under byte-wise comparison: every
// seek, range and append operation relies on it.
type KeyCodec[K any] interface {
	Encode(k K) []byte
	Decode(b []byte) (K, error)
}

// ValueCodec converts a domain value to and from its stored, possibly
// size-reduced, byte form.
type ValueCodec[V any] interface {
	Compress(v V) []byte
	Decompress(b []byte) (V, error)
}

// Table describes a named table holding one value per key.
type Table[K, V any] struct {
	Name  string
	Key   KeyCodec[K]
	Value ValueCodec[V]
}

// DupTable describes a table holding several values per key, sorted by an
// encoded subkey. Compressed values must begin with the encoded subkey, and
// encoded keys must all have width KeyLen.
type DupTable[K, V, S any] struct {
	Table[K, V]
	SubKey KeyCodec[S]
	KeyLen int
}
