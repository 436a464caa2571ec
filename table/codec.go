package table

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// U64 codes uint64 keys and values as fixed-width big-endian bytes, which
// sort in numeric order.
type U64 struct{}

func (U64) Encode(k uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], k)
	return b[:]
}

func (U64) Decode(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("table: uint64 wants 8 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func (u U64) Compress(v uint64) []byte {
	return u.Encode(v)
}

func (u U64) Decompress(b []byte) (uint64, error) {
	return u.Decode(b)
}

// Bytes codes raw byte keys and values verbatim.
type Bytes struct{}

func (Bytes) Encode(k []byte) []byte {
	return k
}

func (Bytes) Decode(b []byte) ([]byte, error) {
	return append([]byte(nil), b...), nil
}

func (Bytes) Compress(v []byte) []byte {
	return v
}

func (Bytes) Decompress(b []byte) ([]byte, error) {
	return append([]byte(nil), b...), nil
}

// Str codes string keys verbatim, sorting lexicographically.
type Str struct{}

func (Str) Encode(k string) []byte {
	return []byte(k)
}

func (Str) Decode(b []byte) (string, error) {
	return string(b), nil
}

func (Str) Compress(v string) []byte {
	return []byte(v)
}

func (Str) Decompress(b []byte) (string, error) {
	return string(b), nil
}

// RLP codes struct-like values with RLP as the storage representation.
type RLP[V any] struct{}

func (RLP[V]) Compress(v V) []byte {
	data, _ := rlp.EncodeToBytes(&v)
	return data
}

func (RLP[V]) Decompress(b []byte) (V, error) {
	var v V
	if err := rlp.DecodeBytes(b, &v); err != nil {
		return v, err
	}
	return v, nil
}
