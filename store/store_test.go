package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablekv/tablekv/lvldb"
	"github.com/tablekv/tablekv/store"
	"github.com/tablekv/tablekv/table"
)

type account struct {
	Balance uint64
	Nonce   uint64
}

var accountTable = table.Table[uint64, account]{
	Name:  "accounts",
	Key:   table.U64{},
	Value: table.RLP[account]{},
}

func TestStore(t *testing.T) {
	for _, cache := range map[string]*store.Cache{
		"cached":   store.NewCache(1, 16),
		"uncached": nil,
	} {
		eng, err := lvldb.OpenMem()
		require.NoError(t, err)
		defer eng.Close()

		s := store.New(eng, accountTable, cache)

		v, err := s.Get(1)
		require.NoError(t, err)
		assert.Nil(t, v)

		has, err := s.Has(1)
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, s.Put(1, account{100, 0}))

		// read twice, the second hit served from cache when one is set
		for i := 0; i < 2; i++ {
			v, err = s.Get(1)
			require.NoError(t, err)
			require.NotNil(t, v)
			assert.Equal(t, account{100, 0}, *v)
		}

		has, err = s.Has(1)
		require.NoError(t, err)
		assert.True(t, has)

		require.NoError(t, s.Put(1, account{200, 1}))
		v, err = s.Get(1)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, account{200, 1}, *v)

		require.NoError(t, s.Delete(1))
		v, err = s.Get(1)
		require.NoError(t, err)
		assert.Nil(t, v)

		// deleting an absent key is a no-op
		require.NoError(t, s.Delete(1))
	}
}

func TestStoreTableIsolation(t *testing.T) {
	eng, err := lvldb.OpenMem()
	require.NoError(t, err)
	defer eng.Close()

	cache := store.NewCache(1, 16)
	a := store.New(eng, accountTable, cache)
	b := store.New(eng, table.Table[uint64, account]{
		Name:  "stale",
		Key:   table.U64{},
		Value: table.RLP[account]{},
	}, cache)

	require.NoError(t, a.Put(1, account{100, 0}))

	v, err := b.Get(1)
	require.NoError(t, err)
	assert.Nil(t, v)

	has, err := b.Has(1)
	require.NoError(t, err)
	assert.False(t, has)
}
