package cursor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablekv/tablekv/cursor"
	"github.com/tablekv/tablekv/kv"
	"github.com/tablekv/tablekv/table"
)

// values in a dup-sort table start with the encoded subkey
var dupTable = table.DupTable[uint64, []byte, uint64]{
	Table: table.Table[uint64, []byte]{
		Name:  "dups",
		Key:   table.U64{},
		Value: table.Bytes{},
	},
	SubKey: table.U64{},
	KeyLen: 8,
}

func dupVal(sub uint64, payload string) []byte {
	return append(table.U64{}.Encode(sub), payload...)
}

// fillDup commits the given (key, subkey) pairs, each payload naming its pair.
func fillDup(t *testing.T, eng kv.Engine, pairs ...[2]uint64) {
	t.Helper()
	tx, err := eng.BeginRW()
	require.NoError(t, err)
	c, err := cursor.NewRWDup(tx, dupTable)
	require.NoError(t, err)
	for _, p := range pairs {
		require.NoError(t, c.Upsert(p[0], dupVal(p[1], "v")))
	}
	c.Close()
	require.NoError(t, tx.Commit())
}

func TestDupReadProtocol(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng kv.Engine) {
		fillDup(t, eng, [2]uint64{1, 10}, [2]uint64{1, 20}, [2]uint64{1, 30}, [2]uint64{2, 10})

		tx, err := eng.Begin()
		require.NoError(t, err)
		defer tx.Rollback()

		c, err := cursor.NewDup(tx, dupTable)
		require.NoError(t, err)
		defer c.Close()

		// the plain protocol steps across individual values
		p, err := c.First()
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, uint64(1), p.Key)
		assert.Equal(t, dupVal(10, "v"), p.Value)

		p, err = c.Next()
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, uint64(1), p.Key)
		assert.Equal(t, dupVal(20, "v"), p.Value)

		// NextDup stays within the key
		p, err = c.NextDup()
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, dupVal(30, "v"), p.Value)

		// no more duplicates of key 1
		p, err = c.NextDup()
		require.NoError(t, err)
		assert.Nil(t, p)

		// the position survived the exhausted NextDup
		p, err = c.Next()
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, uint64(2), p.Key)
	})
}

func TestDupNextNoDup(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng kv.Engine) {
		fillDup(t, eng, [2]uint64{1, 10}, [2]uint64{1, 20}, [2]uint64{2, 5}, [2]uint64{3, 1})

		tx, err := eng.Begin()
		require.NoError(t, err)
		defer tx.Rollback()

		c, err := cursor.NewDup(tx, dupTable)
		require.NoError(t, err)
		defer c.Close()

		p, err := c.First()
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, uint64(1), p.Key)

		p, err = c.NextNoDup()
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, uint64(2), p.Key)
		assert.Equal(t, dupVal(5, "v"), p.Value)

		p, err = c.NextNoDup()
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, uint64(3), p.Key)

		p, err = c.NextNoDup()
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestDupSeekBySubkey(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng kv.Engine) {
		fillDup(t, eng, [2]uint64{1, 10}, [2]uint64{1, 30}, [2]uint64{2, 10})

		tx, err := eng.Begin()
		require.NoError(t, err)
		defer tx.Rollback()

		c, err := cursor.NewDup(tx, dupTable)
		require.NoError(t, err)
		defer c.Close()

		v, err := c.SeekBySubkey(1, 10)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, dupVal(10, "v"), *v)

		// lands on the next larger subkey
		v, err = c.SeekBySubkey(1, 11)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, dupVal(30, "v"), *v)

		// never crosses into key 2
		v, err = c.SeekBySubkey(1, 31)
		require.NoError(t, err)
		assert.Nil(t, v)

		v, err = c.SeekBySubkey(9, 0)
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}

func TestDupNextDupVal(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng kv.Engine) {
		fillDup(t, eng, [2]uint64{1, 10}, [2]uint64{1, 20})

		tx, err := eng.Begin()
		require.NoError(t, err)
		defer tx.Rollback()

		c, err := cursor.NewDup(tx, dupTable)
		require.NoError(t, err)
		defer c.Close()

		p, err := c.First()
		require.NoError(t, err)
		require.NotNil(t, p)

		v, err := c.NextDupVal()
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, dupVal(20, "v"), *v)

		v, err = c.NextDupVal()
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}

func TestDupInsert(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng kv.Engine) {
		tx, err := eng.BeginRW()
		require.NoError(t, err)
		defer tx.Rollback()

		c, err := cursor.NewRWDup(tx, dupTable)
		require.NoError(t, err)
		defer c.Close()

		require.NoError(t, c.Insert(1, dupVal(10, "v")))

		// any value under the key blocks an insert, not just an equal one
		err = c.Insert(1, dupVal(20, "v"))
		require.Error(t, err)
		assert.True(t, kv.IsKeyExists(err))

		require.NoError(t, c.Upsert(1, dupVal(20, "v")))
	})
}

func TestDupAppendDup(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng kv.Engine) {
		tx, err := eng.BeginRW()
		require.NoError(t, err)
		defer tx.Rollback()

		c, err := cursor.NewRWDup(tx, dupTable)
		require.NoError(t, err)
		defer c.Close()

		require.NoError(t, c.AppendDup(1, dupVal(10, "v")))
		require.NoError(t, c.AppendDup(1, dupVal(20, "v")))

		// a smaller subkey under the same key breaks (key, subkey) order
		err = c.AppendDup(1, dupVal(15, "v"))
		require.Error(t, err)
		assert.True(t, kv.IsKeyOrder(err))

		// a smaller key always does
		err = c.Append(0, dupVal(1, "v"))
		require.Error(t, err)
		assert.True(t, kv.IsKeyOrder(err))

		require.NoError(t, c.AppendDup(2, dupVal(1, "v")))
	})
}

func TestDupDeleteCurrentDuplicates(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng kv.Engine) {
		fillDup(t, eng, [2]uint64{1, 10}, [2]uint64{1, 20}, [2]uint64{1, 30}, [2]uint64{2, 10})

		tx, err := eng.BeginRW()
		require.NoError(t, err)
		defer tx.Rollback()

		c, err := cursor.NewRWDup(tx, dupTable)
		require.NoError(t, err)
		defer c.Close()

		p, err := c.SeekExact(1)
		require.NoError(t, err)
		require.NotNil(t, p)

		require.NoError(t, c.DeleteCurrentDuplicates())

		p, err = c.SeekExact(1)
		require.NoError(t, err)
		assert.Nil(t, p)

		// key 2 untouched
		p, err = c.SeekExact(2)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, dupVal(10, "v"), p.Value)
	})
}

func TestDupDeleteCurrent(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng kv.Engine) {
		fillDup(t, eng, [2]uint64{1, 10}, [2]uint64{1, 20})

		tx, err := eng.BeginRW()
		require.NoError(t, err)
		defer tx.Rollback()

		c, err := cursor.NewRWDup(tx, dupTable)
		require.NoError(t, err)
		defer c.Close()

		p, err := c.SeekExact(1)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, dupVal(10, "v"), p.Value)

		require.NoError(t, c.DeleteCurrent())

		p, err = c.SeekExact(1)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, dupVal(20, "v"), p.Value)
	})
}

func TestWalkDup(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng kv.Engine) {
		fillDup(t, eng, [2]uint64{1, 10}, [2]uint64{1, 20}, [2]uint64{1, 30}, [2]uint64{2, 10})

		tx, err := eng.Begin()
		require.NoError(t, err)
		defer tx.Rollback()

		c, err := cursor.NewDup(tx, dupTable)
		require.NoError(t, err)
		defer c.Close()

		walk := func(key, sub *uint64) []uint64 {
			t.Helper()
			w, err := c.WalkDup(key, sub)
			require.NoError(t, err)
			defer w.Release()
			var subs []uint64
			for w.Next() {
				s, err := table.U64{}.Decode(w.Value()[:8])
				require.NoError(t, err)
				subs = append(subs, s)
			}
			require.NoError(t, w.Err())
			return subs
		}

		// key and subkey: from that duplicate on, never leaving the key
		assert.Equal(t, []uint64{20, 30}, walk(u64p(1), u64p(15)))

		// key only: all of the key's duplicates
		assert.Equal(t, []uint64{10, 20, 30}, walk(u64p(1), nil))
		assert.Equal(t, []uint64{10}, walk(u64p(2), nil))

		// absent key yields nothing
		assert.Empty(t, walk(u64p(9), nil))

		// subkey only: scoped to the table's first key
		assert.Equal(t, []uint64{20, 30}, walk(nil, u64p(15)))

		// neither: the table's first value only starts the walk
		assert.Equal(t, []uint64{10, 20, 30}, walk(nil, nil))
	})
}

func TestWalkDupEmptyTable(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng kv.Engine) {
		fillDup(t, eng)

		tx, err := eng.Begin()
		require.NoError(t, err)
		defer tx.Rollback()

		c, err := cursor.NewDup(tx, dupTable)
		require.NoError(t, err)
		defer c.Close()

		// subkey-only on an empty table fails on the first pull
		w, err := c.WalkDup(nil, u64p(5))
		require.NoError(t, err)
		assert.False(t, w.Next())
		err = w.Err()
		require.Error(t, err)
		assert.True(t, cursor.IsKind(err, cursor.KindRead))
		w.Release()

		// every other configuration just yields nothing
		w, err = c.WalkDup(nil, nil)
		require.NoError(t, err)
		assert.False(t, w.Next())
		assert.NoError(t, w.Err())
		w.Release()
	})
}

func TestDupWalkerBusy(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng kv.Engine) {
		fillDup(t, eng, [2]uint64{1, 10}, [2]uint64{1, 20})

		tx, err := eng.Begin()
		require.NoError(t, err)
		defer tx.Rollback()

		c, err := cursor.NewDup(tx, dupTable)
		require.NoError(t, err)
		defer c.Close()

		w, err := c.WalkDup(u64p(1), nil)
		require.NoError(t, err)

		_, err = c.NextDup()
		assert.ErrorIs(t, err, cursor.ErrBusy)
		_, err = c.SeekBySubkey(1, 10)
		assert.ErrorIs(t, err, cursor.ErrBusy)
		_, err = c.WalkDup(nil, nil)
		assert.ErrorIs(t, err, cursor.ErrBusy)

		w.Release()

		v, err := c.SeekBySubkey(1, 10)
		require.NoError(t, err)
		assert.NotNil(t, v)
	})
}
