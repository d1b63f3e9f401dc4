package direngine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vdiskfs/vdisk/internal/direngine"
	"github.com/vdiskfs/vdisk/internal/geometry"
	"github.com/vdiskfs/vdisk/internal/vimage"
)

func newEngine(t *testing.T) (*direngine.Engine, int64) {
	t.Helper()
	g, err := geometry.New(512, 12, 1<<16, 16)
	require.NoError(t, err)
	img := vimage.New(g)
	return direngine.New(img), g.StorageStart
}

func TestInsertAndList(t *testing.T) {
	e, anchor := newEngine(t)
	require.NoError(t, e.Insert(anchor, 7))
	require.NoError(t, e.Insert(anchor, 9))

	ids, err := e.List(anchor)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{7, 9}, ids)
}

func TestInsertFillsFirstFreeSlot(t *testing.T) {
	e, anchor := newEngine(t)
	require.NoError(t, e.Insert(anchor, 1))
	require.NoError(t, e.Remove(anchor, 1))
	require.NoError(t, e.Insert(anchor, 2))

	ids, err := e.List(anchor)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, ids)
}

func TestInsertReturnsErrorWhenFull(t *testing.T) {
	g, err := geometry.New(64, 4, 4096, 8)
	require.NoError(t, err)
	img := vimage.New(g)
	e := direngine.New(img)

	for i := 0; i < g.MaxItemsPerDirectory; i++ {
		require.NoError(t, e.Insert(g.StorageStart, int64(i+1)))
	}
	require.Error(t, e.Insert(g.StorageStart, int64(g.MaxItemsPerDirectory+1)))
}

func TestRemoveIsNoopWhenAbsent(t *testing.T) {
	e, anchor := newEngine(t)
	require.NoError(t, e.Remove(anchor, 42))
}
