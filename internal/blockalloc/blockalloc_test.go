package blockalloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vdiskfs/vdisk/internal/blockalloc"
	"github.com/vdiskfs/vdisk/internal/geometry"
	"github.com/vdiskfs/vdisk/internal/ptr"
	"github.com/vdiskfs/vdisk/internal/vimage"
)

func newAlloc(t *testing.T) (*blockalloc.Allocator, *vimage.Image, *geometry.Geometry) {
	t.Helper()
	g, err := geometry.New(512, 12, 1<<16, 16)
	require.NoError(t, err)
	img := vimage.New(g)
	return blockalloc.New(img), img, g
}

func TestFindFreeSkipsBlockZero(t *testing.T) {
	alloc, _, _ := newAlloc(t)
	b, err := alloc.FindFree(map[int64]bool{})
	require.NoError(t, err)
	require.NotEqual(t, int64(0), b)
}

func TestFindFreeHonorsExclude(t *testing.T) {
	alloc, _, geom := newAlloc(t)
	first, err := alloc.FindFree(map[int64]bool{})
	require.NoError(t, err)

	second, err := alloc.FindFree(map[int64]bool{first: true})
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	_ = geom
}

func TestFreeChainZeroesAllBlocks(t *testing.T) {
	alloc, img, geom := newAlloc(t)

	a, err := alloc.FindFree(map[int64]bool{})
	require.NoError(t, err)
	b, err := alloc.FindFree(map[int64]bool{a: true})
	require.NoError(t, err)

	blockA := make([]byte, geom.BlockSize)
	ptr.Write(blockA[:geom.PointerSize], geom.PointerSize, uint64(b))
	blockA[geom.PointerSize] = 0xFF
	require.NoError(t, img.WriteAt(a, blockA))

	blockB := make([]byte, geom.BlockSize)
	blockB[0] = 0xAB
	require.NoError(t, img.WriteAt(b, blockB))

	require.NoError(t, alloc.FreeChain(a))

	zeroA, err := img.IsZeroSlot(a, int(geom.BlockSize))
	require.NoError(t, err)
	require.True(t, zeroA)

	zeroB, err := img.IsZeroSlot(b, int(geom.BlockSize))
	require.NoError(t, err)
	require.True(t, zeroB)
}

func TestFreeChainNoopOnZeroHead(t *testing.T) {
	alloc, _, _ := newAlloc(t)
	require.NoError(t, alloc.FreeChain(0))
}

func TestFreeSpaceDecreasesAfterAllocation(t *testing.T) {
	alloc, img, geom := newAlloc(t)

	before, err := alloc.FreeSpace()
	require.NoError(t, err)

	a, err := alloc.FindFree(map[int64]bool{})
	require.NoError(t, err)
	require.NoError(t, img.WriteAt(a, append([]byte{1}, make([]byte, geom.BlockSize-1)...)))

	after, err := alloc.FreeSpace()
	require.NoError(t, err)
	require.Less(t, after, before)
}
