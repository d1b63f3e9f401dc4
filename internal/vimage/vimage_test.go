package vimage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vdiskfs/vdisk/internal/geometry"
	"github.com/vdiskfs/vdisk/internal/vimage"
)

func newTestGeometry(t *testing.T) *geometry.Geometry {
	t.Helper()
	g, err := geometry.New(512, 12, 1<<16, 16)
	require.NoError(t, err)
	return g
}

func TestNewStampsHeader(t *testing.T) {
	g := newTestGeometry(t)
	img := vimage.New(g)
	require.Equal(t, g.StorageSize, img.Len())

	header, err := img.ReadAt(0, geometry.HeaderSize)
	require.NoError(t, err)
	require.Equal(t, g.ToBytes(), header)
}

func TestOpenRoundTrip(t *testing.T) {
	g := newTestGeometry(t)
	img := vimage.New(g)

	reopened, err := vimage.Open(img.Bytes())
	require.NoError(t, err)
	require.Equal(t, g, reopened.Geometry())
}

func TestOpenRejectsLengthMismatch(t *testing.T) {
	g := newTestGeometry(t)
	buf := append([]byte{}, g.ToBytes()...)
	buf = append(buf, make([]byte, 10)...) // far short of StorageSize
	_, err := vimage.Open(buf)
	require.Error(t, err)
}

func TestReadWriteAtBounds(t *testing.T) {
	img := vimage.New(newTestGeometry(t))

	require.NoError(t, img.WriteAt(20, []byte{1, 2, 3}))
	got, err := img.ReadAt(20, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)

	_, err = img.ReadAt(-1, 3)
	require.Error(t, err)

	_, err = img.ReadAt(img.Len()-1, 3)
	require.Error(t, err)
}

func TestIsZeroSlot(t *testing.T) {
	img := vimage.New(newTestGeometry(t))

	zero, err := img.IsZeroSlot(100, 8)
	require.NoError(t, err)
	require.True(t, zero)

	require.NoError(t, img.WriteAt(100, []byte{0, 0, 1, 0, 0, 0, 0, 0}))
	zero, err = img.IsZeroSlot(100, 8)
	require.NoError(t, err)
	require.False(t, zero)
}
