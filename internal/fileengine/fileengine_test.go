package fileengine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vdiskfs/vdisk/internal/fileengine"
	"github.com/vdiskfs/vdisk/internal/geometry"
	"github.com/vdiskfs/vdisk/internal/vimage"
)

func newEngine(t *testing.T) *fileengine.Engine {
	t.Helper()
	g, err := geometry.New(256, 12, 1<<16, 16)
	require.NoError(t, err)
	return fileengine.New(vimage.New(g))
}

func TestWriteAllThenReadAllSingleBlock(t *testing.T) {
	e := newEngine(t)
	data := []byte("hello virtual disk")

	entry, err := e.WriteAll(nil, "hello.txt", data, time.Now())
	require.NoError(t, err)
	require.Equal(t, "hello.txt", entry.Name)
	require.EqualValues(t, len(data), entry.FileSize())

	got, err := e.ReadAll(entry.Pointer, entry.FileSize())
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestWriteAllSpansMultipleBlocks(t *testing.T) {
	e := newEngine(t)
	data := make([]byte, 2000)
	for i := range data {
		data[i] = byte(i % 251)
	}

	entry, err := e.WriteAll(nil, "big.bin", data, time.Now())
	require.NoError(t, err)

	got, err := e.ReadAll(entry.Pointer, entry.FileSize())
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestWriteAllEmptyFileOccupiesOneBlock(t *testing.T) {
	e := newEngine(t)
	entry, err := e.WriteAll(nil, "empty.txt", nil, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 0, entry.FileSize())

	got, err := e.ReadAll(entry.Pointer, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestWriteAllReplacesExistingContent(t *testing.T) {
	e := newEngine(t)
	first, err := e.WriteAll(nil, "f.txt", []byte("version one"), time.Now())
	require.NoError(t, err)

	second, err := e.WriteAll(&first, "f.txt", []byte("version two, a fair bit longer"), time.Now())
	require.NoError(t, err)

	got, err := e.ReadAll(second.Pointer, second.FileSize())
	require.NoError(t, err)
	require.Equal(t, "version two, a fair bit longer", string(got))
}

func TestDeleteReclaimsChain(t *testing.T) {
	e := newEngine(t)
	entry, err := e.WriteAll(nil, "temp.txt", []byte("gone soon"), time.Now())
	require.NoError(t, err)
	require.NoError(t, e.Delete(entry))
}
