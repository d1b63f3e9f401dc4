package hostfile_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vdiskfs/vdisk/hostfile"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.vdisk")
	data := []byte("arbitrary image bytes")

	require.NoError(t, hostfile.Save(path, data))
	got, err := hostfile.Load(path)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestSaveCompressedLoadCompressedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.vdisk.lz4")
	data := make([]byte, 8192)
	for i := range data {
		data[i] = byte(i % 200)
	}

	require.NoError(t, hostfile.SaveCompressed(path, data))
	got, err := hostfile.LoadCompressed(path)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestSaveXZLoadXZRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.vdisk.xz")
	data := []byte("a smaller payload for a slower, tighter codec")

	require.NoError(t, hostfile.SaveXZ(path, data))
	got, err := hostfile.LoadXZ(path)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestStatReportsModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.vdisk")
	require.NoError(t, hostfile.Save(path, []byte("x")))

	info, err := hostfile.Stat(path)
	require.NoError(t, err)
	require.False(t, info.ModTime.IsZero())
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := hostfile.Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
