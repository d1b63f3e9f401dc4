package sizefmt_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vdiskfs/vdisk/sizefmt"
)

func TestBytesUnderKilo(t *testing.T) {
	require.Equal(t, "512B", sizefmt.Bytes(512))
}

func TestBytesKilo(t *testing.T) {
	require.Equal(t, "1.5KB", sizefmt.Bytes(1536))
}

func TestBytesMega(t *testing.T) {
	require.Equal(t, "2.0MB", sizefmt.Bytes(2*1024*1024))
}

func TestBytesGiga(t *testing.T) {
	require.Equal(t, "1.0GB", sizefmt.Bytes(1024*1024*1024))
}
