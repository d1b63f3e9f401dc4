// Package hostfile persists a vdisk image to, and loads it back from, the
// host file system, optionally compressing the on-disk representation.
// vdisk itself only ever manipulates an in-memory []byte; this package is
// the thin boundary where that buffer meets actual files.
package hostfile

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz"
	times "gopkg.in/djherbis/times.v1"
)

// Save writes buf to path, truncating or creating the file as needed.
func Save(path string, buf []byte) error {
	return os.WriteFile(path, buf, 0o644)
}

// Load reads the full content of path into memory.
func Load(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hostfile: %w", err)
	}
	return b, nil
}

// SaveCompressed writes buf to path as an lz4-compressed stream. Use this
// for images that spend most of their life at rest on disk and are
// reopened wholesale, rather than images under frequent small updates.
func SaveCompressed(path string, buf []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hostfile: %w", err)
	}
	defer f.Close()

	zw := lz4.NewWriter(f)
	if _, err := zw.Write(buf); err != nil {
		return fmt.Errorf("hostfile: lz4 write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("hostfile: lz4 close: %w", err)
	}
	return nil
}

// LoadCompressed reads and decompresses an lz4 stream written by
// SaveCompressed.
func LoadCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hostfile: %w", err)
	}
	defer f.Close()

	zr := lz4.NewReader(f)
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("hostfile: lz4 read: %w", err)
	}
	return out, nil
}

// SaveXZ writes buf to path as an xz-compressed stream, trading
// compression speed for a smaller file than SaveCompressed — suited to
// long-term archival copies of a volume rather than working copies.
func SaveXZ(path string, buf []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hostfile: %w", err)
	}
	defer f.Close()

	zw, err := xz.NewWriter(f)
	if err != nil {
		return fmt.Errorf("hostfile: xz writer: %w", err)
	}
	if _, err := zw.Write(buf); err != nil {
		return fmt.Errorf("hostfile: xz write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("hostfile: xz close: %w", err)
	}
	return nil
}

// LoadXZ reads and decompresses an xz stream written by SaveXZ.
func LoadXZ(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hostfile: %w", err)
	}
	defer f.Close()

	zr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("hostfile: xz reader: %w", err)
	}
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("hostfile: xz read: %w", err)
	}
	return out, nil
}

// Info describes a host image file's timestamps, including creation time
// on platforms that expose it, which os.Stat cannot report directly.
type Info struct {
	ModTime    time.Time
	AccessTime time.Time
	BirthTime  time.Time
	HasBirth   bool
}

// Stat reports timestamp information about the host file at path.
func Stat(path string) (Info, error) {
	t, err := times.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("hostfile: %w", err)
	}
	info := Info{
		ModTime:    t.ModTime(),
		AccessTime: t.AccessTime(),
	}
	if t.HasBirthTime() {
		info.HasBirth = true
		info.BirthTime = t.BirthTime()
	}
	return info, nil
}
