// Package vimage owns the single contiguous byte buffer backing a vdisk
// volume. It offers bounded, copying reads and writes over that buffer and
// nothing else: every other component (node table, block allocator,
// directory and file engines) goes through it to touch bytes, so it is the
// one place image-length bounds are enforced.
package vimage

import (
	"fmt"

	"github.com/vdiskfs/vdisk/internal/geometry"
)

// Image is the in-memory byte buffer backing a volume, plus the Geometry
// describing how to interpret it.
type Image struct {
	buf  []byte
	geom *geometry.Geometry
}

// New allocates a fresh, zeroed image of the size implied by geom and
// stamps its header at offset 0.
func New(geom *geometry.Geometry) *Image {
	buf := make([]byte, geom.StorageSize)
	copy(buf, geom.ToBytes())
	return &Image{buf: buf, geom: geom}
}

// Open adopts an existing byte slice as an image, parsing and re-deriving
// its Geometry from the header. The caller's slice is used directly, not
// copied; a corrupt or truncated header yields an error rather than a
// panic on later access.
func Open(buf []byte) (*Image, error) {
	if len(buf) < geometry.HeaderSize {
		return nil, fmt.Errorf("vimage: image of %d bytes is too small to hold a header", len(buf))
	}
	geom, err := geometry.FromBytes(buf)
	if err != nil {
		return nil, fmt.Errorf("vimage: corrupt header: %w", err)
	}
	if int64(len(buf)) != geom.StorageSize {
		return nil, fmt.Errorf("vimage: header declares %d bytes but buffer is %d bytes", geom.StorageSize, len(buf))
	}
	return &Image{buf: buf, geom: geom}, nil
}

// Geometry returns the image's derived geometry.
func (img *Image) Geometry() *geometry.Geometry {
	return img.geom
}

// Len returns the total size of the image, in bytes.
func (img *Image) Len() int64 {
	return int64(len(img.buf))
}

// Bytes returns the entire backing buffer. Callers that persist the image
// (the hostfile collaborator) use this; core engine code should prefer
// ReadAt/WriteAt so bounds stay enforced in one place.
func (img *Image) Bytes() []byte {
	return img.buf
}

// ReadAt copies n bytes starting at off into a new slice.
func (img *Image) ReadAt(off int64, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+int64(n) > int64(len(img.buf)) {
		return nil, fmt.Errorf("vimage: read [%d, %d) out of bounds for %d-byte image", off, off+int64(n), len(img.buf))
	}
	out := make([]byte, n)
	copy(out, img.buf[off:off+int64(n)])
	return out, nil
}

// WriteAt copies b into the image starting at off.
func (img *Image) WriteAt(off int64, b []byte) error {
	if off < 0 || off+int64(len(b)) > int64(len(img.buf)) {
		return fmt.Errorf("vimage: write [%d, %d) out of bounds for %d-byte image", off, off+int64(len(b)), len(img.buf))
	}
	copy(img.buf[off:off+int64(len(b))], b)
	return nil
}

// IsZeroSlot reports whether the n bytes at off sum to zero, which is how
// every free-space test in this format is defined: a block, node entry or
// directory slot is free iff its bytes are all zero.
func (img *Image) IsZeroSlot(off int64, n int) (bool, error) {
	b, err := img.ReadAt(off, n)
	if err != nil {
		return false, err
	}
	for _, c := range b {
		if c != 0 {
			return false, nil
		}
	}
	return true, nil
}
