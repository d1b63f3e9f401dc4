// Package direngine interprets a directory's anchor block as a fixed
// array of 8-byte little-endian node ids and supports enumerating,
// inserting into, and probing that array.
package direngine

import (
	"encoding/binary"
	"fmt"

	"github.com/vdiskfs/vdisk/internal/geometry"
	"github.com/vdiskfs/vdisk/internal/vimage"
)

// Engine reads and writes a directory's child-id slots.
type Engine struct {
	img  *vimage.Image
	geom *geometry.Geometry
}

// New wraps an Image for directory-block operations.
func New(img *vimage.Image) *Engine {
	return &Engine{img: img, geom: img.Geometry()}
}

// slotOffset returns the absolute offset of slot i within the directory
// anchor block at anchor. Slots are packed starting at offset 0: a
// directory's leading PointerSize bytes are ordinary slot data, not a
// next-block pointer (directories are always a single block, never a
// chain). MaxItemsPerDirectory already accounts for the block's
// PointerSize bytes of slack by capping capacity at (block_size -
// pointer_size) / 8, leaving any leftover bytes unused at the tail of
// the block rather than reserving them at the front.
func (e *Engine) slotOffset(anchor int64, i int) int64 {
	return anchor + int64(i)*geometry.NodeEntryPointerSize
}

// List returns every non-free child node id recorded in the directory
// anchored at anchor.
func (e *Engine) List(anchor int64) ([]int64, error) {
	var ids []int64
	for i := 0; i < e.geom.MaxItemsPerDirectory; i++ {
		slot, err := e.img.ReadAt(e.slotOffset(anchor, i), geometry.NodeEntryPointerSize)
		if err != nil {
			return nil, err
		}
		if isZero(slot) {
			continue
		}
		ids = append(ids, int64(binary.LittleEndian.Uint64(slot)))
	}
	return ids, nil
}

// Insert writes childID into the first free slot of the directory
// anchored at anchor. It does not check for name collisions; the caller
// is responsible for uniqueness (the volume façade checks existence
// before calling Insert).
func (e *Engine) Insert(anchor int64, childID int64) error {
	for i := 0; i < e.geom.MaxItemsPerDirectory; i++ {
		off := e.slotOffset(anchor, i)
		slot, err := e.img.ReadAt(off, geometry.NodeEntryPointerSize)
		if err != nil {
			return err
		}
		if !isZero(slot) {
			continue
		}
		b := make([]byte, geometry.NodeEntryPointerSize)
		binary.LittleEndian.PutUint64(b, uint64(childID))
		return e.img.WriteAt(off, b)
	}
	return fmt.Errorf("direngine: directory anchored at %d is full", anchor)
}

// Remove clears the slot holding childID, if present. It is a no-op if
// childID is not found (directory deletion is not supported, but a
// parent's reference to a deleted file must still be cleared).
func (e *Engine) Remove(anchor int64, childID int64) error {
	for i := 0; i < e.geom.MaxItemsPerDirectory; i++ {
		off := e.slotOffset(anchor, i)
		slot, err := e.img.ReadAt(off, geometry.NodeEntryPointerSize)
		if err != nil {
			return err
		}
		if isZero(slot) {
			continue
		}
		if int64(binary.LittleEndian.Uint64(slot)) == childID {
			return e.img.WriteAt(off, make([]byte, geometry.NodeEntryPointerSize))
		}
	}
	return nil
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
