// Package blockalloc implements the block region's free-space scan and
// chain-release logic. A block is free iff its bytes all sum to zero;
// there is no separate free list or bitmap, by design (see the source's
// checksum-as-freeness approach, preserved here as an explicit predicate
// rather than reimplemented with a faster structure).
package blockalloc

import (
	"errors"

	"github.com/vdiskfs/vdisk/internal/geometry"
	"github.com/vdiskfs/vdisk/internal/ptr"
	"github.com/vdiskfs/vdisk/internal/vimage"
)

// ErrNoFreeBlock is returned by FindFree when the block region has no
// block left to offer. Callers that need to report spec.md's OutOfSpace
// kind distinctly from a full node table check for this with errors.Is.
var ErrNoFreeBlock = errors.New("blockalloc: no free block")

// Allocator scans and releases blocks in an Image's block region.
type Allocator struct {
	img  *vimage.Image
	geom *geometry.Geometry
}

// New wraps an Image's block region.
func New(img *vimage.Image) *Allocator {
	return &Allocator{img: img, geom: img.Geometry()}
}

func (a *Allocator) offsetOf(blockIndex int64) int64 {
	return a.geom.StorageStart + blockIndex*int64(a.geom.BlockSize)
}

// FindFree scans the block region from block index 1 upward (index 0 is
// the root directory's anchor and is never allocated) and returns the
// absolute offset of the first block whose bytes are all zero and whose
// offset is not in exclude. exclude lets a single multi-block operation
// avoid reusing a block it already chose earlier in the same call.
func (a *Allocator) FindFree(exclude map[int64]bool) (int64, error) {
	for i := int64(1); i < a.geom.BlockCount; i++ {
		off := a.offsetOf(i)
		if exclude[off] {
			continue
		}
		free, err := a.img.IsZeroSlot(off, int(a.geom.BlockSize))
		if err != nil {
			return 0, err
		}
		if free {
			return off, nil
		}
	}
	return 0, ErrNoFreeBlock
}

// FreeChain walks a file's block chain starting at headPtr, zeroing every
// visited block, until it reaches a block whose next-pointer is zero. A
// headPtr of 0 (no blocks allocated yet) is a no-op.
func (a *Allocator) FreeChain(headPtr int64) error {
	current := headPtr
	for current != 0 {
		block, err := a.img.ReadAt(current, int(a.geom.BlockSize))
		if err != nil {
			return err
		}
		next := int64(ptr.Read(block[:a.geom.PointerSize], a.geom.PointerSize))
		if err := a.img.WriteAt(current, make([]byte, a.geom.BlockSize)); err != nil {
			return err
		}
		current = next
	}
	return nil
}

// FreeSpace returns the number of free bytes remaining in the block
// region (blocks 1..BlockCount-1; the root anchor at block 0 never
// counts toward free space, matching how the allocator never offers it).
func (a *Allocator) FreeSpace() (int64, error) {
	var free int64
	for i := int64(1); i < a.geom.BlockCount; i++ {
		isFree, err := a.img.IsZeroSlot(a.offsetOf(i), int(a.geom.BlockSize))
		if err != nil {
			return 0, err
		}
		if isFree {
			free += int64(a.geom.BlockSize)
		}
	}
	return free, nil
}
