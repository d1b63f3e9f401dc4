// Package fileengine implements file content storage as a singly linked
// list of blocks, each prefixed with a pointer to the next block in the
// chain (zero in the terminal block).
package fileengine

import (
	"time"

	"github.com/vdiskfs/vdisk/internal/blockalloc"
	"github.com/vdiskfs/vdisk/internal/geometry"
	"github.com/vdiskfs/vdisk/internal/nodetable"
	"github.com/vdiskfs/vdisk/internal/ptr"
	"github.com/vdiskfs/vdisk/internal/vimage"
)

// Engine reads and writes file content chains and the node entries that
// anchor them.
type Engine struct {
	img   *vimage.Image
	geom  *geometry.Geometry
	table *nodetable.Table
	alloc *blockalloc.Allocator
}

// New wraps an Image for file content operations.
func New(img *vimage.Image) *Engine {
	return &Engine{
		img:   img,
		geom:  img.Geometry(),
		table: nodetable.New(img),
		alloc: blockalloc.New(img),
	}
}

// WriteAll writes data as the content of a (possibly new) file node named
// name. If existing is non-nil, its chain and node entry are released
// first, so the old content's space is reclaimed before the new content
// is allocated (name uniqueness and the existence check that produces
// existing are the caller's responsibility). It returns the newly
// written node entry; the caller is responsible for linking it into the
// parent directory.
func (e *Engine) WriteAll(existing *nodetable.Entry, name string, data []byte, modTime time.Time) (nodetable.Entry, error) {
	if existing != nil {
		if err := e.alloc.FreeChain(existing.Pointer); err != nil {
			return nodetable.Entry{}, err
		}
		if err := e.table.Free(int64(existing.ID)); err != nil {
			return nodetable.Entry{}, err
		}
	}

	id, err := e.table.FindFreeID()
	if err != nil {
		return nodetable.Entry{}, err
	}

	exclude := map[int64]bool{}
	anchor, err := e.alloc.FindFree(exclude)
	if err != nil {
		return nodetable.Entry{}, err
	}
	exclude[anchor] = true

	if err := e.writeChain(anchor, data, exclude); err != nil {
		return nodetable.Entry{}, err
	}

	entry := nodetable.Entry{
		ID:      nodetable.Ref(id),
		IsDir:   false,
		Name:    name,
		Info:    nodetable.NewFileInfo(e.geom, uint32(len(data)), modTime),
		Pointer: anchor,
	}
	if err := e.table.Write(id, entry); err != nil {
		return nodetable.Entry{}, err
	}
	return entry, nil
}

// writeChain lays data out starting at the already-allocated anchor
// block, allocating additional blocks as needed. A zero-length payload
// still occupies exactly the anchor block, with its next-pointer left at
// zero, per the spec's requirement that an empty file reserve one anchor
// block and record size 0.
func (e *Engine) writeChain(anchor int64, data []byte, exclude map[int64]bool) error {
	spb := e.geom.ActualSpacePerBlock
	blockCount := 1
	if len(data) > 0 {
		blockCount = (len(data) + spb - 1) / spb
	}

	previous := anchor
	for i := 0; i < blockCount; i++ {
		start := i * spb
		end := start + spb
		if end > len(data) {
			end = len(data)
		}
		payload := data[start:end]

		var next int64
		last := i == blockCount-1
		if !last {
			n, err := e.alloc.FindFree(exclude)
			if err != nil {
				return err
			}
			exclude[n] = true
			next = n
		}

		block := make([]byte, e.geom.BlockSize)
		ptr.Write(block[:e.geom.PointerSize], e.geom.PointerSize, uint64(next))
		copy(block[e.geom.PointerSize:e.geom.PointerSize+len(payload)], payload)

		if err := e.img.WriteAt(previous, block); err != nil {
			return err
		}
		previous = next
	}
	return nil
}

// ReadAll reads the full content of a file anchored at anchorPtr, whose
// recorded size is size bytes.
func (e *Engine) ReadAll(anchorPtr int64, size uint32) ([]byte, error) {
	out := make([]byte, size)
	remaining := int(size)
	current := anchorPtr
	pos := 0

	for {
		block, err := e.img.ReadAt(current, int(e.geom.BlockSize))
		if err != nil {
			return nil, err
		}
		payload := block[e.geom.PointerSize:]
		toCopy := remaining
		if toCopy > len(payload) {
			toCopy = len(payload)
		}
		copy(out[pos:pos+toCopy], payload[:toCopy])
		pos += toCopy
		remaining -= toCopy

		next := int64(ptr.Read(block[:e.geom.PointerSize], e.geom.PointerSize))
		if next == 0 {
			break
		}
		current = next
	}
	return out, nil
}

// Delete releases a file's block chain and its node entry.
func (e *Engine) Delete(entry nodetable.Entry) error {
	if err := e.alloc.FreeChain(entry.Pointer); err != nil {
		return err
	}
	return e.table.Free(int64(entry.ID))
}
