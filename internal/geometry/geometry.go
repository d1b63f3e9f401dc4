// Package geometry derives every on-image size a vdisk volume needs from
// the four parameters a caller supplies when creating one, and knows how
// to serialize and parse the fixed 12-byte header that records them.
package geometry

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size, in bytes, of the on-image header.
const HeaderSize = 12

// NodeEntryPointerSize is the width, in bytes, of a directory slot entry
// (a little-endian node id), independent of the image's pointer width.
const NodeEntryPointerSize = 8

// candidatePointerWidths are tried, smallest first, when deriving
// PointerSize. 255^w must cover BlockCount for a width to qualify.
var candidatePointerWidths = [...]int{1, 2, 4, 8}

// Geometry holds the four caller-supplied parameters of a volume plus
// every size derived from them. All derived fields are pure functions of
// the four inputs; recomputing them from the same inputs always yields
// the same Geometry, which is what lets Open() validate a reloaded image.
type Geometry struct {
	// BlockSize is the number of bytes per block, including the
	// next-block pointer prefix.
	BlockSize uint16
	// FileInfoSize is the per-node metadata capacity, in bytes.
	FileInfoSize uint8
	// StorageSize is the total length of the image, in bytes.
	StorageSize int64
	// MaxNameLength is the fixed on-disk name slot size, in bytes.
	MaxNameLength uint8

	// PointerSize is the width, in bytes, of a block pointer: the
	// smallest of {1,2,4,8} such that 255^PointerSize >= BlockCount.
	PointerSize int
	// BlockCount is the number of blocks in the block region.
	BlockCount int64
	// NodeEntrySize is the size, in bytes, of one node-table entry.
	NodeEntrySize int64
	// NodeTableSize is the total size, in bytes, of the node table.
	NodeTableSize int64
	// ActualSpacePerBlock is BlockSize minus PointerSize: the payload
	// capacity of a single block in a file's chain.
	ActualSpacePerBlock int
	// MaxItemsPerDirectory is the number of 8-byte child slots that fit
	// in a single directory anchor block.
	MaxItemsPerDirectory int
	// TotalSpace is the size, in bytes, of the block region.
	TotalSpace int64

	// NodeTableStart is the absolute offset of the node table (always
	// HeaderSize).
	NodeTableStart int64
	// StorageStart is the absolute offset of the block region, and the
	// offset of the root directory's anchor block (block index 0).
	StorageStart int64
}

// New derives a Geometry from the four caller-supplied parameters,
// rejecting combinations that would produce an unusable image instead of
// letting the arithmetic silently go negative or divide by zero.
func New(blockSize uint16, fileInfoSize uint8, storageSize int64, maxNameLength uint8) (*Geometry, error) {
	if blockSize == 0 {
		return nil, fmt.Errorf("geometry: block size must be non-zero")
	}
	if storageSize <= int64(HeaderSize) {
		return nil, fmt.Errorf("geometry: storage size %d too small for a %d-byte header", storageSize, HeaderSize)
	}

	g := &Geometry{
		BlockSize:     blockSize,
		FileInfoSize:  fileInfoSize,
		StorageSize:   storageSize,
		MaxNameLength: maxNameLength,
	}

	// node_table_size depends only on node_entry_size, which depends on
	// pointer_size, which depends on block_count, which in turn depends
	// on node_table_size. Rather than solve the cycle algebraically, try
	// each candidate pointer width in ascending order and accept the
	// first one whose own derived block_count it can actually address.
	itemsCap := float64(storageSize) * 0.9 / float64(blockSize)
	nodeCount := int64(itemsCap)

	var chosen bool
	for _, w := range candidatePointerWidths {
		nodeEntrySize := int64(1) + int64(maxNameLength) + int64(fileInfoSize) + int64(w)
		nodeTableSize := nodeEntrySize * nodeCount
		remaining := storageSize - nodeTableSize - int64(HeaderSize)
		if remaining < 0 {
			continue
		}
		blockCount := remaining / int64(blockSize)
		if !pointerWidthCovers(w, blockCount) {
			continue
		}

		g.PointerSize = w
		g.NodeEntrySize = nodeEntrySize
		g.NodeTableSize = nodeTableSize
		g.BlockCount = blockCount
		chosen = true
		break
	}
	if !chosen {
		return nil, fmt.Errorf("geometry: no pointer width covers the derived block count for these parameters")
	}
	if g.BlockCount <= 0 {
		return nil, fmt.Errorf("geometry: derived block count %d is not positive", g.BlockCount)
	}

	g.ActualSpacePerBlock = int(blockSize) - g.PointerSize
	if g.ActualSpacePerBlock <= 0 {
		return nil, fmt.Errorf("geometry: block size %d too small for pointer width %d", blockSize, g.PointerSize)
	}
	g.MaxItemsPerDirectory = (int(blockSize) - g.PointerSize) / NodeEntryPointerSize
	g.TotalSpace = storageSize - int64(HeaderSize) - g.NodeTableSize
	g.NodeTableStart = int64(HeaderSize)
	g.StorageStart = int64(HeaderSize) + g.NodeTableSize

	return g, nil
}

// pointerWidthCovers reports whether width bytes, interpreted the way
// this image's block pointers are (base-255 per the source format, not
// base-256), can address blockCount distinct blocks.
func pointerWidthCovers(width int, blockCount int64) bool {
	limit := int64(1)
	for i := 0; i < width; i++ {
		limit *= 255
		if limit < 0 { // overflow guard; 255^8 exceeds int64 and wraps negative
			return true
		}
	}
	return limit >= blockCount
}

// ToBytes serializes the geometry into the fixed 12-byte on-image header.
func (g *Geometry) ToBytes() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(b[0:2], g.BlockSize)
	b[2] = g.FileInfoSize
	binary.LittleEndian.PutUint64(b[3:11], uint64(g.StorageSize))
	b[11] = g.MaxNameLength
	return b
}

// FromBytes parses a 12-byte header and re-derives the full Geometry from
// it, the same way New does from explicit parameters. This is how Open
// recovers a Geometry from an existing image.
func FromBytes(b []byte) (*Geometry, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("geometry: header requires %d bytes, got %d", HeaderSize, len(b))
	}
	blockSize := binary.LittleEndian.Uint16(b[0:2])
	fileInfoSize := b[2]
	storageSize := int64(binary.LittleEndian.Uint64(b[3:11]))
	maxNameLength := b[11]

	return New(blockSize, fileInfoSize, storageSize, maxNameLength)
}
