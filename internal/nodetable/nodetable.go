// Package nodetable implements the fixed array of node entries that
// describes every file and directory in a volume other than the root.
package nodetable

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/vdiskfs/vdisk/internal/geometry"
	"github.com/vdiskfs/vdisk/internal/ptr"
	"github.com/vdiskfs/vdisk/internal/vimage"
)

// ErrNoFreeID is returned by FindFreeID when every node-table slot is
// taken. Callers that need to report spec.md's OutOfNodes kind
// distinctly from a full block region check for this with errors.Is.
var ErrNoFreeID = errors.New("nodetable: no free node entry")

// Type tags stored in byte 0 of a node entry.
const (
	TypeFile      byte = 0
	TypeDirectory byte = 255
)

// Ref identifies a node: either the synthetic Root, or a zero-based index
// into the node table (slot 0 is reserved, so allocated ids start at 1). The on-disk format never stores Root's -1 value;
// it exists only at runtime, per the design note to model the sentinel as
// a tagged variant rather than a magic integer threaded through the code.
type Ref int64

// Root is the sentinel identifying the root directory "V:\". It consumes
// no node-table slot.
const Root Ref = -1

// IsRoot reports whether r refers to the root directory.
func (r Ref) IsRoot() bool { return r == Root }

// rootName is the synthetic name reported for the root directory, which
// has no on-disk name slot of its own.
const rootName = "V:"

// Entry is the in-memory form of one node-table entry (or the synthetic
// root entry).
type Entry struct {
	ID      Ref
	IsDir   bool
	Name    string
	Info    []byte // raw file_info_size bytes; interpretation depends on IsDir
	Pointer int64  // absolute offset of this node's anchor block; -1 means "free slot"
}

// free reports whether e represents an unallocated slot, per read_node's
// contract of returning Pointer == -1 for an all-zero entry.
func (e Entry) free() bool {
	return e.Pointer == -1
}

// FileSize returns the size recorded in a file entry's metadata (the
// first 4 bytes of Info, little-endian). Only meaningful when !IsDir.
func (e Entry) FileSize() uint32 {
	if len(e.Info) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(e.Info[0:4])
}

// ModifiedAt decodes the last-modified timestamp packed into an entry's
// metadata tail: 8 little-endian bytes of Unix-nanosecond ticks, placed
// right after the 4-byte size for files, or at offset 0 for directories.
func (e Entry) ModifiedAt() time.Time {
	var off int
	if !e.IsDir {
		off = 4
	}
	if len(e.Info) < off+8 {
		return time.Time{}
	}
	ticks := int64(binary.LittleEndian.Uint64(e.Info[off : off+8]))
	if ticks == 0 {
		return time.Time{}
	}
	return time.Unix(0, ticks).UTC()
}

// NewFileInfo packs a file node's metadata area: a little-endian uint32
// size followed by a little-endian int64 of last-modified ticks
// (UnixNano), with the remainder left zero.
func NewFileInfo(geom *geometry.Geometry, size uint32, modTime time.Time) []byte {
	b := make([]byte, geom.FileInfoSize)
	if len(b) >= 4 {
		binary.LittleEndian.PutUint32(b[0:4], size)
	}
	if len(b) >= 12 {
		binary.LittleEndian.PutUint64(b[4:12], uint64(modTime.UnixNano()))
	}
	return b
}

// NewDirInfo packs a directory node's metadata area: a little-endian
// int64 of last-modified ticks (UnixNano), with the remainder left zero.
func NewDirInfo(geom *geometry.Geometry, modTime time.Time) []byte {
	b := make([]byte, geom.FileInfoSize)
	if len(b) >= 8 {
		binary.LittleEndian.PutUint64(b[0:8], uint64(modTime.UnixNano()))
	}
	return b
}

// Table is the node table: a fixed array of equal-sized entries living
// immediately after the header.
type Table struct {
	img  *vimage.Image
	geom *geometry.Geometry
}

// New wraps an Image's node table region.
func New(img *vimage.Image) *Table {
	return &Table{img: img, geom: img.Geometry()}
}

// capacity returns the number of entry slots in the table, including the
// reserved, never-allocated slot 0.
func (t *Table) capacity() int64 {
	return t.geom.NodeTableSize / t.geom.NodeEntrySize
}

func (t *Table) offsetOf(id int64) int64 {
	return t.geom.NodeTableStart + id*t.geom.NodeEntrySize
}

// rawFree reports whether the raw bytes of entry id sum to zero, without
// going through Read/decoding. The allocator uses this directly rather
// than Read, per the design note that freeness must be tested on raw
// bytes, not by interpreting a zero entry's synthesized Pointer == -1.
func (t *Table) rawFree(id int64) (bool, error) {
	return t.img.IsZeroSlot(t.offsetOf(id), int(t.geom.NodeEntrySize))
}

// FindFreeID scans the table starting at index 1 (index 0 is reserved)
// for the first free slot.
func (t *Table) FindFreeID() (int64, error) {
	total := t.capacity()
	for id := int64(1); id < total; id++ {
		free, err := t.rawFree(id)
		if err != nil {
			return 0, err
		}
		if free {
			return id, nil
		}
	}
	return 0, ErrNoFreeID
}

// Read returns the decoded entry for id. For Root it synthesizes the
// fixed record (directory, name "V:", empty metadata, pointer at the
// start of the block region) rather than touching the table. For a free
// slot it returns Pointer == -1, mirroring the source's read_node
// contract that the allocator piggybacks on historically; New code
// should prefer rawFree for freeness tests instead.
func (t *Table) Read(id Ref) (Entry, error) {
	if id.IsRoot() {
		return Entry{
			ID:      Root,
			IsDir:   true,
			Name:    rootName,
			Info:    nil,
			Pointer: t.geom.StorageStart,
		}, nil
	}

	raw, err := t.img.ReadAt(t.offsetOf(int64(id)), int(t.geom.NodeEntrySize))
	if err != nil {
		return Entry{}, err
	}

	sum := 0
	for _, c := range raw {
		sum += int(c)
	}
	if sum == 0 {
		return Entry{ID: id, Pointer: -1}, nil
	}

	return decodeEntry(id, raw, t.geom), nil
}

func decodeEntry(id Ref, raw []byte, geom *geometry.Geometry) Entry {
	typeTag := raw[0]
	nameEnd := 1 + int(geom.MaxNameLength)
	infoEnd := nameEnd + int(geom.FileInfoSize)

	nameBytes := raw[1:nameEnd]
	name := nameBytes
	for i, c := range nameBytes {
		if c == 0 {
			name = nameBytes[:i]
			break
		}
	}

	info := make([]byte, geom.FileInfoSize)
	copy(info, raw[nameEnd:infoEnd])

	pointer := ptr.Read(raw[infoEnd:infoEnd+geom.PointerSize], geom.PointerSize)

	return Entry{
		ID:      id,
		IsDir:   typeTag == TypeDirectory,
		Name:    string(name),
		Info:    info,
		Pointer: int64(pointer),
	}
}

// Write packs and stores an entry at node id.
func (t *Table) Write(id int64, e Entry) error {
	raw := make([]byte, t.geom.NodeEntrySize)
	if e.IsDir {
		raw[0] = TypeDirectory
	} else {
		raw[0] = TypeFile
	}

	nameBytes := []byte(e.Name)
	if len(nameBytes) > int(t.geom.MaxNameLength) {
		return fmt.Errorf("nodetable: name %q exceeds max length %d", e.Name, t.geom.MaxNameLength)
	}
	copy(raw[1:1+t.geom.MaxNameLength], nameBytes)

	infoStart := 1 + int64(t.geom.MaxNameLength)
	copy(raw[infoStart:infoStart+int64(t.geom.FileInfoSize)], e.Info)

	ptrStart := infoStart + int64(t.geom.FileInfoSize)
	ptr.Write(raw[ptrStart:ptrStart+int64(t.geom.PointerSize)], t.geom.PointerSize, uint64(e.Pointer))

	return t.img.WriteAt(t.offsetOf(id), raw)
}

// Free zeroes the entry at id, returning it to the free pool.
func (t *Table) Free(id int64) error {
	return t.img.WriteAt(t.offsetOf(id), make([]byte, t.geom.NodeEntrySize))
}
