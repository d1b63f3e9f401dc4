// Package vdisk implements a self-contained virtual disk: a
// byte-array-backed, hierarchical file system whose entire on-disk state
// lives in one contiguous buffer that can be persisted to, and reloaded
// from, a single host file.
//
// A caller picks a geometry (block size, total capacity, name length,
// per-file metadata size) with New, then performs directory- and
// file-level operations against a root volume named "V:\". Persisting
// and reloading the image to a host file is handled by the sibling
// hostfile package; vdisk itself only ever touches an in-memory []byte.
package vdisk

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vdiskfs/vdisk/internal/blockalloc"
	"github.com/vdiskfs/vdisk/internal/direngine"
	"github.com/vdiskfs/vdisk/internal/fileengine"
	"github.com/vdiskfs/vdisk/internal/geometry"
	"github.com/vdiskfs/vdisk/internal/nodetable"
	"github.com/vdiskfs/vdisk/internal/pathutil"
	"github.com/vdiskfs/vdisk/internal/vimage"
)

// Volume is a reference to a single virtual disk backed by an in-memory
// image. All paths passed to its methods must begin with "V:\".
type Volume struct {
	// ID is a runtime-only correlation id, not persisted on the image;
	// it exists purely to tag log lines when multiple volumes are in
	// play at once.
	ID uuid.UUID

	img   *vimage.Image
	geom  *geometry.Geometry
	table *nodetable.Table
	alloc *blockalloc.Allocator
	dirs  *direngine.Engine
	files *fileengine.Engine
	log   *logrus.Entry
}

// Option configures a Volume at construction time.
type Option func(*Volume)

// WithLogger attaches a logrus.Logger to a Volume; allocation decisions
// and out-of-space conditions are logged to it at Debug/Warn level. If
// omitted, a Volume logs to a discarding logger.
func WithLogger(l *logrus.Logger) Option {
	return func(v *Volume) {
		v.log = l.WithField("volume", v.ID)
	}
}

func newVolume(img *vimage.Image, opts []Option) *Volume {
	v := &Volume{
		ID:    uuid.New(),
		img:   img,
		geom:  img.Geometry(),
		table: nodetable.New(img),
		alloc: blockalloc.New(img),
		dirs:  direngine.New(img),
		files: fileengine.New(img),
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	v.log = discard.WithField("volume", v.ID)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// New creates a fresh, empty volume with the given geometry.
func New(blockSize uint16, fileInfoSize uint8, storageSize int64, maxNameLength uint8, opts ...Option) (*Volume, error) {
	geom, err := geometry.New(blockSize, fileInfoSize, storageSize, maxNameLength)
	if err != nil {
		return nil, NewCorruptImageError(err.Error())
	}
	img := vimage.New(geom)
	v := newVolume(img, opts)
	v.log.WithFields(logrus.Fields{
		"blockSize":   geom.BlockSize,
		"blockCount":  geom.BlockCount,
		"pointerSize": geom.PointerSize,
	}).Debug("created new volume")
	return v, nil
}

// Open loads an existing volume from a previously saved buffer (the
// round-trip counterpart of SaveToBuffer).
func Open(buf []byte, opts ...Option) (*Volume, error) {
	img, err := vimage.Open(buf)
	if err != nil {
		return nil, NewCorruptImageError(err.Error())
	}
	return newVolume(img, opts), nil
}

// Geometry returns the volume's derived geometry.
func (v *Volume) Geometry() *geometry.Geometry {
	return v.geom
}

// FreeSpace returns the number of free bytes remaining in the block
// region.
func (v *Volume) FreeSpace() (int64, error) {
	return v.alloc.FreeSpace()
}

// SaveToBuffer returns the volume's entire backing image. The returned
// slice aliases the volume's internal buffer; callers that want to keep
// a stable snapshot should copy it.
func (v *Volume) SaveToBuffer() []byte {
	return v.img.Bytes()
}

func (v *Volume) resolver() *pathutil.Resolver {
	return &pathutil.Resolver{
		RootAnchor: v.geom.StorageStart,
		AnchorOf: func(id int64) (int64, error) {
			e, err := v.table.Read(nodetable.Ref(id))
			if err != nil {
				return 0, err
			}
			return e.Pointer, nil
		},
		Lookup: func(dirAnchor int64, name string) (int64, bool, bool, error) {
			ids, err := v.dirs.List(dirAnchor)
			if err != nil {
				return 0, false, false, err
			}
			for _, id := range ids {
				e, err := v.table.Read(nodetable.Ref(id))
				if err != nil {
					return 0, false, false, err
				}
				if e.Name == name {
					return id, e.IsDir, true, nil
				}
			}
			return 0, false, false, nil
		},
	}
}

// lookupChild finds the named child within the directory anchored at
// dirAnchor, returning its decoded entry.
func (v *Volume) lookupChild(dirAnchor int64, name string) (nodetable.Entry, bool, error) {
	ids, err := v.dirs.List(dirAnchor)
	if err != nil {
		return nodetable.Entry{}, false, err
	}
	for _, id := range ids {
		e, err := v.table.Read(nodetable.Ref(id))
		if err != nil {
			return nodetable.Entry{}, false, err
		}
		if e.Name == name {
			return e, true, nil
		}
	}
	return nodetable.Entry{}, false, nil
}

// resolveParentAndLeaf resolves path down to its parent directory's
// anchor block and the final path segment.
func (v *Volume) resolveParentAndLeaf(path string) (int64, string, error) {
	leaf, err := pathutil.Leaf(path)
	if err != nil {
		return 0, "", NewInvalidPathError(path, err.Error())
	}
	r := v.resolver()
	anchor, err := r.GoToLastDirectory(path)
	if err != nil {
		return 0, "", NewInvalidPathError(path, err.Error())
	}
	if leaf != "" {
		// GoToLastDirectory resolves a path whose leaf is a directory to
		// that directory itself. The walk above has already checked every
		// intermediate segment, so resolving the parent path yields the
		// parent's anchor.
		segments, _ := pathutil.Split(path)
		anchor, err = r.GoToLastDirectory(pathutil.Join(segments[:len(segments)-1]...))
		if err != nil {
			return 0, "", NewInvalidPathError(path, err.Error())
		}
	}
	return anchor, leaf, nil
}

// ExistsFile reports whether path names an existing file.
func (v *Volume) ExistsFile(path string) (bool, error) {
	anchor, leaf, err := v.resolveParentAndLeaf(path)
	if err != nil {
		return false, err
	}
	if leaf == "" {
		return false, nil // "V:\" itself is always a directory
	}
	e, found, err := v.lookupChild(anchor, leaf)
	if err != nil {
		return false, err
	}
	return found && !e.IsDir, nil
}

// ExistsDirectory reports whether path names an existing directory, at
// the exact final path (a miss on the final segment is not "exists",
// unlike a naive parent-walk-succeeded check).
func (v *Volume) ExistsDirectory(path string) (bool, error) {
	segments, err := pathutil.Split(path)
	if err != nil {
		return false, NewInvalidPathError(path, err.Error())
	}
	if len(segments) == 0 {
		return true, nil // "V:\" always exists
	}
	anchor, leaf, err := v.resolveParentAndLeaf(path)
	if err != nil {
		return false, err
	}
	e, found, err := v.lookupChild(anchor, leaf)
	if err != nil {
		return false, err
	}
	return found && e.IsDir, nil
}

// CreateDirectory creates the directory at path, returning false if it
// already exists (a no-op, not an error).
func (v *Volume) CreateDirectory(path string) (bool, error) {
	exists, err := v.ExistsDirectory(path)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	anchor, leaf, err := v.resolveParentAndLeaf(path)
	if err != nil {
		return false, err
	}
	if leaf == "" {
		return false, NewInvalidPathError(path, "cannot create the root directory")
	}
	if len(leaf) > int(v.geom.MaxNameLength) {
		return false, NewNameTooLongError(leaf, int(v.geom.MaxNameLength))
	}

	id, err := v.table.FindFreeID()
	if err != nil {
		v.log.Warn("create directory: node table exhausted")
		return false, ErrOutOfNodes
	}

	dirAnchor, err := v.alloc.FindFree(map[int64]bool{})
	if err != nil {
		v.log.Warn("create directory: block region exhausted")
		return false, ErrOutOfSpace
	}

	now := time.Now()
	entry := nodetable.Entry{
		ID:      nodetable.Ref(id),
		IsDir:   true,
		Name:    leaf,
		Info:    nodetable.NewDirInfo(v.geom, now),
		Pointer: dirAnchor,
	}
	if err := v.table.Write(id, entry); err != nil {
		return false, err
	}
	if err := v.dirs.Insert(anchor, id); err != nil {
		// Roll back the node we just allocated so we don't leave an
		// orphaned entry with no directory reference (invariant 2).
		_ = v.table.Free(id)
		v.log.WithField("path", path).Warn("create directory: parent is full")
		return false, NewDirectoryFullError(path)
	}

	v.log.WithFields(logrus.Fields{"path": path, "nodeID": id}).Debug("created directory")
	return true, nil
}

// ListSubdirectories returns the full paths of the direct subdirectories
// of path.
func (v *Volume) ListSubdirectories(path string) ([]string, error) {
	anchor, err := v.dirAnchorFor(path)
	if err != nil {
		return nil, err
	}
	return v.listChildren(path, anchor, true)
}

// ListFiles returns the full paths of the direct files of path.
func (v *Volume) ListFiles(path string) ([]string, error) {
	anchor, err := v.dirAnchorFor(path)
	if err != nil {
		return nil, err
	}
	return v.listChildren(path, anchor, false)
}

func (v *Volume) listChildren(dirPath string, anchor int64, dirs bool) ([]string, error) {
	ids, err := v.dirs.List(anchor)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range ids {
		e, err := v.table.Read(nodetable.Ref(id))
		if err != nil {
			return nil, err
		}
		if e.IsDir == dirs {
			out = append(out, joinPath(dirPath, e.Name))
		}
	}
	return out, nil
}

func joinPath(dirPath, name string) string {
	if dirPath == pathutil.RootSegment+pathutil.Separator || dirPath == pathutil.RootSegment {
		return pathutil.RootSegment + pathutil.Separator + name
	}
	return dirPath + pathutil.Separator + name
}

// dirAnchorFor resolves path to an existing directory's anchor block,
// returning NotADirectory / NotFound as appropriate.
func (v *Volume) dirAnchorFor(path string) (int64, error) {
	segments, err := pathutil.Split(path)
	if err != nil {
		return 0, NewInvalidPathError(path, err.Error())
	}
	if len(segments) == 0 {
		return v.geom.StorageStart, nil
	}
	anchor, leaf, err := v.resolveParentAndLeaf(path)
	if err != nil {
		return 0, err
	}
	e, found, err := v.lookupChild(anchor, leaf)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, NewNotFoundError(path)
	}
	if !e.IsDir {
		return 0, NewNotADirectoryError(path)
	}
	return e.Pointer, nil
}

// FileHandle describes a file's metadata.
type FileHandle struct {
	Name         string
	Size         uint32
	LastModified time.Time
	Path         string
}

// DirectoryHandle describes a directory's metadata.
type DirectoryHandle struct {
	Name         string
	Path         string
	LastModified time.Time
}

// GetFile returns metadata about the file at path.
func (v *Volume) GetFile(path string) (FileHandle, error) {
	e, _, err := v.resolveFile(path)
	if err != nil {
		return FileHandle{}, err
	}
	return FileHandle{
		Name:         e.Name,
		Size:         e.FileSize(),
		LastModified: e.ModifiedAt(),
		Path:         path,
	}, nil
}

// GetDirectory returns metadata about the directory at path.
func (v *Volume) GetDirectory(path string) (DirectoryHandle, error) {
	segments, err := pathutil.Split(path)
	if err != nil {
		return DirectoryHandle{}, NewInvalidPathError(path, err.Error())
	}
	if len(segments) == 0 {
		return DirectoryHandle{Name: "V:", Path: path}, nil
	}
	anchor, leaf, err := v.resolveParentAndLeaf(path)
	if err != nil {
		return DirectoryHandle{}, err
	}
	e, found, err := v.lookupChild(anchor, leaf)
	if err != nil {
		return DirectoryHandle{}, err
	}
	if !found {
		return DirectoryHandle{}, NewNotFoundError(path)
	}
	if !e.IsDir {
		return DirectoryHandle{}, NewNotADirectoryError(path)
	}
	return DirectoryHandle{Name: e.Name, Path: path, LastModified: e.ModifiedAt()}, nil
}

// resolveFile resolves path to an existing file's parent anchor and
// entry.
func (v *Volume) resolveFile(path string) (nodetable.Entry, int64, error) {
	anchor, leaf, err := v.resolveParentAndLeaf(path)
	if err != nil {
		return nodetable.Entry{}, 0, err
	}
	if leaf == "" {
		return nodetable.Entry{}, 0, NewNotAFileError(path)
	}
	e, found, err := v.lookupChild(anchor, leaf)
	if err != nil {
		return nodetable.Entry{}, 0, err
	}
	if !found {
		return nodetable.Entry{}, 0, NewNotFoundError(path)
	}
	if e.IsDir {
		return nodetable.Entry{}, 0, NewNotAFileError(path)
	}
	return e, anchor, nil
}

// ReadFileBytes returns the full content of the file at path.
func (v *Volume) ReadFileBytes(path string) ([]byte, error) {
	e, _, err := v.resolveFile(path)
	if err != nil {
		return nil, err
	}
	return v.files.ReadAll(e.Pointer, e.FileSize())
}

// WriteFileBytes writes data as the content of the file at path,
// creating it if necessary and replacing it (freeing the old chain)
// if it already exists.
func (v *Volume) WriteFileBytes(path string, data []byte) error {
	anchor, leaf, err := v.resolveParentAndLeaf(path)
	if err != nil {
		return err
	}
	if leaf == "" {
		return NewInvalidPathError(path, "cannot write to the root directory")
	}
	if len(leaf) > int(v.geom.MaxNameLength) {
		return NewNameTooLongError(leaf, int(v.geom.MaxNameLength))
	}

	existingEntry, found, err := v.lookupChild(anchor, leaf)
	if err != nil {
		return err
	}
	if found && existingEntry.IsDir {
		return NewNotAFileError(path)
	}

	var existing *nodetable.Entry
	if found {
		existing = &existingEntry
	}

	entry, err := v.files.WriteAll(existing, leaf, data, time.Now())
	if err != nil {
		if errors.Is(err, nodetable.ErrNoFreeID) {
			v.log.WithField("path", path).Warn("write file: node table exhausted")
			return ErrOutOfNodes
		}
		v.log.WithField("path", path).Warn("write file: block region exhausted")
		return ErrOutOfSpace
	}

	if found && entry.ID != existingEntry.ID {
		// The replacement landed in a different node slot than the old
		// entry; move the parent's reference over to it.
		if err := v.dirs.Remove(anchor, int64(existingEntry.ID)); err != nil {
			return err
		}
	}
	if !found || entry.ID != existingEntry.ID {
		if err := v.dirs.Insert(anchor, int64(entry.ID)); err != nil {
			_ = v.files.Delete(entry)
			v.log.WithField("path", path).Warn("write file: parent directory is full")
			return NewDirectoryFullError(path)
		}
	}

	v.log.WithFields(logrus.Fields{"path": path, "size": len(data)}).Debug("wrote file")
	return nil
}

// DeleteFile removes the file at path, reclaiming its node entry and
// block chain.
func (v *Volume) DeleteFile(path string) error {
	e, anchor, err := v.resolveFile(path)
	if err != nil {
		return err
	}
	if err := v.files.Delete(e); err != nil {
		return err
	}
	if err := v.dirs.Remove(anchor, int64(e.ID)); err != nil {
		return err
	}
	v.log.WithField("path", path).Debug("deleted file")
	return nil
}
