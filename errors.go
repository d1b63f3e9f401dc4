package vdisk

import "fmt"

// Sentinel errors a caller can compare against with errors.Is. Each
// concrete error type below implements Is so that wrapping/formatting
// doesn't break the comparison. The named-struct style follows
// disk.UnknownFilesystemError and its siblings in the teacher package;
// the Is hook is an addition those types do not have.
var (
	ErrInvalidPath   = &InvalidPathError{}
	ErrNotFound      = &NotFoundError{}
	ErrNotAFile      = &NotAFileError{}
	ErrNotADirectory = &NotADirectoryError{}
	ErrOutOfNodes    = &OutOfNodesError{}
	ErrOutOfSpace    = &OutOfSpaceError{}
	ErrDirectoryFull = &DirectoryFullError{}
	ErrNameTooLong   = &NameTooLongError{}
	ErrCorruptImage  = &CorruptImageError{}
)

// InvalidPathError is raised when a path does not begin with "V:" or
// traverses through a file where a directory was expected.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	if e.Path == "" {
		return "invalid path"
	}
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

func (e *InvalidPathError) Is(target error) bool {
	_, ok := target.(*InvalidPathError)
	return ok
}

func NewInvalidPathError(path, reason string) *InvalidPathError {
	return &InvalidPathError{Path: path, Reason: reason}
}

// NotFoundError is raised when a target file is missing on read, delete
// or stat.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Path == "" {
		return "not found"
	}
	return fmt.Sprintf("not found: %q", e.Path)
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

func NewNotFoundError(path string) *NotFoundError {
	return &NotFoundError{Path: path}
}

// NotAFileError is raised when a path resolves to a directory where a
// file was expected.
type NotAFileError struct {
	Path string
}

func (e *NotAFileError) Error() string {
	return fmt.Sprintf("not a file: %q", e.Path)
}

func (e *NotAFileError) Is(target error) bool {
	_, ok := target.(*NotAFileError)
	return ok
}

func NewNotAFileError(path string) *NotAFileError {
	return &NotAFileError{Path: path}
}

// NotADirectoryError is raised when a path resolves to a file where a
// directory was expected.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("not a directory: %q", e.Path)
}

func (e *NotADirectoryError) Is(target error) bool {
	_, ok := target.(*NotADirectoryError)
	return ok
}

func NewNotADirectoryError(path string) *NotADirectoryError {
	return &NotADirectoryError{Path: path}
}

// OutOfNodesError is raised when the node table has no free entry.
type OutOfNodesError struct{}

func (e *OutOfNodesError) Error() string { return "node table exhausted: no free node entry" }

func (e *OutOfNodesError) Is(target error) bool {
	_, ok := target.(*OutOfNodesError)
	return ok
}

// OutOfSpaceError is raised when the block region has no free block.
type OutOfSpaceError struct{}

func (e *OutOfSpaceError) Error() string { return "block region exhausted: no free block" }

func (e *OutOfSpaceError) Is(target error) bool {
	_, ok := target.(*OutOfSpaceError)
	return ok
}

// DirectoryFullError is raised when a directory's anchor block has no
// free slot for a new child.
type DirectoryFullError struct {
	Path string
}

func (e *DirectoryFullError) Error() string {
	return fmt.Sprintf("directory full: %q", e.Path)
}

func (e *DirectoryFullError) Is(target error) bool {
	_, ok := target.(*DirectoryFullError)
	return ok
}

func NewDirectoryFullError(path string) *DirectoryFullError {
	return &DirectoryFullError{Path: path}
}

// NameTooLongError is raised when a name exceeds max_name_length bytes.
type NameTooLongError struct {
	Name string
	Max  int
}

func (e *NameTooLongError) Error() string {
	return fmt.Sprintf("name %q exceeds maximum length of %d bytes", e.Name, e.Max)
}

func (e *NameTooLongError) Is(target error) bool {
	_, ok := target.(*NameTooLongError)
	return ok
}

func NewNameTooLongError(name string, max int) *NameTooLongError {
	return &NameTooLongError{Name: name, Max: max}
}

// CorruptImageError is raised when the header fails to parse or the
// derived geometry is impossible.
type CorruptImageError struct {
	Reason string
}

func (e *CorruptImageError) Error() string {
	return fmt.Sprintf("corrupt image: %s", e.Reason)
}

func (e *CorruptImageError) Is(target error) bool {
	_, ok := target.(*CorruptImageError)
	return ok
}

func NewCorruptImageError(reason string) *CorruptImageError {
	return &CorruptImageError{Reason: reason}
}
