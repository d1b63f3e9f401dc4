// Package pathutil resolves "V:\a\b\c"-style paths against a volume's
// directory tree, one segment at a time.
package pathutil

import (
	"fmt"
	"strings"
)

// RootSegment is the mandatory leading segment every path must start
// with.
const RootSegment = "V:"

// Separator is the path component separator.
const Separator = `\`

// Split breaks a path into its segments, validating that it begins with
// the literal "V:" segment and contains no empty segments. The returned
// slice never includes the leading "V:" itself.
//
// "V:\\" and "V:" both split to an empty segment slice (the root).
func Split(path string) ([]string, error) {
	if !strings.HasPrefix(path, RootSegment) {
		return nil, fmt.Errorf("pathutil: path %q does not start with %q", path, RootSegment)
	}
	rest := strings.TrimPrefix(path, RootSegment)
	rest = strings.TrimPrefix(rest, Separator)
	if rest == "" {
		return nil, nil
	}
	segments := strings.Split(rest, Separator)
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("pathutil: path %q contains an empty segment", path)
		}
	}
	return segments, nil
}

// Join reassembles segments into a canonical "V:\a\b\c" path.
func Join(segments ...string) string {
	if len(segments) == 0 {
		return RootSegment + Separator
	}
	return RootSegment + Separator + strings.Join(segments, Separator)
}

// ChildLookup looks up a name within a directory's children, returning
// the matching node id. Callers plug in their own lookup function since
// pathutil has no knowledge of the on-image directory format.
type ChildLookup func(dirAnchor int64, name string) (id int64, isDir bool, found bool, err error)

// Resolver walks paths against a directory tree using a caller-supplied
// ChildLookup and an anchor-of(id) accessor.
type Resolver struct {
	// Lookup finds a named child within a directory.
	Lookup ChildLookup
	// AnchorOf returns the anchor block offset for a directory node id.
	AnchorOf func(id int64) (int64, error)
	// RootAnchor is the anchor block offset of "V:\".
	RootAnchor int64
}

// ErrBadPath is returned when a path traverses through a file (an
// intermediate segment names something that is not a directory). It
// corresponds to the -2 sentinel in the source format.
type ErrBadPath struct {
	Path    string
	Segment string
}

func (e *ErrBadPath) Error() string {
	return fmt.Sprintf("pathutil: %q is not a directory on path %q", e.Segment, e.Path)
}

// GoToLastDirectory resolves path and returns the anchor offset of the
// last directory on it: the parent of the final segment. If the final
// segment itself names a directory, that directory's anchor is returned
// (a path whose leaf is a directory resolves to that directory, not its
// parent). A name miss on the final segment is not an error — only a
// miss (or a file) on an intermediate segment is.
func (r *Resolver) GoToLastDirectory(path string) (int64, error) {
	segments, err := Split(path)
	if err != nil {
		return 0, err
	}

	anchor := r.RootAnchor
	for i, seg := range segments {
		id, isDir, found, err := r.Lookup(anchor, seg)
		if err != nil {
			return 0, err
		}
		last := i == len(segments)-1
		if !found {
			if last {
				// Leaf need not exist; caller resolves it against anchor.
				return anchor, nil
			}
			return 0, &ErrBadPath{Path: path, Segment: seg}
		}
		if !isDir {
			if last {
				// Leaf exists and is a file: its parent is anchor.
				return anchor, nil
			}
			return 0, &ErrBadPath{Path: path, Segment: seg}
		}
		next, err := r.AnchorOf(id)
		if err != nil {
			return 0, err
		}
		anchor = next
	}
	return anchor, nil
}

// Leaf returns the final segment of a path, or "" for the root itself.
func Leaf(path string) (string, error) {
	segments, err := Split(path)
	if err != nil {
		return "", err
	}
	if len(segments) == 0 {
		return "", nil
	}
	return segments[len(segments)-1], nil
}
