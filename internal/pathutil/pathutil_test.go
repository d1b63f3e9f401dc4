package pathutil_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vdiskfs/vdisk/internal/pathutil"
)

func TestSplitRoot(t *testing.T) {
	segs, err := pathutil.Split(`V:\`)
	require.NoError(t, err)
	require.Empty(t, segs)

	segs, err = pathutil.Split(`V:`)
	require.NoError(t, err)
	require.Empty(t, segs)
}

func TestSplitNested(t *testing.T) {
	segs, err := pathutil.Split(`V:\a\b\c`)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, segs)
}

func TestSplitRejectsMissingPrefix(t *testing.T) {
	_, err := pathutil.Split(`a\b`)
	require.Error(t, err)
}

func TestSplitRejectsEmptySegment(t *testing.T) {
	_, err := pathutil.Split(`V:\a\\b`)
	require.Error(t, err)
}

func TestJoin(t *testing.T) {
	require.Equal(t, `V:\a\b`, pathutil.Join("a", "b"))
	require.Equal(t, `V:\`, pathutil.Join())
}

func TestLeaf(t *testing.T) {
	leaf, err := pathutil.Leaf(`V:\a\b`)
	require.NoError(t, err)
	require.Equal(t, "b", leaf)

	leaf, err = pathutil.Leaf(`V:\`)
	require.NoError(t, err)
	require.Equal(t, "", leaf)
}

func TestGoToLastDirectoryLeafNeedNotExist(t *testing.T) {
	r := &pathutil.Resolver{
		RootAnchor: 100,
		Lookup: func(dirAnchor int64, name string) (int64, bool, bool, error) {
			return 0, false, false, nil
		},
		AnchorOf: func(id int64) (int64, error) { return id * 10, nil },
	}
	anchor, err := r.GoToLastDirectory(`V:\missing.txt`)
	require.NoError(t, err)
	require.Equal(t, int64(100), anchor)
}

func TestGoToLastDirectoryWalksDirectories(t *testing.T) {
	r := &pathutil.Resolver{
		RootAnchor: 100,
		Lookup: func(dirAnchor int64, name string) (int64, bool, bool, error) {
			if dirAnchor == 100 && name == "a" {
				return 1, true, true, nil
			}
			if dirAnchor == 200 && name == "file.txt" {
				return 2, false, true, nil
			}
			return 0, false, false, nil
		},
		AnchorOf: func(id int64) (int64, error) { return 200, nil },
	}
	anchor, err := r.GoToLastDirectory(`V:\a\file.txt`)
	require.NoError(t, err)
	require.Equal(t, int64(200), anchor)
}

func TestGoToLastDirectoryRejectsTraversalThroughFile(t *testing.T) {
	r := &pathutil.Resolver{
		RootAnchor: 100,
		Lookup: func(dirAnchor int64, name string) (int64, bool, bool, error) {
			if name == "a" {
				return 1, false, true, nil // a file, not a directory
			}
			return 0, false, false, nil
		},
		AnchorOf: func(id int64) (int64, error) { return 0, nil },
	}
	_, err := r.GoToLastDirectory(`V:\a\b`)
	require.Error(t, err)
	var bad *pathutil.ErrBadPath
	require.ErrorAs(t, err, &bad)
}
