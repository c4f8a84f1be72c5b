package bptree

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, slots int) *Tree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.dat")
	tree, err := Open(path, slots)
	require.NoError(t, err)
	return tree
}

func TestTree_InsertAndFindOne(t *testing.T) {
	tree := newTestTree(t, DefaultSlots)
	defer tree.Close()

	require.NoError(t, tree.Insert("alpha", 1))
	require.NoError(t, tree.Insert("bravo", 2))

	v, ok, err := tree.FindOne("alpha")
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 1, v)

	_, ok, err = tree.FindOne("charlie")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTree_DuplicateKeysDistinguishedByPayload(t *testing.T) {
	tree := newTestTree(t, DefaultSlots)
	defer tree.Close()

	require.NoError(t, tree.Insert("dup", 3))
	require.NoError(t, tree.Insert("dup", 1))
	require.NoError(t, tree.Insert("dup", 2))

	vals, err := tree.FindAll("dup")
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3}, vals)

	require.NoError(t, tree.Erase("dup", 2))
	vals, err = tree.FindAll("dup")
	require.NoError(t, err)
	require.Equal(t, []int32{1, 3}, vals)
}

func TestTree_EraseNotFound(t *testing.T) {
	tree := newTestTree(t, DefaultSlots)
	defer tree.Close()

	require.NoError(t, tree.Insert("k", 1))
	err := tree.Erase("k", 2)
	require.ErrorIs(t, err, ErrNotFound)
	err = tree.Erase("missing", 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTree_KeyTooLong(t *testing.T) {
	tree := newTestTree(t, DefaultSlots)
	defer tree.Close()

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'x'
	}
	err := tree.Insert(string(long), 1)
	require.ErrorIs(t, err, ErrKeyTooLong)
}

// TestTree_SplitAndMergeUnderSmallFanout forces repeated leaf/internal
// splits and merges by using a tiny SLOTS value, exercising borrow/merge
// rebalancing that a SLOTS=40 default run would rarely hit.
func TestTree_SplitAndMergeUnderSmallFanout(t *testing.T) {
	tree := newTestTree(t, 4)
	defer tree.Close()

	const n = 200
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%04d", i)
		require.NoError(t, tree.Insert(key, int32(i)), "insert %d", i)
	}
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%04d", i)
		vals, err := tree.FindAll(key)
		require.NoError(t, err)
		require.Equal(t, []int32{int32(i)}, vals, "lookup %d", i)
	}

	// Delete every other entry, forcing borrow/merge across the tree.
	for i := 0; i < n; i += 2 {
		key := fmt.Sprintf("k%04d", i)
		require.NoError(t, tree.Erase(key, int32(i)), "erase %d", i)
	}
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%04d", i)
		vals, err := tree.FindAll(key)
		require.NoError(t, err)
		if i%2 == 0 {
			require.Empty(t, vals, "expected %d deleted", i)
		} else {
			require.Equal(t, []int32{int32(i)}, vals, "expected %d present", i)
		}
	}
}

func TestTree_FindsEveryKeyAfterUnorderedInserts(t *testing.T) {
	tree := newTestTree(t, 4)
	defer tree.Close()

	keys := []string{"m", "a", "z", "c", "q", "b", "y", "d"}
	for i, k := range keys {
		require.NoError(t, tree.Insert(k, int32(i)))
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for _, k := range sorted {
		vals, err := tree.FindAll(k)
		require.NoError(t, err)
		require.Len(t, vals, 1)
	}
}

func TestTree_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restart.dat")

	tree, err := Open(path, 8)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	const n = 1000
	inserted := make(map[string][]int32)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%d", rng.Intn(200))
		val := int32(i)
		require.NoError(t, tree.Insert(key, val))
		inserted[key] = append(inserted[key], val)
	}
	require.NoError(t, tree.Close())

	reopened, err := Open(path, 8)
	require.NoError(t, err)
	defer reopened.Close()

	for key, wantVals := range inserted {
		gotVals, err := reopened.FindAll(key)
		require.NoError(t, err)
		want := append([]int32(nil), wantVals...)
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
		require.Equal(t, want, gotVals, "key %q", key)
	}
}

func TestTree_ClosedReturnsErrClosed(t *testing.T) {
	tree := newTestTree(t, DefaultSlots)
	require.NoError(t, tree.Close())

	err := tree.Insert("x", 1)
	require.ErrorIs(t, err, ErrClosed)

	_, err = tree.FindAll("x")
	require.ErrorIs(t, err, ErrClosed)

	err = tree.Erase("x", 1)
	require.ErrorIs(t, err, ErrClosed)
}
