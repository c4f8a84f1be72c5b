package pager

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPager(t *testing.T, slots int) *Pager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.dat")
	p, err := Create(path, slots)
	require.NoError(t, err)
	return p
}

func TestPager_AppendAndReadPage(t *testing.T) {
	p := newTestPager(t, 4)
	defer p.Close()

	page := NewPage(Leaf, p.Slots())
	page.Data = append(page.Data, Entry{Key: NewKey("alpha"), Payload: 1})
	page.Data = append(page.Data, Entry{Key: NewKey("bravo"), Payload: 2})

	id, err := p.AppendPage(page)
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	got, err := p.ReadPage(id)
	require.NoError(t, err)
	require.Equal(t, Leaf, got.Type)
	require.Len(t, got.Data, 2)
	require.Equal(t, "alpha", got.Data[0].Key.String())
	require.EqualValues(t, 2, got.Data[1].Payload)
}

func TestPager_UpdatePage(t *testing.T) {
	p := newTestPager(t, 4)
	defer p.Close()

	page := NewPage(Leaf, p.Slots())
	id, err := p.AppendPage(page)
	require.NoError(t, err)

	page.Data = append(page.Data, Entry{Key: NewKey("only"), Payload: 99})
	require.NoError(t, p.UpdatePage(id, page))

	got, err := p.ReadPage(id)
	require.NoError(t, err)
	require.Len(t, got.Data, 1)
	require.EqualValues(t, 99, got.Data[0].Payload)
}

func TestPager_ReadNoSuchPage(t *testing.T) {
	p := newTestPager(t, 4)
	defer p.Close()

	_, err := p.ReadPage(42)
	require.ErrorIs(t, err, ErrNoSuchPage)
}

func TestPager_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restart.dat")

	p, err := Create(path, 6)
	require.NoError(t, err)

	page := NewPage(Leaf, p.Slots())
	page.Data = append(page.Data, Entry{Key: NewKey("durable"), Payload: 7})
	id, err := p.AppendPage(page)
	require.NoError(t, err)
	p.SetRoot(id)
	require.NoError(t, p.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, 6, reopened.Slots())
	require.Equal(t, id, reopened.Root())

	got, err := reopened.ReadPage(id)
	require.NoError(t, err)
	require.Len(t, got.Data, 1)
	require.Equal(t, "durable", got.Data[0].Key.String())
}

func TestPage_LowerBoundFallsBackToLastIndex(t *testing.T) {
	page := NewPage(Leaf, 4)
	page.Data = append(page.Data,
		Entry{Key: NewKey("b"), Payload: 1},
		Entry{Key: NewKey("d"), Payload: 1},
		Entry{Key: NewKey("f"), Payload: 1},
	)

	probe := Probe(NewKey("z"))
	require.Equal(t, 2, page.LowerBound(probe))
}

func TestPage_BackOnEmptyLeafIsZeroValue(t *testing.T) {
	page := NewPage(Leaf, 4)
	require.Equal(t, Entry{}, page.Back())
}

func TestInvalidSlots(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "bad.dat"), 5)
	require.ErrorIs(t, err, ErrInvalidSlots)
}
