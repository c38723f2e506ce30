package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   int64
	Name string
}

func newRowStore() *Store[row] {
	return New(func(r row) int64 { return r.ID })
}

func TestReplaceAllAndList(t *testing.T) {
	s := newRowStore()
	s.ReplaceAll([]row{{1, "a"}, {2, "b"}})
	assert.Equal(t, 2, s.Len())

	snapshot := s.List()
	s.ReplaceAll([]row{{3, "c"}})

	// Previously returned snapshots stay untouched.
	require.Len(t, snapshot, 2)
	assert.Equal(t, "a", snapshot[0].Name)
	assert.Equal(t, 1, s.Len())
}

func TestUpsertReplacesInPlace(t *testing.T) {
	s := newRowStore()
	s.ReplaceAll([]row{{1, "a"}, {2, "b"}, {3, "c"}})

	s.Upsert(row{2, "b2"})
	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "b2", list[1].Name)

	s.Upsert(row{4, "d"})
	assert.Equal(t, 4, s.Len())
}

func TestUpdateNeverAppends(t *testing.T) {
	s := newRowStore()
	s.ReplaceAll([]row{{1, "a"}})

	assert.True(t, s.Update(row{1, "a2"}))
	assert.False(t, s.Update(row{9, "ghost"}))
	assert.Equal(t, 1, s.Len())
}

func TestGetAndRemove(t *testing.T) {
	s := newRowStore()
	s.ReplaceAll([]row{{1, "a"}, {2, "b"}})

	got, ok := s.Get(2)
	require.True(t, ok)
	assert.Equal(t, "b", got.Name)

	s.RemoveByID(1)
	_, ok = s.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}
