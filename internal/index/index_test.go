package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pk.json")
	idx, err := Create(path)
	require.NoError(t, err)
	return idx, path
}

func TestCreateWritesEmptyFile(t *testing.T) {
	idx, path := newTestIndex(t)
	require.Equal(t, 0, idx.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, "{}", string(data))
}

func TestInsertLookupRemove(t *testing.T) {
	idx, path := newTestIndex(t)

	require.NoError(t, idx.Insert("1", 0))
	require.NoError(t, idx.Insert("2", 1))
	require.True(t, idx.Has("1"))
	require.Equal(t, 2, idx.Len())

	id, err := idx.Lookup("2")
	require.NoError(t, err)
	require.Equal(t, 1, id)

	_, err = idx.Lookup("9")
	require.ErrorIs(t, err, ErrKeyNotFound)

	err = idx.Insert("1", 5)
	require.ErrorIs(t, err, ErrDuplicateKey)

	require.NoError(t, idx.Remove("1"))
	require.False(t, idx.Has("1"))
	err = idx.Remove("1")
	require.ErrorIs(t, err, ErrKeyNotFound)

	// mutations persist
	back, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, back.Len())
	id, err = back.Lookup("2")
	require.NoError(t, err)
	require.Equal(t, 1, id)
}

func TestRekey(t *testing.T) {
	idx, path := newTestIndex(t)
	require.NoError(t, idx.Insert("1", 3))
	require.NoError(t, idx.Insert("2", 4))

	require.NoError(t, idx.Rekey("1", "10"))
	require.False(t, idx.Has("1"))
	id, err := idx.Lookup("10")
	require.NoError(t, err)
	require.Equal(t, 3, id)

	err = idx.Rekey("99", "100")
	require.ErrorIs(t, err, ErrKeyNotFound)

	err = idx.Rekey("10", "2")
	require.ErrorIs(t, err, ErrDuplicateKey)

	back, err := Load(path)
	require.NoError(t, err)
	id, err = back.Lookup("10")
	require.NoError(t, err)
	require.Equal(t, 3, id)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pk.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
