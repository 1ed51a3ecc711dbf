package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.Get("h5data")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put("h5data", []byte(`{"score":3}`)))
	got, err := s.Get("h5data")
	require.NoError(t, err)
	assert.Equal(t, `{"score":3}`, string(got))

	require.NoError(t, s.Put("h5data", []byte(`{"score":4}`)))
	got, err = s.Get("h5data")
	require.NoError(t, err)
	assert.Equal(t, `{"score":4}`, string(got))

	require.NoError(t, s.Delete("h5data"))
	_, err = s.Get("h5data")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorePersists(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}
