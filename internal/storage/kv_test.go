package storage

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewFileStore(fs, "/var/lib/annotator/state.json")
	require.NoError(t, err)

	_, ok := s.Get("underlineOptions")
	assert.False(t, ok)
}

func TestFileStore_Persists(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewFileStore(fs, "/var/lib/annotator/state.json")
	require.NoError(t, err)

	require.NoError(t, s.Set("underlineOptions", `{"style":"dashed"}`))
	require.NoError(t, s.Set("other", "value"))

	exists, err := afero.Exists(fs, "/var/lib/annotator/state.json")
	require.NoError(t, err)
	assert.True(t, exists)

	reopened, err := NewFileStore(fs, "/var/lib/annotator/state.json")
	require.NoError(t, err)
	v, ok := reopened.Get("underlineOptions")
	require.True(t, ok)
	assert.Equal(t, `{"style":"dashed"}`, v)

	require.NoError(t, reopened.Delete("other"))
	require.NoError(t, reopened.Delete("never-set"))

	again, err := NewFileStore(fs, "/var/lib/annotator/state.json")
	require.NoError(t, err)
	_, ok = again.Get("other")
	assert.False(t, ok)
}

func TestFileStore_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/state.json", []byte("{not json"), 0o600))

	_, err := NewFileStore(fs, "/state.json")
	assert.Error(t, err)
}

func TestFileStore_EmptyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/state.json", nil, 0o600))

	s, err := NewFileStore(fs, "/state.json")
	require.NoError(t, err)
	assert.Equal(t, "/state.json", s.Path())
}

func TestFileStore_SetFailureRollsBack(t *testing.T) {
	base := afero.NewMemMapFs()
	s, err := NewFileStore(afero.NewReadOnlyFs(base), "/state.json")
	require.NoError(t, err)

	assert.Error(t, s.Set("key", "value"))
	_, ok := s.Get("key")
	assert.False(t, ok)
}

func TestNewFileStore_InvalidArguments(t *testing.T) {
	_, err := NewFileStore(nil, "/state.json")
	assert.Error(t, err)

	_, err = NewFileStore(afero.NewMemMapFs(), "")
	assert.Error(t, err)
}

func TestNewMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	require.NotNil(t, s)
	require.NoError(t, s.Set("k", "v"))
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
