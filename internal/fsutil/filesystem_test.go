package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_RoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	var fsys FileSystem = OSFileSystem{}

	sub := filepath.Join(dir, "out", "intent")
	require.NoError(t, fsys.MkdirAll(sub, 0o755))
	assert.True(t, fsys.Exists(sub))

	path := filepath.Join(sub, "intent_stat.json")
	require.NoError(t, fsys.WriteFile(path, []byte(`{"a":1}`), 0o644))
	got, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	w, err := fsys.Create(filepath.Join(sub, "rows.tsv"))
	require.NoError(t, err)
	_, err = w.Write([]byte("a\tb\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.True(t, fsys.Exists(filepath.Join(sub, "rows.tsv")))
	assert.False(t, fsys.Exists(filepath.Join(sub, "missing.tsv")))
}

func TestMemoryFileSystem(t *testing.T) {
	t.Parallel()
	m := NewMemoryFileSystem()

	_, err := m.ReadFile("nope.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, m.MkdirAll("out/a", 0o755))
	assert.True(t, m.Exists("out"))
	assert.True(t, m.Exists("out/a"))

	require.NoError(t, m.WriteFile("out/a/x.json", []byte("x"), 0o644))
	w, err := m.Create("./out/a/y.tsv")
	require.NoError(t, err)
	_, _ = w.Write([]byte("partial"))
	assert.False(t, m.Exists("out/a/y.tsv"), "file should appear only after Close")
	require.NoError(t, w.Close())

	assert.Equal(t, []string{"out/a/x.json", "out/a/y.tsv"}, m.Files())

	data, err := m.ReadFile("out/a/y.tsv")
	require.NoError(t, err)
	data[0] = 'P'
	again, _ := m.ReadFile("out/a/y.tsv")
	assert.Equal(t, "partial", string(again), "ReadFile must return a copy")
}
