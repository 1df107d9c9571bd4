package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")

	files := []GeneratedFile{
		{Filename: "ffi.bridge.rs", Content: []byte("// rust\n")},
		{Filename: "ffi.bridge.h", Content: []byte("// header\n")},
	}

	require.NoError(t, WriteFiles(files, dir))

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.Filename))
		require.NoError(t, err)
		assert.Equal(t, f.Content, data)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "staging files are renamed away")
}

func TestWriteFiles_Overwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ffi.bridge.cc")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, WriteFiles([]GeneratedFile{{Filename: "ffi.bridge.cc", Content: []byte("new")}}, dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestWriteFiles_Failure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := WriteFiles([]GeneratedFile{{Filename: "a.rs"}}, filepath.Join(blocker, "sub"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating output directory")
}

func TestWriteSidecar(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteSidecar(dir, "ffi.bridge.ir.yaml", []byte("source: ffi\n")))
	assert.FileExists(t, filepath.Join(dir, "ffi.bridge.ir.yaml"))

	require.NoError(t, WriteSidecar("", "x", nil))
	require.NoError(t, WriteSidecar(dir, "", nil))
}
