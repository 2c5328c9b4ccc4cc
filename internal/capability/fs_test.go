package capability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSFTypeAndExists(t *testing.T) {
	fs := NewFS()
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.Equal(t, "directory", fs.FType(dir))
	assert.Equal(t, "file", fs.FType(file))
	assert.Equal(t, "", fs.FType(filepath.Join(dir, "missing")))
	assert.True(t, fs.Exists(file))
	assert.False(t, fs.Exists(filepath.Join(dir, "missing")))
}

func TestFSCopyAndMove(t *testing.T) {
	fs := NewFS()
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "sub", "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	require.NoError(t, fs.Copyfile(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.True(t, fs.Exists(src))

	moved := filepath.Join(dir, "moved.txt")
	require.NoError(t, fs.Mvfile(dst, moved))
	assert.False(t, fs.Exists(dst))
	assert.True(t, fs.Exists(moved))
}

func TestFSReadDir(t *testing.T) {
	fs := NewFS()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b"), nil, 0o644))

	names, err := fs.ReadDir(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}
