package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPick_FromFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.PNG"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	s := NewSource(dir)
	for i := 0; i < 20; i++ {
		got := s.Pick()
		assert.Contains(t, []string{
			filepath.Join(dir, "a.jpg"),
			filepath.Join(dir, "b.PNG"),
		}, got)
	}
}

func TestPick_MissingFolder(t *testing.T) {
	s := NewSource(filepath.Join(t.TempDir(), "nope"))
	assert.Equal(t, FallbackURL, s.Pick())
}

func TestPick_NoImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644))

	s := NewSource(dir)
	assert.Equal(t, FallbackURL, s.Pick())
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/pic.jpg"))
	assert.True(t, IsURL("http://example.com/pic.jpg"))
	assert.False(t, IsURL("images/pic.jpg"))
	assert.False(t, IsURL("/abs/pic.jpg"))
}
