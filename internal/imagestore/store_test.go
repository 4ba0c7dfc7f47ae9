package imagestore

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "static")
	s, err := New(dir, 1<<20)
	require.NoError(t, err)

	url, err := s.Save(pngBytes(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, URLPrefix))
	assert.True(t, strings.HasSuffix(url, ".png"))

	path := filepath.Join(dir, strings.TrimPrefix(url, URLPrefix))
	_, err = os.Stat(path)
	require.NoError(t, err)

	other, err := s.Save(pngBytes(t))
	require.NoError(t, err)
	assert.NotEqual(t, url, other)

	require.NoError(t, s.Remove(url))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// removing twice is fine
	assert.NoError(t, s.Remove(url))
}

func TestCheckRejects(t *testing.T) {
	s, err := New(t.TempDir(), 64)
	require.NoError(t, err)

	_, err = s.Check(nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = s.Check(bytes.Repeat([]byte{1}, 65))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = s.Check([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRemoveIgnoresForeignPaths(t *testing.T) {
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "static"), 0)
	require.NoError(t, err)

	outside := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	for _, u := range []string{"", "/static/", "/static/../keep.txt", "https://img.test/a.jpg", "/other/keep.txt"} {
		assert.NoError(t, s.Remove(u), u)
	}
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
