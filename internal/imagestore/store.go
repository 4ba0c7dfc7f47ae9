// Package imagestore keeps uploaded plant photos on local disk and
// hands out the URL paths they are served under.
package imagestore

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// URLPrefix is the path under which stored files are served.
const URLPrefix = "/static/"

var (
	ErrEmpty       = errors.New("image is empty")
	ErrTooLarge    = errors.New("image exceeds the upload limit")
	ErrUnsupported = errors.New("unsupported image format")
)

var extensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// Store writes images into one directory.
type Store struct {
	dir      string
	maxBytes int64
}

// New creates dir if needed.  maxBytes <= 0 disables the size check.
func New(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir is the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// Check validates data and returns its format name.
func (s *Store) Check(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrUnsupported
	}
	if _, ok := extensions[format]; !ok {
		return "", ErrUnsupported
	}
	return format, nil
}

// Save validates and writes data under a random name and returns its
// URL path, e.g. /static/3f0c...jpg.
func (s *Store) Save(data []byte) (string, error) {
	format, err := s.Check(data)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + extensions[format]
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return URLPrefix + name, nil
}

// Remove deletes the file behind a URL returned by Save.  URLs outside
// the store and files already gone are ignored.
func (s *Store) Remove(url string) error {
	name, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
