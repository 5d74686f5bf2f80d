// Package storage keeps uploaded images on the local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"clinic-pos/internal/apperror"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path the upload directory is served under.
const PublicPrefix = "/uploads"

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// LocalStore writes files below a root directory and hands out public
// paths like /uploads/products/<uuid>.png.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Root is the directory served under PublicPrefix.
func (s *LocalStore) Root() string {
	return s.root
}

// Save copies r into dir under a fresh name that keeps the extension of
// suggestedName, and returns its public path.
func (s *LocalStore) Save(dir, suggestedName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(suggestedName))
	if !allowedExt[ext] {
		return "", apperror.Validation("unsupported image type %q", ext)
	}
	dir = filepath.Clean("/" + dir)[1:]

	target := filepath.Join(s.root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(target, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path.Join(PublicPrefix, filepath.ToSlash(dir), name), nil
}

// Delete removes a file previously returned by Save. Deleting a file that
// is already gone is not an error.
func (s *LocalStore) Delete(publicPath string) error {
	p, err := s.resolve(publicPath)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) Exists(publicPath string) bool {
	p, err := s.resolve(publicPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// resolve maps a public path back onto disk, refusing anything outside root.
func (s *LocalStore) resolve(publicPath string) (string, error) {
	clean := path.Clean("/" + publicPath)
	rel, ok := strings.CutPrefix(clean, PublicPrefix+"/")
	if !ok || rel == "" {
		return "", fmt.Errorf("path %q is not an upload", publicPath)
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}
