// Package storage implements the file store backing photo uploads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrNotFound is returned by Open for a key with no file.
var ErrNotFound = errors.New("storage: object not found")

// ErrInvalidKey is returned for keys that would escape the store root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Store holds photo bytes by key.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete of a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

type fsStore struct {
	fs   afero.Fs
	root string
}

// NewStore returns a Store writing under root on fsys.
func NewStore(fsys afero.Fs, root string) Store {
	return &fsStore{fs: fsys, root: root}
}

// NewLocalStore returns a Store on the host filesystem.
func NewLocalStore(root string) (Store, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return NewStore(osFs, root), nil
}

// NewKey returns a fresh key under prefix with the given extension.
func NewKey(prefix, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return path.Join(prefix, uuid.NewString()+"."+ext)
}

func (s *fsStore) resolve(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *fsStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, p, data, 0o600)
}

func (s *fsStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *fsStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
