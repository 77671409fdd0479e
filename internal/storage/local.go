package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore is a [Store] rooted at a directory on disk.
//
// Keys are slash-separated paths relative to the root. Writes go through a
// temporary file and a rename so readers never observe partial objects.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed and returns a [LocalStore] for it.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("local store: root is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, NewError("init", root, err)
	}
	return &LocalStore{root: root}, nil
}

// Root returns the directory backing the store.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(key, "/")))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// List returns every file key under prefix in lexical order.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	dir := s.root
	if p := strings.Trim(prefix, "/"); p != "" {
		var err error
		if dir, err = s.path(p); err != nil {
			return nil, NewError("list", prefix, err)
		}
	}

	var keys []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, NewError("list", prefix, err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Read returns the contents of key.
func (s *LocalStore) Read(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, NewError("read", key, err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, NewError("read", key, mapFSError(err))
	}
	return data, nil
}

// Write atomically replaces key with payload.
func (s *LocalStore) Write(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return NewError("write", key, err)
	}

	p, err := s.path(key)
	if err != nil {
		return NewError("write", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return NewError("write", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return NewError("write", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return NewError("write", key, err)
	}
	if err := tmp.Close(); err != nil {
		return NewError("write", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return NewError("write", key, err)
	}
	return nil
}

// Copy duplicates src at dst.
func (s *LocalStore) Copy(ctx context.Context, src, dst string) error {
	data, err := s.Read(ctx, src)
	if err != nil {
		return NewError("copy", src, err)
	}
	if err := s.Write(ctx, dst, data); err != nil {
		return NewError("copy", src, err)
	}
	return nil
}

// Delete removes key.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return NewError("delete", key, err)
	}
	if err := os.Remove(p); err != nil {
		return NewError("delete", key, mapFSError(err))
	}
	return nil
}

func mapFSError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
