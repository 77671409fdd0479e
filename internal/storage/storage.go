package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/desertthunder/spotify-etl/internal/shared"
)

// ErrNotFound is matched by errors for keys that do not exist.
var ErrNotFound = errors.New("object not found")

// Lister lists object keys under a prefix in lexical order.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// Reader reads an object's full payload.
type Reader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// Writer stores payload under key, replacing any existing object.
type Writer interface {
	Write(ctx context.Context, key string, payload []byte) error
}

// Copier copies an object. Copying onto an existing key overwrites it.
type Copier interface {
	Copy(ctx context.Context, src, dst string) error
}

// Deleter removes an object.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Store is the complete storage contract.
type Store interface {
	Lister
	Reader
	Writer
	Copier
	Deleter
}

// Error is a storage operation failure with the operation and key that failed.
type Error struct {
	Op  string // list, read, write, copy, delete
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage.%s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage.%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the cause and [shared.ErrStorage] to [errors.Is].
func (e *Error) Unwrap() []error {
	return []error{e.Err, shared.ErrStorage}
}

// NewError creates an [*Error] for op on key.
func NewError(op, key string, err error) *Error {
	return &Error{Op: op, Key: key, Err: err}
}

// Join builds a key from slash-separated parts, ignoring empty parts and stray slashes.
func Join(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, "/")
}

// Base returns the last element of key.
func Base(key string) string {
	return path.Base(key)
}

// HasExtension reports whether key ends in "."+ext (case-insensitive).
func HasExtension(key, ext string) bool {
	return strings.EqualFold(strings.TrimPrefix(path.Ext(key), "."), strings.TrimPrefix(ext, "."))
}

// prefixDir normalizes a listing prefix so it matches whole path segments.
func prefixDir(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
