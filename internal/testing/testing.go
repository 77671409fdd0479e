// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/spotify-etl/internal/storage"
)

// MemoryStore is an in-memory [storage.Store] that records every call.
//
// Failures are injected per operation and key with [MemoryStore.FailOn].
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    map[string]error
	calls   []string
}

var _ storage.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}, fail: map[string]error{}}
}

// FailOn makes op ("list", "read", "write", "copy", "delete") fail for key.
// For list the key is the prefix; for copy it is the source key.
func (m *MemoryStore) FailOn(op, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		err = errors.New("injected failure")
	}
	m.fail[op+" "+key] = err
}

// Put stores payload under key without recording a call.
func (m *MemoryStore) Put(key string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), payload...)
}

// Get returns the payload under key.
func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// Keys returns every stored key in lexical order.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns the recorded "op key" entries in call order.
func (m *MemoryStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MemoryStore) record(op, key string) error {
	m.calls = append(m.calls, op+" "+key)
	if err, ok := m.fail[op+" "+key]; ok {
		return storage.NewError(op, key, err)
	}
	return nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("list", prefix); err != nil {
		return nil, err
	}

	dir := strings.Trim(prefix, "/") + "/"
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, dir) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Read(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("read", key); err != nil {
		return nil, err
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.NewError("read", key, storage.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Write(ctx context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("write", key); err != nil {
		return err
	}
	m.objects[key] = append([]byte(nil), payload...)
	return nil
}

func (m *MemoryStore) Copy(ctx context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("copy", src); err != nil {
		return err
	}
	data, ok := m.objects[src]
	if !ok {
		return storage.NewError("copy", src, storage.ErrNotFound)
	}
	m.objects[dst] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("delete", key); err != nil {
		return err
	}
	if _, ok := m.objects[key]; !ok {
		return storage.NewError("delete", key, storage.ErrNotFound)
	}
	delete(m.objects, key)
	return nil
}

// MustJSON marshals v or fails the test.
func MustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %T: %v", v, err)
	}
	return data
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// Lines splits payload into non-empty lines.
func Lines(payload []byte) []string {
	var out []string
	for _, l := range strings.Split(string(payload), "\n") {
		if l = strings.TrimRight(l, "\r"); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Key formats a raw document key under prefix.
func Key(prefix string, n int) string {
	return fmt.Sprintf("%s/spotify_raw_%03d.json", strings.Trim(prefix, "/"), n)
}
