package securestore

import (
	"context"
	"sort"
	"sync"

	"github.com/awnumar/memguard"
)

// Memory is an in-process Store. Values are kept in memguard enclaves so
// plaintext secrets are encrypted at rest in memory and protected from
// swapping, the same treatment the OS keyring gives them. It doubles as the
// test fake for every component that takes a Store.
type Memory struct {
	mu    sync.RWMutex
	items map[string]*memguard.Enclave
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]*memguard.Enclave),
	}
}

// Get returns the value stored under key, or ErrNotFound.
func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	enclave, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}

	// Open decrypts into a locked buffer; destroy it as soon as the value
	// has been copied out.
	buf, err := enclave.Open()
	if err != nil {
		return "", err
	}
	defer buf.Destroy()
	return string(buf.Bytes()), nil
}

// Set stores value under key, overwriting any previous value.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	// NewEnclave wipes its input, so hand it a private copy.
	enclave := memguard.NewEnclave([]byte(value))

	m.mu.Lock()
	m.items[key] = enclave
	m.mu.Unlock()
	return nil
}

// Delete removes the value under key. Absent keys are a no-op.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Keys lists every stored key in a stable order.
func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.items))
	for key := range m.items {
		keys = append(keys, key)
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys, nil
}

var _ Store = (*Memory)(nil)
