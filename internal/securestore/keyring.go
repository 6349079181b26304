package securestore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the service name keyring entries are filed under
// unless the caller overrides it.
const DefaultKeyringService = "unichat-secrets"

// indexAccount is the reserved account holding the key index. The Secret
// Service / Keychain APIs have no enumeration primitive, so Keys is backed
// by a JSON list of every key this store has written.
const indexAccount = "__unichat_index__"

// Keyring is a Store backed by the OS keyring (macOS Keychain, Linux Secret
// Service, Windows Credential Manager) via zalando/go-keyring.
type Keyring struct {
	service string

	// mu serializes index read-modify-write; the keyring itself is safe for
	// concurrent access but the index entry is not.
	mu sync.Mutex
}

// NewKeyring creates a keyring-backed store. An empty service selects
// DefaultKeyringService.
func NewKeyring(service string) *Keyring {
	if service == "" {
		service = DefaultKeyringService
	}
	return &Keyring{service: service}
}

// Get returns the value stored under key, or ErrNotFound.
func (k *Keyring) Get(ctx context.Context, key string) (string, error) {
	value, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key and records the key in the index.
func (k *Keyring) Set(ctx context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Set(k.service, key, value); err != nil {
		return err
	}
	return k.updateIndex(func(index map[string]struct{}) {
		index[key] = struct{}{}
	})
}

// Delete removes the value under key. Absent keys are a no-op, but the
// index entry is dropped either way.
func (k *Keyring) Delete(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Delete(k.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return k.updateIndex(func(index map[string]struct{}) {
		delete(index, key)
	})
}

// Keys lists every key recorded in the index.
func (k *Keyring) Keys(ctx context.Context) ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	index, err := k.readIndex()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (k *Keyring) readIndex() (map[string]struct{}, error) {
	raw, err := keyring.Get(k.service, indexAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return make(map[string]struct{}), nil
		}
		return nil, err
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		// A corrupt index loses enumeration, not values; start over rather
		// than wedging every Keys call.
		return make(map[string]struct{}), nil
	}

	index := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		index[key] = struct{}{}
	}
	return index, nil
}

func (k *Keyring) updateIndex(mutate func(map[string]struct{})) error {
	index, err := k.readIndex()
	if err != nil {
		return err
	}
	mutate(index)

	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	raw, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	return keyring.Set(k.service, indexAccount, string(raw))
}

var _ Store = (*Keyring)(nil)
