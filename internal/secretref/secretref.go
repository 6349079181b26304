// Package secretref defines the wire format of secret references and the
// derivation of secure-store keys from them.
//
// A reference is an opaque placeholder that lives inside plaintext,
// potentially-synced settings in place of a credential value:
//
//	$UCPSECRET:2b1e8f0a-4c6d-4f2e-9a3b-7c5d1e0f8a2b$
//
// The interior is a canonical 36-character grouped-hex UUID, matched
// case-insensitively and always emitted lowercase. Any string with the exact
// prefix, suffix, and UUID shape is recognized as a reference whether or not
// a secret is stored under it; anything else is an ordinary literal value.
//
// The actual secret lives in the secure store under a key derived from the
// secret kind and the UUID:
//
//	unichat.secret.<kind>.<uuid>
//
// All keys owned by this system share the unichat.secret. prefix so they can
// be told apart from whatever else the store holds.
package secretref

import (
	"strings"

	"github.com/google/uuid"
)

const (
	refPrefix = "$UCPSECRET:"
	refSuffix = "$"

	// uuidLen is the canonical 8-4-4-4-12 grouped-hex length. uuid.Parse
	// also accepts urn: and ungrouped forms, which are not valid here.
	uuidLen = 36

	ownedKeyPrefix = "unichat.secret."
)

// Kind identifies which class of secret a storage key holds. The three kind
// segments are disjoint, so a key maps to at most one kind.
type Kind string

const (
	KindAPIKey             Kind = "api-key"
	KindOAuth2Token        Kind = "oauth2-token"
	KindOAuth2ClientSecret Kind = "oauth2-client-secret"
)

// Kinds lists every secret kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindAPIKey, KindOAuth2Token, KindOAuth2ClientSecret}
}

func (k Kind) keyPrefix() string {
	return ownedKeyPrefix + string(k) + "."
}

// New returns a fresh reference backed by a random UUID. UUIDs are never
// reused; replacing a secret always mints a new reference.
func New() string {
	return refPrefix + uuid.NewString() + refSuffix
}

// IsReference reports whether s has the exact reference shape. It never
// panics, whatever the input.
func IsReference(s string) bool {
	_, ok := ExtractUUID(s)
	return ok
}

// ExtractUUID returns the interior UUID of a reference, normalized to
// lowercase. ok is false when s is not a reference.
func ExtractUUID(s string) (id string, ok bool) {
	if len(s) != len(refPrefix)+uuidLen+len(refSuffix) {
		return "", false
	}
	if !strings.HasPrefix(s, refPrefix) || !strings.HasSuffix(s, refSuffix) {
		return "", false
	}
	inner := s[len(refPrefix) : len(s)-len(refSuffix)]
	if _, err := uuid.Parse(inner); err != nil {
		return "", false
	}
	return strings.ToLower(inner), true
}

// FromUUID rebuilds the reference form of a UUID. It does not validate its
// input: callers only pass UUIDs previously extracted from well-formed
// references or storage keys.
func FromUUID(id string) string {
	return refPrefix + id + refSuffix
}

// StorageKey derives the secure-store key for a secret of the given kind.
// ok is false when ref is not a valid reference.
func StorageKey(kind Kind, ref string) (key string, ok bool) {
	id, ok := ExtractUUID(ref)
	if !ok {
		return "", false
	}
	return kind.keyPrefix() + id, true
}

// UUIDFromStorageKey recovers the UUID and kind from a storage key. ok is
// false when the key carries none of the kind prefixes.
func UUIDFromStorageKey(key string) (id string, kind Kind, ok bool) {
	for _, k := range Kinds() {
		if rest, found := strings.CutPrefix(key, k.keyPrefix()); found {
			return rest, k, true
		}
	}
	return "", "", false
}

// IsOwnedKey reports whether key belongs to this system's slice of the
// secure store, as opposed to a foreign subsystem sharing the same backend.
func IsOwnedKey(key string) bool {
	return strings.HasPrefix(key, ownedKeyPrefix)
}

// KindOf classifies an owned storage key into exactly one kind. ok is false
// for foreign keys and for owned keys with an unrecognized structure.
func KindOf(key string) (Kind, bool) {
	_, kind, ok := UUIDFromStorageKey(key)
	return kind, ok
}
