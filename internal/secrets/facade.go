// Package secrets layers typed secret management on top of the secure-store
// primitive: per-kind CRUD keyed by references, resolution of configured
// API-key values into a status, and the unused-secret garbage collector.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	ucerrors "github.com/smallmain/unichat-secrets/internal/errors"
	"github.com/smallmain/unichat-secrets/internal/logging"
	"github.com/smallmain/unichat-secrets/internal/secretref"
	"github.com/smallmain/unichat-secrets/internal/securestore"
)

// Facade wraps a securestore.Store with the reference scheme. All methods
// are safe for concurrent use if the underlying store is.
type Facade struct {
	store  securestore.Store
	logger *logging.Logger
}

// New creates a facade over store.
func New(store securestore.Store, logger *logging.Logger) *Facade {
	if logger == nil {
		logger = logging.New(false, true)
	}
	return &Facade{store: store, logger: logger}
}

// APIKeyState classifies a configured API-key-like value.
type APIKeyState int

const (
	// APIKeyUnset means the value is empty or absent.
	APIKeyUnset APIKeyState = iota
	// APIKeyPlain means the value is a literal key, not a reference.
	APIKeyPlain
	// APIKeySecret means the value is a reference with a stored secret.
	APIKeySecret
	// APIKeyMissingSecret means the value is a structurally valid reference
	// with nothing stored under it: a dangling reference. Not an error; the
	// user re-enters the key. There is no automatic self-heal.
	APIKeyMissingSecret
)

func (s APIKeyState) String() string {
	switch s {
	case APIKeyUnset:
		return "unset"
	case APIKeyPlain:
		return "plain"
	case APIKeySecret:
		return "secret"
	case APIKeyMissingSecret:
		return "missing-secret"
	default:
		return "unknown"
	}
}

// APIKeyStatus is the resolved state of a configured API-key value. It is
// recomputed on demand and never persisted. Value carries the usable key
// for the plain and secret states.
type APIKeyStatus struct {
	State APIKeyState
	Value string
}

// APIKeyStatusFor resolves a raw configured value into a status. This is
// the canonical resolution path wherever a configured API key is read for
// actual use.
func (f *Facade) APIKeyStatusFor(ctx context.Context, raw string) (APIKeyStatus, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return APIKeyStatus{State: APIKeyUnset}, nil
	}
	if !secretref.IsReference(trimmed) {
		return APIKeyStatus{State: APIKeyPlain, Value: trimmed}, nil
	}

	value, found, err := f.GetAPIKey(ctx, trimmed)
	if err != nil {
		return APIKeyStatus{}, err
	}
	if !found {
		return APIKeyStatus{State: APIKeyMissingSecret}, nil
	}
	return APIKeyStatus{State: APIKeySecret, Value: value}, nil
}

// GetAPIKey reads the API key stored under ref. An invalid reference reads
// as absent: callers routinely probe unvalidated settings values.
func (f *Facade) GetAPIKey(ctx context.Context, ref string) (value string, found bool, err error) {
	return f.getString(ctx, secretref.KindAPIKey, ref)
}

// SetAPIKey stores value under ref. An invalid reference is an explicit
// error on this write path.
func (f *Facade) SetAPIKey(ctx context.Context, ref, value string) error {
	return f.setString(ctx, secretref.KindAPIKey, ref, value, "store api key")
}

// DeleteAPIKey removes the API key stored under ref.
func (f *Facade) DeleteAPIKey(ctx context.Context, ref string) error {
	return f.deleteKey(ctx, secretref.KindAPIKey, ref, "delete api key")
}

// GetOAuth2ClientSecret reads the OAuth2 client secret stored under ref.
func (f *Facade) GetOAuth2ClientSecret(ctx context.Context, ref string) (value string, found bool, err error) {
	return f.getString(ctx, secretref.KindOAuth2ClientSecret, ref)
}

// SetOAuth2ClientSecret stores value under ref.
func (f *Facade) SetOAuth2ClientSecret(ctx context.Context, ref, value string) error {
	return f.setString(ctx, secretref.KindOAuth2ClientSecret, ref, value, "store oauth2 client secret")
}

// DeleteOAuth2ClientSecret removes the client secret stored under ref.
func (f *Facade) DeleteOAuth2ClientSecret(ctx context.Context, ref string) error {
	return f.deleteKey(ctx, secretref.KindOAuth2ClientSecret, ref, "delete oauth2 client secret")
}

// OAuth2Token is the stored token payload. ExpiresAt is epoch milliseconds;
// a token without it never expires. Fields beyond these are opaque to this
// module and round-trip through Extra.
type OAuth2Token struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresAt    *int64 `json:"expiresAt,omitempty"`
}

// GetOAuth2Token reads the token stored under ref. A malformed stored blob
// is treated as absent, not an error: a corrupt or legacy-format token must
// not crash a read path.
func (f *Facade) GetOAuth2Token(ctx context.Context, ref string) (*OAuth2Token, error) {
	raw, found, err := f.getString(ctx, secretref.KindOAuth2Token, ref)
	if err != nil || !found {
		return nil, err
	}

	var token OAuth2Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		f.logger.Debug("discarding undecodable oauth2 token blob for reference")
		return nil, nil
	}
	return &token, nil
}

// SetOAuth2Token stores token under ref as serialized JSON.
func (f *Facade) SetOAuth2Token(ctx context.Context, ref string, token *OAuth2Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return f.setString(ctx, secretref.KindOAuth2Token, ref, string(raw), "store oauth2 token")
}

// DeleteOAuth2Token removes the token stored under ref.
func (f *Facade) DeleteOAuth2Token(ctx context.Context, ref string) error {
	return f.deleteKey(ctx, secretref.KindOAuth2Token, ref, "delete oauth2 token")
}

// IsTokenExpired reports whether token is past its expiry. buffer treats a
// token as expired slightly early so callers have refresh headroom. A token
// without ExpiresAt never expires.
func IsTokenExpired(token *OAuth2Token, buffer time.Duration) bool {
	if token == nil || token.ExpiresAt == nil {
		return false
	}
	return time.Now().UnixMilli() >= *token.ExpiresAt-buffer.Milliseconds()
}

// ListOwnedKeys returns only the storage keys this system owns, filtering
// out foreign keys sharing the backend namespace.
func (f *Facade) ListOwnedKeys(ctx context.Context) ([]string, error) {
	all, err := f.store.Keys(ctx)
	if err != nil {
		return nil, err
	}

	var owned []string
	for _, key := range all {
		if secretref.IsOwnedKey(key) {
			owned = append(owned, key)
		}
	}
	return owned, nil
}

// ClassifyKey reports which secret kind an owned storage key holds. ok is
// false for keys with an unrecognized structure.
func (f *Facade) ClassifyKey(key string) (secretref.Kind, bool) {
	return secretref.KindOf(key)
}

func (f *Facade) getString(ctx context.Context, kind secretref.Kind, ref string) (string, bool, error) {
	key, ok := secretref.StorageKey(kind, ref)
	if !ok {
		return "", false, nil
	}

	value, err := f.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, securestore.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (f *Facade) setString(ctx context.Context, kind secretref.Kind, ref, value, op string) error {
	key, ok := secretref.StorageKey(kind, ref)
	if !ok {
		return ucerrors.InvalidReferenceError{Op: op, Kind: string(kind)}
	}
	return f.store.Set(ctx, key, value)
}

func (f *Facade) deleteKey(ctx context.Context, kind secretref.Kind, ref, op string) error {
	key, ok := secretref.StorageKey(kind, ref)
	if !ok {
		return ucerrors.InvalidReferenceError{Op: op, Kind: string(kind)}
	}
	return f.store.Delete(ctx, key)
}
