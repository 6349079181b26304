// Package auth defines the endpoint configuration shape and the closed set
// of authentication methods, each knowing how to normalize its credential
// payload into (or out of) the secret-reference scheme.
package auth

import (
	"context"
	"strings"

	"github.com/smallmain/unichat-secrets/internal/secrets"
)

// Auth method tags. The set is closed: adding a method means adding a
// normalizer type here and registering it in NewRegistry.
const (
	MethodNone   = "none"
	MethodAPIKey = "api-key"
	MethodOAuth2 = "oauth2"
)

// EndpointConfig is one configured provider endpoint. Auth is the raw
// method-tagged payload; fields this module does not model ride along in
// Extra so writes do not shed them.
type EndpointConfig struct {
	Name    string         `yaml:"name" json:"name"`
	BaseURL string         `yaml:"baseUrl,omitempty" json:"baseUrl,omitempty"`
	Auth    map[string]any `yaml:"auth,omitempty" json:"auth,omitempty"`
	Extra   map[string]any `yaml:",inline" json:"-"`
}

// Method returns the endpoint's auth method tag, defaulting to none.
func (e EndpointConfig) Method() string {
	if e.Auth == nil {
		return MethodNone
	}
	if m, ok := e.Auth["method"].(string); ok && m != "" {
		return m
	}
	return MethodNone
}

// NormalizeOptions carries the capabilities a normalizer works with.
type NormalizeOptions struct {
	// Secrets is the facade the normalizer stores and resolves secrets
	// through.
	Secrets *secrets.Facade

	// StoreInSettings keeps credential values inline in settings instead of
	// moving them behind references. Normalizing with it set inverts a
	// previous move: still-resolvable references are inlined back and their
	// secrets deleted.
	StoreInSettings bool

	// Existing is the payload currently persisted for this endpoint, so a
	// normalizer can reuse an already-valid reference instead of minting a
	// new one.
	Existing map[string]any
}

// Normalizer transforms a method's credential payload on import. Calling it
// twice on its own output is a no-op.
type Normalizer interface {
	Method() string
	NormalizeOnImport(ctx context.Context, payload map[string]any, opts NormalizeOptions) (map[string]any, error)
}

// Registry dispatches method tags to normalizers.
type Registry struct {
	methods map[string]Normalizer
}

// NewRegistry builds the registry over the built-in methods.
func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]Normalizer)}
	for _, n := range []Normalizer{
		noneMethod{},
		apiKeyMethod{},
		oauth2Method{},
	} {
		r.methods[n.Method()] = n
	}
	return r
}

// Lookup returns the normalizer for a method tag.
func (r *Registry) Lookup(method string) (Normalizer, bool) {
	n, ok := r.methods[method]
	return n, ok
}

// stringField reads a trimmed string field from a payload.
func stringField(payload map[string]any, field string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[field].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// clonePayload shallow-copies a payload before mutation; payloads are
// aliased by the raw settings tree and must not be edited in place.
func clonePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
