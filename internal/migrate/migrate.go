// Package migrate moves endpoint credentials into and out of the
// secret-reference scheme: rewriting the legacy inline apiKey field into the
// structured auth payload, re-normalizing every endpoint's auth through its
// method's normalizer, and deleting a single API-key secret once nothing
// references it.
//
// Every procedure is a read-modify-write against a fresh settings snapshot
// and persists only when something actually changed, so re-running any of
// them is a no-op and settings writes (and their sync churn) stay minimal.
package migrate

import (
	"context"
	"encoding/json"

	"github.com/smallmain/unichat-secrets/internal/auth"
	"github.com/smallmain/unichat-secrets/internal/logging"
	"github.com/smallmain/unichat-secrets/internal/secretref"
	"github.com/smallmain/unichat-secrets/internal/secrets"
)

// ConfigStore is the slice of the settings layer migrations touch.
type ConfigStore interface {
	RawEndpoints() ([]any, error)
	SetRawEndpoints(raw []any) error
	Endpoints() ([]auth.EndpointConfig, error)
	SetEndpoints(endpoints []auth.EndpointConfig) error
}

// ProgressReporter surfaces migration progress to the user. Progress is a
// pure presentation wrapper: reporting (or a nil reporter) never changes
// what a migration does or returns.
type ProgressReporter interface {
	Report(message string)
}

// LoggerProgress reports progress through a Logger.
type LoggerProgress struct {
	Logger *logging.Logger
}

func (p LoggerProgress) Report(message string) {
	p.Logger.Progress("%s", message)
}

// Migrator runs the credential migrations.
type Migrator struct {
	Config  ConfigStore
	Secrets *secrets.Facade
	Methods *auth.Registry
	Logger  *logging.Logger

	// StoreInSettings keeps credential values inline in settings instead
	// of behind references; normalization then inlines resolvable
	// references back.
	StoreInSettings bool
}

// legacyAPIKeyField is the pre-auth top-level key field on endpoint records.
const legacyAPIKeyField = "apiKey"

// MigrateAPIKeyToAuth rewrites legacy inline apiKey fields into the
// structured auth payload. Records that already carry an auth payload keep
// it untouched; the stray legacy field is removed either way. The list is
// persisted only if at least one record changed, and unchanged records pass
// through by reference.
func (m *Migrator) MigrateAPIKeyToAuth() (changed bool, err error) {
	raw, err := m.Config.RawEndpoints()
	if err != nil {
		return false, err
	}

	out := make([]any, len(raw))
	for i, entry := range raw {
		record, ok := entry.(map[string]any)
		if !ok {
			out[i] = entry
			continue
		}
		legacy, hasLegacy := record[legacyAPIKeyField]
		if !hasLegacy {
			out[i] = entry
			continue
		}

		rewritten := make(map[string]any, len(record))
		for k, v := range record {
			if k != legacyAPIKeyField {
				rewritten[k] = v
			}
		}
		if _, hasAuth := record["auth"]; !hasAuth {
			if key, ok := legacy.(string); ok && key != "" {
				rewritten["auth"] = map[string]any{
					"method": auth.MethodAPIKey,
					"apiKey": key,
				}
			}
		}
		out[i] = rewritten
		changed = true
	}

	if !changed {
		return false, nil
	}
	m.Logger.Debug("rewriting legacy apiKey fields into auth payloads")
	return true, m.Config.SetRawEndpoints(out)
}

// MigrateAPIKeyStorage re-normalizes every endpoint's auth payload through
// its method's normalizer, moving secrets into (or, with StoreInSettings,
// out of) the secure store. Endpoints whose canonical payload serialization
// is unchanged are left alone; the list is persisted only when at least one
// payload actually changed.
func (m *Migrator) MigrateAPIKeyStorage(ctx context.Context, progress ProgressReporter) (changed bool, err error) {
	endpoints, err := m.Config.Endpoints()
	if err != nil {
		return false, err
	}

	for i := range endpoints {
		ep := &endpoints[i]
		method := ep.Method()
		if method == auth.MethodNone {
			continue
		}
		if progress != nil {
			progress.Report("Normalizing credentials for " + ep.Name)
		}

		normalizer, ok := m.Methods.Lookup(method)
		if !ok {
			m.Logger.Debug("no normalizer for auth method %q on %s; leaving payload as-is", method, ep.Name)
			continue
		}

		before, err := canonicalPayload(ep.Auth)
		if err != nil {
			return false, err
		}

		normalized, err := normalizer.NormalizeOnImport(ctx, ep.Auth, auth.NormalizeOptions{
			Secrets:         m.Secrets,
			StoreInSettings: m.StoreInSettings,
			Existing:        ep.Auth,
		})
		if err != nil {
			return false, err
		}

		after, err := canonicalPayload(normalized)
		if err != nil {
			return false, err
		}
		if before != after {
			ep.Auth = normalized
			changed = true
		}
	}

	if !changed {
		return false, nil
	}
	return true, m.Config.SetEndpoints(endpoints)
}

// DeleteAPIKeySecretIfUnused deletes the API-key secret behind ref when no
// endpoint's API-key field still equals that exact reference. Called after
// an individual endpoint's auth is replaced or removed; the full sweep in
// the secrets package covers everything else.
func (m *Migrator) DeleteAPIKeySecretIfUnused(ctx context.Context, ref string) error {
	if !secretref.IsReference(ref) {
		return nil
	}

	endpoints, err := m.Config.Endpoints()
	if err != nil {
		return err
	}
	for _, ep := range endpoints {
		if key, ok := ep.Auth[legacyAPIKeyField].(string); ok && key == ref {
			return nil
		}
	}
	return m.Secrets.DeleteAPIKey(ctx, ref)
}

// canonicalPayload serializes a payload with sorted keys at every level, so
// comparisons ignore key insertion order and never trigger spurious writes.
func canonicalPayload(payload map[string]any) (string, error) {
	if payload == nil {
		return "", nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
