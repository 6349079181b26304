package auth

import (
	"context"

	"github.com/smallmain/unichat-secrets/internal/secretref"
)

// noneMethod carries no credentials; its payload passes through untouched.
type noneMethod struct{}

func (noneMethod) Method() string { return MethodNone }

func (noneMethod) NormalizeOnImport(ctx context.Context, payload map[string]any, opts NormalizeOptions) (map[string]any, error) {
	return payload, nil
}

// apiKeyMethod holds a single key in the apiKey field.
type apiKeyMethod struct{}

func (apiKeyMethod) Method() string { return MethodAPIKey }

func (apiKeyMethod) NormalizeOnImport(ctx context.Context, payload map[string]any, opts NormalizeOptions) (map[string]any, error) {
	return normalizeSecretField(ctx, payload, "apiKey", secretField{
		get: opts.Secrets.GetAPIKey,
		set: opts.Secrets.SetAPIKey,
		del: opts.Secrets.DeleteAPIKey,
	}, opts)
}

// oauth2Method holds a client secret in the clientSecret field. Token
// material never lives in settings; it is written store-side by the auth
// flow and only ever addressed by reference.
type oauth2Method struct{}

func (oauth2Method) Method() string { return MethodOAuth2 }

func (oauth2Method) NormalizeOnImport(ctx context.Context, payload map[string]any, opts NormalizeOptions) (map[string]any, error) {
	return normalizeSecretField(ctx, payload, "clientSecret", secretField{
		get: opts.Secrets.GetOAuth2ClientSecret,
		set: opts.Secrets.SetOAuth2ClientSecret,
		del: opts.Secrets.DeleteOAuth2ClientSecret,
	}, opts)
}

// secretField binds one payload field to the facade operations of its kind.
type secretField struct {
	get func(ctx context.Context, ref string) (string, bool, error)
	set func(ctx context.Context, ref, value string) error
	del func(ctx context.Context, ref string) error
}

// normalizeSecretField moves the named field between inline and store-backed
// form according to StoreInSettings. Already-normalized payloads come back
// unchanged (same map), so change detection upstream sees no difference.
func normalizeSecretField(ctx context.Context, payload map[string]any, field string, ops secretField, opts NormalizeOptions) (map[string]any, error) {
	value := stringField(payload, field)
	if value == "" {
		return payload, nil
	}

	if opts.StoreInSettings {
		if !secretref.IsReference(value) {
			return payload, nil
		}
		// Inline a resolvable reference back into settings; a dangling one
		// is left alone rather than silently dropped.
		stored, found, err := ops.get(ctx, value)
		if err != nil {
			return nil, err
		}
		if !found {
			return payload, nil
		}
		out := clonePayload(payload)
		out[field] = stored
		if err := ops.del(ctx, value); err != nil {
			return nil, err
		}
		return out, nil
	}

	if secretref.IsReference(value) {
		return payload, nil
	}

	// Reuse the reference already persisted for this endpoint when there is
	// one, so re-imports do not mint a new UUID per run.
	ref := stringField(opts.Existing, field)
	if !secretref.IsReference(ref) {
		ref = secretref.New()
	}
	if err := ops.set(ctx, ref, value); err != nil {
		return nil, err
	}

	out := clonePayload(payload)
	out[field] = ref
	return out, nil
}
