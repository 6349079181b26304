package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smallmain/unichat-secrets/internal/auth"
	"github.com/smallmain/unichat-secrets/internal/config"
	"github.com/smallmain/unichat-secrets/internal/logging"
	"github.com/smallmain/unichat-secrets/internal/secrets"
	"github.com/smallmain/unichat-secrets/internal/securestore"
)

// App carries the flag-derived runtime configuration shared by every
// command.
type App struct {
	SettingsDir    string
	StoreKind      string
	KeyringService string
	AWSRegion      string
	AWSEndpoint    string
	GCPProject     string
	Logger         *logging.Logger

	// Store overrides backend selection; tests inject a memory store here.
	Store securestore.Store
}

// DefaultSettingsDir resolves the default settings location.
func DefaultSettingsDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "unichat")
	}
	return ".unichat"
}

// ConfigStore opens the settings store.
func (a *App) ConfigStore() *config.Store {
	return config.NewStore(a.SettingsDir, a.Logger)
}

// openStore builds the selected secure-store backend.
func (a *App) openStore(ctx context.Context) (securestore.Store, error) {
	if a.Store != nil {
		return a.Store, nil
	}

	switch a.StoreKind {
	case "keyring", "":
		return securestore.NewKeyring(a.KeyringService), nil
	case "memory":
		return securestore.NewMemory(), nil
	case "aws":
		return securestore.NewAWSSecretsManager(ctx, securestore.AWSConfig{
			Region:   a.AWSRegion,
			Endpoint: a.AWSEndpoint,
		})
	case "gcp":
		return securestore.NewGCPSecretManager(ctx, securestore.GCPConfig{
			ProjectID: a.GCPProject,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q (want keyring, memory, aws, or gcp)", a.StoreKind)
	}
}

// Facade opens the secure store and wraps it in the secrets facade.
func (a *App) Facade(ctx context.Context) (*secrets.Facade, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	return secrets.New(store, a.Logger), nil
}

// Methods returns the auth-method registry.
func (a *App) Methods() *auth.Registry {
	return auth.NewRegistry()
}
