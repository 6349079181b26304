package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smallmain/unichat-secrets/internal/auth"
	"github.com/smallmain/unichat-secrets/internal/migrate"
	"github.com/smallmain/unichat-secrets/internal/secretref"
)

// NewSecretCommand groups per-endpoint secret operations.
func NewSecretCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Set or remove a single endpoint's API key",
	}
	cmd.AddCommand(
		newSecretSetCommand(app),
		newSecretDeleteCommand(app),
	)
	return cmd
}

func newSecretSetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <endpoint> <api-key>",
		Short: "Store an endpoint's API key behind a secret reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, value := args[0], args[1]

			facade, err := app.Facade(ctx)
			if err != nil {
				return err
			}
			cfg := app.ConfigStore()

			endpoints, err := cfg.Endpoints()
			if err != nil {
				return err
			}

			for i := range endpoints {
				ep := &endpoints[i]
				if ep.Name != name {
					continue
				}

				// Reuse the endpoint's reference when it already has one;
				// a fresh key under a fresh UUID otherwise.
				ref, _ := ep.Auth["apiKey"].(string)
				if !secretref.IsReference(ref) {
					ref = secretref.New()
				}
				if err := facade.SetAPIKey(ctx, ref, value); err != nil {
					return err
				}

				ep.Auth = map[string]any{
					"method": auth.MethodAPIKey,
					"apiKey": ref,
				}
				if err := cfg.SetEndpoints(endpoints); err != nil {
					return err
				}
				app.Logger.Info("stored API key for %s", name)
				return nil
			}
			return fmt.Errorf("no endpoint named %q", name)
		},
	}
}

func newSecretDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <endpoint>",
		Short: "Remove an endpoint's API key and its stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			facade, err := app.Facade(ctx)
			if err != nil {
				return err
			}
			cfg := app.ConfigStore()

			endpoints, err := cfg.Endpoints()
			if err != nil {
				return err
			}

			for i := range endpoints {
				ep := &endpoints[i]
				if ep.Name != name {
					continue
				}

				ref, _ := ep.Auth["apiKey"].(string)
				ep.Auth = map[string]any{"method": auth.MethodNone}
				if err := cfg.SetEndpoints(endpoints); err != nil {
					return err
				}

				// The secret goes only if no other endpoint still points
				// at the same reference.
				m := &migrate.Migrator{
					Config:  cfg,
					Secrets: facade,
					Methods: app.Methods(),
					Logger:  app.Logger,
				}
				if err := m.DeleteAPIKeySecretIfUnused(ctx, ref); err != nil {
					return err
				}
				app.Logger.Info("removed API key for %s", name)
				return nil
			}
			return fmt.Errorf("no endpoint named %q", name)
		},
	}
}
