package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smallmain/unichat-secrets/internal/secrets"
)

// NewStatusCommand reports the resolved API-key state of every endpoint.
func NewStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the credential state of every configured endpoint",
		Long: `Resolves each endpoint's configured API-key value into its actual state:

  unset           no key configured
  plain           a literal key sits inline in settings
  secret          a reference with its secret present in the store
  missing-secret  a dangling reference; re-enter the key to repair it`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			facade, err := app.Facade(ctx)
			if err != nil {
				return err
			}

			endpoints, err := app.ConfigStore().Endpoints()
			if err != nil {
				return err
			}
			if len(endpoints) == 0 {
				app.Logger.Info("no endpoints configured")
				return nil
			}

			dangling := 0
			for _, ep := range endpoints {
				raw, _ := ep.Auth["apiKey"].(string)
				status, err := facade.APIKeyStatusFor(ctx, raw)
				if err != nil {
					return err
				}
				if status.State == secrets.APIKeyMissingSecret {
					dangling++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-10s %s\n", ep.Name, ep.Method(), status.State)
			}

			if dangling > 0 {
				app.Logger.Warn("%d endpoint(s) hold dangling references; re-enter those keys with 'ucsec secret set'", dangling)
			}
			return nil
		},
	}
}
