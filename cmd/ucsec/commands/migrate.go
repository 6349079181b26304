package commands

import (
	"github.com/spf13/cobra"

	"github.com/smallmain/unichat-secrets/internal/migrate"
)

// NewMigrateCommand runs the credential migrations.
func NewMigrateCommand(app *App) *cobra.Command {
	var (
		storeInSettings bool
		showProgress    bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate endpoint credentials into the secret-reference scheme",
		Long: `Runs both credential migrations:

 1. Legacy rewrite: inline top-level apiKey fields become structured auth
    payloads.
 2. Storage normalization: every endpoint's auth payload is re-normalized
    by its method, moving plaintext secrets into the secure store (or back
    inline with --store-in-settings).

Both are idempotent and write settings only when something changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			facade, err := app.Facade(ctx)
			if err != nil {
				return err
			}

			m := &migrate.Migrator{
				Config:          app.ConfigStore(),
				Secrets:         facade,
				Methods:         app.Methods(),
				Logger:          app.Logger,
				StoreInSettings: storeInSettings,
			}

			rewrote, err := m.MigrateAPIKeyToAuth()
			if err != nil {
				return err
			}
			if rewrote {
				app.Logger.Info("rewrote legacy apiKey fields")
			}

			var progress migrate.ProgressReporter
			if showProgress {
				progress = migrate.LoggerProgress{Logger: app.Logger}
			}
			normalized, err := m.MigrateAPIKeyStorage(ctx, progress)
			if err != nil {
				return err
			}
			if normalized {
				app.Logger.Info("normalized endpoint credentials")
			}

			if !rewrote && !normalized {
				app.Logger.Info("nothing to migrate")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&storeInSettings, "store-in-settings", false, "Keep secrets inline in settings instead of the secure store")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Report per-endpoint progress")
	return cmd
}
