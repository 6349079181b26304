package commands

import (
	"github.com/spf13/cobra"

	"github.com/smallmain/unichat-secrets/internal/secrets"
)

// NewCleanupCommand sweeps secrets no settings scope references anymore.
func NewCleanupCommand(app *App) *cobra.Command {
	var (
		dryRun      bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stored secrets that no settings scope references",
		Long: `Scans the raw settings of every scope (global, workspace, and each folder)
for secret references, then deletes owned storage keys that are referenced
nowhere, along with structurally unrecognized owned keys.

Deletions fail independently; a failed key stays for the next sweep. The
sweep is idempotent and safe to re-run at any time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			facade, err := app.Facade(ctx)
			if err != nil {
				return err
			}

			result, err := facade.CleanupUnusedSecrets(ctx, app.ConfigStore(), secrets.CleanupOptions{
				DryRun:      dryRun,
				Concurrency: concurrency,
			})
			if err != nil {
				return err
			}

			if dryRun {
				app.Logger.Info("scanned %d key(s); %d would be deleted", result.Scanned, result.Deleted)
				return nil
			}
			app.Logger.Info("scanned %d key(s); deleted %d, failed %d", result.Scanned, result.Deleted, result.Failed)
			if result.Failed > 0 {
				app.Logger.Warn("failed deletions stay eligible for the next sweep")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be deleted without deleting")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel deletions (default 8)")
	return cmd
}
