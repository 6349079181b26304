package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smallmain/unichat-secrets/cmd/ucsec/commands"
	"github.com/smallmain/unichat-secrets/internal/logging"
	"github.com/smallmain/unichat-secrets/internal/secrets"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		settingsDir    string
		storeKind      string
		keyringService string
		awsRegion      string
		awsEndpoint    string
		gcpProject     string
		noColor        bool
		debug          bool
		enableMetrics  bool
	)

	app := &commands.App{}

	rootCmd := &cobra.Command{
		Use:   "ucsec",
		Short: "Manage chat-provider endpoint credentials behind secret references",
		Long: `ucsec keeps endpoint credentials out of plaintext settings: secrets live in
a secure store and settings carry only opaque $UCPSECRET:<uuid>$ references.

It migrates legacy inline keys, normalizes credentials into the reference
scheme, reports the resolved state of every endpoint, and garbage-collects
secrets that no settings scope references anymore.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.Logger = logging.New(debug, noColor)
			app.SettingsDir = settingsDir
			app.StoreKind = storeKind
			app.KeyringService = keyringService
			app.AWSRegion = awsRegion
			app.AWSEndpoint = awsEndpoint
			app.GCPProject = gcpProject

			if enableMetrics {
				secrets.InitMetrics()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&settingsDir, "settings-dir", commands.DefaultSettingsDir(), "Settings directory")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "keyring", "Secure store backend (keyring, memory, aws, gcp)")
	rootCmd.PersistentFlags().StringVar(&keyringService, "keyring-service", "", "Keyring service name override")
	rootCmd.PersistentFlags().StringVar(&awsRegion, "aws-region", "", "AWS region for the aws store")
	rootCmd.PersistentFlags().StringVar(&awsEndpoint, "aws-endpoint", "", "AWS endpoint override (LocalStack)")
	rootCmd.PersistentFlags().StringVar(&gcpProject, "gcp-project", "", "GCP project for the gcp store")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&enableMetrics, "metrics", false, "Register Prometheus sweep metrics")

	rootCmd.AddCommand(
		commands.NewStatusCommand(app),
		commands.NewMigrateCommand(app),
		commands.NewCleanupCommand(app),
		commands.NewSecretCommand(app),
	)

	return rootCmd.Execute()
}
