// Package cli implements the lakectl command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mobiltex-datalake/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var partial *domain.PartialFailureError
		if errors.As(err, &partial) {
			fmt.Fprintf(os.Stderr, "\nThe table data was rewritten but the catalog was not updated to match.\n")
			fmt.Fprintf(os.Stderr, "A pre-rewrite snapshot is intact at: %s\n", partial.BackupLocation)
			fmt.Fprintf(os.Stderr, "To roll back, copy the snapshot files over the table location, then re-run.\n")
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	app := &appContext{}

	rootCmd := &cobra.Command{
		Use:           "lakectl",
		Short:         "Mobiltex data lake CLI",
		Long:          "Provision, load, transform, and evolve the Mobiltex IoT data lake.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.load(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			app.close()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&app.local, "local", false, "Use the local SQLite metastore and filesystem storage")
	rootCmd.PersistentFlags().StringVar(&app.dataRoot, "data-root", "lake", "Root directory for local-mode storage")
	rootCmd.PersistentFlags().StringVar(&app.envFile, "env-file", ".env", "Path to an optional .env file")

	rootCmd.AddCommand(newProvisionCmd(app))
	rootCmd.AddCommand(newLoadSampleCmd(app))
	rootCmd.AddCommand(newTransformCmd(app))
	rootCmd.AddCommand(newEvolveCmd(app))
	rootCmd.AddCommand(newDescribeCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(os.Stdout, "lakectl version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
