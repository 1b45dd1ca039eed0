// Package migrate implements the migrate command for the embedded schema.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshoup521/NewsHub/cmd/common"
	"github.com/oshoup521/NewsHub/internal/database"
)

// Command creates the migrate command and its up, down and version subcommands.
func Command(load common.DepsLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(upCommand(load), downCommand(load), versionCommand(load))
	return cmd
}

func upCommand(load common.DepsLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := load()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}
			defer func() { _ = deps.Logger.Sync() }()

			if err = database.RunMigrations(deps.Config.Database, deps.Logger); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func downCommand(load common.DepsLoader) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := load()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}
			defer func() { _ = deps.Logger.Sync() }()

			if err = database.MigrateDown(deps.Config.Database, steps, deps.Logger); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func versionCommand(load common.DepsLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := load()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}
			defer func() { _ = deps.Logger.Sync() }()

			version, dirty, err := database.MigrationVersion(deps.Config.Database, deps.Logger)
			if err != nil {
				return fmt.Errorf("migrate version: %w", err)
			}

			out := cmd.OutOrStdout()
			if version == 0 {
				fmt.Fprintln(out, "No migrations applied")
				return nil
			}
			fmt.Fprintf(out, "Version: %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
}
