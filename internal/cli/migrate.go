package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ivankudzin/heartsync/internal/config"
	"github.com/ivankudzin/heartsync/internal/migrations"
)

// NewMigrateCommand creates the migrate command and its subcommands.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(rootOpts, func(r *migrations.Runner) error {
				if err := r.Up(); err != nil {
					return err
				}
				return printVersion(cmd, r)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1 step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid steps %q: must be a positive integer", args[0])
				}
				steps = n
			}
			return withRunner(rootOpts, func(r *migrations.Runner) error {
				if err := r.Down(steps); err != nil {
					return err
				}
				return printVersion(cmd, r)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(rootOpts, func(r *migrations.Runner) error {
				return printVersion(cmd, r)
			})
		},
	})

	return cmd
}

func withRunner(opts *RootOptions, fn func(*migrations.Runner) error) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	dsn := cfg.Postgres.DSN
	if cfg.Storage.Driver == config.StorageDriverSQLite {
		dsn = cfg.SQLite.Path
	}
	runner, err := migrations.New(cfg.Storage.Driver, dsn, log)
	if err != nil {
		return err
	}
	defer runner.Close()

	return fn(runner)
}

func printVersion(cmd *cobra.Command, r *migrations.Runner) error {
	version, dirty, err := r.Version()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
	return err
}
