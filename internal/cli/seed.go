package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivankudzin/heartsync/internal/app/apiapp"
	"github.com/ivankudzin/heartsync/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo accounts",
		Long: `Create alice, bob, charlie, diana and eve (all @example.com) with
filled-in profiles. Accounts that already exist are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rootOpts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			storage, err := apiapp.OpenStorage(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer storage.Close()

			res, err := seed.Run(cmd.Context(), storage.Users, seed.DefaultAccounts(), password, cfg.Auth.BcryptCost, log)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created=%d skipped=%d\n", res.Created, res.Skipped)
			return err
		},
	}

	cmd.Flags().StringVar(&password, "password", seed.DefaultPassword, "password for every demo account")

	return cmd
}
