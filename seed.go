package main

import (
	"os"

	"github.com/spf13/cobra"

	"clinical-lookup/internal/models"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo patients, orders and results",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("admin-email")
			password, _ := cmd.Flags().GetString("admin-password")

			cfg, logger, err := bootstrap(os.Stderr)
			if err != nil {
				return err
			}
			db, err := models.InitDB(models.DatabaseConfig{
				Driver: cfg.Database.Driver,
				DSN:    cfg.Database.DSN,
				Debug:  cfg.IsDev(),
			})
			if err != nil {
				return err
			}
			if err := models.Seed(cmd.Context(), db, email, password); err != nil {
				return err
			}
			logger.Info().Str("admin", email).Msg("demo data seeded")
			return nil
		},
	}
	cmd.Flags().String("admin-email", "admin@clinic.local", "Email of the seeded admin account")
	cmd.Flags().String("admin-password", "", "Password of the seeded admin account")
	cmd.MarkFlagRequired("admin-password")
	return cmd
}
