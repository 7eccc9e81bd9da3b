package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"clinical-lookup/internal/client"
	"clinical-lookup/internal/models"
	"clinical-lookup/internal/utils"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token, by logging in or by signing one with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			userID, _ := cmd.Flags().GetString("user-id")
			role, _ := cmd.Flags().GetString("role")
			if email == "" {
				switch models.Role(role) {
				case models.RoleAdmin, models.RoleDoctor, models.RoleStaff:
				default:
					return fmt.Errorf("unknown role %q", role)
				}
			}

			cfg, logger, err := bootstrap(os.Stderr)
			if err != nil {
				return err
			}

			var tok string
			if email != "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Lookup.RequestTimeout)
				defer cancel()
				tok, err = client.New(cfg.Lookup.APIURL, client.WithLogger(logger)).Login(ctx, email, password)
			} else {
				tok, err = utils.GenerateAccessToken(userID, role, cfg.JWTSecret,
					time.Duration(cfg.JWTExpirationMinutes)*time.Minute)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Log in against LOOKUP_API_URL with this email")
	cmd.Flags().String("password", "", "Password for --email")
	cmd.Flags().String("user-id", "cli", "Subject of a locally signed token")
	cmd.Flags().String("role", string(models.RoleStaff), "Role of a locally signed token: admin, doctor or staff")
	return cmd
}
