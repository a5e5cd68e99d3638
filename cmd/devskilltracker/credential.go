package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johanWP/DevSkillTracker/internal/identity"
)

const envAdminPassword = "DEVSKILL_PASSWORD"

func credentialCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage sign-in credentials",
	}

	var email, password, uid string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create or replace the credential for an email",
		Long: `Create or replace the credential for an email.

The password is read from --password or, when the flag is omitted, from $` + envAdminPassword + `.
Whether the account may use the dashboard is decided by admin_emails, not here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(envAdminPassword)
			}
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				return fmt.Errorf("--password or $%s is required", envAdminPassword)
			}

			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			storage, _, err := openBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer storage.Close()

			provider := identity.NewProvider(storage, identity.WithLogger(logger))
			registered, err := provider.RegisterCredential(cmd.Context(), email, password, uid)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credential stored for %s (uid %s)\n", strings.ToLower(strings.TrimSpace(email)), registered)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "account email")
	add.Flags().StringVar(&password, "password", "", "account password (min 8 characters)")
	add.Flags().StringVar(&uid, "uid", "", "keep a specific uid instead of generating one")

	cmd.AddCommand(add)
	return cmd
}
