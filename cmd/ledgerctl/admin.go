package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/ledgerline/internal/domain"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin users",
}

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin user",
	Long: `Create an admin user. Admins get no bank account; the command fails
if the email is already registered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		e, err := loadEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		_, auth := e.services()
		user, err := auth.CreateAdmin(ctx, &domain.RegisterInput{
			Email:    adminEmail,
			Password: adminPassword,
			FullName: adminName,
		})
		if err != nil {
			return fmt.Errorf("creating admin: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email address")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (at least 8 characters)")
	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "Admin full name")
	for _, name := range []string{"email", "password", "name"} {
		_ = adminCreateCmd.MarkFlagRequired(name)
	}

	adminCmd.AddCommand(adminCreateCmd)
}
