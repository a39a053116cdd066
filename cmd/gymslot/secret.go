package main

import (
	"fmt"
	"strings"

	"github.com/harunnryd/gymslot/internal/secret"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the booking password in the OS keyring",
}

var secretSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the booking password for booking.username",
	RunE:  func(cmd *cobra.Command, args []string) error {
		username, err := bookingUsername(cmd)
		if err != nil {
			return err
		}

		var password string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Password for " + username).
					EchoMode(huh.EchoModePassword).
					Value(&password).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("password cannot be empty")
						}
						return nil
					}),
			),
		).WithTheme(huh.ThemeDracula())
		if err := form.Run(); err != nil {
			return err
		}

		if err := secret.SetPassword(username, password); err != nil {
			return err
		}
		printOut(cmd, fmt.Sprintf("✓ Password stored in the %s keyring for %s", secret.Service, username))
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored booking password",
	RunE:  func(cmd *cobra.Command, args []string) error {
		username, err := bookingUsername(cmd)
		if err != nil {
			return err
		}
		if err := secret.DeletePassword(username); err != nil {
			return err
		}
		printOut(cmd, fmt.Sprintf("✓ Password removed for %s", username))
		return nil
	},
}

func bookingUsername(cmd *cobra.Command) (string, error) {
	loadedCfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	username := strings.TrimSpace(loadedCfg.Booking.Username)
	if username == "" {
		return "", fmt.Errorf("booking.username is not set")
	}
	return username, nil
}

func init() {
	secretCmd.AddCommand(secretSetCmd)
	secretCmd.AddCommand(secretDeleteCmd)
	rootCmd.AddCommand(secretCmd)
}
