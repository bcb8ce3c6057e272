package main

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ibonocollect/internal/auth"
)

func newLoginCmd() *cobra.Command {
	var tokenFlag string

	cmd := &cobra.Command{
		Use:   "login <user-id>",
		Short: "Store your contributor session in the system keyring",
		Long: `Store your contributor id and API token securely in the system keyring.

Without --token the token is read interactively (recommended: it stays
out of shell history). For CI, set ` + auth.EnvUserID + ` and ` + auth.EnvToken + `
instead of logging in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := strings.TrimSpace(args[0])
			if userID == "" {
				return fmt.Errorf("user id cannot be empty")
			}

			token := tokenFlag
			if token == "" {
				fmt.Print("API token: ")
				raw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Println()
				if err != nil {
					return fmt.Errorf("failed to read token: %w", err)
				}
				token = strings.TrimSpace(string(raw))
			}
			if token == "" {
				return fmt.Errorf("token cannot be empty")
			}

			if err := auth.SetSession(userID, token); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s.\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&tokenFlag, "token", "", "API token (omit for an interactive prompt)")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session from the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.DeleteSession(); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}
