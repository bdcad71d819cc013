package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func loginCmd(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv("ICU_PASSWORD")
			}
			if !opts.bypass && (email == "" || password == "") {
				return errors.New("--email and --password (or ICU_PASSWORD) are required")
			}
			u, err := a.provider.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", u.DisplayName, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func logoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if _, err := a.provider.Restore(cmd.Context()); err != nil {
				return err
			}
			if err := a.provider.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func whoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			u, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "uid:      %s\n", u.ID)
			fmt.Fprintf(a.out, "email:    %s\n", u.Email)
			fmt.Fprintf(a.out, "name:     %s\n", u.DisplayName)
			fmt.Fprintf(a.out, "role:     %s\n", u.Role)
			fmt.Fprintf(a.out, "hospital: %s\n", u.HospitalID)
			if a.provider.Bypass() {
				fmt.Fprintln(a.out, "(bypass mode)")
			}
			return nil
		},
	}
}
