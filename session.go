package main

import (
	"fmt"

	"github.com/CrowderSoup/priority-pilot/services"
	"github.com/spf13/cobra"
)

func loginCmd(envFile *string) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFile, services.LogNotifier{})
			if err != nil {
				return err
			}
			defer a.close()

			user, err := a.auth.Login(email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Printf("Welcome back, %s!\n", user.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "P", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFile, services.LogNotifier{})
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.auth.Logout(); err != nil {
				return err
			}
			fmt.Println("You have been logged out")
			return nil
		},
	}
}

func whoamiCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFile, services.LogNotifier{})
			if err != nil {
				return err
			}
			defer a.close()

			user := a.auth.CurrentUser()
			if user == nil {
				fmt.Println("Not signed in")
				return nil
			}
			fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.Role)
			return nil
		},
	}
}
