package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var (
		username string
		password string
		dev      bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long:  "Signs in with a username and password, or as the development user with --dev. The password may also come from FRIDGECTL_PASSWORD.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if dev {
				if err := a.client.DevLogin(ctx); err != nil {
					return err
				}
				cmd.Println("Signed in as the development user")
				return nil
			}

			if password == "" {
				password = os.Getenv("FRIDGECTL_PASSWORD")
			}
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			if err := a.client.Login(ctx, username, password); err != nil {
				return err
			}
			cmd.Printf("Signed in as %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&dev, "dev", false, "sign in as the development user")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Logout(); err != nil {
				return err
			}
			cmd.Println("Signed out")
			return nil
		},
	}
}
