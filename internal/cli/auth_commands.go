package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docassist/docassist/internal/models"
)

func readCredentials(cmd *cobra.Command, username, password string, passwordStdin bool) (models.Credentials, error) {
	p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	var err error
	if username == "" {
		if username, err = p.line("Username: "); err != nil {
			return models.Credentials{}, fmt.Errorf("failed to read username: %w", err)
		}
	}
	if password == "" {
		if passwordStdin {
			password, err = p.line("")
		} else {
			password, err = p.password("Password: ")
		}
		if err != nil {
			return models.Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Credentials{}, fmt.Errorf("username and password are required")
	}
	return models.Credentials{Username: username, Password: password}, nil
}

func newLoginCmd() *cobra.Command {
	var username, password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session token",
		Long: `Log in to the backend. The session token is written to the token
file in the config directory (mode 0600) and reused by later commands.

Examples:
  docassist login
  docassist login --username ada
  echo "$PASSWORD" | docassist login --username ada --password-stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			creds, err := readCredentials(cmd, username, password, passwordStdin)
			if err != nil {
				return err
			}
			resp, err := e.session.Login(cmd.Context(), creds.Username, creds.Password)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "✓ Logged in as %s\n", resp.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted when omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var username, password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			creds, err := readCredentials(cmd, username, password, passwordStdin)
			if err != nil {
				return err
			}
			resp, err := e.session.Register(cmd.Context(), creds.Username, creds.Password)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "✓ Registered and logged in as %s\n", resp.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted when omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the saved session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			if !e.session.HasToken() {
				fmt.Fprintln(stdout(cmd), "Not logged in")
				return nil
			}
			if err := e.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(stdout(cmd), "✓ Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return requireLogin(&cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			user, err := e.session.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			return printValue(cmd, e.prefs.Output, user, func() {
				fmt.Fprintln(stdout(cmd), user.Username)
			})
		},
	})
}
