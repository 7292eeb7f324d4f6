package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/evaltracker/internal/model"
)

var (
	authEmail    string
	authPassword string
)

// credentials fills in whatever the flags and environment left out with
// an interactive form.
func credentials(ctx context.Context) (string, string, error) {
	email, password := authEmail, authPassword
	if password == "" {
		password = os.Getenv("EVALTRACKER_PASSWORD")
	}
	if email != "" && password != "" {
		return email, password, nil
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Value(&email).
			Validate(func(s string) error {
				if !strings.Contains(s, "@") {
					return errors.New("enter a valid email")
				}
				return nil
			}),
		huh.NewInput().
			Title("Contraseña").
			EchoMode(huh.EchoModePassword).
			Value(&password),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return "", "", fmt.Errorf("reading credentials: %w", err)
	}
	return strings.TrimSpace(email), password, nil
}

func saveAndReport(s *model.Session, verb string) error {
	vault, err := openVault()
	if err != nil {
		return err
	}
	if err := vault.SaveSession(s); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]string{"user_id": s.UserID, "email": s.Email})
	}
	fmt.Printf("%s as %s\n", verb, s.Email)
	return nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session in the system keyring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newClient()
		if err != nil {
			return err
		}
		email, password, err := credentials(ctx)
		if err != nil {
			return err
		}

		s, err := client.SignIn(ctx, email, password)
		if err != nil {
			return err
		}
		logger.Debug("signed in", "user_id", s.UserID)
		return saveAndReport(s, "Logged in")
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newClient()
		if err != nil {
			return err
		}
		email, password, err := credentials(ctx)
		if err != nil {
			return err
		}

		s, err := client.SignUp(ctx, email, password)
		if err != nil {
			return err
		}
		if s.AccessToken == "" {
			fmt.Printf("Account created for %s. Confirm your email, then run `evaltracker login`.\n", email)
			return nil
		}
		return saveAndReport(s, "Signed up")
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vault, err := openVault()
		if err != nil {
			return err
		}
		if err := vault.ClearSession(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]any{
				"user_id":    s.UserID,
				"email":      s.Email,
				"expires_at": s.ExpiresAt,
			})
		}
		fmt.Printf("%s (%s)\n", s.Email, s.UserID)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password (or EVALTRACKER_PASSWORD)")
	}
}
