package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/spf13/cobra"

	"github.com/honhon-app/honhon-cli/internal/api"
	"github.com/honhon-app/honhon-cli/internal/auth"
	"github.com/honhon-app/honhon-cli/internal/config"
	"github.com/honhon-app/honhon-cli/internal/ctxlog"
)

// LoginOptions holds options for the login command
type LoginOptions struct {
	Email         string
	Password      string
	NoInteractive bool
	Force         bool
}

func newLoginCmd() *cobra.Command {
	opts := &LoginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to your Hon-Hon account",
		Long: `Sign in with the email address and password of your Hon-Hon account.

The email of the most recently registered account is offered as the default.
The session token is kept in the system keyring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(commandContext(cmd), opts, newServices())
		},
	}

	cmd.Flags().StringVarP(&opts.Email, "email", "e", "", "email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (prefer the interactive prompt)")
	cmd.Flags().BoolVar(&opts.NoInteractive, "no-interactive", false, "disable interactive prompts")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "login again even if a session exists")

	return cmd
}

func runLogin(ctx context.Context, opts *LoginOptions, svc *services) error {
	if !opts.Force {
		if s, err := svc.store.Load(); err == nil && !s.IsExpired() && (opts.Email == "" || opts.Email == s.Email) {
			Success("Already logged in as %s", displayName(s))
			fmt.Fprintf(colorOutput, "Use %s to sign in again\n", color.CyanString("honhon login --force"))
			return nil
		}
	}

	email := opts.Email
	if email == "" {
		if cfg, err := config.Load(); err == nil {
			if u := cfg.GetLastUser(); u != nil {
				email = u.Email
			}
		}
	}

	if !opts.NoInteractive {
		Info("Login")
		prompt := &survey.Input{Message: "Email:", Default: email}
		if err := askOne(prompt, &email, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	password := opts.Password
	if password == "" {
		if opts.NoInteractive {
			return fmt.Errorf("password is required")
		}
		if err := askOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " Signing in..."
	sp.Start()
	resp, err := svc.client.Login(ctx, api.LoginRequest{
		Email:    openapi_types.Email(email),
		Password: password,
	})
	sp.Stop()
	if err != nil {
		var te *api.TransportError
		var se *api.StatusError
		switch {
		case errors.As(err, &te):
			Error("%s", te.UserMessage())
		case errors.As(err, &se):
			Error("%s", se.UserMessage())
		}
		return fmt.Errorf("login failed: %w", err)
	}

	username := ""
	if resp.User != nil {
		username = resp.User.Username
	}
	session := auth.NewSession(resp.Token, username, email)
	if err := svc.store.Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("session stored", "user", session.Username, "expires", session.ExpiresAt)

	Success("Logged in as %s", displayName(session))
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(newServices())
		},
	}
}

func runLogout(svc *services) error {
	if !svc.store.Exists() {
		Info("Not logged in")
		return nil
	}
	if err := svc.store.Delete(); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	Success("Logged out")
	return nil
}

// displayName returns the best available name for the session user
func displayName(s *auth.Session) string {
	switch {
	case s.Username != "":
		return s.Username
	case s.Email != "":
		return s.Email
	case s.UserID != "":
		return s.UserID
	default:
		return "unknown user"
	}
}
