package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/honhon-app/honhon-cli/internal/auth"
	"github.com/honhon-app/honhon-cli/internal/config"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Long: `Show who is logged in, when the session expires and which service the
CLI talks to.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(newServices(), viper.GetString("output"))
		},
	}
}

// statusView is the machine readable session status
type statusView struct {
	LoggedIn  bool       `json:"logged_in" yaml:"logged_in"`
	Username  string     `json:"username,omitempty" yaml:"username,omitempty"`
	Email     string     `json:"email,omitempty" yaml:"email,omitempty"`
	UserID    string     `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired   bool       `json:"expired,omitempty" yaml:"expired,omitempty"`
	APIURL    string     `json:"api_url" yaml:"api_url"`
	LastUser  string     `json:"last_registered,omitempty" yaml:"last_registered,omitempty"`
}

func runStatus(svc *services, format string) error {
	of, err := ParseOutputFormat(format)
	if err != nil {
		return err
	}

	view := statusView{APIURL: svc.client.BaseURL()}

	s, err := svc.store.Load()
	switch {
	case err == nil:
		view.LoggedIn = !s.IsExpired()
		view.Expired = s.IsExpired()
		view.Username = s.Username
		view.Email = s.Email
		view.UserID = s.UserID
		view.ExpiresAt = s.ExpiresAt
	case errors.Is(err, auth.ErrNotLoggedIn):
	default:
		return fmt.Errorf("failed to read session: %w", err)
	}

	if cfg, err := config.Load(); err == nil {
		if u := cfg.GetLastUser(); u != nil {
			view.LastUser = u.Username
		}
	}

	dw := NewDataWriter(colorOutput, string(of))
	if of != OutputFormatTable {
		return dw.WriteStruct(view)
	}
	return displayStatusTable(view, dw)
}

func displayStatusTable(view statusView, dw *DataWriter) error {
	kvb := NewKeyValueBuilder("Session")

	switch {
	case view.LoggedIn:
		kvb.Add("Status", "logged in")
	case view.Expired:
		kvb.Add("Status", "expired (run 'honhon login')")
	default:
		kvb.Add("Status", "not logged in")
	}

	kvb.AddIf(view.Username != "", "User", view.Username)
	kvb.AddIf(view.Email != "", "Email", view.Email)
	kvb.AddIf(view.UserID != "", "ID", view.UserID)
	if view.ExpiresAt != nil {
		kvb.Add("Expires", view.ExpiresAt.Local().Format(time.RFC1123))
	}
	kvb.Add("Server", view.APIURL)
	kvb.AddIf(view.LastUser != "", "Last registered", view.LastUser)

	return kvb.Write(dw)
}
