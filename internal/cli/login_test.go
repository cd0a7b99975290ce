package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honhon-app/honhon-cli/internal/auth"
	"github.com/honhon-app/honhon-cli/internal/config"
)

func TestLoginCommand(t *testing.T) {
	cmd := newLoginCmd()

	assert.NotNil(t, cmd)
	assert.Equal(t, "login", cmd.Use)
	assert.Contains(t, cmd.Short, "Login")

	forceFlag := cmd.Flags().Lookup("force")
	require.NotNil(t, forceFlag)
	assert.Equal(t, "false", forceFlag.DefValue)

	emailFlag := cmd.Flags().Lookup("email")
	require.NotNil(t, emailFlag)
	assert.Equal(t, "e", emailFlag.Shorthand)

	assert.NotNil(t, cmd.Flags().Lookup("password"))
	assert.NotNil(t, cmd.Flags().Lookup("no-interactive"))
}

func TestLogoutCommand(t *testing.T) {
	cmd := newLogoutCmd()

	assert.NotNil(t, cmd)
	assert.Equal(t, "logout", cmd.Use)
	assert.Contains(t, cmd.Short, "Logout")
	assert.Equal(t, 0, cmd.Flags().NFlag())
}

func TestRunLogin_NonInteractive(t *testing.T) {
	tests := []struct {
		name      string
		opts      LoginOptions
		wantErr   string
		wantLogin bool
		wantOut   string
	}{
		{
			name:      "valid credentials",
			opts:      LoginOptions{Email: "alice@example.com", Password: "Secret123"},
			wantLogin: true,
			wantOut:   "Logged in as alice",
		},
		{
			name:    "wrong password",
			opts:    LoginOptions{Email: "alice@example.com", Password: "nope"},
			wantErr: "login failed",
		},
		{
			name:    "missing password",
			opts:    LoginOptions{Email: "alice@example.com"},
			wantErr: "password is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr := captureOutput(t)
			_, server := newFakeUserService(t)
			svc, store := testServices(t, server.URL, nil)

			opts := tt.opts
			opts.NoInteractive = true
			err := runLogin(context.Background(), &opts, svc)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.False(t, store.Exists())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLogin, store.Exists())
			assert.Contains(t, stdout.String(), tt.wantOut)
			assert.Empty(t, stderr.String())
		})
	}
}

func TestRunLogin_ShowsServerMessage(t *testing.T) {
	_, stderr := captureOutput(t)
	_, server := newFakeUserService(t)
	svc, _ := testServices(t, server.URL, nil)

	err := runLogin(context.Background(), &LoginOptions{
		Email: "alice@example.com", Password: "wrong", NoInteractive: true,
	}, svc)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "Invalid email or password")
}

func TestRunLogin_AlreadyLoggedIn(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name       string
		session    *auth.Session
		opts       LoginOptions
		wantLogins int
	}{
		{
			name:       "active session is kept",
			session:    &auth.Session{Token: "t", Username: "alice", Email: "alice@example.com", ExpiresAt: &future},
			opts:       LoginOptions{Password: "Secret123", NoInteractive: true},
			wantLogins: 0,
		},
		{
			name:       "force logs in again",
			session:    &auth.Session{Token: "t", Username: "alice", Email: "alice@example.com", ExpiresAt: &future},
			opts:       LoginOptions{Email: "alice@example.com", Password: "Secret123", NoInteractive: true, Force: true},
			wantLogins: 1,
		},
		{
			name:       "expired session logs in again",
			session:    &auth.Session{Token: "t", Username: "alice", Email: "alice@example.com", ExpiresAt: &past},
			opts:       LoginOptions{Email: "alice@example.com", Password: "Secret123", NoInteractive: true},
			wantLogins: 1,
		},
		{
			name:       "different account logs in",
			session:    &auth.Session{Token: "t", Username: "bob", Email: "bob@example.com"},
			opts:       LoginOptions{Email: "alice@example.com", Password: "Secret123", NoInteractive: true},
			wantLogins: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureOutput(t)
			fs, server := newFakeUserService(t)
			svc, _ := testServices(t, server.URL, tt.session)

			opts := tt.opts
			require.NoError(t, runLogin(context.Background(), &opts, svc))
			assert.Equal(t, tt.wantLogins, fs.Logins())
		})
	}
}

func TestRunLogin_PrefillsLastUser(t *testing.T) {
	captureOutput(t)
	_, server := newFakeUserService(t)
	svc, _ := testServices(t, server.URL, nil)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, cfg.SetLastUser(&config.UserInfo{Username: "carol", Email: "carol@example.com"}))

	var gotDefault string
	prompts := withPrompts(t, map[string][]interface{}{
		"Password:": {"Secret123"},
	})
	askOne = func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
		if in, ok := p.(*survey.Input); ok && in.Message == "Email:" {
			gotDefault = in.Default
			*(response.(*string)) = in.Default
			return nil
		}
		return prompts.ask(p, response, opts...)
	}

	require.NoError(t, runLogin(context.Background(), &LoginOptions{}, svc))
	assert.Equal(t, "carol@example.com", gotDefault)
}

func TestRunLogout(t *testing.T) {
	t.Run("removes the session", func(t *testing.T) {
		stdout, _ := captureOutput(t)
		svc, store := testServices(t, "http://127.0.0.1:0", &auth.Session{Token: "t"})

		require.NoError(t, runLogout(svc))
		assert.False(t, store.Exists())
		assert.Contains(t, stdout.String(), "Logged out")
	})

	t.Run("not logged in", func(t *testing.T) {
		stdout, _ := captureOutput(t)
		svc, _ := testServices(t, "http://127.0.0.1:0", nil)

		require.NoError(t, runLogout(svc))
		assert.Contains(t, stdout.String(), "Not logged in")
	})

	t.Run("store failure", func(t *testing.T) {
		captureOutput(t)
		svc, _ := testServices(t, "http://127.0.0.1:0", nil)
		svc.store = &failingStore{err: errors.New("keyring locked")}

		err := runLogout(svc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "keyring locked")
	})
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "alice", displayName(&auth.Session{Username: "alice", Email: "a@b.com"}))
	assert.Equal(t, "a@b.com", displayName(&auth.Session{Email: "a@b.com"}))
	assert.Equal(t, "u-1", displayName(&auth.Session{UserID: "u-1"}))
	assert.Equal(t, "unknown user", displayName(&auth.Session{}))
}

// failingStore reports a stored session but fails every write
type failingStore struct {
	err error
}

func (f *failingStore) Load() (*auth.Session, error) { return nil, f.err }
func (f *failingStore) Save(*auth.Session) error     { return f.err }
func (f *failingStore) Delete() error                { return f.err }
func (f *failingStore) Exists() bool                 { return true }
