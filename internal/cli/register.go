package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/honhon-app/honhon-cli/internal/api"
	"github.com/honhon-app/honhon-cli/internal/auth"
	"github.com/honhon-app/honhon-cli/internal/config"
	"github.com/honhon-app/honhon-cli/internal/ctxlog"
	"github.com/honhon-app/honhon-cli/internal/form"
	"github.com/honhon-app/honhon-cli/internal/rules"
)

// ErrRegistrationFailed is returned when a non-interactive registration
// does not go through. The details have already been printed.
var ErrRegistrationFailed = errors.New("registration failed")

// RegisterOptions holds options for the register command
type RegisterOptions struct {
	Username            string
	Email               string
	Password            string
	ConfirmPassword     string
	ShowPassword        bool
	ShowConfirmPassword bool
	NoInteractive       bool
	RulesFile           string
	Output              string
}

// services bundles the collaborators the account commands talk to
type services struct {
	client *api.Client
	store  auth.SessionStore
}

// newServices wires the real service client and keyring store
func newServices() *services {
	return &services{
		client: api.NewClient(resolveAPIURL(), api.WithUserAgent(userAgent())),
		store:  auth.NewKeyringStore(),
	}
}

// newRegisterCmd creates the register command
func newRegisterCmd() *cobra.Command {
	opts := &RegisterOptions{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new Hon-Hon account",
		Long: `Create a new Hon-Hon account.

Fill in a username, an email address and a password (twice). Every field is
checked before anything is sent; fields that fail are shown with the reason
and asked for again. After the account is created you continue to login.

Password fields are masked unless --show-password / --show-confirm-password
is given.`,
		Example: `  honhon register
  honhon register --username alice --email alice@example.com
  honhon register --no-interactive -u alice -e alice@example.com \
      --password Secret123 --confirm-password Secret123 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Output = viper.GetString("output")
			if opts.RulesFile == "" {
				opts.RulesFile = viper.GetString("rules.file")
			}
			return runRegister(commandContext(cmd), opts, newServices())
		},
	}

	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&opts.Email, "email", "e", "", "email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (prefer the interactive prompt)")
	cmd.Flags().StringVar(&opts.ConfirmPassword, "confirm-password", "", "password confirmation")
	cmd.Flags().BoolVar(&opts.ShowPassword, "show-password", false, "show the password while typing")
	cmd.Flags().BoolVar(&opts.ShowConfirmPassword, "show-confirm-password", false, "show the password confirmation while typing")
	cmd.Flags().BoolVar(&opts.NoInteractive, "no-interactive", false, "disable interactive prompts")
	cmd.Flags().StringVar(&opts.RulesFile, "rules", "", "CUE file with registration rules (default: ./honhon.cue or built-in rules)")

	return cmd
}

// loadRuleset compiles the registration rules and applies configured limits.
// Without an explicit path a honhon.cue in the working directory is used,
// then the built-in rules.
func loadRuleset(path string) (*rules.Ruleset, error) {
	var (
		rs  *rules.Ruleset
		err error
	)
	if path == "" {
		if found, ok := config.FindRulesFile("."); ok {
			path = found
		}
	}
	if path != "" {
		if path, err = validateAndCleanRulesPath(path); err != nil {
			return nil, err
		}
		rs, err = rules.LoadFile(path)
	} else {
		rs, err = rules.Default()
	}
	if err != nil {
		return nil, err
	}

	var limits rules.Limits
	if err := viper.UnmarshalKey("rules", &limits); err != nil {
		return nil, fmt.Errorf("invalid rules configuration: %w", err)
	}
	if limits == (rules.Limits{}) {
		return rs, nil
	}
	return rs.WithLimits(limits)
}

func runRegister(ctx context.Context, opts *RegisterOptions, svc *services) error {
	format, err := ParseOutputFormat(opts.Output)
	if err != nil {
		return err
	}

	ruleset, err := loadRuleset(opts.RulesFile)
	if err != nil {
		return fmt.Errorf("failed to load registration rules: %w", err)
	}
	Debug("Using registration rules from %s", ruleset.Name())

	var registered form.Registration

	registrar := form.RegistrarFunc(func(ctx context.Context, reg form.Registration) error {
		sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		sp.Suffix = " Creating account..."
		sp.Start()
		defer sp.Stop()

		_, err := svc.client.Register(ctx, api.RegisterRequest{
			Username: reg.Username,
			Email:    openapi_types.Email(reg.Email),
			Password: reg.Password,
		})
		if err != nil {
			return err
		}
		registered = reg
		return nil
	})

	nav := newNavigator()
	nav.Handle(form.DestinationLogin, func(ctx context.Context) error {
		rememberUser(ctx, registered)
		Success("Account created for %s", registered.Username)
		if opts.NoInteractive {
			Info("Next: run 'honhon login --email %s' to sign in", registered.Email)
			return nil
		}
		fmt.Fprintln(colorOutput)
		return runLogin(ctx, &LoginOptions{Email: registered.Email}, svc)
	})

	controller := form.New(ruleset, registrar, nav)
	if err := presetForm(controller, opts); err != nil {
		return err
	}

	if opts.NoInteractive {
		res := controller.Submit(ctx)
		return reportResult(controller.State(), res, NewDataWriter(colorOutput, string(format)))
	}

	return fillInteractively(ctx, controller)
}

// presetForm copies flag values into the form and applies visibility
// preferences
func presetForm(c *form.Controller, opts *RegisterOptions) error {
	values := map[form.Field]string{
		form.FieldUsername:        opts.Username,
		form.FieldEmail:           opts.Email,
		form.FieldPassword:        opts.Password,
		form.FieldConfirmPassword: opts.ConfirmPassword,
	}
	for _, f := range form.Fields {
		if err := c.SetField(f, values[f]); err != nil {
			return err
		}
	}

	showAll := false
	if cfg, err := config.Load(); err == nil {
		showAll = cfg.Preferences.ShowPasswords
	}
	if opts.ShowPassword || showAll {
		if err := c.ToggleVisibility(form.FieldPassword); err != nil {
			return err
		}
	}
	if opts.ShowConfirmPassword || showAll {
		if err := c.ToggleVisibility(form.FieldConfirmPassword); err != nil {
			return err
		}
	}
	return nil
}

// rememberUser stores the new account so login can be prefilled
func rememberUser(ctx context.Context, reg form.Registration) {
	cfg, err := config.Load()
	if err != nil {
		ctxlog.FromContext(ctx).Warn("could not load user config", "error", err)
		return
	}
	err = cfg.SetLastUser(&config.UserInfo{
		Username:     reg.Username,
		Email:        reg.Email,
		RegisteredAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		ctxlog.FromContext(ctx).Warn("could not save user config", "error", err)
	}
}

// reportResult prints the outcome of a non-interactive submission
func reportResult(state form.State, res form.Result, dw *DataWriter) error {
	switch res.Outcome {
	case form.OutcomeRegistered:
		if res.Err != nil {
			return res.Err
		}
		if dw.Format() != OutputFormatTable {
			return dw.WriteStruct(resultView(state, res))
		}
		return nil

	case form.OutcomeInvalid, form.OutcomeSubmissionFailed:
		if dw.Format() != OutputFormatTable {
			if err := dw.WriteStruct(resultView(state, res)); err != nil {
				return err
			}
			return ErrRegistrationFailed
		}
		if state.SubmissionError != "" {
			Error("%s", state.SubmissionError)
		}
		if !state.Errors.Empty() {
			tb := NewTableBuilder("FIELD", "ERROR")
			for _, f := range form.Fields {
				if msg := state.Errors.Get(f); msg != "" {
					tb.AddRow(f.Label(), msg)
				}
			}
			if err := tb.Write(dw); err != nil {
				return err
			}
		}
		return ErrRegistrationFailed

	default:
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, res.Err)
	}
}

// registrationView is the machine readable form of a submission outcome
type registrationView struct {
	Outcome         string      `json:"outcome" yaml:"outcome"`
	Username        string      `json:"username,omitempty" yaml:"username,omitempty"`
	Email           string      `json:"email,omitempty" yaml:"email,omitempty"`
	Errors          form.Errors `json:"errors,omitempty" yaml:"errors,omitempty"`
	SubmissionError string      `json:"submission_error,omitempty" yaml:"submission_error,omitempty"`
}

func resultView(state form.State, res form.Result) registrationView {
	return registrationView{
		Outcome:         res.Outcome.String(),
		Username:        state.Username,
		Email:           state.Email,
		Errors:          state.Errors,
		SubmissionError: state.SubmissionError,
	}
}
