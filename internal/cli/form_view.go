package cli

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"github.com/honhon-app/honhon-cli/internal/form"
)

// askOne is the prompt function; tests replace it to script answers
var askOne = survey.AskOne

var fieldHelp = map[form.Field]string{
	form.FieldUsername:        "Letters, numbers, dots and underscores",
	form.FieldEmail:           "The address you will sign in with",
	form.FieldPassword:        "At least 8 characters with an uppercase letter, a lowercase letter and a number",
	form.FieldConfirmPassword: "Type the same password again",
}

// fillInteractively runs the registration form in the terminal until the
// account is created or the user gives up
func fillInteractively(ctx context.Context, c *form.Controller) error {
	Info("Create Account")

	// Values given as flags are kept; ask for the rest
	var pending []form.Field
	state := c.State()
	for _, f := range form.Fields {
		if state.Get(f) == "" {
			pending = append(pending, f)
		}
	}

	for {
		for _, f := range pending {
			state = c.State()
			if msg := state.Errors.Get(f); msg != "" {
				Error("%s", msg)
			}
			value, err := promptField(f, state)
			if err != nil {
				return err
			}
			if err := c.SetField(f, value); err != nil {
				return err
			}
		}

		res := c.Submit(ctx)
		state = c.State()

		switch res.Outcome {
		case form.OutcomeRegistered:
			return res.Err

		case form.OutcomeInvalid:
			pending = fieldsToRetry(state)
			if len(pending) == 0 {
				if res.Err != nil {
					return fmt.Errorf("failed to check the form: %w", res.Err)
				}
				return fmt.Errorf("%w: the registration rules rejected the form", ErrRegistrationFailed)
			}
			fmt.Fprintln(colorOutput)
			Warn("Please fix the highlighted fields")

		case form.OutcomeSubmissionFailed:
			Error("%s", state.SubmissionError)
			pending = fieldsToRetry(state)
			if len(pending) > 0 {
				continue
			}
			retry := false
			if err := askOne(&survey.Confirm{Message: "Try again?", Default: true}, &retry); err != nil {
				return err
			}
			if !retry {
				return fmt.Errorf("%w: %v", ErrRegistrationFailed, res.Err)
			}

		default:
			return res.Err
		}
	}
}

// fieldsToRetry returns the fields to ask for again. A rejected
// confirmation re-asks the password as well, since a masked typo can sit in
// either one.
func fieldsToRetry(state form.State) []form.Field {
	var out []form.Field
	for _, f := range form.Fields {
		retry := state.Errors.Get(f) != ""
		if f == form.FieldPassword && state.Errors.ConfirmPassword != "" && !state.PasswordVisible {
			retry = true
		}
		if retry {
			out = append(out, f)
		}
	}
	return out
}

// promptField asks for one field, masking passwords unless their
// visibility is toggled on
func promptField(f form.Field, state form.State) (string, error) {
	var (
		prompt survey.Prompt
		value  string
	)

	message := f.Label() + ":"
	if f.Secret() && !state.Visible(f) {
		prompt = &survey.Password{Message: message, Help: fieldHelp[f]}
	} else {
		prompt = &survey.Input{Message: message, Default: state.Get(f), Help: fieldHelp[f]}
	}

	if err := askOne(prompt, &value); err != nil {
		return "", err
	}
	return value, nil
}
