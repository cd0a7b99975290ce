package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/honhon-app/honhon-cli/internal/ctxlog"
)

var (
	// ErrUnknownField is returned when a field name is not part of the form.
	ErrUnknownField = errors.New("unknown form field")

	// ErrNotToggleable is returned when toggling visibility of a non-password field.
	ErrNotToggleable = errors.New("field has no visibility toggle")

	// ErrSubmitInProgress is carried by a Busy result.
	ErrSubmitInProgress = errors.New("registration already in progress")
)

// Controller owns the state of one registration form session.
type Controller struct {
	validator Validator
	registrar Registrar
	navigator Navigator

	mu         sync.Mutex
	state      State
	submitting bool
}

// New creates a controller with an empty form.
func New(validator Validator, registrar Registrar, navigator Navigator) *Controller {
	return &Controller{
		validator: validator,
		registrar: registrar,
		navigator: navigator,
	}
}

// State returns a copy of the current form state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submitting reports whether a registration request is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// SetField overwrites the value of a field. No validation happens here.
func (c *Controller) SetField(f Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Values.set(f, value) {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	return nil
}

// SetFieldByName resolves name and overwrites that field's value.
func (c *Controller) SetFieldByName(name, value string) error {
	f := ParseField(name)
	if f == FieldOther {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return c.SetField(f, value)
}

// ToggleVisibility flips the masking flag of a password field.
func (c *Controller) ToggleVisibility(f Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch f {
	case FieldPassword:
		c.state.PasswordVisible = !c.state.PasswordVisible
	case FieldConfirmPassword:
		c.state.ConfirmPasswordVisible = !c.state.ConfirmPasswordVisible
	default:
		return fmt.Errorf("%w: %s", ErrNotToggleable, f)
	}
	return nil
}

// Submit validates the form and, when every rule passes, registers the
// account and navigates to the login view.
//
// Error slots are cleared before validation, so a result never shows
// messages from an earlier attempt.
func (c *Controller) Submit(ctx context.Context) Result {
	logger := ctxlog.FromContext(ctx)

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return Result{Outcome: OutcomeBusy, Err: ErrSubmitInProgress}
	}
	c.submitting = true
	c.state.Errors = Errors{}
	c.state.SubmissionError = ""
	values := c.state.Values
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	failures, err := c.validator.Validate(ctx, values)
	if err != nil {
		logger.Error("registration rules could not be evaluated", "error", err)
		c.mu.Lock()
		c.state.SubmissionError = "The form could not be checked, please try again"
		c.mu.Unlock()
		return Result{Outcome: OutcomeInvalid, Err: err}
	}

	if len(failures) > 0 {
		c.mu.Lock()
		c.applyFailures(ctx, failures)
		c.mu.Unlock()
		return Result{Outcome: OutcomeInvalid, Failures: failures}
	}

	reg := Registration{
		Username: values.Username,
		Email:    values.Email,
		Password: values.Password,
	}
	logger.Debug("submitting registration", "username", reg.Username, "email", reg.Email)

	if err := c.registrar.Register(ctx, reg); err != nil {
		logger.Warn("registration request failed", "error", err)
		c.mu.Lock()
		c.state.SubmissionError = submissionMessage(err)
		var fe fieldErrorer
		if errors.As(err, &fe) {
			c.applyFailures(ctx, serverFailures(fe.FieldErrors()))
		}
		c.mu.Unlock()
		return Result{Outcome: OutcomeSubmissionFailed, Err: err}
	}

	logger.Info("registration succeeded", "username", reg.Username)

	if err := c.navigator.Navigate(ctx, DestinationLogin); err != nil {
		return Result{Outcome: OutcomeRegistered, Err: fmt.Errorf("navigate to %s: %w", DestinationLogin, err)}
	}
	return Result{Outcome: OutcomeRegistered}
}

// applyFailures writes failures into the error slots, resolving each
// failure's field from its name. The first failure for a field wins and
// later ones for the same field are ignored, so rule order decides which
// message is shown. Callers must hold c.mu.
func (c *Controller) applyFailures(ctx context.Context, failures []Failure) {
	logger := ctxlog.FromContext(ctx)
	for _, f := range failures {
		field := resolveField(f)
		if field == FieldOther {
			logger.Warn("dropping failure for unknown field", "field", f.Name, "message", f.Message)
			continue
		}
		if c.state.Errors.Get(field) != "" {
			continue
		}
		c.state.Errors.set(field, f.Message)
	}
}

// resolveField returns the field a failure belongs to. The name decides;
// the tag is only used when no name was reported.
func resolveField(f Failure) Field {
	if f.Name == "" {
		return f.Field
	}
	return ParseField(f.Name)
}

func serverFailures(fields map[string]string) []Failure {
	failures := make([]Failure, 0, len(fields))
	// Walk the known fields first so the result order is stable.
	for _, f := range Fields {
		if msg, ok := fields[f.String()]; ok {
			failures = append(failures, Failure{Name: f.String(), Field: f, Message: msg})
		}
	}
	for name, msg := range fields {
		if f := ParseField(name); f == FieldOther || f.String() != name {
			failures = append(failures, NewFailure(name, msg))
		}
	}
	return failures
}

func submissionMessage(err error) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return "Registration failed, please try again"
}
