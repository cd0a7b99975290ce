package form

import "context"

// Failure is one rule violation reported by a Validator.
type Failure struct {
	// Name is the field name as reported by the ruleset.
	Name    string `json:"field"`
	Field   Field  `json:"-"`
	Message string `json:"message"`
}

// NewFailure builds a Failure, resolving the field tag from its name.
func NewFailure(name, message string) Failure {
	return Failure{Name: name, Field: ParseField(name), Message: message}
}

// Validator evaluates the registration ruleset. It returns every failure in
// rule order; an empty result means the values are acceptable. A non-nil
// error means the ruleset itself could not be evaluated.
type Validator interface {
	Validate(ctx context.Context, values Values) ([]Failure, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, values Values) ([]Failure, error)

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, values Values) ([]Failure, error) {
	return f(ctx, values)
}

// Registrar sends a registration to the registration service.
type Registrar interface {
	Register(ctx context.Context, reg Registration) error
}

// RegistrarFunc adapts a function to the Registrar interface.
type RegistrarFunc func(ctx context.Context, reg Registration) error

// Register calls f.
func (f RegistrarFunc) Register(ctx context.Context, reg Registration) error {
	return f(ctx, reg)
}

// Destination names a view the form can move the user to.
type Destination string

// DestinationLogin is the view shown after a successful registration.
const DestinationLogin Destination = "Login"

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(ctx context.Context, dest Destination) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, dest Destination) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, dest Destination) error {
	return f(ctx, dest)
}

// userMessager is implemented by registrar errors that carry text suitable
// for showing to the user.
type userMessager interface {
	UserMessage() string
}

// fieldErrorer is implemented by registrar errors that carry per-field
// rejections from the server, keyed by field name.
type fieldErrorer interface {
	FieldErrors() map[string]string
}
