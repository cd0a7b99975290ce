package form

// Values holds the raw strings typed into the form.
type Values struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Get returns the value of a field.
func (v Values) Get(f Field) string {
	switch f {
	case FieldUsername:
		return v.Username
	case FieldEmail:
		return v.Email
	case FieldPassword:
		return v.Password
	case FieldConfirmPassword:
		return v.ConfirmPassword
	default:
		return ""
	}
}

func (v *Values) set(f Field, value string) bool {
	switch f {
	case FieldUsername:
		v.Username = value
	case FieldEmail:
		v.Email = value
	case FieldPassword:
		v.Password = value
	case FieldConfirmPassword:
		v.ConfirmPassword = value
	default:
		return false
	}
	return true
}

// Errors holds one message slot per field. An empty slot means no error.
type Errors struct {
	Username        string `json:"username,omitempty" yaml:"username,omitempty"`
	Email           string `json:"email,omitempty" yaml:"email,omitempty"`
	Password        string `json:"password,omitempty" yaml:"password,omitempty"`
	ConfirmPassword string `json:"confirmPassword,omitempty" yaml:"confirmPassword,omitempty"`
}

// Get returns the message in a field's slot.
func (e Errors) Get(f Field) string {
	switch f {
	case FieldUsername:
		return e.Username
	case FieldEmail:
		return e.Email
	case FieldPassword:
		return e.Password
	case FieldConfirmPassword:
		return e.ConfirmPassword
	default:
		return ""
	}
}

// Empty reports whether every slot is clear.
func (e Errors) Empty() bool {
	return e == Errors{}
}

func (e *Errors) set(f Field, msg string) bool {
	switch f {
	case FieldUsername:
		e.Username = msg
	case FieldEmail:
		e.Email = msg
	case FieldPassword:
		e.Password = msg
	case FieldConfirmPassword:
		e.ConfirmPassword = msg
	default:
		return false
	}
	return true
}

// State is the registration form as the view sees it. It lives as long as
// the controller that owns it and is never persisted.
type State struct {
	Values

	PasswordVisible        bool `json:"passwordVisible"`
	ConfirmPasswordVisible bool `json:"confirmPasswordVisible"`

	Errors Errors `json:"errors"`

	// SubmissionError is set when the registration request itself failed.
	SubmissionError string `json:"submissionError,omitempty"`
}

// Visible reports whether a password field is currently shown unmasked.
// Non-secret fields are always visible.
func (s State) Visible(f Field) bool {
	switch f {
	case FieldPassword:
		return s.PasswordVisible
	case FieldConfirmPassword:
		return s.ConfirmPasswordVisible
	default:
		return true
	}
}

// Registration is the payload sent to the registration service.
// The confirmation password stays on the client.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
