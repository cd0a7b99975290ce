// Package form implements the registration form controller: transient field
// state, validation against a pluggable ruleset, a single registration call
// and navigation to the login view once the account exists.
package form

import "strings"

// Field identifies one validated input of the registration form.
type Field int

const (
	// FieldOther tags a name that does not belong to the form.
	FieldOther Field = iota
	FieldUsername
	FieldEmail
	FieldPassword
	FieldConfirmPassword
)

// Fields lists the form inputs in display order.
var Fields = []Field{FieldUsername, FieldEmail, FieldPassword, FieldConfirmPassword}

// ParseField resolves a wire name to its tag. Unknown names map to FieldOther.
func ParseField(name string) Field {
	switch strings.TrimSpace(name) {
	case "username":
		return FieldUsername
	case "email":
		return FieldEmail
	case "password":
		return FieldPassword
	case "confirmPassword", "confirm_password":
		return FieldConfirmPassword
	default:
		return FieldOther
	}
}

// String returns the wire name of the field.
func (f Field) String() string {
	switch f {
	case FieldUsername:
		return "username"
	case FieldEmail:
		return "email"
	case FieldPassword:
		return "password"
	case FieldConfirmPassword:
		return "confirmPassword"
	default:
		return "other"
	}
}

// Label returns the human readable name shown next to the input.
func (f Field) Label() string {
	switch f {
	case FieldUsername:
		return "Username"
	case FieldEmail:
		return "Email"
	case FieldPassword:
		return "Password"
	case FieldConfirmPassword:
		return "Confirm Password"
	default:
		return "Other"
	}
}

// Secret reports whether the field holds a password and is masked by default.
func (f Field) Secret() bool {
	return f == FieldPassword || f == FieldConfirmPassword
}
