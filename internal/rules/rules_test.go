package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honhon-app/honhon-cli/internal/form"
)

func validValues() form.Values {
	return form.Values{
		Username:        "alice",
		Email:           "a@b.com",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
	}
}

func TestDefaultRules(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "default.cue", rs.Name())

	tests := []struct {
		name   string
		mutate func(v *form.Values)
		want   []form.Failure
	}{
		{
			name:   "valid",
			mutate: func(v *form.Values) {},
			want:   nil,
		},
		{
			name:   "empty username reports required only",
			mutate: func(v *form.Values) { v.Username = "" },
			want:   []form.Failure{form.NewFailure("username", "Username is required")},
		},
		{
			name:   "short username",
			mutate: func(v *form.Values) { v.Username = "al" },
			want:   []form.Failure{form.NewFailure("username", "Username must be between 3 and 20 characters")},
		},
		{
			name:   "username with spaces",
			mutate: func(v *form.Values) { v.Username = "alice smith" },
			want:   []form.Failure{form.NewFailure("username", "Username may only contain letters, numbers, dots and underscores")},
		},
		{
			name:   "malformed email",
			mutate: func(v *form.Values) { v.Email = "alice@" },
			want:   []form.Failure{form.NewFailure("email", "Email must be a valid email address")},
		},
		{
			name:   "blank email",
			mutate: func(v *form.Values) { v.Email = "   " },
			want:   []form.Failure{form.NewFailure("email", "Email is required")},
		},
		{
			name: "weak password",
			mutate: func(v *form.Values) {
				v.Password = "secret123"
				v.ConfirmPassword = "secret123"
			},
			want: []form.Failure{form.NewFailure("password", "Password must contain an uppercase letter, a lowercase letter and a number")},
		},
		{
			name: "short password",
			mutate: func(v *form.Values) {
				v.Password = "Ab1"
				v.ConfirmPassword = "Ab1"
			},
			want: []form.Failure{form.NewFailure("password", "Password must be at least 8 characters")},
		},
		{
			name:   "mismatched confirmation",
			mutate: func(v *form.Values) { v.ConfirmPassword = "Mismatch1" },
			want:   []form.Failure{form.NewFailure("confirmPassword", "Passwords must match")},
		},
		{
			name:   "missing confirmation",
			mutate: func(v *form.Values) { v.ConfirmPassword = "" },
			want:   []form.Failure{form.NewFailure("confirmPassword", "Please confirm your password")},
		},
		{
			name:   "everything empty reports every field",
			mutate: func(v *form.Values) { *v = form.Values{} },
			want: []form.Failure{
				form.NewFailure("username", "Username is required"),
				form.NewFailure("email", "Email is required"),
				form.NewFailure("password", "Password is required"),
				form.NewFailure("confirmPassword", "Please confirm your password"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validValues()
			tt.mutate(&values)

			got, err := rs.Validate(context.Background(), values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithLimits(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	limits, err := rs.Limits()
	require.NoError(t, err)
	assert.Equal(t, Limits{UsernameMin: 3, UsernameMax: 20, PasswordMin: 8}, limits)

	strict, err := rs.WithLimits(Limits{UsernameMin: 6, PasswordMin: 12})
	require.NoError(t, err)

	limits, err = strict.Limits()
	require.NoError(t, err)
	assert.Equal(t, Limits{UsernameMin: 6, UsernameMax: 20, PasswordMin: 12}, limits)

	got, err := strict.Validate(context.Background(), validValues())
	require.NoError(t, err)
	assert.Equal(t, []form.Failure{
		form.NewFailure("username", "Username must be between 6 and 20 characters"),
		form.NewFailure("password", "Password must be at least 12 characters"),
	}, got)

	// The original ruleset is unchanged.
	got, err = rs.Validate(context.Background(), validValues())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWithLimits_Invalid(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	_, err = rs.WithLimits(Limits{UsernameMin: -1})
	assert.Error(t, err)

	_, err = rs.WithLimits(Limits{UsernameMin: 30, UsernameMax: 10})
	assert.Error(t, err)
}

func TestWithLimits_LargeBounds(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	wide, err := rs.WithLimits(Limits{UsernameMax: 2000, PasswordMin: 1500})
	require.NoError(t, err)

	values := validValues()
	values.Username = "a_username_longer_than_twenty_characters"
	got, err := wide.Validate(context.Background(), values)
	require.NoError(t, err)
	assert.Equal(t, []form.Failure{
		form.NewFailure("password", "Password must be at least 1500 characters"),
	}, got)
}

func TestValidate_LengthCountsRunes(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
	}{
		{name: "newline inside password", password: "Secret12\n3"},
		{name: "multi-byte characters", password: "Sécrét1ü"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validValues()
			values.Password = tt.password
			values.ConfirmPassword = tt.password

			got, err := rs.Validate(context.Background(), values)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}

	// Seven runes but more than eight bytes is still too short
	values := validValues()
	values.Password = "Sécré1ü"
	values.ConfirmPassword = values.Password
	got, err := rs.Validate(context.Background(), values)
	require.NoError(t, err)
	assert.Equal(t, []form.Failure{
		form.NewFailure("password", "Password must be at least 8 characters"),
	}, got)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "syntax error", src: `rules: [`},
		{name: "missing input", src: `rules: []`},
		{name: "missing rules", src: `input: {username: string}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.src), "bad.cue")
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_CustomRules(t *testing.T) {
	src := `
input: {
	username:        string
	email:           string
	password:        string
	confirmPassword: string
}
rules: [
	{field: "nickname", message: "Nickname is reserved", ok: false},
	{field: "email", message: "Only example.org addresses", ok: input.email =~ "@example\\.org$"},
]
`
	path := filepath.Join(t.TempDir(), "custom.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))

	rs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom.cue", rs.Name())

	got, err := rs.Validate(context.Background(), validValues())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, form.FieldOther, got[0].Field)
	assert.Equal(t, "nickname", got[0].Name)
	assert.Equal(t, form.FieldEmail, got[1].Field)

	limits, err := rs.Limits()
	require.NoError(t, err)
	assert.Equal(t, Limits{}, limits)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.cue"))
	assert.Error(t, err)
}

func TestValidate_NonBoolRule(t *testing.T) {
	src := `
input: {username: string, email: string, password: string, confirmPassword: string}
rules: [{field: "username", message: "broken", ok: input.username}]
`
	rs, err := Load([]byte(src), "broken.cue")
	require.NoError(t, err)

	_, err = rs.Validate(context.Background(), validValues())
	assert.Error(t, err)
}
