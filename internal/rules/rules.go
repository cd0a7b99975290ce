// Package rules evaluates the registration ruleset, a CUE document that
// declares which values each form field accepts and the message to show
// when it does not.
package rules

import (
	"context"
	_ "embed"
	"os"
	"path/filepath"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pkg/errors"

	"github.com/honhon-app/honhon-cli/internal/ctxlog"
	"github.com/honhon-app/honhon-cli/internal/form"
)

//go:embed default.cue
var defaultRules []byte

var (
	inputPath  = cue.ParsePath("input")
	rulesPath  = cue.ParsePath("rules")
	limitsPath = cue.ParsePath("limits")
)

// Limits overrides the numeric bounds used by the rules. Zero members keep
// the value declared in the document.
type Limits struct {
	UsernameMin int `json:"usernameMin,omitempty" mapstructure:"username_min"`
	UsernameMax int `json:"usernameMax,omitempty" mapstructure:"username_max"`
	PasswordMin int `json:"passwordMin,omitempty" mapstructure:"password_min"`
}

// Ruleset is a compiled rules document. It implements form.Validator.
type Ruleset struct {
	name string

	// cue values share the context that built them, which is not safe for
	// concurrent use.
	mu    *sync.Mutex
	ctx   *cue.Context
	value cue.Value
}

var _ form.Validator = (*Ruleset)(nil)

// Default returns the ruleset embedded in the binary.
func Default() (*Ruleset, error) {
	return Load(defaultRules, "default.cue")
}

// LoadFile compiles the rules document at path.
func LoadFile(path string) (*Ruleset, error) {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path) // #nosec G304 - path is supplied by the user on purpose
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read rules file %s", path)
	}
	return Load(data, filepath.Base(path))
}

// Load compiles a rules document. The document must declare an input
// struct and a rules list.
func Load(src []byte, name string) (*Ruleset, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, errors.Wrapf(err, "invalid rules document %s", name)
	}
	if !value.LookupPath(inputPath).Exists() {
		return nil, errors.Errorf("rules document %s does not declare input", name)
	}
	if !value.LookupPath(rulesPath).Exists() {
		return nil, errors.Errorf("rules document %s does not declare rules", name)
	}
	if err := value.Validate(); err != nil {
		return nil, errors.Wrapf(err, "rules document %s does not validate", name)
	}

	return &Ruleset{
		name:  name,
		mu:    &sync.Mutex{},
		ctx:   ctx,
		value: value,
	}, nil
}

// Name returns the file name the ruleset was compiled from.
func (r *Ruleset) Name() string {
	return r.name
}

// WithLimits returns a copy of the ruleset with the given bounds applied.
func (r *Ruleset) WithLimits(l Limits) (*Ruleset, error) {
	if l.UsernameMin < 0 || l.UsernameMax < 0 || l.PasswordMin < 0 {
		return nil, errors.New("rule limits must not be negative")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	value := r.value
	fill := func(key string, n int) {
		if n > 0 {
			value = value.FillPath(cue.MakePath(append(limitsPath.Selectors(), cue.Str(key))...), n)
		}
	}
	fill("usernameMin", l.UsernameMin)
	fill("usernameMax", l.UsernameMax)
	fill("passwordMin", l.PasswordMin)

	if err := value.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid rule limits")
	}

	applied := Limits{}
	if err := value.LookupPath(limitsPath).Decode(&applied); err != nil {
		return nil, errors.Wrap(err, "failed to read rule limits")
	}
	if applied.UsernameMax > 0 && applied.UsernameMin > applied.UsernameMax {
		return nil, errors.Errorf("username minimum %d exceeds maximum %d", applied.UsernameMin, applied.UsernameMax)
	}

	return &Ruleset{name: r.name, mu: r.mu, ctx: r.ctx, value: value}, nil
}

// Limits returns the bounds the ruleset currently applies.
func (r *Ruleset) Limits() (Limits, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var l Limits
	limits := r.value.LookupPath(limitsPath)
	if !limits.Exists() {
		return l, nil
	}
	if err := limits.Decode(&l); err != nil {
		return l, errors.Wrap(err, "failed to read rule limits")
	}
	return l, nil
}

// Validate checks values against every rule, in document order, and returns
// the first failing rule of each field.
func (r *Ruleset) Validate(ctx context.Context, values form.Values) ([]form.Failure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filled := r.value.FillPath(inputPath, values)
	if err := filled.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to apply form values")
	}

	iter, err := filled.LookupPath(rulesPath).List()
	if err != nil {
		return nil, errors.Wrap(err, "rules is not a list")
	}

	var failures []form.Failure
	failed := make(map[string]bool)
	for i := 0; iter.Next(); i++ {
		rule := iter.Value()

		field, err := rule.LookupPath(cue.ParsePath("field")).String()
		if err != nil {
			return nil, errors.Wrapf(err, "rule %d: field", i)
		}
		if failed[field] {
			continue
		}

		ok, err := rule.LookupPath(cue.ParsePath("ok")).Bool()
		if err != nil {
			return nil, errors.Wrapf(err, "rule %d (%s): ok", i, field)
		}
		if ok {
			continue
		}

		message, err := rule.LookupPath(cue.ParsePath("message")).String()
		if err != nil {
			return nil, errors.Wrapf(err, "rule %d (%s): message", i, field)
		}

		failed[field] = true
		failures = append(failures, form.NewFailure(field, message))
	}

	ctxlog.FromContext(ctx).Debug("registration rules evaluated",
		"ruleset", r.name, "failures", len(failures))

	return failures, nil
}
