package form

// Outcome classifies how a submission ended.
type Outcome int

const (
	// OutcomeRegistered means the account was created and navigation ran.
	OutcomeRegistered Outcome = iota + 1
	// OutcomeInvalid means at least one rule failed and nothing was sent.
	OutcomeInvalid
	// OutcomeSubmissionFailed means the registration request failed.
	OutcomeSubmissionFailed
	// OutcomeBusy means another submission was still in flight.
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRegistered:
		return "registered"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeSubmissionFailed:
		return "submission_failed"
	case OutcomeBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Result is the explicit outcome of Submit.
type Result struct {
	Outcome Outcome

	// Failures holds the validation failures of an invalid submission,
	// including any that could not be attributed to a field.
	Failures []Failure

	// Err is the registrar error for OutcomeSubmissionFailed, the ruleset
	// error when validation could not run, or a navigation error after a
	// successful registration.
	Err error
}

// OK reports whether the registration went through.
func (r Result) OK() bool {
	return r.Outcome == OutcomeRegistered
}
