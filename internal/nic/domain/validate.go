package domain

import (
	"fmt"
	"time"
)

// DefaultDateTolerance absorbs the one-day drift seen between client-side
// date pickers and day-of-year arithmetic.
const DefaultDateTolerance = 1

// Failure reasons surfaced to callers.
const (
	ReasonInvalidFormat = "invalid NIC format"
	ReasonDateMismatch  = "input details are incorrect, can't do the id card validation"
)

// Claim is what the applicant says about themselves.
type Claim struct {
	IdentityNumber     string
	ClaimedGender      string
	ClaimedDateOfBirth string
}

// Outcome is the verdict of a validation.
type Outcome string

const (
	OutcomeValid   Outcome = "valid"
	OutcomeInvalid Outcome = "invalid"
)

// FailureKind classifies an invalid outcome.
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureFormat         FailureKind = "format_error"
	FailureGenderMismatch FailureKind = "gender_mismatch"
	FailureDateMismatch   FailureKind = "date_mismatch"
)

// IsMismatch reports whether the failure came from comparing a well-formed
// number against the claim.
func (k FailureKind) IsMismatch() bool {
	return k == FailureGenderMismatch || k == FailureDateMismatch
}

// Result is the outcome of cross-checking a Claim.
//
// Invariants:
//   - Reason and Failure are set iff Outcome is OutcomeInvalid
//   - Gender and DateOfBirth are set iff Format is valid
type Result struct {
	Outcome     Outcome
	Failure     FailureKind
	Reason      string
	Format      Format
	Gender      Gender
	DateOfBirth string
}

// Valid reports whether the claim matched the identity number.
func (r Result) Valid() bool {
	return r.Outcome == OutcomeValid
}

// Validator cross-checks claims against decoded identity numbers.
// The zero value is strict (no date tolerance); use NewValidator for defaults.
type Validator struct {
	dateTolerance int
}

// Option configures a Validator.
type Option func(*Validator)

// WithDateTolerance sets how many whole days a claimed date of birth may be
// off by. Negative values are treated as zero.
func WithDateTolerance(days int) Option {
	return func(v *Validator) {
		v.dateTolerance = max(days, 0)
	}
}

// NewValidator returns a Validator with DefaultDateTolerance unless overridden.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{dateTolerance: DefaultDateTolerance}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// DateTolerance returns the configured tolerance in days.
func (v *Validator) DateTolerance() int {
	return v.dateTolerance
}

var defaultValidator = NewValidator()

// Validate cross-checks claim using the default tolerance.
func Validate(claim Claim) Result {
	return defaultValidator.Validate(claim)
}

// Validate checks format, then gender, then date of birth, stopping at the
// first failure.
func (v *Validator) Validate(claim Claim) Result {
	derived := Decode(claim.IdentityNumber)
	if !derived.Valid {
		return Result{
			Outcome: OutcomeInvalid,
			Failure: FailureFormat,
			Reason:  ReasonInvalidFormat,
			Format:  FormatInvalid,
		}
	}

	result := Result{
		Format:      derived.Format(),
		Gender:      derived.Gender,
		DateOfBirth: derived.DateOfBirthString(),
	}

	if claim.ClaimedGender != derived.Gender.String() {
		result.Outcome = OutcomeInvalid
		result.Failure = FailureGenderMismatch
		result.Reason = fmt.Sprintf("gender mismatch: expected %s, received %s", derived.Gender, claim.ClaimedGender)
		return result
	}

	if !v.datesMatch(derived, claim.ClaimedDateOfBirth) {
		result.Outcome = OutcomeInvalid
		result.Failure = FailureDateMismatch
		result.Reason = ReasonDateMismatch
		return result
	}

	result.Outcome = OutcomeValid
	return result
}

func (v *Validator) datesMatch(derived DerivedIdentity, claimed string) bool {
	if claimed == derived.DateOfBirthString() {
		return true
	}
	claimedDate, err := time.Parse(DateLayout, claimed)
	if err != nil {
		return false
	}
	return DaysApart(derived.DateOfBirth, claimedDate) <= v.dateTolerance
}

// DaysApart returns the absolute distance between a and b in whole days,
// rounding partial days up.
func DaysApart(a, b time.Time) int {
	const day = 24 * time.Hour
	if a.Before(b) {
		a, b = b, a
	}
	// Sub saturates at the maximum Duration for dates centuries apart.
	d := a.Sub(b)
	days := d / day
	if d%day != 0 {
		days++
	}
	return int(days)
}
