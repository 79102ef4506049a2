package domain

import (
	"errors"
	"regexp"
	"strings"
)

// Format is the lexical encoding of an identity number.
type Format string

const (
	FormatInvalid Format = "invalid"
	FormatLegacy  Format = "legacy"
	FormatModern  Format = "modern"
)

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// IsValid reports whether the format is one of the two recognised encodings.
func (f Format) IsValid() bool {
	return f == FormatLegacy || f == FormatModern
}

// Patterns are matched against the uppercased input, so the legacy suffix
// accepts v/x as well.
var (
	legacyPattern = regexp.MustCompile(`^[0-9]{9}[VX]$`)
	modernPattern = regexp.MustCompile(`^[0-9]{12}$`)
)

// ErrInvalidFormat indicates the input matches neither the legacy nor the modern pattern.
var ErrInvalidFormat = errors.New("invalid NIC format")

// Classify determines the encoding of raw. The input is not trimmed: callers
// that accept user input must trim it first.
func Classify(raw string) Format {
	upper := strings.ToUpper(raw)
	switch {
	case legacyPattern.MatchString(upper):
		return FormatLegacy
	case modernPattern.MatchString(upper):
		return FormatModern
	default:
		return FormatInvalid
	}
}

// Number is a classified identity number.
//
// Invariants:
//   - value is uppercased and matches the pattern of format
//   - format is never FormatInvalid for a non-zero Number
type Number struct {
	value  string
	format Format
}

// ParseNumber classifies raw and returns a Number, or ErrInvalidFormat.
func ParseNumber(raw string) (Number, error) {
	format := Classify(raw)
	if !format.IsValid() {
		return Number{}, ErrInvalidFormat
	}
	return Number{value: strings.ToUpper(raw), format: format}, nil
}

// MustNumber parses raw, panicking if invalid.
// Use only in tests or when the value is known to be valid.
func MustNumber(raw string) Number {
	n, err := ParseNumber(raw)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the normalised (uppercased) number.
func (n Number) String() string {
	return n.value
}

// Format returns the encoding of the number.
func (n Number) Format() Format {
	if n.IsZero() {
		return FormatInvalid
	}
	return n.format
}

// IsZero returns true if this is the zero value.
func (n Number) IsZero() bool {
	return n.value == ""
}

// fields holds the raw year and day code before decoding.
type fields struct {
	year    int // 2 digits for legacy, 4 for modern
	dayCode int
}

// extractFields slices the year and day code out of a classified number.
// The pattern match guarantees the slices are ASCII digits.
func (n Number) extractFields() fields {
	switch n.format {
	case FormatLegacy:
		return fields{year: digits(n.value[0:2]), dayCode: digits(n.value[2:5])}
	case FormatModern:
		return fields{year: digits(n.value[0:4]), dayCode: digits(n.value[4:7])}
	default:
		return fields{}
	}
}

func digits(s string) int {
	v := 0
	for i := 0; i < len(s); i++ {
		v = v*10 + int(s[i]-'0')
	}
	return v
}
