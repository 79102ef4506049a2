package domain

import "time"

// Gender is the holder's gender as encoded in the day code.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// String returns the lowercase gender token.
func (g Gender) String() string {
	return string(g)
}

const (
	femaleDayOffset = 500
	// legacyCenturyPivot: two-digit years below the pivot belong to the 2000s.
	legacyCenturyPivot = 50
	// DateLayout is the wire format for dates of birth.
	DateLayout = "2006-01-02"
)

// DecodeDayCode splits a day code into gender and day of year. Out-of-range
// days are returned as-is; ComposeDate rolls them into neighbouring years.
func DecodeDayCode(dayCode int) (Gender, int) {
	if dayCode > femaleDayOffset {
		return GenderFemale, dayCode - femaleDayOffset
	}
	return GenderMale, dayCode
}

// ResolveYear maps a legacy two-digit year onto a four-digit year.
func ResolveYear(twoDigit int) int {
	if twoDigit < legacyCenturyPivot {
		return 2000 + twoDigit
	}
	return 1900 + twoDigit
}

// ComposeDate returns midnight UTC of the dayOfYear-th day (1-based) of year.
// Days beyond the end of the year continue into the next one.
func ComposeDate(year, dayOfYear int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return jan1.AddDate(0, 0, dayOfYear-1)
}

// DerivedIdentity is what an identity number says about its holder.
// Gender and DateOfBirth are zero when Valid is false.
type DerivedIdentity struct {
	Number      Number
	Gender      Gender
	DateOfBirth time.Time
	Valid       bool
}

// DateOfBirthString formats the date of birth as YYYY-MM-DD, or "" when invalid.
func (d DerivedIdentity) DateOfBirthString() string {
	if !d.Valid {
		return ""
	}
	return d.DateOfBirth.Format(DateLayout)
}

// Format returns the encoding of the decoded number.
func (d DerivedIdentity) Format() Format {
	return d.Number.Format()
}

// Decode classifies raw and derives gender and date of birth from it.
func Decode(raw string) DerivedIdentity {
	n, err := ParseNumber(raw)
	if err != nil {
		return DerivedIdentity{}
	}
	return n.Decode()
}

// Decode derives gender and date of birth from a classified number.
func (n Number) Decode() DerivedIdentity {
	if n.IsZero() {
		return DerivedIdentity{}
	}
	f := n.extractFields()
	year := f.year
	if n.format == FormatLegacy {
		year = ResolveYear(f.year)
	}
	gender, dayOfYear := DecodeDayCode(f.dayCode)
	return DerivedIdentity{
		Number:      n,
		Gender:      gender,
		DateOfBirth: ComposeDate(year, dayOfYear),
		Valid:       true,
	}
}
