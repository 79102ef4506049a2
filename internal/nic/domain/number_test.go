package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassify_Invariants validates the classification invariant:
// "only 9 digits + V/X or exactly 12 digits are recognised"
//
// Justification: classification is the trust boundary for every NIC the
// service sees; partial matches must never slip through.
func TestClassify_Invariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{"legacy uppercase V", "923455123V", FormatLegacy},
		{"legacy lowercase v", "923455123v", FormatLegacy},
		{"legacy uppercase X", "923455123X", FormatLegacy},
		{"legacy lowercase x", "923455123x", FormatLegacy},
		{"modern 12 digits", "199212312345", FormatModern},

		{"10 digits plus letter", "8812345678V", FormatInvalid},
		{"8 digits plus letter", "82370000V", FormatInvalid},
		{"9 digits without letter", "923455123", FormatInvalid},
		{"legacy with wrong letter", "923455123A", FormatInvalid},
		{"11 digits", "19921231234", FormatInvalid},
		{"13 digits", "1992123123456", FormatInvalid},
		{"modern with suffix letter", "199212312345V", FormatInvalid},
		{"leading whitespace", " 923455123V", FormatInvalid},
		{"trailing whitespace", "199212312345 ", FormatInvalid},
		{"trailing newline", "923455123V\n", FormatInvalid},
		{"empty", "", FormatInvalid},
		{"letters only", "ABCDEFGHIV", FormatInvalid},
		{"fullwidth digits", "９２３４５５１２３V", FormatInvalid},
		{"null byte", "92345\x005123V", FormatInvalid},
		{"oversized", strings.Repeat("1", 1000), FormatInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.input))
		})
	}
}

func TestParseNumber(t *testing.T) {
	t.Run("normalises legacy suffix to uppercase", func(t *testing.T) {
		n, err := ParseNumber("923455123v")
		require.NoError(t, err)
		assert.Equal(t, "923455123V", n.String())
		assert.Equal(t, FormatLegacy, n.Format())
		assert.False(t, n.IsZero())
	})

	t.Run("rejects invalid input with ErrInvalidFormat", func(t *testing.T) {
		n, err := ParseNumber("not-a-nic")
		require.ErrorIs(t, err, ErrInvalidFormat)
		assert.True(t, n.IsZero())
		assert.Equal(t, FormatInvalid, n.Format())
	})

	t.Run("MustNumber panics on invalid input", func(t *testing.T) {
		assert.Panics(t, func() { MustNumber("123") })
	})
}

func TestExtractFields(t *testing.T) {
	t.Run("legacy takes 2-digit year and positions 3-5", func(t *testing.T) {
		f := MustNumber("923455123V").extractFields()
		assert.Equal(t, 92, f.year)
		assert.Equal(t, 345, f.dayCode)
	})

	t.Run("modern takes 4-digit year and positions 5-7", func(t *testing.T) {
		f := MustNumber("199265123456").extractFields()
		assert.Equal(t, 1992, f.year)
		assert.Equal(t, 651, f.dayCode)
	})

	t.Run("leading zeros are preserved as numbers", func(t *testing.T) {
		f := MustNumber("050011234V").extractFields()
		assert.Equal(t, 5, f.year)
		assert.Equal(t, 1, f.dayCode)
	})
}
