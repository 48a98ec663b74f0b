package words

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/gw-docs/errs"
)

func TestToWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "Zero"},
		{"15", "Fifteen"},
		{"100", "One Hundred"},
		{"1234", "One Thousand Two Hundred Thirty Four"},
		{"46620", "Forty Six Thousand Six Hundred Twenty"},
		{"1000000", "One Million"},
		{"1000001", "One Million One"},
		{"2000300", "Two Million Three Hundred"},
		{"113500", "One Hundred Thirteen Thousand Five Hundred"},
		{"999999999999999", "Nine Hundred Ninety Nine Trillion Nine Hundred Ninety Nine Billion Nine Hundred Ninety Nine Million Nine Hundred Ninety Nine Thousand Nine Hundred Ninety Nine"},
		{"10.50", "Ten and Fifty Cents"},
		{"0.01", "Zero and One Cent"},
		{"12.345", "Twelve and Thirty Five Cents"},
		{"7.00", "Seven"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToWords(decimal.RequireFromString(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToWords_OutOfRange(t *testing.T) {
	_, err := ToWords(decimal.RequireFromString("-1"))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)

	// negative even though it rounds to zero
	_, err = ToWords(decimal.RequireFromString("-0.004"))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)

	_, err = ToWords(Limit)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)

	// rounds up into the limit
	_, err = ToWords(decimal.RequireFromString("999999999999999.999"))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
}

func TestInteger_NoDoubleSpaces(t *testing.T) {
	for _, n := range []uint64{10, 20, 101, 110, 1000, 1010, 100000, 1000000000} {
		s := Integer(n)
		assert.NotContains(t, s, "  ", "n=%d", n)
		assert.Equal(t, strings.TrimSpace(s), s, "n=%d", n)
	}
}
