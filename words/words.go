// Package words spells amounts out in English for the "Amount in words" line.
package words

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zeptools/gw-docs/errs"
)

var ones = [...]string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = [...]string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// scales index by 3-digit group, least significant first
var scales = [...]string{"", "Thousand", "Million", "Billion", "Trillion"}

// Limit is the first amount ToWords refuses (10^15).
var Limit = decimal.New(1, 15)

// ToWords spells d, rounded to 2 places, in title-cased English words.
// Non-zero cents are appended as "and N Cent(s)". Negative amounts and
// amounts of Limit or above are rejected with InvalidAmount.
func ToWords(d decimal.Decimal) (string, error) {
	if d.IsNegative() {
		return "", errs.InvalidAmount("amount", "negative amount "+d.String())
	}
	d = d.Round(2)
	if d.GreaterThanOrEqual(Limit) {
		return "", errs.InvalidAmount("amount", "amount out of range "+d.String())
	}
	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()

	out := Integer(uint64(whole.IntPart()))
	if cents > 0 {
		unit := "Cents"
		if cents == 1 {
			unit = "Cent"
		}
		out += " and " + Integer(uint64(cents)) + " " + unit
	}
	return out, nil
}

// Integer spells a whole number below 10^15.
func Integer(n uint64) string {
	if n == 0 {
		return "Zero"
	}
	var groups []string
	for i := 0; n > 0 && i < len(scales); i++ {
		chunk := n % 1000
		n /= 1000
		if chunk == 0 {
			continue
		}
		g := hundreds(int(chunk))
		if scales[i] != "" {
			g += " " + scales[i]
		}
		groups = append(groups, g)
	}
	// reverse: most significant group first
	for l, r := 0, len(groups)-1; l < r; l, r = l+1, r-1 {
		groups[l], groups[r] = groups[r], groups[l]
	}
	return strings.Join(groups, " ")
}

func hundreds(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	switch {
	case n == 0:
	case n < 20:
		parts = append(parts, ones[n])
	default:
		parts = append(parts, tens[n/10])
		if n%10 != 0 {
			parts = append(parts, ones[n%10])
		}
	}
	return strings.Join(parts, " ")
}
