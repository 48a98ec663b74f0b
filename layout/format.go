package layout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount - 2 places with thousands separators: 1234567.5 -> "1,234,567.50".
// Negative amounts keep their sign: "-2,000.00".
func FormatAmount(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if d.IsNegative() && !d.Round(2).IsZero() {
		b.WriteByte('-')
	}
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatMoney prefixes the currency code: "IDR 113,500.00".
func FormatMoney(currency string, d decimal.Decimal) string {
	return currency + " " + FormatAmount(d)
}

// FormatQuantity trims trailing zeros: 10.50 -> "10.5", 200 -> "200".
func FormatQuantity(d decimal.Decimal) string {
	return d.String()
}

func FormatDate(t time.Time) string {
	return t.Format("02 January 2006")
}

// FormatShortDate - for table cells: "03 Feb 2024"
func FormatShortDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}
