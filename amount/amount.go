// Package amount derives the financial lines of a document from its
// SourceRecord: base or usage charges, tax, apportionment and the rounding
// adjustment. Pure functions, no I/O.
//
// Every displayed line is rounded to 2 decimal places. The total is the
// rounded sum of the unrounded components and the rounding line absorbs the
// difference, so the displayed lines always add up to the displayed total.
package amount

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/variant"
)

const Places = 2

var hundred = decimal.NewFromInt(100)

type LineKind string

const (
	KindBase      LineKind = "base"
	KindUsage     LineKind = "usage"
	KindBlock1    LineKind = "block1"
	KindBlock2    LineKind = "block2"
	KindTax       LineKind = "tax"
	KindApportion LineKind = "apportion"
	KindRounding  LineKind = "rounding"
)

type Line struct {
	Kind      LineKind
	Label     string
	Unrounded decimal.Decimal
	Amount    decimal.Decimal // displayed value
}

// Derived is the output of Compute.
type Derived struct {
	Components []Line // display order, rounding line excluded
	TaxRate    decimal.Decimal
	Reduction  bool
	Rounding   decimal.Decimal
	Total      decimal.Decimal
	Usage      *Usage // utility variants only
}

// Displayed returns the components followed by the rounding line when it is
// non-zero. Their Amounts add up to Total.
func (d Derived) Displayed() []Line {
	out := append([]Line(nil), d.Components...)
	if !d.Rounding.IsZero() {
		out = append(out, Line{Kind: KindRounding, Label: "Rounding", Unrounded: d.Rounding, Amount: d.Rounding})
	}
	return out
}

// Line returns the first component of the given kind.
func (d Derived) Line(kind LineKind) (Line, bool) {
	for _, l := range d.Components {
		if l.Kind == kind {
			return l, true
		}
	}
	return Line{}, false
}

// Subtotal is the displayed sum of the charge lines (everything before tax).
func (d Derived) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range d.Components {
		switch l.Kind {
		case KindBase, KindUsage, KindBlock1, KindBlock2:
			sum = sum.Add(l.Amount)
		}
	}
	return sum
}

// Reconciles reports whether Σ Displayed() == Total.
func (d Derived) Reconciles() bool {
	sum := decimal.Zero
	for _, l := range d.Displayed() {
		sum = sum.Add(l.Amount)
	}
	return sum.Equal(d.Total)
}

// Round - 2 places, half away from zero (half-up for the non-negative amounts
// the engine accepts as input).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

func line(kind LineKind, label string, unrounded decimal.Decimal) Line {
	return Line{Kind: kind, Label: label, Unrounded: unrounded, Amount: Round(unrounded)}
}

// Compute derives the amounts of one document. Errors carry no variant or
// identifier; the caller adds them with errs.WithContext.
func Compute(v variant.Variant, rec record.Record) (Derived, error) {
	p, err := variant.Lookup(v)
	if err != nil {
		return Derived{}, err
	}
	var d Derived

	switch p.Base {
	case variant.BaseFromField:
		base, err := nonNegative(rec, "base_amount")
		if err != nil {
			return Derived{}, err
		}
		d.Components = append(d.Components, line(KindBase, "Amount", base))
	case variant.BaseFromItems:
		base, err := sumItems(rec, p.RowsField)
		if err != nil {
			return Derived{}, err
		}
		d.Components = append(d.Components, line(KindBase, "Subtotal", base))
	case variant.BaseFromOvertime:
		base, err := sumOvertime(rec, p.RowsField)
		if err != nil {
			return Derived{}, err
		}
		d.Components = append(d.Components, line(KindBase, "Overtime Charge", base))
	case variant.BaseFromUsage:
		u, lines, err := computeUsage(p, rec)
		if err != nil {
			return Derived{}, err
		}
		d.Usage = u
		d.Components = append(d.Components, lines...)
	}

	taxable := decimal.Zero
	for _, l := range d.Components {
		taxable = taxable.Add(l.Unrounded)
	}

	if d.TaxRate, err = percent(rec, "tax_rate"); err != nil {
		return Derived{}, err
	}
	if d.Reduction, err = rec.Bool("reduction"); err != nil {
		return Derived{}, err
	}
	if d.TaxRate.IsPositive() {
		var tax decimal.Decimal
		if rec.Has("tax_amount") {
			if tax, err = nonNegative(rec, "tax_amount"); err != nil {
				return Derived{}, err
			}
		} else {
			tax = taxable.Mul(d.TaxRate).Div(hundred)
		}
		label := fmt.Sprintf("VAT %s%%", d.TaxRate.String())
		if d.Reduction {
			tax = tax.Neg()
			label = fmt.Sprintf("Withholding Tax %s%%", d.TaxRate.String())
		}
		d.Components = append(d.Components, line(KindTax, label, tax))
	}

	if rec.Has("apportion_base") || rec.Has("apportion_percent") {
		ab, err := nonNegative(rec, "apportion_base")
		if err != nil {
			return Derived{}, err
		}
		pct, err := percent(rec, "apportion_percent")
		if err != nil {
			return Derived{}, err
		}
		share := ab.Mul(pct).Div(hundred)
		d.Components = append(d.Components, line(KindApportion, fmt.Sprintf("Apportionment %s%%", pct.String()), share))
	}

	unrounded := decimal.Zero
	displayed := decimal.Zero
	for _, l := range d.Components {
		unrounded = unrounded.Add(l.Unrounded)
		displayed = displayed.Add(l.Amount)
	}
	d.Total = Round(unrounded)
	d.Rounding = d.Total.Sub(displayed)
	return d, nil
}

func nonNegative(rec record.Record, field string) (decimal.Decimal, error) {
	d, err := rec.Decimal(field)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errs.InvalidAmount(field, "negative amount "+d.String())
	}
	return d, nil
}

func percent(rec record.Record, field string) (decimal.Decimal, error) {
	d, err := nonNegative(rec, field)
	if err != nil {
		return decimal.Zero, err
	}
	if d.GreaterThan(hundred) {
		return decimal.Zero, errs.InvalidAmount(field, "percentage above 100: "+d.String())
	}
	return d, nil
}

// sumItems and sumOvertime add the rounded row amounts, so the printed rows
// add up to the base line.
func sumItems(rec record.Record, field string) (decimal.Decimal, error) {
	rows, err := rec.Rows(field)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for i, row := range rows {
		amt, err := nonNegative(row, "amount")
		if err != nil {
			return decimal.Zero, rowErr(err, field, i)
		}
		sum = sum.Add(Round(amt))
	}
	return sum, nil
}

func sumOvertime(rec record.Record, field string) (decimal.Decimal, error) {
	rows, err := rec.Rows(field)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for i, row := range rows {
		amt, err := OvertimeAmount(row)
		if err != nil {
			return decimal.Zero, rowErr(err, field, i)
		}
		sum = sum.Add(amt)
	}
	return sum, nil
}

// rowErr qualifies the field name of a row-level error, e.g. items[2].amount.
func rowErr(err error, field string, i int) error {
	e, ok := err.(*errs.Error)
	if !ok {
		return err
	}
	c := *e
	c.Field = fmt.Sprintf("%s[%d].%s", field, i, e.Field)
	return &c
}

// OvertimeAmount is hours × rate of a single overtime row, rounded for display.
func OvertimeAmount(row record.Record) (decimal.Decimal, error) {
	hours, err := nonNegative(row, "hours")
	if err != nil {
		return decimal.Zero, err
	}
	rate, err := nonNegative(row, "rate")
	if err != nil {
		return decimal.Zero, err
	}
	return Round(hours.Mul(rate)), nil
}

// ParseMethod maps a calculation-method code to a Method.
func ParseMethod(code string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(code)))
	switch m {
	case MethodDirect, MethodTiered, MethodLoadFactor:
		return m, nil
	}
	return "", errs.UnsupportedMethod(code)
}
