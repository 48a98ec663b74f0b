package amount

import (
	"github.com/shopspring/decimal"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/variant"
)

// Method - calculation-method code of a utility charge
type Method string

const (
	MethodDirect     Method = "DIRECT"      // usage × rate
	MethodTiered     Method = "TIERED"      // two blocks split at a threshold
	MethodLoadFactor Method = "LOAD_FACTOR" // usage, but at least MinimumUsageHours × capacity
)

// Usage is the metering breakdown printed on utility reference sheets.
type Usage struct {
	Method     Method
	Previous   decimal.Decimal
	Current    decimal.Decimal
	Multiplier decimal.Decimal
	Usage      decimal.Decimal // (Current − Previous) × Multiplier
	Capacity   decimal.Decimal
	Threshold  decimal.Decimal // TIERED only
	Billed     decimal.Decimal // LOAD_FACTOR: max(Usage, minimum)
	Rate1      decimal.Decimal
	Rate2      decimal.Decimal // TIERED only
}

// Tiered splits usage into two blocks at threshold.
// block 1 = min(usage, threshold) × rate1, block 2 = max(usage − threshold, 0) × rate2
func Tiered(usage, threshold, rate1, rate2 decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	first := decimal.Min(usage, threshold)
	excess := decimal.Max(usage.Sub(threshold), decimal.Zero)
	return first.Mul(rate1), excess.Mul(rate2)
}

func computeUsage(p variant.Profile, rec record.Record) (*Usage, []Line, error) {
	code, err := rec.String("method")
	if err != nil {
		return nil, nil, err
	}
	method, err := ParseMethod(code)
	if err != nil {
		return nil, nil, err
	}
	u := &Usage{Method: method}
	if u.Previous, err = nonNegative(rec, "meter_previous"); err != nil {
		return nil, nil, err
	}
	if u.Current, err = nonNegative(rec, "meter_current"); err != nil {
		return nil, nil, err
	}
	if u.Current.LessThan(u.Previous) {
		return nil, nil, errs.InvalidAmount("meter_current", "reading below previous reading "+u.Previous.String())
	}
	if u.Multiplier, err = nonNegative(rec, "multiplier"); err != nil {
		return nil, nil, err
	}
	if u.Rate1, err = nonNegative(rec, "rate"); err != nil {
		return nil, nil, err
	}
	if u.Capacity, err = rec.DecimalOr("capacity", decimal.NewFromInt(1)); err != nil {
		return nil, nil, err
	}
	if u.Capacity.IsNegative() {
		return nil, nil, errs.InvalidAmount("capacity", "negative capacity "+u.Capacity.String())
	}
	u.Usage = u.Current.Sub(u.Previous).Mul(u.Multiplier)
	minimum := p.MinimumUsageHours.Mul(u.Capacity)

	switch method {
	case MethodDirect:
		u.Billed = u.Usage
		return u, []Line{line(KindUsage, "Usage Charge", u.Usage.Mul(u.Rate1))}, nil

	case MethodTiered:
		if u.Rate2, err = nonNegative(rec, "rate_block2"); err != nil {
			return nil, nil, err
		}
		if u.Threshold, err = rec.DecimalOr("threshold", minimum); err != nil {
			return nil, nil, err
		}
		if u.Threshold.IsNegative() {
			return nil, nil, errs.InvalidAmount("threshold", "negative threshold "+u.Threshold.String())
		}
		u.Billed = u.Usage
		b1, b2 := Tiered(u.Usage, u.Threshold, u.Rate1, u.Rate2)
		return u, []Line{
			line(KindBlock1, "Block 1", b1),
			line(KindBlock2, "Block 2", b2),
		}, nil

	case MethodLoadFactor:
		if !u.Capacity.IsPositive() {
			return nil, nil, errs.InvalidAmount("capacity", "load factor needs a positive capacity")
		}
		u.Billed = decimal.Max(u.Usage, minimum)
		return u, []Line{line(KindUsage, "Usage Charge", u.Billed.Mul(u.Rate1))}, nil
	}
	return nil, nil, errs.UnsupportedMethod(code)
}

// LoadFactorHours is usage per unit of capacity; zero when capacity is zero.
func (u *Usage) LoadFactorHours() decimal.Decimal {
	if u == nil || u.Capacity.IsZero() {
		return decimal.Zero
	}
	return u.Usage.DivRound(u.Capacity, Places)
}
