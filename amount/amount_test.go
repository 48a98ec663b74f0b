package amount

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/variant"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func manual(fields map[string]any) record.Record {
	base := record.Record{
		"doc_no":           "INV-001",
		"doc_date":         "2024-03-01",
		"customer_name":    "PT Example",
		"customer_address": "Jl. Sudirman 1",
		"due_date":         "2024-03-31",
		"description":      "Service charge",
		"base_amount":      "100000",
		"tax_rate":         "11",
	}
	return base.With(fields)
}

func water(fields map[string]any) record.Record {
	base := record.Record{
		"doc_no":         "WTR-001",
		"doc_date":       "2024-03-01",
		"customer_name":  "PT Example",
		"unit":           "A-101",
		"period":         "2024-02",
		"meter_previous": 100,
		"meter_current":  110,
		"multiplier":     1,
		"method":         "TIERED",
		"rate":           "5000",
		"rate_block2":    "7500",
		"tax_rate":       0,
	}
	return base.With(fields)
}

func TestCompute_ReconcilesExample(t *testing.T) {
	d, err := Compute(variant.Manual, manual(map[string]any{
		"apportion_base":    "5000",
		"apportion_percent": "50",
	}))
	require.NoError(t, err)

	tax, ok := d.Line(KindTax)
	require.True(t, ok)
	assert.True(t, tax.Amount.Equal(dec("11000")), "tax %s", tax.Amount)

	share, ok := d.Line(KindApportion)
	require.True(t, ok)
	assert.True(t, share.Amount.Equal(dec("2500")), "apportion %s", share.Amount)

	assert.True(t, d.Total.Equal(dec("113500")), "total %s", d.Total)
	assert.True(t, d.Rounding.IsZero())
	assert.True(t, d.Reconciles())
}

func TestCompute_RoundingLineAbsorbsResidual(t *testing.T) {
	d, err := Compute(variant.Manual, manual(map[string]any{
		"base_amount":       "10.005",
		"tax_rate":          "0",
		"apportion_base":    "0.01",
		"apportion_percent": "50",
	}))
	require.NoError(t, err)

	// 10.005 -> 10.01 and 0.005 -> 0.01 display as 10.02, but the total of
	// the unrounded parts is 10.01.
	assert.True(t, d.Total.Equal(dec("10.01")), "total %s", d.Total)
	assert.True(t, d.Rounding.Equal(dec("-0.01")), "rounding %s", d.Rounding)
	assert.True(t, d.Reconciles())

	last := d.Displayed()[len(d.Displayed())-1]
	assert.Equal(t, KindRounding, last.Kind)
}

func TestCompute_ReconcilesRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		base := decimal.New(rng.Int63n(10_000_000_000), -3)
		rate := decimal.New(rng.Int63n(2000), -2)
		ab := decimal.New(rng.Int63n(100_000_000), -3)
		pct := decimal.New(rng.Int63n(10000), -2)
		d, err := Compute(variant.Manual, manual(map[string]any{
			"base_amount":       base.String(),
			"tax_rate":          rate.String(),
			"apportion_base":    ab.String(),
			"apportion_percent": pct.String(),
			"reduction":         i%7 == 0,
		}))
		require.NoError(t, err)
		require.True(t, d.Reconciles(), "base=%s rate=%s ab=%s pct=%s", base, rate, ab, pct)
		for _, l := range d.Displayed() {
			require.True(t, l.Amount.Equal(l.Amount.Round(Places)), "%s not rounded: %s", l.Label, l.Amount)
		}
	}
}

func TestCompute_VATOmittedAtZeroRate(t *testing.T) {
	d, err := Compute(variant.Manual, manual(map[string]any{"tax_rate": "0"}))
	require.NoError(t, err)
	_, ok := d.Line(KindTax)
	assert.False(t, ok)
	assert.True(t, d.Total.Equal(dec("100000")))
}

func TestCompute_ExplicitTaxAmountWins(t *testing.T) {
	d, err := Compute(variant.Manual, manual(map[string]any{"tax_amount": "10999.50"}))
	require.NoError(t, err)
	tax, _ := d.Line(KindTax)
	assert.True(t, tax.Amount.Equal(dec("10999.50")))
	assert.True(t, d.Total.Equal(dec("110999.50")))
}

func TestCompute_ReductionWithholdsTax(t *testing.T) {
	d, err := Compute(variant.Manual, manual(map[string]any{"tax_rate": "2", "reduction": "Y"}))
	require.NoError(t, err)
	tax, _ := d.Line(KindTax)
	assert.True(t, tax.Amount.Equal(dec("-2000")))
	assert.True(t, d.Total.Equal(dec("98000")))
	assert.Contains(t, tax.Label, "Withholding")
}

func TestCompute_ItemsSum(t *testing.T) {
	rec := record.Record{
		"tax_rate": "11",
		"items": []map[string]any{
			{"description": "Rent", "amount": "1000.10"},
			{"description": "Service", "amount": 500},
		},
	}
	d, err := Compute(variant.Schedule, rec)
	require.NoError(t, err)
	assert.True(t, d.Subtotal().Equal(dec("1500.10")))
	assert.True(t, d.Total.Equal(dec("1665.11")), "total %s", d.Total)
	assert.True(t, d.Reconciles())
}

func TestCompute_ItemErrorNamesRow(t *testing.T) {
	rec := record.Record{
		"tax_rate": "11",
		"items":    []any{map[string]any{"description": "Rent"}},
	}
	_, err := Compute(variant.Schedule, rec)
	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, errs.CodeMissingField, e.Code)
	assert.Equal(t, "items[0].amount", e.Field)
}

func TestCompute_Overtime(t *testing.T) {
	rec := record.Record{
		"tax_rate": "11",
		"items": []any{
			map[string]any{"date": "2024-02-03", "start": "18:00", "end": "21:30", "hours": "3.5", "rate": "250000"},
			map[string]any{"date": "2024-02-10", "start": "18:00", "end": "20:00", "hours": 2, "rate": "250000"},
		},
	}
	d, err := Compute(variant.Overtime, rec)
	require.NoError(t, err)
	assert.True(t, d.Subtotal().Equal(dec("1375000")))
	assert.True(t, d.Total.Equal(dec("1526250")))
}

func TestCompute_TaxAmountIgnoredAtZeroRate(t *testing.T) {
	d, err := Compute(variant.Manual, manual(map[string]any{"tax_rate": "0", "tax_amount": "500"}))
	require.NoError(t, err)
	_, ok := d.Line(KindTax)
	assert.False(t, ok)
	assert.True(t, d.Total.Equal(dec("100000")), "total %s", d.Total)
}

func TestCompute_OvertimeRowsAddUpToCharge(t *testing.T) {
	row := map[string]any{"date": "2024-02-03", "start": "18:00", "end": "19:15", "hours": "1.25", "rate": "10.01"}
	rec := record.Record{"tax_rate": 0, "items": []any{row, row}}
	d, err := Compute(variant.Overtime, rec)
	require.NoError(t, err)

	cells := decimal.Zero
	for _, r := range []map[string]any{row, row} {
		amt, err := OvertimeAmount(record.Record(r))
		require.NoError(t, err)
		cells = cells.Add(amt)
	}
	base, ok := d.Line(KindBase)
	require.True(t, ok)
	assert.True(t, cells.Equal(dec("25.02")), "cells %s", cells)
	assert.True(t, base.Amount.Equal(cells), "charge %s", base.Amount)
	assert.True(t, d.Reconciles())
}

func TestCompute_ItemRowsAddUpToSubtotal(t *testing.T) {
	rec := record.Record{
		"tax_rate": 0,
		"items": []any{
			map[string]any{"description": "Rent", "amount": "10.005"},
			map[string]any{"description": "Service", "amount": "10.005"},
		},
	}
	d, err := Compute(variant.Schedule, rec)
	require.NoError(t, err)
	assert.True(t, d.Subtotal().Equal(dec("20.02")), "subtotal %s", d.Subtotal())
	assert.True(t, d.Total.Equal(dec("20.02")), "total %s", d.Total)
}

func TestCompute_RejectsNegativeAndNonFinite(t *testing.T) {
	_, err := Compute(variant.Manual, manual(map[string]any{"base_amount": "-1"}))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)

	nan := 0.0
	nan = nan / nan
	_, err = Compute(variant.Manual, manual(map[string]any{"base_amount": nan}))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)

	_, err = Compute(variant.Manual, manual(map[string]any{"tax_rate": "101"}))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
}

func TestTiered_Boundary(t *testing.T) {
	// usage exactly at the default threshold (10 × capacity 1)
	d, err := Compute(variant.UtilityReferenceWater, water(nil))
	require.NoError(t, err)
	b1, _ := d.Line(KindBlock1)
	b2, _ := d.Line(KindBlock2)
	assert.True(t, b1.Amount.Equal(dec("50000")), "block1 %s", b1.Amount)
	assert.True(t, b2.Amount.IsZero(), "block2 %s", b2.Amount)

	// one unit above: block 2 is charged on the excess only
	d, err = Compute(variant.UtilityReferenceWater, water(map[string]any{"meter_current": 111}))
	require.NoError(t, err)
	b1, _ = d.Line(KindBlock1)
	b2, _ = d.Line(KindBlock2)
	assert.True(t, b1.Amount.Equal(dec("50000")))
	assert.True(t, b2.Amount.Equal(dec("7500")), "block2 %s", b2.Amount)
}

func TestTiered_Pure(t *testing.T) {
	b1, b2 := Tiered(dec("40"), dec("40"), dec("1000"), dec("1500"))
	assert.True(t, b1.Equal(dec("40000")))
	assert.True(t, b2.IsZero())

	b1, b2 = Tiered(dec("41"), dec("40"), dec("1000"), dec("1500"))
	assert.True(t, b1.Equal(dec("40000")))
	assert.True(t, b2.Equal(dec("1500")))

	b1, b2 = Tiered(dec("12.5"), dec("40"), dec("1000"), dec("1500"))
	assert.True(t, b1.Equal(dec("12500")))
	assert.True(t, b2.IsZero())
}

func TestUsage_DirectAndLoadFactor(t *testing.T) {
	d, err := Compute(variant.UtilityReferenceWater, water(map[string]any{"method": "direct", "multiplier": 2}))
	require.NoError(t, err)
	assert.True(t, d.Usage.Usage.Equal(dec("20")))
	u, _ := d.Line(KindUsage)
	assert.True(t, u.Amount.Equal(dec("100000")))

	// electric: capacity 5 kVA, minimum 40 h -> at least 200 kWh billed
	rec := water(map[string]any{
		"method":   "LOAD_FACTOR",
		"capacity": 5,
		"rate":     "1500",
	})
	d, err = Compute(variant.UtilityReferenceElectric, rec)
	require.NoError(t, err)
	assert.True(t, d.Usage.Billed.Equal(dec("200")), "billed %s", d.Usage.Billed)
	u, _ = d.Line(KindUsage)
	assert.True(t, u.Amount.Equal(dec("300000")))
	assert.True(t, d.Usage.LoadFactorHours().Equal(dec("2")))
}

func TestUsage_UnsupportedMethod(t *testing.T) {
	d, err := Compute(variant.UtilityReferenceWater, water(map[string]any{"method": "FLAT"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnsupportedMethod)
	assert.Empty(t, d.Components, "no partial output")
}

func TestUsage_MeterBelowPrevious(t *testing.T) {
	_, err := Compute(variant.UtilityReferenceWater, water(map[string]any{"meter_current": 99}))
	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, errs.CodeInvalidAmount, e.Code)
	assert.Equal(t, "meter_current", e.Field)
}
