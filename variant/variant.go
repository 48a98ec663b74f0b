// Package variant is the closed set of document variants and, per variant,
// the required-field set and amount policy (Profile). It is the contract
// boundary callers must respect: unknown names are rejected here.
package variant

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zeptools/gw-docs/errs"
)

type Variant string

const (
	Schedule                 Variant = "Schedule"
	Manual                   Variant = "Manual"
	Proforma                 Variant = "Proforma"
	Receipt                  Variant = "Receipt"
	DebitNote                Variant = "DebitNote"
	UtilityReferenceWater    Variant = "UtilityReferenceWater"
	UtilityReferenceElectric Variant = "UtilityReferenceElectric"
	UtilityReferenceFCU      Variant = "UtilityReferenceFCU"
	Overtime                 Variant = "Overtime"
)

type Category string

const (
	CategorySchedule Category = "schedule"
	CategoryManual   Category = "manual"
	CategoryProforma Category = "proforma"
	CategoryReceipt  Category = "receipt"
)

// BaseSource selects where the taxable base of a document comes from.
type BaseSource int

const (
	BaseFromField    BaseSource = iota // base_amount
	BaseFromItems                      // Σ round(items[].amount)
	BaseFromOvertime                   // Σ round(items[].hours × items[].rate)
	BaseFromUsage                      // meter readings + calculation method
)

// Profile - everything the engine knows about a variant besides its layout.
type Profile struct {
	Variant  Variant
	Title    string
	Category Category
	// Required lists the fields that must be present, in the order they are
	// checked. The first absent one is reported.
	Required []string
	// Optional fields with their documented defaults ("" = line omitted).
	Optional map[string]string
	// RowsField names the row list for tabular variants, "" when none.
	RowsField string
	// RowRequired lists the fields every row must carry.
	RowRequired []string
	Base        BaseSource
	// UtilityKind is "water", "electric" or "fcu" for utility references.
	UtilityKind string
	// MinimumUsageHours is the default tier threshold (per unit of capacity)
	// for TIERED, and the minimum billed hours for LOAD_FACTOR.
	MinimumUsageHours decimal.Decimal
	// StampKeyword is the default word the stamp is anchored on.
	StampKeyword string
}

// Utility reports whether the variant is a utility-charge explanation sheet.
func (p Profile) Utility() bool {
	return p.UtilityKind != ""
}

var invoiceHead = []string{"doc_no", "doc_date", "customer_name", "customer_address"}

var profiles = map[Variant]Profile{
	Schedule: {
		Variant:      Schedule,
		Title:        "INVOICE",
		Category:     CategorySchedule,
		Required:     join(invoiceHead, "due_date", "period", "tax_rate", "items"),
		Optional:     map[string]string{"currency": "IDR", "notes": ""},
		RowsField:    "items",
		RowRequired:  []string{"description", "amount"},
		Base:         BaseFromItems,
		StampKeyword: "Authorized",
	},
	Manual: {
		Variant:      Manual,
		Title:        "INVOICE",
		Category:     CategoryManual,
		Required:     join(invoiceHead, "due_date", "description", "base_amount", "tax_rate"),
		Optional:     map[string]string{"currency": "IDR", "lot_description": "", "notes": ""},
		Base:         BaseFromField,
		StampKeyword: "Authorized",
	},
	Proforma: {
		Variant:      Proforma,
		Title:        "PROFORMA INVOICE",
		Category:     CategoryProforma,
		Required:     join(invoiceHead, "valid_until", "tax_rate", "items"),
		Optional:     map[string]string{"currency": "IDR", "notes": ""},
		RowsField:    "items",
		RowRequired:  []string{"description", "amount"},
		Base:         BaseFromItems,
		StampKeyword: "Authorized",
	},
	Receipt: {
		Variant:      Receipt,
		Title:        "OFFICIAL RECEIPT",
		Category:     CategoryReceipt,
		Required:     []string{"doc_no", "doc_date", "customer_name", "invoice_no", "payment_method", "base_amount", "tax_rate"},
		Optional:     map[string]string{"currency": "IDR"},
		Base:         BaseFromField,
		StampKeyword: "Received",
	},
	DebitNote: {
		Variant:      DebitNote,
		Title:        "DEBIT NOTE",
		Category:     CategoryManual,
		Required:     join(invoiceHead, "reference_no", "reason", "base_amount", "tax_rate"),
		Optional:     map[string]string{"currency": "IDR"},
		Base:         BaseFromField,
		StampKeyword: "Authorized",
	},
	UtilityReferenceWater: {
		Variant:           UtilityReferenceWater,
		Title:             "WATER CHARGE REFERENCE",
		Category:          CategorySchedule,
		Required:          []string{"doc_no", "doc_date", "customer_name", "unit", "period", "meter_previous", "meter_current", "multiplier", "method", "rate", "tax_rate"},
		Optional:          map[string]string{"currency": "IDR", "rate_block2": "", "threshold": "", "capacity": "1"},
		Base:              BaseFromUsage,
		UtilityKind:       "water",
		MinimumUsageHours: decimal.NewFromInt(10),
		StampKeyword:      "Acknowledged",
	},
	UtilityReferenceElectric: {
		Variant:           UtilityReferenceElectric,
		Title:             "ELECTRICITY CHARGE REFERENCE",
		Category:          CategorySchedule,
		Required:          []string{"doc_no", "doc_date", "customer_name", "unit", "period", "meter_previous", "meter_current", "multiplier", "capacity", "method", "rate", "rate_block2", "tax_rate"},
		Optional:          map[string]string{"currency": "IDR", "threshold": ""},
		Base:              BaseFromUsage,
		UtilityKind:       "electric",
		MinimumUsageHours: decimal.NewFromInt(40),
		StampKeyword:      "Acknowledged",
	},
	UtilityReferenceFCU: {
		Variant:           UtilityReferenceFCU,
		Title:             "FCU CHARGE REFERENCE",
		Category:          CategorySchedule,
		Required:          []string{"doc_no", "doc_date", "customer_name", "unit", "period", "meter_previous", "meter_current", "multiplier", "capacity", "method", "rate", "tax_rate"},
		Optional:          map[string]string{"currency": "IDR", "rate_block2": "", "threshold": ""},
		Base:              BaseFromUsage,
		UtilityKind:       "fcu",
		MinimumUsageHours: decimal.NewFromInt(8),
		StampKeyword:      "Acknowledged",
	},
	Overtime: {
		Variant:      Overtime,
		Title:        "OVERTIME CHARGE",
		Category:     CategorySchedule,
		Required:     []string{"doc_no", "doc_date", "customer_name", "unit", "period", "tax_rate", "items"},
		Optional:     map[string]string{"currency": "IDR"},
		RowsField:    "items",
		RowRequired:  []string{"date", "start", "end", "hours", "rate"},
		Base:         BaseFromOvertime,
		StampKeyword: "Acknowledged",
	},
}

func join(head []string, tail ...string) []string {
	out := make([]string, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}

// Parse rejects unknown variant names. Matching is case-insensitive.
func Parse(name string) (Variant, error) {
	for v := range profiles {
		if strings.EqualFold(string(v), strings.TrimSpace(name)) {
			return v, nil
		}
	}
	return "", errs.UnknownVariant(name)
}

// Lookup returns the profile of a registered variant.
func Lookup(v Variant) (Profile, error) {
	p, ok := profiles[v]
	if !ok {
		return Profile{}, errs.UnknownVariant(string(v))
	}
	return p, nil
}

// MustLookup panics on unknown variants. For package-level tables only.
func MustLookup(v Variant) Profile {
	p, err := Lookup(v)
	if err != nil {
		panic(err)
	}
	return p
}

// All returns every registered variant in name order.
func All() []Variant {
	out := make([]Variant, 0, len(profiles))
	for v := range profiles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
