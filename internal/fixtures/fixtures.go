// Package fixtures holds complete sample records, one per variant, for tests
// and the CLI's sample command.
package fixtures

import (
	"fmt"

	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/variant"
)

var head = record.Record{
	"doc_no":           "INV-2024-0001",
	"doc_date":         "2024-03-01",
	"customer_name":    "PT Sinar Jaya",
	"customer_address": "Jl. Jend. Sudirman Kav. 52, Jakarta",
}

func items(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = map[string]any{
			"description": fmt.Sprintf("Service charge, block %d", i+1),
			"amount":      "1250000",
		}
	}
	return out
}

// Record returns a fresh, complete record for v.
func Record(v variant.Variant) record.Record {
	switch v {
	case variant.Schedule:
		return head.With(map[string]any{
			"due_date": "2024-03-31",
			"period":   "March 2024",
			"tax_rate": "11",
			"items":    items(2),
		})
	case variant.Manual:
		return head.With(map[string]any{
			"due_date":          "2024-03-31",
			"description":       "Fit-out deposit",
			"base_amount":       "100000",
			"tax_rate":          "11",
			"apportion_base":    "5000",
			"apportion_percent": "50",
		})
	case variant.Proforma:
		return head.With(map[string]any{
			"doc_no":      "PRO-2024-0001",
			"valid_until": "2024-03-15",
			"tax_rate":    "11",
			"items":       items(3),
		})
	case variant.Receipt:
		return record.Record{
			"doc_no":         "RCP-2024-0001",
			"doc_date":       "2024-03-05",
			"customer_name":  "PT Sinar Jaya",
			"invoice_no":     "INV-2024-0001",
			"payment_method": "Bank Transfer",
			"base_amount":    "2500000",
			"tax_rate":       "11",
		}
	case variant.DebitNote:
		return head.With(map[string]any{
			"doc_no":       "DN-2024-0001",
			"reference_no": "INV-2024-0001",
			"reason":       "Late payment penalty",
			"base_amount":  "750000",
			"tax_rate":     "0",
		})
	case variant.UtilityReferenceWater:
		return utility("WTR-2024-0001", map[string]any{
			"meter_previous": "1200",
			"meter_current":  "1235",
			"multiplier":     "1",
			"method":         "TIERED",
			"rate":           "12500",
			"rate_block2":    "18000",
		})
	case variant.UtilityReferenceElectric:
		return utility("ELC-2024-0001", map[string]any{
			"meter_previous": "48210",
			"meter_current":  "48350",
			"multiplier":     "1",
			"capacity":       "5",
			"method":         "LOAD_FACTOR",
			"rate":           "1444.70",
			"rate_block2":    "1699.53",
		})
	case variant.UtilityReferenceFCU:
		return utility("FCU-2024-0001", map[string]any{
			"meter_previous": "310",
			"meter_current":  "402",
			"multiplier":     "1",
			"capacity":       "2",
			"method":         "DIRECT",
			"rate":           "35000",
		})
	case variant.Overtime:
		return record.Record{
			"doc_no":        "OT-2024-0001",
			"doc_date":      "2024-03-01",
			"customer_name": "PT Sinar Jaya",
			"unit":          "Tower A / 12-03",
			"period":        "February 2024",
			"tax_rate":      "11",
			"items": []any{
				map[string]any{"date": "2024-02-03", "start": "18:00", "end": "21:30", "hours": "3.5", "rate": "250000"},
				map[string]any{"date": "2024-02-10", "start": "18:00", "end": "20:00", "hours": "2", "rate": "250000"},
			},
		}
	}
	return nil
}

func utility(docNo string, meter map[string]any) record.Record {
	rec := record.Record{
		"doc_no":        docNo,
		"doc_date":      "2024-03-01",
		"customer_name": "PT Sinar Jaya",
		"unit":          "Tower A / 12-03",
		"period":        "February 2024",
		"tax_rate":      "11",
	}
	return rec.With(meter)
}

// WithItems returns the record of a tabular variant with n generated rows.
func WithItems(v variant.Variant, n int) record.Record {
	return Record(v).With(map[string]any{"items": items(n)})
}
