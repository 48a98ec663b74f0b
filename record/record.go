// Package record holds the SourceRecord handed over by the caller: a flat
// field-name to scalar mapping, plus an optional row list for tabular
// variants. The engine never writes to a Record.
package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zeptools/gw-docs/errs"
)

// Record - SourceRecord. Values are string, numbers, bool, time.Time,
// decimal.Decimal, json.Number or, for row lists, []Record / []map[string]any.
type Record map[string]any

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006", "2006-01-02 15:04:05"}

// Has reports whether the field is present with a usable value.
// nil and blank strings count as absent.
func (r Record) Has(name string) bool {
	v, ok := r[name]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Require returns MissingField for the first absent field, in the given order.
func (r Record) Require(fields []string) error {
	for _, f := range fields {
		if !r.Has(f) {
			return errs.MissingField(f)
		}
	}
	return nil
}

func (r Record) String(name string) (string, error) {
	if !r.Has(name) {
		return "", errs.MissingField(name)
	}
	switch v := r[name].(type) {
	case string:
		return strings.TrimSpace(v), nil
	case time.Time:
		return v.Format("2006-01-02"), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// StringOr returns def when the field is absent.
func (r Record) StringOr(name string, def string) string {
	s, err := r.String(name)
	if err != nil {
		return def
	}
	return s
}

func (r Record) Decimal(name string) (decimal.Decimal, error) {
	if !r.Has(name) {
		return decimal.Zero, errs.MissingField(name)
	}
	return toDecimal(name, r[name])
}

// DecimalOr returns def when the field is absent. A present but malformed
// value is still an error.
func (r Record) DecimalOr(name string, def decimal.Decimal) (decimal.Decimal, error) {
	if !r.Has(name) {
		return def, nil
	}
	return toDecimal(name, r[name])
}

func toDecimal(name string, v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, errs.InvalidAmount(name, "non-finite value")
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, errs.InvalidAmount(name, "non-finite value")
		}
		return decimal.NewFromFloat32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint32:
		return decimal.NewFromInt(int64(n)), nil
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, errs.InvalidField(name, err)
		}
		return d, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, errs.InvalidField(name, err)
		}
		return d, nil
	default:
		return decimal.Zero, errs.InvalidField(name, fmt.Errorf("unsupported numeric type %T", v))
	}
}

func (r Record) Date(name string) (time.Time, error) {
	if !r.Has(name) {
		return time.Time{}, errs.MissingField(name)
	}
	switch v := r[name].(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, errs.InvalidField(name, fmt.Errorf("unrecognized date %q", s))
	default:
		return time.Time{}, errs.InvalidField(name, fmt.Errorf("unsupported date type %T", v))
	}
}

// Bool - absent means false
func (r Record) Bool(name string) (bool, error) {
	if !r.Has(name) {
		return false, nil
	}
	switch v := r[name].(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "Y", "YES":
			return true, nil
		case "N", "NO":
			return false, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, errs.InvalidField(name, err)
		}
		return b, nil
	default:
		return false, errs.InvalidField(name, fmt.Errorf("unsupported bool type %T", v))
	}
}

// Rows returns the row list stored under name. An empty list is valid;
// an absent key is MissingField.
func (r Record) Rows(name string) ([]Record, error) {
	v, ok := r[name]
	if !ok || v == nil {
		return nil, errs.MissingField(name)
	}
	switch rows := v.(type) {
	case []Record:
		return rows, nil
	case []map[string]any:
		out := make([]Record, len(rows))
		for i, row := range rows {
			out[i] = row
		}
		return out, nil
	case []any:
		out := make([]Record, 0, len(rows))
		for i, row := range rows {
			switch m := row.(type) {
			case map[string]any:
				out = append(out, m)
			case Record:
				out = append(out, m)
			default:
				return nil, errs.InvalidField(fmt.Sprintf("%s[%d]", name, i), fmt.Errorf("unsupported row type %T", row))
			}
		}
		return out, nil
	default:
		return nil, errs.InvalidField(name, fmt.Errorf("unsupported rows type %T", v))
	}
}

// With returns a shallow copy with the given fields overlaid.
func (r Record) With(fields map[string]any) Record {
	out := make(Record, len(r)+len(fields))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Without returns a shallow copy with the named field removed.
func (r Record) Without(name string) Record {
	out := make(Record, len(r))
	for k, v := range r {
		if k != name {
			out[k] = v
		}
	}
	return out
}
