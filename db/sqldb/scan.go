package sqldb

import (
	"fmt"
	"time"
)

// ScanMaps reads every row into a column-name keyed map. []byte values
// become strings and driver numerics their decimal text. rows is closed.
func ScanMaps(rows Rows) ([]map[string]any, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			m[c] = normalize(vals[i])
		}
		out = append(out, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during iterating rows: %w", err)
	}
	return out, nil
}

// ScanMap reads the first row. No row is ErrNoRows.
func ScanMap(rows Rows) (map[string]any, error) {
	all, err := ScanMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNoRows
	}
	return all[0], nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t
	case fmt.Stringer:
		// driver numerics, e.g. pgtype.Numeric
		return t.String()
	}
	return v
}
