package sqldb

import (
	"fmt"
	"strconv"
	"strings"
)

// Raw statements are written with mysql style placeholders: `?` for one
// value and `??` for a list whose length is only known at query time.
var PlaceholderPrefixForDBType = map[string]byte{
	"mysql": '?',
	"pgsql": '$',
}

// ordinal reports whether prefix numbers its placeholders ($1, $2, ...).
func ordinal(prefix byte) bool {
	return prefix != '?' && prefix != 0
}

// ReplaceStaticPlaceholders numbers each single `?` with prefix. `??` is left
// for ExpandDynamicPlaceholders.
func ReplaceStaticPlaceholders(sql string, prefix byte) string {
	if !ordinal(prefix) {
		return sql
	}
	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	for i := 0; i < len(sql); i++ {
		switch {
		case strings.HasPrefix(sql[i:], "??"):
			b.WriteString("??")
			i++
		case sql[i] == '?':
			n++
			b.WriteByte(prefix)
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(sql[i])
		}
	}
	return b.String()
}

// ExpandDynamicPlaceholders replaces the i-th `??` with counts[i]
// comma-separated placeholders. Ordinal dialects are numbered from start,
// which is one past the last static placeholder.
func ExpandDynamicPlaceholders(sql string, prefix byte, counts []int, start int) (string, error) {
	parts := strings.Split(sql, "??")
	if got := len(parts) - 1; got != len(counts) {
		return "", fmt.Errorf("statement has %d list placeholders, got %d counts", got, len(counts))
	}
	var b strings.Builder
	b.Grow(len(sql) + 8*len(counts))
	ord := start
	for i, part := range parts {
		b.WriteString(part)
		if i == len(counts) {
			break
		}
		for k := 0; k < counts[i]; k++ {
			if k > 0 {
				b.WriteString(", ")
			}
			if !ordinal(prefix) {
				b.WriteByte('?')
				continue
			}
			b.WriteByte(prefix)
			b.WriteString(strconv.Itoa(ord))
			ord++
		}
	}
	return b.String(), nil
}
