package sqldb

import (
	"fmt"
	"regexp"
	"strings"
)

var regexIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Column is a validated, possibly qualified SQL identifier, e.g. "r.line_no".
// The zero value is not usable; build one with NewColumn.
type Column struct {
	name string
}

func (c Column) Name() string { return c.name }

func NewColumn(name string) (Column, error) {
	if !regexIdentifier.MatchString(name) {
		return Column{}, fmt.Errorf("invalid SQL identifier: %q", name)
	}
	return Column{name: name}, nil
}

// MustColumn is NewColumn for identifiers fixed in code.
func MustColumn(name string) Column {
	c, err := NewColumn(name)
	if err != nil {
		panic(err)
	}
	return c
}

type OrderBy struct {
	Column Column
	Desc   bool
}

// ParseOrderBy reads "col" or "-col"; a leading '-' sorts descending.
func ParseOrderBy(spec string) (OrderBy, error) {
	desc := strings.HasPrefix(spec, "-")
	col, err := NewColumn(strings.TrimPrefix(spec, "-"))
	if err != nil {
		return OrderBy{}, err
	}
	return OrderBy{Column: col, Desc: desc}, nil
}

func (o OrderBy) String() string {
	if o.Desc {
		return o.Column.Name() + " DESC"
	}
	return o.Column.Name() + " ASC"
}

// OrderByClause renders " ORDER BY a ASC, b DESC", or "" for no orders.
func OrderByClause(orders []OrderBy) string {
	if len(orders) == 0 {
		return ""
	}
	terms := make([]string, len(orders))
	for i, o := range orders {
		terms[i] = o.String()
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}
