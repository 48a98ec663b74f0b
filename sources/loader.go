// Package sources reads SourceRecords from the document tables. Headers live
// in doc_headers, one row per document; tabular variants keep their row list
// in doc_rows keyed by doc_no.
package sources

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/zeptools/gw-docs/db/sqldb"
	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/variant"
)

const group = "sources"

//go:embed sql/*
var sqlFS embed.FS

func init() {
	sqldb.RegisterGroup(sqlFS, group)
}

var ErrNotFound = errors.New("sources: document not found")

// Source loads the record of one document. *Loader reads it from SQL;
// mainbackend.Client fetches it over HTTP.
type Source interface {
	Load(ctx context.Context, v variant.Variant, identifier string) (record.Record, error)
}

// Ensure Loader implements Source
var _ Source = (*Loader)(nil)

// columns dropped from the header before it becomes a Record
var bookkeeping = []string{"variant", "created_at", "updated_at"}

type Loader struct {
	db    sqldb.Client
	order string
}

func NewLoader(db sqldb.Client, order []sqldb.OrderBy) *Loader {
	return &Loader{db: db, order: sqldb.OrderByClause(order)}
}

func (l *Loader) stmt(name string) (string, error) {
	key := sqldb.StoreGroupedStmtKey{Group: group, StmtName: name}.String()
	s, ok := l.db.RawStore().Get(key)
	if !ok {
		return "", fmt.Errorf("raw statement %s not loaded", key)
	}
	return strings.TrimSpace(s), nil
}

// Load reads the header of identifier and, for tabular variants, its rows
// under the profile's RowsField. A missing header is ErrNotFound.
func (l *Loader) Load(ctx context.Context, v variant.Variant, identifier string) (record.Record, error) {
	p, err := variant.Lookup(v)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(identifier) == "" {
		return nil, errs.WithContext(errs.MissingField("doc_no"), string(v), identifier)
	}
	q, err := l.stmt("header")
	if err != nil {
		return nil, err
	}
	rows, err := l.db.QueryRows(ctx, q, string(v), identifier)
	if err != nil {
		return nil, fmt.Errorf("query header %s: %w", identifier, err)
	}
	head, err := sqldb.ScanMap(rows)
	if errors.Is(err, sqldb.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, v, identifier)
	}
	if err != nil {
		return nil, err
	}
	rec := toRecord(head)
	if p.RowsField == "" {
		return rec, nil
	}
	q, err = l.stmt("rows")
	if err != nil {
		return nil, err
	}
	rows, err = l.db.QueryRows(ctx, q+l.order, identifier)
	if err != nil {
		return nil, fmt.Errorf("query rows %s: %w", identifier, err)
	}
	items, err := sqldb.ScanMaps(rows)
	if err != nil {
		return nil, err
	}
	rec[p.RowsField] = rowList(items)
	return rec, nil
}

// LoadMany reads several documents of one variant in two round trips.
// Identifiers without a header are absent from the result.
func (l *Loader) LoadMany(ctx context.Context, v variant.Variant, identifiers []string) (map[string]record.Record, error) {
	p, err := variant.Lookup(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]record.Record, len(identifiers))
	if len(identifiers) == 0 {
		return out, nil
	}
	ids := make([]any, len(identifiers))
	for i, id := range identifiers {
		ids[i] = id
	}

	q, err := l.stmt("headers_in")
	if err != nil {
		return nil, err
	}
	// $1 is the variant
	if q, err = sqldb.ExpandDynamicPlaceholders(q, l.db.PlaceholderPrefix(), []int{len(ids)}, 2); err != nil {
		return nil, err
	}
	rows, err := l.db.QueryRows(ctx, q, append([]any{string(v)}, ids...)...)
	if err != nil {
		return nil, fmt.Errorf("query headers: %w", err)
	}
	heads, err := sqldb.ScanMaps(rows)
	if err != nil {
		return nil, err
	}
	for _, h := range heads {
		rec := toRecord(h)
		id := rec.StringOr("doc_no", "")
		if id == "" {
			continue
		}
		if p.RowsField != "" {
			rec[p.RowsField] = []map[string]any{}
		}
		out[id] = rec
	}
	if p.RowsField == "" || len(out) == 0 {
		return out, nil
	}

	if q, err = l.stmt("rows_in"); err != nil {
		return nil, err
	}
	if q, err = sqldb.ExpandDynamicPlaceholders(q, l.db.PlaceholderPrefix(), []int{len(ids)}, 1); err != nil {
		return nil, err
	}
	rows, err = l.db.QueryRows(ctx, q+l.order, ids...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	items, err := sqldb.ScanMaps(rows)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		id := fmt.Sprint(it["doc_no"])
		rec, ok := out[id]
		if !ok {
			continue
		}
		rec[p.RowsField] = append(rec[p.RowsField].([]map[string]any), it)
	}
	return out, nil
}

func toRecord(m map[string]any) record.Record {
	rec := make(record.Record, len(m))
	for k, v := range m {
		rec[k] = v
	}
	for _, k := range bookkeeping {
		delete(rec, k)
	}
	return rec
}

func rowList(items []map[string]any) []map[string]any {
	if items == nil {
		return []map[string]any{}
	}
	return items
}
