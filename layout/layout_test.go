package layout

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/gw-docs/amount"
	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/internal/fixtures"
	"github.com/zeptools/gw-docs/pdfs/impls/fpdf"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/storage"
	"github.com/zeptools/gw-docs/variant"
)

var metrics = fpdf.NewMetrics()

func newEngine() *Engine {
	return NewEngine(metrics, Letterhead{Name: "PT Gedung Perkantoran", Lines: []string{"Jl. Gatot Subroto 1", "Jakarta 12930"}})
}

func render(t *testing.T, e *Engine, v variant.Variant, rec record.Record) *Document {
	t.Helper()
	d, err := amount.Compute(v, rec)
	require.NoError(t, err)
	doc, err := e.Render(v, rec, d)
	require.NoError(t, err)
	return doc
}

func texts(doc *Document) []string {
	var out []string
	for _, b := range doc.Blocks() {
		if b.Kind == KindText {
			out = append(out, b.Content)
		}
	}
	return out
}

func hasPrefix(ss []string, prefix string) bool {
	for _, s := range ss {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func TestRender_EveryVariant(t *testing.T) {
	e := newEngine()
	for _, v := range variant.All() {
		t.Run(string(v), func(t *testing.T) {
			rec := fixtures.Record(v)
			doc := render(t, e, v, rec)
			p := variant.MustLookup(v)

			assert.Equal(t, v, doc.Variant)
			assert.Equal(t, rec.StringOr("doc_no", ""), doc.Identifier)
			assert.Equal(t, storage.DocumentPath(p, doc.Identifier), doc.LogicalPath())
			assert.True(t, strings.HasPrefix(doc.LogicalPath(), string(p.Category)+"/"+doc.Identifier))
			assert.GreaterOrEqual(t, doc.PageCount(), 1)

			all := texts(doc)
			assert.Contains(t, all, p.Title)
			// the stamp keyword appears exactly once, on the last page
			assert.Len(t, doc.Texts(doc.PageCount(), p.StampKeyword), 1)
			assert.True(t, hasPrefix(all, "Amount in words: "))

			out, err := Serialize(doc, fpdf.NewWriter)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
		})
	}
}

func TestRender_ManualTotals(t *testing.T) {
	doc := render(t, newEngine(), variant.Manual, fixtures.Record(variant.Manual))
	all := texts(doc)
	assert.Contains(t, all, "IDR 113,500.00")
	assert.Contains(t, all, "VAT 11%")
	assert.Contains(t, all, "11,000.00")
	assert.Contains(t, all, "Apportionment 50%")
	assert.Contains(t, all, "2,500.00")
	assert.Contains(t, all, "Amount in words: One Hundred Thirteen Thousand Five Hundred Rupiah")
	assert.NotContains(t, all, "Rounding")
	assert.False(t, hasPrefix(all, "Stamp duty"))
}

func TestRender_ConditionalLines(t *testing.T) {
	e := newEngine()

	zeroVAT := fixtures.Record(variant.Manual).With(map[string]any{"tax_rate": "0"})
	assert.False(t, hasPrefix(texts(render(t, e, variant.Manual, zeroVAT)), "VAT"))

	big := fixtures.Record(variant.Manual).With(map[string]any{"base_amount": "4504504.51"})
	// 4,504,504.51 + 11% VAT + 2,500 apportionment is above the threshold
	assert.True(t, hasPrefix(texts(render(t, e, variant.Manual, big)), "Stamp duty"))

	below := fixtures.Record(variant.Manual).With(map[string]any{"base_amount": "4500000", "apportion_base": "0"})
	assert.False(t, hasPrefix(texts(render(t, e, variant.Manual, below)), "Stamp duty"))

	residual := fixtures.Record(variant.Manual).With(map[string]any{
		"base_amount":       "10.005",
		"tax_rate":          "0",
		"apportion_base":    "0.01",
		"apportion_percent": "50",
	})
	all := texts(render(t, e, variant.Manual, residual))
	assert.Contains(t, all, "Rounding")
	assert.Contains(t, all, "-0.01")

	lot := fixtures.Record(variant.Manual).With(map[string]any{"lot_description": "Lot 7, Level 12"})
	assert.Contains(t, texts(render(t, e, variant.Manual, lot)), "Lot 7, Level 12")
	assert.NotContains(t, texts(render(t, e, variant.Manual, fixtures.Record(variant.Manual))), "Lot")
}

func TestRender_PaginatesLongTables(t *testing.T) {
	e := newEngine()
	rec := fixtures.WithItems(variant.Schedule, 80)
	doc := render(t, e, variant.Schedule, rec)
	require.Greater(t, doc.PageCount(), 1)

	desc := DefaultDescriptors()[variant.Schedule]
	limit := doc.Frame().Height - desc.MarginBottom
	for _, p := range doc.Pages {
		var rows int
		for _, b := range p.Blocks {
			if strings.HasPrefix(b.Content, "Service charge, block ") {
				rows++
			}
		}
		// header repeated on every page that holds rows
		if rows > 0 {
			assert.Len(t, doc.Texts(p.Number, "Description"), 1, "page %d", p.Number)
		}
		for _, b := range p.Blocks {
			if b.Kind == KindText && !strings.Contains(b.Content, "Page ") {
				assert.LessOrEqual(t, b.Y, limit, "page %d %q", p.Number, b.Content)
			}
		}
	}
	// every row is drawn once
	for i := 1; i <= 80; i++ {
		var n int
		for _, p := range doc.Pages {
			n += len(doc.Texts(p.Number, "Service charge, block "+strconv.Itoa(i)))
		}
		assert.Equal(t, 1, n, "row %d", i)
	}
	last := doc.Texts(doc.PageCount(), fmt.Sprintf("INV-2024-0001  |  Page %d of %d", doc.PageCount(), doc.PageCount()))
	assert.Len(t, last, 1)
}

func TestRender_OverflowPolicy(t *testing.T) {
	e := newEngine()
	tpl, err := e.Template(variant.Schedule)
	require.NoError(t, err)
	tpl.Descriptor.Pagination = OverflowPolicy{}
	e.Register(tpl)

	doc := render(t, e, variant.Schedule, fixtures.WithItems(variant.Schedule, 80))
	assert.Equal(t, 1, doc.PageCount())
	var below bool
	for _, b := range doc.Blocks() {
		if b.Y > doc.Frame().Height {
			below = true
		}
	}
	assert.True(t, below, "legacy policy draws past the page bottom")
}

func TestRender_MissingRequiredField(t *testing.T) {
	e := newEngine()
	for _, v := range variant.All() {
		p := variant.MustLookup(v)
		full := fixtures.Record(v)
		d, err := amount.Compute(v, full)
		require.NoError(t, err)
		for _, f := range p.Required {
			t.Run(string(v)+"/"+f, func(t *testing.T) {
				_, err := e.Render(v, full.Without(f), d)
				var target *errs.Error
				require.True(t, errors.As(err, &target), "got %v", err)
				assert.Equal(t, errs.CodeMissingField, target.Code)
				assert.Equal(t, f, target.Field)
				assert.Equal(t, string(v), target.Variant)
			})
		}
	}
}

func TestRender_MissingRowField(t *testing.T) {
	rec := fixtures.Record(variant.Overtime)
	rows, err := rec.Rows("items")
	require.NoError(t, err)
	d, err := amount.Compute(variant.Overtime, rec)
	require.NoError(t, err)

	rows[1] = rows[1].Without("end")
	broken := rec.With(map[string]any{"items": rows})
	_, err = newEngine().Render(variant.Overtime, broken, d)
	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "items[1].end", e.Field)
	assert.Equal(t, "OT-2024-0001", e.Identifier)
}

func TestRender_UnknownVariant(t *testing.T) {
	_, err := newEngine().Render(variant.Variant("Quote"), record.Record{}, amount.Derived{})
	assert.ErrorIs(t, err, errs.ErrUnknownVariant)
}

func TestSerialize_Deterministic(t *testing.T) {
	e := newEngine()
	rec := fixtures.Record(variant.UtilityReferenceWater)
	a, err := Serialize(render(t, e, variant.UtilityReferenceWater, rec), fpdf.NewWriter)
	require.NoError(t, err)
	b, err := Serialize(render(t, e, variant.UtilityReferenceWater, rec), fpdf.NewWriter)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSerialize_RejectsBadImage(t *testing.T) {
	e := NewEngine(metrics, Letterhead{Name: "X", Logo: []byte("GIF89a....")})
	doc := render(t, e, variant.Receipt, fixtures.Record(variant.Receipt))
	_, err := Serialize(doc, fpdf.NewWriter)
	assert.ErrorIs(t, err, errs.ErrUnsupportedImageFormat)
}

func TestExpectedBoxes_TextBounds(t *testing.T) {
	doc := render(t, newEngine(), variant.Manual, fixtures.Record(variant.Manual))
	page := doc.PageCount()
	blocks := doc.Texts(page, "Authorized")
	require.Len(t, blocks, 1)
	b := blocks[0]

	boxes := doc.ExpectedBoxes(page, "Authorized")
	require.Len(t, boxes, 1)
	f := doc.Frame()
	assert.InDelta(t, b.X, boxes[0].VisLLX, 1e-9)
	assert.InDelta(t, f.Height-b.Y, boxes[0].VisLLY, 1e-9) // baseline in native frame
	assert.InDelta(t, f.Width-b.X-b.W, boxes[0].VisURX, 1e-9)
	assert.InDelta(t, b.Y-b.H, boxes[0].VisURY, 1e-9)
}

func TestPaginator(t *testing.T) {
	p := BottomMarginPolicy{RowHeight: 20, MarginBottom: 50}
	assert.False(t, p.ShouldBreak(771, 841))
	assert.True(t, p.ShouldBreak(772, 841))
	assert.False(t, OverflowPolicy{}.ShouldBreak(5000, 841))
}

func TestCanvas_TextAlignment(t *testing.T) {
	c := NewCanvas(DefaultDescriptors()[variant.Manual], metrics)
	st := c.Style(10, "", AlignRight)
	c.Text(300, 100, "1,000.00", st)
	st.Align = AlignCenter
	c.Text(300, 120, "mid", st)
	pages := c.Pages()
	require.Len(t, pages, 1)
	right, mid := pages[0].Blocks[0], pages[0].Blocks[1]
	assert.InDelta(t, 300, right.X+right.W, 1e-9)
	assert.InDelta(t, 300, mid.X+mid.W/2, 1e-9)
	assert.Equal(t, 10.0, right.H)
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"0":          "0.00",
		"5":          "5.00",
		"999.995":    "1,000.00",
		"1234567.5":  "1,234,567.50",
		"-2000":      "-2,000.00",
		"-0.001":     "0.00",
		"113500":     "113,500.00",
		"1000000000": "1,000,000,000.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)), in)
	}
	assert.Equal(t, "IDR 5.00", FormatMoney("IDR", decimal.NewFromInt(5)))
}

func TestTemplateStore_Keys(t *testing.T) {
	e := newEngine()
	keys := e.Templates.Keys()
	require.Len(t, keys, len(variant.All()))
	for _, v := range variant.All() {
		assert.Contains(t, keys, string(v))
	}
}
