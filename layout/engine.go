// Package layout turns a SourceRecord and its derived amounts into pages of
// absolutely positioned blocks, and serialises those through a pdfs.Writer.
//
// Blocks live in the layout frame (top-left origin, y down). Only the writer
// backend maps them to the native PDF frame, at serialisation time.
package layout

import (
	"fmt"
	"time"

	"github.com/zeptools/gw-docs/amount"
	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/pdfs"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/variant"
)

// Letterhead - issuer block printed at the top left of every document
type Letterhead struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines"`
	Logo  []byte   `json:"-"`
}

type Engine struct {
	Templates  *pdfs.TemplateStore[Template]
	Measure    Measurer
	Letterhead Letterhead
	Creator    string
}

// NewEngine registers the default template of every variant.
func NewEngine(measure Measurer, letterhead Letterhead) *Engine {
	e := &Engine{
		Templates:  pdfs.NewTemplateStore[Template](),
		Measure:    measure,
		Letterhead: letterhead,
		Creator:    "gw-docs",
	}
	for _, t := range DefaultTemplates(DefaultDescriptors()) {
		e.Register(t)
	}
	return e
}

// Register replaces the template of t.Variant.
func (e *Engine) Register(t Template) {
	e.Templates.Store(string(t.Variant), t)
}

func (e *Engine) Template(v variant.Variant) (Template, error) {
	t, ok := e.Templates.Get(string(v))
	if !ok {
		return Template{}, errs.UnknownVariant(string(v))
	}
	return t, nil
}

// Validate checks the required fields of the variant, and of every row for
// tabular variants. The first absent field is reported.
func Validate(p variant.Profile, rec record.Record) error {
	if err := rec.Require(p.Required); err != nil {
		return err
	}
	if p.RowsField == "" {
		return nil
	}
	rows, err := rec.Rows(p.RowsField)
	if err != nil {
		return err
	}
	for i, row := range rows {
		for _, f := range p.RowRequired {
			if !row.Has(f) {
				return errs.MissingField(fmt.Sprintf("%s[%d].%s", p.RowsField, i, f))
			}
		}
	}
	return nil
}

// Render lays out one document. It performs no I/O.
func (e *Engine) Render(v variant.Variant, rec record.Record, d amount.Derived) (*Document, error) {
	id := rec.StringOr("doc_no", "")
	doc, err := e.render(v, rec, d)
	if err != nil {
		return nil, errs.WithContext(err, string(v), id)
	}
	return doc, nil
}

func (e *Engine) render(v variant.Variant, rec record.Record, d amount.Derived) (*Document, error) {
	p, err := variant.Lookup(v)
	if err != nil {
		return nil, err
	}
	t, err := e.Template(v)
	if err != nil {
		return nil, err
	}
	if err = Validate(p, rec); err != nil {
		return nil, err
	}
	issued, err := rec.Date("doc_date")
	if err != nil {
		return nil, err
	}
	id, _ := rec.String("doc_no")

	in := Input{Profile: p, Record: rec, Derived: d, Letterhead: e.Letterhead}
	c := NewCanvas(t.Descriptor, e.Measure)
	drawHeader(c, in)
	if err = t.Body(c, in); err != nil {
		return nil, err
	}
	if err = drawTotals(c, in); err != nil {
		return nil, err
	}
	drawSignature(c, in)
	c.Footer(func(page int, total int) string {
		return fmt.Sprintf("%s  |  Page %d of %d", id, page, total)
	})

	return &Document{
		Variant:     v,
		Identifier:  id,
		Category:    p.Category,
		Paper:       t.Descriptor.Paper,
		Orientation: t.Descriptor.Orientation,
		Meta: pdfs.Meta{
			Title:     p.Title + " " + id,
			Subject:   string(v),
			Author:    e.Letterhead.Name,
			Creator:   e.Creator,
			CreatedAt: time.Date(issued.Year(), issued.Month(), issued.Day(), 0, 0, 0, 0, time.UTC),
		},
		Pages: c.Pages(),
	}, nil
}

// Serialize writes the document through a fresh writer and returns the PDF
// bytes. Equal documents serialise to equal bytes.
func Serialize(doc *Document, newWriter pdfs.WriterFactory) ([]byte, error) {
	w := newWriter(doc.Paper, doc.Orientation, doc.Meta)
	for _, p := range doc.Pages {
		w.AddBlankPage()
		for _, b := range p.Blocks {
			switch b.Kind {
			case KindText:
				w.SetFont(b.Style.Font, b.Style.FontStyle, b.Style.Size)
				w.Text(b.X, b.Y, b.Content)
			case KindLine:
				w.Line(b.X, b.Y, b.X+b.W, b.Y+b.H)
			case KindRect:
				w.Rect(b.X, b.Y, b.W, b.H, b.Style.Fill)
			case KindImage:
				if err := w.Image(b.Content, b.Image, b.X, b.Y, b.W, b.H); err != nil {
					return nil, errs.WithContext(err, string(doc.Variant), doc.Identifier)
				}
			}
		}
	}
	out, err := w.ProduceBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize %s %s: %w", doc.Variant, doc.Identifier, err)
	}
	return out, nil
}
