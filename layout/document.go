package layout

import (
	"github.com/zeptools/gw-docs/geom"
	"github.com/zeptools/gw-docs/pdfs"
	"github.com/zeptools/gw-docs/storage"
	"github.com/zeptools/gw-docs/variant"
)

type Page struct {
	Number int
	Blocks []Block
}

// Document - RenderedDocument before serialisation. Treat as immutable once
// Render returns it.
type Document struct {
	Variant     variant.Variant
	Identifier  string
	Category    variant.Category
	Paper       pdfs.PaperSize
	Orientation string
	Meta        pdfs.Meta
	Pages       []Page
}

// Frame of every page of the document.
func (d *Document) Frame() geom.Frame {
	return d.Paper.Frame(d.Orientation)
}

func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Blocks returns every block in page order.
func (d *Document) Blocks() []Block {
	var out []Block
	for _, p := range d.Pages {
		out = append(out, p.Blocks...)
	}
	return out
}

// Texts returns the text blocks of a page whose content equals s.
func (d *Document) Texts(page int, s string) []Block {
	if page < 1 || page > len(d.Pages) {
		return nil
	}
	var out []Block
	for _, b := range d.Pages[page-1].Blocks {
		if b.Kind == KindText && b.Content == s {
			out = append(out, b)
		}
	}
	return out
}

// ExpectedBoxes are the margin-convention boxes an extractor should report
// for the text blocks equal to s on the given page.
func (d *Document) ExpectedBoxes(page int, s string) []geom.BoundingBox {
	f := d.Frame()
	var out []geom.BoundingBox
	for _, b := range d.Texts(page, s) {
		out = append(out, f.MarginBox(f.ToNative(b.Bounds())))
	}
	return out
}

// LogicalPath is where the document is stored relative to the store root.
func (d *Document) LogicalPath() string {
	return storage.DocumentPath(variant.MustLookup(d.Variant), d.Identifier)
}
