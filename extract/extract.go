// Package extract locates words in a rendered PDF by walking the text
// position stream of a page and reports them as margin-convention boxes.
package extract

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/geom"
	"github.com/zeptools/gw-docs/pdfs/impls/fpdf"
)

// WordLocation - one occurrence of a word on a page
type WordLocation struct {
	Page int              `json:"page"`
	Text string           `json:"text"`
	BBox geom.BoundingBox `json:"bbox"`
}

// Run - consecutive glyphs set on one baseline in one font. Box is in the
// native frame with its origin at the baseline.
type Run struct {
	Text string
	Font string
	Size float64
	Box  geom.Rect

	glyphs []pdf.Text
	sized  bool // glyph widths came from the document
}

// WidthFunc measures s set in the font with the given BaseFont name.
type WidthFunc func(baseFont string, size float64, s string) (float64, bool)

// Extractor is safe for concurrent use.
type Extractor struct {
	width WidthFunc
}

var defaultExtractor = New(fpdf.NewMetrics().Width)

// New returns an Extractor that measures runs without document widths with
// width. A nil width falls back to half an em per rune.
func New(width WidthFunc) *Extractor {
	return &Extractor{width: width}
}

// FindWord with the default extractor.
func FindWord(data []byte, target string, page int) ([]WordLocation, error) {
	return defaultExtractor.FindWord(data, target, page)
}

// PageCount of the document.
func PageCount(data []byte) (int, error) {
	r, err := open(data)
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

// FindWord returns every occurrence of target on the 1-based page, in
// content-stream order. A run matches only when its text equals target
// exactly: case and whitespace count, and a word inside a longer run is not
// a match. No match is an empty slice and a nil error.
func (e *Extractor) FindWord(data []byte, target string, page int) ([]WordLocation, error) {
	runs, frame, err := e.Runs(data, page)
	if err != nil {
		return nil, err
	}
	out := []WordLocation{}
	if strings.TrimSpace(target) == "" {
		return out, nil
	}
	for _, r := range runs {
		if r.Text == target {
			out = append(out, WordLocation{Page: page, Text: target, BBox: frame.MarginBox(r.Box)})
		}
	}
	return out, nil
}

// Runs returns the text runs of the 1-based page and the page frame taken from
// its MediaBox.
func (e *Extractor) Runs(data []byte, page int) ([]Run, geom.Frame, error) {
	r, err := open(data)
	if err != nil {
		return nil, geom.Frame{}, err
	}
	n := r.NumPage()
	if page < 1 || page > n {
		return nil, geom.Frame{}, errs.PageNotFound(page, n)
	}
	p := r.Page(page)
	if p.V.IsNull() {
		return nil, geom.Frame{}, errs.PageNotFound(page, n)
	}
	frame, ok := mediaBox(p.V)
	if !ok {
		return nil, geom.Frame{}, errs.ParseFailed(page, fmt.Errorf("page has no MediaBox"))
	}
	texts, err := content(p, page)
	if err != nil {
		return nil, geom.Frame{}, err
	}
	runs := group(texts)
	for i := range runs {
		e.measure(&runs[i])
	}
	return runs, frame, nil
}

func open(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, errs.ParseFailed(0, fmt.Errorf("%v", p))
		}
	}()
	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errs.ParseFailed(0, err)
	}
	return r, nil
}

// the reader panics on malformed content streams
func content(p pdf.Page, page int) (texts []pdf.Text, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			texts, err = nil, errs.ParseFailed(page, fmt.Errorf("%v", rec))
		}
	}()
	return p.Content().Text, nil
}

// MediaBox is inheritable, so walk up the page tree. The depth bound guards
// against Parent cycles.
func mediaBox(v pdf.Value) (geom.Frame, bool) {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			llx, lly := box.Index(0).Float64(), box.Index(1).Float64()
			urx, ury := box.Index(2).Float64(), box.Index(3).Float64()
			return geom.Frame{Width: math.Abs(urx - llx), Height: math.Abs(ury - lly)}, true
		}
		v = v.Key("Parent")
	}
	return geom.Frame{}, false
}

const sameLine = 0.01

// group joins glyphs into runs. A glyph continues the current run when it
// shares font, size and baseline and starts where the previous glyph ended.
// Without document widths every glyph of one show operation sits at the same
// x, which counts as continuing too.
func group(texts []pdf.Text) []Run {
	var runs []Run
	var cur *Run
	for _, t := range texts {
		if cur != nil && continues(cur, t) {
			cur.Text += t.S
			cur.glyphs = append(cur.glyphs, t)
			continue
		}
		runs = append(runs, Run{
			Text:   t.S,
			Font:   t.Font,
			Size:   t.FontSize,
			Box:    geom.Rect{X: t.X, Y: t.Y, H: t.FontSize},
			glyphs: []pdf.Text{t},
		})
		cur = &runs[len(runs)-1]
	}
	return runs
}

func continues(r *Run, t pdf.Text) bool {
	last := r.glyphs[len(r.glyphs)-1]
	if t.Font != r.Font || t.FontSize != r.Size || math.Abs(t.Y-last.Y) > sameLine {
		return false
	}
	if last.W == 0 && math.Abs(t.X-last.X) <= sameLine {
		return true
	}
	// half a point of slack for rounding in the content stream
	return math.Abs(t.X-(last.X+last.W)) <= 0.5
}

// measure sets r.Box from the document glyph widths when present, else from
// the width function.
func (e *Extractor) measure(r *Run) {
	for _, g := range r.glyphs {
		if g.W > 0 {
			r.sized = true
			break
		}
	}
	first, last := r.glyphs[0], r.glyphs[len(r.glyphs)-1]
	if !r.sized {
		r.Box = geom.Rect{X: first.X, Y: first.Y, W: e.textWidth(*r, r.Text), H: r.Size}
		return
	}
	r.Box = geom.Rect{X: first.X, Y: first.Y, W: last.X + last.W - first.X, H: r.Size}
}

func (e *Extractor) textWidth(r Run, s string) float64 {
	if s == "" {
		return 0
	}
	if e.width != nil {
		if w, ok := e.width(r.Font, r.Size, s); ok {
			return w
		}
	}
	return 0.5 * r.Size * float64(utf8.RuneCountInString(s))
}
