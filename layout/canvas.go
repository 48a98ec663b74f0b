package layout

import (
	"github.com/zeptools/gw-docs/geom"
)

// Measurer returns the width in points of s set in an fpdf font.
type Measurer interface {
	StringWidth(family string, style string, size float64, s string) float64
}

// Canvas accumulates the blocks of one document. Y is the running cursor in
// the layout frame; templates advance it as they go.
type Canvas struct {
	Desc  Descriptor
	Frame geom.Frame
	Y     float64

	measure Measurer
	pages   []Page
}

func NewCanvas(desc Descriptor, measure Measurer) *Canvas {
	c := &Canvas{
		Desc:    desc,
		Frame:   desc.Paper.Frame(desc.Orientation),
		measure: measure,
	}
	c.NewPage()
	return c
}

// Page - current 1-based page number
func (c *Canvas) Page() int {
	return len(c.pages)
}

// NewPage starts a page and moves the cursor to the top margin.
func (c *Canvas) NewPage() {
	c.pages = append(c.pages, Page{Number: len(c.pages) + 1})
	c.Y = c.Desc.MarginTop
}

func (c *Canvas) add(b Block) {
	b.Page = c.Page()
	p := &c.pages[len(c.pages)-1]
	p.Blocks = append(p.Blocks, b)
}

// Style with the descriptor font at the given size.
func (c *Canvas) Style(size float64, fontStyle string, align Align) Style {
	return Style{Font: c.Desc.Font, FontStyle: fontStyle, Size: size, Align: align}
}

// Width of s in style st.
func (c *Canvas) Width(s string, st Style) float64 {
	return c.measure.StringWidth(st.Font, st.FontStyle, st.Size, s)
}

// Text places s with its baseline at y. x is the left edge for AlignLeft, the
// right edge for AlignRight and the centre for AlignCenter.
func (c *Canvas) Text(x float64, y float64, s string, st Style) {
	if s == "" {
		return
	}
	w := c.Width(s, st)
	switch st.Align {
	case AlignRight:
		x -= w
	case AlignCenter:
		x -= w / 2
	}
	c.add(Block{Kind: KindText, X: x, Y: y, W: w, H: st.Size, Style: st, Content: s})
}

// Cell places s inside a column [x, x+w) honouring the alignment, padded by 4pt.
func (c *Canvas) Cell(x float64, w float64, y float64, s string, st Style) {
	const pad = 4
	switch st.Align {
	case AlignRight:
		c.Text(x+w-pad, y, s, st)
	case AlignCenter:
		c.Text(x+w/2, y, s, st)
	default:
		c.Text(x+pad, y, s, st)
	}
}

func (c *Canvas) Line(x1 float64, y1 float64, x2 float64, y2 float64) {
	c.add(Block{Kind: KindLine, X: x1, Y: y1, W: x2 - x1, H: y2 - y1})
}

// HRule draws a full-width horizontal line at y.
func (c *Canvas) HRule(y float64) {
	c.Line(c.Desc.MarginLeft, y, c.Desc.Right(), y)
}

func (c *Canvas) Rect(x float64, y float64, w float64, h float64, fill bool) {
	c.add(Block{Kind: KindRect, X: x, Y: y, W: w, H: h, Style: Style{Fill: fill}})
}

func (c *Canvas) Image(name string, data []byte, x float64, y float64, w float64, h float64) {
	c.add(Block{Kind: KindImage, X: x, Y: y, W: w, H: h, Content: name, Image: data})
}

// Space reports whether h points still fit above the bottom margin.
func (c *Canvas) Space(h float64) bool {
	return c.Y+h <= c.Frame.Height-c.Desc.MarginBottom
}

// Ensure starts a new page when h points don't fit, unless the variant's
// policy is to overflow.
func (c *Canvas) Ensure(h float64) {
	if _, overflow := c.Desc.Pagination.(OverflowPolicy); overflow {
		return
	}
	if !c.Space(h) {
		c.NewPage()
	}
}

// Table draws header and rows. cells returns the cell strings of row i in
// column order. Before each row the descriptor's Paginator is asked whether
// to break; on a break a new page is started and the header repeated.
func (c *Canvas) Table(cols []Column, n int, cells func(i int) []string) {
	body := c.Style(c.Desc.BodySize, "", AlignLeft)
	head := c.Style(c.Desc.BodySize, "B", AlignLeft)
	rh := c.Desc.RowHeight

	header := func() {
		x := c.Desc.MarginLeft
		width := 0.0
		for _, col := range cols {
			width += col.Width
		}
		c.Rect(x, c.Y, width, rh, true)
		for _, col := range cols {
			st := head
			st.Align = col.Align
			c.Cell(x, col.Width, c.Y+rh*0.68, col.Title, st)
			x += col.Width
		}
		c.Y += rh
		c.HRule(c.Y)
	}

	if c.Desc.Pagination.ShouldBreak(c.Y+rh, c.Frame.Height) {
		c.NewPage()
	}
	header()
	for i := 0; i < n; i++ {
		if c.Desc.Pagination.ShouldBreak(c.Y, c.Frame.Height) {
			c.NewPage()
			header()
		}
		x := c.Desc.MarginLeft
		row := cells(i)
		for j, col := range cols {
			if j >= len(row) {
				break
			}
			st := body
			st.Align = col.Align
			c.Cell(x, col.Width, c.Y+rh*0.68, row[j], st)
			x += col.Width
		}
		c.Y += rh
	}
	c.HRule(c.Y)
}

// Footer adds one centred small line to every page, just below the bottom
// margin. text receives the page number and the page count.
func (c *Canvas) Footer(text func(page int, total int) string) {
	st := c.Style(c.Desc.SmallSize, "", AlignCenter)
	y := c.Frame.Height - c.Desc.MarginBottom/2
	total := len(c.pages)
	for i := range c.pages {
		s := text(i+1, total)
		w := c.Width(s, st)
		c.pages[i].Blocks = append(c.pages[i].Blocks, Block{
			Kind: KindText, Page: i + 1, X: c.Frame.Width/2 - w/2, Y: y, W: w, H: st.Size, Style: st, Content: s,
		})
	}
}

// Pages hands the accumulated pages over. The canvas must not be used after.
func (c *Canvas) Pages() []Page {
	out := c.pages
	c.pages = nil
	return out
}
