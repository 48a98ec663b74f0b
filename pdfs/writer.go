package pdfs

import (
	"io"
	"time"
)

// Writer - minimal, stream-style, append-only PDF writer. No page navigation.
// All coordinates are in points in the layout frame (top-left origin, y down);
// the implementation translates to the native frame when it writes the page
// content.
type Writer interface {
	PaperSize() PaperSize
	Orientation() string

	AddBlankPage()

	SetFont(family string, style string, size float64)
	// StringWidth of s in the current font
	StringWidth(s string) float64

	// Text draws s with its baseline at y
	Text(x float64, y float64, text string)
	Line(x1 float64, y1 float64, x2 float64, y2 float64)
	Rect(x float64, y float64, w float64, h float64, fill bool)
	// Image draws a PNG or JPEG. The same name must always carry the same data.
	Image(name string, data []byte, x float64, y float64, w float64, h float64) error

	WriteTo(w io.Writer) (int64, error)
	WriteToFile(filepath string) error
	ProduceBytes() ([]byte, error)
}

// Meta - document info dictionary. A fixed CreatedAt makes the output
// byte-for-byte reproducible.
type Meta struct {
	Title     string
	Subject   string
	Author    string
	Creator   string
	CreatedAt time.Time
}

// WriterFactory builds a fresh Writer for one document.
type WriterFactory func(paper PaperSize, orientation string, meta Meta) Writer
