package pdfs

import "github.com/zeptools/gw-docs/geom"

type PaperSize struct {
	Name   string
	Width  float64 // in `pt` (1" = 72pts)
	Height float64 // in `pt`
}

var (
	LetterSize = PaperSize{Name: "Letter", Width: 612, Height: 792}   // 8.5" x 11"
	A4Size     = PaperSize{Name: "A4", Width: 595.28, Height: 841.89} // 210mm x 297mm
	A5Size     = PaperSize{Name: "A5", Width: 419.53, Height: 595.28} // 148mm x 210mm
)

const (
	Portrait  = "P"
	Landscape = "L"
)

// Frame returns the page frame for the given orientation.
func (p PaperSize) Frame(orientation string) geom.Frame {
	if orientation == Landscape {
		return geom.Frame{Width: p.Height, Height: p.Width}
	}
	return geom.Frame{Width: p.Width, Height: p.Height}
}

// PaperSizeByName - "A4", "A5", "Letter". Unknown names fall back to A4.
func PaperSizeByName(name string) PaperSize {
	switch name {
	case LetterSize.Name:
		return LetterSize
	case A5Size.Name:
		return A5Size
	default:
		return A4Size
	}
}
