package layout

import "github.com/zeptools/gw-docs/geom"

type Kind int

const (
	KindText Kind = iota
	KindLine
	KindRect
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindLine:
		return "Line"
	case KindRect:
		return "Rect"
	case KindImage:
		return "Image"
	}
	return "Unknown"
}

type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

type Style struct {
	Font      string // fpdf family, e.g. "helvetica"
	FontStyle string // "", "B", "I", "BI"
	Size      float64
	Align     Align
	Fill      bool // Rect only
}

// Block - one drawing instruction in the layout frame (top-left origin, y
// down, points).
//
//	Text:  X is the left edge after alignment, Y the baseline, W the measured
//	       width, H the font size
//	Line:  (X,Y) -> (X+W, Y+H)
//	Rect:  top-left corner + size
//	Image: top-left corner + size
type Block struct {
	Kind    Kind
	Page    int // 1-based
	X       float64
	Y       float64
	W       float64
	H       float64
	Style   Style
	Content string // Text: the string; Image: the registered image name
	Image   []byte // Image only
}

// Bounds is the block's box in the layout frame. For text it spans from the
// baseline up by the font size, which is the box a reader reports for the run.
func (b Block) Bounds() geom.Rect {
	if b.Kind == KindText {
		return geom.Rect{X: b.X, Y: b.Y - b.H, W: b.W, H: b.H}
	}
	return geom.Rect{X: b.X, Y: b.Y, W: b.W, H: b.H}
}
