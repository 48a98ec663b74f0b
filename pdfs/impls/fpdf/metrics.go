package fpdf

import (
	"strings"
	"sync"

	lowimpl "github.com/go-pdf/fpdf"
)

// Metrics measures strings set in the standard-14 fonts, using the AFM
// widths compiled into fpdf. The documents fpdf writes with core fonts carry
// no /Widths array, so a reader has to measure runs this way.
type Metrics struct {
	mu      sync.Mutex
	scratch *lowimpl.Fpdf
	tr      func(string) string
}

func NewMetrics() *Metrics {
	f := lowimpl.New("P", "pt", "A4", "")
	f.AddPage()
	return &Metrics{scratch: f, tr: f.UnicodeTranslatorFromDescriptor("")}
}

// Width of s in points, set in the font with the given PDF BaseFont name at
// size points. ok is false for fonts that are not standard-14 faces.
func (m *Metrics) Width(baseFont string, size float64, s string) (float64, bool) {
	family, style, ok := CoreFont(baseFont)
	if !ok {
		return 0, false
	}
	return m.StringWidth(family, style, size, s), true
}

// CoreFont maps a BaseFont name such as "Helvetica-BoldOblique" to an fpdf
// family and style ("helvetica", "BI").
func CoreFont(baseFont string) (family string, style string, ok bool) {
	name := baseFont
	if i := strings.IndexByte(name, '+'); i >= 0 { // subset tag
		name = name[i+1:]
	}
	base, variant, _ := strings.Cut(name, "-")
	switch strings.ToLower(base) {
	case "helvetica", "arial":
		family = "helvetica"
	case "times", "times new roman":
		family = "times"
	case "courier":
		family = "courier"
	case "symbol":
		return "symbol", "", true
	case "zapfdingbats":
		return "zapfdingbats", "", true
	default:
		return "", "", false
	}
	v := strings.ToLower(variant)
	if strings.Contains(v, "bold") {
		style += "B"
	}
	if strings.Contains(v, "oblique") || strings.Contains(v, "italic") {
		style += "I"
	}
	return family, style, true
}

// StringWidth of s in points for an fpdf family and style. Unknown families
// measure as zero.
func (m *Metrics) StringWidth(family string, style string, size float64, s string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scratch.SetFont(family, style, size)
	w := m.scratch.GetStringWidth(m.tr(s))
	if m.scratch.Err() {
		m.scratch.ClearError()
		return 0
	}
	return w
}
