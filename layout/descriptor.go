package layout

import (
	"github.com/shopspring/decimal"

	"github.com/zeptools/gw-docs/pdfs"
	"github.com/zeptools/gw-docs/variant"
)

// Column of a table section. Widths are fixed per variant.
type Column struct {
	Title string
	Field string // row field; "" for computed columns
	Width float64
	Align Align
}

// Descriptor - the geometry of one variant. Templates read every position
// and size from here.
type Descriptor struct {
	Paper        pdfs.PaperSize
	Orientation  string
	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64

	Font      string
	TitleSize float64
	BodySize  float64
	SmallSize float64

	RowHeight float64
	// Columns of the table section, nil for variants without one
	Columns []Column
	// LabelWidth of the label column in key/value sections
	LabelWidth float64
	// TotalsWidth of the right-aligned totals block
	TotalsWidth float64
	// SignatureWidth of the signature box
	SignatureWidth  float64
	SignatureHeight float64

	// StampDutyThreshold - the stamp-duty notice is printed when Total >= this
	StampDutyThreshold decimal.Decimal
	StampDutyNotice    string

	Pagination Paginator
}

// ContentWidth between the side margins.
func (d Descriptor) ContentWidth() float64 {
	return d.Paper.Frame(d.Orientation).Width - d.MarginLeft - d.MarginRight
}

// Right edge of the content area.
func (d Descriptor) Right() float64 {
	return d.Paper.Frame(d.Orientation).Width - d.MarginRight
}

// Paginator decides, before a table row is drawn at currentY, whether the
// row must move to a new page.
type Paginator interface {
	ShouldBreak(currentY float64, pageHeight float64) bool
}

// BottomMarginPolicy breaks when the next row, plus Reserve points kept free
// below it, would cross the bottom margin.
type BottomMarginPolicy struct {
	RowHeight    float64
	MarginBottom float64
	Reserve      float64
}

func (p BottomMarginPolicy) ShouldBreak(currentY float64, pageHeight float64) bool {
	return currentY+p.RowHeight+p.Reserve > pageHeight-p.MarginBottom
}

// OverflowPolicy never breaks; rows past the printable area are drawn off
// the page. Reproduces the legacy single-page output.
type OverflowPolicy struct{}

func (OverflowPolicy) ShouldBreak(float64, float64) bool {
	return false
}

var stampDutyThreshold = decimal.NewFromInt(5_000_000)

const stampDutyNotice = "Stamp duty applies to this document (total of IDR 5,000,000.00 or more)."

func baseDescriptor() Descriptor {
	d := Descriptor{
		Paper:              pdfs.A4Size,
		Orientation:        pdfs.Portrait,
		MarginLeft:         40,
		MarginRight:        40,
		MarginTop:          40,
		MarginBottom:       50,
		Font:               "helvetica",
		TitleSize:          16,
		BodySize:           10,
		SmallSize:          8,
		RowHeight:          20,
		LabelWidth:         130,
		TotalsWidth:        260,
		SignatureWidth:     180,
		SignatureHeight:    90,
		StampDutyThreshold: stampDutyThreshold,
		StampDutyNotice:    stampDutyNotice,
	}
	d.Pagination = BottomMarginPolicy{RowHeight: d.RowHeight, MarginBottom: d.MarginBottom}
	return d
}

// DefaultDescriptors returns a fresh descriptor per variant.
func DefaultDescriptors() map[variant.Variant]Descriptor {
	items := baseDescriptor()
	items.Columns = []Column{
		{Title: "No", Width: 30, Align: AlignRight},
		{Title: "Description", Field: "description", Width: 335},
		{Title: "Amount", Field: "amount", Width: 150, Align: AlignRight},
	}

	single := baseDescriptor()

	utility := baseDescriptor()
	utility.LabelWidth = 200
	utility.Columns = []Column{
		{Title: "Component", Width: 215},
		{Title: "Quantity", Width: 100, Align: AlignRight},
		{Title: "Rate", Width: 100, Align: AlignRight},
		{Title: "Amount", Width: 100, Align: AlignRight},
	}

	overtime := baseDescriptor()
	overtime.Columns = []Column{
		{Title: "Date", Field: "date", Width: 85},
		{Title: "Start", Field: "start", Width: 60, Align: AlignCenter},
		{Title: "End", Field: "end", Width: 60, Align: AlignCenter},
		{Title: "Hours", Field: "hours", Width: 70, Align: AlignRight},
		{Title: "Rate", Field: "rate", Width: 110, Align: AlignRight},
		{Title: "Amount", Width: 130, Align: AlignRight},
	}

	receipt := baseDescriptor()
	receipt.Paper = pdfs.A5Size
	receipt.Orientation = pdfs.Landscape
	receipt.MarginLeft, receipt.MarginRight = 30, 30
	receipt.MarginTop, receipt.MarginBottom = 30, 30
	receipt.TotalsWidth = 240
	receipt.SignatureHeight = 70
	receipt.Pagination = OverflowPolicy{}

	return map[variant.Variant]Descriptor{
		variant.Schedule:                 items,
		variant.Proforma:                 items,
		variant.Manual:                   single,
		variant.DebitNote:                single,
		variant.Receipt:                  receipt,
		variant.UtilityReferenceWater:    utility,
		variant.UtilityReferenceElectric: utility,
		variant.UtilityReferenceFCU:      utility,
		variant.Overtime:                 overtime,
	}
}
