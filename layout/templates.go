package layout

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/zeptools/gw-docs/amount"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/variant"
	"github.com/zeptools/gw-docs/words"
)

// Input of a template: the record as handed over plus its derived amounts.
type Input struct {
	Profile    variant.Profile
	Record     record.Record
	Derived    amount.Derived
	Letterhead Letterhead
}

func (in Input) currency() string {
	return in.Record.StringOr("currency", in.Profile.Optional["currency"])
}

// Template - one per variant. Body draws everything between the page header
// and the totals; the shared sections are drawn by the engine.
type Template struct {
	Variant    variant.Variant
	Descriptor Descriptor
	Body       func(c *Canvas, in Input) error
}

type pair struct {
	label string
	value string
}

// DefaultTemplates binds every variant to its body and descriptor.
func DefaultTemplates(descs map[variant.Variant]Descriptor) []Template {
	bodies := map[variant.Variant]func(*Canvas, Input) error{
		variant.Schedule:                 scheduleBody,
		variant.Proforma:                 proformaBody,
		variant.Manual:                   manualBody,
		variant.DebitNote:                debitNoteBody,
		variant.Receipt:                  receiptBody,
		variant.UtilityReferenceWater:    utilityBody,
		variant.UtilityReferenceElectric: utilityBody,
		variant.UtilityReferenceFCU:      utilityBody,
		variant.Overtime:                 overtimeBody,
	}
	out := make([]Template, 0, len(bodies))
	for _, v := range variant.All() {
		out = append(out, Template{Variant: v, Descriptor: descs[v], Body: bodies[v]})
	}
	return out
}

//---- shared sections ----

func drawHeader(c *Canvas, in Input) {
	d := c.Desc
	top := c.Y
	x := d.MarginLeft
	if len(in.Letterhead.Logo) > 0 {
		c.Image("letterhead-logo", in.Letterhead.Logo, x, top, 40, 40)
		x += 48
	}
	y := top + d.BodySize + 2
	if in.Letterhead.Name != "" {
		c.Text(x, y, in.Letterhead.Name, c.Style(d.BodySize+2, "B", AlignLeft))
		y += d.BodySize + 4
	}
	for _, l := range in.Letterhead.Lines {
		c.Text(x, y, l, c.Style(d.SmallSize, "", AlignLeft))
		y += d.SmallSize + 3
	}
	c.Text(d.Right(), top+d.TitleSize, in.Profile.Title, c.Style(d.TitleSize, "B", AlignRight))
	if y < top+48 {
		y = top + 48
	}
	c.Y = y + 4
	c.HRule(c.Y)
	c.Y += 14
}

// drawPairs draws label/value rows at x, labels bold.
func drawPairs(c *Canvas, x float64, pairs []pair) float64 {
	d := c.Desc
	label := c.Style(d.BodySize, "B", AlignLeft)
	value := c.Style(d.BodySize, "", AlignLeft)
	y := c.Y
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		y += d.BodySize + 5
		c.Text(x, y, p.label, label)
		c.Text(x+d.LabelWidth, y, p.value, value)
	}
	return y
}

// drawTwoColumns draws the party pairs on the left and the document pairs
// on the right half, then moves the cursor below the taller one.
func drawTwoColumns(c *Canvas, left []pair, right []pair) {
	d := c.Desc
	yl := drawPairs(c, d.MarginLeft, left)
	yr := drawPairs(c, d.MarginLeft+d.ContentWidth()/2+10, right)
	if yr > yl {
		yl = yr
	}
	c.Y = yl + 16
}

func drawTotals(c *Canvas, in Input) error {
	d := c.Desc
	lines := in.Derived.Displayed()
	cur := in.currency()
	c.Ensure(float64(len(lines)+4) * (d.BodySize + 6))

	left := d.Right() - d.TotalsWidth
	label := c.Style(d.BodySize, "", AlignLeft)
	value := c.Style(d.BodySize, "", AlignRight)
	for _, l := range lines {
		c.Y += d.BodySize + 6
		c.Text(left, c.Y, l.Label, label)
		c.Text(d.Right(), c.Y, FormatAmount(l.Amount), value)
	}
	c.Y += 6
	c.Line(left, c.Y, d.Right(), c.Y)
	c.Y += d.BodySize + 6
	c.Text(left, c.Y, "Total", c.Style(d.BodySize, "B", AlignLeft))
	c.Text(d.Right(), c.Y, FormatMoney(cur, in.Derived.Total), c.Style(d.BodySize, "B", AlignRight))
	c.Y += 18

	spelled, err := words.ToWords(in.Derived.Total)
	if err != nil {
		return err
	}
	c.Text(d.MarginLeft, c.Y, "Amount in words: "+spelled+" "+currencyName(cur), c.Style(d.BodySize, "I", AlignLeft))
	c.Y += 16

	if !d.StampDutyThreshold.IsZero() && in.Derived.Total.GreaterThanOrEqual(d.StampDutyThreshold) {
		c.Text(d.MarginLeft, c.Y, d.StampDutyNotice, c.Style(d.SmallSize, "", AlignLeft))
		c.Y += 14
	}
	if notes := in.Record.StringOr("notes", ""); notes != "" {
		c.Text(d.MarginLeft, c.Y, "Notes: "+notes, c.Style(d.SmallSize, "", AlignLeft))
		c.Y += 14
	}
	return nil
}

// drawSignature puts the stamp keyword at the top of the signature box on
// the right. The stamp is later composited relative to that word.
func drawSignature(c *Canvas, in Input) {
	d := c.Desc
	c.Ensure(d.SignatureHeight + 30)
	x := d.Right() - d.SignatureWidth
	c.Y += 10
	c.Text(x, c.Y+d.BodySize, in.Profile.StampKeyword, c.Style(d.BodySize, "B", AlignLeft))
	bottom := c.Y + d.SignatureHeight
	c.Line(x, bottom, d.Right(), bottom)
	signer := in.Record.StringOr("signer_name", in.Letterhead.Name)
	c.Text(x, bottom+d.BodySize+2, signer, c.Style(d.BodySize, "", AlignLeft))
	c.Y = bottom + d.BodySize + 8
}

func currencyName(code string) string {
	switch code {
	case "IDR":
		return "Rupiah"
	case "USD":
		return "US Dollars"
	case "SGD":
		return "Singapore Dollars"
	case "EUR":
		return "Euro"
	}
	return code
}

func dateOf(rec record.Record, field string) (string, error) {
	if !rec.Has(field) {
		return "", nil
	}
	t, err := rec.Date(field)
	if err != nil {
		return "", err
	}
	return FormatDate(t), nil
}

// dates resolves several date fields at once.
func dates(rec record.Record, fields ...string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		s, err := dateOf(rec, f)
		if err != nil {
			return nil, err
		}
		out[f] = s
	}
	return out, nil
}

func customer(rec record.Record) []pair {
	return []pair{
		{"Bill To", rec.StringOr("customer_name", "")},
		{"Address", rec.StringOr("customer_address", "")},
		{"Unit", rec.StringOr("unit", "")},
	}
}

//---- variant bodies ----

func itemsTable(c *Canvas, in Input) error {
	rows, err := in.Record.Rows(in.Profile.RowsField)
	if err != nil {
		return err
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		amt, err := row.Decimal("amount")
		if err != nil {
			return err
		}
		cells[i] = []string{strconv.Itoa(i + 1), row.StringOr("description", ""), FormatAmount(amt)}
	}
	c.Table(c.Desc.Columns, len(rows), func(i int) []string { return cells[i] })
	return nil
}

func scheduleBody(c *Canvas, in Input) error {
	ds, err := dates(in.Record, "doc_date", "due_date")
	if err != nil {
		return err
	}
	drawTwoColumns(c, customer(in.Record), []pair{
		{"Invoice No", in.Record.StringOr("doc_no", "")},
		{"Invoice Date", ds["doc_date"]},
		{"Due Date", ds["due_date"]},
		{"Period", in.Record.StringOr("period", "")},
	})
	return itemsTable(c, in)
}

func proformaBody(c *Canvas, in Input) error {
	ds, err := dates(in.Record, "doc_date", "valid_until")
	if err != nil {
		return err
	}
	drawTwoColumns(c, customer(in.Record), []pair{
		{"Proforma No", in.Record.StringOr("doc_no", "")},
		{"Date", ds["doc_date"]},
		{"Valid Until", ds["valid_until"]},
	})
	return itemsTable(c, in)
}

func manualBody(c *Canvas, in Input) error {
	ds, err := dates(in.Record, "doc_date", "due_date")
	if err != nil {
		return err
	}
	drawTwoColumns(c, customer(in.Record), []pair{
		{"Invoice No", in.Record.StringOr("doc_no", "")},
		{"Invoice Date", ds["doc_date"]},
		{"Due Date", ds["due_date"]},
	})
	drawTwoColumns(c, []pair{
		{"Description", in.Record.StringOr("description", "")},
		{"Lot", in.Record.StringOr("lot_description", in.Profile.Optional["lot_description"])},
	}, nil)
	return nil
}

func debitNoteBody(c *Canvas, in Input) error {
	ds, err := dates(in.Record, "doc_date")
	if err != nil {
		return err
	}
	drawTwoColumns(c, customer(in.Record), []pair{
		{"Debit Note No", in.Record.StringOr("doc_no", "")},
		{"Date", ds["doc_date"]},
		{"Reference", in.Record.StringOr("reference_no", "")},
	})
	drawTwoColumns(c, []pair{{"Reason", in.Record.StringOr("reason", "")}}, nil)
	return nil
}

func receiptBody(c *Canvas, in Input) error {
	ds, err := dates(in.Record, "doc_date")
	if err != nil {
		return err
	}
	drawTwoColumns(c, []pair{
		{"Paid By", in.Record.StringOr("customer_name", "")},
		{"For Invoice", in.Record.StringOr("invoice_no", "")},
		{"Payment Method", in.Record.StringOr("payment_method", "")},
	}, []pair{
		{"Receipt No", in.Record.StringOr("doc_no", "")},
		{"Date", ds["doc_date"]},
	})
	return nil
}

func utilityBody(c *Canvas, in Input) error {
	u := in.Derived.Usage
	if u == nil {
		return fmt.Errorf("%s: derived amounts carry no usage", in.Profile.Variant)
	}
	ds, err := dates(in.Record, "doc_date")
	if err != nil {
		return err
	}
	drawTwoColumns(c, customer(in.Record), []pair{
		{"Reference No", in.Record.StringOr("doc_no", "")},
		{"Date", ds["doc_date"]},
		{"Period", in.Record.StringOr("period", "")},
	})

	meter := []pair{
		{"Previous Reading", FormatQuantity(u.Previous)},
		{"Current Reading", FormatQuantity(u.Current)},
		{"Multiplier", FormatQuantity(u.Multiplier)},
		{"Usage", FormatQuantity(u.Usage)},
		{"Calculation Method", string(u.Method)},
	}
	switch u.Method {
	case amount.MethodTiered:
		meter = append(meter, pair{"Block Threshold", FormatQuantity(u.Threshold)})
	case amount.MethodLoadFactor:
		meter = append(meter,
			pair{"Capacity", FormatQuantity(u.Capacity)},
			pair{"Load Factor Hours", FormatQuantity(u.LoadFactorHours())},
			pair{"Billed Usage", FormatQuantity(u.Billed)},
		)
	}
	drawTwoColumns(c, meter, nil)

	var cells [][]string
	for _, l := range in.Derived.Components {
		var qty, rate decimal.Decimal
		switch l.Kind {
		case amount.KindUsage:
			qty, rate = u.Billed, u.Rate1
		case amount.KindBlock1:
			qty, rate = decimal.Min(u.Usage, u.Threshold), u.Rate1
		case amount.KindBlock2:
			qty, rate = decimal.Max(u.Usage.Sub(u.Threshold), decimal.Zero), u.Rate2
		default:
			continue
		}
		cells = append(cells, []string{l.Label, FormatQuantity(qty), FormatAmount(rate), FormatAmount(l.Amount)})
	}
	c.Table(c.Desc.Columns, len(cells), func(i int) []string { return cells[i] })
	return nil
}

func overtimeBody(c *Canvas, in Input) error {
	ds, err := dates(in.Record, "doc_date")
	if err != nil {
		return err
	}
	drawTwoColumns(c, customer(in.Record), []pair{
		{"Reference No", in.Record.StringOr("doc_no", "")},
		{"Date", ds["doc_date"]},
		{"Period", in.Record.StringOr("period", "")},
	})
	rows, err := in.Record.Rows(in.Profile.RowsField)
	if err != nil {
		return err
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		amt, err := amount.OvertimeAmount(row)
		if err != nil {
			return err
		}
		t, err := row.Date("date")
		if err != nil {
			return err
		}
		hours, _ := row.Decimal("hours")
		rate, _ := row.Decimal("rate")
		cells[i] = []string{
			FormatShortDate(t),
			row.StringOr("start", ""),
			row.StringOr("end", ""),
			FormatQuantity(hours),
			FormatAmount(rate),
			FormatAmount(amt),
		}
	}
	c.Table(c.Desc.Columns, len(rows), func(i int) []string { return cells[i] })
	return nil
}
