package fpdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // DecodeConfig formats
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/pdfs"
	"github.com/zeptools/gw-docs/rw"

	lowimpl "github.com/go-pdf/fpdf"
)

type Writer struct {
	paper       pdfs.PaperSize
	orientation string

	// implementation details, not exported
	internal  *lowimpl.Fpdf
	translate func(string) string // UTF-8 -> cp1252 for the core fonts
	images    map[string]struct{}
}

// Ensure fpdf.Writer implements pdfs.Writer interface
var _ pdfs.Writer = (*Writer)(nil)

// NewWriter builds a point-unit writer with automatic page breaks disabled;
// the caller decides where pages end.
func NewWriter(paper pdfs.PaperSize, orientation string, meta pdfs.Meta) pdfs.Writer {
	if orientation != pdfs.Landscape {
		orientation = pdfs.Portrait
	}
	f := lowimpl.NewCustom(&lowimpl.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           lowimpl.SizeType{Wd: paper.Width, Ht: paper.Height},
	})
	f.SetAutoPageBreak(false, 0)
	f.SetMargins(0, 0, 0)
	f.SetCatalogSort(true)
	if !meta.CreatedAt.IsZero() {
		f.SetCreationDate(meta.CreatedAt)
		f.SetModificationDate(meta.CreatedAt)
	}
	f.SetTitle(meta.Title, true)
	f.SetSubject(meta.Subject, true)
	f.SetAuthor(meta.Author, true)
	f.SetCreator(meta.Creator, true)
	f.SetFillColor(230, 230, 230)
	f.SetDrawColor(0, 0, 0)
	f.SetLineWidth(0.5)
	return &Writer{
		paper:       paper,
		orientation: orientation,
		internal:    f,
		translate:   f.UnicodeTranslatorFromDescriptor(""),
		images:      make(map[string]struct{}),
	}
}

func (w *Writer) PaperSize() pdfs.PaperSize {
	return w.paper
}

func (w *Writer) Orientation() string {
	return w.orientation
}

func (w *Writer) AddBlankPage() {
	w.internal.AddPage()
}

func (w *Writer) SetFont(family string, style string, size float64) {
	w.internal.SetFont(family, style, size)
}

func (w *Writer) StringWidth(s string) float64 {
	return w.internal.GetStringWidth(w.translate(s))
}

func (w *Writer) Text(x float64, y float64, text string) {
	w.internal.Text(x, y, w.translate(text))
}

func (w *Writer) Line(x1 float64, y1 float64, x2 float64, y2 float64) {
	w.internal.Line(x1, y1, x2, y2)
}

func (w *Writer) Rect(x float64, y float64, width float64, height float64, fill bool) {
	style := "D"
	if fill {
		style = "F"
	}
	w.internal.Rect(x, y, width, height, style)
}

func (w *Writer) Image(name string, data []byte, x float64, y float64, width float64, height float64) error {
	imgType, err := ImageType(data)
	if err != nil {
		return err
	}
	opts := lowimpl.ImageOptions{ImageType: imgType}
	if _, ok := w.images[name]; !ok {
		w.internal.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		if w.internal.Err() {
			return fmt.Errorf("register image %q: %w", name, w.internal.Error())
		}
		w.images[name] = struct{}{}
	}
	w.internal.ImageOptions(name, x, y, width, height, false, opts, 0, "")
	return nil
}

func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	if w.internal.Err() {
		return 0, w.internal.Error()
	}
	cw := rw.NewCountWriter(dst)
	err := w.internal.Output(cw)
	return cw.BytesWritten(), err
}

func (w *Writer) WriteToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err = w.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) ProduceBytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImageType maps the sniffed format to the fpdf image type.
// Anything but PNG or JPEG is UnsupportedImageFormat.
func ImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", errs.UnsupportedImageFormat("unknown")
	}
	switch format {
	case "png":
		return "PNG", nil
	case "jpeg":
		return "JPG", nil
	}
	return "", errs.UnsupportedImageFormat(format)
}
