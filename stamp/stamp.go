// Package stamp composites a stamp image onto one page of an existing PDF,
// anchored at a margin-convention box reported by the extractor.
package stamp

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/geom"
	"github.com/zeptools/gw-docs/layout"
)

// Placement - where and what to stamp. Opacity 0 means the configured default.
type Placement struct {
	Page    int
	BBox    geom.BoundingBox
	Image   []byte
	Opacity float64
}

// Signed - the stamped document. Block is the image block added to Page, in
// the layout frame; Box is the same rectangle in the native frame.
type Signed struct {
	Data  []byte
	Page  int
	Block layout.Block
	Box   geom.Rect
}

type Compositor struct {
	Options Options
}

var disableConfigDir sync.Once

func NewCompositor(opts Options) (*Compositor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	// pdfcpu would otherwise create a config dir under the user's home
	disableConfigDir.Do(api.DisableConfigDir)
	return &Compositor{Options: opts}, nil
}

// Stamp draws p.Image as a square of Options.Size points whose lower-left
// corner sits at (visLLX + MarginHorizontal, visLLY + MarginVertical) on
// p.Page. data is not modified.
func (c *Compositor) Stamp(data []byte, p Placement) (*Signed, error) {
	w, h, err := imageSize(p.Image)
	if err != nil {
		return nil, err
	}
	// pdfcpu sets per-command state on the configuration
	dims, err := api.PageDims(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, errs.ParseFailed(p.Page, err)
	}
	if p.Page < 1 || p.Page > len(dims) {
		return nil, errs.PageNotFound(p.Page, len(dims))
	}
	frame := geom.Frame{Width: dims[p.Page-1].Width, Height: dims[p.Page-1].Height}

	opacity := p.Opacity
	if opacity <= 0 {
		opacity = c.Options.Opacity
	}
	scale := c.Options.Size / math.Max(w, h)
	box := geom.Rect{
		X: p.BBox.VisLLX + c.Options.MarginHorizontal,
		Y: p.BBox.VisLLY + c.Options.MarginVertical,
		W: w * scale,
		H: h * scale,
	}

	desc := fmt.Sprintf("pos:bl, off:%.2f %.2f, scale:%.4f abs, rot:0, op:%.2f", box.X, box.Y, scale, opacity)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(p.Image), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("stamp watermark %q: %w", desc, err)
	}
	var out bytes.Buffer
	pages := []string{strconv.Itoa(p.Page)}
	if err = api.AddWatermarks(bytes.NewReader(data), &out, pages, wm, model.NewDefaultConfiguration()); err != nil {
		return nil, errs.ParseFailed(p.Page, err)
	}

	r := frame.FromNative(box)
	return &Signed{
		Data: out.Bytes(),
		Page: p.Page,
		Block: layout.Block{
			Kind:    layout.KindImage,
			Page:    p.Page,
			X:       r.X,
			Y:       r.Y,
			W:       r.W,
			H:       r.H,
			Content: "stamp",
			Image:   p.Image,
		},
		Box: box,
	}, nil
}

// imageSize in pixels; only PNG and JPEG are accepted
func imageSize(data []byte) (float64, float64, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, errs.UnsupportedImageFormat("unknown")
	}
	if format != "png" && format != "jpeg" {
		return 0, 0, errs.UnsupportedImageFormat(format)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0, errs.UnsupportedImageFormat(format)
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}
