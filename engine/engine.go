// Package engine chains the components into the two document workflows:
// Generate (derive, lay out, store, deliver) and Sign (locate the keyword,
// stamp, store, deliver).
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zeptools/gw-docs/amount"
	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/extract"
	"github.com/zeptools/gw-docs/layout"
	"github.com/zeptools/gw-docs/pdfs"
	"github.com/zeptools/gw-docs/pdfs/impls/fpdf"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/stamp"
	"github.com/zeptools/gw-docs/storage"
	"github.com/zeptools/gw-docs/variant"
)

// Uploader delivers a document to the transfer host. *transfer.Pool is one.
type Uploader interface {
	Upload(ctx context.Context, host string, remotePath string, data []byte) error
}

// Config - the collaborators of an Engine. Uploader is optional; without it
// documents are only stored locally.
type Config struct {
	Layout     *layout.Engine
	NewWriter  pdfs.WriterFactory // default fpdf.NewWriter
	Extractor  *extract.Extractor // default measures with fpdf core-font metrics
	Compositor *stamp.Compositor
	Store      *storage.Store
	Uploader   Uploader
	Host       string
	// StampImage is used when a sign request carries no image.
	StampImage []byte
	Log        zerolog.Logger
}

type Engine struct {
	layout     *layout.Engine
	newWriter  pdfs.WriterFactory
	extractor  *extract.Extractor
	compositor *stamp.Compositor
	store      *storage.Store
	uploader   Uploader
	host       string
	stampImage []byte
	log        zerolog.Logger
}

func New(c Config) (*Engine, error) {
	if c.Layout == nil || c.Compositor == nil || c.Store == nil {
		return nil, fmt.Errorf("engine needs a layout engine, a compositor and a store")
	}
	e := &Engine{
		layout:     c.Layout,
		newWriter:  c.NewWriter,
		extractor:  c.Extractor,
		compositor: c.Compositor,
		store:      c.Store,
		uploader:   c.Uploader,
		host:       c.Host,
		stampImage: c.StampImage,
		log:        c.Log,
	}
	if e.newWriter == nil {
		e.newWriter = fpdf.NewWriter
	}
	if e.extractor == nil {
		e.extractor = extract.New(fpdf.NewMetrics().Width)
	}
	return e, nil
}

// Generated - the outcome of Generate
type Generated struct {
	Variant    variant.Variant `json:"variant"`
	Identifier string          `json:"identifier"`
	Path       string          `json:"path"`   // absolute local path
	Remote     string          `json:"remote"` // "" when not delivered
	Pages      int             `json:"pages"`
	Derived    amount.Derived  `json:"-"`
	Data       []byte          `json:"-"`
}

// Build derives the amounts and serialises the document without touching
// storage.
func (e *Engine) Build(v variant.Variant, rec record.Record) (*layout.Document, amount.Derived, []byte, error) {
	id := rec.StringOr("doc_no", "")
	if err := storage.CheckIdentifier(id); err != nil {
		return nil, amount.Derived{}, nil, errs.WithContext(err, string(v), id)
	}
	p, err := variant.Lookup(v)
	if err != nil {
		return nil, amount.Derived{}, nil, err
	}
	// the first absent required field is reported, before any arithmetic
	if err = layout.Validate(p, rec); err != nil {
		return nil, amount.Derived{}, nil, errs.WithContext(err, string(v), id)
	}
	d, err := amount.Compute(v, rec)
	if err != nil {
		return nil, amount.Derived{}, nil, errs.WithContext(err, string(v), id)
	}
	doc, err := e.layout.Render(v, rec, d)
	if err != nil {
		return nil, amount.Derived{}, nil, err
	}
	data, err := layout.Serialize(doc, e.newWriter)
	if err != nil {
		return nil, amount.Derived{}, nil, err
	}
	return doc, d, data, nil
}

// Generate renders rec as a v document, stores it at {category}/{stem}.pdf
// and, with an Uploader, delivers it to /UNSIGNED/GQCINV/{CATEGORY}/{stem}.pdf.
// See storage.Stem.
func (e *Engine) Generate(ctx context.Context, v variant.Variant, rec record.Record) (*Generated, error) {
	p, err := variant.Lookup(v)
	if err != nil {
		return nil, err
	}
	doc, d, data, err := e.Build(v, rec)
	if err != nil {
		return nil, err
	}
	id := doc.Identifier
	log := e.log.With().Str("variant", string(v)).Str("identifier", id).Logger()

	path, err := e.store.Write(ctx, storage.DocumentPath(p, id), data)
	if err != nil {
		return nil, errs.WithContext(err, string(v), id)
	}
	out := &Generated{Variant: v, Identifier: id, Path: path, Pages: doc.PageCount(), Derived: d, Data: data}
	if e.uploader != nil {
		remote := storage.RemoteUnsignedPath(p, id)
		if err = e.uploader.Upload(ctx, e.host, remote, data); err != nil {
			return nil, fmt.Errorf("deliver %s %s: %w", v, id, err)
		}
		out.Remote = remote
	}
	log.Info().Str("path", path).Int("pages", out.Pages).Str("total", d.Total.StringFixed(amount.Places)).
		Msg("[INFO] document generated")
	return out, nil
}
