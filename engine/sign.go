package engine

import (
	"context"
	"fmt"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/extract"
	"github.com/zeptools/gw-docs/stamp"
	"github.com/zeptools/gw-docs/storage"
	"github.com/zeptools/gw-docs/variant"
)

// SignOptions - zero values pick the defaults
type SignOptions struct {
	Keyword string `json:"keyword"` // default: the variant's stamp keyword
	Page    int    `json:"page"`    // 1-based, default: the last page
	// RequireUnique fails with AmbiguousWord when the keyword occurs more than
	// once on the page. Otherwise the first occurrence is stamped.
	RequireUnique bool    `json:"require_unique"`
	Opacity       float64 `json:"opacity"`
}

// Stamped - the outcome of Stamp and Sign
type Stamped struct {
	Variant    variant.Variant      `json:"variant"`
	Identifier string               `json:"identifier"`
	Location   extract.WordLocation `json:"location"`
	Path       string               `json:"path"`
	Remote     string               `json:"remote"`
	Signed     *stamp.Signed        `json:"-"`
}

// Stamp locates keyword in data and composites image over it. It performs no
// I/O.
func (e *Engine) Stamp(data []byte, image []byte, opts SignOptions) (*stamp.Signed, extract.WordLocation, error) {
	if len(image) == 0 {
		image = e.stampImage
	}
	if len(image) == 0 {
		return nil, extract.WordLocation{}, errs.MissingField("image")
	}
	page := opts.Page
	if page == 0 {
		n, err := extract.PageCount(data)
		if err != nil {
			return nil, extract.WordLocation{}, err
		}
		page = n
	}
	locs, err := e.extractor.FindWord(data, opts.Keyword, page)
	if err != nil {
		return nil, extract.WordLocation{}, err
	}
	switch {
	case len(locs) == 0:
		return nil, extract.WordLocation{}, errs.WordNotFound(opts.Keyword, page)
	case len(locs) > 1 && opts.RequireUnique:
		return nil, extract.WordLocation{}, errs.AmbiguousWord(opts.Keyword, page, len(locs))
	}
	signed, err := e.compositor.Stamp(data, stamp.Placement{Page: page, BBox: locs[0].BBox, Image: image, Opacity: opts.Opacity})
	if err != nil {
		return nil, extract.WordLocation{}, err
	}
	return signed, locs[0], nil
}

// Sign stamps the stored document of identifier and stores the result under
// its signed name. With an Uploader the signed copy is delivered to
// /SIGNED/GQCINV/{CATEGORY}/{file}.
func (e *Engine) Sign(ctx context.Context, v variant.Variant, identifier string, image []byte, opts SignOptions) (*Stamped, error) {
	p, err := variant.Lookup(v)
	if err != nil {
		return nil, err
	}
	if err = storage.CheckIdentifier(identifier); err != nil {
		return nil, errs.WithContext(err, string(v), identifier)
	}
	if opts.Keyword == "" {
		opts.Keyword = p.StampKeyword
	}
	log := e.log.With().Str("variant", string(v)).Str("identifier", identifier).Logger()

	data, err := e.store.Read(ctx, storage.DocumentPath(p, identifier))
	if err != nil {
		return nil, fmt.Errorf("read unsigned %s %s: %w", v, identifier, err)
	}
	signed, loc, err := e.Stamp(data, image, opts)
	if err != nil {
		return nil, errs.WithContext(err, string(v), identifier)
	}

	path, err := e.store.Write(ctx, storage.SignedPath(p, identifier), signed.Data)
	if err != nil {
		return nil, errs.WithContext(err, string(v), identifier)
	}
	out := &Stamped{Variant: v, Identifier: identifier, Location: loc, Path: path, Signed: signed}
	if e.uploader != nil {
		remote := storage.RemoteSignedPath(p.Category, storage.SignedName(p, identifier))
		if err = e.uploader.Upload(ctx, e.host, remote, signed.Data); err != nil {
			return nil, fmt.Errorf("deliver signed %s %s: %w", v, identifier, err)
		}
		out.Remote = remote
	}
	log.Info().Int("page", signed.Page).Str("path", path).Str("keyword", opts.Keyword).
		Msg("[INFO] document signed")
	return out, nil
}

// Locate reports every occurrence of word on a page of the stored document.
// page 0 is the last page.
func (e *Engine) Locate(ctx context.Context, v variant.Variant, identifier string, word string, page int) ([]extract.WordLocation, error) {
	p, err := variant.Lookup(v)
	if err != nil {
		return nil, err
	}
	if err = storage.CheckIdentifier(identifier); err != nil {
		return nil, errs.WithContext(err, string(v), identifier)
	}
	data, err := e.store.Read(ctx, storage.DocumentPath(p, identifier))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", v, identifier, err)
	}
	if page == 0 {
		if page, err = extract.PageCount(data); err != nil {
			return nil, errs.WithContext(err, string(v), identifier)
		}
	}
	locs, err := e.extractor.FindWord(data, word, page)
	if err != nil {
		return nil, errs.WithContext(err, string(v), identifier)
	}
	return locs, nil
}

// Path of a stored document, signed or not, relative to the store root.
func Path(v variant.Variant, identifier string, signed bool) (string, error) {
	p, err := variant.Lookup(v)
	if err != nil {
		return "", err
	}
	if err = storage.CheckIdentifier(identifier); err != nil {
		return "", err
	}
	if signed {
		return storage.SignedPath(p, identifier), nil
	}
	return storage.DocumentPath(p, identifier), nil
}
