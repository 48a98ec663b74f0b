package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"

	"github.com/rs/zerolog"

	"github.com/zeptools/gw-docs/amount"
	"github.com/zeptools/gw-docs/clients"
	"github.com/zeptools/gw-docs/engine"
	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/extract"
	"github.com/zeptools/gw-docs/jobs"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/requests"
	"github.com/zeptools/gw-docs/responses"
	"github.com/zeptools/gw-docs/routing"
	"github.com/zeptools/gw-docs/sec"
	"github.com/zeptools/gw-docs/sources"
	"github.com/zeptools/gw-docs/storage"
	"github.com/zeptools/gw-docs/throttle"
	"github.com/zeptools/gw-docs/variant"
)

// maxBodyBytes bounds request bodies; sign requests carry a base64 image.
const maxBodyBytes = 8 << 20

// API - the HTTP surface. Queue, Tokens, Source and Throttle are optional:
// without Queue async requests are refused, without Tokens responses carry no
// download link, without Source records must be posted inline.
type API struct {
	Engine   *engine.Engine
	Store    *storage.Store
	Queue    *jobs.Queue
	Tokens   *sec.Tokens
	Source   sources.Source
	Clients  *clients.Registry
	Throttle *throttle.BucketStore[string]
	Log      zerolog.Logger
}

// Router registers every route.
//
//	GET  /healthz
//	GET  /.well-known/jwks.json
//	GET  /documents/{token}
//	POST /v1/render/{variant}[?async=1]
//	POST /v1/sign[?async=1]
//	POST /v1/locate
//	GET  /v1/jobs/{id}
func (a *API) Router() http.Handler {
	router := routing.NewMux(routing.RecoverWrapper(a.Log), routing.AccessLogWrapper(a.Log))

	router.HandleFunc("GET /healthz", a.healthz)
	router.HandleFunc("GET /.well-known/jwks.json", a.jwks)
	router.HandleFunc("GET /documents/{token}", a.download)

	router.Group("/v1/", func(v1 *routing.RouteGroup) {
		v1.HandleFunc("POST render/{variant}", a.render, a.throttled("render"))
		v1.HandleFunc("POST sign", a.sign, a.throttled("sign"))
		v1.HandleFunc("POST locate", a.locate, a.throttled("locate"))
		v1.HandleFunc("GET jobs/{id}", a.jobStatus)
	}, a.clientAuth())

	return router
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	responses.EncodeWriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) jwks(w http.ResponseWriter, r *http.Request) {
	if a.Tokens == nil || a.Tokens.JWKS() == nil {
		responses.WriteSimpleErrorJSON(w, http.StatusNotFound, "no public keys")
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, a.Tokens.JWKS())
}

type renderRequest struct {
	Record record.Record `json:"record"`
	// Identifier loads the record from the configured source when Record is
	// absent.
	Identifier string `json:"identifier"`
}

type renderResponse struct {
	*engine.Generated
	Total    string          `json:"total"`
	Download string          `json:"download,omitempty"`
	Derived  *amount.Derived `json:"derived,omitempty"`
}

type acceptedResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status_url"`
}

func (a *API) render(w http.ResponseWriter, r *http.Request) {
	client, _ := clients.ClientConfFromContext(r.Context())
	v, err := variant.Parse(r.PathValue("variant"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	if !client.Allows(v) {
		responses.WriteSimpleErrorJSON(w, http.StatusForbidden, fmt.Sprintf("variant %s not allowed", v))
		return
	}
	var req renderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec := req.Record
	if rec == nil {
		if req.Identifier == "" || a.Source == nil {
			a.writeError(w, errs.MissingField("record"))
			return
		}
		if rec, err = a.Source.Load(r.Context(), v, req.Identifier); err != nil {
			a.writeError(w, err)
			return
		}
	}

	if async(r) {
		a.enqueue(w, r, jobs.Job{Kind: jobs.KindRender, Variant: v, Record: rec})
		return
	}

	gen, err := a.Engine.Generate(r.Context(), v, rec)
	if err != nil {
		a.writeError(w, err)
		return
	}
	resp := renderResponse{Generated: gen, Total: gen.Derived.Total.StringFixed(amount.Places)}
	resp.Download = a.link(r, v, gen.Identifier, false)
	if client.DebugOpts.EchoRecord {
		resp.Derived = &gen.Derived
	}
	responses.EncodeWriteJSON(w, http.StatusCreated, resp)
}

type signRequest struct {
	Variant    string             `json:"variant"`
	Identifier string             `json:"identifier"`
	Options    engine.SignOptions `json:"options"`
	Image      []byte             `json:"image"` // base64; default is the configured stamp
}

type signResponse struct {
	*engine.Stamped
	Download string `json:"download,omitempty"`
}

func (a *API) sign(w http.ResponseWriter, r *http.Request) {
	client, _ := clients.ClientConfFromContext(r.Context())
	if !client.CanSign {
		responses.WriteSimpleErrorJSON(w, http.StatusForbidden, "client may not sign")
		return
	}
	var req signRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := variant.Parse(req.Variant)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if !client.Allows(v) {
		responses.WriteSimpleErrorJSON(w, http.StatusForbidden, fmt.Sprintf("variant %s not allowed", v))
		return
	}
	if req.Identifier == "" {
		a.writeError(w, errs.MissingField("identifier"))
		return
	}

	if async(r) {
		a.enqueue(w, r, jobs.Job{Kind: jobs.KindSign, Variant: v, Identifier: req.Identifier, Sign: req.Options, Image: req.Image})
		return
	}

	st, err := a.Engine.Sign(r.Context(), v, req.Identifier, req.Image, req.Options)
	if err != nil {
		a.writeError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusCreated, signResponse{Stamped: st, Download: a.link(r, v, st.Identifier, true)})
}

type locateRequest struct {
	Variant    string `json:"variant"`
	Identifier string `json:"identifier"`
	Word       string `json:"word"`
	Page       int    `json:"page"` // 0 = last page
}

type locateResponse struct {
	Locations []extract.WordLocation `json:"locations"`
}

func (a *API) locate(w http.ResponseWriter, r *http.Request) {
	client, _ := clients.ClientConfFromContext(r.Context())
	var req locateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := variant.Parse(req.Variant)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if !client.Allows(v) {
		responses.WriteSimpleErrorJSON(w, http.StatusForbidden, fmt.Sprintf("variant %s not allowed", v))
		return
	}
	if req.Word == "" {
		a.writeError(w, errs.MissingField("word"))
		return
	}
	locs, err := a.Engine.Locate(r.Context(), v, req.Identifier, req.Word, req.Page)
	if err != nil {
		a.writeError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, locateResponse{Locations: locs})
}

func (a *API) jobStatus(w http.ResponseWriter, r *http.Request) {
	if a.Queue == nil {
		responses.WriteSimpleErrorJSON(w, http.StatusServiceUnavailable, "job queue not configured")
		return
	}
	info, err := a.Queue.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, info)
}

func (a *API) download(w http.ResponseWriter, r *http.Request) {
	if a.Tokens == nil {
		responses.WriteSimpleErrorJSON(w, http.StatusNotFound, "downloads not enabled")
		return
	}
	claims, err := a.Tokens.Verify(r.PathValue("token"))
	if err != nil {
		responses.WriteSimpleErrorJSON(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	data, err := a.Store.Read(r.Context(), claims.Path)
	if err != nil {
		a.writeError(w, err)
		return
	}
	responses.WritePDFBytesWithFilename(w, r, path.Base(claims.Path), sec.HashHexSHA256(data), data)
}

func (a *API) enqueue(w http.ResponseWriter, r *http.Request, j jobs.Job) {
	if a.Queue == nil {
		responses.WriteSimpleErrorJSON(w, http.StatusServiceUnavailable, "job queue not configured")
		return
	}
	id, err := a.Queue.Enqueue(r.Context(), j)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/jobs/"+id)
	responses.EncodeWriteJSON(w, http.StatusAccepted, acceptedResponse{JobID: id, Status: requests.BaseURL(r) + "/v1/jobs/" + id})
}

// link issues a download URL for the stored document, or "" without Tokens.
func (a *API) link(r *http.Request, v variant.Variant, identifier string, signed bool) string {
	if a.Tokens == nil {
		return ""
	}
	rel, err := engine.Path(v, identifier, signed)
	if err != nil {
		return ""
	}
	token, err := a.Tokens.Issue(rel, string(v))
	if err != nil {
		a.Log.Error().Err(err).Str("path", rel).Msg("[ERROR] issuing download token")
		return ""
	}
	return requests.BaseURL(r) + "/documents/" + token
}

func async(r *http.Request) bool {
	switch r.URL.Query().Get("async") {
	case "1", "true":
		return true
	}
	return false
}

// decodeJSON writes 400 and returns false on a malformed body. Numbers stay
// json.Number so amounts keep their digits.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !requests.HasBody(r) {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "request body required")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		responses.WriteErrorJSON(w, http.StatusBadRequest, "BAD_REQUEST", fmt.Sprintf("decode body: %v", err))
		return false
	}
	return true
}
