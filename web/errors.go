package web

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/jobs"
	"github.com/zeptools/gw-docs/responses"
	"github.com/zeptools/gw-docs/sources"
)

// statusOf maps an error to its HTTP status. Anything unrecognised is a
// server fault.
func statusOf(err error) int {
	switch errs.CodeOf(err) {
	case errs.CodeUnknownVariant:
		return http.StatusBadRequest
	case errs.CodeMissingField, errs.CodeInvalidField, errs.CodeInvalidAmount,
		errs.CodeUnsupportedMethod, errs.CodeUnsupportedImageFormat,
		errs.CodePageNotFound, errs.CodeWordNotFound, errs.CodeAmbiguousWord:
		return http.StatusUnprocessableEntity
	case errs.CodePathBusy:
		return http.StatusConflict
	}
	switch {
	case errors.Is(err, jobs.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, jobs.ErrJobNotFound), errors.Is(err, sources.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	code := string(errs.CodeOf(err))
	if status >= http.StatusInternalServerError {
		a.Log.Error().Err(err).Msg("[ERROR] request failed")
		responses.WriteErrorJSON(w, status, code, "internal server error")
		return
	}
	responses.WriteErrorJSON(w, status, code, err.Error())
}
