package responses

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// WritePDFBytesWithFilename writes the PDF with a strong ETag. A request whose
// If-None-Match carries the same tag gets 304 and no body.
func WritePDFBytesWithFilename(w http.ResponseWriter, r *http.Request, filename string, etag string, PDFBytes []byte) {
	if etag != "" {
		quoted := strconv.Quote(etag)
		w.Header().Set("ETag", quoted)
		if r.Header.Get("If-None-Match") == quoted {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(PDFBytes)))
	WritePDFResponseHeaders(w, filename)
	_, err := w.Write(PDFBytes)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("[ERROR] writing PDF response")
	}
}

// WritePDFResponseHeaders write HTTP response headers for PDF response. i.e. headers are frozen
func WritePDFResponseHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.WriteHeader(http.StatusOK) // Response Header Sent & Frozen
}
