package routing

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeptools/gw-docs/requests"
	"github.com/zeptools/gw-docs/rw"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	body   *rw.CountWriter
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

// AccessLogWrapper logs one line per request with status, size and latency.
func AccessLogWrapper(log zerolog.Logger) HandlerWrapper {
	return HandlerWrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			sw.body = rw.NewCountWriter(w)
			inner.ServeHTTP(sw, r)
			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("ip", requests.ClientIP(r)).
				Int("status", sw.status).
				Int64("bytes", sw.body.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("[INFO] request")
		})
	})
}
