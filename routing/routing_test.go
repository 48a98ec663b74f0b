package routing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(name string, trace *[]string) HandlerWrapper {
	return HandlerWrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trace = append(*trace, name)
			inner.ServeHTTP(w, r)
		})
	})
}

func TestMux_WrapperOrder(t *testing.T) {
	var trace []string
	m := NewMux(tag("base", &trace))
	m.Group("/v1/", func(v1 *RouteGroup) {
		v1.Group("admin/", func(admin *RouteGroup) {
			admin.HandleFunc("GET ping", func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, "handler")
				w.WriteHeader(http.StatusNoContent)
			}, tag("route", &trace))
		}, tag("admin", &trace))
	}, tag("v1", &trace))

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"base", "v1", "admin", "route", "handler"}, trace)

	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/ping", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouteGroup_PathValue(t *testing.T) {
	m := NewMux()
	m.Group("/docs/", func(g *RouteGroup) {
		g.HandleFunc("GET {id}", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(r.PathValue("id")))
		})
	})
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/INV-1", nil))
	assert.Equal(t, "INV-1", rec.Body.String())
}

func TestRouteGroup_BadPattern(t *testing.T) {
	m := NewMux()
	assert.Panics(t, func() {
		m.Group("/v1/", func(g *RouteGroup) { g.HandleFunc("GET /x", func(http.ResponseWriter, *http.Request) {}) })
	})
}

func TestRecoverWrapper(t *testing.T) {
	var buf strings.Builder
	m := NewMux(RecoverWrapper(zerolog.New(&buf)))
	m.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "[PANIC]")
}

func TestAccessLogWrapper(t *testing.T) {
	var buf strings.Builder
	m := NewMux(AccessLogWrapper(zerolog.New(&buf)))
	m.HandleFunc("GET /hello", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hello"))
	})
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"bytes":5`)
}
