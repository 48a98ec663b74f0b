package routing

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/zeptools/gw-docs/responses"
)

func RecoverWrapper(log zerolog.Logger) HandlerWrapper {
	return HandlerWrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).
						Str("path", r.URL.Path).Msg("[PANIC] recovered")
					responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			inner.ServeHTTP(w, r)
		})
	})
}
