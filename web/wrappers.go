package web

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/zeptools/gw-docs/clients"
	"github.com/zeptools/gw-docs/requests"
	"github.com/zeptools/gw-docs/responses"
	"github.com/zeptools/gw-docs/routing"
)

const (
	HeaderClientID     = "X-Client-Id"
	HeaderClientSecret = "X-Client-Secret"
)

// clientAuth admits requests whose X-Client-Id names a configured client and
// whose X-Client-Secret matches it. The client conf is put on the context.
func (a *API) clientAuth() routing.HandlerWrapper {
	return routing.HandlerWrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conf, ok := a.Clients.Get(r.Header.Get(HeaderClientID))
			if !ok || !conf.Authenticate(r.Header.Get(HeaderClientSecret)) {
				responses.WriteSimpleErrorJSON(w, http.StatusUnauthorized, "unknown client or bad secret")
				return
			}
			inner.ServeHTTP(w, r.WithContext(clients.WithClientConf(r.Context(), conf)))
		})
	})
}

// throttled limits a route per client, or per IP for unauthenticated calls.
// A group without a configured bucket is not limited.
func (a *API) throttled(group string) routing.HandlerWrapper {
	return routing.HandlerWrapperFunc(func(inner http.Handler) http.Handler {
		if a.Throttle == nil {
			return inner
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := a.Throttle.GetBucketGroup(group); !ok {
				inner.ServeHTTP(w, r)
				return
			}
			key := requests.ClientIP(r)
			if c, ok := clients.ClientConfFromContext(r.Context()); ok {
				key = c.ID
			}
			if ok, wait := a.Throttle.Take(group, key, time.Now()); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(max(1, int(math.Ceil(wait.Seconds())))))
				responses.WriteSimpleErrorJSON(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			inner.ServeHTTP(w, r)
		})
	})
}
