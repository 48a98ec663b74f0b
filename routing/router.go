// Package routing layers route groups and handler wrappers over
// http.ServeMux patterns ("METHOD /path/{var}").
package routing

import (
	"fmt"
	"net/http"
	"strings"
)

type Router interface {
	http.Handler
	Handle(pattern string, handler http.Handler, handlerWrappers ...HandlerWrapper)
	HandleFunc(pattern string, handleFunc http.HandlerFunc, handlerWrappers ...HandlerWrapper)
}

// Mux is the root Router. Wrappers passed to NewMux wrap every route.
type Mux struct {
	mux  *http.ServeMux
	base []HandlerWrapper
}

// Ensure Mux implements Router
var _ Router = (*Mux)(nil)

func NewMux(base ...HandlerWrapper) *Mux {
	return &Mux{mux: http.NewServeMux(), base: base}
}

func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mux.ServeHTTP(w, r)
}

func (m *Mux) Handle(pattern string, handler http.Handler, handlerWrappers ...HandlerWrapper) {
	m.mux.Handle(pattern, chain(handler, m.base, handlerWrappers))
}

func (m *Mux) HandleFunc(pattern string, handleFunc http.HandlerFunc, handlerWrappers ...HandlerWrapper) {
	m.Handle(pattern, handleFunc, handlerWrappers...)
}

// Group registers the routes batch adds under prefix, each wrapped by
// handlerWrappers.
func (m *Mux) Group(prefix string, batch func(*RouteGroup), handlerWrappers ...HandlerWrapper) *RouteGroup {
	g := &RouteGroup{root: m, Prefix: prefix, HandlerWrappers: handlerWrappers}
	batch(g)
	return g
}

type RouteGroup struct {
	root            *Mux
	Prefix          string
	HandlerWrappers []HandlerWrapper
}

// Ensure RouteGroup implements Router
var _ Router = (*RouteGroup)(nil)

func (g *RouteGroup) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.root.ServeHTTP(w, r)
}

// Handle registers "METHOD sub" or "sub" as "METHOD {Prefix}sub". It panics on
// a pattern that would contain "//", as ServeMux does on conflicts.
func (g *RouteGroup) Handle(sub string, handler http.Handler, handlerWrappers ...HandlerWrapper) {
	pattern := g.Prefix + sub
	if method, path, ok := strings.Cut(sub, " "); ok {
		pattern = method + " " + g.Prefix + path
	}
	if strings.Contains(pattern, "//") {
		panic(fmt.Sprintf("routing: bad pattern %q", pattern))
	}
	// base wrappers run first, then group wrappers, then the route's own
	wrapped := chain(handler, g.HandlerWrappers, handlerWrappers)
	g.root.mux.Handle(pattern, chain(wrapped, g.root.base))
}

func (g *RouteGroup) HandleFunc(sub string, handleFunc http.HandlerFunc, handlerWrappers ...HandlerWrapper) {
	g.Handle(sub, handleFunc, handlerWrappers...)
}

// Group makes a subgroup whose prefix and wrappers extend g's.
func (g *RouteGroup) Group(sub string, batch func(*RouteGroup), handlerWrappers ...HandlerWrapper) *RouteGroup {
	wrappers := make([]HandlerWrapper, 0, len(g.HandlerWrappers)+len(handlerWrappers))
	wrappers = append(append(wrappers, g.HandlerWrappers...), handlerWrappers...)
	subg := &RouteGroup{root: g.root, Prefix: g.Prefix + sub, HandlerWrappers: wrappers}
	batch(subg)
	return subg
}

// chain wraps h so the first wrapper of the first list runs outermost.
func chain(h http.Handler, lists ...[]HandlerWrapper) http.Handler {
	for i := len(lists) - 1; i >= 0; i-- {
		for k := len(lists[i]) - 1; k >= 0; k-- {
			h = lists[i][k].Wrap(h)
		}
	}
	return h
}
