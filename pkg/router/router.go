// Package router is a small method-aware router over http.ServeMux with
// "*" path segments and a colored access log.
package router

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// ANSI colors for the access log
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiCyan   = "\033[36m"
)

var methodColors = map[string]string{
	http.MethodGet:    ansiGreen,
	http.MethodPost:   ansiBlue,
	http.MethodPut:    ansiYellow,
	http.MethodPatch:  ansiYellow,
	http.MethodDelete: ansiRed,
}

type HandlerFunc func(http.ResponseWriter, *http.Request)

type route struct {
	method  string
	pattern string
	handler HandlerFunc
}

// Router dispatches exact paths through a map and "*" patterns in
// registration order, so register specific patterns first.
type Router struct {
	mux      *http.ServeMux
	exact    map[string]HandlerFunc // METHOD + " " + path
	known    map[string]bool        // exact paths under any method
	patterns []route
}

func New() *Router {
	r := &Router{
		mux:   http.NewServeMux(),
		exact: make(map[string]HandlerFunc),
		known: make(map[string]bool),
	}
	r.mux.Handle("/", r.logged(http.HandlerFunc(r.dispatch)))
	return r
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path
	if h, ok := r.exact[req.Method+" "+path]; ok {
		h(w, req)
		return
	}

	otherMethod := r.known[path]
	for _, rt := range r.patterns {
		if !matchWildcardRoute(path, rt.pattern) {
			continue
		}
		if rt.method != req.Method {
			otherMethod = true
			continue
		}
		rt.handler(w, req)
		return
	}

	if otherMethod {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

// logged wraps h with the colored access log
func (r *Router) logged(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, req)

		method, ok := methodColors[req.Method]
		if !ok {
			method = ansiCyan
		}
		log.Printf("%s[%s]%s %s%s%s %s %s%d%s %s(%v)%s",
			ansiCyan, start.Format(time.DateTime), ansiReset,
			method, req.Method, ansiReset,
			req.URL.Path,
			statusColor(rec.status), rec.status, ansiReset,
			ansiBlue, time.Since(start), ansiReset,
		)
	})
}

// matchWildcardRoute reports whether requestPath fits routePattern. A "*"
// segment matches one non-empty segment; a trailing "*" matches the rest.
func matchWildcardRoute(requestPath, routePattern string) bool {
	rest := strings.Trim(requestPath, "/")
	pattern := strings.Trim(routePattern, "/")

	for pattern != "" {
		want, more, hasMore := strings.Cut(pattern, "/")
		got, tail, _ := strings.Cut(rest, "/")
		switch {
		case want == "*" && !hasMore:
			return got != ""
		case want == "*":
			if got == "" {
				return false
			}
		case got != want:
			return false
		}
		pattern, rest = more, tail
	}
	return rest == ""
}

// Handle registers h for method and path; paths containing "*" are patterns.
func (r *Router) Handle(method, path string, h HandlerFunc) {
	if strings.Contains(path, "*") {
		r.patterns = append(r.patterns, route{method: method, pattern: path, handler: h})
		return
	}
	r.exact[method+" "+path] = h
	r.known[path] = true
}

func (r *Router) GET(path string, h HandlerFunc)    { r.Handle(http.MethodGet, path, h) }
func (r *Router) POST(path string, h HandlerFunc)   { r.Handle(http.MethodPost, path, h) }
func (r *Router) PUT(path string, h HandlerFunc)    { r.Handle(http.MethodPut, path, h) }
func (r *Router) PATCH(path string, h HandlerFunc)  { r.Handle(http.MethodPatch, path, h) }
func (r *Router) DELETE(path string, h HandlerFunc) { r.Handle(http.MethodDelete, path, h) }

// Mount serves every method under pattern with h (e.g. "/metrics",
// "/swagger/"), with the same access log.
func (r *Router) Mount(pattern string, h http.Handler) {
	r.mux.Handle(pattern, r.logged(h))
}

// Routes lists every registered route keyed by "METHOD path"
func (r *Router) Routes() map[string]HandlerFunc {
	all := make(map[string]HandlerFunc, len(r.exact)+len(r.patterns))
	for k, h := range r.exact {
		all[k] = h
	}
	for _, rt := range r.patterns {
		all[rt.method+" "+rt.pattern] = rt.handler
	}
	return all
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) Start(addr string) error {
	log.Printf("🚀 Server started on %shttp://localhost%s%s", ansiGreen, addr, ansiReset)
	return http.ListenAndServe(addr, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func statusColor(code int) string {
	switch code / 100 {
	case 2:
		return ansiGreen
	case 3:
		return ansiCyan
	case 4:
		return ansiYellow
	default:
		return ansiRed
	}
}
