package router

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
)

// HandlerFunc handles one dispatched request. params holds the values captured by
// the route pattern's named segments, left to right.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, params []string) error

// NoRouteError is returned by Dispatch when no registered route accepts the request.
type NoRouteError struct {
	Method string
	Path   string
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route registered for %s %s", e.Method, e.Path)
}

type route struct {
	pattern string
	matcher *regexp.Regexp
	handler HandlerFunc
}

// Router maps (method, path pattern) pairs to handlers. Patterns are static paths
// with optional ":name" segments, e.g. "/light/:id".
type Router struct {
	mu     sync.RWMutex
	routes map[string][]route
}

func NewRouter() *Router {
	return &Router{routes: map[string][]route{}}
}

// named segments capture one or more characters other than '/' and '?'
var segmentPattern = regexp.MustCompile(`:[A-Za-z_][A-Za-z0-9_]*`)

func compile(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	last := 0
	for _, loc := range segmentPattern.FindAllStringIndex(pattern, -1) {
		sb.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		sb.WriteString(`([^/?]+)`)
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(pattern[last:]))
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}

// Entry is one route to register with AddRoutes.
type Entry struct {
	Method  string
	Pattern string
	Handler HandlerFunc
}

func prepare(e Entry) (string, route, error) {
	method := strings.ToUpper(e.Method)
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete:
	default:
		return "", route{}, fmt.Errorf("unsupported route method (%s)", method)
	}

	matcher, err := compile(e.Pattern)
	if err != nil {
		return "", route{}, fmt.Errorf("error compiling route pattern (%s): %w", e.Pattern, err)
	}
	return method, route{pattern: e.Pattern, matcher: matcher, handler: e.Handler}, nil
}

// AddRoute registers handler for method and pattern. Overlapping patterns are
// allowed; the first one registered wins.
func (rt *Router) AddRoute(method string, pattern string, handler HandlerFunc) error {
	return rt.AddRoutes([]Entry{{Method: method, Pattern: pattern, Handler: handler}})
}

// AddRoutes registers entries in order. Nothing is registered unless every
// entry is valid.
func (rt *Router) AddRoutes(entries []Entry) error {
	methods := make([]string, len(entries))
	routes := make([]route, len(entries))
	for i, e := range entries {
		method, rte, err := prepare(e)
		if err != nil {
			return fmt.Errorf("error registering route (%s %s): %w", e.Method, e.Pattern, err)
		}
		methods[i], routes[i] = method, rte
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	for i, rte := range routes {
		rt.routes[methods[i]] = append(rt.routes[methods[i]], rte)
	}
	return nil
}

// Match returns the handler and captured params for method and path, if any.
func (rt *Router) Match(method string, path string) (HandlerFunc, []string, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	for _, rte := range rt.routes[strings.ToUpper(method)] {
		m := rt.matchOne(rte, path)
		if m != nil {
			return rte.handler, m, true
		}
	}
	return nil, nil, false
}

func (rt *Router) matchOne(rte route, path string) []string {
	m := rte.matcher.FindStringSubmatch(path)
	if m == nil {
		return nil
	}
	return append([]string{}, m[1:]...)
}

// Dispatch runs the first matching handler and returns its result.
func (rt *Router) Dispatch(w http.ResponseWriter, r *http.Request) error {
	handler, params, ok := rt.Match(r.Method, r.URL.Path)
	if !ok {
		return &NoRouteError{Method: r.Method, Path: r.URL.Path}
	}
	return handler(w, r, params)
}

// Patterns lists the registered patterns for method in registration order.
func (rt *Router) Patterns(method string) []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	patterns := make([]string, 0, len(rt.routes[strings.ToUpper(method)]))
	for _, rte := range rt.routes[strings.ToUpper(method)] {
		patterns = append(patterns, rte.pattern)
	}
	return patterns
}
