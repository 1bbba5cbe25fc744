package router

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// --- ANSI color codes ---
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// Middleware wraps the whole router, outermost first.
type Middleware func(http.Handler) http.Handler

type Router struct {
	mux        *http.ServeMux
	routes     map[string]HandlerFunc // key = METHOD:PATH
	paths      map[string]bool        // track registered paths
	patterns   []string               // wildcard paths in registration order
	middleware []Middleware
	accessLog  *log.Logger

	once    sync.Once
	handler http.Handler
}

type wildcardKey struct{}

func New() *Router {
	r := &Router{
		mux:       http.NewServeMux(),
		routes:    make(map[string]HandlerFunc),
		paths:     make(map[string]bool),
		accessLog: log.Default(),
	}

	// Catch-all handler for every path
	r.mux.HandleFunc("/", r.dispatch)
	return r
}

// SetAccessLog redirects the colored access log; io.Discard silences it.
func (r *Router) SetAccessLog(w io.Writer) {
	r.accessLog = log.New(w, "", log.LstdFlags)
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	key := req.Method + ":" + req.URL.Path
	if h, ok := r.routes[key]; ok {
		h(lrw, req)
	} else if h, values, ok := r.matchWildcard(req.Method, req.URL.Path); ok {
		h(lrw, req.WithContext(context.WithValue(req.Context(), wildcardKey{}, values)))
	} else if r.pathRegistered(req.URL.Path) {
		// Path exists but method not allowed
		http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
	} else {
		http.Error(lrw, "Not Found", http.StatusNotFound)
	}

	duration := time.Since(start)
	color := statusColor(lrw.statusCode)
	methodColor := methodColor(req.Method)

	r.accessLog.Printf("%s[%s]%s %s%s%s %s %s%d%s %s(%v)%s",
		colorCyan, start.Format("2006-01-02 15:04:05"), colorReset,
		methodColor, req.Method, colorReset,
		req.URL.Path,
		color, lrw.statusCode, colorReset,
		colorBlue, duration, colorReset,
	)
}

// matchWildcard tries wildcard routes in registration order, so more
// specific patterns must be registered first.
func (r *Router) matchWildcard(method, path string) (HandlerFunc, []string, bool) {
	for _, pattern := range r.patterns {
		h, ok := r.routes[method+":"+pattern]
		if !ok {
			continue
		}
		if values, ok := matchWildcardRoute(path, pattern); ok {
			return h, values, true
		}
	}
	return nil, nil, false
}

func (r *Router) pathRegistered(path string) bool {
	if r.paths[path] {
		return true
	}
	for _, pattern := range r.patterns {
		if _, ok := matchWildcardRoute(path, pattern); ok {
			return true
		}
	}
	return false
}

// matchWildcardRoute checks if a request path matches a wildcard route
// pattern and returns the segments captured by each "*". A trailing "*"
// captures the rest of the path as one value.
func matchWildcardRoute(requestPath, routePattern string) ([]string, bool) {
	// Split both paths into segments
	requestSegments := strings.Split(strings.Trim(requestPath, "/"), "/")
	routeSegments := strings.Split(strings.Trim(routePattern, "/"), "/")

	var values []string

	// Handle single wildcard at the end (matches any number of remaining segments)
	last := len(routeSegments) - 1
	if routeSegments[last] == "*" && len(requestSegments) > len(routeSegments) {
		for i := 0; i < last; i++ {
			if routeSegments[i] == "*" {
				if requestSegments[i] == "" {
					return nil, false
				}
				values = append(values, requestSegments[i])
				continue
			}
			if requestSegments[i] != routeSegments[i] {
				return nil, false
			}
		}
		return append(values, strings.Join(requestSegments[last:], "/")), true
	}

	if len(requestSegments) != len(routeSegments) {
		return nil, false
	}

	// Check each segment
	for i, routeSegment := range routeSegments {
		if routeSegment == "*" {
			// Wildcard matches any non-empty segment
			if requestSegments[i] == "" {
				return nil, false
			}
			values = append(values, requestSegments[i])
			continue
		}
		if requestSegments[i] != routeSegment {
			return nil, false
		}
	}

	return values, true
}

// Wildcards returns the path segments matched by "*" for the current route.
func Wildcards(req *http.Request) []string {
	values, _ := req.Context().Value(wildcardKey{}).([]string)
	return values
}

// Wildcard returns the i-th wildcard value, or "" when absent.
func Wildcard(req *http.Request, i int) string {
	values := Wildcards(req)
	if i < 0 || i >= len(values) {
		return ""
	}
	return values[i]
}

// --- Register paths ---
func (r *Router) register(method, path string, handler HandlerFunc) {
	key := method + ":" + path
	r.routes[key] = handler
	if !r.paths[path] && strings.Contains(path, "*") {
		r.patterns = append(r.patterns, path)
	}
	r.paths[path] = true
}

func (r *Router) GET(path string, handler HandlerFunc)   { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)  { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)   { r.register(http.MethodPut, path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc) { r.register(http.MethodPatch, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// Handle registers an http.Handler, e.g. promhttp or the swagger UI.
func (r *Router) Handle(method, path string, h http.Handler) {
	r.register(method, path, h.ServeHTTP)
}

// Use appends middleware. It must be called before Handler.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// Handler returns the router wrapped in its middleware.
func (r *Router) Handler() http.Handler {
	r.once.Do(func() {
		var h http.Handler = r.mux
		for i := len(r.middleware) - 1; i >= 0; i-- {
			h = r.middleware[i](h)
		}
		r.handler = h
	})
	return r.handler
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Handler().ServeHTTP(w, req)
}

// Getter methods for testing
func (r *Router) Routes() map[string]HandlerFunc {
	return r.routes
}

func (r *Router) Paths() map[string]bool {
	return r.paths
}

// --- Start server ---

// Serve listens on addr until ctx is done, then drains in-flight requests
// for up to shutdownTimeout.
func (r *Router) Serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.accessLog.Printf("🚀 Server started on %shttp://localhost%s%s", colorGreen, addr, colorReset)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	r.accessLog.Printf("🛑 Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers such as promhttp flush through the wrapper.
func (lrw *loggingResponseWriter) Flush() {
	if f, ok := lrw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// --- Color helpers ---
func statusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return colorGreen
	case code >= 300 && code < 400:
		return colorCyan
	case code >= 400 && code < 500:
		return colorYellow
	default:
		return colorRed
	}
}

func methodColor(method string) string {
	switch method {
	case http.MethodGet:
		return colorGreen
	case http.MethodPost:
		return colorBlue
	case http.MethodPut:
		return colorYellow
	case http.MethodPatch:
		return colorYellow
	case http.MethodDelete:
		return colorRed
	default:
		return colorCyan
	}
}
