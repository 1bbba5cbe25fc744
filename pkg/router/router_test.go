package router

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuietRouter() *Router {
	r := New()
	r.SetAccessLog(io.Discard)
	return r
}

func echo(name string) HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, name+":"+strings.Join(Wildcards(req), ","))
	}
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestMatchWildcardRoute(t *testing.T) {
	tests := []struct {
		path, pattern string
		want          []string
		ok            bool
	}{
		{"/api/v1/loads/abc", "/api/v1/loads/*", []string{"abc"}, true},
		{"/api/v1/loads/abc/errors", "/api/v1/loads/*/errors", []string{"abc"}, true},
		{"/api/v1/tables/ds/t/schema", "/api/v1/tables/*/*/schema", []string{"ds", "t"}, true},
		{"/api/v1/download/id/a/b.csv", "/api/v1/download/*", []string{"id/a/b.csv"}, true},
		{"/api/v1/loads", "/api/v1/loads/*", nil, false},
		{"/api/v1/loads//errors", "/api/v1/loads/*/errors", nil, false},
		{"/api/v1/other/abc", "/api/v1/loads/*", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.pattern, func(t *testing.T) {
			got, ok := matchWildcardRoute(tt.path, tt.pattern)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatch(t *testing.T) {
	r := newQuietRouter()
	r.GET("/api/v1/loads", echo("list"))
	r.GET("/api/v1/loads/*/errors", echo("errors"))
	r.GET("/api/v1/loads/*", echo("get"))
	r.DELETE("/api/v1/tables/*/*", echo("delete"))

	tests := []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodGet, "/api/v1/loads", http.StatusOK, "list:"},
		{http.MethodGet, "/api/v1/loads/l1", http.StatusOK, "get:l1"},
		{http.MethodGet, "/api/v1/loads/l1/errors", http.StatusOK, "errors:l1"},
		{http.MethodDelete, "/api/v1/tables/ds/t", http.StatusOK, "delete:ds,t"},
		{http.MethodPost, "/api/v1/loads", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/api/v1/tables/ds/t", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/nowhere", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, r, tt.method, tt.path)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestWildcardOutOfRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", Wildcard(req, 0))
	assert.Nil(t, Wildcards(req))
}

func TestMiddlewareOrder(t *testing.T) {
	r := newQuietRouter()
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, req)
			})
		}
	}
	r.Use(mark("outer"), mark("inner"))
	r.GET("/ping", func(w http.ResponseWriter, req *http.Request) {
		order = append(order, "handler")
	})

	rec := do(t, r.Handler(), http.MethodGet, "/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestAccessLog(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.SetAccessLog(&buf)
	r.POST("/things", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	do(t, r, http.MethodPost, "/things")
	line := buf.String()
	assert.Contains(t, line, "POST")
	assert.Contains(t, line, "/things")
	assert.Contains(t, line, colorGreen+"201")
}

func TestHandleRegistersPath(t *testing.T) {
	r := newQuietRouter()
	r.Handle(http.MethodGet, "/metrics", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	assert.True(t, r.Paths()["/metrics"])
	assert.Contains(t, r.Routes(), "GET:/metrics")
	assert.Equal(t, "ok", do(t, r, http.MethodGet, "/metrics").Body.String())
}
