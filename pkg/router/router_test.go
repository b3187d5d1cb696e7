package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(value string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", value)
			next.ServeHTTP(w, r)
		})
	}
}

func TestGroupMiddlewareOrderAndMethods(t *testing.T) {
	r := New()
	api := r.Group("/api", tag("api"))
	leads := api.Group("leads", tag("leads"))

	leads.Put("/{id}", "leads.update", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(chi.URLParam(req, "id")))
	}, tag("route"))
	leads.Delete("/{id}", "leads.delete", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/leads/42", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Body.String())
	assert.Equal(t, []string{"api", "leads", "route"}, rec.Header().Values("X-Chain"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/leads/42", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/leads/42", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNamedRoutes(t *testing.T) {
	r := New()
	r.Group("/api/users").Put("/{id}/password", "users.password", func(http.ResponseWriter, *http.Request) {})

	path, ok := r.Path("users.password")
	require.True(t, ok)
	assert.Equal(t, "/api/users/{id}/password", path)

	url, err := r.URL("users.password", map[string]string{"id": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "/api/users/abc/password", url)

	_, err = r.URL("users.password", nil)
	assert.Error(t, err)
	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutesAreSorted(t *testing.T) {
	r := New()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.Post("/b", "", noop)
	r.Get("/a", "a", noop)
	r.Get("/b", "", noop)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, Route{Method: "GET", Path: "/a", Name: "a"}, routes[0])
	assert.Equal(t, "GET", routes[1].Method)
	assert.Equal(t, "POST", routes[2].Method)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/", joinPath())
	assert.Equal(t, "/", joinPath("/", ""))
	assert.Equal(t, "/api/leads", joinPath("/api/", "/leads/"))
}
