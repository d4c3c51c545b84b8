package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tagging(tag string, order *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, tag)
			next.ServeHTTP(w, r)
		})
	}
}

func TestBasicRouterHandle(t *testing.T) {
	router := NewBasicRouter()
	router.Handle(http.MethodGet, "/items/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("item " + r.PathValue("id")))
	}))

	t.Run("MatchingMethod", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "item 42", rec.Body.String())
	})

	t.Run("OtherMethod", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items/42", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("UnknownPath", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBasicRouterMiddlewareOrder(t *testing.T) {
	var order []string
	router := NewBasicRouter()
	router.Use(tagging("first", &order), tagging("second", &order))
	router.Handle("", "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

type multiRoute struct{}

func (multiRoute) Routes() []string { return []string{"GET /a", "POST /b"} }

func (multiRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.Method + " " + r.URL.Path))
}

func TestBasicRouterHandler(t *testing.T) {
	router := NewBasicRouter()
	router.Handler(multiRoute{})

	for _, tc := range []struct{ method, path, want string }{
		{http.MethodGet, "/a", "GET /a"},
		{http.MethodPost, "/b", "POST /b"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/b", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPattern(t *testing.T) {
	assert.Equal(t, "/x", Pattern("", "/x"))
	assert.Equal(t, "DELETE /x/{id}", Pattern("delete", "/x/{id}"))
	assert.True(t, strings.HasPrefix(Pattern(http.MethodGet, "/"), "GET "))
}
