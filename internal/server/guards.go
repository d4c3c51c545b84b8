package server

import (
	"net/http"

	"github.com/desertthunder/gestaopro/internal/models"
)

// DashboardPath is where guards send requests they refuse.
const DashboardPath = "/dashboard"

// Authenticator answers the two questions a route guard asks.
type Authenticator interface {
	IsAuthenticated() bool
	HasPermission(p models.Permission) bool
}

// RequireAuth lets the request through only when someone is signed in.
func RequireAuth(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.IsAuthenticated() {
				redirectToDashboard(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission lets the request through only when the signed-in user holds p.
//
// Anonymous and forbidden requests get the same redirect.
func RequirePermission(a Authenticator, p models.Permission) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.IsAuthenticated() || !a.HasPermission(p) {
				redirectToDashboard(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSection guards routes whose permission comes from the path wildcard named param.
//
// A value that is not a known section answers 404.
func RequireSection(a Authenticator, param string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := models.ParsePermission(r.PathValue(param))
			if err != nil {
				writeError(w, http.StatusNotFound, "unknown section")
				return
			}
			RequirePermission(a, p)(next).ServeHTTP(w, r)
		})
	}
}

func redirectToDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, DashboardPath, http.StatusFound)
}
