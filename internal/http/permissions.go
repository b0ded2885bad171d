package httpapi

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/auth"
)

const (
	msgNotAuthenticated = "Authentication credentials were not provided."
	msgForbidden        = "You do not have permission to perform this action."
)

// rule decides whether the caller may continue. It returns the status to
// answer with, or 0 to let the request through.
type rule func(r *http.Request, c auth.Claims, authenticated bool) int

func permit(check rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := claimsFrom(r.Context())
			switch check(r, c, ok) {
			case http.StatusUnauthorized:
				w.Header().Set("WWW-Authenticate", `JWT realm="api"`)
				writeDetail(w, http.StatusUnauthorized, msgNotAuthenticated)
			case http.StatusForbidden:
				writeDetail(w, http.StatusForbidden, msgForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func authenticated(_ *http.Request, _ auth.Claims, ok bool) int {
	if !ok {
		return http.StatusUnauthorized
	}
	return 0
}

func adminUser(_ *http.Request, c auth.Claims, ok bool) int {
	if !ok {
		return http.StatusUnauthorized
	}
	if !c.IsStaff {
		return http.StatusForbidden
	}
	return 0
}

func adminOrReadOnly(r *http.Request, c auth.Claims, ok bool) int {
	if isSafeMethod(r.Method) {
		return 0
	}
	return adminUser(r, c, ok)
}

func hasPermission(perm string) rule {
	return func(_ *http.Request, c auth.Claims, ok bool) int {
		if !ok {
			return http.StatusUnauthorized
		}
		if !c.HasPermission(perm) {
			return http.StatusForbidden
		}
		return 0
	}
}

var (
	requireAuth            = permit(authenticated)
	requireAdmin           = permit(adminUser)
	requireAdminOrReadOnly = permit(adminOrReadOnly)
)
