package authapi

import "fmt"

// Auth route path constants, relative to the API base URL.
const (
	RouteMe        = "/api/auth/me"
	RouteRefresh   = "/api/auth/refresh"
	RouteKeepAlive = "/api/auth/keep-alive"

	routeLoginFormat = "/api/auth/%s/login"
	routeAuthPrefix  = "/api/auth/"
)

// LoginRoute returns the role-specific login endpoint.
func LoginRoute(role string) string {
	return fmt.Sprintf(routeLoginFormat, role)
}

// ExemptPaths lists the endpoints the expiry recovery interceptor must leave
// alone: a 401 from any of these is its own answer, not a recoverable expiry.
func ExemptPaths() []string {
	return []string{routeAuthPrefix}
}
