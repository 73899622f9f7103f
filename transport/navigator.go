package transport

import "strings"

// Login surfaces by route prefix. Admin users land on the admin login page,
// everyone else on the client portal login.
const (
	AdminPrefix      = "/admin"
	AdminLoginPath   = "/admin/login"
	ClientLoginPath  = "/login"
	RegistrationPath = "/register"
)

// Navigator abstracts the hosting shell's routing so the recovery layer can
// send a logged-out user to the right login surface without knowing how the
// application renders.
type Navigator interface {
	// CurrentPath returns the route the user is currently on.
	CurrentPath() string
	// Navigate moves the user to the given route.
	Navigate(path string)
}

// NopNavigator is for headless consumers (tests, batch tooling) that have no
// navigable surface.
type NopNavigator struct{}

func (NopNavigator) CurrentPath() string { return "" }
func (NopNavigator) Navigate(string)     {}

// loginSurfaceFor picks the login route matching where the user was.
func loginSurfaceFor(currentPath string) string {
	if strings.HasPrefix(currentPath, AdminPrefix) {
		return AdminLoginPath
	}
	return ClientLoginPath
}

// onLoginSurface reports whether the user is already on a login or
// registration route, where a redirect would only lose form state.
func onLoginSurface(currentPath string) bool {
	return strings.HasPrefix(currentPath, ClientLoginPath) ||
		strings.HasPrefix(currentPath, AdminLoginPath) ||
		strings.HasPrefix(currentPath, RegistrationPath)
}
