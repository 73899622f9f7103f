package authapi

import "github.com/crewdock/go-crewdock-client/identity"

// LoginRequest is the body of POST /api/auth/{role}/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token and the logged-in user.
type LoginResponse struct {
	Token string        `json:"token"`
	User  identity.User `json:"user"`
}

// MeResponse is the identity check result for the current credential.
type MeResponse struct {
	User     identity.User `json:"user"`
	UserType identity.Role `json:"userType"`
}

// RefreshResponse carries the replacement token. User and UserType are
// optional: older backends return only the token, in which case the client
// keeps the identity it already holds.
type RefreshResponse struct {
	Token    string         `json:"token"`
	User     *identity.User `json:"user,omitempty"`
	UserType *identity.Role `json:"userType,omitempty"`
}
