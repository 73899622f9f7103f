package identity

import "time"

// Role represents which side of the platform a session belongs to.
type Role string

const (
	// RoleAdmin is a staffing-agency administrator reviewing registrations
	RoleAdmin Role = "admin"
	// RoleClient is a vessel operator shortlisting crew
	RoleClient Role = "client"
)

// Valid reports whether the role is one the platform issues tokens for.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

// User is the subset of the platform user record the client needs to render
// an authenticated session. The backend owns the full record.
type User struct {
	ID        string    `json:"id,omitempty"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Company   string    `json:"company,omitempty"`   // Set for client users only
	Verified  bool      `json:"verified,omitempty"`  // Has the user verified who they are
	Blocked   bool      `json:"blocked,omitempty"`   // Has the user been blocked from logging in
	LastLogin time.Time `json:"last_login,omitempty"`
}

// FullName returns the display name for the user.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Identity is the authenticated principal associated with a credential:
// the user record plus the role the token was issued under.
type Identity struct {
	User User `json:"user"`
	Role Role `json:"role"`
}
