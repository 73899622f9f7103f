package errors

import "strings"

// hardAuthMessages is the fixed set of backend error messages that mean the
// credential itself is dead. A 401 carrying anything else is treated as
// transient and the credential is preserved for a later retry.
var hardAuthMessages = map[string]error{
	"token has expired":  ErrTokenExpired,
	"token expired":      ErrTokenExpired,
	"invalid token":      ErrTokenInvalid,
	"token is invalid":   ErrTokenInvalid,
	"token not provided": ErrTokenMissing,
	"missing token":      ErrTokenMissing,
}

// ClassifyAuthMessage matches a backend authentication failure message
// against the hard-error set. It returns the matching sentinel and true for
// hard failures, or nil and false when the failure is transient.
func ClassifyAuthMessage(message string) (error, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))
	for fragment, sentinel := range hardAuthMessages {
		if strings.Contains(msg, fragment) {
			return sentinel, true
		}
	}
	return nil, false
}

// LogoutReason converts a hard authentication sentinel into the reason string
// carried on the auth:logout event.
func LogoutReason(err error) string {
	switch {
	case Is(err, ErrTokenExpired):
		return "token_expired"
	case Is(err, ErrTokenInvalid):
		return "token_invalid"
	case Is(err, ErrTokenMissing):
		return "token_missing"
	default:
		return "logout"
	}
}
