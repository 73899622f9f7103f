package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session client
var (
	// Credential errors
	ErrEmptyToken   = errors.New("token must not be empty")
	ErrNoCredential = errors.New("no credential held")

	// Hard authentication errors - these terminate the session
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenMissing = errors.New("token missing")

	// Session errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRefreshFailed      = errors.New("refresh failed")
	ErrControllerClosed   = errors.New("session controller closed")
	ErrUnknownRole        = errors.New("unknown role")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
