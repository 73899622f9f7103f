package credentials

import (
	"golang.org/x/oauth2"

	errs "github.com/crewdock/go-crewdock-client/internal/errors"
)

// TokenSource adapts the store to oauth2.TokenSource so third-party API
// clients that speak the oauth2 interface can ride the managed credential.
// The source never refreshes on its own; the session subsystem owns that.
func (s *Store) TokenSource() oauth2.TokenSource {
	return storeTokenSource{store: s}
}

type storeTokenSource struct {
	store *Store
}

func (ts storeTokenSource) Token() (*oauth2.Token, error) {
	token, ok := ts.store.Token()
	if !ok {
		return nil, errs.ErrNoCredential
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}
