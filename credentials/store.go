// Package credentials holds the current bearer credential and the identity it
// proves. The store is the single source of truth every other component reads
// from; only the session controller and the expiry recovery path write to it.
package credentials

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/crewdock/go-crewdock-client/identity"
	errs "github.com/crewdock/go-crewdock-client/internal/errors"
)

// Credentials is an atomic snapshot of the store: the bearer token plus the
// identity it was issued to. Identity is nil during the bootstrap window,
// when a persisted token has been restored but not yet verified.
type Credentials struct {
	Token    string
	Identity *identity.Identity
}

// Store guards the token/identity pair. Both are always written together so
// no reader ever observes one without the other.
type Store struct {
	lock     sync.RWMutex
	token    string
	identity *identity.Identity
	storage  Storage
}

// NewStore creates a store backed by the given durable storage. Storage
// failures never fail the caller: the in-memory copy stays authoritative for
// the life of the process and write errors are logged and swallowed.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Token returns the current bearer token, if one is held.
func (s *Store) Token() (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.token, s.token != ""
}

// Identity returns the current identity, if one is held.
func (s *Store) Identity() (identity.Identity, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.identity == nil {
		return identity.Identity{}, false
	}
	return *s.identity, true
}

// Snapshot returns token and identity from a single lock acquisition.
func (s *Store) Snapshot() Credentials {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return Credentials{Token: s.token, Identity: s.identity}
}

// Set writes token and identity together and persists the token. An empty
// token is a programming error: the store is either populated or cleared,
// never holding an empty string.
func (s *Store) Set(ctx context.Context, token string, id identity.Identity) error {
	if token == "" {
		return errs.ErrEmptyToken
	}

	s.lock.Lock()
	s.token = token
	s.identity = &id
	s.lock.Unlock()

	if err := s.storage.Write(ctx, token); err != nil {
		log.Warn().Err(err).Msg("credentials: persisting token failed, session continues in memory")
	}
	return nil
}

// Restore loads a persisted token into memory without an identity. Used once
// at bootstrap, before the token has been verified against /auth/me.
func (s *Store) Restore(ctx context.Context) (string, bool) {
	token, found, err := s.storage.Read(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("credentials: reading persisted token failed")
		return "", false
	}
	if !found || token == "" {
		return "", false
	}

	s.lock.Lock()
	s.token = token
	s.identity = nil
	s.lock.Unlock()
	return token, true
}

// Clear drops token and identity together and removes the persisted token.
func (s *Store) Clear(ctx context.Context) {
	s.lock.Lock()
	s.token = ""
	s.identity = nil
	s.lock.Unlock()

	if err := s.storage.Delete(ctx); err != nil {
		log.Warn().Err(err).Msg("credentials: deleting persisted token failed")
	}
}
