package repofake

import (
	"context"
	"sync"

	"github.com/crewdock/go-crewdock-client/credentials"
)

var _ credentials.Storage = (*FakeStorage)(nil)

// FakeStorage is an in-memory Storage for tests. Writes and deletes can be
// made to fail to exercise the swallow-and-continue policy.
type FakeStorage struct {
	lock  sync.Mutex
	token string
	found bool

	ReadErr   error
	WriteErr  error
	DeleteErr error

	Writes  int
	Deletes int
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{}
}

// Seed pre-populates the storage, as if a previous session persisted a token.
func (f *FakeStorage) Seed(token string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.token = token
	f.found = true
}

func (f *FakeStorage) Read(ctx context.Context) (string, bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.ReadErr != nil {
		return "", false, f.ReadErr
	}
	return f.token, f.found, nil
}

func (f *FakeStorage) Write(ctx context.Context, token string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Writes++
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.token = token
	f.found = true
	return nil
}

func (f *FakeStorage) Delete(ctx context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Deletes++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.token = ""
	f.found = false
	return nil
}
