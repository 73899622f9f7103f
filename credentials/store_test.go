package credentials_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdock/go-crewdock-client/credentials"
	"github.com/crewdock/go-crewdock-client/credentials/repofake"
	"github.com/crewdock/go-crewdock-client/identity"
	errs "github.com/crewdock/go-crewdock-client/internal/errors"
)

func testIdentity() identity.Identity {
	return identity.Identity{
		User: identity.User{ID: "user-1", Email: "mate@example.com", FirstName: "Jo", LastName: "Mate"},
		Role: identity.RoleAdmin,
	}
}

func TestStoreSetWritesTokenAndIdentityTogether(t *testing.T) {
	storage := repofake.NewFakeStorage()
	store := credentials.NewStore(storage)

	require.NoError(t, store.Set(context.Background(), "T1", testIdentity()))

	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "T1", token)

	id, ok := store.Identity()
	require.True(t, ok)
	assert.Equal(t, "user-1", id.User.ID)
	assert.Equal(t, identity.RoleAdmin, id.Role)

	snap := store.Snapshot()
	assert.Equal(t, "T1", snap.Token)
	require.NotNil(t, snap.Identity)
	assert.Equal(t, "user-1", snap.Identity.User.ID)
}

func TestStoreRejectsEmptyToken(t *testing.T) {
	store := credentials.NewStore(repofake.NewFakeStorage())

	err := store.Set(context.Background(), "", testIdentity())
	require.ErrorIs(t, err, errs.ErrEmptyToken)

	_, ok := store.Token()
	assert.False(t, ok)
}

func TestStoreSwallowsPersistenceFailures(t *testing.T) {
	storage := repofake.NewFakeStorage()
	storage.WriteErr = errors.New("disk full")
	store := credentials.NewStore(storage)

	// The write error is logged and swallowed; memory stays authoritative.
	require.NoError(t, store.Set(context.Background(), "T1", testIdentity()))

	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "T1", token)
	assert.Equal(t, 1, storage.Writes)
}

func TestStoreClearDropsBothAndDeletesPersisted(t *testing.T) {
	storage := repofake.NewFakeStorage()
	store := credentials.NewStore(storage)
	require.NoError(t, store.Set(context.Background(), "T1", testIdentity()))

	store.Clear(context.Background())

	_, ok := store.Token()
	assert.False(t, ok)
	_, ok = store.Identity()
	assert.False(t, ok)
	assert.Equal(t, 1, storage.Deletes)
}

func TestStoreRestoreLoadsPersistedTokenWithoutIdentity(t *testing.T) {
	storage := repofake.NewFakeStorage()
	storage.Seed("T1")
	store := credentials.NewStore(storage)

	token, ok := store.Restore(context.Background())
	require.True(t, ok)
	assert.Equal(t, "T1", token)

	_, ok = store.Identity()
	assert.False(t, ok, "restored token has no identity until verified")
}

func TestStoreRestoreWithNothingPersisted(t *testing.T) {
	store := credentials.NewStore(repofake.NewFakeStorage())

	_, ok := store.Restore(context.Background())
	assert.False(t, ok)
}

func TestStoreRestoreSurvivesStorageReadFailure(t *testing.T) {
	storage := repofake.NewFakeStorage()
	storage.Seed("T1")
	storage.ReadErr = errors.New("backend down")
	store := credentials.NewStore(storage)

	_, ok := store.Restore(context.Background())
	assert.False(t, ok)
}

func TestStoreSnapshotIsAtomicUnderConcurrentWrites(t *testing.T) {
	store := credentials.NewStore(repofake.NewFakeStorage())
	require.NoError(t, store.Set(context.Background(), "T0", testIdentity()))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				_ = store.Set(context.Background(), "T1", testIdentity())
			} else {
				store.Clear(context.Background())
			}
		}
	}()

	// A reader must never observe a token without an identity or vice versa
	// once past the restore window.
	for i := 0; i < 1000; i++ {
		snap := store.Snapshot()
		if snap.Token != "" {
			require.NotNil(t, snap.Identity, "token present but identity absent")
		} else {
			require.Nil(t, snap.Identity, "identity present but token absent")
		}
	}
	close(stop)
	wg.Wait()
}

func TestTokenSource(t *testing.T) {
	store := credentials.NewStore(repofake.NewFakeStorage())
	source := store.TokenSource()

	_, err := source.Token()
	require.ErrorIs(t, err, errs.ErrNoCredential)

	require.NoError(t, store.Set(context.Background(), "T1", testIdentity()))

	token, err := source.Token()
	require.NoError(t, err)
	assert.Equal(t, "T1", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
}
