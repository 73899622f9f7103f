package crewdock_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crewdock "github.com/crewdock/go-crewdock-client"
	"github.com/crewdock/go-crewdock-client/authapi"
	"github.com/crewdock/go-crewdock-client/credentials/repofake"
	"github.com/crewdock/go-crewdock-client/identity"
	"github.com/crewdock/go-crewdock-client/internal/config"
	"github.com/crewdock/go-crewdock-client/session"
	"github.com/crewdock/go-crewdock-client/transport"
)

// testConfig overrides the API base URL so the assembled client talks to an
// httptest backend; everything else keeps the defaults.
type testConfig struct {
	config.EnvVars
	config.Session
	config.Transport
	config.Storage

	baseURL string
}

func (c testConfig) GetAPIBaseURL() string { return c.baseURL }

func TestAssembledClientRecoversExpiredTokenMidRequest(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc(authapi.RouteMe, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(authapi.MeResponse{
			User:     identity.User{ID: "user-1", FirstName: "Alex"},
			UserType: identity.RoleClient,
		})
	})
	mux.HandleFunc(authapi.RouteRefresh, func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		json.NewEncoder(w).Encode(authapi.RefreshResponse{Token: "T2"})
	})
	mux.HandleFunc("/api/crew", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Token has expired"}`))
			return
		}
		w.Write([]byte(`{"crew":["c-1","c-2"]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	storage := repofake.NewFakeStorage()
	storage.Seed("T1")

	client, err := crewdock.NewClient(
		testConfig{baseURL: server.URL},
		crewdock.WithStorage(storage),
		crewdock.WithNavigator(transport.NopNavigator{}),
	)
	require.NoError(t, err)
	defer client.Session.Close()

	require.NoError(t, client.Session.Bootstrap(context.Background()))
	require.Equal(t, session.StateAuthenticated, client.Session.State())

	// The seeded token is stale by now. The recovery interceptor must refresh
	// and replay without the caller noticing.
	var out struct {
		Crew []string `json:"crew"`
	}
	require.NoError(t, client.Dispatcher.GetJSON(context.Background(), "/api/crew", &out))
	assert.Equal(t, []string{"c-1", "c-2"}, out.Crew)

	assert.Equal(t, int32(1), refreshCalls.Load())
	token, held := client.Store.Token()
	require.True(t, held)
	assert.Equal(t, "T2", token)
}

func TestAssembledClientLoginAndLogout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(authapi.LoginRoute(string(identity.RoleAdmin)), func(w http.ResponseWriter, r *http.Request) {
		var req authapi.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "skipper@example.com", req.Email)
		json.NewEncoder(w).Encode(authapi.LoginResponse{
			Token: "T1",
			User:  identity.User{ID: "user-1", Email: req.Email},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	registry := prometheus.NewRegistry()
	client, err := crewdock.NewClient(
		testConfig{baseURL: server.URL},
		crewdock.WithRegisterer(registry),
	)
	require.NoError(t, err)
	defer client.Session.Close()

	require.NoError(t, client.Session.Bootstrap(context.Background()))
	require.Equal(t, session.StateAnonymous, client.Session.State(), "memory storage starts empty")

	require.NoError(t, client.Session.Login(context.Background(), identity.RoleAdmin, "skipper@example.com", "pw"))
	assert.Equal(t, session.StateAuthenticated, client.Session.State())

	id, ok := client.Store.Identity()
	require.True(t, ok)
	assert.Equal(t, identity.RoleAdmin, id.Role)

	client.Session.Logout(context.Background())
	assert.Equal(t, session.StateAnonymous, client.Session.State())
	_, held := client.Store.Token()
	assert.False(t, held)

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families, "client metrics registered on the supplied registry")
}
