package authapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdock/go-crewdock-client/authapi"
	"github.com/crewdock/go-crewdock-client/credentials"
	"github.com/crewdock/go-crewdock-client/identity"
	"github.com/crewdock/go-crewdock-client/internal/config"
	errs "github.com/crewdock/go-crewdock-client/internal/errors"
	"github.com/crewdock/go-crewdock-client/internal/metrics"
	"github.com/crewdock/go-crewdock-client/transport"
)

func newClient(serverURL string) *authapi.Client {
	store := credentials.NewStore(credentials.NewMemoryStorage())
	dispatcher := transport.NewDispatcher(serverURL, store, http.DefaultClient, config.Transport{}, metrics.NewNop())
	return authapi.New(dispatcher)
}

func TestLoginRoutesByRole(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(authapi.LoginResponse{
			Token: "T1",
			User:  identity.User{ID: "user-1"},
		})
	}))
	defer server.Close()

	resp, err := newClient(server.URL).Login(context.Background(), identity.RoleClient, "mate@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/client/login", gotPath)
	assert.Equal(t, "T1", resp.Token)
	assert.Equal(t, "user-1", resp.User.ID)
}

func TestLoginRejectsInvalidRole(t *testing.T) {
	_, err := newClient("http://unused.local").Login(context.Background(), identity.Role("root"), "a@b.c", "pw")
	require.ErrorIs(t, err, errs.ErrUnknownRole)
}

func TestLoginRejectsEmptyTokenResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(authapi.LoginResponse{User: identity.User{ID: "user-1"}})
	}))
	defer server.Close()

	_, err := newClient(server.URL).Login(context.Background(), identity.RoleAdmin, "a@b.c", "pw")
	require.Error(t, err)
}

func TestMeDecodesIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, authapi.RouteMe, r.URL.Path)
		json.NewEncoder(w).Encode(authapi.MeResponse{
			User:     identity.User{ID: "user-1", Email: "mate@example.com"},
			UserType: identity.RoleAdmin,
		})
	}))
	defer server.Close()

	resp, err := newClient(server.URL).Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, resp.UserType)
	assert.Equal(t, "mate@example.com", resp.User.Email)
}

func TestServerFailuresSurfaceAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token has expired"}`))
	}))
	defer server.Close()

	err := newClient(server.URL).KeepAlive(context.Background())
	require.Error(t, err)

	apiErr, ok := transport.AsAPIError(err)
	require.True(t, ok, "APIError survives wrapping")
	assert.True(t, apiErr.IsAuthFailure())
	assert.Equal(t, "Token has expired", apiErr.Message)
}

func TestExemptPathsCoverAllAuthEndpoints(t *testing.T) {
	exempt := authapi.ExemptPaths()
	for _, route := range []string{
		authapi.LoginRoute("admin"),
		authapi.LoginRoute("client"),
		authapi.RouteMe,
		authapi.RouteRefresh,
		authapi.RouteKeepAlive,
	} {
		matched := false
		for _, prefix := range exempt {
			if len(route) >= len(prefix) && route[:len(prefix)] == prefix {
				matched = true
			}
		}
		assert.True(t, matched, "route %s must be exempt from recovery", route)
	}
}
