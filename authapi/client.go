// Package authapi is the typed client for the platform's auth REST surface.
// It rides the transport dispatcher and adds nothing beyond request and
// response shapes; session policy lives in the session package.
package authapi

import (
	"context"

	"github.com/pkg/errors"

	"github.com/crewdock/go-crewdock-client/identity"
	errs "github.com/crewdock/go-crewdock-client/internal/errors"
	"github.com/crewdock/go-crewdock-client/transport"
)

type Client struct {
	dispatcher *transport.Dispatcher
}

func New(dispatcher *transport.Dispatcher) *Client {
	return &Client{dispatcher: dispatcher}
}

// Login exchanges credentials for a bearer token on the role's login surface.
func (c *Client) Login(ctx context.Context, role identity.Role, email, password string) (*LoginResponse, error) {
	if !role.Valid() {
		return nil, errors.Wrapf(errs.ErrUnknownRole, "[Client.Login] role %q", role)
	}

	var resp LoginResponse
	if err := c.dispatcher.PostJSON(ctx, LoginRoute(string(role)), LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, errors.Wrap(err, "[Client.Login] login request")
	}
	if resp.Token == "" {
		return nil, errors.New("[Client.Login] backend returned an empty token")
	}
	return &resp, nil
}

// Me checks the current credential and returns the identity behind it.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var resp MeResponse
	if err := c.dispatcher.GetJSON(ctx, RouteMe, &resp); err != nil {
		return nil, errors.Wrap(err, "[Client.Me] identity check")
	}
	return &resp, nil
}

// Refresh trades the current credential for a fresh one.
func (c *Client) Refresh(ctx context.Context) (*RefreshResponse, error) {
	var resp RefreshResponse
	if err := c.dispatcher.PostJSON(ctx, RouteRefresh, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[Client.Refresh] refresh request")
	}
	if resp.Token == "" {
		return nil, errors.New("[Client.Refresh] backend returned an empty token")
	}
	return &resp, nil
}

// KeepAlive performs the lightweight authenticated liveness probe.
func (c *Client) KeepAlive(ctx context.Context) error {
	if err := c.dispatcher.GetJSON(ctx, RouteKeepAlive, nil); err != nil {
		return errors.Wrap(err, "[Client.KeepAlive] liveness probe")
	}
	return nil
}
