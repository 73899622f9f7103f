package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/crewdock/go-crewdock-client/credentials"
	"github.com/crewdock/go-crewdock-client/events"
	errs "github.com/crewdock/go-crewdock-client/internal/errors"
	"github.com/crewdock/go-crewdock-client/internal/metrics"
)

// Refresher is the session controller's refresh operation. The interceptor
// calls through it rather than owning any refresh logic itself, so every
// concurrent trigger shares the same single-flight attempt.
type Refresher interface {
	RefreshCredential(ctx context.Context) (string, error)
}

// RecoveryInterceptor observes every response flowing through the dispatcher.
// Successful responses pass through unchanged. On an authorization failure it
// attempts exactly one credential refresh and replays the original request;
// unrecoverable failures clear the session and announce the logout.
type RecoveryInterceptor struct {
	client      Doer
	store       *credentials.Store
	refresher   Refresher
	broadcaster *events.Broadcaster
	navigator   Navigator
	exemptPaths []string
	metrics     *metrics.Metrics
}

// NewRecoveryInterceptor wraps client. exemptPaths lists the auth endpoints
// (login, refresh, keep-alive, identity check) that must never be
// recovery-retried, or a failing refresh would trigger itself forever.
func NewRecoveryInterceptor(
	client Doer,
	store *credentials.Store,
	refresher Refresher,
	broadcaster *events.Broadcaster,
	navigator Navigator,
	exemptPaths []string,
	m *metrics.Metrics,
) *RecoveryInterceptor {
	if navigator == nil {
		navigator = NopNavigator{}
	}
	return &RecoveryInterceptor{
		client:      client,
		store:       store,
		refresher:   refresher,
		broadcaster: broadcaster,
		navigator:   navigator,
		exemptPaths: exemptPaths,
		metrics:     m,
	}
}

// Do implements Doer. Network errors are returned untouched: they are never
// authentication failures and never touch the credential store.
func (i *RecoveryInterceptor) Do(req *http.Request) (*http.Response, error) {
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || i.isExempt(req.URL.Path) {
		return resp, nil
	}
	return i.recover(req, resp)
}

func (i *RecoveryInterceptor) recover(req *http.Request, resp *http.Response) (*http.Response, error) {
	message, resp := drainMessage(resp)

	if _, held := i.store.Token(); held {
		newToken, err := i.refresher.RefreshCredential(req.Context())
		if err == nil {
			return i.replay(req, newToken)
		}
		log.Debug().Err(err).Str("path", req.URL.Path).Msg("transport: recovery refresh failed")
	}

	// Refresh failed or no credential was held. Only the fixed hard-error
	// set terminates the session; anything else is transient and the
	// credential stays for a later retry.
	if sentinel, hard := errs.ClassifyAuthMessage(message); hard {
		i.terminate(req.Context(), sentinel)
	}
	return resp, nil
}

// replay re-issues the original request once with the fresh credential. The
// replay goes straight to the inner client: whatever it returns, including
// another authorization failure, is the final outcome.
func (i *RecoveryInterceptor) replay(req *http.Request, token string) (*http.Response, error) {
	replay := req.Clone(req.Context())
	replay.Header.Set(headerAuthorization, "Bearer "+token)

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, errs.Wrapf(err, "[RecoveryInterceptor.replay] reopening request body")
		}
		replay.Body = body
	}

	i.metrics.RecoveryRetries.Inc()
	return i.client.Do(replay)
}

// terminate clears the session and announces the logout. Publish happens
// strictly before the redirect so subscribers finish clearing local state
// before the user lands on the login surface.
func (i *RecoveryInterceptor) terminate(ctx context.Context, sentinel error) {
	i.store.Clear(ctx)
	i.metrics.HardLogouts.Inc()
	i.broadcaster.Publish(events.LogoutEvent{Reason: errs.LogoutReason(sentinel)})

	current := i.navigator.CurrentPath()
	if !onLoginSurface(current) {
		i.navigator.Navigate(loginSurfaceFor(current))
	}
}

func (i *RecoveryInterceptor) isExempt(path string) bool {
	for _, exempt := range i.exemptPaths {
		if strings.HasPrefix(path, exempt) {
			return true
		}
	}
	return false
}

// drainMessage reads the failure body for classification and hands back a
// response whose body can still be read by the caller.
func drainMessage(resp *http.Response) (string, *http.Response) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
	if err != nil {
		raw = nil
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return parseErrorBody(resp.StatusCode, raw).Message, resp
}
