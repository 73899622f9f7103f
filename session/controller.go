// Package session owns the session lifecycle: bootstrap, login, logout, and
// the single-flight refresh every other component funnels through. The
// controller also owns the refresh scheduler and is the one subscriber to the
// logout broadcaster.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/crewdock/go-crewdock-client/authapi"
	"github.com/crewdock/go-crewdock-client/credentials"
	"github.com/crewdock/go-crewdock-client/events"
	"github.com/crewdock/go-crewdock-client/identity"
	"github.com/crewdock/go-crewdock-client/internal/config"
	errs "github.com/crewdock/go-crewdock-client/internal/errors"
	"github.com/crewdock/go-crewdock-client/internal/metrics"
	"github.com/crewdock/go-crewdock-client/scheduler"
	"github.com/crewdock/go-crewdock-client/transport"
)

// State is the controller's position in its lifecycle. Bootstrapping is
// entered once per controller and never re-entered.
type State string

const (
	StateBootstrapping State = "bootstrapping"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Scheduler task names.
const (
	TaskKeepAlive       = "keep-alive"
	TaskRoutineRefresh  = "routine-refresh"
	TaskFrequentRefresh = "frequent-refresh"
)

const refreshKey = "refresh"

// Controller is what the rest of the application talks to: current identity,
// the loading flag, and the session operations.
type Controller struct {
	api         *authapi.Client
	store       *credentials.Store
	broadcaster *events.Broadcaster
	sched       *scheduler.Scheduler
	metrics     *metrics.Metrics

	refreshGroup singleflight.Group

	lock        sync.RWMutex
	state       State
	loading     bool
	loggedOut   bool
	closed      bool
	loadingOnce sync.Once
	closeOnce   sync.Once
	unsubscribe func()
}

var _ transport.Refresher = (*Controller)(nil)

// New creates the controller, subscribes to the broadcaster, and starts the
// scheduler. The three timers run for the controller's whole lifetime and
// each tick checks for a credential itself; they are never recreated on
// identity changes.
func New(api *authapi.Client, store *credentials.Store, broadcaster *events.Broadcaster, cfg config.SessionConfig, m *metrics.Metrics) *Controller {
	c := &Controller{
		api:         api,
		store:       store,
		broadcaster: broadcaster,
		metrics:     m,
		state:       StateBootstrapping,
		loading:     true,
	}

	c.sched = scheduler.New(m,
		scheduler.Task{Name: TaskKeepAlive, Every: cfg.GetKeepAliveInterval(), Run: c.keepAliveTick},
		scheduler.Task{Name: TaskRoutineRefresh, Every: cfg.GetRoutineRefreshInterval(), Run: c.routineRefreshTick},
		scheduler.Task{Name: TaskFrequentRefresh, Every: cfg.GetFrequentRefreshInterval(), Run: c.frequentRefreshTick},
	)
	c.unsubscribe = broadcaster.Subscribe(c.onLogoutEvent)
	c.sched.Start()
	return c
}

// Bootstrap restores any persisted credential and verifies it with a single
// identity check, refreshing once if the check reports expiry. Whatever
// branch is taken, the loading flag drops exactly once and never comes back.
func (c *Controller) Bootstrap(ctx context.Context) error {
	defer c.finishLoading()

	token, ok := c.store.Restore(ctx)
	if !ok {
		c.setState(StateAnonymous)
		return nil
	}

	me, err := c.api.Me(ctx)
	if err == nil {
		return c.applyIdentity(ctx, token, identity.Identity{User: me.User, Role: me.UserType})
	}

	apiErr, isAPI := transport.AsAPIError(err)
	if !isAPI || !apiErr.IsAuthFailure() {
		// Network blip or server trouble. The credential may still be
		// good, so keep it for a later retry and resolve anonymous.
		log.Warn().Err(err).Msg("session: bootstrap identity check failed, credential preserved")
		c.setState(StateAnonymous)
		return nil
	}

	// Exactly one refresh-and-recheck before giving up.
	if _, rerr := c.RefreshCredential(ctx); rerr == nil {
		me, merr := c.api.Me(ctx)
		if merr == nil {
			return c.applyIdentity(ctx, c.store.Snapshot().Token, identity.Identity{User: me.User, Role: me.UserType})
		}
		if recheckErr, ok := transport.AsAPIError(merr); ok && recheckErr.IsAuthFailure() {
			apiErr = recheckErr
		} else {
			log.Warn().Err(merr).Msg("session: bootstrap recheck failed, credential preserved")
			c.setState(StateAnonymous)
			return nil
		}
	}

	// Refresh could not rescue the session. Only the recognized hard
	// messages clear the credential; an unrecognized 401 keeps it so a
	// later request can retry.
	if sentinel, hard := errs.ClassifyAuthMessage(apiErr.Message); hard {
		c.sessionExpired(ctx, sentinel)
		return nil
	}
	c.setState(StateAnonymous)
	return nil
}

// Login authenticates against the role's login surface and, on success,
// writes credential and identity together. Failures leave all state as-is
// and surface the server's message.
func (c *Controller) Login(ctx context.Context, role identity.Role, email, password string) error {
	if c.isClosed() {
		return errs.ErrControllerClosed
	}

	resp, err := c.api.Login(ctx, role, email, password)
	if err != nil {
		return err
	}
	return c.applyIdentity(ctx, resp.Token, identity.Identity{User: resp.User, Role: role})
}

// Refresh is the explicit user-facing refresh. Unlike the scheduler's
// defensive refresh, a failure here ends the session.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.isClosed() {
		return errs.ErrControllerClosed
	}

	if _, err := c.RefreshCredential(ctx); err != nil {
		c.sessionExpired(ctx, hardAuthSentinel(err))
		return errs.Wrapf(err, "session refresh")
	}
	c.setState(StateAuthenticated)
	return nil
}

// RefreshCredential is the single-flight refresh primitive. However many
// callers arrive concurrently (scheduler ticks, recovery retries, explicit
// refreshes), one network call is issued and all callers share its outcome.
func (c *Controller) RefreshCredential(ctx context.Context) (string, error) {
	result, err, _ := c.refreshGroup.Do(refreshKey, func() (any, error) {
		c.metrics.RefreshAttempts.Inc()

		resp, err := c.api.Refresh(ctx)
		if err != nil {
			c.metrics.RefreshFailures.Inc()
			return nil, err
		}

		id := identity.Identity{}
		if current := c.store.Snapshot(); current.Identity != nil {
			id = *current.Identity
		}
		if resp.User != nil {
			id.User = *resp.User
		}
		if resp.UserType != nil {
			id.Role = *resp.UserType
		}

		if err := c.store.Set(ctx, resp.Token, id); err != nil {
			return nil, err
		}
		return resp.Token, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Logout ends the session: credential cleared, timers cancelled, broadcaster
// subscription dropped, identity reset. The second call is a no-op.
func (c *Controller) Logout(ctx context.Context) {
	c.lock.Lock()
	if c.loggedOut {
		c.lock.Unlock()
		return
	}
	c.loggedOut = true
	c.lock.Unlock()

	c.store.Clear(ctx)
	c.teardown()
	c.setState(StateAnonymous)
}

// Close tears the controller down without discarding the persisted
// credential, so the session survives for the next process. Idempotent.
func (c *Controller) Close() {
	c.teardown()
}

// Identity returns the authenticated principal, if any.
func (c *Controller) Identity() (identity.Identity, bool) {
	return c.store.Identity()
}

// IsLoading reports whether the initial bootstrap is still resolving. Once
// false it stays false.
func (c *Controller) IsLoading() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.loading
}

// State returns the controller's lifecycle state.
func (c *Controller) State() State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state
}

// Scheduler exposes the task table, mainly for manual triggers and tests.
func (c *Controller) Scheduler() *scheduler.Scheduler {
	return c.sched
}

func (c *Controller) keepAliveTick(ctx context.Context) error {
	if _, held := c.store.Token(); !held {
		return nil
	}
	err := c.api.KeepAlive(ctx)
	if err == nil {
		return nil
	}
	if sentinel := hardAuthSentinel(err); sentinel != nil {
		c.sessionExpired(ctx, sentinel)
	}
	return err
}

func (c *Controller) routineRefreshTick(ctx context.Context) error {
	if _, held := c.store.Token(); !held {
		return nil
	}
	_, err := c.RefreshCredential(ctx)
	if err == nil {
		return nil
	}
	if sentinel := hardAuthSentinel(err); sentinel != nil {
		c.sessionExpired(ctx, sentinel)
	}
	return err
}

// frequentRefreshTick is the defensive extension for active sessions. Soft
// failure policy: the routine refresh is the authoritative backstop, so a
// failure here is logged and nothing else.
func (c *Controller) frequentRefreshTick(ctx context.Context) error {
	if _, held := c.store.Token(); !held {
		return nil
	}
	if _, err := c.RefreshCredential(ctx); err != nil {
		log.Warn().Err(err).Msg("session: frequent refresh failed, session kept")
	}
	return nil
}

// onLogoutEvent is the broadcaster subscription: when any layer announces an
// unrecoverable logout, clear local state and fall back to anonymous.
func (c *Controller) onLogoutEvent(event events.LogoutEvent) {
	log.Info().Str("reason", event.Reason).Msg("session: logout announced")
	c.store.Clear(context.Background())
	c.setState(StateAnonymous)
}

// sessionExpired terminates the session from inside the controller. The
// publish reaches our own subscription synchronously, which resets identity
// state before any caller can observe the aftermath.
func (c *Controller) sessionExpired(ctx context.Context, sentinel error) {
	c.store.Clear(ctx)
	c.metrics.HardLogouts.Inc()
	c.broadcaster.Publish(events.LogoutEvent{Reason: errs.LogoutReason(sentinel)})
}

// applyIdentity writes credential and identity atomically, unless the
// controller was torn down while the result was in flight.
func (c *Controller) applyIdentity(ctx context.Context, token string, id identity.Identity) error {
	if c.isClosed() {
		return errs.ErrControllerClosed
	}
	if err := c.store.Set(ctx, token, id); err != nil {
		return err
	}
	c.setState(StateAuthenticated)
	return nil
}

func (c *Controller) teardown() {
	c.closeOnce.Do(func() {
		c.lock.Lock()
		c.closed = true
		c.lock.Unlock()

		c.sched.Stop()
		c.unsubscribe()
	})
}

func (c *Controller) finishLoading() {
	c.loadingOnce.Do(func() {
		c.lock.Lock()
		c.loading = false
		c.lock.Unlock()
	})
}

func (c *Controller) setState(state State) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.state = state
}

func (c *Controller) isClosed() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.closed
}

// hardAuthSentinel maps an API failure onto the hard-error set, or nil when
// the failure is transient.
func hardAuthSentinel(err error) error {
	apiErr, ok := transport.AsAPIError(err)
	if !ok || !apiErr.IsAuthFailure() {
		return nil
	}
	if sentinel, hard := errs.ClassifyAuthMessage(apiErr.Message); hard {
		return sentinel
	}
	return nil
}
