// Package crewdock assembles the session client for the Crewdock staffing
// platform. Domain code routes every request through Client.Dispatcher and
// reads authentication state from Client.Session; nothing else should touch
// the transport directly.
package crewdock

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/crewdock/go-crewdock-client/authapi"
	"github.com/crewdock/go-crewdock-client/credentials"
	"github.com/crewdock/go-crewdock-client/credentials/storagefile"
	"github.com/crewdock/go-crewdock-client/credentials/storageredis"
	"github.com/crewdock/go-crewdock-client/events"
	"github.com/crewdock/go-crewdock-client/internal/config"
	"github.com/crewdock/go-crewdock-client/internal/metrics"
	"github.com/crewdock/go-crewdock-client/session"
	"github.com/crewdock/go-crewdock-client/transport"
)

// Client bundles the assembled session stack.
type Client struct {
	Session     *session.Controller
	Dispatcher  *transport.Dispatcher
	Store       *credentials.Store
	Broadcaster *events.Broadcaster
	AuthAPI     *authapi.Client
}

// Option configures the client assembly.
type Option func(*builder)

type builder struct {
	httpClient *http.Client
	navigator  transport.Navigator
	storage    credentials.Storage
	registerer prometheus.Registerer
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(b *builder) { b.httpClient = client }
}

// WithNavigator wires the hosting shell's router in, so hard logouts can send
// the user to the matching login surface.
func WithNavigator(nav transport.Navigator) Option {
	return func(b *builder) { b.navigator = nav }
}

// WithStorage overrides the durable token storage.
func WithStorage(storage credentials.Storage) Option {
	return func(b *builder) { b.storage = storage }
}

// WithRegisterer exports the client's metrics on the given registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(b *builder) { b.registerer = reg }
}

// NewClient wires store, dispatcher, recovery interceptor, auth API, and
// session controller together from config and options.
func NewClient(cfg config.Config, options ...Option) (*Client, error) {
	b := &builder{
		httpClient: transport.DefaultHTTPClient(),
		navigator:  transport.NopNavigator{},
		registerer: prometheus.NewRegistry(),
	}
	for _, opt := range options {
		opt(b)
	}

	if b.storage == nil {
		storage, err := storageFromConfig(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "[NewClient] building token storage")
		}
		b.storage = storage
	}

	m := metrics.New(b.registerer)
	store := credentials.NewStore(b.storage)
	broadcaster := events.NewBroadcaster()

	// The interceptor needs the controller's refresh operation and the
	// controller needs the dispatcher the interceptor sits inside, so the
	// refresher is bound late through a handle.
	refresher := &refresherHandle{}
	interceptor := transport.NewRecoveryInterceptor(
		b.httpClient, store, refresher, broadcaster, b.navigator, authapi.ExemptPaths(), m)
	dispatcher := transport.NewDispatcher(cfg.GetAPIBaseURL(), store, interceptor, cfg, m)
	api := authapi.New(dispatcher)
	controller := session.New(api, store, broadcaster, cfg, m)
	refresher.bind(controller)

	return &Client{
		Session:     controller,
		Dispatcher:  dispatcher,
		Store:       store,
		Broadcaster: broadcaster,
		AuthAPI:     api,
	}, nil
}

func storageFromConfig(cfg config.StorageConfig) (credentials.Storage, error) {
	if addr := cfg.GetRedisAddr(); addr != "" {
		return storageredis.New(addr, cfg.GetRedisPassword(), cfg.GetRedisTokenKey()), nil
	}
	if key := cfg.GetTokenFileKey(); key != "" {
		return storagefile.New(cfg.GetTokenFilePath(), key)
	}
	// No durable backend configured: the session lives for this process only.
	return credentials.NewMemoryStorage(), nil
}
