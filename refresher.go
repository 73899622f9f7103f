package crewdock

import (
	"context"
	"sync"

	errs "github.com/crewdock/go-crewdock-client/internal/errors"
	"github.com/crewdock/go-crewdock-client/transport"
)

var _ transport.Refresher = (*refresherHandle)(nil)

// refresherHandle breaks the construction cycle between the recovery
// interceptor and the session controller. Until bind is called, refresh
// requests fail closed.
type refresherHandle struct {
	lock     sync.RWMutex
	delegate transport.Refresher
}

func (h *refresherHandle) bind(delegate transport.Refresher) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.delegate = delegate
}

func (h *refresherHandle) RefreshCredential(ctx context.Context) (string, error) {
	h.lock.RLock()
	delegate := h.delegate
	h.lock.RUnlock()

	if delegate == nil {
		return "", errs.ErrControllerClosed
	}
	return delegate.RefreshCredential(ctx)
}
