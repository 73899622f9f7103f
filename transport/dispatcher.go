// Package transport wraps the HTTP client every platform call rides on. The
// Dispatcher attaches the current credential to outgoing requests; the
// RecoveryInterceptor layered inside it recovers from credential expiry.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/crewdock/go-crewdock-client/credentials"
	"github.com/crewdock/go-crewdock-client/internal/config"
	"github.com/crewdock/go-crewdock-client/internal/metrics"
)

const (
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
	contentTypeJSON     = "application/json"
)

// Doer is the hole the RecoveryInterceptor plugs into.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher sends every request the client makes. It reads the credential
// store before dispatch and never retries; retry logic belongs to the
// interceptor decorating the inner Doer.
type Dispatcher struct {
	baseURL string
	store   *credentials.Store
	doer    Doer
	cfg     config.TransportConfig
	metrics *metrics.Metrics
}

// NewDispatcher creates a dispatcher rooted at baseURL. doer is typically a
// RecoveryInterceptor wrapping an *http.Client; pass the client directly to
// opt out of expiry recovery.
func NewDispatcher(baseURL string, store *credentials.Store, doer Doer, cfg config.TransportConfig, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		doer:    doer,
		cfg:     cfg,
		metrics: m,
	}
}

// Send dispatches a prepared request, injecting the bearer credential and a
// correlation ID. The caller owns the response body.
func (d *Dispatcher) Send(req *http.Request) (*http.Response, error) {
	if token, ok := d.store.Token(); ok {
		req.Header.Set(headerAuthorization, "Bearer "+token)
	}
	if req.Header.Get(headerRequestID) == "" {
		req.Header.Set(headerRequestID, uuid.New().String())
	}

	resp, err := d.doer.Do(req)
	if err != nil {
		return nil, err
	}
	d.metrics.RequestsTotal.WithLabelValues(statusClass(resp.StatusCode)).Inc()
	return resp, nil
}

// GetJSON issues a GET and decodes a JSON response into out (out may be nil).
func (d *Dispatcher) GetJSON(ctx context.Context, path string, out any) error {
	return d.roundTripJSON(ctx, http.MethodGet, path, nil, out)
}

// PostJSON issues a POST with a JSON body (in may be nil) and decodes into out.
func (d *Dispatcher) PostJSON(ctx context.Context, path string, in, out any) error {
	return d.roundTripJSON(ctx, http.MethodPost, path, in, out)
}

// PutJSON issues a PUT with a JSON body and decodes into out.
func (d *Dispatcher) PutJSON(ctx context.Context, path string, in, out any) error {
	return d.roundTripJSON(ctx, http.MethodPut, path, in, out)
}

// DeleteJSON issues a DELETE and decodes a JSON response into out.
func (d *Dispatcher) DeleteJSON(ctx context.Context, path string, out any) error {
	return d.roundTripJSON(ctx, http.MethodDelete, path, nil, out)
}

// Upload posts a multipart payload. The caller supplies the content type
// produced by its multipart writer; the dispatcher must not force JSON here
// or the boundary parameter is lost. Uploads get the long timeout.
func (d *Dispatcher) Upload(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.GetUploadTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "[Dispatcher.Upload] building request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.Send(req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func (d *Dispatcher) roundTripJSON(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.GetRequestTimeout())
	defer cancel()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "[Dispatcher] encoding %s %s body", method, path)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "[Dispatcher] building %s %s", method, path)
	}
	if in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := d.Send(req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// decodeResponse consumes and closes the body, turning non-2xx responses into
// an APIError carrying the server message.
func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "[Dispatcher] reading response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorBody(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "[Dispatcher] decoding response body")
	}
	return nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

// DefaultHTTPClient returns the client the dispatcher stack normally wraps.
// Per-request deadlines come from the dispatcher; this is the outer bound.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Minute}
}
