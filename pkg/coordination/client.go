/*
Package coordination implements the thin HTTP layer against a Consul-like
coordination store, plus the session, watch, election, and service-catalog
operations layered on top of it (spec.md §4.1-§4.4, §4.7 tail).

It deliberately does not wrap github.com/hashicorp/consul/api: the
contract in spec.md is a hand-rolled GET/PUT/DELETE surface with exact
control over status codes (the 205 "unavailable" sentinel), the
X-Consul-Index header, and raw query-string construction, none of which
the official client's typed request builders expose directly.
*/
package coordination

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/appltini/app-mesh/pkg/log"
	"github.com/appltini/app-mesh/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// unavailableStatus is returned in place of a real HTTP status whenever
// the transport itself failed (connection refused, timeout, DNS, ...).
// It mirrors the reference implementation's in-band "reset content"
// marker. Success reports it as a failure even though it is 2xx, so
// callers can treat "no status" and "205" identically without
// special-casing.
const unavailableStatus = http.StatusResetContent

// Client is a thin request/response layer over the coordination store's
// KV, session, and agent-service HTTP API. It holds no mutable state of
// its own; session/election/watch state lives in the types layered on
// top of it (SessionManager, Election, Watch).
type Client struct {
	baseURL string // e.g. http://127.0.0.1:8500
	call    *http.Client
	watch   *http.Client
	logger  zerolog.Logger
}

// Config configures a Client.
type Config struct {
	BaseURL string
}

// NewClient constructs a Client against the given coordination store
// base URL (e.g. "http://127.0.0.1:8500").
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		call:    newTransport(defaultCallTimeout),
		watch:   newTransport(watchTimeout),
		logger:  log.WithComponent("coordination.client"),
	}
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + "/v1/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Get issues GET path?query and returns the response status, raw body,
// and the store's monotonic X-Consul-Index if present. On any transport
// exception it returns unavailableStatus and a *Transient error.
func (c *Client) Get(path string, query url.Values) (status int, body []byte, index uint64, err error) {
	return c.do(c.call, http.MethodGet, path, query, nil)
}

// Put issues PUT path?query with the given body and returns the
// response status and raw body.
func (c *Client) Put(path string, query url.Values, payload []byte) (status int, body []byte, err error) {
	status, body, _, err = c.do(c.call, http.MethodPut, path, query, payload)
	return status, body, err
}

// Delete issues DELETE path?query and returns the response status.
func (c *Client) Delete(path string, query url.Values) (status int, err error) {
	status, _, _, err = c.do(c.call, http.MethodDelete, path, query, nil)
	return status, err
}

// WatchGet issues a long-poll GET with a 30s client timeout matching the
// wait= query parameter the watch engine supplies. It is otherwise
// identical to Get.
func (c *Client) WatchGet(path string, query url.Values) (status int, body []byte, index uint64, err error) {
	return c.do(c.watch, http.MethodGet, path, query, nil)
}

func (c *Client) do(hc *http.Client, method, path string, query url.Values, payload []byte) (int, []byte, uint64, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVRequestDuration, method)

	correlationID := uuid.NewString()
	reqLogger := c.logger.With().Str("correlation_id", correlationID).Logger()

	var reqBody io.Reader
	if payload != nil {
		reqBody = strings.NewReader(string(payload))
	}

	req, err := http.NewRequest(method, c.url(path, query), reqBody)
	if err != nil {
		metrics.KVRequestsTotal.WithLabelValues(method, "build_error").Inc()
		return unavailableStatus, nil, 0, transientf(method+" "+path, "build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", correlationID)

	resp, err := hc.Do(req)
	if err != nil {
		reqLogger.Warn().Err(err).Str("method", method).Str("path", path).Msg("coordination store request failed")
		metrics.KVRequestsTotal.WithLabelValues(method, "unavailable").Inc()
		return unavailableStatus, nil, 0, transientf(method+" "+path, "do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.KVRequestsTotal.WithLabelValues(method, "read_error").Inc()
		return unavailableStatus, nil, 0, transientf(method+" "+path, "read response: %w", err)
	}

	reqLogger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("coordination store round-trip")

	var index uint64
	if raw := resp.Header.Get("X-Consul-Index"); raw != "" {
		if parsed, perr := strconv.ParseUint(raw, 10, 64); perr == nil {
			index = parsed
		}
	}

	metrics.KVRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	return resp.StatusCode, body, index, nil
}

// Success reports whether an HTTP status code represents a successful
// call; callers treat anything else as failure per spec.md §4.1. The
// unavailableStatus sentinel (205) is never a success.
func Success(status int) bool {
	return status >= 200 && status < 300 && status != unavailableStatus
}

func pathf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
