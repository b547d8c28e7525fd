package coordination

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/appltini/app-mesh/pkg/log"
	"github.com/appltini/app-mesh/pkg/metrics"
	"github.com/appltini/app-mesh/pkg/types"
	"github.com/rs/zerolog"
)

// SessionManager owns the agent's coordination-store session: it creates
// a TTL session on first need, renews it every TTL-3 seconds, and
// recreates it whenever a renew fails (spec.md §4.2).
type SessionManager struct {
	client *Client
	host   string
	ttl    time.Duration

	mu sync.Mutex
	id string

	logger zerolog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewSessionManager constructs a SessionManager. ttl must exceed 10s for
// the renew timer to be meaningful; callers are expected to enforce this
// at configuration-validation time (spec.md §6 m_ttl).
func NewSessionManager(client *Client, host string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		client: client,
		host:   host,
		ttl:    ttl,
		logger: log.WithHost(host).With().Str("component", "coordination.session").Logger(),
		stopCh: make(chan struct{}),
	}
}

// ID returns the currently held session ID, or "" if none is held.
func (s *SessionManager) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Start launches the periodic renew timer at TTL-3 seconds, per
// spec.md §4.2. It returns immediately; call Stop to end the loop.
func (s *SessionManager) Start() {
	period := s.ttl - 3*time.Second
	if period <= 0 {
		period = s.ttl
	}
	go func() {
		s.refresh()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.refresh()
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop ends the renew loop and best-effort destroys the held session.
func (s *SessionManager) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if id := s.ID(); id != "" {
		s.release(id)
	}
}

type sessionCreateRequest struct {
	LockDelay string `json:"LockDelay"`
	Name      string `json:"Name"`
	Behavior  string `json:"Behavior"`
	TTL       string `json:"TTL"`
}

type sessionCreateResponse struct {
	ID string `json:"ID"`
}

// refresh is timer-driven and non-reentrant: create a session if none is
// held, otherwise renew the held one. On any failure the session ID is
// cleared so the next tick recreates it (spec.md §4.2).
func (s *SessionManager) refresh() {
	s.mu.Lock()
	current := s.id
	s.mu.Unlock()

	if current == "" {
		s.create()
		return
	}
	s.renew(current)
}

func (s *SessionManager) create() {
	body, err := json.Marshal(sessionCreateRequest{
		LockDelay: fmt.Sprintf("%ds", int(types.LockDelay.Seconds())),
		Name:      "appmesh-lock-" + s.host,
		Behavior:  "delete",
		TTL:       fmt.Sprintf("%ds", int(s.ttl.Seconds())),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode session create request")
		return
	}

	status, respBody, err := s.client.Put("session/create", nil, body)
	if err != nil || !Success(status) {
		s.logger.Warn().Err(err).Int("status", status).Msg("session create failed")
		metrics.SessionRenewalsTotal.WithLabelValues("create_error").Inc()
		return
	}

	var resp sessionCreateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		s.logger.Warn().Err(err).Msg("session create response malformed")
		metrics.SessionRenewalsTotal.WithLabelValues("create_error").Inc()
		return
	}

	s.mu.Lock()
	s.id = resp.ID
	s.mu.Unlock()
	metrics.SessionRenewalsTotal.WithLabelValues("create_ok").Inc()
	s.logger.Info().Str("session_id", resp.ID).Msg("session created")
}

func (s *SessionManager) renew(id string) {
	status, _, err := s.client.Put(pathf("session/renew/%s", id), nil, nil)
	if err != nil || !Success(status) {
		s.logger.Warn().Err(err).Int("status", status).Msg("session renew failed, will recreate")
		metrics.SessionRenewalsTotal.WithLabelValues("renew_error").Inc()
		s.mu.Lock()
		s.id = ""
		s.mu.Unlock()
		return
	}
	metrics.SessionRenewalsTotal.WithLabelValues("renew_ok").Inc()
}

func (s *SessionManager) release(id string) {
	_, _ = s.client.Put(pathf("session/destroy/%s", id), url.Values{}, nil)
}
