package coordination

import (
	"encoding/json"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/appltini/app-mesh/pkg/log"
	"github.com/appltini/app-mesh/pkg/metrics"
	"github.com/rs/zerolog"
)

// leaderKey is the KV path masters contend for (spec.md §6).
const leaderKey = "appmesh/leader"

// Election holds a master agent's view of cluster leadership: whether it
// currently holds the leader bit, cached between attempts (spec.md §4.4).
type Election struct {
	client   *Client
	sessions *SessionManager
	host     string

	mu       sync.Mutex
	isLeader bool
	logger   zerolog.Logger
}

// NewElection constructs an Election bound to the given session manager.
func NewElection(client *Client, sessions *SessionManager, host string) *Election {
	return &Election{
		client:   client,
		sessions: sessions,
		host:     host,
		logger:   log.WithHost(host).With().Str("component", "coordination.election").Logger(),
	}
}

// Attempt tries once to acquire the leader key with the current session.
// Requires a valid session; returns a *Precondition error otherwise
// (spec.md §4.4 Preconditions). The leader bit is cached until the next
// call regardless of outcome.
func (e *Election) Attempt() (bool, error) {
	sessionID := e.sessions.ID()
	if sessionID == "" {
		e.setLeader(false)
		return false, precondition("election.Attempt", "no session")
	}

	query := url.Values{}
	query.Set("acquire", sessionID)
	query.Set("flags", strconv.FormatInt(time.Now().Unix(), 10))

	body, err := json.Marshal(e.host)
	if err != nil {
		return false, protocolf("election.Attempt", err)
	}

	status, respBody, err := e.client.Put(leaderKey, query, body)
	if err != nil || !Success(status) {
		e.setLeader(false)
		return false, transientf("election.Attempt", "acquire leader key: status=%d err=%v", status, err)
	}

	acquired := string(respBody) == "true"
	e.setLeader(acquired)
	if acquired {
		log.WithSession(sessionID).Info().Str("host", e.host).Msg("acquired leadership")
	}
	return acquired, nil
}

// IsLeader returns the cached leader bit from the most recent Attempt.
func (e *Election) IsLeader() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isLeader
}

func (e *Election) setLeader(v bool) {
	e.mu.Lock()
	was := e.isLeader
	e.isLeader = v
	e.mu.Unlock()
	if v {
		metrics.LeaderElected.Set(1)
	} else {
		metrics.LeaderElected.Set(0)
	}
	if was && !v {
		e.logger.Warn().Msg("lost leadership")
	}
}

// CurrentLeader reads the stored leader hostname without attempting to
// acquire it (spec.md §4.4 "Reading the current leader").
func (e *Election) CurrentLeader() (string, error) {
	query := url.Values{}
	query.Set("raw", "true")

	status, body, _, err := e.client.Get(leaderKey, query)
	if err != nil {
		return "", transientf("election.CurrentLeader", "get leader key: %w", err)
	}
	if status == 404 {
		return "", nil
	}
	if !Success(status) {
		return "", transientf("election.CurrentLeader", "get leader key: status=%d", status)
	}
	return string(body), nil
}
