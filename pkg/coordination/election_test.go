package coordination

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElectionAttemptRequiresSession(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"})
	sm := NewSessionManager(c, "n1", 20*time.Second)
	e := NewElection(c, sm, "n1")

	acquired, err := e.Attempt()
	assert.False(t, acquired)
	var p *Precondition
	require.ErrorAs(t, err, &p)
	assert.False(t, e.IsLeader())
}

func TestElectionAttemptAcquires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/session/create":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ID":"sess-1"}`))
		case "/v1/appmesh/leader":
			assert.Equal(t, "sess-1", r.URL.Query().Get("acquire"))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("true"))
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	sm := NewSessionManager(c, "n1", 20*time.Second)
	sm.refresh()
	e := NewElection(c, sm, "n1")

	acquired, err := e.Attempt()
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.True(t, e.IsLeader())
}

func TestElectionCurrentLeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("raw"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("n2"))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	e := NewElection(c, NewSessionManager(c, "n1", 20*time.Second), "n1")

	leader, err := e.CurrentLeader()
	require.NoError(t, err)
	assert.Equal(t, "n2", leader)
}
