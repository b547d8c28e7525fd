package coordination

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionManagerCreatesThenRenews(t *testing.T) {
	var creates, renews int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/session/create":
			creates++
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ID":"abc-123"}`))
		case r.URL.Path == "/v1/session/renew/abc-123":
			renews++
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`[{"ID":"abc-123"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	sm := NewSessionManager(c, "n1", 20*time.Second)

	sm.refresh()
	assert.Equal(t, "abc-123", sm.ID())
	assert.Equal(t, 1, creates)

	sm.refresh()
	assert.Equal(t, "abc-123", sm.ID())
	assert.Equal(t, 1, renews)
}

func TestSessionManagerClearsIDOnRenewFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/session/create":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ID":"abc-123"}`))
		case "/v1/session/renew/abc-123":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	sm := NewSessionManager(c, "n1", 20*time.Second)

	sm.refresh()
	assert.Equal(t, "abc-123", sm.ID())

	sm.refresh()
	assert.Equal(t, "", sm.ID())
}
