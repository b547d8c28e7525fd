package coordination

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGetParsesIndexHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/appmesh/leader", r.URL.Path)
		w.Header().Set("X-Consul-Index", "42")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`"n1"`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	status, body, index, err := c.Get("appmesh/leader", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `"n1"`, string(body))
	assert.Equal(t, uint64(42), index)
}

func TestClientGetMissingIndexHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, _, index, err := c.Get("whatever", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), index)
}

func TestClientTransportFailureReturnsUnavailable(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	status, _, _, err := c.Get("appmesh/leader", nil)
	assert.Error(t, err)
	assert.Equal(t, unavailableStatus, status)

	var transient *Transient
	assert.ErrorAs(t, err, &transient)
}

func TestClientPutSendsBodyAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "sess-1", r.URL.Query().Get("acquire"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("true"))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	q := url.Values{"acquire": {"sess-1"}}
	status, body, err := c.Put("appmesh/leader", q, []byte(`"n1"`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "true", string(body))
}

func TestSuccess(t *testing.T) {
	assert.True(t, Success(200))
	assert.True(t, Success(299))
	assert.False(t, Success(404))
	assert.False(t, Success(205))
}
