package topology

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appltini/app-mesh/pkg/coordination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDecodesRawEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("raw"))
		w.Write([]byte(`[{"App":"web","Index":1},{"App":"api","Index":2}]`))
	}))
	defer srv.Close()

	client := coordination.NewClient(coordination.Config{BaseURL: srv.URL})
	reader := NewReader(client)

	topo, err := reader.Get("n1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"web": 1, "api": 2}, topo.ScheduleApps)
}

func TestGetReturnsEmptyTopologyOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := coordination.NewClient(coordination.Config{BaseURL: srv.URL})
	reader := NewReader(client)

	topo, err := reader.Get("n1")
	require.NoError(t, err)
	assert.Empty(t, topo.ScheduleApps)
}
