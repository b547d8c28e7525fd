package topology

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/appltini/app-mesh/pkg/coordination"
	"github.com/appltini/app-mesh/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func topo(host string, apps map[string]int) *types.Topology {
	return &types.Topology{HostName: host, ScheduleApps: apps}
}

func TestWriteSkipsUnchangedNameSets(t *testing.T) {
	var mu sync.Mutex
	var paths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := coordination.NewClient(coordination.Config{BaseURL: srv.URL})
	writer := NewWriter(client)

	old := map[string]*types.Topology{"n1": topo("n1", map[string]int{"web": 1})}
	// same name set, different index: must not be rewritten.
	next := map[string]*types.Topology{"n1": topo("n1", map[string]int{"web": 2})}

	writes, err := writer.Write(old, next)
	require.NoError(t, err)
	assert.Equal(t, 0, writes)
	assert.Empty(t, paths)
}

func TestWriteWritesNewAndChangedHosts(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = true
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := coordination.NewClient(coordination.Config{BaseURL: srv.URL})
	writer := NewWriter(client)

	old := map[string]*types.Topology{}
	next := map[string]*types.Topology{
		"n1": topo("n1", map[string]int{"web": 1}),
		"n2": topo("n2", map[string]int{"api": 1}),
	}

	writes, err := writer.Write(old, next)
	require.NoError(t, err)
	assert.Equal(t, 2, writes)
	assert.True(t, seen["/v1/appmesh/topology/n1"])
	assert.True(t, seen["/v1/appmesh/topology/n2"])
}

func TestWritePutsEmptyForVanishedHosts(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := coordination.NewClient(coordination.Config{BaseURL: srv.URL})
	writer := NewWriter(client)

	old := map[string]*types.Topology{"n1": topo("n1", map[string]int{"web": 1})}
	next := map[string]*types.Topology{}

	writes, err := writer.Write(old, next)
	require.NoError(t, err)
	assert.Equal(t, 1, writes)
	assert.Equal(t, "[]", string(gotBody))
}

func TestOfflineHostDeletes(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := coordination.NewClient(coordination.Config{BaseURL: srv.URL})
	writer := NewWriter(client)

	require.NoError(t, writer.OfflineHost("n1"))
	assert.Equal(t, http.MethodDelete, method)
}
