package agent

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/appltini/app-mesh/pkg/config"
	"github.com/appltini/app-mesh/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct{}

func (fakeRegistry) GetApps() ([]registry.App, error)        { return nil, nil }
func (fakeRegistry) AddApp(d registry.Descriptor) error       { return nil }
func (fakeRegistry) RemoveApp(name string) error              { return nil }
func (fakeRegistry) ParseApp(data []byte) (registry.App, error) {
	return nil, nil
}

func TestNewWiresSubsystemsPerRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.ConsulURL = srv.URL
	cfg.IsMaster = true
	cfg.IsNode = true
	cfg.ConsulSecurityEnabled = true

	a := New("n1", cfg, fakeRegistry{})
	require.NotNil(t, a)
	assert.NotNil(t, a.conv)
	assert.NotNil(t, a.security)
	assert.False(t, a.IsLeader())
}

func TestStartStopDoesNotBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.ConsulURL = srv.URL
	cfg.IsNode = true

	a := New("n1", cfg, fakeRegistry{})
	a.Start()
	time.Sleep(10 * time.Millisecond)
	a.Stop()
}
