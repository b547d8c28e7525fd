package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TTL)
	assert.Equal(t, "http://127.0.0.1:8500", cfg.ConsulURL)
}

func TestLoadParsesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "appmesh.yaml")
	content := []byte(`
consulEnabled: true
isMaster: true
isNode: true
ttl: 45
consulUrl: http://consul.internal:8500
appmeshUrl: https://node1.internal:9443
label:
  zone: a
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.ConsulEnabled)
	assert.True(t, cfg.IsMaster)
	assert.True(t, cfg.IsNode)
	assert.Equal(t, 45, cfg.TTL)
	assert.Equal(t, "http://consul.internal:8500", cfg.ConsulURL)
	assert.Equal(t, "a", cfg.GetLabel()["zone"])
}

func TestValidateRejectsLowTTLWhenConsulEnabled(t *testing.T) {
	cfg := Default()
	cfg.ConsulEnabled = true
	cfg.TTL = 5
	assert.Error(t, cfg.Validate())
}

func TestValidateAllowsLowTTLWhenConsulDisabled(t *testing.T) {
	cfg := Default()
	cfg.TTL = 5
	assert.NoError(t, cfg.Validate())
}

func TestRoleString(t *testing.T) {
	cfg := Default()
	cfg.IsMaster = true
	cfg.IsNode = true
	assert.Equal(t, "master+node", cfg.Role().String())
}
