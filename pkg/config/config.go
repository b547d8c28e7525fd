/*
Package config loads the agent configuration surface spec.md §6 names:
feature flags, role flags, session TTL, the coordination store URL, this
agent's externally reachable health-check URL, and its label set. A YAML
file supplies defaults; CLI flags (wired by cmd/appmesh) override them.
*/
package config

import (
	"fmt"
	"os"

	"github.com/appltini/app-mesh/pkg/types"
	"gopkg.in/yaml.v3"
)

// Config is the configuration surface spec.md §6 enumerates.
type Config struct {
	ConsulEnabled         bool              `yaml:"consulEnabled"`
	ConsulSecurityEnabled bool              `yaml:"consulSecurityEnabled"`
	IsMaster              bool              `yaml:"isMaster"`
	IsNode                bool              `yaml:"isNode"`
	TTL                   int               `yaml:"ttl"`
	ConsulURL             string            `yaml:"consulUrl"`
	AppMeshURL            string            `yaml:"appmeshUrl"`
	Label                 map[string]string `yaml:"label"`
}

// Default returns the zero-value-safe defaults applied before a file or
// flags are layered on top.
func Default() Config {
	return Config{
		TTL:       30,
		ConsulURL: "http://127.0.0.1:8500",
	}
}

// Load reads a YAML config file into a Config seeded with Default().
// A missing path is not an error: the defaults (plus whatever flag
// overrides the caller applies afterward) stand alone.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate enforces the constraints spec.md §6 states explicitly: TTL
// must exceed 10 seconds for renewal scheduling (TTL-3) to make sense,
// and consulEnabled needs a coordination URL to reach.
func (c Config) Validate() error {
	if c.ConsulEnabled && c.TTL <= 10 {
		return fmt.Errorf("ttl must be > 10 seconds, got %d", c.TTL)
	}
	if c.ConsulEnabled && c.ConsulURL == "" {
		return fmt.Errorf("consulUrl is required when consulEnabled")
	}
	return nil
}

// Role derives the agent's role combination from the IsMaster/IsNode
// flags (spec.md §2).
func (c Config) Role() types.AgentRole {
	return types.AgentRole{IsMaster: c.IsMaster, IsNode: c.IsNode}
}

// AppmeshURL returns this agent's externally reachable health-check
// URL (spec.md §6 appmeshUrl()).
func (c Config) AppmeshURL() string {
	return c.AppMeshURL
}

// GetLabel returns this agent's local label set (spec.md §6 getLabel()).
func (c Config) GetLabel() types.Label {
	if c.Label == nil {
		return types.Label{}
	}
	return types.Label(c.Label)
}
