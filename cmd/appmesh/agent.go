package main

import (
	"fmt"
	"os"

	"github.com/appltini/app-mesh/pkg/agent"
	"github.com/appltini/app-mesh/pkg/config"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the coordination agent",
	Long: `Run the coordination agent for this host: session management,
leader election (master role), scheduling (master role), node
convergence (node role), and security sync all start per the role
flags in the config file or the --master/--node overrides.

This command never starts an application runtime of its own; the node
convergence loop is a no-op unless the host process links in an
implementation of pkg/registry.Registry and wires it in before calling
pkg/agent.New.`,
	RunE: runAgent,
}

func init() {
	agentCmd.Flags().String("config", "", "Path to YAML config file")
	agentCmd.Flags().String("host", "", "This agent's hostname (defaults to os.Hostname())")
	agentCmd.Flags().String("consul-url", "", "Override the config file's consulUrl")
	agentCmd.Flags().Bool("master", false, "Override the config file's isMaster flag")
	agentCmd.Flags().Bool("node", false, "Override the config file's isNode flag")
	agentCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address to serve /metrics on (empty disables)")
}

func runAgent(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	host, _ := cmd.Flags().GetString("host")
	consulURL, _ := cmd.Flags().GetString("consul-url")
	masterOverride, _ := cmd.Flags().GetBool("master")
	nodeOverride, _ := cmd.Flags().GetBool("node")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if consulURL != "" {
		cfg.ConsulURL = consulURL
	}
	if masterOverride {
		cfg.IsMaster = true
	}
	if nodeOverride {
		cfg.IsNode = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if host == "" {
		host, err = os.Hostname()
		if err != nil {
			return fmt.Errorf("determine hostname: %w", err)
		}
	}

	serveMetrics(metricsAddr)

	// reg is nil: this binary carries no application registry of its
	// own (spec.md §1 "DELIBERATELY OUT OF SCOPE"). Convergence stays
	// dormant for a node role until a host process wires one in.
	a := agent.New(host, cfg, nil)
	a.Start()

	fmt.Printf("agent running as %s (role=%s)\n", host, cfg.Role().String())
	fmt.Println("Press Ctrl+C to stop.")
	waitForSignal()

	fmt.Println("\nShutting down...")
	a.Stop()
	fmt.Println("✓ Shutdown complete")
	return nil
}
