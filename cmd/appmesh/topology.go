package main

import (
	"fmt"

	"github.com/appltini/app-mesh/pkg/coordination"
	"github.com/appltini/app-mesh/pkg/topology"
	"github.com/spf13/cobra"
)

var topologyCmd = &cobra.Command{
	Use:   "topology HOST",
	Short: "Print a host's scheduled applications",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopology,
}

func init() {
	topologyCmd.Flags().String("consul-url", "http://127.0.0.1:8500", "Coordination store base URL")
}

func runTopology(cmd *cobra.Command, args []string) error {
	host := args[0]
	consulURL, _ := cmd.Flags().GetString("consul-url")

	client := coordination.NewClient(coordination.Config{BaseURL: consulURL})
	reader := topology.NewReader(client)

	topo, err := reader.Get(host)
	if err != nil {
		return fmt.Errorf("get topology for %s: %w", host, err)
	}

	if len(topo.ScheduleApps) == 0 {
		fmt.Printf("%s: no scheduled applications\n", host)
		return nil
	}

	fmt.Printf("%-30s %s\n", "APP", "INDEX")
	for app, idx := range topo.ScheduleApps {
		fmt.Printf("%-30s %d\n", app, idx)
	}
	return nil
}
