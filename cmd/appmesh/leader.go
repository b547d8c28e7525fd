package main

import (
	"fmt"

	"github.com/appltini/app-mesh/pkg/coordination"
	"github.com/spf13/cobra"
)

var leaderCmd = &cobra.Command{
	Use:   "leader",
	Short: "Print the current leader hostname",
	Long:  `Reads appmesh/leader with raw=true, without attempting to acquire it.`,
	RunE:  runLeader,
}

func init() {
	leaderCmd.Flags().String("consul-url", "http://127.0.0.1:8500", "Coordination store base URL")
}

func runLeader(cmd *cobra.Command, args []string) error {
	consulURL, _ := cmd.Flags().GetString("consul-url")

	client := coordination.NewClient(coordination.Config{BaseURL: consulURL})
	election := coordination.NewElection(client, nil, "")

	leader, err := election.CurrentLeader()
	if err != nil {
		return fmt.Errorf("read leader key: %w", err)
	}
	if leader == "" {
		fmt.Println("no leader elected")
		return nil
	}
	fmt.Println(leader)
	return nil
}
