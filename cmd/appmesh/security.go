package main

import (
	"fmt"
	"os"

	"github.com/appltini/app-mesh/pkg/coordination"
	"github.com/appltini/app-mesh/pkg/securitysync"
	"github.com/spf13/cobra"
)

var securityCmd = &cobra.Command{
	Use:   "security",
	Short: "Manage the cluster security document",
}

var securityPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a security document to appmesh/security",
	Long: `Reads a JSON security document from --from-file (or stdin) and
writes it to appmesh/security. Pass --if-absent to refuse overwriting an
existing document.`,
	RunE: runSecurityPublish,
}

func init() {
	securityPublishCmd.Flags().String("consul-url", "http://127.0.0.1:8500", "Coordination store base URL")
	securityPublishCmd.Flags().String("from-file", "", "Read the security document from this file (default: stdin)")
	securityPublishCmd.Flags().Bool("if-absent", false, "Refuse to overwrite an existing document")

	securityCmd.AddCommand(securityPublishCmd)
}

func runSecurityPublish(cmd *cobra.Command, args []string) error {
	consulURL, _ := cmd.Flags().GetString("consul-url")
	fromFile, _ := cmd.Flags().GetString("from-file")
	ifAbsent, _ := cmd.Flags().GetBool("if-absent")

	var (
		raw []byte
		err error
	)
	if fromFile != "" {
		raw, err = os.ReadFile(fromFile)
	} else {
		raw, err = os.ReadFile("/dev/stdin")
	}
	if err != nil {
		return fmt.Errorf("read security document: %w", err)
	}

	client := coordination.NewClient(coordination.Config{BaseURL: consulURL})
	sync := securitysync.New(client, nil)

	if err := sync.SaveSecurity(raw, ifAbsent); err != nil {
		return fmt.Errorf("publish security document: %w", err)
	}

	fmt.Println("✓ Security document published")
	return nil
}
