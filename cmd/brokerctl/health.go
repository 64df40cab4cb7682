package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check broker server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		body, err := client.getText("/healthz")
		if err != nil {
			return fmt.Errorf("server unreachable: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(map[string]string{"status": body})
		}

		fmt.Printf("Server %s: %s\n", serverURL, body)
		return nil
	},
}
