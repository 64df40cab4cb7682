package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var iceCmd = &cobra.Command{
	Use:   "ice",
	Short: "Show the ICE servers handed to session clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var resp struct {
			ICEServers []struct {
				URLs     []string `json:"urls"`
				Username string   `json:"username,omitempty"`
			} `json:"iceServers"`
		}
		if err := client.getJSON("/api/v1/ice-servers", &resp); err != nil {
			return fmt.Errorf("failed to fetch ICE servers: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(resp)
		}

		headers := []string{"URLs", "Username"}
		rows := make([][]string, 0, len(resp.ICEServers))
		for _, s := range resp.ICEServers {
			rows = append(rows, []string{strings.Join(s.URLs, ", "), s.Username})
		}
		printTable(headers, rows)
		return nil
	},
}
