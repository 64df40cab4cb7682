package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
	orgID     string
	userID    string
	userRole  string
)

var rootCmd = &cobra.Command{
	Use:   "brokerctl",
	Short: "CLI for the remote-control session broker",
	Long: `brokerctl talks to a running session broker server.

It covers the full broker surface: starting and ending remote-control
sessions, recording consent decisions, reading and updating the
per-organization policy, querying the audit trail, and fetching the
ICE server list handed to clients.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Broker server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&orgID, "org", "", "Organization ID (default: from BROKER_ORG env or \"default\")")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "User ID sent as the caller identity")
	rootCmd.PersistentFlags().StringVar(&userRole, "role", "", "Role sent as the caller identity")

	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(consentCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(iceCmd)
	rootCmd.AddCommand(healthCmd)
}

// resolvedOrg returns the effective organization ID.
// Priority: --org flag > BROKER_ORG env var > "default".
func resolvedOrg() string {
	if orgID != "" {
		return orgID
	}
	if org := os.Getenv("BROKER_ORG"); org != "" {
		return org
	}
	return "default"
}
