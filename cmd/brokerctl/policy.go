package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type brokerPolicy struct {
	OrgID              string   `json:"orgId"`
	Enabled            bool     `json:"enabled"`
	RequireConsent     bool     `json:"requireConsent"`
	IdleTimeoutMinutes int      `json:"idleTimeoutMinutes"`
	AllowClipboard     bool     `json:"allowClipboard"`
	AllowFileTransfer  bool     `json:"allowFileTransfer"`
	AllowedRoles       []string `json:"allowedRoles"`
	UpdatedBy          string   `json:"updatedBy,omitempty"`
	UpdatedAt          string   `json:"updatedAt,omitempty"`
}

var (
	setEnabled      string
	setConsent      string
	setClipboard    string
	setFileTransfer string
	setIdleTimeout  int
	setAllowedRoles []string
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "View and update the organization policy",
}

var policyGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the effective policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var p brokerPolicy
		if err := client.getJSON("/api/v1/policy", &p); err != nil {
			return fmt.Errorf("failed to get policy: %w", err)
		}
		return printPolicy(p)
	},
}

var policySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update policy fields",
	Long: `Update one or more policy fields. Only the flags you pass are
changed; everything else keeps its current value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{}
		if err := putBool(body, "enabled", setEnabled); err != nil {
			return err
		}
		if err := putBool(body, "requireConsent", setConsent); err != nil {
			return err
		}
		if err := putBool(body, "allowClipboard", setClipboard); err != nil {
			return err
		}
		if err := putBool(body, "allowFileTransfer", setFileTransfer); err != nil {
			return err
		}
		if cmd.Flags().Changed("idle-timeout") {
			body["idleTimeoutMinutes"] = setIdleTimeout
		}
		if cmd.Flags().Changed("allowed-roles") {
			body["allowedRoles"] = setAllowedRoles
		}
		if len(body) == 0 {
			return fmt.Errorf("nothing to update: pass at least one field flag")
		}

		client := newClient()
		var p brokerPolicy
		if err := client.patchJSON("/api/v1/policy", body, &p); err != nil {
			return fmt.Errorf("failed to update policy: %w", err)
		}
		return printPolicy(p)
	},
}

// putBool parses a tri-state flag value ("", "true", "false") into the
// request body.
func putBool(body map[string]any, key, value string) error {
	if value == "" {
		return nil
	}
	switch strings.ToLower(value) {
	case "true":
		body[key] = true
	case "false":
		body[key] = false
	default:
		return fmt.Errorf("invalid value %q for %s: use true or false", value, key)
	}
	return nil
}

func printPolicy(p brokerPolicy) error {
	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(p)
	}

	rows := [][]string{
		{"Org", p.OrgID},
		{"Enabled", fmt.Sprintf("%t", p.Enabled)},
		{"Require consent", fmt.Sprintf("%t", p.RequireConsent)},
		{"Idle timeout", fmt.Sprintf("%dm", p.IdleTimeoutMinutes)},
		{"Clipboard", fmt.Sprintf("%t", p.AllowClipboard)},
		{"File transfer", fmt.Sprintf("%t", p.AllowFileTransfer)},
		{"Allowed roles", strings.Join(p.AllowedRoles, ", ")},
	}
	if p.UpdatedBy != "" {
		rows = append(rows, []string{"Updated by", p.UpdatedBy})
	}
	if p.UpdatedAt != "" {
		rows = append(rows, []string{"Updated at", p.UpdatedAt})
	}
	printTable([]string{"Field", "Value"}, rows)
	return nil
}

func init() {
	policySetCmd.Flags().StringVar(&setEnabled, "enabled", "", "Enable or disable remote control (true/false)")
	policySetCmd.Flags().StringVar(&setConsent, "require-consent", "", "Require asset-side consent (true/false)")
	policySetCmd.Flags().StringVar(&setClipboard, "allow-clipboard", "", "Allow clipboard sharing (true/false)")
	policySetCmd.Flags().StringVar(&setFileTransfer, "allow-file-transfer", "", "Allow file transfer (true/false)")
	policySetCmd.Flags().IntVar(&setIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes")
	policySetCmd.Flags().StringSliceVar(&setAllowedRoles, "allowed-roles", nil, "Roles allowed to start sessions")

	policyCmd.AddCommand(policyGetCmd)
	policyCmd.AddCommand(policySetCmd)
}
