package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var consentDecidedBy string

var consentCmd = &cobra.Command{
	Use:   "consent",
	Short: "Record asset-side consent decisions",
}

var consentGrantCmd = &cobra.Command{
	Use:   "grant <session-id>",
	Short: "Grant consent for a pending session",
	Args:  cobra.ExactArgs(1),
	RunE:  runConsent("grant"),
}

var consentDenyCmd = &cobra.Command{
	Use:   "deny <session-id>",
	Short: "Deny consent for a pending session",
	Args:  cobra.ExactArgs(1),
	RunE:  runConsent("deny"),
}

func runConsent(decision string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var body map[string]string
		if consentDecidedBy != "" {
			body = map[string]string{"decidedBy": consentDecidedBy}
		}

		var s session
		path := fmt.Sprintf("/api/v1/sessions/%s/consent/%s", args[0], decision)
		if err := client.postJSON(path, body, &s); err != nil {
			return fmt.Errorf("failed to %s consent: %w", decision, err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(s)
		}

		fmt.Printf("Session %s is now %s\n", s.ID, s.Status)
		return nil
	}
}

func init() {
	consentCmd.PersistentFlags().StringVar(&consentDecidedBy, "decided-by", "", "Who made the decision (default: caller identity)")

	consentCmd.AddCommand(consentGrantCmd)
	consentCmd.AddCommand(consentDenyCmd)
}
