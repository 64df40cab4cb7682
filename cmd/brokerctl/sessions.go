package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

type session struct {
	ID              string `json:"id"`
	AssetID         string `json:"assetId"`
	OrgID           string `json:"orgId"`
	OperatorUserID  string `json:"operatorUserId"`
	OperatorName    string `json:"operatorName,omitempty"`
	Status          string `json:"status"`
	StartedAt       string `json:"startedAt"`
	EndedAt         string `json:"endedAt,omitempty"`
	DurationSeconds *int64 `json:"durationSeconds,omitempty"`
	ConsentRequired bool   `json:"consentRequired"`
	ConsentGranted  *bool  `json:"consentGranted,omitempty"`
	ConsentBy       string `json:"consentBy,omitempty"`
}

type sessionList struct {
	Sessions      []session `json:"sessions"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
	TotalSize     int       `json:"totalSize"`
}

var (
	listStatus    string
	listAsset     string
	listOperator  string
	listPageSize  int
	listPageToken string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage remote-control sessions",
}

var sessionsStartCmd = &cobra.Command{
	Use:   "start <asset-id>",
	Short: "Start a session against an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var resp struct {
			Session session `json:"session"`
			Token   string  `json:"token"`
		}
		body := map[string]string{"assetId": args[0]}
		if err := client.postJSON("/api/v1/sessions", body, &resp); err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(resp)
		}

		fmt.Printf("Session %s is %s\n", resp.Session.ID, resp.Session.Status)
		if resp.Session.ConsentRequired && resp.Session.Status == "pending" {
			fmt.Println("Waiting for asset-side consent.")
		}
		fmt.Printf("Token: %s\n", resp.Token)
		return nil
	},
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions for the organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		q := url.Values{}
		if listStatus != "" {
			q.Set("status", listStatus)
		}
		if listAsset != "" {
			q.Set("asset", listAsset)
		}
		if listOperator != "" {
			q.Set("operator", listOperator)
		}
		if listPageSize > 0 {
			q.Set("pageSize", fmt.Sprintf("%d", listPageSize))
		}
		if listPageToken != "" {
			q.Set("pageToken", listPageToken)
		}
		path := "/api/v1/sessions"
		if len(q) > 0 {
			path += "?" + q.Encode()
		}

		var resp sessionList
		if err := client.getJSON(path, &resp); err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(resp)
		}

		headers := []string{"ID", "Asset", "Operator", "Status", "Started", "Duration"}
		rows := make([][]string, 0, len(resp.Sessions))
		for _, s := range resp.Sessions {
			duration := ""
			if s.DurationSeconds != nil {
				duration = fmt.Sprintf("%ds", *s.DurationSeconds)
			}
			rows = append(rows, []string{
				truncate(s.ID, 36), s.AssetID, s.OperatorUserID,
				s.Status, s.StartedAt, duration,
			})
		}
		printTable(headers, rows)

		if resp.NextPageToken != "" {
			fmt.Printf("\nNext page: --page-token %s\n", resp.NextPageToken)
		}
		return nil
	},
}

var sessionsGetCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Show a single session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var s session
		if err := client.getJSON("/api/v1/sessions/"+args[0], &s); err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(s)
		}

		printSessionDetail(s)
		return nil
	},
}

var sessionsEndCmd = &cobra.Command{
	Use:   "end <session-id>",
	Short: "End a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var s session
		if err := client.postJSON("/api/v1/sessions/"+args[0]+"/end", nil, &s); err != nil {
			return fmt.Errorf("failed to end session: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(s)
		}

		duration := "unknown"
		if s.DurationSeconds != nil {
			duration = fmt.Sprintf("%ds", *s.DurationSeconds)
		}
		fmt.Printf("Session %s ended after %s\n", s.ID, duration)
		return nil
	},
}

func printSessionDetail(s session) {
	rows := [][]string{
		{"ID", s.ID},
		{"Asset", s.AssetID},
		{"Org", s.OrgID},
		{"Operator", s.OperatorUserID},
		{"Status", s.Status},
		{"Started", s.StartedAt},
	}
	if s.EndedAt != "" {
		rows = append(rows, []string{"Ended", s.EndedAt})
	}
	if s.DurationSeconds != nil {
		rows = append(rows, []string{"Duration", fmt.Sprintf("%ds", *s.DurationSeconds)})
	}
	rows = append(rows, []string{"Consent required", fmt.Sprintf("%t", s.ConsentRequired)})
	if s.ConsentGranted != nil {
		rows = append(rows, []string{"Consent granted", fmt.Sprintf("%t", *s.ConsentGranted)})
	}
	if s.ConsentBy != "" {
		rows = append(rows, []string{"Consent by", s.ConsentBy})
	}
	printTable([]string{"Field", "Value"}, rows)
}

func init() {
	sessionsListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (pending, active, ended, failed)")
	sessionsListCmd.Flags().StringVar(&listAsset, "asset", "", "Filter by asset ID")
	sessionsListCmd.Flags().StringVar(&listOperator, "operator", "", "Filter by operator user ID")
	sessionsListCmd.Flags().IntVar(&listPageSize, "page-size", 0, "Maximum sessions per page")
	sessionsListCmd.Flags().StringVar(&listPageToken, "page-token", "", "Continuation token from a previous page")

	sessionsCmd.AddCommand(sessionsStartCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsGetCmd)
	sessionsCmd.AddCommand(sessionsEndCmd)
}
