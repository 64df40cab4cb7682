package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

type auditEntry struct {
	ID             string `json:"id"`
	SessionID      string `json:"sessionId"`
	AssetID        string `json:"assetId,omitempty"`
	OperatorUserID string `json:"operatorUserId,omitempty"`
	Action         string `json:"action"`
	Details        string `json:"details,omitempty"`
	IPAddress      string `json:"ipAddress,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

type auditList struct {
	Entries       []auditEntry `json:"entries"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
	TotalSize     int          `json:"totalSize"`
}

var (
	auditAction    string
	auditSession   string
	auditPageSize  int
	auditPageToken string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the session audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		path := "/api/v1/audit"
		if auditSession != "" {
			path = "/api/v1/sessions/" + auditSession + "/audit"
		} else {
			q := url.Values{}
			if auditAction != "" {
				q.Set("action", auditAction)
			}
			if auditPageSize > 0 {
				q.Set("pageSize", fmt.Sprintf("%d", auditPageSize))
			}
			if auditPageToken != "" {
				q.Set("pageToken", auditPageToken)
			}
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
		}

		var resp auditList
		if err := client.getJSON(path, &resp); err != nil {
			return fmt.Errorf("failed to query audit trail: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(resp)
		}

		headers := []string{"Time", "Action", "Session", "Asset", "Operator", "Details"}
		rows := make([][]string, 0, len(resp.Entries))
		for _, e := range resp.Entries {
			rows = append(rows, []string{
				e.CreatedAt, e.Action, truncate(e.SessionID, 36),
				e.AssetID, e.OperatorUserID, truncate(e.Details, 40),
			})
		}
		printTable(headers, rows)

		if resp.NextPageToken != "" {
			fmt.Printf("\nNext page: --page-token %s\n", resp.NextPageToken)
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditAction, "action", "", "Filter by action (session_start, session_end, ...)")
	auditCmd.Flags().StringVar(&auditSession, "session", "", "Show the full history of one session")
	auditCmd.Flags().IntVar(&auditPageSize, "page-size", 0, "Maximum entries per page")
	auditCmd.Flags().StringVar(&auditPageToken, "page-token", "", "Continuation token from a previous page")
}
