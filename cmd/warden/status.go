package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaultoo/warden/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored grant and the grantor's view of it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := store.Load()
		if err != nil {
			return err
		}
		if rec == nil {
			if jsonOutput {
				fmt.Println(`{"governed": false}`)
				return nil
			}
			fmt.Println("No active grant.")
			return nil
		}

		resp, err := grantorClient.SessionStatus(context.Background(), rec.Token)
		if err != nil {
			// The local record stands; the grantor's view is simply unknown.
			fmt.Fprintf(os.Stderr, "Warning: grantor unreachable: %v\n", err)
		}

		if jsonOutput {
			printStatusJSON(rec, resp)
			return nil
		}

		fmt.Printf("Owner:     %s\n", rec.Owner)
		if rec.RequesterName != "" {
			fmt.Printf("Requester: %s\n", rec.RequesterName)
		}
		if name := rec.DisplayName(); name != "" {
			fmt.Printf("Grantee:   %s\n", name)
		}
		fmt.Printf("Expires:   %s\n", rec.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Remaining: %s\n", ui.FormatCountdown(rec.Remaining(time.Now())))
		switch {
		case resp == nil:
			fmt.Println("Grantor:   unreachable")
		case resp.Active:
			fmt.Println("Grantor:   active")
		default:
			reason := resp.Reason
			if reason == "" {
				reason = "inactive"
			}
			fmt.Printf("Grantor:   ended (%s)\n", reason)
		}
		return nil
	},
}
