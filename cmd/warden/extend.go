package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultoo/warden/internal/session"
)

var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Ask the session owner for more time",
	Long: `Deliver an extension request to the session owner. Approval is
asynchronous: the extra time shows up through the status reconciler once
the owner grants it. This command never changes the local expiry.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, _ := cmd.Flags().GetInt("minutes")
		reason, _ := cmd.Flags().GetString("reason")

		if !session.ValidExtensionMinutes(minutes) {
			fmt.Fprintf(os.Stderr, "Error: --minutes must be between %d and %d\n",
				session.MinExtensionMinutes, session.MaxExtensionMinutes)
			os.Exit(1)
		}

		rec, err := store.Load()
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Fprintln(os.Stderr, "Error: no active grant")
			os.Exit(1)
		}

		if reason == "" {
			reason = fmt.Sprintf("Requesting %d more minutes", minutes)
		}
		resp, err := grantorClient.RequestExtension(context.Background(), rec.Token, minutes, reason)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not deliver the request: %v\n", err)
			os.Exit(1)
		}
		if !resp.Success {
			msg := resp.Message
			if msg == "" {
				msg = "request was not accepted"
			}
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
			os.Exit(1)
		}

		fmt.Println("Extension requested. Waiting for the session owner to approve.")
		return nil
	},
}

func init() {
	extendCmd.Flags().Int("minutes", 30, "minutes to request")
	extendCmd.Flags().String("reason", "", "why more time is needed")
}
