package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultoo/warden/internal/agent"
)

var endCmd = &cobra.Command{
	Use:   "end",
	Short: "End the session and clear the stored grant",
	Long: `Tell the grantor the session is over and remove the local record.
The grantor call is best-effort: the record clears either way.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		if reason == "" {
			reason = agent.ReasonUserEnded
		}

		rec, err := store.Load()
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Println("No active grant.")
			return nil
		}

		if err := grantorClient.EndSession(context.Background(), rec.Token, reason); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: grantor not notified: %v\n", err)
		}
		if err := store.Clear(); err != nil {
			return err
		}
		if err := store.ClearUser(); err != nil {
			return err
		}

		fmt.Println("Session ended.")
		return nil
	},
}

func init() {
	endCmd.Flags().String("reason", "", "reason reported to the grantor (default USER_ENDED)")
}
