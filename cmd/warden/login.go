package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultoo/warden/internal/client"
)

var loginCmd = &cobra.Command{
	Use:   "login <otp>",
	Short: "Exchange a one-time code for a session grant",
	Long: `Verify the six-digit code the session owner shared and store the
resulting grant. The grant is not governed until "warden run" starts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		otp := args[0]
		account, _ := cmd.Flags().GetString("account")

		if !validOTP(otp) {
			fmt.Fprintln(os.Stderr, "Error: the code must be exactly 6 digits")
			os.Exit(1)
		}

		sess, err := grantorClient.VerifyOTP(context.Background(), otp, account)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				fmt.Fprintf(os.Stderr, "Error: verification rejected: %s\n", apiErr.Message)
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}

		if err := store.Save(sess); err != nil {
			return fmt.Errorf("persist grant: %w", err)
		}

		if jsonOutput {
			printSessionJSON(sess)
			return nil
		}
		fmt.Printf("Access granted by %s until %s\n",
			sess.Owner, sess.ExpiresAt.Local().Format("15:04:05"))
		fmt.Println("Run \"warden run\" to start the governed session.")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("account", "", "account identifier the code was issued for")
}

func validOTP(otp string) bool {
	if len(otp) != 6 {
		return false
	}
	for _, r := range otp {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
