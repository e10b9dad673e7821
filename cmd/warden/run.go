package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vaultoo/warden/internal/agent"
	"github.com/vaultoo/warden/internal/capture"
	"github.com/vaultoo/warden/internal/idgen"
	"github.com/vaultoo/warden/internal/session"
	"github.com/vaultoo/warden/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the governed session and hold it until it ends",
	Long: `Resume the stored grant (or the one "warden login" just saved) and
govern it: countdown, status reconciliation, frame capture, and the
teardown cascade. Blocks until the session ends, whichever side ends it.
Ctrl-C ends the session cleanly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		userName, _ := cmd.Flags().GetString("user")
		userEmail, _ := cmd.Flags().GetString("email")
		userRole, _ := cmd.Flags().GetString("role")
		grantTTL, _ := cmd.Flags().GetDuration("grant-ttl")
		noCapture, _ := cmd.Flags().GetBool("no-capture")

		// Redirect-style handoff: a token delivered out of band becomes the
		// grant directly, no OTP exchange. The expiry is provisional; the
		// first reconciler poll adopts the grantor's authoritative one.
		if token != "" {
			rec := &session.Session{
				Token: token,
				Credentials: session.Credentials{
					Username: userName,
					Email:    userEmail,
					Role:     session.MapRole(userRole),
				},
				ExpiresAt: time.Now().Add(grantTTL),
			}
			if err := store.Save(rec); err != nil {
				return fmt.Errorf("persist grant: %w", err)
			}
		}

		// The grant names who may work; the paired app identity signs in
		// automatically under the mapped role.
		if userName != "" {
			id, err := idgen.GenerateWithPrefix("app-")
			if err != nil {
				return err
			}
			u := &session.User{
				Name:         userName,
				Email:        userEmail,
				Role:         session.MapRole(userRole),
				AppSessionID: id,
			}
			if err := store.SaveUser(u); err != nil {
				return fmt.Errorf("persist user: %w", err)
			}
		}

		var bar *ui.Bar
		isTTY := term.IsTerminal(int(os.Stdout.Fd()))
		if isTTY {
			rec, _ := store.Load()
			owner := ""
			if rec != nil {
				owner = rec.Owner
			}
			bar = ui.NewBar(os.Stdout, owner)
		}

		var ackReader io.Reader
		if isTTY {
			ackReader = os.Stdin
		}
		notifier := ui.NewTerminalNotifier(os.Stdout, ackReader)

		var source capture.Source
		if !noCapture {
			source = capture.NewViewportRenderer(0, 0, sessionSummaryLines)
		}

		mgr := agent.NewManager(agent.Options{
			Store:     store,
			Client:    grantorClient,
			Config:    cfg,
			Publisher: publisher,
			Notifier:  notifier,
			Bar:       bar,
			Source:    source,
		})

		resumed, err := mgr.Resume(context.Background())
		if err != nil {
			return err
		}
		if !resumed {
			fmt.Fprintln(os.Stderr, "No active grant. Run \"warden login <otp>\" first.")
			os.Exit(1)
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigs
			mgr.Terminate(agent.ReasonUserEnded)
		}()

		mgr.Wait()
		mgr.Activity().Flush()
		return nil
	},
}

func init() {
	runCmd.Flags().String("token", "", "session token delivered out of band (skips OTP login)")
	runCmd.Flags().Duration("grant-ttl", 30*time.Minute, "provisional expiry for --token grants")
	runCmd.Flags().String("user", "", "display name for the paired app identity")
	runCmd.Flags().String("email", "", "email for the paired app identity")
	runCmd.Flags().String("role", "", "requested role, mapped to an app role (default general)")
	runCmd.Flags().Bool("no-capture", false, "disable the frame capture pipeline")
}

// sessionSummaryLines feeds the viewport renderer: what a capture frame of
// this agent shows.
func sessionSummaryLines() []string {
	rec, err := store.Load()
	if err != nil || rec == nil {
		return []string{"warden", "no governed session"}
	}
	return []string{
		"warden",
		"owner: " + rec.Owner,
		"grantee: " + rec.DisplayName(),
		"expires: " + rec.ExpiresAt.Local().Format("15:04:05"),
	}
}
