package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultoo/warden/internal/client"
	"github.com/vaultoo/warden/internal/config"
	"github.com/vaultoo/warden/internal/events"
	"github.com/vaultoo/warden/internal/session"
	"github.com/vaultoo/warden/internal/ui"
)

var (
	apiURL     string
	natsURL    string
	stateDir   string
	jsonOutput bool
	verbose    bool

	cfg           *config.Config
	grantorClient client.GrantorClient
	store         session.Store
	publisher     events.Publisher
)

var rootCmd = &cobra.Command{
	Use:   "warden <command>",
	Short: "Session governance agent for owner-granted, time-boxed access",
	Long: `warden governs a time-boxed access session granted by a remote owner:
it keeps the countdown, reconciles with the grantor every few seconds,
streams capture frames while the session runs, and tears everything down
when time runs out or the owner revokes access.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if apiURL != "" {
			cfg.APIURL = apiURL
		}
		if natsURL != "" {
			cfg.NATSURL = natsURL
		}
		if stateDir != "" {
			cfg.StateDir = stateDir
		}
		if cfg.APIURL == "" {
			return fmt.Errorf("no grantor address: set --api-url, WARDEN_API_URL, or an active grantor profile")
		}

		dir := cfg.StateDir
		if dir == "" {
			if dir, err = session.DefaultStateDir(); err != nil {
				return err
			}
		}
		if store, err = session.NewFileStore(dir); err != nil {
			return err
		}

		grantorClient = client.NewHTTPClient(cfg.APIURL)

		publisher = &events.NoopPublisher{}
		if cfg.NATSURL != "" {
			p, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				slog.Warn("event bus unavailable, continuing without events", "error", err)
			} else {
				publisher = p
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if grantorClient != nil {
			grantorClient.Close()
		}
		if publisher != nil {
			publisher.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "grantor API base URL (default from WARDEN_API_URL or the active profile)")
	rootCmd.PersistentFlags().StringVar(&natsURL, "nats-url", "", "NATS URL for lifecycle events (optional)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "state directory (default ~/.local/state/warden)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(extendCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(grantorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
