// Package config loads agent configuration from the environment and from
// the grantor profile file. Environment variables win over the profile.
package config

import (
	"fmt"
	"os"
	"time"
)

// Governance cadences and thresholds. These mirror the grantor's contract;
// the env overrides exist for tests and staging.
const (
	DefaultPollInterval    = 5 * time.Second
	DefaultCaptureInterval = 3 * time.Second
	DefaultTickInterval    = time.Second
	DefaultUrgentThreshold = 120 * time.Second
	DefaultExpiryGrace     = 2 * time.Second
	DefaultFrameLimit      = 250_000 // max base64 characters per frame
	DefaultCaptureQuality  = 40      // JPEG quality factor
	DefaultCaptureScale    = 2       // resolution divisor: half resolution
)

type Config struct {
	APIURL  string // WARDEN_API_URL (required unless a profile is active)
	NATSURL string // WARDEN_NATS_URL (optional, empty = no events)

	StateDir string // WARDEN_STATE_DIR (default ~/.local/state/warden)

	PollInterval    time.Duration // WARDEN_POLL_INTERVAL (default 5s)
	CaptureInterval time.Duration // WARDEN_CAPTURE_INTERVAL (default 3s)
	TickInterval    time.Duration // WARDEN_TICK_INTERVAL (default 1s)

	UrgentThreshold time.Duration // WARDEN_URGENT_THRESHOLD (default 120s)
	ExpiryGrace     time.Duration // WARDEN_EXPIRY_GRACE (default 2s)

	FrameLimit     int // admission threshold, base64 characters
	CaptureQuality int // JPEG quality
	CaptureScale   int // resolution divisor
}

func Load() (*Config, error) {
	c := &Config{
		APIURL:         os.Getenv("WARDEN_API_URL"),
		NATSURL:        os.Getenv("WARDEN_NATS_URL"),
		StateDir:       os.Getenv("WARDEN_STATE_DIR"),
		FrameLimit:     DefaultFrameLimit,
		CaptureQuality: DefaultCaptureQuality,
		CaptureScale:   DefaultCaptureScale,
	}

	// Fall back to the active grantor profile for addresses.
	if c.APIURL == "" || c.NATSURL == "" {
		if p, err := ActiveProfile(); err == nil && p != nil {
			if c.APIURL == "" {
				c.APIURL = p.URL
			}
			if c.NATSURL == "" {
				c.NATSURL = p.NATSURL
			}
		}
	}

	var err error
	if c.PollInterval, err = envDuration("WARDEN_POLL_INTERVAL", DefaultPollInterval); err != nil {
		return nil, err
	}
	if c.CaptureInterval, err = envDuration("WARDEN_CAPTURE_INTERVAL", DefaultCaptureInterval); err != nil {
		return nil, err
	}
	if c.TickInterval, err = envDuration("WARDEN_TICK_INTERVAL", DefaultTickInterval); err != nil {
		return nil, err
	}
	if c.UrgentThreshold, err = envDuration("WARDEN_URGENT_THRESHOLD", DefaultUrgentThreshold); err != nil {
		return nil, err
	}
	if c.ExpiryGrace, err = envDuration("WARDEN_EXPIRY_GRACE", DefaultExpiryGrace); err != nil {
		return nil, err
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
