package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProfilesConfig holds all named grantor profiles and tracks which one is
// active. A profile names the grantor API endpoint the agent reports to,
// plus an optional NATS URL for the local event bus.
type ProfilesConfig struct {
	Active   string             `toml:"active"`
	Grantors map[string]Grantor `toml:"grantors"`
}

// Grantor is a named grantor endpoint profile.
type Grantor struct {
	URL     string `toml:"url"`
	NATSURL string `toml:"nats_url,omitempty"`
}

func profilePath() (string, error) {
	if p := os.Getenv("WARDEN_PROFILE_FILE"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "warden")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, envOrDefault("WARDEN_PROFILE_NAME", "grantors.toml")), nil
}

// LoadProfiles reads the profile file, returning an empty config when the
// file does not exist yet.
func LoadProfiles() (ProfilesConfig, error) {
	path, err := profilePath()
	if err != nil {
		return ProfilesConfig{}, err
	}
	var cfg ProfilesConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return ProfilesConfig{Grantors: map[string]Grantor{}}, nil
		}
		return ProfilesConfig{}, err
	}
	if cfg.Grantors == nil {
		cfg.Grantors = map[string]Grantor{}
	}
	return cfg, nil
}

// SaveProfiles writes the profile file with owner-only permissions.
func SaveProfiles(cfg ProfilesConfig) error {
	path, err := profilePath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// ActiveProfile returns the currently selected grantor, or nil when no
// profile is active.
func ActiveProfile() (*Grantor, error) {
	cfg, err := LoadProfiles()
	if err != nil {
		return nil, err
	}
	if cfg.Active == "" {
		return nil, nil
	}
	g, ok := cfg.Grantors[cfg.Active]
	if !ok {
		return nil, fmt.Errorf("active grantor %q not found in profile file", cfg.Active)
	}
	return &g, nil
}
