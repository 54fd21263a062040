package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Environment variables read by the CLI.
const (
	EnvURL    = "DRUIDKIT_URL"
	EnvConfig = "DRUIDKIT_CONFIG"
)

// DefaultURL is the router address used when nothing else is configured.
const DefaultURL = "http://localhost:8888"

// UserConfig represents ~/.druidkit/config.yaml.
type UserConfig struct {
	CurrentProfile string             `yaml:"current-profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile represents a single named engine configuration.
type Profile struct {
	URL         string `yaml:"url,omitempty"`
	Timeout     string `yaml:"timeout,omitempty"`       // Go duration, e.g. "45s"
	Cache       string `yaml:"cache,omitempty"`         // SQLite result cache path
	CacheMaxAge string `yaml:"cache-max-age,omitempty"` // Go duration; empty keeps entries forever
}

// ActiveProfile returns the profile named by override, or the current
// profile when override is empty. An unknown override is an error; an unset
// current profile is not.
func (c *UserConfig) ActiveProfile(override string) (Profile, error) {
	name := c.CurrentProfile
	if override != "" {
		name = override
	}
	if p, ok := c.Profiles[name]; ok {
		return p, nil
	}
	if override != "" {
		return Profile{}, fmt.Errorf("profile %q not found", override)
	}
	return Profile{}, nil
}

// ConfigPath returns $DRUIDKIT_CONFIG, or ~/.druidkit/config.yaml.
func ConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".druidkit", "config.yaml")
}

// LoadUserConfig reads the config file at path. A missing file yields an
// empty config.
func LoadUserConfig(path string) (*UserConfig, error) {
	cfg := &UserConfig{Profiles: map[string]Profile{}}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return cfg, nil
}

// Settings is the effective configuration of one invocation.
type Settings struct {
	Profile     string        `yaml:"profile,omitempty" json:"profile,omitempty"`
	URL         string        `yaml:"url" json:"url"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	Cache       string        `yaml:"cache,omitempty" json:"cache,omitempty"`
	CacheMaxAge time.Duration `yaml:"cache-max-age,omitempty" json:"cache_max_age,omitempty"`
}

// resolveSettings layers flags over the environment over the profile over
// defaults.
func resolveSettings(opts *RootOptions) (Settings, error) {
	path := opts.Config
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := LoadUserConfig(path)
	if err != nil {
		return Settings{}, err
	}
	p, err := cfg.ActiveProfile(opts.Profile)
	if err != nil {
		return Settings{}, err
	}

	s := Settings{Profile: opts.Profile, URL: DefaultURL, Cache: p.Cache}
	if s.Profile == "" {
		s.Profile = cfg.CurrentProfile
	}
	if p.URL != "" {
		s.URL = p.URL
	}
	if env := os.Getenv(EnvURL); env != "" {
		s.URL = env
	}
	if opts.URL != "" {
		s.URL = opts.URL
	}

	if p.Timeout != "" {
		if s.Timeout, err = time.ParseDuration(p.Timeout); err != nil {
			return Settings{}, fmt.Errorf("profile timeout: %w", err)
		}
	}
	if opts.Timeout != 0 {
		s.Timeout = opts.Timeout
	}

	if p.CacheMaxAge != "" {
		if s.CacheMaxAge, err = time.ParseDuration(p.CacheMaxAge); err != nil {
			return Settings{}, fmt.Errorf("profile cache-max-age: %w", err)
		}
	}
	if opts.Cache != "" {
		s.Cache = opts.Cache
	}
	return s, nil
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect CLI configuration profiles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:           "show",
		Short:         "Display the effective settings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := rootOpts.formatter(cmd)
			s, err := resolveSettings(rootOpts)
			if err != nil {
				return failCode(formatter, ExitCommandError, ErrCodeConfig, err.Error())
			}
			if formatter.Format == "json" {
				return formatter.Success(s)
			}
			data, err := yaml.Marshal(s)
			if err != nil {
				return fmt.Errorf("marshal settings: %w", err)
			}
			_, _ = fmt.Fprint(formatter.Writer, string(data))
			return nil
		},
	})
	return cmd
}
