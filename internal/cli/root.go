package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/druidkit/internal/client"
	"github.com/roach88/druidkit/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	URL     string
	Profile string
	Config  string // config file path, default ConfigPath()
	Cache   string // SQLite result cache path, empty disables the cache
	Timeout time.Duration

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the druidkit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "druidkit",
		Short: "druidkit - typed client for the Druid query protocol",
		Long: `Build, canonicalize and run native queries, SQL and ingestion tasks.

Funnel definitions written in CUE compile to a single groupBy query over
theta sketches; results decode into typed rows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			logLevel := slog.LevelWarn
			if opts.Verbose {
				logLevel = slog.LevelDebug
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: logLevel,
			})
			opts.logger = slog.New(handler)
			slog.SetDefault(opts.logger)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.URL, "url", "", "engine router URL (overrides $"+EnvURL+" and the profile)")
	cmd.PersistentFlags().StringVar(&opts.Profile, "profile", "", "config profile name")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file path (default ~/.druidkit/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Cache, "cache", "", "SQLite result cache path")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 0, "HTTP timeout per request")

	// Add subcommands
	cmd.AddCommand(NewFunnelCommand(opts))
	cmd.AddCommand(NewFmtCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))
	cmd.AddCommand(NewTaskCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  o.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: o.Verbose,
	}
}

func (o *RootOptions) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}

// openCache opens the configured result cache, or returns nil when none is
// configured.
func (o *RootOptions) openCache(s Settings) (*store.Store, error) {
	if s.Cache == "" {
		return nil, nil
	}
	var opts []store.Option
	if s.CacheMaxAge > 0 {
		opts = append(opts, store.WithMaxAge(s.CacheMaxAge))
	}
	o.log().Debug("opening result cache", "path", s.Cache)
	return store.Open(s.Cache, opts...)
}

// session is one command's view of the engine.
type session struct {
	client *client.Client
	cache  *store.Store
}

func (s *session) Close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
}

// openSession resolves settings and connects the client and cache.
func (o *RootOptions) openSession(f *OutputFormatter, useCache bool) (*session, error) {
	settings, err := resolveSettings(o)
	if err != nil {
		return nil, failCode(f, ExitCommandError, ErrCodeConfig, err.Error())
	}
	o.log().Debug("engine", "url", settings.URL, "profile", settings.Profile)

	s := &session{}
	if useCache {
		if s.cache, err = o.openCache(settings); err != nil {
			return nil, failCode(f, ExitCommandError, ErrCodeCache, err.Error())
		}
	}
	tr := client.NewHTTPTransport(client.HTTPConfig{BaseURL: settings.URL, Timeout: settings.Timeout})
	copts := []client.Option{client.WithLogger(o.log())}
	if s.cache != nil {
		copts = append(copts, client.WithCache(s.cache))
	}
	s.client = client.New(tr, copts...)
	return s, nil
}
