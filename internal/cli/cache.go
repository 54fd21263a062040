package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCacheCommand creates the cache command.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local result cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:           "purge",
		Short:         "Delete every cached query result",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCachePurge(rootOpts, cmd)
		},
	})
	return cmd
}

func runCachePurge(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	settings, err := resolveSettings(opts)
	if err != nil {
		return failCode(formatter, ExitCommandError, ErrCodeConfig, err.Error())
	}
	if settings.Cache == "" {
		return failCode(formatter, ExitCommandError, ErrCodeCache, "no cache configured (use --cache or the profile's cache)")
	}
	s, err := opts.openCache(settings)
	if err != nil {
		return failCode(formatter, ExitCommandError, ErrCodeCache, err.Error())
	}
	defer s.Close()

	n, err := s.Purge(cmd.Context())
	if err != nil {
		return failCode(formatter, ExitCommandError, ErrCodeCache, err.Error())
	}
	if formatter.Format == "json" {
		return formatter.Success(map[string]int64{"purged": n})
	}
	return formatter.Success(fmt.Sprintf("Purged %d cached result(s)", n))
}
