package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/result"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	NoCache bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [file]",
		Short: "Run a native query",
		Long: `Decode a native query, send it to the engine and print the typed result
in its cached form: {"rows":[...],"type":<queryType>}.

The query is validated locally first. A query without a queryId in its
context gets a generated one.

Example:
  druidkit query --url http://localhost:8888 topn.json
  druidkit query --cache ~/.druidkit/cache.db timeseries.json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "bypass the result cache")

	return cmd
}

func runQuery(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return failCode(formatter, ExitCommandError, ErrCodeReadFailed, err.Error())
	}
	q, err := query.Decode(data)
	if err != nil {
		return fail(formatter, "decode query", err)
	}

	sess, err := opts.openSession(formatter, !opts.NoCache)
	if err != nil {
		return err
	}
	defer sess.Close()

	res, err := sess.client.Query(cmd.Context(), q)
	if err != nil {
		return fail(formatter, "query failed", err)
	}
	out, err := result.Encode(res)
	if err != nil {
		return fail(formatter, "encode result", err)
	}
	return formatter.Query(q.QueryContext().QueryID, json.RawMessage(out))
}
