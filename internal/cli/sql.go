package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/druidkit/internal/sqlapi"
	"github.com/roach88/druidkit/internal/wire"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*RootOptions
	Args []string
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <statement>",
		Short: "Run a parameterized SQL statement",
		Long: `Send a SQL statement to the engine's SQL endpoint and print each result
row as canonical JSON, one per line.

Each --arg binds the next '?' placeholder. Prefix the value with its SQL
type; values without a prefix bind as VARCHAR:

  varchar:<text>  bigint:<int>  double:<number>  boolean:<bool>
  timestamp:<RFC 3339>

Example:
  druidkit sql 'SELECT page FROM wikipedia WHERE channel = ? LIMIT ?' \
    --arg '#en.wikipedia' --arg bigint:10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Args, "arg", "a", nil, "placeholder value, optionally type-prefixed")

	return cmd
}

func runSQL(opts *SQLOptions, statement string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	values := make([]any, len(opts.Args))
	for i, raw := range opts.Args {
		v, err := parseArg(raw)
		if err != nil {
			return failCode(formatter, ExitCommandError, ErrCodeGeneric, fmt.Sprintf("--arg %d: %v", i+1, err))
		}
		values[i] = v
	}
	req, err := sqlapi.NewRequest(statement, values...)
	if err != nil {
		return failCode(formatter, ExitCommandError, ErrCodeGeneric, err.Error())
	}

	sess, err := opts.openSession(formatter, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	rows, err := sess.client.SQL(cmd.Context(), req)
	if err != nil {
		return fail(formatter, "sql failed", err)
	}

	if formatter.Format == "json" {
		data, err := wire.Marshal(rows)
		if err != nil {
			return fail(formatter, "encode rows", err)
		}
		return formatter.Success(json.RawMessage(data))
	}
	for _, row := range rows {
		data, err := wire.Marshal(row)
		if err != nil {
			return fail(formatter, "encode row", err)
		}
		fmt.Fprintln(formatter.Writer, string(data))
	}
	return nil
}

// parseArg converts a "type:value" flag into a Go value sqlapi.Param
// accepts. DOUBLE keeps the literal digits through decimal.Decimal.
func parseArg(raw string) (any, error) {
	kind, text, ok := strings.Cut(raw, ":")
	if !ok {
		return raw, nil
	}
	switch strings.ToLower(kind) {
	case "varchar":
		return text, nil
	case "bigint":
		return strconv.ParseInt(text, 10, 64)
	case "double":
		return decimal.NewFromString(text)
	case "boolean":
		return strconv.ParseBool(text)
	case "timestamp":
		return time.Parse(time.RFC3339Nano, text)
	default:
		return raw, nil
	}
}
