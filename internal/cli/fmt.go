package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/druidkit/internal/ingest"
	"github.com/roach88/druidkit/internal/query"
)

// Document kinds accepted by fmt.
const (
	KindQuery = "query"
	KindTask  = "task"
)

// FmtOptions holds flags for the fmt command.
type FmtOptions struct {
	*RootOptions
	Kind  string
	Check bool
}

// NewFmtCommand creates the fmt command.
func NewFmtCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FmtOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Validate and canonicalize a native query or task spec",
		Long: `Decode a native query or ingestion task spec and print its canonical
wire form: keys sorted, shorthand forms preserved, no HTML escaping.

Reads stdin when the file is omitted or "-". With --check nothing is printed
and the command fails when the input is not already canonical.

Example:
  druidkit fmt query.json
  druidkit fmt --kind task --check index.json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", KindQuery, "document kind (query|task)")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "fail if the input is not canonical")

	return cmd
}

func runFmt(opts *FmtOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return failCode(formatter, ExitCommandError, ErrCodeReadFailed, err.Error())
	}

	canonical, err := canonicalize(opts.Kind, data)
	if err != nil {
		return fail(formatter, "decode "+opts.Kind, err)
	}

	if opts.Check {
		if !bytes.Equal(bytes.TrimSpace(data), canonical) {
			return failCode(formatter, ExitFailure, ErrCodeGeneric, "input is not canonical")
		}
		return formatter.Success("canonical")
	}
	return formatter.Success(json.RawMessage(canonical))
}

// canonicalize decodes data as kind and re-encodes it.
func canonicalize(kind string, data []byte) ([]byte, error) {
	switch kind {
	case KindQuery:
		q, err := query.Decode(data)
		if err != nil {
			return nil, err
		}
		return query.Encode(q)
	case KindTask:
		t, err := ingest.Decode(data)
		if err != nil {
			return nil, err
		}
		return ingest.Encode(t)
	default:
		return nil, fmt.Errorf("unknown kind %q: must be %s or %s", kind, KindQuery, KindTask)
	}
}

// readInput reads the file named by args[0], or stdin when there is none
// or it is "-".
func readInput(args []string, stdin io.Reader) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return data, nil
}
