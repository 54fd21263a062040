package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/druidkit/internal/funnel"
	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/result"
)

// FunnelOptions holds flags for the funnel commands.
type FunnelOptions struct {
	*RootOptions
	Output string // directory for compiled queries
	ID     string // funnel to run
}

// CompiledFunnel is one funnel and its lowered query.
type CompiledFunnel struct {
	ID    string          `json:"id"`
	Steps int             `json:"steps"`
	Query json.RawMessage `json:"query"`
}

// NewFunnelCommand creates the funnel command and its subcommands.
func NewFunnelCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FunnelOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "funnel",
		Short: "Compile and run CUE funnel definitions",
	}

	compile := &cobra.Command{
		Use:   "compile <path>",
		Short: "Compile funnels to groupBy queries",
		Long: `Compile every funnel in a CUE file or directory to its groupBy query.

Funnels are declared under "funnel: <id>: {...}". Each step becomes a
filtered theta sketch; step i is reported as the intersection of steps
0..i.

Example:
  druidkit funnel compile ./funnels
  druidkit funnel compile -o ./out ./funnels/signup.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunnelCompile(opts, args[0], cmd)
		},
	}
	compile.Flags().StringVarP(&opts.Output, "output", "o", "", "write <id>.json per funnel into this directory")

	run := &cobra.Command{
		Use:   "run <path>",
		Short: "Run a funnel and print its step counts",
		Long: `Compile one funnel, run it against the engine and print the number of
entities reaching each step per time bucket.

--id selects the funnel when the path defines more than one.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunnelRun(opts, args[0], cmd)
		},
	}
	run.Flags().StringVar(&opts.ID, "id", "", "funnel id")

	cmd.AddCommand(compile, run)
	return cmd
}

// loadFunnels loads a CUE file or every CUE file of a directory.
func loadFunnels(path string) ([]*funnel.Spec, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &funnel.CompileError{Code: funnel.ErrCodeLoad, Message: "path not found: " + path}
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return funnel.LoadDir(path)
	}
	return funnel.LoadFile(path)
}

func runFunnelCompile(opts *FunnelOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	specs, err := loadFunnels(path)
	if err != nil {
		return fail(formatter, "load funnels", err)
	}
	if len(specs) == 0 {
		return failCode(formatter, ExitCommandError, ErrCodeNoFunnels, "no funnels defined in "+path)
	}
	opts.log().Debug("funnels loaded", "path", path, "count", len(specs))

	compiled := make([]CompiledFunnel, 0, len(specs))
	for _, spec := range specs {
		gb, err := funnel.Compile(spec)
		if err != nil {
			return fail(formatter, "compile funnel "+spec.ID, err)
		}
		data, err := query.Encode(gb)
		if err != nil {
			return fail(formatter, "encode funnel "+spec.ID, err)
		}
		compiled = append(compiled, CompiledFunnel{ID: spec.ID, Steps: len(spec.Steps), Query: data})
	}

	if opts.Output != "" {
		if err := writeFunnels(compiled, opts.Output); err != nil {
			return failCode(formatter, ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output: %v", err))
		}
	}

	return outputFunnelCompile(formatter, compiled, opts.Output)
}

// outputFunnelCompile prints a summary, and the queries themselves when
// they were not written to files.
func outputFunnelCompile(f *OutputFormatter, compiled []CompiledFunnel, outputDir string) error {
	if f.Format == "json" {
		return f.Success(compiled)
	}

	fmt.Fprintf(f.Writer, "✓ Compiled %d funnel(s)\n\n", len(compiled))
	for _, c := range compiled {
		fmt.Fprintf(f.Writer, "  %s: %d step(s)\n", c.ID, c.Steps)
	}
	fmt.Fprintln(f.Writer)

	if outputDir != "" {
		fmt.Fprintf(f.Writer, "Wrote canonical queries to %s\n", outputDir)
		return nil
	}
	for _, c := range compiled {
		fmt.Fprintf(f.Writer, "# %s\n%s\n", c.ID, c.Query)
	}
	return nil
}

// writeFunnels writes each compiled query to <dir>/<id>.json.
func writeFunnels(compiled []CompiledFunnel, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, c := range compiled {
		path := filepath.Join(dir, c.ID+".json")
		if err := os.WriteFile(path, append([]byte(c.Query), '\n'), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func runFunnelRun(opts *FunnelOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	specs, err := loadFunnels(path)
	if err != nil {
		return fail(formatter, "load funnels", err)
	}
	spec, err := pickFunnel(specs, opts.ID)
	if err != nil {
		return failCode(formatter, ExitCommandError, ErrCodeNoFunnels, err.Error())
	}
	gb, err := funnel.Compile(spec)
	if err != nil {
		return fail(formatter, "compile funnel "+spec.ID, err)
	}

	sess, err := opts.openSession(formatter, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	res, err := sess.client.Query(cmd.Context(), gb)
	if err != nil {
		return fail(formatter, "funnel query failed", err)
	}
	rows, ok := res.(*result.GroupBy)
	if !ok {
		return failCode(formatter, ExitFailure, ErrCodeGeneric, fmt.Sprintf("unexpected %s result", res.Type()))
	}
	reports := funnel.Read(spec, rows)

	if formatter.Format == "json" {
		return formatter.Query(gb.QueryContext().QueryID, reports)
	}
	if len(reports) == 0 {
		return formatter.Success("no rows")
	}
	for _, r := range reports {
		fmt.Fprintln(formatter.Writer, r.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
		for _, s := range r.Steps {
			fmt.Fprintf(formatter.Writer, "  %d. %-20s %12.0f  %6.1f%%\n", s.Index+1, s.Name, s.Count, s.Conversion*100)
		}
	}
	return nil
}

// pickFunnel returns the funnel named id, or the only funnel when id is empty.
func pickFunnel(specs []*funnel.Spec, id string) (*funnel.Spec, error) {
	if id == "" {
		switch len(specs) {
		case 0:
			return nil, errors.New("no funnels defined")
		case 1:
			return specs[0], nil
		}
		ids := make([]string, len(specs))
		for i, s := range specs {
			ids[i] = s.ID
		}
		return nil, fmt.Errorf("several funnels defined, choose one with --id: %s", strings.Join(ids, ", "))
	}
	for _, s := range specs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("funnel %q not found", id)
}
