package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/druidkit/internal/client"
	"github.com/roach88/druidkit/internal/ingest"
	"github.com/roach88/druidkit/internal/store"
)

// TaskOptions holds flags for the task commands.
type TaskOptions struct {
	*RootOptions
	Wait bool
	Poll time.Duration
}

// NewTaskCommand creates the task command and its subcommands.
func NewTaskCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "task",
		Short: "Submit and track ingestion tasks",
	}

	submit := &cobra.Command{
		Use:   "submit [file]",
		Short: "Submit a task spec to the overlord",
		Long: `Validate a task spec and submit it. A spec without an id is given one
of the form <type>_<dataSource>_<uuid>. When a cache is configured the
submission is logged there for "task list".

Example:
  druidkit task submit --wait wikipedia-index.json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskSubmit(opts, args, cmd)
		},
	}
	submit.Flags().BoolVarP(&opts.Wait, "wait", "w", false, "poll until the task finishes")
	submit.Flags().DurationVar(&opts.Poll, "poll", client.DefaultPollInterval, "status polling interval")

	status := &cobra.Command{
		Use:           "status <task-id>",
		Short:         "Show the state of a task",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskStatus(opts, args[0], false, cmd)
		},
	}

	wait := &cobra.Command{
		Use:           "wait <task-id>",
		Short:         "Poll a task until it finishes",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskStatus(opts, args[0], true, cmd)
		},
	}
	wait.Flags().DurationVar(&opts.Poll, "poll", client.DefaultPollInterval, "status polling interval")

	list := &cobra.Command{
		Use:           "list [data-source]",
		Short:         "List tasks submitted through the cache",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskList(opts, args, cmd)
		},
	}

	cmd.AddCommand(submit, status, wait, list)
	return cmd
}

func runTaskSubmit(opts *TaskOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return failCode(formatter, ExitCommandError, ErrCodeReadFailed, err.Error())
	}
	task, err := ingest.Decode(data)
	if err != nil {
		return fail(formatter, "decode task", err)
	}

	sess, err := opts.openSession(formatter, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	id, err := sess.client.SubmitTask(cmd.Context(), task)
	if err != nil {
		return fail(formatter, "submit failed", err)
	}
	if !opts.Wait {
		if formatter.Format == "json" {
			return formatter.Success(ingest.SubmitResponse{Task: id})
		}
		return formatter.Success(id)
	}

	st, err := sess.client.WaitTask(cmd.Context(), id, opts.Poll)
	if err != nil {
		return fail(formatter, "wait failed", err)
	}
	return outputTaskStatus(formatter, st)
}

func runTaskStatus(opts *TaskOptions, id string, wait bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sess, err := opts.openSession(formatter, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	var st ingest.TaskStatus
	if wait {
		st, err = sess.client.WaitTask(cmd.Context(), id, opts.Poll)
	} else {
		st, err = sess.client.TaskStatus(cmd.Context(), id)
	}
	if err != nil {
		return fail(formatter, "task status failed", err)
	}
	return outputTaskStatus(formatter, st)
}

// outputTaskStatus prints st and turns a FAILED task into ExitFailure.
func outputTaskStatus(f *OutputFormatter, st ingest.TaskStatus) error {
	if st.Status == ingest.StatusFailed {
		_ = f.Error(ErrCodeTaskFailed, fmt.Sprintf("task %s failed: %s", st.ID, st.ErrorMsg), st)
		return NewExitError(ExitFailure, "task "+st.ID+" failed")
	}
	if f.Format == "json" {
		return f.Success(st)
	}
	line := fmt.Sprintf("%s  %s", st.ID, st.Status)
	if st.Duration > 0 {
		line += fmt.Sprintf("  %s", time.Duration(st.Duration)*time.Millisecond)
	}
	return f.Success(line)
}

// taskEntry is the JSON shape of one logged submission.
type taskEntry struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	DataSource  string          `json:"dataSource"`
	SubmittedAt time.Time       `json:"submittedAt"`
	Spec        json.RawMessage `json:"spec"`
}

func runTaskList(opts *TaskOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	settings, err := resolveSettings(opts.RootOptions)
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

	var dataSource string
	if len(args) == 1 {
		dataSource = args[0]
	}
	records, err := s.Tasks(cmd.Context(), dataSource)
	if err != nil {
		return failCode(formatter, ExitCommandError, ErrCodeCache, err.Error())
	}

	if formatter.Format == "json" {
		entries, err := taskEntries(records)
		if err != nil {
			return fail(formatter, "encode tasks", err)
		}
		return formatter.Success(entries)
	}
	if len(records) == 0 {
		return formatter.Success("no tasks")
	}
	for _, r := range records {
		fmt.Fprintf(formatter.Writer, "%s  %s  %s  %s\n",
			r.SubmittedAt.UTC().Format(time.RFC3339), r.Type, r.DataSource, r.ID)
	}
	return nil
}

func taskEntries(records []store.TaskRecord) ([]taskEntry, error) {
	entries := make([]taskEntry, len(records))
	for i, r := range records {
		spec, err := ingest.Encode(r.Task)
		if err != nil {
			return nil, err
		}
		entries[i] = taskEntry{
			ID:          r.ID,
			Type:        r.Type,
			DataSource:  r.DataSource,
			SubmittedAt: r.SubmittedAt.UTC(),
			Spec:        spec,
		}
	}
	return entries, nil
}
