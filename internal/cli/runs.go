package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iatromantis91/semiocore-v1/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	Kind     string
	Limit    int
}

// runView is the JSON shape of one listed run.
type runView struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	ProgramFile string  `json:"program_file"`
	WorldFile   string  `json:"world_file"`
	ProgramHash string  `json:"program_hash"`
	WorldHash   string  `json:"world_hash"`
	Seed        *uint32 `json:"seed"`
	Seq         int64   `json:"seq"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List archived runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite archive to read (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter by run kind (run|ctxscan|replay)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "return at most this many runs (0 = all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func listRuns(cmd *cobra.Command, opts *RunsOptions) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	switch opts.Kind {
	case "", string(store.KindRun), string(store.KindCtxScan), string(store.KindReplay):
	default:
		return WrapExitError(ExitCommandError, "list runs",
			fmt.Errorf("unknown kind %q: must be run, ctxscan or replay", opts.Kind))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer st.Close()

	records, err := st.ListRuns(cmd.Context(), store.RunFilter{
		Kind:  store.RunKind(opts.Kind),
		Limit: opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "list runs", err)
	}

	views := make([]runView, len(records))
	lines := make([]string, len(records))
	for i, rec := range records {
		views[i] = runView{
			ID:          rec.ID,
			Kind:        string(rec.Kind),
			ProgramFile: rec.ProgramFile,
			WorldFile:   rec.WorldFile,
			ProgramHash: rec.ProgramHash,
			WorldHash:   rec.WorldHash,
			Seed:        rec.Seed,
			Seq:         rec.CreatedSeq,
		}
		lines[i] = fmt.Sprintf("seq=%d kind=%s id=%s program=%s",
			rec.CreatedSeq, rec.Kind, rec.ID, rec.ProgramFile)
	}

	text := fmt.Sprintf("%d run(s)", len(records))
	if len(lines) > 0 {
		text += "\n" + strings.Join(lines, "\n")
	}
	return out.Success(text, views)
}
