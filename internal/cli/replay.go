package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iatromantis91/semiocore-v1/internal/emit"
	"github.com/iatromantis91/semiocore-v1/internal/manifest"
	"github.com/iatromantis91/semiocore-v1/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	EmitTrace string
	Database  string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <manifest>",
		Short: "Re-execute a run from its manifest",
		Long: `Load a run manifest and re-execute the run it describes. The
manifest's seed pins the RNG state, so the replayed trace is
byte-identical to the original whenever the inputs are unchanged.

Example:
  semioc replay out/manifest.json --emit-trace out/replayed.trace.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.EmitTrace, "emit-trace", "", "write the replayed trace JSON to this path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the replay into this SQLite database")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions, manifestPath string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	mf, err := manifest.Load(manifestPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load manifest", err)
	}
	slog.Debug("replaying run", "run_id", mf.RunID, "program", mf.ProgramFile)

	tr, err := manifest.Replay(mf)
	if err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	if opts.EmitTrace != "" {
		if err := emit.WriteFile(opts.EmitTrace, tr); err != nil {
			return WrapExitError(ExitCommandError, "emit trace", err)
		}
	}

	if opts.Database != "" {
		if err := archiveRun(cmd.Context(), opts.Database, store.KindReplay, mf, "trace.json", tr); err != nil {
			return WrapExitError(ExitCommandError, "archive replay", err)
		}
	}

	text := fmt.Sprintf("run_id=%s N=%d deltaT=%v rho=%v kappa=%v",
		mf.RunID, tr.Summary.N, tr.Summary.DeltaT, tr.Summary.Rho, tr.Summary.Kappa)
	return out.Success(text, tr.Summary)
}
