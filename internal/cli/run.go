package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iatromantis91/semiocore-v1/internal/emit"
	"github.com/iatromantis91/semiocore-v1/internal/engine"
	"github.com/iatromantis91/semiocore-v1/internal/manifest"
	"github.com/iatromantis91/semiocore-v1/internal/parser"
	"github.com/iatromantis91/semiocore-v1/internal/store"
	"github.com/iatromantis91/semiocore-v1/internal/world"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	World        string
	EmitTrace    string
	EmitManifest string
	Database     string
	Seed         uint32

	// RunIDs overrides the run identifier generator (for testing).
	RunIDs manifest.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Execute a sensing program and emit its trace",
		Long: `Parse a sensing program, execute it deterministically against the
given world, and emit the resulting trace.

Example:
  semioc run prog.semio --world world.json --emit-trace out/trace.json
  semioc run prog.semio --world world.yaml --seed 12345 --db archive.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.World, "world", "", "path to world file (required)")
	cmd.Flags().StringVar(&opts.EmitTrace, "emit-trace", "", "write the trace JSON to this path")
	cmd.Flags().StringVar(&opts.EmitManifest, "emit-manifest", "", "write the run manifest JSON to this path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the run into this SQLite database")
	cmd.Flags().Uint32Var(&opts.Seed, "seed", 0, "override the program's seed")
	_ = cmd.MarkFlagRequired("world")

	return cmd
}

func runProgram(cmd *cobra.Command, opts *RunOptions, programPath string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	slog.Debug("parsing program", "path", programPath)
	prog, err := parser.ParseFile(programPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse program", err)
	}
	if cmd.Flags().Changed("seed") {
		prog = prog.WithSeed(opts.Seed)
	}

	w, err := world.Load(opts.World)
	if err != nil {
		return WrapExitError(ExitCommandError, "load world", err)
	}

	tr, err := engine.Run(prog, w, programPath)
	if err != nil {
		return WrapExitError(ExitFailure, "execution failed", err)
	}

	if opts.EmitTrace != "" {
		if err := emit.WriteFile(opts.EmitTrace, tr); err != nil {
			return WrapExitError(ExitCommandError, "emit trace", err)
		}
		slog.Debug("trace written", "path", opts.EmitTrace)
	}

	mf, err := manifest.Build(programPath, opts.World, prog.Seed, opts.RunIDs)
	if err != nil {
		return WrapExitError(ExitCommandError, "build manifest", err)
	}
	if opts.EmitManifest != "" {
		if err := emit.WriteFile(opts.EmitManifest, mf); err != nil {
			return WrapExitError(ExitCommandError, "emit manifest", err)
		}
	}

	if opts.Database != "" {
		if err := archiveRun(cmd.Context(), opts.Database, store.KindRun, mf, "trace.json", tr); err != nil {
			return WrapExitError(ExitCommandError, "archive run", err)
		}
	}

	text := fmt.Sprintf("N=%d deltaT=%v rho=%v kappa=%v",
		tr.Summary.N, tr.Summary.DeltaT, tr.Summary.Rho, tr.Summary.Kappa)
	return out.Success(text, tr.Summary)
}

// archiveRun records a run and one emitted artifact in the archive.
func archiveRun(ctx context.Context, dbPath string, kind store.RunKind, mf *manifest.Manifest, name string, artifact any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("closing archive", "error", closeErr)
		}
	}()

	if err := st.RecordRun(ctx, kind, mf); err != nil {
		return err
	}
	body, err := emit.Marshal(artifact)
	if err != nil {
		return err
	}
	return st.PutArtifact(ctx, mf.RunID, name, body)
}
