package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iatromantis91/semiocore-v1/internal/ctxscan"
	"github.com/iatromantis91/semiocore-v1/internal/emit"
	"github.com/iatromantis91/semiocore-v1/internal/manifest"
	"github.com/iatromantis91/semiocore-v1/internal/parser"
	"github.com/iatromantis91/semiocore-v1/internal/store"
	"github.com/iatromantis91/semiocore-v1/internal/world"
)

// CtxScanOptions holds flags for the ctxscan command.
type CtxScanOptions struct {
	*RootOptions
	World      string
	EmitReport string
	EmitDir    string
	MaxPerms   int
	Parallel   bool
	Database   string

	// RunIDs overrides the run identifier generator (for testing).
	RunIDs manifest.RunIDGenerator
}

// NewCtxScanCommand creates the ctxscan command.
func NewCtxScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CtxScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ctxscan <program>",
		Short: "Scan context-operator orderings for a contextuality witness",
		Long: `Enumerate every unique reordering of the program's context chain,
re-execute the engine under each, and report whether the observed
outcome sequence is order-sensitive.

Example:
  semioc ctxscan prog.semio --world world.json --emit-report out/scan.json
  semioc ctxscan prog.semio --world world.json --emit-dir out/perms --max-perms 24`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCtxScan(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.World, "world", "", "path to world file (required)")
	cmd.Flags().StringVar(&opts.EmitReport, "emit-report", "", "write the scan report JSON to this path")
	cmd.Flags().StringVar(&opts.EmitDir, "emit-dir", "", "persist per-permutation traces into this directory")
	cmd.Flags().IntVar(&opts.MaxPerms, "max-perms", 0, "evaluate at most this many permutations (0 = all)")
	cmd.Flags().BoolVar(&opts.Parallel, "parallel", false, "run permutations across workers")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the scan into this SQLite database")
	_ = cmd.MarkFlagRequired("world")

	return cmd
}

func runCtxScan(cmd *cobra.Command, opts *CtxScanOptions, programPath string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	prog, err := parser.ParseFile(programPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse program", err)
	}
	w, err := world.Load(opts.World)
	if err != nil {
		return WrapExitError(ExitCommandError, "load world", err)
	}

	report, err := ctxscan.Scan(prog, w, programPath, opts.World, ctxscan.Options{
		MaxPerms: opts.MaxPerms,
		EmitDir:  opts.EmitDir,
		Parallel: opts.Parallel,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "scan failed", err)
	}

	if opts.EmitReport != "" {
		if err := emit.WriteFile(opts.EmitReport, report); err != nil {
			return WrapExitError(ExitCommandError, "emit report", err)
		}
		slog.Debug("scan report written", "path", opts.EmitReport)
	}

	if opts.Database != "" {
		mf, err := manifest.Build(programPath, opts.World, prog.Seed, opts.RunIDs)
		if err != nil {
			return WrapExitError(ExitCommandError, "build manifest", err)
		}
		if err := archiveRun(cmd.Context(), opts.Database, store.KindCtxScan, mf, "ctxscan.json", report); err != nil {
			return WrapExitError(ExitCommandError, "archive scan", err)
		}
	}

	text := fmt.Sprintf("noncontextual=%t permutations=%d dkappa_max=%v",
		report.Noncontextual, len(report.Permutations), report.DKappaMax)
	if report.Witness != nil {
		text += fmt.Sprintf(" witness=perm_%d@step_%d", report.Witness.PermIndex, report.Witness.DiffStep)
	}
	return out.Success(text, report)
}
