package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iatromantis91/semiocore-v1/internal/emit"
	"github.com/iatromantis91/semiocore-v1/internal/plasticity"
)

// PlasticityOptions holds flags for the plasticity command.
type PlasticityOptions struct {
	*RootOptions
	Traces     []string
	Ctx        string
	Channel    string
	WindowSize int
	WindowStep int
	EmitReport string
}

// NewPlasticityCommand creates the plasticity command.
func NewPlasticityCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlasticityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plasticity",
		Short: "Compute windowed stability metrics over traces",
		Long: `Merge the events of one or more trace files matching a context and
channel, slide fixed windows over the outcome stream, and classify the
stability of the observed partition.

Example:
  semioc plasticity --trace out/trace.json --ctx "Add(0.5)>>Sign" --channel ch_a \
    --window-size 10 --window-step 10 --emit-report out/plasticity.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlasticity(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Traces, "trace", nil, "trace file to analyze (repeatable, required)")
	cmd.Flags().StringVar(&opts.Ctx, "ctx", "", "canonical context string to select (required)")
	cmd.Flags().StringVar(&opts.Channel, "channel", "", "channel name to select (required)")
	cmd.Flags().IntVar(&opts.WindowSize, "window-size", 10, "events per window")
	cmd.Flags().IntVar(&opts.WindowStep, "window-step", 10, "events between window starts")
	cmd.Flags().StringVar(&opts.EmitReport, "emit-report", "", "write the plasticity report JSON to this path")
	_ = cmd.MarkFlagRequired("trace")
	_ = cmd.MarkFlagRequired("ctx")
	_ = cmd.MarkFlagRequired("channel")

	return cmd
}

func runPlasticity(cmd *cobra.Command, opts *PlasticityOptions) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	report, err := plasticity.AnalyzeFiles(opts.Traces, plasticity.Request{
		Ctx:        opts.Ctx,
		Channel:    opts.Channel,
		WindowSize: opts.WindowSize,
		WindowStep: opts.WindowStep,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "analysis failed", err)
	}

	if opts.EmitReport != "" {
		if err := emit.WriteFile(opts.EmitReport, report); err != nil {
			return WrapExitError(ExitCommandError, "emit report", err)
		}
	}

	text := fmt.Sprintf("state=%s trend=%s stability=%v confidence=%v",
		report.Verdict.PlasticityState, report.Verdict.Trend,
		report.Metrics.PartitionStability, report.Verdict.Confidence)
	return out.Success(text, report)
}
