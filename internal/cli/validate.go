package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iatromantis91/semiocore-v1/internal/ir"
	"github.com/iatromantis91/semiocore-v1/internal/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "validate <program>",
		Short:         "Parse a sensing program without executing it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			prog, err := parser.ParseFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "parse program", err)
			}

			ctx := ir.CanonicalContext(prog.Context)
			text := fmt.Sprintf("OK ctx=%s statements=%d", ctx, len(prog.Body))
			return out.Success(text, map[string]any{
				"ctx":        ctx,
				"statements": len(prog.Body),
			})
		},
	}
	return cmd
}
