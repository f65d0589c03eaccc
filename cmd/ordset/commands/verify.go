package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ordset/internal/render"
	"github.com/Sumatoshi-tech/ordset/internal/script"
	"github.com/Sumatoshi-tech/ordset/pkg/observability"
)

// ErrInvariantViolated is returned by verify when any check failed.
var ErrInvariantViolated = errors.New("tree invariants violated")

// VerifyCommand holds the flags of the verify command.
type VerifyCommand struct {
	noColor    bool
	showOutput bool
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	vc := &VerifyCommand{}

	cmd := &cobra.Command{
		Use:   "verify [script]",
		Short: "Execute a script and check tree invariants after every mutation",
		Long: `Execute a command script and validate the mutated set after every change.
Query output is suppressed unless --show-output is given. Exits non-zero on any violation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: vc.run,
	}

	cmd.Flags().BoolVar(&vc.noColor, "no-color", false, "Disable colored verdict")
	cmd.Flags().BoolVar(&vc.showOutput, "show-output", false, "Print query results before the verdict")

	return cmd
}

func (vc *VerifyCommand) run(cmd *cobra.Command, args []string) (err error) {
	sess, err := openSession(cmd, observability.ModeVerify)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, sess.close(cmd.Context()))
	}()

	out := cmd.OutOrStdout()

	scriptOut := io.Discard
	if vc.showOutput {
		scriptOut = out
	}

	result, err := sess.runScript(cmd, args, scriptOut, script.WithInvariantChecks())
	if err != nil {
		return err
	}

	if err = render.Verify(out, result, !vc.noColor && !color.NoColor); err != nil {
		return err
	}

	if len(result.Violations) > 0 {
		return fmt.Errorf("%w: %d of %d checks", ErrInvariantViolated, len(result.Violations), result.Checks)
	}

	return nil
}
