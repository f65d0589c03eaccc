package commands

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ordset/internal/render"
	"github.com/Sumatoshi-tech/ordset/pkg/observability"
)

// StatsCommand holds the flags of the stats command.
type StatsCommand struct {
	format string
}

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	sc := &StatsCommand{}

	cmd := &cobra.Command{
		Use:   "stats [script]",
		Short: "Execute a script and report per-set statistics",
		Long: `Execute a command script silently, then report size, height, black height
and arena usage for every named set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.format, "format", "", "Output format: table, text, yaml, json (default from config)")

	return cmd
}

func (sc *StatsCommand) run(cmd *cobra.Command, args []string) (err error) {
	sess, err := openSession(cmd, observability.ModeStats)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, sess.close(cmd.Context()))
	}()

	if _, err = sess.runScript(cmd, args, io.Discard); err != nil {
		return err
	}

	format := sc.format
	if format == "" {
		format = sess.cfg.Output.Format
	}

	return render.Stats(cmd.OutOrStdout(), format, sess.registry.Stats())
}
