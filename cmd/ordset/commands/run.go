package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ordset/pkg/observability"
)

// RunCommand holds the flags of the run command.
type RunCommand struct {
	metricsOut string
	hibernate  bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{}

	cmd := &cobra.Command{
		Use:   "run [script]",
		Short: "Execute a script and print query results",
		Long: `Execute a command script against named sets and print one line per query.
The script is read from the given file, or from stdin when omitted or "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVar(&rc.metricsOut, "metrics-out", "",
		"Write Prometheus text-format metrics to this file after the run")
	cmd.Flags().BoolVar(&rc.hibernate, "hibernate", false,
		"Compress the node arenas that reached tree.hibernation_threshold after the run and log their compressed size")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) (err error) {
	sess, err := openSession(cmd, observability.ModeRun)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, sess.close(cmd.Context()))
	}()

	if _, err = sess.runScript(cmd, args, cmd.OutOrStdout()); err != nil {
		return err
	}

	if rc.hibernate {
		compressed, hibernated := sess.registry.HibernateIdle()
		sess.providers.Logger.Info("arenas hibernated",
			slog.String("compressed", humanize.IBytes(compressed)),
			slog.Int("hibernated", hibernated),
			slog.Int("shards", len(sess.registry.Allocator().Shards())))
		sess.registry.Boot()
	}

	if rc.metricsOut != "" {
		if err = observability.WriteMetricsFile(sess.providers.Registry, rc.metricsOut); err != nil {
			return fmt.Errorf("metrics out: %w", err)
		}
	}

	return nil
}
