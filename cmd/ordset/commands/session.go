// Package commands implements CLI command handlers for ordset.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ordset/internal/script"
	"github.com/Sumatoshi-tech/ordset/pkg/config"
	"github.com/Sumatoshi-tech/ordset/pkg/observability"
	"github.com/Sumatoshi-tech/ordset/pkg/rbtree"
	"github.com/Sumatoshi-tech/ordset/pkg/version"
)

// Persistent flag names registered on the root command.
const (
	FlagConfig  = "config"
	FlagVerbose = "verbose"
	FlagQuiet   = "quiet"
)

// stdinArg names standard input as the script source.
const stdinArg = "-"

// session bundles what every subcommand needs to run a script.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	metrics   *observability.SetMetrics
	registry  *script.Registry
}

func openSession(cmd *cobra.Command, mode observability.AppMode) (*session, error) {
	cfg, err := config.LoadConfig(stringFlag(cmd, FlagConfig))
	if err != nil {
		return nil, err
	}

	obsCfg := cfg.Observability(mode, version.Version)
	obsCfg.LogOutput = cmd.ErrOrStderr()

	switch {
	case boolFlag(cmd, FlagVerbose):
		obsCfg.LogLevel = slog.LevelDebug
	case boolFlag(cmd, FlagQuiet):
		obsCfg.LogLevel = slog.LevelWarn
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewSetMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	alloc := rbtree.NewShardedAllocator[int64](
		cfg.Tree.Shards,
		cfg.Tree.HibernationThreshold,
		cfg.Tree.MaxNodes(rbtree.NodeSize[int64]()),
	)

	providers.Logger.Debug("session opened",
		slog.String("mode", string(mode)),
		slog.Int("shards", cfg.Tree.Shards),
		slog.String("arena_budget", cfg.Tree.ArenaBudget))

	return &session{
		cfg:       cfg,
		providers: providers,
		metrics:   metrics,
		registry:  script.NewRegistry(alloc),
	}, nil
}

func (s *session) engine(out io.Writer, opts ...script.Option) *script.Engine {
	base := []script.Option{
		script.WithLogger(s.providers.Logger),
		script.WithMetrics(s.metrics),
		script.WithTracer(s.providers.Tracer),
	}

	return script.NewEngine(s.registry, out, append(base, opts...)...)
}

// runScript executes the script named by args on a fresh engine.
func (s *session) runScript(cmd *cobra.Command, args []string, out io.Writer, opts ...script.Option) (script.Result, error) {
	input, closeInput, err := openInput(cmd, args)
	if err != nil {
		return script.Result{}, err
	}
	defer closeInput()

	result, err := script.RunScript(cmd.Context(), s.engine(out, opts...), input)
	if err != nil {
		return result, err
	}

	s.providers.Logger.Info("script completed",
		slog.Int("commands", result.Commands),
		slog.Int("mutations", result.Mutations),
		slog.Int("sets", len(s.registry.Names())))

	return result, nil
}

func (s *session) close(ctx context.Context) error {
	return s.providers.Shutdown(ctx)
}

// openInput returns the script file named by args, or stdin when there is
// none or it is "-".
func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == stdinArg {
		return cmd.InOrStdin(), func() {}, nil
	}

	file, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("open script: %w", err)
	}

	return file, func() { _ = file.Close() }, nil
}

func stringFlag(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}

	return value
}

func boolFlag(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}

	return value
}
