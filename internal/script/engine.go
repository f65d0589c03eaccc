package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/ordset/pkg/observability"
	"github.com/Sumatoshi-tech/ordset/pkg/rbtree"
)

const noneOutput = "none"

// Violation is an invariant failure found after a mutation.
type Violation struct {
	Err  error
	Set  string
	Line int
}

// Result summarizes a script run.
type Result struct {
	Violations []Violation
	Commands   int
	Mutations  int
	Checks     int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics records every command into metrics.
func WithMetrics(metrics *observability.SetMetrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// WithTracer wraps each Run in a span.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithInvariantChecks validates the active set after every mutation and
// collects failures into Result.Violations.
func WithInvariantChecks() Option {
	return func(e *Engine) { e.checkInvariants = true }
}

// Engine executes commands against a Registry, writing one output line per
// query command. An Engine is not safe for concurrent use.
type Engine struct {
	registry *Registry
	out      io.Writer
	logger   *slog.Logger
	metrics  *observability.SetMetrics
	tracer   trace.Tracer

	active string

	checkInvariants bool
}

// NewEngine creates an engine writing results to out.
func NewEngine(registry *Registry, out io.Writer, opts ...Option) *Engine {
	engine := &Engine{
		registry: registry,
		out:      out,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   nooptrace.NewTracerProvider().Tracer(""),
		active:   DefaultSet,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// Active returns the name of the set commands currently act on.
func (e *Engine) Active() string {
	return e.active
}

// Run executes commands in order and stops at the first execution error.
// Invariant violations do not stop the run.
func (e *Engine) Run(ctx context.Context, commands []Command) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "ordset.script.run",
		trace.WithAttributes(attribute.Int("script.commands", len(commands))))
	defer span.End()

	var result Result

	for _, cmd := range commands {
		changed, err := e.Exec(ctx, cmd)
		result.Commands++

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "command failed")

			return result, err
		}

		if !changed {
			continue
		}

		result.Mutations++

		if e.checkInvariants {
			result.Checks++

			if verr := e.registry.Get(e.active).Validate(); verr != nil {
				e.logger.WarnContext(ctx, "invariant violated",
					slog.Int("line", cmd.Line), slog.String("set", e.active), slog.Any("error", verr))

				result.Violations = append(result.Violations, Violation{Err: verr, Set: e.active, Line: cmd.Line})
			}
		}
	}

	span.SetAttributes(
		attribute.Int("ordset.sets", len(e.registry.Names())),
		attribute.Int("script.mutations", result.Mutations),
	)

	return result, nil
}

// Exec executes one command and reports whether it changed the active set.
func (e *Engine) Exec(ctx context.Context, cmd Command) (bool, error) {
	if cmd.Op == OpUse {
		e.active = cmd.Name
		e.registry.Get(cmd.Name)
		e.logger.DebugContext(ctx, "switched set", slog.String("set", cmd.Name), slog.Int("line", cmd.Line))

		return false, nil
	}

	tree := e.registry.Get(e.active)
	before := tree.Len()
	start := time.Now()

	output, hit, err := e.apply(tree, cmd)

	elapsed := time.Since(start)
	delta := int64(tree.Len() - before)

	if err != nil {
		e.record(ctx, cmd.Op, observability.OutcomeError, elapsed, 0)
		e.logger.WarnContext(ctx, "command failed",
			slog.Int("line", cmd.Line), slog.String("op", cmd.Op.String()), slog.Any("error", err))

		return false, fmt.Errorf("line %d: %s %d: %w", cmd.Line, cmd.Op, cmd.Value, err)
	}

	outcome := observability.OutcomeMiss
	if hit {
		outcome = observability.OutcomeHit
	}

	e.record(ctx, cmd.Op, outcome, elapsed, delta)
	e.logger.DebugContext(ctx, "command executed",
		slog.Int("line", cmd.Line), slog.String("op", cmd.Op.String()), slog.String("set", e.active),
		slog.String("outcome", outcome))

	if output != "" || cmd.Op == OpDump {
		if _, werr := fmt.Fprintln(e.out, output); werr != nil {
			return false, fmt.Errorf("write output: %w", werr)
		}
	}

	return delta != 0, nil
}

func (e *Engine) record(ctx context.Context, op Op, outcome string, elapsed time.Duration, delta int64) {
	if e.metrics == nil {
		return
	}

	e.metrics.RecordOperation(ctx, op.String(), outcome, elapsed)
	e.metrics.AddLiveNodes(ctx, e.active, delta)
}

// apply runs cmd on tree and returns its output line and whether it found or
// changed something.
func (e *Engine) apply(tree *rbtree.Tree[int64], cmd Command) (string, bool, error) {
	switch cmd.Op {
	case OpInsert:
		_, inserted, err := tree.TryInsert(cmd.Value)
		if err != nil {
			return "", false, fmt.Errorf("set %q: %w", e.active, err)
		}

		return strconv.FormatBool(inserted), inserted, nil
	case OpDelete:
		removed := tree.Erase(cmd.Value) == 1

		return strconv.FormatBool(removed), removed, nil
	case OpExists:
		found := tree.Contains(cmd.Value)

		return strconv.FormatBool(found), found, nil
	case OpNext:
		return iteratorOutput(tree.FindGreaterThan(cmd.Value))
	case OpPrev:
		return iteratorOutput(tree.FindLessThan(cmd.Value))
	case OpKth:
		if cmd.Value < 0 || cmd.Value >= int64(tree.Len()) {
			return noneOutput, false, nil
		}

		return iteratorOutput(tree.Statistic(int(cmd.Value)))
	case OpRank:
		rank, found := tree.Rank(cmd.Value)

		return strconv.Itoa(rank), found, nil
	case OpSize:
		return strconv.Itoa(tree.Len()), !tree.Empty(), nil
	case OpMin:
		return iteratorOutput(tree.Min())
	case OpMax:
		return iteratorOutput(tree.Max())
	case OpClear:
		hit := !tree.Empty()
		tree.Clear()

		return "", hit, nil
	case OpDump:
		return dump(tree), !tree.Empty(), nil
	case OpUse:
	}

	return "", false, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Op)
}

func iteratorOutput(it rbtree.Iterator[int64]) (string, bool, error) {
	if it.Limit() || it.NegativeLimit() {
		return noneOutput, false, nil
	}

	return strconv.FormatInt(it.Value(), 10), true, nil
}

func dump(tree *rbtree.Tree[int64]) string {
	var sb strings.Builder

	for value := range tree.All() {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(strconv.FormatInt(value, 10))
	}

	return sb.String()
}

// RunScript parses r and runs it on engine. Parse errors are returned before
// anything executes.
func RunScript(ctx context.Context, engine *Engine, r io.Reader) (Result, error) {
	commands, err := Parse(r)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) && engine.metrics != nil {
			engine.metrics.RecordError(ctx, "parse")
		}

		return Result{}, err
	}

	return engine.Run(ctx, commands)
}
