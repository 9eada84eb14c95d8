package batch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/metromap/internal/logging"
	"github.com/signalsfoundry/metromap/internal/observability"
	"github.com/signalsfoundry/metromap/internal/state"
	"github.com/signalsfoundry/metromap/kb"
)

// Runner executes batches. Each Run starts from an empty map.
type Runner struct {
	log     logging.Logger
	metrics *observability.IndexCollector
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the base logger; commands log through a child carrying
// the command name and id.
func WithLogger(log logging.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithCollector records command outcomes, index sizes and rollbacks.
func WithCollector(c *observability.IndexCollector) Option {
	return func(r *Runner) {
		r.metrics = c
	}
}

// NewRunner returns a Runner that logs nothing and records no metrics
// unless configured to.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{log: logging.Noop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run executes every command of b in order. A failing command is reported
// and the batch continues; Run itself fails only on an invalid header or
// a cancelled context, returning the results gathered so far.
func (r *Runner) Run(ctx context.Context, b *Batch) (*Report, error) {
	dict := kb.NewKnowledgeBase()
	unsubscribe := dict.Subscribe(func(e kb.Event) {
		r.log.Debug(ctx, "dictionary changed",
			logging.String("event", e.Type.String()),
			logging.String("entity_id", e.Name),
		)
	})
	defer unsubscribe()

	opts := []state.Option{state.WithKnowledgeBase(dict)}
	if r.metrics != nil {
		opts = append(opts, state.WithMetricsRecorder(r.metrics), state.WithRollbackRecorder(r.metrics))
	}
	s, err := state.NewMapState(b.Config, r.log, opts...)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "batch.Run", "batch", "",
		attribute.Int("commands", len(b.Commands)),
		attribute.Int("pm_order", b.Config.PMOrder),
	)
	defer span.End()

	r.log.Info(ctx, "batch started",
		logging.Int("commands", len(b.Commands)),
		logging.Int("pm_order", b.Config.PMOrder),
	)
	report := &Report{Results: make([]Result, 0, len(b.Commands))}
	for _, cmd := range b.Commands {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
		report.Results = append(report.Results, r.execute(ctx, s, cmd))
	}
	span.SetAttributes(attribute.Int("failed", report.Failed()))
	r.log.Info(ctx, "batch finished",
		logging.Int("commands", len(report.Results)),
		logging.Int("failed", report.Failed()),
	)
	return report, nil
}

func (r *Runner) execute(ctx context.Context, s *state.MapState, cmd Command) Result {
	start := time.Now()
	ctx, log := logging.WithCommandLogger(ctx, r.log, cmd.Name, cmd.ID)
	ctx, span := observability.StartSpan(ctx, "batch."+cmd.Name, "command", cmd.Name)
	defer span.End()

	res := Result{Command: cmd.Name, ID: cmd.ID, Parameters: cmd.Parameters()}
	var (
		out any
		err error
	)
	if h, ok := handlers[cmd.Name]; ok {
		out, err = h(ctx, s, cmd)
	} else {
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}

	if err != nil {
		res.Status = StatusError
		res.Error = ErrorCode(cmd.Name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, res.Error)
		log.Debug(ctx, "command failed", logging.String("error_code", res.Error), logging.Err(err))
	} else {
		res.Status = StatusSuccess
		res.Output = out
		log.Debug(ctx, "command succeeded")
	}
	span.SetAttributes(attribute.String("status", res.Status))
	r.metrics.ObserveCommand(cmd.Name, res.Status, time.Since(start))
	return res
}
