package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"rxcli/internal/config"
	apperrors "rxcli/internal/errors"
	"rxcli/internal/files"
	"rxcli/internal/infrastructure"
	"rxcli/internal/reader"
	"rxcli/internal/report"
)

// Runner executes analysis runs for one configuration.
type Runner struct {
	cfg       *config.Config
	paths     *config.Paths
	files     *files.Manager
	providers *infrastructure.OTelProviders
	tracer    trace.Tracer
	metrics   *infrastructure.PipelineMetrics
	system    *infrastructure.SystemMetrics
	base      *slog.Logger
	logger    *slog.Logger
}

// Result is the outcome of a successful run. SpanTraceID is the
// OpenTelemetry trace of the run span, empty when tracing is off.
type Result struct {
	TraceID     string
	SpanTraceID string
	Summary     report.Summary
	Steps       []StepResult
	Duration    time.Duration
}

// NewRunner prepares a Runner. Output paths are resolved against paths;
// input paths are used as given. providers may be nil, which disables
// tracing and metrics.
func NewRunner(cfg *config.Config, paths *config.Paths, providers *infrastructure.OTelProviders, logger *slog.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, apperrors.NewConfigError("configuration is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", err)
	}
	if paths == nil {
		paths = config.NewPaths("")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runner{
		cfg:       cfg,
		paths:     paths,
		files:     files.NewManager(paths),
		providers: providers,
		base:      infrastructure.WithComponent(logger, "pipeline"),
	}
	r.logger = r.base

	if providers != nil && providers.Tracer != nil {
		r.tracer = providers.Tracer
	} else {
		r.tracer = otel.Tracer(infrastructure.MeterName)
	}

	if providers != nil && providers.Meter != nil {
		m, err := infrastructure.CreatePipelineMetrics(providers.Meter)
		if err != nil {
			return nil, err
		}
		r.metrics = m
		if r.system, err = infrastructure.NewSystemMetrics(providers.Meter); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Run performs a full analysis and writes every configured output.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	traceID := infrastructure.GetTraceID(ctx)
	r.logger = r.base.With("trace_id", traceID)

	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "rxreport.run",
		trace.WithAttributes(attribute.String("run.trace_id", traceID)))
	defer span.End()

	// empty unless a tracer provider is installed
	spanTraceID := infrastructure.TraceIDFromContext(ctx)
	if spanTraceID != "" {
		r.logger = r.logger.With("span_trace_id", spanTraceID)
	}

	r.logger.Info("Analysis started",
		slog.String("postcodes", r.cfg.Input.PostcodeFile),
		slog.String("addresses", r.cfg.Input.AddressFile),
		slog.String("prescriptions", r.cfg.Input.PrescriptionFile),
		slog.Bool("parallel_lookups", r.cfg.Pipeline.ParallelLookups))

	state := newState()
	if err := r.execute(ctx, state); err != nil {
		infrastructure.RecordError(ctx, err)
		r.logger.Error("Analysis failed", slog.String("error", err.Error()))
		return nil, err
	}

	elapsed := time.Since(start)
	if r.metrics != nil {
		r.metrics.RunDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("status", "success")))
	}
	if path := r.cfg.Telemetry.MetricsFile; path != "" && r.providers != nil && r.providers.Registry != nil {
		if err := r.paths.EnsureDirectories(path); err != nil {
			return nil, err
		}
		if err := r.providers.WriteMetricsFile(r.paths.Resolve(path)); err != nil {
			return nil, err
		}
	}

	r.logger.Info("Execution time",
		slog.Duration("elapsed", elapsed),
		slog.Int64("postcode_rows", state.rowsFor(PostcodesStep)),
		slog.Int64("address_rows", state.rowsFor(AddressesStep)),
		slog.Int64("prescription_rows", state.rowsFor(PrescriptionsStep)))

	return &Result{
		TraceID:     traceID,
		SpanTraceID: spanTraceID,
		Summary:     *state.Summary,
		Steps:       state.Results(),
		Duration:    elapsed,
	}, nil
}

func (r *Runner) execute(ctx context.Context, state *State) error {
	lookups := []Step{&postcodeStep{r}, &addressStep{r}}

	if r.cfg.Pipeline.ParallelLookups {
		g, gctx := errgroup.WithContext(ctx)
		for _, step := range lookups {
			g.Go(func() error { return r.executeStep(gctx, state, step) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for _, step := range lookups {
			if err := r.executeStep(ctx, state, step); err != nil {
				return err
			}
		}
	}

	steps := []Step{&prescriptionStep{r}, &reportStep{r}}
	if hasExports(r.cfg.Output) {
		steps = append(steps, &exportStep{r})
	} else {
		state.record(StepResult{ID: ExportStep, Status: StepStatusSkipped})
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.executeStep(ctx, state, step); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) executeStep(ctx context.Context, state *State, step Step) error {
	ctx, span := r.tracer.Start(ctx, "step."+step.ID())
	defer span.End()

	r.logger.Debug("executing_step",
		slog.String("step", step.ID()),
		slog.String("name", step.Name()))

	start := time.Now()
	err := step.Execute(ctx, state)
	res := StepResult{
		ID:       step.ID(),
		Status:   StepStatusCompleted,
		Rows:     state.rowsFor(step.ID()),
		Duration: time.Since(start),
		Err:      err,
	}
	if err != nil {
		res.Status = StepStatusFailed
		infrastructure.RecordError(ctx, err)
		r.logger.Error("step_failed",
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
	} else {
		r.logger.Debug("step_completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", res.Duration))
	}
	state.record(res)
	return err
}

// newReader opens path and applies the configured strategy and filter.
func (r *Runner) newReader(path string, header []string, strategy, filter string) (*reader.Reader, error) {
	rd, err := reader.New(path, header)
	if err != nil {
		return nil, err
	}
	rd.SetLogger(r.logger)

	s, err := reader.ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	if err := rd.SetStrategy(s); err != nil {
		return nil, err
	}
	rd.SetFilter(filter)
	return rd, nil
}

// pass streams one dataset through h, recording its span and metrics.
func (r *Runner) pass(ctx context.Context, dataset string, rd *reader.Reader, h reader.RowHandler) error {
	ctx, span := r.tracer.Start(ctx, "pass."+dataset, trace.WithAttributes(
		attribute.String("file", rd.Path()),
		attribute.String("strategy", string(rd.Strategy())),
	))
	defer span.End()

	start := time.Now()
	err := rd.Process(ctx, h)
	elapsed := time.Since(start)

	infrastructure.RecordPassMetrics(ctx, r.metrics, dataset, rd.LineCount(), elapsed, err)
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"rows":        rd.LineCount(),
		"duration_ms": elapsed.Milliseconds(),
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return err
	}

	if r.system != nil {
		stats := r.system.Collect(ctx)
		r.logger.Debug("Pass memory", slog.String("dataset", dataset), slog.Any("memory", stats))
	}
	return nil
}

func (r *Runner) componentLogger(name string) *slog.Logger {
	return infrastructure.WithComponent(r.logger, name)
}
