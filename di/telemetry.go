package di

import (
	"sync"
	"time"

	"github.com/beorn7/perks/quantile"
	"github.com/xraph/dicontainer/log"
)

// MetricsSink is the minimal surface Telemetry needs from a metrics
// backend. It is defined here rather than imported from the metrics
// package so a caller can wire metrics.Metrics in without this package
// importing metrics back (metrics already depends on di for its
// Service/HealthChecker contracts).
type MetricsSink interface {
	IncCounter(name string, labels map[string]string)
	ObserveMillis(name string, labels map[string]string, ms float64)
}

// Telemetry records structured logs and, when a sink is configured,
// metrics for every resolution the engine performs (§6). Per-identifier
// latency quantiles are kept with a streaming estimator so the hot path
// never sorts a growing slice.
type Telemetry struct {
	logger  log.Logger
	sink    MetricsSink
	tracing bool

	mu        sync.Mutex
	quantiles map[string]*quantile.Stream
}

// NewTelemetry builds a Telemetry. sink may be nil to disable metrics
// emission while keeping structured logging and quantile tracking.
func NewTelemetry(logger log.Logger, sink MetricsSink, tracing bool) *Telemetry {
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	return &Telemetry{
		logger:    logger.Named("di"),
		sink:      sink,
		tracing:   tracing,
		quantiles: make(map[string]*quantile.Stream),
	}
}

// emit records one resolution attempt: success or failure, its stage
// trace when tracing is enabled, and latency quantiles per identifier.
func (t *Telemetry) emit(kctx *KernelContext, lifetime Lifetime, trace ResolutionTrace, err error, duration time.Duration) {
	if t == nil {
		return
	}

	ms := float64(duration.Nanoseconds()) / 1e6

	labels := map[string]string{
		"identifier": kctx.ServiceID,
		"lifetime":   lifetime.String(),
	}

	fields := []log.Field{
		log.String("identifier", kctx.ServiceID),
		log.String("lifetime", lifetime.String()),
		log.String("trace_id", kctx.TraceID),
		log.Float64("latency.ms", ms),
	}

	if t.tracing {
		fields = append(fields, log.Any("stages", trace.Stages()))
	}

	outcome := "success"

	if err != nil {
		outcome = "failure"
		fields = append(fields, log.Error(err))
		t.logger.Warn("service resolution failed", fields...)
	} else {
		t.logger.Debug("service resolved", fields...)
	}

	t.observe(kctx.ServiceID, ms)

	if t.sink == nil {
		return
	}

	counterLabels := map[string]string{"identifier": labels["identifier"], "lifetime": labels["lifetime"], "outcome": outcome}
	t.sink.IncCounter("di_resolutions_total", counterLabels)
	t.sink.ObserveMillis("di_resolution_duration_ms", labels, ms)
}

func (t *Telemetry) observe(identifier string, ms float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.quantiles[identifier]
	if !ok {
		s = quantile.NewTargeted(map[float64]float64{
			0.5:  0.05,
			0.9:  0.01,
			0.99: 0.001,
		})
		t.quantiles[identifier] = s
	}

	s.Insert(ms)
}

// Quantiles returns the p50/p90/p99 latency observed so far for
// identifier, in milliseconds. Returns zeros if nothing was observed.
func (t *Telemetry) Quantiles(identifier string) (p50, p90, p99 float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.quantiles[identifier]
	if !ok {
		return 0, 0, 0
	}

	return s.Query(0.5), s.Query(0.9), s.Query(0.99)
}
