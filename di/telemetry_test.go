package di

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/dicontainer/log"
)

type recordingSink struct {
	counters []string
	observed []string
}

func (s *recordingSink) IncCounter(name string, labels map[string]string) {
	s.counters = append(s.counters, name)
}

func (s *recordingSink) ObserveMillis(name string, labels map[string]string, ms float64) {
	s.observed = append(s.observed, name)
}

func TestTelemetry_Quantiles_ReportZerosWithNoObservations(t *testing.T) {
	tel := NewTelemetry(log.NewNoopLogger(), nil, false)

	p50, p90, p99 := tel.Quantiles("never-seen")
	assert.Equal(t, 0.0, p50)
	assert.Equal(t, 0.0, p90)
	assert.Equal(t, 0.0, p99)
}

func TestTelemetry_Emit_NilSinkDoesNotPanic(t *testing.T) {
	tel := NewTelemetry(log.NewNoopLogger(), nil, false)
	kctx := NewRootContext("widget", ContextFlags{}, nil)

	assert.NotPanics(t, func() {
		tel.emit(kctx, LifetimeTransient, ResolutionTrace{}.Record(StageStart, OutcomeHit, ""), nil, 0)
	})

	p50, _, _ := tel.Quantiles("widget")
	assert.GreaterOrEqual(t, p50, 0.0)
}

func TestTelemetry_Emit_PushesToSinkOnSuccessAndFailure(t *testing.T) {
	sink := &recordingSink{}
	tel := NewTelemetry(log.NewNoopLogger(), sink, false)
	kctx := NewRootContext("widget", ContextFlags{}, nil)

	tel.emit(kctx, LifetimeSingleton, ResolutionTrace{}.Record(StageStart, OutcomeHit, ""), nil, 0)
	tel.emit(kctx, LifetimeSingleton, ResolutionTrace{}.Record(StageStart, OutcomeHit, ""), errNotFound("widget", nil), 0)

	assert.Len(t, sink.counters, 2)
	assert.Len(t, sink.observed, 2)
}

func TestTelemetry_Observe_QuantilesReflectInsertedLatencies(t *testing.T) {
	tel := NewTelemetry(log.NewNoopLogger(), nil, false)

	for _, ms := range []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10} {
		tel.observe("widget", ms)
	}

	p50, _, _ := tel.Quantiles("widget")
	assert.Greater(t, p50, 0.0)
}
