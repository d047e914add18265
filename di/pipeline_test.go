package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_String(t *testing.T) {
	cases := map[Stage]string{
		StageStart:            "Start",
		StageContextualLookup: "ContextualLookup",
		StageDefinitionLookup: "DefinitionLookup",
		StageAutowire:         "Autowire",
		StageInstantiate:      "Instantiate",
		StageInject:           "Inject",
		StageSuccess:          "Success",
		StageFail:             "Fail",
		Stage(99):             "Unknown",
	}

	for stage, want := range cases {
		assert.Equal(t, want, stage.String())
	}
}

func TestLegalTransition(t *testing.T) {
	assert.True(t, legalTransition(StageStart, StageContextualLookup))
	assert.True(t, legalTransition(StageContextualLookup, StageDefinitionLookup))
	assert.True(t, legalTransition(StageContextualLookup, StageSuccess))
	assert.True(t, legalTransition(StageDefinitionLookup, StageAutowire))
	assert.True(t, legalTransition(StageDefinitionLookup, StageSuccess))
	assert.True(t, legalTransition(StageAutowire, StageInstantiate))
	assert.True(t, legalTransition(StageInstantiate, StageInject))
	assert.True(t, legalTransition(StageInject, StageSuccess))

	assert.False(t, legalTransition(StageStart, StageSuccess))
	assert.False(t, legalTransition(StageAutowire, StageSuccess))

	// Fail is reachable from any stage.
	for _, s := range []Stage{StageStart, StageContextualLookup, StageDefinitionLookup, StageAutowire, StageInstantiate, StageInject, StageSuccess} {
		assert.True(t, legalTransition(s, StageFail))
	}
}

func TestResolutionTrace_RecordIsImmutable(t *testing.T) {
	base := ResolutionTrace{}.Record(StageStart, OutcomeHit, "")
	withSecond := base.Record(StageContextualLookup, OutcomeMiss, "no parent")

	assert.Len(t, base.Entries(), 1, "Record must not mutate the receiver")
	assert.Len(t, withSecond.Entries(), 2)

	last, ok := withSecond.Last()
	assert.True(t, ok)
	assert.Equal(t, StageContextualLookup, last.Stage)
}

func TestResolutionTrace_HasHit(t *testing.T) {
	empty := ResolutionTrace{}
	assert.False(t, empty.HasHit())

	miss := empty.Record(StageDefinitionLookup, OutcomeMiss, "")
	assert.False(t, miss.HasHit())

	hit := miss.Record(StageAutowire, OutcomeHit, "autowired")
	assert.True(t, hit.HasHit())
}

func TestResolutionTrace_VisitedInstantiate(t *testing.T) {
	trace := ResolutionTrace{}.Record(StageStart, OutcomeHit, "")
	assert.False(t, trace.VisitedInstantiate())

	trace = trace.Record(StageInstantiate, OutcomeHit, "")
	assert.True(t, trace.VisitedInstantiate())
}

func TestResolutionTrace_Stages(t *testing.T) {
	trace := ResolutionTrace{}.
		Record(StageStart, OutcomeHit, "").
		Record(StageFail, OutcomeFailure, "boom")

	assert.Equal(t, []string{"Start:hit", "Fail:failure"}, trace.Stages())
}

func TestResolutionTrace_LastOnEmpty(t *testing.T) {
	_, ok := ResolutionTrace{}.Last()
	assert.False(t, ok)
}
