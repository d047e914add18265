package di

import "fmt"

// Stage names a state in the resolution pipeline's finite state
// machine (§4.G).
type Stage int

const (
	StageStart Stage = iota
	StageContextualLookup
	StageDefinitionLookup
	StageAutowire
	StageInstantiate
	StageInject
	StageSuccess
	StageFail
)

// String renders the stage name used in traces and error payloads.
func (s Stage) String() string {
	switch s {
	case StageStart:
		return "Start"
	case StageContextualLookup:
		return "ContextualLookup"
	case StageDefinitionLookup:
		return "DefinitionLookup"
	case StageAutowire:
		return "Autowire"
	case StageInstantiate:
		return "Instantiate"
	case StageInject:
		return "Inject"
	case StageSuccess:
		return "Success"
	case StageFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// pipelineTransitions is the whitelist of legal stage transitions
// (§4.G). Any stage may transition to Fail; that edge is checked
// separately in legalTransition rather than enumerated per-source to
// keep the table focused on the "happy path" shape of the FSM.
var pipelineTransitions = map[Stage][]Stage{
	StageStart:            {StageContextualLookup},
	StageContextualLookup: {StageDefinitionLookup, StageSuccess},
	StageDefinitionLookup: {StageAutowire, StageInstantiate, StageSuccess},
	StageAutowire:         {StageInstantiate},
	StageInstantiate:      {StageInject},
	StageInject:           {StageSuccess},
}

// legalTransition reports whether moving from `from` to `to` is
// permitted by the whitelist, with `to == StageFail` always allowed.
func legalTransition(from, to Stage) bool {
	if to == StageFail {
		return true
	}

	for _, allowed := range pipelineTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// Outcome is the per-stage result recorded in a ResolutionTrace.
type Outcome int

const (
	OutcomeMiss Outcome = iota
	OutcomeHit
	OutcomeFailure
)

// String renders the outcome for trace/log output.
func (o Outcome) String() string {
	switch o {
	case OutcomeMiss:
		return "miss"
	case OutcomeHit:
		return "hit"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// TraceEntry is one immutable (stage, outcome, state) tuple (§3).
type TraceEntry struct {
	Stage   Stage
	Outcome Outcome
	State   string // freeform note: "contextual override found", "alias->X", etc.
}

// ResolutionTrace is the ordered, immutable list of stage outcomes for
// one resolution (§3, §8 property 7). Record returns a new trace with
// one appended entry, leaving the receiver untouched.
type ResolutionTrace struct {
	entries []TraceEntry
}

// Record returns a new trace with entry appended.
func (t ResolutionTrace) Record(stage Stage, outcome Outcome, state string) ResolutionTrace {
	next := make([]TraceEntry, len(t.entries), len(t.entries)+1)
	copy(next, t.entries)
	next = append(next, TraceEntry{Stage: stage, Outcome: outcome, State: state})

	return ResolutionTrace{entries: next}
}

// Entries returns the underlying trace entries in visit order.
func (t ResolutionTrace) Entries() []TraceEntry {
	return t.entries
}

// Stages renders a compact string slice of "Stage:outcome" pairs, used
// when attaching a trace to an error's context (§6 error payload).
func (t ResolutionTrace) Stages() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = fmt.Sprintf("%s:%s", e.Stage, e.Outcome)
	}

	return out
}

// Last returns the final entry and true, or the zero entry and false
// for an empty trace.
func (t ResolutionTrace) Last() (TraceEntry, bool) {
	if len(t.entries) == 0 {
		return TraceEntry{}, false
	}

	return t.entries[len(t.entries)-1], true
}

// HasHit reports whether any prior stage recorded a hit — the
// precondition the pipeline checks before allowing a transition to
// Success (§4.G: "A terminal transition to Success requires that at
// least one prior stage recorded a hit").
func (t ResolutionTrace) HasHit() bool {
	for _, e := range t.entries {
		if e.Outcome == OutcomeHit {
			return true
		}
	}

	return false
}

// VisitedInstantiate reports whether the Instantiate stage ran,
// enforcing §8 property 9 ("no successful resolution omits Instantiate
// unless a pre-built instance existed at ContextualLookup or
// DefinitionLookup").
func (t ResolutionTrace) VisitedInstantiate() bool {
	for _, e := range t.entries {
		if e.Stage == StageInstantiate {
			return true
		}
	}

	return false
}
