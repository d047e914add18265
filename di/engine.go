package di

import (
	"sync"
	"time"

	"github.com/xraph/dicontainer/log"
)

// defaultMaxDepth is the default resolution recursion limit (§6).
const defaultMaxDepth = 64

// Engine is the single entry point that drives the resolution pipeline
// for one KernelContext (§4.H). It is wired to exactly one Kernel at
// boot time; wiring it twice is a ContainerState error.
type Engine struct {
	mu       sync.Mutex
	wired    bool
	kernel   *Kernel
	config   KernelConfig
	defs     *DefinitionStore
	scopes   *ScopeManager
	protos   *PrototypeFactory
	analyzer *analyzer
	resolver *DependencyResolver
	inst     *Instantiator
	inject   *InjectionExecutor
	telem    *Telemetry
	logger   log.Logger
}

// NewEngine assembles an engine from its collaborators. It is not
// usable until Wire is called with the owning Kernel.
func NewEngine(config KernelConfig, defs *DefinitionStore, scopes *ScopeManager, protos *PrototypeFactory, a *analyzer, telem *Telemetry, logger log.Logger) *Engine {
	e := &Engine{
		config:   config,
		defs:     defs,
		scopes:   scopes,
		protos:   protos,
		analyzer: a,
		telem:    telem,
		logger:   logger,
	}
	e.resolver = NewDependencyResolver(e)
	e.inst = NewInstantiator(e)
	e.inject = NewInjectionExecutor(e)

	return e
}

// Wire associates the engine with its owning Kernel exactly once.
// Double wiring is a fatal ContainerState error (§4.H).
func (e *Engine) Wire(k *Kernel) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.wired {
		return errContainerState("engine already wired to a container")
	}

	e.kernel = k
	e.wired = true

	return nil
}

// Resolve executes the pipeline for ctx and returns the instance,
// enforcing maxDepth and collecting a ResolutionTrace attached to any
// returned error (§4.H).
func (e *Engine) Resolve(kctx *KernelContext) (any, error) {
	if !e.wired {
		return nil, errContainerState("engine is not wired to a container")
	}

	start := time.Now()

	maxDepth := e.config.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	if kctx.Depth > maxDepth {
		err := errDepthExceeded(kctx.ServiceID, kctx.Path(), maxDepth)
		e.emitFailure(kctx, err, start)

		return nil, err
	}

	if kctx.expired() {
		err := errTimeout(kctx.ServiceID, StageStart, kctx.Path())
		e.emitFailure(kctx, err, start)

		return nil, err
	}

	instance, trace, err := e.run(kctx)

	lifetime := e.lifetimeOf(kctx.ServiceID)
	e.telem.emit(kctx, lifetime, trace, err, time.Since(start))

	if err != nil {
		if re, ok := err.(*ResolutionError); ok {
			re.WithTrace(trace)
		}

		return nil, err
	}

	return instance, nil
}

func (e *Engine) emitFailure(kctx *KernelContext, err error, start time.Time) {
	trace := ResolutionTrace{}.Record(StageFail, OutcomeFailure, err.Error())
	e.telem.emit(kctx, LifetimeTransient, trace, err, time.Since(start))
}

func (e *Engine) lifetimeOf(identifier string) Lifetime {
	if def, ok := e.defs.Get(identifier); ok {
		return def.Lifetime
	}

	return LifetimeTransient
}

// run drives the FSM described in §4.G, returning the final trace
// alongside the instance or error.
func (e *Engine) run(kctx *KernelContext) (any, ResolutionTrace, error) {
	trace := ResolutionTrace{}.Record(StageStart, OutcomeHit, "")

	// --- ContextualLookup -------------------------------------------------
	var effective *Concrete

	if parentID := kctx.ParentServiceID(); parentID != "" {
		if override, ok := e.defs.contextualOverride(parentID, kctx.ServiceID); ok {
			effective = &override
			trace = trace.Record(StageContextualLookup, OutcomeHit, "contextual override for "+kctx.ServiceID)

			if override.Kind == ConcretePreBuiltKind {
				return e.finish(kctx, override.PreBuilt, LifetimeTransient, nil, trace)
			}
		} else {
			trace = trace.Record(StageContextualLookup, OutcomeMiss, "")
		}
	} else {
		trace = trace.Record(StageContextualLookup, OutcomeMiss, "no parent")
	}

	// --- DefinitionLookup --------------------------------------------------
	var def *ServiceDefinition

	lifetime := LifetimeTransient

	if effective == nil {
		d, ok := e.defs.Get(kctx.ServiceID)
		if ok {
			def = d
			lifetime = d.Lifetime

			if !kctx.Flags.Fresh {
				if inst, found := e.lookupScope(lifetime, kctx.ServiceID); found {
					trace = trace.Record(StageDefinitionLookup, OutcomeHit, "cached instance")

					return e.finish(kctx, inst, lifetime, nil, trace)
				}
			}

			effective = &d.Concrete
			trace = trace.Record(StageDefinitionLookup, OutcomeHit, "definition found")
		} else {
			trace = trace.Record(StageDefinitionLookup, OutcomeMiss, "no definition")
		}
	} else {
		lifetime = LifetimeTransient
	}

	// --- Alias chain --------------------------------------------------------
	if effective != nil && effective.Kind == ConcreteAliasKind {
		trace = trace.Record(StageDefinitionLookup, OutcomeHit, "alias->"+effective.Alias)

		child := kctx.Child(effective.Alias, nil)

		val, err := e.Resolve(child)
		if err != nil {
			return nil, trace, wrapStage(err, kctx.ServiceID, StageDefinitionLookup)
		}

		return e.finish(kctx, val, lifetime, nil, trace)
	}

	// --- Pre-built short-circuit (definition-level) -------------------------
	if effective != nil && effective.Kind == ConcretePreBuiltKind {
		return e.finish(kctx, effective.PreBuilt, lifetime, nil, trace)
	}

	// --- Autowire ------------------------------------------------------------
	if effective == nil {
		if !kctx.Flags.AutoDefine {
			err := errNotFound(kctx.ServiceID, kctx.Path())

			return nil, trace.Record(StageFail, OutcomeFailure, err.Error()), err
		}

		if !e.analyzer.canResolveType(kctx.ServiceID) {
			err := errNotFound(kctx.ServiceID, kctx.Path())

			return nil, trace.Record(StageFail, OutcomeFailure, err.Error()), err
		}

		proto, perr := e.protos.CreateFor(kctx.ServiceID)
		if perr != nil {
			return nil, trace.Record(StageFail, OutcomeFailure, perr.Error()), wrapStage(perr, kctx.ServiceID, StageAutowire)
		}

		if !proto.IsInstantiable {
			err := errNotFound(kctx.ServiceID, kctx.Path())

			return nil, trace.Record(StageFail, OutcomeFailure, err.Error()), err
		}

		trace = trace.Record(StageAutowire, OutcomeHit, "autowired")
		effective = &Concrete{Kind: ConcreteClassKind, ClassName: kctx.ServiceID, Type: proto.Type}
		lifetime = e.defaultAutowireLifetime()
	}

	// --- scope membership: a Scoped lifetime requires an active scope
	// frame beyond the root (§4.E, §7 ScopeViolation).
	if lifetime == LifetimeScoped && !e.scopes.InScope() {
		err := errScopeViolation(kctx.ServiceID, "scoped service requested outside any scope")

		return nil, trace.Record(StageFail, OutcomeFailure, err.Error()), err
	}

	// --- cycle check before Instantiate: a parameter/construction loop is
	// detected by the resolver per-parameter, but a self-referential
	// class (A depends on A directly) is caught here.
	if kctx.Parent != nil && kctx.Parent.Contains(kctx.ServiceID) {
		err := errCycle(kctx.ServiceID, kctx.Path())

		return nil, trace.Record(StageFail, OutcomeFailure, err.Error()), err
	}

	// --- Instantiate + Inject ----------------------------------------------
	// Singleton/Instance lifetimes route through the root scope's
	// double-checked-lookup builder so that N concurrent resolutions of
	// the same not-yet-built identifier run the factory/constructor at
	// most once (§5, §8 property 10); every other lifetime builds
	// directly, since Scoped/Transient storage is never contended across
	// goroutines the way the shared root frame is. A Fresh call (Make
	// with overrides) always builds directly too: it is a deliberate
	// one-off that must not be deduplicated against, or permanently
	// cached as, the identifier's shared singleton.
	var (
		instance any
		cerr     error
	)

	if !kctx.Flags.Fresh && (lifetime == LifetimeSingleton || lifetime == LifetimeInstance) {
		instance, cerr = e.scopes.BuildSingletonOnce(kctx.ServiceID, func() (any, error) {
			return e.construct(kctx, *effective, def)
		})
	} else {
		instance, cerr = e.construct(kctx, *effective, def)
	}

	if cerr != nil {
		return nil, trace.Record(StageFail, OutcomeFailure, cerr.Error()), cerr
	}

	trace = trace.Record(StageInstantiate, OutcomeHit, "")
	trace = trace.Record(StageInject, OutcomeHit, "")

	return e.finish(kctx, instance, lifetime, nil, trace)
}

// construct runs the Instantiate, ApplyDecorators, and Inject stages
// for one (concrete, def) pair and returns the fully-injected instance.
// It is the unit of work shared verbatim between the direct build path
// and ScopeManager.BuildSingletonOnce's deduplicated path, so a
// Singleton factory that is slow or side-effecting still only ever
// runs through this exact sequence once per identifier.
func (e *Engine) construct(kctx *KernelContext, concrete Concrete, def *ServiceDefinition) (any, error) {
	instance, ierr := e.inst.Instantiate(kctx, concrete, def)
	if ierr != nil {
		return nil, wrapStage(ierr, kctx.ServiceID, StageInstantiate)
	}

	if def != nil {
		decorated, derr := e.inst.ApplyDecorators(kctx, def, instance)
		if derr != nil {
			return nil, wrapStage(derr, kctx.ServiceID, StageInstantiate)
		}

		instance = decorated
	}

	instance, jerr := e.inject.InjectResolved(kctx, concrete, instance)
	if jerr != nil {
		return nil, wrapStage(jerr, kctx.ServiceID, StageInject)
	}

	return instance, nil
}

// finish validates the FSM's terminal legality rule and stores the
// instance per lifetime before recording Success (§4.G, §8 property 9).
func (e *Engine) finish(kctx *KernelContext, instance any, lifetime Lifetime, err error, trace ResolutionTrace) (any, ResolutionTrace, error) {
	if err != nil {
		return nil, trace.Record(StageFail, OutcomeFailure, err.Error()), err
	}

	if last, ok := trace.Last(); ok && !legalTransition(last.Stage, StageSuccess) {
		violation := errContainerState("illegal pipeline transition " + last.Stage.String() + "->Success")

		return nil, trace.Record(StageFail, OutcomeFailure, violation.Error()), violation
	}

	if !trace.HasHit() {
		err := errNotFound(kctx.ServiceID, kctx.Path())

		return nil, trace.Record(StageFail, OutcomeFailure, err.Error()), err
	}

	if !kctx.Flags.Fresh {
		e.scopes.Put(kctx.ServiceID, instance, lifetime)
	}

	if markErr := kctx.MarkResolved(instance); markErr != nil {
		return nil, trace, markErr
	}

	return instance, trace.Record(StageSuccess, OutcomeHit, ""), nil
}

func (e *Engine) lookupScope(lifetime Lifetime, identifier string) (any, bool) {
	switch lifetime {
	case LifetimeSingleton, LifetimeInstance:
		return e.scopes.RootLookup(identifier)
	case LifetimeScoped:
		if !e.scopes.InScope() {
			return nil, false
		}

		return e.scopes.TopLookup(identifier)
	default:
		return nil, false
	}
}

func (e *Engine) defaultAutowireLifetime() Lifetime {
	return e.config.DefaultLifetime
}

// wrapStage attaches stage/identifier context to an error bubbling up
// from a nested call, preserving the original cause per §7's
// propagation rule ("each stage may wrap with additional context...
// preserving the original cause and trace").
func wrapStage(err error, identifier string, stage Stage) error {
	if re, ok := err.(*ResolutionError); ok {
		return re
	}

	return newResolutionError(CodeFactoryFailed, err.Error(), identifier, stage, nil, err)
}
