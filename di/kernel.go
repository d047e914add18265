package di

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/xraph/dicontainer/log"
)

// legacyRegistration tracks the bookkeeping needed to replay the
// teacher's original Register/Start/Stop/Inspect contract on top of
// the resolution pipeline: declared dependency names (for topological
// start order) and lifecycle/health state.
type legacyRegistration struct {
	opts    RegisterOption
	started bool
}

// Kernel is the facade that wires the Definition Store, Scope Manager,
// Prototype Factory, Engine, Invocation Executor and Injection
// Executor into one object, and is the only type client code outside
// this package constructs directly (§4.L).
type Kernel struct {
	config   KernelConfig
	analyzer *analyzer
	cache    *PrototypeCache
	protos   *PrototypeFactory
	defs     *DefinitionStore
	scopes   *ScopeManager
	engine   *Engine
	invoker  *InvocationExecutor
	telem    *Telemetry
	logger   log.Logger

	mu     sync.Mutex
	legacy map[string]*legacyRegistration
	order  []string
}

// NewKernel assembles a Kernel from configuration, a logger, and an
// optional metrics sink (nil disables metric emission but keeps
// logging and quantile tracking).
func NewKernel(config KernelConfig, logger log.Logger, sink MetricsSink) (*Kernel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.NewNoopLogger()
	}

	a := newAnalyzer()
	cache := NewPrototypeCache(config.PrototypeCacheLimit, config.PrototypeCacheDir, a)
	protos := NewPrototypeFactory(a, cache)
	defs := NewDefinitionStore(protos, a)
	scopes := NewScopeManager()

	var metricsSink MetricsSink
	if config.MetricsEnabled {
		metricsSink = sink
	}

	telem := NewTelemetry(logger, metricsSink, config.TracingEnabled)
	engine := NewEngine(config, defs, scopes, protos, a, telem, logger)

	k := &Kernel{
		config:   config,
		analyzer: a,
		cache:    cache,
		protos:   protos,
		defs:     defs,
		scopes:   scopes,
		engine:   engine,
		telem:    telem,
		logger: logger.Named("kernel"),
		legacy: make(map[string]*legacyRegistration),
	}

	k.invoker = NewInvocationExecutor(engine)

	if err := engine.Wire(k); err != nil {
		return nil, err
	}

	scopes.WithTerminator(k.disposeOne)

	return k, nil
}

func (k *Kernel) rootFlags() ContextFlags {
	return ContextFlags{
		AutoDefine: k.config.AutoDefine,
		Strict:     k.config.StrictMode,
		DevMode:    k.config.DevMode,
	}
}

// ---- di.Container -----------------------------------------------------

// Register adds a service factory to the container, matching the
// teacher's original Container contract. Internally it is represented
// as a ConcreteFactoryKind definition, so it participates in the same
// resolution pipeline as reflection-based class registrations.
func (k *Kernel) Register(name string, factory Factory, opts ...RegisterOption) error {
	merged := MergeOptions(opts)
	lifetime := lifetimeFromLegacy(merged.Lifecycle)

	if err := k.defs.Define(name, FactoryConcrete(factory), lifetime, merged.Groups, nil); err != nil {
		return err
	}

	k.mu.Lock()
	if _, exists := k.legacy[name]; !exists {
		k.order = append(k.order, name)
	}

	k.legacy[name] = &legacyRegistration{opts: merged}
	k.mu.Unlock()

	return nil
}

// Resolve returns a service by name via the full resolution pipeline.
func (k *Kernel) Resolve(name string) (any, error) {
	return k.engine.Resolve(NewRootContext(name, k.rootFlags(), nil))
}

// ResolveReady resolves name after ensuring it and its declared
// dependencies have been started, in dependency order.
func (k *Kernel) ResolveReady(ctx context.Context, name string) (any, error) {
	if err := k.startOne(ctx, name, map[string]bool{}); err != nil {
		return nil, err
	}

	return k.Resolve(name)
}

// ResolveDep resolves a single typed dependency per its DepMode,
// honoring DepLazy/DepOptional/DepLazyOptional instead of always
// recursing eagerly — the counterpart a Factory-based legacy
// registration uses in place of a raw Resolve call when it declared
// its dependencies via WithDeps.
func (k *Kernel) ResolveDep(d Dep) (any, error) {
	return k.engine.resolver.ResolveDep(NewRootContext("$resolveDep", k.rootFlags(), nil), d)
}

// Has reports whether name is registered, either via a definition or
// an interned, autowirable reflect.Type.
func (k *Kernel) Has(name string) bool {
	return k.defs.Has(name) || k.analyzer.canResolveType(name)
}

// IsStarted reports whether name's lifecycle Start has run.
func (k *Kernel) IsStarted(name string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	reg, ok := k.legacy[name]

	return ok && reg.started
}

// Services returns every registered service name, sorted for stable
// diagnostics output.
func (k *Kernel) Services() []string {
	defs := k.defs.All()
	names := make([]string, 0, len(defs))

	for name := range defs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// BeginScope pushes a new scope frame and returns a handle bound to
// it.
func (k *Kernel) BeginScope() Scope {
	id := k.scopes.BeginScope()

	return &kernelScope{kernel: k, id: id}
}

// Start initializes every legacy-registered service implementing
// Service, in dependency order (a DFS topological sort over declared
// dependency names), then freezes the Definition Store when
// FreezeOnStart is set.
func (k *Kernel) Start(ctx context.Context) error {
	k.mu.Lock()
	names := append([]string{}, k.order...)
	k.mu.Unlock()

	visited := map[string]bool{}

	for _, name := range names {
		if err := k.startOne(ctx, name, visited); err != nil {
			return err
		}
	}

	if k.config.FreezeOnStart {
		k.defs.Freeze()
	}

	return nil
}

func (k *Kernel) startOne(ctx context.Context, name string, visiting map[string]bool) error {
	k.mu.Lock()
	reg, ok := k.legacy[name]
	k.mu.Unlock()

	if !ok {
		return nil // not a legacy-registered lifecycle service; nothing to start
	}

	if reg.started {
		return nil
	}

	if visiting[name] {
		return errCycle(name, nil)
	}

	visiting[name] = true

	for _, dep := range reg.opts.GetAllDepNames() {
		if err := k.startOne(ctx, dep, visiting); err != nil {
			return err
		}
	}

	instance, err := k.Resolve(name)
	if err != nil {
		return err
	}

	if svc, ok := instance.(Service); ok {
		if err := svc.Start(ctx); err != nil {
			return fmt.Errorf("starting %q: %w", name, err)
		}
	}

	k.mu.Lock()
	reg.started = true
	k.mu.Unlock()

	return nil
}

// Stop shuts down every started legacy service in reverse
// registration order.
func (k *Kernel) Stop(ctx context.Context) error {
	k.mu.Lock()
	names := append([]string{}, k.order...)
	k.mu.Unlock()

	var combined error

	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]

		k.mu.Lock()
		reg, ok := k.legacy[name]
		k.mu.Unlock()

		if !ok || !reg.started {
			continue
		}

		instance, found := k.scopes.RootLookup(name)
		if !found {
			continue
		}

		if svc, ok := instance.(Service); ok {
			if err := svc.Stop(ctx); err != nil {
				combined = multierr.Append(combined, fmt.Errorf("stopping %q: %w", name, err))
			}
		}

		k.mu.Lock()
		reg.started = false
		k.mu.Unlock()
	}

	return combined
}

// Health aggregates HealthChecker results across every legacy service
// whose instance is held in the root scope (started or not), combining
// every failure rather than stopping at the first.
func (k *Kernel) Health(ctx context.Context) error {
	k.mu.Lock()
	names := append([]string{}, k.order...)
	k.mu.Unlock()

	var combined error

	for _, name := range names {
		instance, found := k.scopes.RootLookup(name)
		if !found {
			continue
		}

		if hc, ok := instance.(HealthChecker); ok {
			if err := hc.Health(ctx); err != nil {
				combined = multierr.Append(combined, fmt.Errorf("%q: %w", name, err))
			}
		}
	}

	return combined
}

// Inspect returns diagnostic information about a registered service.
func (k *Kernel) Inspect(name string) ServiceInfo {
	info := ServiceInfo{Name: name, Metadata: make(map[string]string)}

	def, ok := k.defs.Get(name)
	if !ok {
		return info
	}

	info.Lifecycle = def.Lifetime.String()

	if t := def.Concrete.Type; t != nil {
		info.Type = formatType(t)
	}

	k.mu.Lock()
	reg, hasLegacy := k.legacy[name]
	k.mu.Unlock()

	if hasLegacy {
		info.Dependencies = reg.opts.Dependencies
		info.Deps = reg.opts.GetAllDeps()
		info.Started = reg.started
		info.Metadata = reg.opts.Metadata
	}

	if instance, found := k.scopes.RootLookup(name); found {
		if hc, ok := instance.(HealthChecker); ok {
			info.Healthy = hc.Health(context.Background()) == nil
		} else {
			info.Healthy = true
		}
	}

	return info
}

// ---- spec-named facade operations --------------------------------------

// Get is the primary resolution entry point (alias for Resolve, named
// to match the container's own vocabulary for a plain lookup).
func (k *Kernel) Get(identifier string) (any, error) {
	return k.Resolve(identifier)
}

// Make resolves identifier, applying overrides to the root
// construction call. A non-empty override map makes the call a
// one-off build: the scope cache is neither consulted nor updated, so
// a Singleton's shared instance is left untouched.
func (k *Kernel) Make(identifier string, overrides map[string]any) (any, error) {
	flags := k.rootFlags()
	flags.Fresh = len(overrides) > 0

	return k.engine.Resolve(NewRootContext(identifier, flags, overrides))
}

// Instance registers an already-constructed value under identifier,
// as a LifetimeInstance definition.
func (k *Kernel) Instance(identifier string, instance any) error {
	return k.defs.Define(identifier, PreBuiltConcrete(instance), LifetimeInstance, nil, nil)
}

// Call invokes callable (a func, or a "Class@method" string) with
// arguments resolved through the dependency resolver.
func (k *Kernel) Call(callable any, overrides map[string]any) (any, error) {
	c, err := toCallable(callable)
	if err != nil {
		return nil, err
	}

	kctx := NewRootContext("$call", k.rootFlags(), overrides)

	return k.invoker.Call(kctx, c, overrides)
}

func toCallable(callable any) (Callable, error) {
	if s, ok := callable.(string); ok {
		return NewClassMethodCallable(s)
	}

	return NewCallable(callable), nil
}

// InjectInto performs property/method injection on obj in place,
// returning a report of what succeeded or failed. Best-effort unless
// StrictMode is configured.
func (k *Kernel) InjectInto(obj any) (any, *InjectionReport) {
	kctx := NewRootContext("$injectInto", k.rootFlags(), nil)

	return k.engine.inject.InjectInto(kctx, obj, k.config.StrictMode)
}

// CanInject reports whether obj exposes any inject-marked property or
// method.
func (k *Kernel) CanInject(obj any) bool {
	return k.engine.inject.CanInject(obj)
}

// InspectInjection enumerates obj's injection points without
// performing the injection.
func (k *Kernel) InspectInjection(obj any) *InjectionReport {
	return k.engine.inject.InspectInjection(obj)
}

// Define registers a reflection-based class binding, the native
// counterpart to Register's opaque-factory binding.
func (k *Kernel) Define(identifier string, t reflect.Type, ctor any, lifetime Lifetime) error {
	k.analyzer.intern(identifier, t)

	return k.defs.Define(identifier, ClassConcrete(identifier, t, ctor), lifetime, nil, nil)
}

// Alias registers identifier as resolving to other.
func (k *Kernel) Alias(identifier, other string) error {
	return k.defs.Alias(identifier, other)
}

// Contextual registers a per-consumer override.
func (k *Kernel) Contextual(consumer, needed string, override Concrete) error {
	return k.defs.Contextual(consumer, needed, override)
}

// VerifyAll runs the prototype verifier across every registered
// ConcreteClassKind identifier, collecting failures instead of
// stopping at the first one (§4.B rule 4).
func (k *Kernel) VerifyAll() *VerificationReport {
	defs := k.defs.All()
	names := make([]string, 0, len(defs))

	for name, def := range defs {
		if def.Concrete.Kind == ConcreteClassKind {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return k.protos.VerifyAll(names)
}

// Quantiles reports p50/p90/p99 resolution latency in milliseconds for
// identifier.
func (k *Kernel) Quantiles(identifier string) (p50, p90, p99 float64) {
	return k.telem.Quantiles(identifier)
}

func (k *Kernel) disposeOne(identifier string, instance any) {
	if d, ok := instance.(Disposable); ok {
		if err := d.Dispose(); err != nil {
			k.logger.Warn("scoped service disposal failed", log.String("identifier", identifier), log.Error(err))
		}
	}
}

// kernelScope adapts the single shared ScopeManager stack to the
// per-handle di.Scope contract: Resolve pushes identifiers onto
// whichever frame is currently on top, and End pops this handle's
// frame, which must be the current top (LIFO discipline, §4.E).
type kernelScope struct {
	kernel *Kernel
	id     string
}

func (s *kernelScope) Resolve(name string) (any, error) {
	return s.kernel.Resolve(name)
}

func (s *kernelScope) End() error {
	return s.kernel.scopes.EndScope(s.id)
}
