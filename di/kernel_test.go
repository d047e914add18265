package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/dicontainer/log"
)

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()

	k, err := NewKernel(DefaultKernelConfig(), log.NewNoopLogger(), nil)
	require.NoError(t, err)

	return k
}

// ---- fixtures used across end-to-end scenarios ----------------------------

type counterService struct {
	n int
}

func newCounterFactory() Factory {
	return func(c Container) (any, error) {
		return &counterService{}, nil
	}
}

type greeterDep struct {
	Greeting string
}

type consumerClass struct {
	Dep *greeterDep `inject:""`
	n   int
}

func (c *consumerClass) InjectBump(d *greeterDep) {
	c.n++
}

type startStopService struct {
	name      string
	started   bool
	stopped   bool
	startErr  error
	healthErr error
}

func (s *startStopService) Name() string { return s.name }
func (s *startStopService) Start(ctx context.Context) error {
	s.started = true

	return s.startErr
}
func (s *startStopService) Stop(ctx context.Context) error {
	s.stopped = true

	return nil
}
func (s *startStopService) Health(ctx context.Context) error {
	return s.healthErr
}

type disposableThing struct {
	disposed bool
}

func (d *disposableThing) Dispose() error {
	d.disposed = true

	return nil
}

// ---- S1: singleton idempotence ---------------------------------------------

func TestKernel_SingletonIdempotence(t *testing.T) {
	k := newTestKernel(t)

	require.NoError(t, k.Register("counter", newCounterFactory(), Singleton()))

	a, err := k.Resolve("counter")
	require.NoError(t, err)

	b, err := k.Resolve("counter")
	require.NoError(t, err)

	assert.Same(t, a, b)
}

// ---- S4: concurrent singleton resolution builds the factory once ----------

func TestKernel_Singleton_ConcurrentResolveBuildsOnce(t *testing.T) {
	k := newTestKernel(t)

	var builds int32

	slowFactory := func(c Container) (any, error) {
		atomic.AddInt32(&builds, 1)
		time.Sleep(10 * time.Millisecond)

		return &counterService{}, nil
	}

	require.NoError(t, k.Register("counter", slowFactory, Singleton()))

	const goroutines = 32

	results := make([]any, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		i := i

		go func() {
			defer wg.Done()
			results[i], errs[i] = k.Resolve("counter")
		}()
	}

	wg.Wait()

	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i], "every concurrent resolve must observe the same singleton instance")
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&builds), "the factory must run at most once across concurrent resolutions")
}

// ---- Transient: new instance every time ------------------------------------

func TestKernel_TransientProducesNewInstanceEveryTime(t *testing.T) {
	k := newTestKernel(t)

	require.NoError(t, k.Register("counter", newCounterFactory(), Transient()))

	a, err := k.Resolve("counter")
	require.NoError(t, err)

	b, err := k.Resolve("counter")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

// ---- S5: scoped lifetime ----------------------------------------------------

func TestKernel_ScopedLifetime(t *testing.T) {
	k := newTestKernel(t)
	identifier := formatType(reflect.TypeOf(greeterDep{}))

	require.NoError(t, k.Define(identifier, reflect.TypeOf(greeterDep{}), nil, LifetimeScoped))

	scopeX := k.BeginScope()

	a, err := scopeX.Resolve(identifier)
	require.NoError(t, err)

	b, err := scopeX.Resolve(identifier)
	require.NoError(t, err)

	assert.Same(t, a, b, "two resolves within one scope share the instance")

	require.NoError(t, scopeX.End())

	scopeY := k.BeginScope()

	c, err := scopeY.Resolve(identifier)
	require.NoError(t, err)

	assert.NotSame(t, a, c, "a new scope must yield a new instance")
	require.NoError(t, scopeY.End())
}

func TestKernel_ScopedLifetime_OutsideScopeIsViolation(t *testing.T) {
	k := newTestKernel(t)
	identifier := formatType(reflect.TypeOf(greeterDep{}))

	require.NoError(t, k.Define(identifier, reflect.TypeOf(greeterDep{}), nil, LifetimeScoped))

	_, err := k.Resolve(identifier)
	require.Error(t, err)
	assert.True(t, hasCode(err, CodeScopeViolation))
}

// ---- Autowiring + property/method injection ---------------------------------

func TestKernel_AutowireWithPropertyAndMethodInjection(t *testing.T) {
	k := newTestKernel(t)

	depID := formatType(reflect.TypeOf(&greeterDep{}))
	require.NoError(t, k.Define(depID, reflect.TypeOf(&greeterDep{}), nil, LifetimeSingleton))

	consumerID := formatType(reflect.TypeOf(consumerClass{}))
	require.NoError(t, k.Define(consumerID, reflect.TypeOf(consumerClass{}), nil, LifetimeTransient))

	instance, err := k.Resolve(consumerID)
	require.NoError(t, err)

	consumer, ok := instance.(*consumerClass)
	require.True(t, ok)
	assert.NotNil(t, consumer.Dep, "property injection must populate the Dep field")
	assert.Equal(t, 1, consumer.n, "InjectBump must be invoked once during resolution")
}

// ---- Cycle detection ---------------------------------------------------------

type cycleA struct {
	B *cycleB `inject:""`
}

type cycleB struct {
	A *cycleA `inject:""`
}

func TestKernel_CycleDetection(t *testing.T) {
	k := newTestKernel(t)

	aID := formatType(reflect.TypeOf(&cycleA{}))
	bID := formatType(reflect.TypeOf(&cycleB{}))

	require.NoError(t, k.Define(aID, reflect.TypeOf(&cycleA{}), nil, LifetimeTransient))
	require.NoError(t, k.Define(bID, reflect.TypeOf(&cycleB{}), nil, LifetimeTransient))

	_, err := k.Resolve(aID)
	require.Error(t, err)
	assert.True(t, IsCycle(err))
}

// ---- Contextual bindings ------------------------------------------------------

type contextualTarget struct {
	Logger *greeterDep `inject:""`
}

func TestKernel_ContextualBindingOverridesForOneConsumer(t *testing.T) {
	k := newTestKernel(t)

	targetID := formatType(reflect.TypeOf(contextualTarget{}))
	require.NoError(t, k.Define(targetID, reflect.TypeOf(contextualTarget{}), nil, LifetimeTransient))

	depID := formatType(reflect.TypeOf(&greeterDep{}))
	require.NoError(t, k.Define(depID, reflect.TypeOf(&greeterDep{}), nil, LifetimeSingleton))

	special := &greeterDep{Greeting: "special"}
	require.NoError(t, k.Contextual(targetID, depID, PreBuiltConcrete(special)))

	instance, err := k.Resolve(targetID)
	require.NoError(t, err)

	target := instance.(*contextualTarget)
	assert.Same(t, special, target.Logger)
}

// ---- Decorators: ordering ------------------------------------------------------

type wrapLayer struct {
	Label string
}

func newWrap1(inner *wrapLayer) *wrapLayer {
	return &wrapLayer{Label: "wrap1(" + inner.Label + ")"}
}

func newWrap2(inner *wrapLayer) *wrapLayer {
	return &wrapLayer{Label: "wrap2(" + inner.Label + ")"}
}

func TestKernel_DecoratorOrdering(t *testing.T) {
	k := newTestKernel(t)

	primaryID := "primary"
	require.NoError(t, k.defs.Define(primaryID, FactoryConcrete(func(c Container) (any, error) {
		return &wrapLayer{Label: "base"}, nil
	}), LifetimeTransient, nil, nil))

	require.NoError(t, k.Define("wrap1", reflect.TypeOf(wrapLayer{}), newWrap1, LifetimeTransient))
	require.NoError(t, k.Define("wrap2", reflect.TypeOf(wrapLayer{}), newWrap2, LifetimeTransient))

	def, ok := k.defs.Get(primaryID)
	require.True(t, ok)
	def.Decorators = []DecoratorSpec{
		{Identifier: "wrap1", ParamName: "arg0"},
		{Identifier: "wrap2", ParamName: "arg0"},
	}

	instance, err := k.Resolve(primaryID)
	require.NoError(t, err)

	layer, ok := instance.(*wrapLayer)
	require.True(t, ok)
	assert.Equal(t, "wrap2(wrap1(base))", layer.Label)
}

// ---- Make with overrides bypasses the scope cache -----------------------------

func TestKernel_MakeWithOverridesBypassesCache(t *testing.T) {
	k := newTestKernel(t)

	require.NoError(t, k.Register("counter", newCounterFactory(), Singleton()))

	cached, err := k.Resolve("counter")
	require.NoError(t, err)

	fresh, err := k.Make("counter", map[string]any{"unused": true})
	require.NoError(t, err)

	assert.NotSame(t, cached, fresh, "Make with overrides must not reuse or overwrite the cached singleton")

	cachedAgain, err := k.Resolve("counter")
	require.NoError(t, err)
	assert.Same(t, cached, cachedAgain, "the singleton itself must be untouched by the override build")
}

// ---- Start/Stop/Health lifecycle -----------------------------------------------

func TestKernel_StartStopHealthLifecycle(t *testing.T) {
	k := newTestKernel(t)

	base := &startStopService{name: "base"}
	dependent := &startStopService{name: "dependent"}

	require.NoError(t, k.Register("base", func(c Container) (any, error) { return base, nil }, Singleton()))
	require.NoError(t, k.Register("dependent", func(c Container) (any, error) { return dependent, nil },
		Singleton(), WithDependencies("base")))

	require.NoError(t, k.Start(context.Background()))
	assert.True(t, base.started)
	assert.True(t, dependent.started)
	assert.True(t, k.IsStarted("base"))
	assert.True(t, k.IsStarted("dependent"))

	require.NoError(t, k.Health(context.Background()))

	base.healthErr = fmt.Errorf("degraded")
	err := k.Health(context.Background())
	require.Error(t, err)

	require.NoError(t, k.Stop(context.Background()))
	assert.True(t, base.stopped)
	assert.True(t, dependent.stopped)
}

// ---- Disposal on scope end ------------------------------------------------------

func TestKernel_DisposalOnScopeEnd(t *testing.T) {
	k := newTestKernel(t)

	identifier := "disposable"
	require.NoError(t, k.defs.Define(identifier, FactoryConcrete(func(c Container) (any, error) {
		return &disposableThing{}, nil
	}), LifetimeScoped, nil, nil))

	scope := k.BeginScope()

	instance, err := scope.Resolve(identifier)
	require.NoError(t, err)

	thing := instance.(*disposableThing)
	assert.False(t, thing.disposed)

	require.NoError(t, scope.End())
	assert.True(t, thing.disposed)
}

// ---- Alias resolution -------------------------------------------------------------

func TestKernel_Alias(t *testing.T) {
	k := newTestKernel(t)

	require.NoError(t, k.Register("real", newCounterFactory(), Singleton()))
	require.NoError(t, k.Alias("nickname", "real"))

	real, err := k.Resolve("real")
	require.NoError(t, err)

	viaAlias, err := k.Resolve("nickname")
	require.NoError(t, err)

	assert.Same(t, real, viaAlias)
}

// ---- Instance / pre-built values ---------------------------------------------------

func TestKernel_Instance(t *testing.T) {
	k := newTestKernel(t)

	preset := &greeterDep{Greeting: "hi"}
	require.NoError(t, k.Instance("preset", preset))

	got, err := k.Resolve("preset")
	require.NoError(t, err)
	assert.Same(t, preset, got)
}

// ---- Call: functions and Class@method ------------------------------------------------

func TestKernel_Call_PlainFunction(t *testing.T) {
	k := newTestKernel(t)

	depID := formatType(reflect.TypeOf(&greeterDep{}))
	require.NoError(t, k.Define(depID, reflect.TypeOf(&greeterDep{}), nil, LifetimeSingleton))

	result, err := k.Call(func(d *greeterDep) string {
		return "called"
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "called", result)
}

type invocationTarget struct{}

func (invocationTarget) Handle(d *greeterDep) string { return "handled" }

func TestKernel_Call_ClassAtMethod(t *testing.T) {
	k := newTestKernel(t)

	targetID := "invocationTarget"
	require.NoError(t, k.Define(targetID, reflect.TypeOf(invocationTarget{}), nil, LifetimeSingleton))

	depID := formatType(reflect.TypeOf(&greeterDep{}))
	require.NoError(t, k.Define(depID, reflect.TypeOf(&greeterDep{}), nil, LifetimeSingleton))

	result, err := k.Call(targetID+"@Handle", nil)
	require.NoError(t, err)
	assert.Equal(t, "handled", result)
}

// ---- Injection inspection ------------------------------------------------------------

func TestKernel_InspectInjectionAndCanInject(t *testing.T) {
	k := newTestKernel(t)

	report := k.InspectInjection(&consumerClass{})
	assert.Contains(t, report.Properties, "Dep")
	assert.Contains(t, report.Methods, "InjectBump")

	assert.True(t, k.CanInject(&consumerClass{}))
	assert.False(t, k.CanInject(&startStopService{}))
}

// ---- VerifyAll --------------------------------------------------------------------------

type unresolvableDeps struct {
	Missing chan int `inject:""`
}

func TestKernel_VerifyAll_CollectsFailuresWithoutStopping(t *testing.T) {
	k := newTestKernel(t)

	goodID := formatType(reflect.TypeOf(greeterDep{}))
	require.NoError(t, k.Define(goodID, reflect.TypeOf(greeterDep{}), nil, LifetimeSingleton))

	badID := formatType(reflect.TypeOf(unresolvableDeps{}))
	require.NoError(t, k.Define(badID, reflect.TypeOf(unresolvableDeps{}), nil, LifetimeTransient))

	report := k.VerifyAll()
	assert.True(t, report.HasErrors())
	assert.Contains(t, report.Errors, badID)
	assert.NotContains(t, report.Errors, goodID)
}

// ---- ResolveDep typed dependency modes ---------------------------------------------------

func TestKernel_ResolveDep_OptionalMissingReturnsNil(t *testing.T) {
	k := newTestKernel(t)

	v, err := k.ResolveDep(Optional("does-not-exist"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestKernel_ResolveDep_EagerMissingFails(t *testing.T) {
	k := newTestKernel(t)

	_, err := k.ResolveDep(Eager("does-not-exist"))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestKernel_ResolveDep_LazyDefersResolution(t *testing.T) {
	k := newTestKernel(t)

	require.NoError(t, k.Register("lazy-counter", newCounterFactory(), Singleton()))

	v, err := k.ResolveDep(Lazy("lazy-counter"))
	require.NoError(t, err)

	lazy, ok := v.(*LazyValue)
	require.True(t, ok)

	resolved, err := lazy.Get()
	require.NoError(t, err)
	assert.IsType(t, &counterService{}, resolved)
}

// ---- Quantiles -------------------------------------------------------------------------

func TestKernel_Quantiles_ZeroBeforeAnyResolution(t *testing.T) {
	k := newTestKernel(t)

	p50, p90, p99 := k.Quantiles("never-resolved")
	assert.Equal(t, 0.0, p50)
	assert.Equal(t, 0.0, p90)
	assert.Equal(t, 0.0, p99)

	require.NoError(t, k.Register("counter", newCounterFactory(), Singleton()))
	_, err := k.Resolve("counter")
	require.NoError(t, err)

	p50, _, _ = k.Quantiles("counter")
	assert.GreaterOrEqual(t, p50, 0.0)
}
