package di

import (
	"reflect"
	"sync"
)

// DependencyResolver resolves an argument vector from a
// MethodPrototype and caller overrides, given the current
// KernelContext (§4.F).
type DependencyResolver struct {
	engine *Engine
}

// NewDependencyResolver wires a resolver to the engine it recurses
// through for non-scalar parameters.
func NewDependencyResolver(e *Engine) *DependencyResolver {
	return &DependencyResolver{engine: e}
}

// ResolveArguments fills method's parameter list in declaration order,
// applying the priority rules of §4.F. It returns one reflect.Value per
// parameter, ready for reflect.Value.Call.
func (r *DependencyResolver) ResolveArguments(kctx *KernelContext, method *MethodPrototype, overrides map[string]any) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(method.Parameters))

	for i, p := range method.Parameters {
		if p.IsVariadic {
			v, err := r.resolveVariadic(kctx, p, overrides)
			if err != nil {
				return nil, err
			}

			args[i] = v

			continue
		}

		v, err := r.resolveOne(kctx, p, overrides)
		if err != nil {
			return nil, err
		}

		args[i] = v
	}

	return args, nil
}

func (r *DependencyResolver) resolveOne(kctx *KernelContext, p ParameterPrototype, overrides map[string]any) (reflect.Value, error) {
	// 1. explicit override wins, even over type.
	if v, ok := lookupOverride(overrides, p); ok {
		return coerceOverride(v, p), nil
	}

	// 2. resolvable, non-scalar type: recurse through the engine.
	if !isScalarKind(p.Type) {
		if kctx.Contains(p.TypeName) {
			return reflect.Value{}, errCycle(p.TypeName, append(kctx.Path(), kctx.ServiceID))
		}

		child := kctx.Child(p.TypeName, nil)

		instance, err := r.engine.Resolve(child)
		if err == nil {
			return asValue(instance, p.Type), nil
		}

		if !IsNotFound(err) {
			return reflect.Value{}, err
		}
		// fall through to default/null below on a plain "not registered" miss
	}

	// 3. default value.
	if p.HasDefault {
		return asValue(p.DefaultValue, p.Type), nil
	}

	// 4. nullable: use the zero value (Go's "null sentinel"); only pointer
	// and interface parameters allow null. p.Type can only be nil here for a
	// parameter rehydrated from the persisted prototype cache whose type
	// has not been re-interned yet in this process; such a parameter is
	// unresolvable until something interns it.
	if p.AllowsNull && p.Type != nil {
		return reflect.Zero(p.Type), nil
	}

	// 5. unresolvable.
	return reflect.Value{}, errMissingParam(kctx.ServiceID, p.Name, kctx.Path())
}

func (r *DependencyResolver) resolveVariadic(kctx *KernelContext, p ParameterPrototype, overrides map[string]any) (reflect.Value, error) {
	sliceType := reflect.SliceOf(p.Type)

	raw, ok := overrides[p.Name]
	if !ok {
		return reflect.Zero(sliceType), nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice {
		return reflect.Value{}, errMissingParam(kctx.ServiceID, p.Name, kctx.Path())
	}

	out := reflect.MakeSlice(sliceType, rv.Len(), rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out.Index(i).Set(asValue(rv.Index(i).Interface(), p.Type))
	}

	return out, nil
}

// LazyValue is a proxy for a DepLazy/DepLazyOptional dependency: the
// underlying resolution is deferred until Get is first called, so a
// factory can close over it without forcing the recursive resolve
// during its own construction — one sanctioned way to break a would-be
// cycle without disabling cycle detection (§3, §9).
type LazyValue struct {
	once  sync.Once
	value any
	err   error
	fn    func() (any, error)
}

func newLazyValue(fn func() (any, error)) *LazyValue {
	return &LazyValue{fn: fn}
}

// Get forces resolution the first time it is called and caches the
// result (or error) for subsequent calls.
func (l *LazyValue) Get() (any, error) {
	l.once.Do(func() {
		l.value, l.err = l.fn()
	})

	return l.value, l.err
}

// ResolveDep resolves a single named dependency per its DepMode: eager
// dependencies recurse immediately and fail on a miss; optional
// dependencies recurse immediately but return (nil, nil) on a NotFound
// miss; lazy and lazy-optional dependencies return a *LazyValue that
// defers the same behavior until Get is called (§3 "typed dependency
// modes", supplementing the teacher's RegisterOption.Deps).
func (r *DependencyResolver) ResolveDep(kctx *KernelContext, d Dep) (any, error) {
	resolveNow := func() (any, error) {
		if kctx.Contains(d.Name) {
			return nil, errCycle(d.Name, append(kctx.Path(), kctx.ServiceID))
		}

		child := kctx.Child(d.Name, nil)

		instance, err := r.engine.Resolve(child)
		if err != nil {
			if d.Mode.IsOptional() && IsNotFound(err) {
				return nil, nil
			}

			return nil, err
		}

		return instance, nil
	}

	if d.Mode.IsLazy() {
		return newLazyValue(resolveNow), nil
	}

	return resolveNow()
}

func lookupOverride(overrides map[string]any, p ParameterPrototype) (any, bool) {
	if overrides == nil {
		return nil, false
	}

	if v, ok := overrides[p.Name]; ok {
		return v, true
	}

	return nil, false
}

// coerceOverride wraps a raw override value as a reflect.Value,
// defaulting to the parameter's declared type for a nil override on a
// nullable parameter.
func coerceOverride(v any, p ParameterPrototype) reflect.Value {
	if v == nil {
		return reflect.Zero(p.Type)
	}

	return asValue(v, p.Type)
}

// asValue adapts a raw Go value to the reflect.Value expected at call
// site, handling the common case where an interface-typed parameter
// receives a concrete implementation.
func asValue(v any, target reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(target)
	}

	rv := reflect.ValueOf(v)
	if target != nil && rv.Type().AssignableTo(target) {
		return rv
	}

	if target != nil && rv.Type().ConvertibleTo(target) {
		return rv.Convert(target)
	}

	// zeroValue (di/instantiate.go) always autowires a pointer instance;
	// a field or parameter spelled as the bare struct type still accepts
	// it by dereferencing once.
	if target != nil && rv.Kind() == reflect.Ptr && rv.Type().Elem() == target {
		return rv.Elem()
	}

	return rv
}

// isScalarKind reports whether t is a Go primitive the resolver never
// attempts to autowire: it can only be filled by override, default, or
// null (§4.F).
func isScalarKind(t reflect.Type) bool {
	if t == nil {
		return true
	}

	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}
