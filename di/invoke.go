package di

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Callable is anything the Invocation Executor can turn into a call:
// a plain function, a bound method value, or a "Class@method" string
// resolved against the container at call time (§4.K).
type Callable struct {
	raw    any
	class  string
	method string
}

// NewCallable wraps a function or bound method value for Call.
func NewCallable(fn any) Callable {
	return Callable{raw: fn}
}

// NewClassMethodCallable parses the "Class@method" convention: at call
// time class is resolved through the container and method is looked up
// on that instance. There is no receiver-less form; every call resolves
// a receiver first.
func NewClassMethodCallable(spec string) (Callable, error) {
	parts := strings.SplitN(spec, "@", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Callable{}, fmt.Errorf("invalid class@method callable %q", spec)
	}

	return Callable{class: parts[0], method: parts[1]}, nil
}

// key returns a stable cache key for this callable's reflected shape.
func (c Callable) key() string {
	if c.class != "" {
		return "classmethod:" + c.class + "@" + c.method
	}

	return fmt.Sprintf("func:%s", reflect.ValueOf(c.raw).Pointer())
}

// InvocationExecutor invokes arbitrary callables with arguments
// resolved through the Dependency Resolver, caching the reflected
// signature of each distinct callable (§4.K).
type InvocationExecutor struct {
	engine *Engine

	mu    sync.RWMutex
	cache map[string]*MethodPrototype
}

// NewInvocationExecutor wires an executor to its engine.
func NewInvocationExecutor(e *Engine) *InvocationExecutor {
	return &InvocationExecutor{engine: e, cache: make(map[string]*MethodPrototype)}
}

// Call resolves c's arguments from kctx plus overrides and invokes it,
// returning the first non-error result (or nil for callables with no
// return value).
func (inv *InvocationExecutor) Call(kctx *KernelContext, c Callable, overrides map[string]any) (any, error) {
	fn, proto, err := inv.reflect(c)
	if err != nil {
		return nil, err
	}

	args, err := inv.engine.resolver.ResolveArguments(kctx, proto, overrides)
	if err != nil {
		return nil, err
	}

	results := fn.Call(args)

	return splitInvocationResults(kctx, c, results)
}

func (inv *InvocationExecutor) reflect(c Callable) (reflect.Value, *MethodPrototype, error) {
	key := c.key()

	inv.mu.RLock()
	cached, ok := inv.cache[key]
	inv.mu.RUnlock()

	if ok {
		fn, err := inv.bind(c)
		if err != nil {
			return reflect.Value{}, nil, err
		}

		return fn, cached, nil
	}

	fn, err := inv.bind(c)
	if err != nil {
		return reflect.Value{}, nil, err
	}

	proto := constructorOf(inv.label(c), fn)
	if proto == nil {
		return reflect.Value{}, nil, fmt.Errorf("callable %q is not a function", inv.label(c))
	}

	inv.mu.Lock()
	inv.cache[key] = proto
	inv.mu.Unlock()

	return fn, proto, nil
}

// bind resolves a "Class@method" callable against the live container,
// or returns the already-wrapped function/bound-method value.
func (inv *InvocationExecutor) bind(c Callable) (reflect.Value, error) {
	if c.class == "" {
		v := reflect.ValueOf(c.raw)
		if v.Kind() != reflect.Func {
			return reflect.Value{}, fmt.Errorf("callable must be a func, got %T", c.raw)
		}

		return v, nil
	}

	receiverCtx := NewRootContext(c.class, ContextFlags{}, nil)

	receiver, err := inv.engine.Resolve(receiverCtx)
	if err != nil {
		return reflect.Value{}, err
	}

	rv := reflect.ValueOf(receiver)

	m := rv.MethodByName(c.method)
	if !m.IsValid() {
		// fall back to a method on the pointer, for value-resolved
		// receivers whose methods are only defined on *T.
		if rv.CanAddr() {
			m = rv.Addr().MethodByName(c.method)
		}

		if !m.IsValid() {
			return reflect.Value{}, fmt.Errorf("method %q not found on %s", c.method, c.class)
		}
	}

	return m, nil
}

func (inv *InvocationExecutor) label(c Callable) string {
	if c.class != "" {
		return c.class + "@" + c.method
	}

	return "callable"
}

func splitInvocationResults(kctx *KernelContext, c Callable, results []reflect.Value) (any, error) {
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		if e, ok := results[0].Interface().(error); ok {
			return nil, e
		}

		return results[0].Interface(), nil
	case 2:
		errVal := results[1].Interface()
		if errVal != nil {
			if e, ok := errVal.(error); ok {
				return nil, errFactoryFailed(kctx.ServiceID, kctx.Path(), e)
			}
		}

		return results[0].Interface(), nil
	default:
		return nil, fmt.Errorf("call returned %d values, expected at most (T, error)", len(results))
	}
}
