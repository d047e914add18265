package di

import (
	"fmt"
	"reflect"
)

// Instantiator builds an object via constructor (or zero-value
// construction) with resolved arguments, and applies registered
// decorators in order (§4.I).
type Instantiator struct {
	engine *Engine
}

// NewInstantiator wires an instantiator to its engine.
func NewInstantiator(e *Engine) *Instantiator {
	return &Instantiator{engine: e}
}

// Instantiate produces an instance from a resolved Concrete. def may be
// nil for autowired, unregistered classes.
func (inst *Instantiator) Instantiate(kctx *KernelContext, concrete Concrete, def *ServiceDefinition) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errFactoryFailed(kctx.ServiceID, kctx.Path(), fmt.Errorf("panic during instantiation: %v", r))
		}
	}()

	switch concrete.Kind {
	case ConcreteFactoryKind:
		return inst.instantiateLegacyFactory(kctx, concrete)
	case ConcreteClassKind:
		return inst.instantiateClass(kctx, concrete, def)
	case ConcretePreBuiltKind:
		return concrete.PreBuilt, nil
	default:
		return nil, errContainerState(fmt.Sprintf("%q cannot be instantiated from an alias concrete", kctx.ServiceID))
	}
}

func (inst *Instantiator) instantiateLegacyFactory(kctx *KernelContext, concrete Concrete) (any, error) {
	if concrete.Legacy == nil {
		return nil, errFactoryFailed(kctx.ServiceID, kctx.Path(), fmt.Errorf("no factory provided"))
	}

	value, err := concrete.Legacy(inst.engine.kernel)
	if err != nil {
		return nil, errFactoryFailed(kctx.ServiceID, kctx.Path(), err)
	}

	return value, nil
}

func (inst *Instantiator) instantiateClass(kctx *KernelContext, concrete Concrete, def *ServiceDefinition) (any, error) {
	proto, err := inst.engine.protos.CreateFor(concrete.ClassName)
	if err != nil {
		return nil, err
	}

	if proto.Constructor == nil {
		return inst.zeroValue(proto), nil
	}

	overrides := mergeOverrides(def, kctx)

	args, err := inst.engine.resolver.ResolveArguments(kctx, proto.Constructor, overrides)
	if err != nil {
		return nil, err
	}

	ctorValue, ok := inst.engine.protos.constructorOf(concrete.ClassName)
	if !ok {
		return nil, errVerificationFailed(concrete.ClassName, "constructor vanished between build and call", nil)
	}

	results := ctorValue.Call(args)

	return splitConstructorResults(kctx, results)
}

// zeroValue builds an instance of proto.Type via reflect.New, used for
// autowired classes and registered classes without an explicit
// constructor function — property/method injection fills the rest.
// It always hands back a pointer, regardless of whether proto.Type was
// itself spelled as a pointer or a bare struct: injectableProperties/
// injectableMethods (di/prototype.go) already normalize through any
// number of pointer layers to find the underlying struct, and
// InjectResolved requires a settable, pointer-identity instance to
// mutate in place and cache correctly.
func (inst *Instantiator) zeroValue(proto *ServicePrototype) any {
	t := proto.Type
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return reflect.New(t).Interface()
}

// splitConstructorResults handles the two sanctioned constructor
// return shapes: (T) or (T, error).
func splitConstructorResults(kctx *KernelContext, results []reflect.Value) (any, error) {
	switch len(results) {
	case 1:
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
		return nil, errFactoryFailed(kctx.ServiceID, kctx.Path(), fmt.Errorf("constructor must return (T) or (T, error), got %d values", len(results)))
	}
}

// mergeOverrides combines a definition's registered constructor
// overrides with the caller's per-call overrides (from make(id,
// overrides)), the latter taking priority — this only applies at the
// context that is directly resolving this identifier, never to a
// recursively-resolved dependency, since child contexts start with
// their own override map (§8 property 4).
func mergeOverrides(def *ServiceDefinition, kctx *KernelContext) map[string]any {
	merged := make(map[string]any)

	if def != nil {
		for k, v := range def.ConstructorArgs {
			merged[k] = v
		}
	}

	for k, v := range kctx.Overrides {
		merged[k] = v
	}

	return merged
}

// ApplyDecorators wraps instance with every decorator registered for
// def, in registration order, so the returned object is
// D2(D1(primary)) for decorators [D1, D2] (§4.I, §8 property 8).
func (inst *Instantiator) ApplyDecorators(kctx *KernelContext, def *ServiceDefinition, instance any) (any, error) {
	current := instance

	for _, dec := range def.Decorators {
		child := kctx.Child(dec.Identifier, map[string]any{dec.ParamName: current})

		wrapped, err := inst.engine.Resolve(child)
		if err != nil {
			return nil, err
		}

		current = wrapped
	}

	return current, nil
}
