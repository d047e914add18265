package di

import (
	"fmt"
	"reflect"
	"sync"
)

// PrototypeFactory builds and caches ServicePrototype blueprints,
// running the Verifier before every cache write (§4.B).
type PrototypeFactory struct {
	analyzer *analyzer
	cache    *PrototypeCache

	mu    sync.RWMutex
	ctors map[string]reflect.Value // identifier -> constructor function, set by the Definition Store
}

// NewPrototypeFactory wires an analyzer and cache together.
func NewPrototypeFactory(a *analyzer, cache *PrototypeCache) *PrototypeFactory {
	return &PrototypeFactory{analyzer: a, cache: cache, ctors: make(map[string]reflect.Value)}
}

// registerConstructor associates an identifier with the constructor
// function used to build it, discovered from a ServiceDefinition whose
// Concrete is ConcreteClass. Re-registering the same identifier
// invalidates any cached prototype for it (the constructor shape may
// have changed).
func (f *PrototypeFactory) registerConstructor(identifier string, ctor reflect.Value) {
	f.mu.Lock()
	f.ctors[identifier] = ctor
	f.mu.Unlock()
	f.cache.Remove(identifier)
}

func (f *PrototypeFactory) constructorOf(identifier string) (reflect.Value, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ctor, ok := f.ctors[identifier]

	return ctor, ok
}

// CreateFor returns the cached prototype for className, building and
// verifying one if absent (§4.B).
func (f *PrototypeFactory) CreateFor(className string) (*ServicePrototype, error) {
	if proto, ok := f.cache.Get(className); ok {
		return proto, nil
	}

	proto, err := f.build(className)
	if err != nil {
		return nil, err
	}

	if err := f.verify(proto); err != nil {
		return nil, err
	}

	f.cache.Set(className, proto)

	return proto, nil
}

func (f *PrototypeFactory) build(className string) (*ServicePrototype, error) {
	descriptor, err := f.analyzer.reflectClass(className)
	if err != nil {
		return nil, err
	}

	proto := &ServicePrototype{
		ClassName:      className,
		Type:           descriptor.typ,
		Properties:     descriptor.injectableProperties(),
		Methods:        descriptor.injectableMethods(),
		IsInstantiable: descriptor.isInstantiable(),
	}

	if ctor, ok := f.constructorOf(className); ok {
		proto.Constructor = constructorOf(className, ctor)
	}

	return proto, nil
}

// verify runs the Verifier rules of §4.B against a freshly-built
// prototype, before it is ever written to cache.
func (f *PrototypeFactory) verify(proto *ServicePrototype) error {
	// Rule 1: class must be instantiable OR explicitly registered with a
	// factory/constructor.
	if !proto.IsInstantiable && proto.Constructor == nil {
		return errVerificationFailed(proto.ClassName,
			fmt.Sprintf("%s is neither instantiable nor registered with a factory", proto.ClassName), nil)
	}

	// Rule 2: every constructor parameter with no default and an
	// unresolvable type must allow null; the resolver enforces the
	// "or be overridable" half of this rule at resolution time, since
	// overrides are only known per-call, not per-prototype.
	if proto.Constructor != nil {
		for _, p := range proto.Constructor.Parameters {
			if p.HasDefault || p.AllowsNull {
				continue
			}

			if !f.analyzer.canResolveType(p.TypeName) && p.Type != nil && !isContainerResolvableKind(p.Type) {
				return errVerificationFailed(proto.ClassName,
					fmt.Sprintf("parameter %q of %s has unresolvable type %q with no default and no null allowance",
						p.Name, proto.ClassName, p.TypeName), nil)
			}
		}
	}

	// Rule 3: every injected property must have a resolvable type or an
	// explicit identifier override.
	for _, prop := range proto.Properties {
		if prop.Override != "" {
			continue
		}

		if !f.analyzer.canResolveType(prop.TypeName) && !isContainerResolvableKind(prop.Type) {
			return errVerificationFailed(proto.ClassName,
				fmt.Sprintf("property %q of %s has unresolvable type %q and no identifier override",
					prop.Name, proto.ClassName, prop.TypeName), nil)
		}
	}

	return nil
}

// isContainerResolvableKind reports whether a reflect.Type is the kind
// of thing the engine can plausibly resolve without a prior explicit
// type registration: interfaces and pointer-to-struct are resolved by
// formatType(t) identifier, which the analyzer may intern lazily on
// first definition even if it hasn't been interned yet at verify time.
func isContainerResolvableKind(t reflect.Type) bool {
	if t == nil {
		return false
	}

	switch t.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Struct:
		return true
	default:
		return false
	}
}

// VerificationReport collects per-class verification errors from a
// batch run (§4.B rule 4).
type VerificationReport struct {
	Errors map[string]error
}

// HasErrors reports whether any class failed verification.
func (r *VerificationReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// VerifyAll builds and verifies a prototype for every given class name,
// collecting failures instead of stopping at the first one.
func (f *PrototypeFactory) VerifyAll(classNames []string) *VerificationReport {
	report := &VerificationReport{Errors: make(map[string]error)}

	for _, name := range classNames {
		if _, err := f.CreateFor(name); err != nil {
			report.Errors[name] = err
		}
	}

	return report
}
