package di

import (
	"fmt"
	"reflect"
	"unsafe"
)

// InjectionExecutor fills injected properties and calls injected
// methods after construction (§4.J). Property visibility is never a
// blocker: the executor sets unexported fields via an unsafe pointer
// reflection the same way the rest of the struct's own package would,
// matching the spec's explicit requirement that "visibility of the
// property is not a blocker".
type InjectionExecutor struct {
	engine *Engine
}

// NewInjectionExecutor wires an executor to its engine.
func NewInjectionExecutor(e *Engine) *InjectionExecutor {
	return &InjectionExecutor{engine: e}
}

// InjectionReport enumerates the property and method injection points
// discovered for an object's prototype without performing the
// injection (§4.J, §8 scenario S7).
type InjectionReport struct {
	Properties map[string]string   // field name -> type name
	Methods    map[string][]string // method name -> parameter type names
	Errors     []error
}

// HasErrors reports whether any injection point failed.
func (r *InjectionReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// InjectResolved is called by the engine's pipeline after instantiation
// for every resolved service (§4.G Inject stage). It returns instance
// unchanged (besides in-place field writes) and fails fast, since a
// mid-pipeline injection error must abort the resolution.
func (inj *InjectionExecutor) InjectResolved(kctx *KernelContext, concrete Concrete, instance any) (any, error) {
	typeName, t := inj.identify(concrete, instance)
	if t == nil {
		return instance, nil
	}

	proto, err := inj.engine.protos.CreateFor(typeName)
	if err != nil {
		// Factory-produced values with no reflectable prototype (e.g. a
		// scalar or an interface with no struct behind it) simply have
		// nothing to inject.
		return instance, nil
	}

	if len(proto.Properties) == 0 && len(proto.Methods) == 0 {
		return instance, nil
	}

	target := reflect.ValueOf(instance)
	if target.Kind() != reflect.Ptr {
		return instance, errInjectionFailed(kctx.ServiceID, typeName,
			fmt.Errorf("property/method injection requires a pointer instance, got %s", target.Kind()))
	}

	// A Cycle error is returned as-is so that IsCycle and its path stay
	// visible to the caller; every other failure is wrapped.
	for _, prop := range proto.Properties {
		if err := inj.injectProperty(kctx, target, prop); err != nil {
			if IsCycle(err) {
				return instance, err
			}

			return instance, errInjectionFailed(kctx.ServiceID, prop.Name, err)
		}
	}

	for _, method := range proto.Methods {
		if err := inj.injectMethod(kctx, target, method); err != nil {
			if IsCycle(err) {
				return instance, err
			}

			return instance, errInjectionFailed(kctx.ServiceID, method.Name, err)
		}
	}

	return instance, nil
}

func (inj *InjectionExecutor) identify(concrete Concrete, instance any) (string, reflect.Type) {
	if concrete.Kind == ConcreteClassKind && concrete.ClassName != "" {
		return concrete.ClassName, concrete.Type
	}

	if instance == nil {
		return "", nil
	}

	t := reflect.TypeOf(instance)
	name := formatType(t)
	inj.engine.analyzer.intern(name, t)

	return name, t
}

func (inj *InjectionExecutor) injectProperty(kctx *KernelContext, target reflect.Value, prop PropertyPrototype) error {
	elem := target.Elem()
	field := elem.Field(prop.fieldIndex)

	identifier := prop.Override
	if identifier == "" {
		identifier = prop.TypeName
	}

	if kctx.Contains(identifier) {
		return errCycle(identifier, append(kctx.Path(), kctx.ServiceID))
	}

	child := kctx.Child(identifier, nil)

	value, err := inj.engine.Resolve(child)
	if err != nil {
		return err
	}

	settable := field
	if !field.CanSet() {
		// Unexported field: obtain a settable alias via an unsafe pointer
		// to the same memory, since reflect refuses direct Set on it.
		settable = reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
	}

	settable.Set(asValue(value, field.Type()))

	return nil
}

func (inj *InjectionExecutor) injectMethod(kctx *KernelContext, target reflect.Value, method MethodPrototype) error {
	overrides := map[string]any(nil)

	args, err := inj.engine.resolver.ResolveArguments(kctx, &method, overrides)
	if err != nil {
		return err
	}

	fn := target.MethodByName(method.Name)
	if !fn.IsValid() {
		return fmt.Errorf("method %q not found on %s", method.Name, target.Type())
	}

	results := fn.Call(args)
	for _, r := range results {
		if e, ok := r.Interface().(error); ok && e != nil {
			return e
		}
	}

	return nil
}

// InjectInto performs best-effort injection on obj: it does not abort
// on the first failure unless strict is set, matching §7's
// "injectInto returns the object and an injection report... it does
// not abort on the first failure unless strictMode is set".
func (inj *InjectionExecutor) InjectInto(kctx *KernelContext, obj any, strict bool) (any, *InjectionReport) {
	report := inj.InspectInjection(obj)
	if report.HasErrors() {
		return obj, report
	}

	t := reflect.TypeOf(obj)
	if t == nil || t.Kind() != reflect.Ptr {
		report.Errors = append(report.Errors, fmt.Errorf("injectInto requires a pointer, got %T", obj))

		return obj, report
	}

	typeName := formatType(t)
	inj.engine.analyzer.intern(typeName, t)

	proto, err := inj.engine.protos.CreateFor(typeName)
	if err != nil {
		report.Errors = append(report.Errors, err)

		return obj, report
	}

	target := reflect.ValueOf(obj)

	for _, prop := range proto.Properties {
		if err := inj.injectProperty(kctx, target, prop); err != nil {
			report.Errors = append(report.Errors, err)

			if strict {
				return obj, report
			}
		}
	}

	for _, method := range proto.Methods {
		if err := inj.injectMethod(kctx, target, method); err != nil {
			report.Errors = append(report.Errors, err)

			if strict {
				return obj, report
			}
		}
	}

	return obj, report
}

// InspectInjection enumerates obj's inject-marked properties and
// methods without performing the injection (§4.J, §8 scenario S7).
func (inj *InjectionExecutor) InspectInjection(obj any) *InjectionReport {
	report := &InjectionReport{Properties: make(map[string]string), Methods: make(map[string][]string)}

	if obj == nil {
		return report
	}

	t := reflect.TypeOf(obj)
	typeName := formatType(t)
	inj.engine.analyzer.intern(typeName, t)

	proto, err := inj.engine.protos.CreateFor(typeName)
	if err != nil {
		report.Errors = append(report.Errors, err)

		return report
	}

	for _, prop := range proto.Properties {
		name := prop.Override
		if name == "" {
			name = prop.TypeName
		}

		report.Properties[prop.Name] = name
	}

	for _, m := range proto.Methods {
		types := make([]string, len(m.Parameters))
		for i, p := range m.Parameters {
			types[i] = p.TypeName
		}

		report.Methods[m.Name] = types
	}

	return report
}

// CanInject reports whether obj has at least one inject-marked
// property or method.
func (inj *InjectionExecutor) CanInject(obj any) bool {
	report := inj.InspectInjection(obj)

	return len(report.Properties) > 0 || len(report.Methods) > 0
}
