package di

import (
	"fmt"
	"reflect"
	"sync"
)

// Lifetime is the sharing policy applied to a resolved instance (§3).
type Lifetime int

const (
	// LifetimeTransient produces a new instance on every resolution.
	LifetimeTransient Lifetime = iota
	// LifetimeScoped shares one instance within a resolution scope.
	LifetimeScoped
	// LifetimeSingleton shares one instance process-wide.
	LifetimeSingleton
	// LifetimeInstance substitutes a pre-constructed instance directly.
	LifetimeInstance
)

// String renders the lifetime using the same lowercase vocabulary the
// teacher's RegisterOption.Lifecycle already uses ("singleton",
// "scoped", "transient"), plus "instance" for the new variant.
func (l Lifetime) String() string {
	switch l {
	case LifetimeTransient:
		return "transient"
	case LifetimeScoped:
		return "scoped"
	case LifetimeSingleton:
		return "singleton"
	case LifetimeInstance:
		return "instance"
	default:
		return "unknown"
	}
}

// lifetimeFromLegacy maps the teacher's string-based RegisterOption
// lifecycle onto the new Lifetime enum, defaulting unrecognized or
// empty values to Singleton (the teacher's documented default).
func lifetimeFromLegacy(s string) Lifetime {
	switch s {
	case "transient":
		return LifetimeTransient
	case "scoped":
		return LifetimeScoped
	default:
		return LifetimeSingleton
	}
}

// ConcreteKind tags the variant carried by a Concrete value (§3).
type ConcreteKind int

const (
	// ConcreteClassKind builds the instance by reflecting over a
	// registered constructor function (or, absent one, by zero-value
	// construction followed by property/method injection).
	ConcreteClassKind ConcreteKind = iota
	// ConcreteFactoryKind builds the instance by invoking an opaque
	// Factory func(Container) (any, error); its own parameters are not
	// reflected on.
	ConcreteFactoryKind
	// ConcretePreBuiltKind substitutes an already-constructed value.
	ConcretePreBuiltKind
	// ConcreteAliasKind resolves to another identifier, transitively.
	ConcreteAliasKind
)

// Concrete is the tagged variant describing how a service is actually
// produced (§3).
type Concrete struct {
	Kind ConcreteKind

	// ClassName / Type: ConcreteClassKind. Type is the struct (or
	// pointer-to-struct) produced; Ctor, if non-nil, is the constructor
	// function reflected for autowiring. Without a Ctor, Instantiate
	// falls back to reflect.New(Type) plus property/method injection.
	ClassName string
	Type      reflect.Type
	Ctor      any

	// Legacy: ConcreteFactoryKind, the teacher's original Factory shape.
	Legacy Factory

	// PreBuilt: ConcretePreBuiltKind.
	PreBuilt any

	// Alias: ConcreteAliasKind, the identifier this one resolves to.
	Alias string
}

// ClassConcrete builds a Concrete for an autowired struct type with an
// optional constructor function. ctor may be nil, in which case the
// type is built via zero-value construction and property injection.
func ClassConcrete(identifier string, t reflect.Type, ctor any) Concrete {
	return Concrete{Kind: ConcreteClassKind, ClassName: identifier, Type: t, Ctor: ctor}
}

// FactoryConcrete wraps the teacher's opaque Factory signature.
func FactoryConcrete(factory Factory) Concrete {
	return Concrete{Kind: ConcreteFactoryKind, Legacy: factory}
}

// PreBuiltConcrete wraps an already-constructed instance.
func PreBuiltConcrete(instance any) Concrete {
	return Concrete{Kind: ConcretePreBuiltKind, PreBuilt: instance}
}

// AliasConcrete points to another identifier.
func AliasConcrete(target string) Concrete {
	return Concrete{Kind: ConcreteAliasKind, Alias: target}
}

// DecoratorSpec is one entry in a ServiceDefinition's ordered decorator
// list: a registered service identifier applied after primary
// instantiation, and the constructor parameter name it receives the
// wrapped instance through (§4.I).
type DecoratorSpec struct {
	Identifier string
	ParamName  string
}

// ServiceDefinition is the Definition Store's blueprint for one service
// identifier (§3).
type ServiceDefinition struct {
	Identifier      string
	Concrete        Concrete
	Lifetime        Lifetime
	Tags            map[string]struct{}
	ConstructorArgs map[string]any
	Contextual      map[string]map[string]Concrete // consumer class -> dependency identifier -> override
	Decorators      []DecoratorSpec
}

func newServiceDefinition(identifier string, concrete Concrete, lifetime Lifetime) *ServiceDefinition {
	return &ServiceDefinition{
		Identifier:      identifier,
		Concrete:        concrete,
		Lifetime:        lifetime,
		Tags:            make(map[string]struct{}),
		ConstructorArgs: make(map[string]any),
		Contextual:      make(map[string]map[string]Concrete),
	}
}

// validate enforces the invariants listed in §3 for ServiceDefinition.
func (d *ServiceDefinition) validate() error {
	if d.Identifier == "" {
		return errDefinitionConflict(d.Identifier, "service identifier must not be empty")
	}

	rootDecorator := false

	for _, dec := range d.Decorators {
		if dec.Identifier == d.Identifier {
			if rootDecorator {
				return errDefinitionConflict(d.Identifier, "at most one decorator may be marked as root per identifier")
			}

			rootDecorator = true
		}
	}

	return nil
}

// DefinitionStore is the registry of service bindings (§4.D). Readers
// may run concurrently; writers take an exclusive lock, and all writes
// are rejected once Freeze() has been called.
type DefinitionStore struct {
	mu       sync.RWMutex
	defs     map[string]*ServiceDefinition
	tags     map[string]map[string]struct{} // tag -> set of identifiers
	frozen   bool
	factory  *PrototypeFactory
	analyzer *analyzer
}

// NewDefinitionStore builds an empty store wired to the given
// prototype factory and analyzer, so that defining a ConcreteClassKind
// service also interns its reflect.Type and constructor for later
// autowiring.
func NewDefinitionStore(factory *PrototypeFactory, a *analyzer) *DefinitionStore {
	return &DefinitionStore{
		defs:     make(map[string]*ServiceDefinition),
		tags:     make(map[string]map[string]struct{}),
		factory:  factory,
		analyzer: a,
	}
}

// Define registers (or replaces) a service binding. Idempotent: later
// definitions replace earlier ones unless Freeze() was already called.
func (s *DefinitionStore) Define(identifier string, concrete Concrete, lifetime Lifetime, tags []string, constructorArgs map[string]any) error {
	def := newServiceDefinition(identifier, concrete, lifetime)
	for _, t := range tags {
		def.Tags[t] = struct{}{}
	}

	for k, v := range constructorArgs {
		def.ConstructorArgs[k] = v
	}

	if err := def.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return errContainerState(fmt.Sprintf("cannot define %q: container is frozen", identifier))
	}

	s.unindexTagsLocked(identifier)
	s.defs[identifier] = def

	for t := range def.Tags {
		if s.tags[t] == nil {
			s.tags[t] = make(map[string]struct{})
		}

		s.tags[t][identifier] = struct{}{}
	}

	if concrete.Kind == ConcreteClassKind {
		s.analyzer.intern(identifier, concrete.Type)

		if concrete.Ctor != nil {
			s.factory.registerConstructor(identifier, reflect.ValueOf(concrete.Ctor))
		}
	}

	return nil
}

func (s *DefinitionStore) unindexTagsLocked(identifier string) {
	if old, ok := s.defs[identifier]; ok {
		for t := range old.Tags {
			delete(s.tags[t], identifier)
		}
	}
}

// Alias registers identifier as resolving to other, transitively,
// detecting alias cycles.
func (s *DefinitionStore) Alias(identifier, other string) error {
	if err := s.checkAliasCycle(identifier, other); err != nil {
		return err
	}

	return s.Define(identifier, AliasConcrete(other), LifetimeTransient, nil, nil)
}

func (s *DefinitionStore) checkAliasCycle(identifier, target string) error {
	seen := map[string]struct{}{identifier: {}}
	current := target

	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		if _, ok := seen[current]; ok {
			return errDefinitionConflict(identifier, fmt.Sprintf("alias cycle detected starting at %q", identifier))
		}

		seen[current] = struct{}{}

		def, ok := s.defs[current]
		if !ok || def.Concrete.Kind != ConcreteAliasKind {
			return nil
		}

		current = def.Concrete.Alias
	}
}

// Contextual registers an override used only when consumer is the
// immediate parent in the context chain requesting needed (§4.D).
func (s *DefinitionStore) Contextual(consumer, needed string, override Concrete) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return errContainerState(fmt.Sprintf("cannot add contextual binding for %q: container is frozen", consumer))
	}

	def, ok := s.defs[consumer]
	if !ok {
		def = newServiceDefinition(consumer, Concrete{}, LifetimeTransient)
		s.defs[consumer] = def
	}

	if def.Contextual[consumer] == nil {
		def.Contextual[consumer] = make(map[string]Concrete)
	}

	def.Contextual[consumer][needed] = override

	return nil
}

// Tagged returns the identifiers registered under tag. The order of the
// result is not defined and can differ from one call to the next.
func (s *DefinitionStore) Tagged(tag string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.tags[tag]))
	for id := range s.tags[tag] {
		ids = append(ids, id)
	}

	return ids
}

// Has reports whether identifier has a definition.
func (s *DefinitionStore) Has(identifier string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.defs[identifier]

	return ok
}

// Get returns the definition for identifier, resolving alias chains.
func (s *DefinitionStore) Get(identifier string) (*ServiceDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.resolveAliasLocked(identifier, nil)
}

func (s *DefinitionStore) resolveAliasLocked(identifier string, seen map[string]struct{}) (*ServiceDefinition, bool) {
	def, ok := s.defs[identifier]
	if !ok {
		return nil, false
	}

	if def.Concrete.Kind != ConcreteAliasKind {
		return def, true
	}

	if seen == nil {
		seen = make(map[string]struct{})
	}

	if _, cyc := seen[identifier]; cyc {
		return nil, false
	}

	seen[identifier] = struct{}{}

	return s.resolveAliasLocked(def.Concrete.Alias, seen)
}

// All returns every registered definition, keyed by identifier.
func (s *DefinitionStore) All() map[string]*ServiceDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*ServiceDefinition, len(s.defs))
	for k, v := range s.defs {
		out[k] = v
	}

	return out
}

// Freeze disallows further definition writes, as used by §6's freeze
// configuration flag and §7's ContainerState error kind.
func (s *DefinitionStore) Freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Frozen reports whether Freeze() has been called.
func (s *DefinitionStore) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.frozen
}

// contextualOverride looks up the override registered for (consumer,
// needed), used by ContextualLookup (§4.G).
func (s *DefinitionStore) contextualOverride(consumer, needed string) (Concrete, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.defs[consumer]
	if !ok {
		return Concrete{}, false
	}

	byNeeded, ok := def.Contextual[consumer]
	if !ok {
		return Concrete{}, false
	}

	c, ok := byNeeded[needed]

	return c, ok
}
