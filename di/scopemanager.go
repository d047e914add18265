package di

import (
	"sync"

	"github.com/rs/xid"
	"golang.org/x/sync/singleflight"
)

// scopeFrame is one level of the scope stack: a shared-instance map
// plus insertion order, so disposal can run in reverse order (§4.E).
type scopeFrame struct {
	id        string
	instances map[string]any
	order     []string
}

func newScopeFrame() *scopeFrame {
	return &scopeFrame{id: xid.New().String(), instances: make(map[string]any)}
}

func (f *scopeFrame) put(identifier string, instance any) {
	if _, exists := f.instances[identifier]; !exists {
		f.order = append(f.order, identifier)
	}

	f.instances[identifier] = instance
}

// ScopeManager holds the stack of nested scopes described in §3 and
// §4.E: index 0 is the root, where singletons live; Scoped lifetimes
// resolve against the top of the stack.
type ScopeManager struct {
	mu          sync.Mutex
	stack       []*scopeFrame
	terminators []func(identifier string, instance any)
	building    singleflight.Group
}

// NewScopeManager creates a manager with only the root frame present.
func NewScopeManager() *ScopeManager {
	return &ScopeManager{stack: []*scopeFrame{newScopeFrame()}}
}

// BeginScope pushes a new frame and returns its id.
func (m *ScopeManager) BeginScope() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame := newScopeFrame()
	m.stack = append(m.stack, frame)

	return frame.id
}

// EndScope pops the frame with the given id. Only the current top
// frame may be ended; ending anything else (including the root) is a
// ScopeViolation (§4.E, §7).
func (m *ScopeManager) EndScope(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.stack) <= 1 {
		return errScopeViolation(id, "cannot pop the root scope")
	}

	top := m.stack[len(m.stack)-1]
	if top.id != id {
		return errScopeViolation(id, "scope is not the current top of the stack; nested scopes must end in LIFO order")
	}

	m.stack = m.stack[:len(m.stack)-1]

	for i := len(top.order) - 1; i >= 0; i-- {
		identifier := top.order[i]
		for _, term := range m.terminators {
			term(identifier, top.instances[identifier])
		}
	}

	return nil
}

// Has reports whether identifier is stored in any frame, searching
// from the top down and stopping at the first hit (§4.E).
func (m *ScopeManager) Has(identifier string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.stack) - 1; i >= 0; i-- {
		if _, ok := m.stack[i].instances[identifier]; ok {
			return true
		}
	}

	return false
}

// Lookup searches from the top frame down for identifier, returning
// the first hit.
func (m *ScopeManager) Lookup(identifier string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.stack) - 1; i >= 0; i-- {
		if v, ok := m.stack[i].instances[identifier]; ok {
			return v, true
		}
	}

	return nil, false
}

// Put stores instance under identifier according to lifetime: Singleton
// writes the root frame, Scoped writes the current top frame, Transient
// is a no-op (§4.E lifetime rules).
func (m *ScopeManager) Put(identifier string, instance any, lifetime Lifetime) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch lifetime {
	case LifetimeSingleton, LifetimeInstance:
		m.stack[0].put(identifier, instance)
	case LifetimeScoped:
		m.stack[len(m.stack)-1].put(identifier, instance)
	case LifetimeTransient:
		// never stored
	}
}

// RootLookup searches only the root frame, used by the Singleton
// double-checked lookup pattern (§5).
func (m *ScopeManager) RootLookup(identifier string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.stack[0].instances[identifier]

	return v, ok
}

// BuildSingletonOnce implements the root scope's double-checked lookup
// pattern in full (§5: "read-lock -> lookup -> if miss, write-lock ->
// lookup again -> build -> store"; §8 property 10, scenario S4: "under
// N concurrent get(id) invocations for a Singleton id, the factory
// runs at most once"). The read-lock/lookup half is the RootLookup
// call below, already attempted by the caller before reaching here;
// the write-lock/lookup-again/build/store half is singleflight.Group.Do,
// which collapses every concurrent caller sharing identifier into a
// single in-flight build and fans the one result out to all of them —
// a slow or side-effecting build (the user's own factory/constructor)
// runs exactly once no matter how many goroutines race to resolve it.
func (m *ScopeManager) BuildSingletonOnce(identifier string, build func() (any, error)) (any, error) {
	if v, ok := m.RootLookup(identifier); ok {
		return v, nil
	}

	v, err, _ := m.building.Do(identifier, func() (any, error) {
		if v, ok := m.RootLookup(identifier); ok {
			return v, nil
		}

		built, err := build()
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.stack[0].put(identifier, built)
		m.mu.Unlock()

		return built, nil
	})

	return v, err
}

// TopLookup searches only the current top frame, used for Scoped
// lifetime resolution (§3 lifetime rules).
func (m *ScopeManager) TopLookup(identifier string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.stack[len(m.stack)-1].instances[identifier]

	return v, ok
}

// InScope reports whether any non-root scope is currently active,
// used to raise ScopeViolation when a Scoped service is requested with
// only the root frame present (§7).
func (m *ScopeManager) InScope() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.stack) > 1
}

// WithTerminator registers fn to be called for every scoped instance
// when its scope ends, in reverse insertion order — the hook
// Disposable instances are wired through (§4.E, SPEC_FULL §3).
func (m *ScopeManager) WithTerminator(fn func(identifier string, instance any)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminators = append(m.terminators, fn)
}

// ClearSingletons empties the root frame, used by tests exercising §8
// property 1 ("Idempotence of Singleton ... until clearSingletons()").
func (m *ScopeManager) ClearSingletons() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stack[0] = newScopeFrame()
}
