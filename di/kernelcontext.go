package di

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ContextFlags carries the per-resolution switches that propagate from
// parent to child context unless explicitly overridden (§3).
type ContextFlags struct {
	Strict     bool
	AutoDefine bool
	DevMode    bool

	// Fresh marks a one-off construction (Kernel.Make with overrides):
	// the pipeline neither reads from nor writes to the scope cache for
	// this resolution, even for a Singleton/Scoped definition.
	Fresh bool
}

// KernelContext is the resolution state carrier threaded through every
// stage of the pipeline (§3). It is created once per top-level `get`/
// `make`/`call` and grows a child per recursive dependency resolution.
type KernelContext struct {
	ServiceID string
	Parent    *KernelContext
	Depth     int
	TraceID   string
	Flags     ContextFlags
	Overrides map[string]any
	Deadline  time.Time // zero value means no deadline

	mu       sync.Mutex
	resolved bool
	value    any
	meta     map[string]map[string]any
}

// NewRootContext creates a top-level context for identifier, minting a
// fresh trace id (§6 telemetry: "each resolution carries a trace id").
func NewRootContext(identifier string, flags ContextFlags, overrides map[string]any) *KernelContext {
	return &KernelContext{
		ServiceID: identifier,
		Depth:     0,
		TraceID:   uuid.NewString(),
		Flags:     flags,
		Overrides: overrides,
		meta:      make(map[string]map[string]any),
	}
}

// Child creates a context for a recursive dependency resolution: depth
// increments, flags/traceId are inherited, and overrides are NOT
// inherited by default (a constructor argument override for the parent
// must not leak into a grandchild's resolution) unless explicitly
// passed via childOverrides.
func (c *KernelContext) Child(identifier string, childOverrides map[string]any) *KernelContext {
	return &KernelContext{
		ServiceID: identifier,
		Parent:    c,
		Depth:     c.Depth + 1,
		TraceID:   c.TraceID,
		Flags:     c.Flags,
		Overrides: childOverrides,
		Deadline:  c.Deadline,
		meta:      make(map[string]map[string]any),
	}
}

// Contains reports whether identifier appears anywhere in the parent
// chain, including this context itself — the basis of cycle detection
// in §4.F/§4.G.
func (c *KernelContext) Contains(identifier string) bool {
	for cur := c; cur != nil; cur = cur.Parent {
		if cur.ServiceID == identifier {
			return true
		}
	}

	return false
}

// Path renders the chain of identifiers from the root context down to
// (but not including) this one, for use in error payloads (§6, §7).
func (c *KernelContext) Path() []string {
	var path []string
	for cur := c.Parent; cur != nil; cur = cur.Parent {
		path = append([]string{cur.ServiceID}, path...)
	}

	return path
}

// ParentServiceID returns the immediate parent's ServiceID, or "" at
// the root — this is the "consumer" identity used by contextual
// bindings (§4.D, §4.G).
func (c *KernelContext) ParentServiceID() string {
	if c.Parent == nil {
		return ""
	}

	return c.Parent.ServiceID
}

// MarkResolved records the final instance once. Resolving twice on the
// same context is a programmer error and raises a ContainerState
// error (§3 invariants: "resolving twice on the same context raises
// fatal error").
func (c *KernelContext) MarkResolved(value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resolved {
		return errContainerState("context for " + c.ServiceID + " was already resolved")
	}

	c.resolved = true
	c.value = value

	return nil
}

// SetMetaOnce writes key under namespace the first time it is called;
// subsequent calls for the same (namespace, key) pair are no-ops and
// return false, implementing the "first-write-wins" semantics of §3.
func (c *KernelContext) SetMetaOnce(namespace, key string, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.meta[namespace] == nil {
		c.meta[namespace] = make(map[string]any)
	}

	if _, exists := c.meta[namespace][key]; exists {
		return false
	}

	c.meta[namespace][key] = value

	return true
}

// Meta reads a previously-set metadata value.
func (c *KernelContext) Meta(namespace, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byNS, ok := c.meta[namespace]
	if !ok {
		return nil, false
	}

	v, ok := byNS[key]

	return v, ok
}

// expired reports whether the context's deadline, if any, has passed.
func (c *KernelContext) expired() bool {
	return !c.Deadline.IsZero() && time.Now().After(c.Deadline)
}
