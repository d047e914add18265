package di

import (
	"container/list"
	"encoding/gob"
	"os"
	"path/filepath"
	"reflect"
	"sync"
)

// prototypeCacheVersion is embedded in every L2 entry. Bumping it
// invalidates existing persisted entries on mismatch, per §6
// ("Persisted state... The format is versioned; on version mismatch,
// entries are ignored").
const prototypeCacheVersion = 1

// cachedPrototype is the serializable, language-neutral record written
// to the L2 store: class name, constructor parameter list, and
// injected members with their type names. reflect.Type values cannot
// be serialized, so L2 entries are rehydrated against the in-memory
// analyzer on read (promoteFromL2) rather than reused directly.
type cachedPrototype struct {
	Version        int
	ClassName      string
	IsInstantiable bool
	Constructor    *cachedMethod
	Properties     []cachedProperty
	Methods        []cachedMethod
}

type cachedMethod struct {
	Name       string
	Parameters []cachedParameter
}

type cachedParameter struct {
	Name       string
	TypeName   string
	HasDefault bool
	IsVariadic bool
	AllowsNull bool
	Required   bool
	Position   int
}

type cachedProperty struct {
	Name       string
	TypeName   string
	Override   string
	Exported   bool
	FieldIndex int
}

func toCached(p *ServicePrototype) *cachedPrototype {
	c := &cachedPrototype{
		Version:        prototypeCacheVersion,
		ClassName:      p.ClassName,
		IsInstantiable: p.IsInstantiable,
		Properties:     make([]cachedProperty, len(p.Properties)),
		Methods:        make([]cachedMethod, len(p.Methods)),
	}

	if p.Constructor != nil {
		c.Constructor = toCachedMethod(p.Constructor)
	}

	for i, prop := range p.Properties {
		c.Properties[i] = cachedProperty{
			Name:       prop.Name,
			TypeName:   prop.TypeName,
			Override:   prop.Override,
			Exported:   prop.Exported,
			FieldIndex: prop.fieldIndex,
		}
	}

	for i, m := range p.Methods {
		c.Methods[i] = *toCachedMethod(&m)
	}

	return c
}

func toCachedMethod(m *MethodPrototype) *cachedMethod {
	cm := &cachedMethod{Name: m.Name, Parameters: make([]cachedParameter, len(m.Parameters))}
	for i, p := range m.Parameters {
		cm.Parameters[i] = cachedParameter{
			Name:       p.Name,
			TypeName:   p.TypeName,
			HasDefault: p.HasDefault,
			IsVariadic: p.IsVariadic,
			AllowsNull: p.AllowsNull,
			Required:   p.Required,
			Position:   p.Position,
		}
	}

	return cm
}

// lruEntry is one node of the L1 memory cache.
type lruEntry struct {
	key   string
	value *ServicePrototype
}

// PrototypeCache is the two-tier cache described in §4.C: a bounded LRU
// held in memory (L1), backed by an optional on-disk store (L2) keyed
// by class name. Concurrent readers are safe; writes and evictions are
// serialized by a single mutex, matching the teacher's prototype cache
// mutex usage pattern in the rest of the package.
type PrototypeCache struct {
	mu       sync.Mutex
	limit    int
	ll       *list.List
	index    map[string]*list.Element
	l2Dir    string
	analyzer *analyzer
}

// NewPrototypeCache builds a cache with the given L1 capacity. l2Dir
// empty disables the persistent tier (§6 configuration surface:
// prototypeCacheDir).
func NewPrototypeCache(memoryLimit int, l2Dir string, a *analyzer) *PrototypeCache {
	if memoryLimit <= 0 {
		memoryLimit = 512
	}

	return &PrototypeCache{
		limit:    memoryLimit,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
		l2Dir:    l2Dir,
		analyzer: a,
	}
}

// Get looks up a prototype by class name, consulting L1 first, then
// L2; an L2 hit is promoted into L1.
func (c *PrototypeCache) Get(className string) (*ServicePrototype, bool) {
	c.mu.Lock()
	if el, ok := c.index[className]; ok {
		c.ll.MoveToFront(el)
		proto := el.Value.(*lruEntry).value
		c.mu.Unlock()

		return proto, true
	}
	c.mu.Unlock()

	if c.l2Dir == "" {
		return nil, false
	}

	proto, ok := c.readL2(className)
	if !ok {
		return nil, false
	}

	c.setL1(className, proto)

	return proto, true
}

// Set stores a prototype in L1 (evicting the least-recently-accessed
// entry if over capacity) and, when L2 is enabled, persists it too.
func (c *PrototypeCache) Set(className string, proto *ServicePrototype) {
	c.setL1(className, proto)

	if c.l2Dir != "" {
		_ = c.writeL2(className, proto) // best-effort; L2 is an optimization, not a correctness requirement
	}
}

func (c *PrototypeCache) setL1(className string, proto *ServicePrototype) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[className]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*lruEntry).value = proto

		return
	}

	el := c.ll.PushFront(&lruEntry{key: className, value: proto})
	c.index[className] = el

	if c.ll.Len() > c.limit {
		c.evictOldest()
	}
}

func (c *PrototypeCache) evictOldest() {
	oldest := c.ll.Back()
	if oldest == nil {
		return
	}

	c.ll.Remove(oldest)
	delete(c.index, oldest.Value.(*lruEntry).key)
}

// Remove invalidates a single class name across both tiers.
func (c *PrototypeCache) Remove(className string) {
	c.mu.Lock()
	if el, ok := c.index[className]; ok {
		c.ll.Remove(el)
		delete(c.index, className)
	}
	c.mu.Unlock()

	if c.l2Dir != "" {
		_ = os.Remove(c.l2Path(className))
	}
}

// Clear invalidates the whole cache (both tiers). Callers must clear
// on code changes since entries carry no content hash of the source
// (§4.C design note).
func (c *PrototypeCache) Clear() {
	c.mu.Lock()
	c.ll = list.New()
	c.index = make(map[string]*list.Element)
	c.mu.Unlock()

	if c.l2Dir != "" {
		_ = os.RemoveAll(c.l2Dir)
	}
}

func (c *PrototypeCache) l2Path(className string) string {
	return filepath.Join(c.l2Dir, sanitizeFileName(className)+".gob")
}

func (c *PrototypeCache) writeL2(className string, proto *ServicePrototype) error {
	if err := os.MkdirAll(c.l2Dir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(c.l2Path(className))
	if err != nil {
		return err
	}
	defer f.Close()

	return gob.NewEncoder(f).Encode(toCached(proto))
}

func (c *PrototypeCache) readL2(className string) (*ServicePrototype, bool) {
	f, err := os.Open(c.l2Path(className))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var cp cachedPrototype
	if err := gob.NewDecoder(f).Decode(&cp); err != nil {
		return nil, false
	}

	if cp.Version != prototypeCacheVersion {
		return nil, false // stale format: ignored per §6
	}

	return fromCached(&cp, c.analyzer), true
}

// fromCached rehydrates a ServicePrototype from its serialized form.
// reflect.Type fields are best-effort re-resolved against the
// analyzer's live type registry; they are nil when the identifier was
// never interned in this process (e.g. a fresh process that hasn't
// registered that service yet). A property's Type is looked up by the
// property's own type name, not derived from the class's Type.
func fromCached(cp *cachedPrototype, a *analyzer) *ServicePrototype {
	p := &ServicePrototype{
		ClassName:      cp.ClassName,
		IsInstantiable: cp.IsInstantiable,
		Properties:     make([]PropertyPrototype, len(cp.Properties)),
		Methods:        make([]MethodPrototype, len(cp.Methods)),
	}

	if d, err := a.reflectClass(cp.ClassName); err == nil {
		p.Type = d.typ
	}

	if cp.Constructor != nil {
		p.Constructor = fromCachedMethod(cp.Constructor, a)
	}

	for i, prop := range cp.Properties {
		p.Properties[i] = PropertyPrototype{
			Name:       prop.Name,
			TypeName:   prop.TypeName,
			Type:       lookupType(prop.TypeName, a),
			Override:   prop.Override,
			Exported:   prop.Exported,
			fieldIndex: prop.FieldIndex,
		}
	}

	for i, m := range cp.Methods {
		p.Methods[i] = *fromCachedMethod(&m, a)
	}

	return p
}

// lookupType re-resolves a parameter or property's reflect.Type from
// its serialized type name, best-effort: nil when the identifier has
// not (yet) been interned in this process. A parameter with a nil Type
// is filled only by an override or a default (the null step needs a
// Type) until something interns it.
func lookupType(typeName string, a *analyzer) reflect.Type {
	d, err := a.reflectClass(typeName)
	if err != nil {
		return nil
	}

	return d.typ
}

func fromCachedMethod(cm *cachedMethod, a *analyzer) *MethodPrototype {
	m := &MethodPrototype{Name: cm.Name, Parameters: make([]ParameterPrototype, len(cm.Parameters))}
	for i, p := range cm.Parameters {
		m.Parameters[i] = ParameterPrototype{
			Name:       p.Name,
			TypeName:   p.TypeName,
			Type:       lookupType(p.TypeName, a),
			HasDefault: p.HasDefault,
			IsVariadic: p.IsVariadic,
			AllowsNull: p.AllowsNull,
			Required:   p.Required,
			Position:   p.Position,
		}
	}

	return m
}

func sanitizeFileName(name string) string {
	buf := make([]byte, 0, len(name))

	for i := 0; i < len(name); i++ {
		switch c := name[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			buf = append(buf, c)
		default:
			buf = append(buf, '_')
		}
	}

	return string(buf)
}
