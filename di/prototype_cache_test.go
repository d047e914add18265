package di

import (
	"encoding/gob"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheFixtureDep struct{}

type cacheFixtureTarget struct {
	First  cacheFixtureDep `inject:""`
	second cacheFixtureDep `inject:"named.dep"`
}

func buildCacheFixtureProto(a *analyzer) *ServicePrototype {
	d := &classDescriptor{typ: reflect.TypeOf(cacheFixtureTarget{})}

	return &ServicePrototype{
		ClassName:      "cacheFixtureTarget",
		Type:           d.typ,
		Properties:     d.injectableProperties(),
		Methods:        d.injectableMethods(),
		IsInstantiable: d.isInstantiable(),
	}
}

func TestPrototypeCache_L1SetGetEvict(t *testing.T) {
	a := newAnalyzer()
	c := NewPrototypeCache(2, "", a)

	p1 := &ServicePrototype{ClassName: "A"}
	p2 := &ServicePrototype{ClassName: "B"}
	p3 := &ServicePrototype{ClassName: "C"}

	c.Set("A", p1)
	c.Set("B", p2)

	// Touch A so B becomes least-recently-used.
	_, _ = c.Get("A")

	c.Set("C", p3)

	_, foundB := c.Get("B")
	assert.False(t, foundB, "B should have been evicted as the least-recently-used entry")

	_, foundA := c.Get("A")
	assert.True(t, foundA)

	_, foundC := c.Get("C")
	assert.True(t, foundC)
}

func TestPrototypeCache_RemoveAndClear(t *testing.T) {
	a := newAnalyzer()
	c := NewPrototypeCache(10, "", a)

	c.Set("A", &ServicePrototype{ClassName: "A"})
	c.Remove("A")

	_, found := c.Get("A")
	assert.False(t, found)

	c.Set("B", &ServicePrototype{ClassName: "B"})
	c.Clear()

	_, found = c.Get("B")
	assert.False(t, found)
}

func TestPrototypeCache_L2RoundTrip_RehydratesTypeAndFieldIndex(t *testing.T) {
	dir := t.TempDir()

	writerAnalyzer := newAnalyzer()
	writerAnalyzer.intern("cacheFixtureTarget", reflect.TypeOf(cacheFixtureTarget{}))
	writerCache := NewPrototypeCache(1, dir, writerAnalyzer)

	original := buildCacheFixtureProto(writerAnalyzer)
	writerCache.Set("cacheFixtureTarget", original)

	// Simulate a fresh process: a new analyzer that has not interned
	// anything yet, and a cache with an empty L1 tier pointed at the
	// same L2 directory.
	freshAnalyzer := newAnalyzer()
	freshCache := NewPrototypeCache(1, dir, freshAnalyzer)

	rehydrated, found := freshCache.readL2("cacheFixtureTarget")
	require.True(t, found)

	// Before the type is re-interned, Type fields degrade to nil rather
	// than panicking or silently misreporting the original type.
	require.Len(t, rehydrated.Properties, 2)

	var first, second *PropertyPrototype

	for i := range rehydrated.Properties {
		switch rehydrated.Properties[i].Name {
		case "First":
			first = &rehydrated.Properties[i]
		case "second":
			second = &rehydrated.Properties[i]
		}
	}

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Nil(t, first.Type, "type is not yet re-interned in the fresh process")
	assert.Equal(t, 0, first.fieldIndex)
	assert.Equal(t, 1, second.fieldIndex, "fieldIndex must survive the L2 round trip distinctly per property")

	// Once the fresh process interns the backing type and the property's
	// own type, a new read re-resolves that property's Type.
	freshAnalyzer.intern("cacheFixtureTarget", reflect.TypeOf(cacheFixtureTarget{}))
	freshAnalyzer.intern(first.TypeName, reflect.TypeOf(cacheFixtureTarget{}).Field(first.fieldIndex).Type)

	rehydratedAgain, found := freshCache.readL2("cacheFixtureTarget")
	require.True(t, found)

	for _, p := range rehydratedAgain.Properties {
		if p.Name == "First" {
			assert.NotNil(t, p.Type)
		}
	}
}

func TestPrototypeCache_L2VersionMismatchIgnored(t *testing.T) {
	dir := t.TempDir()
	a := newAnalyzer()
	c := NewPrototypeCache(1, dir, a)

	c.Set("A", &ServicePrototype{ClassName: "A"})

	// Corrupt the version by writing a stale cachedPrototype directly.
	stale := &cachedPrototype{Version: prototypeCacheVersion + 1, ClassName: "A"}

	f, err := os.Create(c.l2Path("A"))
	require.NoError(t, err)
	require.NoError(t, gob.NewEncoder(f).Encode(stale))
	require.NoError(t, f.Close())

	_, found := c.readL2("A")
	assert.False(t, found, "a version mismatch must be treated as a cache miss, not an error")
}
