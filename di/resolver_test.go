package di

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsScalarKind(t *testing.T) {
	assert.True(t, isScalarKind(reflect.TypeOf("")))
	assert.True(t, isScalarKind(reflect.TypeOf(0)))
	assert.True(t, isScalarKind(reflect.TypeOf(false)))
	assert.True(t, isScalarKind(reflect.TypeOf(3.14)))
	assert.True(t, isScalarKind(nil))

	assert.False(t, isScalarKind(reflect.TypeOf(fixtureHelper{})))
	assert.False(t, isScalarKind(reflect.TypeOf(&fixtureHelper{})))
}

func TestAsValue_AssignableAndConvertible(t *testing.T) {
	type Celsius float64

	v := asValue(5, reflect.TypeOf(Celsius(0)))
	assert.Equal(t, Celsius(5), v.Interface())

	v2 := asValue("hello", reflect.TypeOf(""))
	assert.Equal(t, "hello", v2.Interface())

	v3 := asValue(nil, reflect.TypeOf((*fixtureLogger)(nil)).Elem())
	assert.True(t, v3.IsNil())
}

func TestCoerceOverride_NilUsesZeroValue(t *testing.T) {
	p := ParameterPrototype{Type: reflect.TypeOf(&fixtureHelper{})}

	v := coerceOverride(nil, p)
	assert.True(t, v.IsNil())
}

func TestCoerceOverride_NonNilWraps(t *testing.T) {
	p := ParameterPrototype{Type: reflect.TypeOf(0)}

	v := coerceOverride(42, p)
	assert.Equal(t, 42, v.Interface())
}

func TestLookupOverride(t *testing.T) {
	p := ParameterPrototype{Name: "timeout"}

	_, ok := lookupOverride(nil, p)
	assert.False(t, ok)

	v, ok := lookupOverride(map[string]any{"timeout": 30}, p)
	assert.True(t, ok)
	assert.Equal(t, 30, v)
}

func TestLazyValue_ResolvesOnceAndCaches(t *testing.T) {
	calls := 0
	lv := newLazyValue(func() (any, error) {
		calls++

		return "computed", nil
	})

	v1, err := lv.Get()
	assert.NoError(t, err)
	assert.Equal(t, "computed", v1)

	v2, err := lv.Get()
	assert.NoError(t, err)
	assert.Equal(t, "computed", v2)
	assert.Equal(t, 1, calls, "Get must only force the underlying resolution once")
}
