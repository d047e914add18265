package di

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type injectTargetDep struct{}

type injectFailDep struct{}

type injectOrderedTarget struct {
	First  *injectTargetDep `inject:""`
	Second *injectFailDep   `inject:""`
	Third  *injectTargetDep `inject:""`
}

type injectHiddenTarget struct {
	hidden *injectTargetDep `inject:""`
}

func (t *injectHiddenTarget) Hidden() *injectTargetDep { return t.hidden }

func TestInjectInto_NonStrict_ContinuesPastFailures(t *testing.T) {
	k := newTestKernel(t)

	depID := formatType(reflect.TypeOf(&injectTargetDep{}))
	require.NoError(t, k.Define(depID, reflect.TypeOf(&injectTargetDep{}), nil, LifetimeSingleton))

	target := &injectOrderedTarget{}
	_, report := k.InjectInto(target)

	assert.True(t, report.HasErrors())
	assert.NotNil(t, target.First, "a resolvable property before the failure must still be set")
	assert.Nil(t, target.Second, "the unresolvable property must remain nil")
	assert.NotNil(t, target.Third, "a resolvable property after the failure must still be set in non-strict mode")
}

func TestInjectInto_Strict_AbortsAtFirstFailure(t *testing.T) {
	cfg := DefaultKernelConfig()
	cfg.StrictMode = true

	strictKernel, err := NewKernel(cfg, nil, nil)
	require.NoError(t, err)

	depID := formatType(reflect.TypeOf(&injectTargetDep{}))
	require.NoError(t, strictKernel.Define(depID, reflect.TypeOf(&injectTargetDep{}), nil, LifetimeSingleton))

	target := &injectOrderedTarget{}
	_, report := strictKernel.InjectInto(target)

	assert.True(t, report.HasErrors())
	assert.NotNil(t, target.First)
	assert.Nil(t, target.Second)
	assert.Nil(t, target.Third, "strict mode must abort before reaching a property past the failure")
}

func TestInjectInto_SetsUnexportedFieldViaUnsafePointer(t *testing.T) {
	k := newTestKernel(t)

	depID := formatType(reflect.TypeOf(&injectTargetDep{}))
	require.NoError(t, k.Define(depID, reflect.TypeOf(&injectTargetDep{}), nil, LifetimeSingleton))

	target := &injectHiddenTarget{}
	_, report := k.InjectInto(target)

	require.False(t, report.HasErrors())
	assert.NotNil(t, target.Hidden())
}

func TestInspectInjection_EnumeratesWithoutMutating(t *testing.T) {
	k := newTestKernel(t)

	target := &injectHiddenTarget{}
	report := k.InspectInjection(target)

	assert.Contains(t, report.Properties, "hidden")
	assert.Nil(t, target.Hidden(), "InspectInjection must not perform the injection")
}
