package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeManager_RootPutAndLookup(t *testing.T) {
	m := NewScopeManager()

	_, found := m.RootLookup("svc")
	assert.False(t, found)

	m.Put("svc", "instance", LifetimeSingleton)

	v, found := m.RootLookup("svc")
	require.True(t, found)
	assert.Equal(t, "instance", v)
}

func TestScopeManager_TransientNeverStored(t *testing.T) {
	m := NewScopeManager()
	m.Put("svc", "instance", LifetimeTransient)

	_, found := m.RootLookup("svc")
	assert.False(t, found)
	assert.False(t, m.Has("svc"))
}

func TestScopeManager_ScopedLifetimeUsesTopFrame(t *testing.T) {
	m := NewScopeManager()

	assert.False(t, m.InScope())

	id := m.BeginScope()
	assert.True(t, m.InScope())

	m.Put("request-id", "abc", LifetimeScoped)

	v, found := m.TopLookup("request-id")
	require.True(t, found)
	assert.Equal(t, "abc", v)

	// Not visible at the root.
	_, rootFound := m.RootLookup("request-id")
	assert.False(t, rootFound)

	require.NoError(t, m.EndScope(id))
	assert.False(t, m.InScope())
}

func TestScopeManager_EndScope_MustBeLIFO(t *testing.T) {
	m := NewScopeManager()

	outer := m.BeginScope()
	inner := m.BeginScope()

	err := m.EndScope(outer)
	require.Error(t, err)
	assert.True(t, isScopeViolationForTest(err))

	require.NoError(t, m.EndScope(inner))
	require.NoError(t, m.EndScope(outer))
}

func TestScopeManager_CannotPopRoot(t *testing.T) {
	m := NewScopeManager()

	err := m.EndScope("anything")
	require.Error(t, err)
}

func TestScopeManager_TerminatorRunsInReverseInsertionOrder(t *testing.T) {
	m := NewScopeManager()

	var disposed []string

	m.WithTerminator(func(identifier string, instance any) {
		disposed = append(disposed, identifier)
	})

	id := m.BeginScope()
	m.Put("first", 1, LifetimeScoped)
	m.Put("second", 2, LifetimeScoped)
	m.Put("third", 3, LifetimeScoped)

	require.NoError(t, m.EndScope(id))

	assert.Equal(t, []string{"third", "second", "first"}, disposed)
}

func TestScopeManager_ClearSingletons(t *testing.T) {
	m := NewScopeManager()
	m.Put("svc", "instance", LifetimeSingleton)

	m.ClearSingletons()

	_, found := m.RootLookup("svc")
	assert.False(t, found)
}

// isScopeViolationForTest exposes the error-kind check via the same
// hasCode helper the exported Is* predicates use, since ScopeViolation
// has no exported predicate of its own.
func isScopeViolationForTest(err error) bool {
	return hasCode(err, CodeScopeViolation)
}
