package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKernelConfig_Validates(t *testing.T) {
	cfg := DefaultKernelConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.AutoDefine)
	assert.Equal(t, LifetimeTransient, cfg.DefaultLifetime)
}

func TestKernelConfig_Validate_RejectsNegativeBounds(t *testing.T) {
	cfg := DefaultKernelConfig()
	cfg.MaxDepth = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, hasCode(err, CodeContainerState))
}

func TestKernelConfig_Validate_RejectsNegativeCacheLimit(t *testing.T) {
	cfg := DefaultKernelConfig()
	cfg.PrototypeCacheLimit = -5

	require.Error(t, cfg.Validate())
}
