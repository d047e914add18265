package di

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// KernelConfig controls the runtime behavior of a Kernel: how deep
// resolution may recurse, whether unregistered types autowire, and
// where the Prototype Cache persists its second tier (§6).
type KernelConfig struct {
	// AutoDefine allows the engine to autowire an identifier with no
	// registered ServiceDefinition, provided it reflects to an
	// instantiable struct type.
	AutoDefine bool `json:"auto_define" yaml:"autoDefine" mapstructure:"auto_define"`

	// StrictMode, when true, propagates as ContextFlags.Strict and makes
	// injectInto abort on the first failed injection point.
	StrictMode bool `json:"strict_mode" yaml:"strictMode" mapstructure:"strict_mode"`

	// DevMode is copied into ContextFlags.DevMode for every resolution;
	// tracing, logging and prototype caching do not change with it.
	DevMode bool `json:"dev_mode" yaml:"devMode" mapstructure:"dev_mode"`

	// MaxDepth bounds resolution recursion; zero falls back to
	// defaultMaxDepth.
	MaxDepth int `json:"max_depth" yaml:"maxDepth" mapstructure:"max_depth" validate:"gte=0"`

	// DefaultLifetime is applied to services autowired without an
	// explicit registration.
	DefaultLifetime Lifetime `json:"default_lifetime" yaml:"defaultLifetime" mapstructure:"default_lifetime"`

	// PrototypeCacheLimit bounds the in-memory LRU tier of the Prototype
	// Cache (entry count, not bytes).
	PrototypeCacheLimit int `json:"prototype_cache_limit" yaml:"prototypeCacheLimit" mapstructure:"prototype_cache_limit" validate:"gte=0"`

	// PrototypeCacheDir, when non-empty, enables the persistent second
	// tier of the Prototype Cache at this directory.
	PrototypeCacheDir string `json:"prototype_cache_dir" yaml:"prototypeCacheDir" mapstructure:"prototype_cache_dir"`

	// MetricsEnabled toggles whether the engine's Telemetry pushes
	// counters/histograms into a wired MetricsSink.
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metricsEnabled" mapstructure:"metrics_enabled"`

	// TracingEnabled toggles whether resolution traces are attached to
	// structured log events in addition to errors.
	TracingEnabled bool `json:"tracing_enabled" yaml:"tracingEnabled" mapstructure:"tracing_enabled"`

	// FreezeOnStart freezes the Definition Store the moment the Kernel
	// finishes Start(), rejecting further Define calls.
	FreezeOnStart bool `json:"freeze_on_start" yaml:"freezeOnStart" mapstructure:"freeze_on_start"`
}

// DefaultKernelConfig returns the conservative defaults a Kernel boots
// with when no configuration is supplied.
func DefaultKernelConfig() KernelConfig {
	return KernelConfig{
		AutoDefine:          true,
		MaxDepth:            defaultMaxDepth,
		DefaultLifetime:     LifetimeTransient,
		PrototypeCacheLimit: 512,
		MetricsEnabled:      true,
		TracingEnabled:      false,
		FreezeOnStart:       false,
	}
}

var (
	kernelConfigValidator     *validator.Validate
	kernelConfigValidatorOnce sync.Once
)

func getKernelConfigValidator() *validator.Validate {
	kernelConfigValidatorOnce.Do(func() {
		kernelConfigValidator = validator.New()
	})

	return kernelConfigValidator
}

// Validate checks structural invariants on c (non-negative bounds);
// it is the single authority for what makes a KernelConfig usable,
// superseding any looser construction path a caller might build by
// hand.
func (c KernelConfig) Validate() error {
	if err := getKernelConfigValidator().Struct(c); err != nil {
		return errContainerState("invalid kernel configuration: " + err.Error())
	}

	return nil
}
