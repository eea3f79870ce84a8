// Package config implements the ambient RuntimeConfig: a flat set of
// values loaded from YAML, defaulted via mapstructure, and hot-reloaded
// from a watched file.
package config

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"helix.run/core/pkg/helixerr"
)

// RuntimeConfig is the ambient configuration record: every recognized
// runtime option, plus a per-profile running-agent concurrency cap.
// PopulationSize and Generations are accepted-but-unused by this
// component: they are recognized config keys held over from an
// evolutionary module-search feature that this repository's scope does
// not implement; see DESIGN.md.
type RuntimeConfig struct {
	PopulationSize     int            `yaml:"population_size" mapstructure:"population_size"`
	Generations        int            `yaml:"generations" mapstructure:"generations"`
	FuelPerCall        uint64         `yaml:"fuel_per_call" mapstructure:"fuel_per_call"`
	MemoryPagesMax     uint32         `yaml:"memory_pages_max" mapstructure:"memory_pages_max"`
	CallTimeoutMS      int64          `yaml:"call_timeout_ms" mapstructure:"call_timeout_ms"`
	EnableWASI         bool           `yaml:"enable_wasi" mapstructure:"enable_wasi"`
	StreamName         string         `yaml:"stream_name" mapstructure:"stream_name"`
	StreamMaxMessages  int64          `yaml:"stream_max_messages" mapstructure:"stream_max_messages"`
	StreamMaxAge       time.Duration  `yaml:"stream_max_age" mapstructure:"stream_max_age"`
	ProfileConcurrency map[string]int `yaml:"profile_concurrency" mapstructure:"profile_concurrency"`
}

// CallTimeout converts CallTimeoutMS to a time.Duration for direct use
// against sandbox.ResourceLimits.CallTimeout.
func (c *RuntimeConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutMS) * time.Millisecond
}

// ConcurrencyCapFor returns the configured running-agent cap for profile,
// and whether one is configured at all (invariant 5 allows an unconfigured
// profile to run unbounded).
func (c *RuntimeConfig) ConcurrencyCapFor(profile string) (int, bool) {
	cap, ok := c.ProfileConcurrency[profile]
	return cap, ok
}

// Defaults returns a RuntimeConfig with conservative, runnable values.
func Defaults() *RuntimeConfig {
	return &RuntimeConfig{
		FuelPerCall:       1_000_000,
		MemoryPagesMax:    256,
		CallTimeoutMS:     10_000,
		EnableWASI:        false,
		StreamName:        "helix.events",
		StreamMaxMessages: 100_000,
		StreamMaxAge:      7 * 24 * time.Hour,
	}
}

// Validate rejects configurations that would make the runtime unusable.
func (c *RuntimeConfig) Validate() error {
	if c.FuelPerCall == 0 {
		return helixerr.NewConfigError("fuel_per_call must be greater than zero", nil)
	}
	if c.CallTimeoutMS <= 0 {
		return helixerr.NewConfigError("call_timeout_ms must be greater than zero", nil)
	}
	if c.StreamName == "" {
		return helixerr.NewConfigError("stream_name must not be empty", nil)
	}
	for profile, cap := range c.ProfileConcurrency {
		if cap < 0 {
			return helixerr.NewConfigError("profile_concurrency["+profile+"] must be non-negative", nil)
		}
	}
	return nil
}

// Decode parses raw YAML bytes into a RuntimeConfig layered over Defaults.
// Env-var expansion is intentionally omitted: this component's options
// are all numeric/bool/map, not secret-bearing.
func Decode(raw []byte) (*RuntimeConfig, error) {
	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, helixerr.NewSerializationError("config.Decode: parsing yaml", err)
	}

	cfg := Defaults()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, helixerr.NewInternalError("config.Decode: building decoder", err)
	}
	if err := decoder.Decode(generic); err != nil {
		return nil, helixerr.NewSerializationError("config.Decode: decoding into RuntimeConfig", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
