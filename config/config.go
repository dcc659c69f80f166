// Package config implements tracecore configuration file parsing and validation.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Options is the configuration tracecore can be started with. It mirrors the
// original FrameEvalConfig dataclass, generalized with the fields the Go
// port's cache and condition subsystems additionally need.
type Options struct {
	// Enabled turns the whole selective tracing engine on or off.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// FallbackToTracing lets backend selection fall back to the classic
	// backend when an explicitly requested event-subscription backend is not
	// supported by the host; when false, that request fails instead.
	FallbackToTracing bool `yaml:"fallback_to_tracing" json:"fallback_to_tracing" mapstructure:"fallback_to_tracing"`
	// Debug is parsed and carried with the rest of the configuration; no
	// engine package reads it, and gate decisions are not logged.
	Debug bool `yaml:"debug" json:"debug"`
	// CacheSize bounds the code-info LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size" mapstructure:"cache_size"`
	// CacheTTLSeconds is the code-info cache entry time-to-live.
	CacheTTLSeconds float64 `yaml:"cache_ttl_s" json:"cache_ttl_s" mapstructure:"cache_ttl_s"`
	// BreakpointCacheSize bounds the per-file breakpoint-line LRU cache.
	BreakpointCacheSize int `yaml:"breakpoint_cache_size" json:"breakpoint_cache_size" mapstructure:"breakpoint_cache_size"`
	// ConditionBudgetSeconds is the soft wall-clock budget for evaluating a
	// single breakpoint condition before a telemetry event is recorded.
	ConditionBudgetSeconds float64 `yaml:"condition_budget_s" json:"condition_budget_s" mapstructure:"condition_budget_s"`
	// ConditionalBreakpointsEnabled turns on condition evaluation for
	// breakpoints carrying a condition expression.
	ConditionalBreakpointsEnabled bool `yaml:"conditional_breakpoints_enabled" json:"conditional_breakpoints_enabled" mapstructure:"conditional_breakpoints_enabled"`
	// PerformanceMonitoring is parsed and reported by the check command.
	// The dispatcher maintains its per-event counters whatever its value,
	// so Runtime.Stats reports them even when it is false.
	PerformanceMonitoring bool `yaml:"performance_monitoring" json:"performance_monitoring" mapstructure:"performance_monitoring"`
	// Backend selects which tracing backend to prefer: "auto", "classic",
	// or "event_subscription".
	Backend string `yaml:"backend" json:"backend"`
	// Labels are free-form key/value tags carried with the configuration,
	// always holding an "id" entry identifying this engine instance. No
	// engine package attaches them to telemetry or log output.
	Labels map[string]string `yaml:"labels" json:"labels"`
}

const (
	defaultCacheSize              = 1000
	defaultCacheTTLSeconds        = 300
	defaultBreakpointCacheSize    = 500
	defaultConditionBudgetSeconds = 0.1
)

// Default returns an Options value with defaults matching the original
// FrameEvalConfig.DEFAULT instance, except Enabled: the configuration table
// names the master on/off switch as defaulting to true, overriding the
// original's False.
func Default() Options {
	return Options{
		Enabled:                       true,
		FallbackToTracing:             true,
		Debug:                         false,
		CacheSize:                     defaultCacheSize,
		CacheTTLSeconds:               defaultCacheTTLSeconds,
		BreakpointCacheSize:           defaultBreakpointCacheSize,
		ConditionBudgetSeconds:        defaultConditionBudgetSeconds,
		ConditionalBreakpointsEnabled: true,
		PerformanceMonitoring:         true,
		Backend:                       "auto",
		Labels:                        map[string]string{},
	}
}

// ParseConfig returns a valid Options value with defaults injected. The id
// parameter is recorded in the labels map.
func ParseConfig(raw []byte, id string) (*Options, error) {
	result := Default()
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &result); err != nil {
			return nil, errors.Wrap(err, "config: parse error")
		}
	}
	if err := result.validateAndInjectDefaults(id); err != nil {
		return nil, err
	}
	return &result, nil
}

func (o *Options) validateAndInjectDefaults(id string) error {
	if o.CacheSize <= 0 {
		o.CacheSize = defaultCacheSize
	}
	if o.CacheTTLSeconds <= 0 {
		o.CacheTTLSeconds = defaultCacheTTLSeconds
	}
	if o.BreakpointCacheSize <= 0 {
		o.BreakpointCacheSize = defaultBreakpointCacheSize
	}
	if o.ConditionBudgetSeconds <= 0 {
		o.ConditionBudgetSeconds = defaultConditionBudgetSeconds
	}
	switch strings.ToLower(o.Backend) {
	case "", "auto":
		o.Backend = "auto"
	case "classic":
		o.Backend = "classic"
	case "event_subscription":
		o.Backend = "event_subscription"
	default:
		return errors.Errorf("config: unknown backend %q", o.Backend)
	}
	if o.Labels == nil {
		o.Labels = map[string]string{}
	}
	o.Labels["id"] = id
	return nil
}

// Load reads Options from a file path (if non-empty), then overlays
// environment variables and CLI overrides using viper, mirroring the
// teacher's config-file-plus-overrides composition. A TRACECORE_<KEY>
// environment variable only takes effect for a key that the file or an
// override also sets.
func Load(path string, id string, overrides []string) (*Options, error) {
	v := viper.New()
	v.SetEnvPrefix("TRACECORE")
	v.AutomaticEnv()

	result := Default()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "config: read error")
		}
	}

	for _, kv := range overrides {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("config: malformed override %q, want key=value", kv)
		}
		v.Set(parts[0], parts[1])
	}

	if err := v.Unmarshal(&result); err != nil {
		return nil, errors.Wrap(err, "config: overlay error")
	}
	if err := result.validateAndInjectDefaults(id); err != nil {
		return nil, err
	}
	return &result, nil
}
