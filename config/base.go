package config

import "time"

// Defaults for the engine sections.
const (
	DefaultPolicy      = "permissive"
	DefaultStalePolicy = "leave"
	DefaultMaxDepth    = 64
	DefaultInterval    = 15 * time.Second
)

// ResolutionConfig configures how a registry picks among candidates.
type ResolutionConfig struct {
	Policy string `yaml:"policy" mapstructure:"policy" validate:"oneof=permissive strict"`
}

// ApplyDefaults applies default values to resolution configuration.
func (c *ResolutionConfig) ApplyDefaults() {
	if c.Policy == "" {
		c.Policy = DefaultPolicy
	}
}

// InjectionConfig configures the injection engine.
type InjectionConfig struct {
	StalePolicy string `yaml:"stale_policy" mapstructure:"stale_policy" validate:"oneof=leave clear"`
	MaxDepth    int    `yaml:"max_depth" mapstructure:"max_depth" validate:"min=1,max=4096"`
}

// ApplyDefaults applies default values to injection configuration.
func (c *InjectionConfig) ApplyDefaults() {
	if c.StalePolicy == "" {
		c.StalePolicy = DefaultStalePolicy
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
}

// PoolConfig configures the descriptor pool.
type PoolConfig struct {
	Prealloc int `yaml:"prealloc" mapstructure:"prealloc" validate:"min=0,max=1000000"`
}

// MetricsConfig configures OpenTelemetry metric export. An empty endpoint
// keeps metrics in process.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"min=0"`
}

// ApplyDefaults applies default values to metrics configuration.
func (c *MetricsConfig) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
}
