package config

import (
	"time"

	"github.com/kbukum/bindkit/logger"
	"github.com/kbukum/bindkit/observability"
	"github.com/kbukum/bindkit/validation"
)

// Export interval bounds when metrics are enabled.
const (
	MinMetricsInterval = time.Second
	MaxMetricsInterval = time.Hour
)

// Engine is the configuration of a bindkit process: registries, the
// injection engine and the ambient logging and metrics.
//
// Example config.yml:
//
//	name: bindkit
//	resolution:
//	  policy: strict
//	injection:
//	  stale_policy: clear
//	  max_depth: 32
//	logging:
//	  level: debug
type Engine struct {
	Name        string           `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string           `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string           `yaml:"version" mapstructure:"version"`
	Logging     logger.Config    `yaml:"logging" mapstructure:"logging"`
	Resolution  ResolutionConfig `yaml:"resolution" mapstructure:"resolution"`
	Injection   InjectionConfig  `yaml:"injection" mapstructure:"injection"`
	Pool        PoolConfig       `yaml:"pool" mapstructure:"pool"`
	Metrics     MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults applies default values to every section.
func (c *Engine) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "bindkit"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
	c.Resolution.ApplyDefaults()
	c.Injection.ApplyDefaults()
	c.Metrics.ApplyDefaults()
}

// Validate checks struct tags and cross-field rules and reports every
// violation in one INVALID_CONFIG error.
func (c *Engine) Validate() error {
	v := validation.New().Merge(validation.Validate(c))
	if err := c.Logging.Validate(); err != nil {
		v.AddError("logging", err.Error())
	}
	if c.Metrics.Enabled {
		validation.Range(v, "metrics.interval", c.Metrics.Interval, MinMetricsInterval, MaxMetricsInterval)
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// MeterConfig derives the meter provider configuration.
func (c *Engine) MeterConfig() observability.MeterConfig {
	mc := observability.DefaultMeterConfig(c.Name)
	mc.Environment = c.Environment
	if c.Version != "" {
		mc.ServiceVersion = c.Version
	}
	mc.Endpoint = c.Metrics.Endpoint
	mc.Insecure = c.Metrics.Insecure
	if c.Metrics.Interval > 0 {
		mc.Interval = c.Metrics.Interval
	}
	return mc
}

// Load resolves, loads, defaults and validates the engine configuration of
// serviceName.
func Load(serviceName string, opts ...LoaderOption) (*Engine, error) {
	cfg := &Engine{Name: serviceName}
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
