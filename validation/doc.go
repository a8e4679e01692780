// Package validation provides validation utilities for bindkit configuration.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Field names in messages are
// taken from mapstructure (or yaml) tags so they match the configuration
// keys.
//
// # Struct Tag Validation
//
//	type Resolution struct {
//	    Policy string `mapstructure:"policy" validate:"oneof=permissive strict"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New().Merge(validation.Validate(cfg))
//	validation.Range(v, "metrics.interval", interval, time.Second, time.Hour)
//	v.Custom(depth > 0, "max_depth", "must be positive")
//	if err := v.Validate(); err != nil {
//	    return err // INVALID_CONFIG listing every violation
//	}
package validation
