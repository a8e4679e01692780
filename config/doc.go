// Package config loads and validates bindkit configuration.
//
// It uses Viper to read a YAML file found in standard locations, loads a
// .env file with godotenv, and lets BINDKIT_ environment variables override
// individual keys (BINDKIT_INJECTION_MAX_DEPTH sets injection.max_depth).
//
// # Usage
//
//	cfg, err := config.Load("bindkit", config.WithConfigFile("config.yml"))
//	if err != nil {
//	    return err
//	}
//	policy, _ := binding.ParsePolicy(cfg.Resolution.Policy)
package config
