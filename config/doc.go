// Package config loads engine configuration from YAML files, .env files,
// and environment variables, in that precedence order (later wins).
//
// The usual entry point is Load, which fills a Config with defaults,
// overlays whatever sources are found, and validates the result:
//
//	cfg, err := config.Load("payments")
//	if err != nil { ... }
//	p := pipe.New(cfg.Pipeline.Options()...)
//
// Applications embedding the engine in a larger configuration struct can
// use LoadInto with their own type; Config implements ApplyDefaults and
// Validate so the embedding struct can delegate to it.
package config
