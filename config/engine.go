package config

import (
	"fmt"

	"github.com/kallebelins/mvp24hours-go/logger"
	"github.com/kallebelins/mvp24hours-go/pipe"
	"github.com/kallebelins/mvp24hours-go/stream"
	"github.com/kallebelins/mvp24hours-go/validation"
)

// PipelineConfig holds orchestrator behavior switches.
type PipelineConfig struct {
	// BreakOnFault stops the operation loop at the first fault instead of
	// running the remaining operations.
	BreakOnFault bool `yaml:"break_on_fault" mapstructure:"break_on_fault"`
	// ForceRollbackOnFault compensates executed operations when a run
	// ends faulty.
	ForceRollbackOnFault bool `yaml:"force_rollback_on_fault" mapstructure:"force_rollback_on_fault"`
	// PropagateError surfaces the captured failure as Execute's error
	// return instead of leaving it on the message only.
	PropagateError bool `yaml:"propagate_error" mapstructure:"propagate_error"`
	// MaxParallel caps branch concurrency in parallel groups. Zero means
	// one branch per operation.
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
}

// Options translates the pipeline settings into orchestrator options.
func (c PipelineConfig) Options() []pipe.Option {
	var opts []pipe.Option
	if c.BreakOnFault {
		opts = append(opts, pipe.WithBreakOnFault())
	}
	if c.ForceRollbackOnFault {
		opts = append(opts, pipe.WithForceRollbackOnFault())
	}
	if c.PropagateError {
		opts = append(opts, pipe.WithPropagateError())
	}
	return opts
}

// GroupOptions translates the pipeline settings into parallel group options.
func (c PipelineConfig) GroupOptions() []pipe.GroupOption {
	var opts []pipe.GroupOption
	if c.MaxParallel > 0 {
		opts = append(opts, pipe.WithMaxParallel(c.MaxParallel))
	}
	return opts
}

// StreamConfig holds streaming pipeline settings.
type StreamConfig struct {
	// Capacity is the stage boundary channel capacity. Zero means
	// unbuffered.
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"gte=0"`
	// Workers is the default worker count for parallel processing.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=1024"`
}

// Options translates the stream settings into pipeline options.
func (c StreamConfig) Options() []stream.Option {
	return []stream.Option{stream.WithCapacity(c.Capacity)}
}

// Config is the engine configuration root. Applications embed it in their
// own config structs with `mapstructure:",squash"` or load it standalone
// via Load.
type Config struct {
	Name        string         `yaml:"name" mapstructure:"name"`
	Environment string         `yaml:"environment" mapstructure:"environment"`
	Debug       bool           `yaml:"debug" mapstructure:"debug"`
	Pipeline    PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Stream      StreamConfig   `yaml:"stream" mapstructure:"stream"`
	Logging     logger.Config  `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Stream.Workers == 0 {
		c.Stream.Workers = 4
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, env := range validEnvs {
		if c.Environment == env {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
