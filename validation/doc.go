// Package validation provides struct-tag validation and a fluent field
// validator for engine inputs and configuration.
//
// Struct validation uses go-playground/validator tags:
//
//	type Settings struct {
//		Workers int `mapstructure:"workers" validate:"min=1,max=256"`
//	}
//	if err := validation.Validate(&s); err != nil { ... }
//
// The fluent Validator collects field errors for hand-rolled checks:
//
//	err := validation.New().
//		Required("name", name).
//		Range("capacity", capacity, 0, 4096).
//		Validate()
//
// All failures surface as *errors.EngineError with code INVALID_INPUT and
// a per-field breakdown in Details.
package validation
