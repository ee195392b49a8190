// Package config binds MiniC's small set of runtime limits from the
// environment. These values make the evaluator's call-stack guard and the
// lexer's safety cap configurable; the only flag, cmd/minic's --max-depth,
// overrides MaxCallDepth after the environment has been read.
package config

import "github.com/caarlos0/env/v11"

// Config holds the evaluator/lexer safety limits. Defaults are generous
// enough that no MiniC program within the spec's scope should ever hit
// them; they exist to turn runaway recursion into a reported error instead
// of a stack overflow.
type Config struct {
	// MaxCallDepth bounds the evaluator's call-stack frame count.
	MaxCallDepth int `env:"MINIC_MAX_CALL_DEPTH" envDefault:"1000"`
	// MaxTokens bounds the number of tokens the lexer will produce before
	// giving up on a pathological input.
	MaxTokens int `env:"MINIC_MAX_TOKENS" envDefault:"1000000"`
}

// Load reads Config from the environment, applying defaults for anything
// unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns a Config populated with its struct-tag defaults, for
// callers (and tests) that don't need environment overrides.
func Default() Config {
	return Config{MaxCallDepth: 1000, MaxTokens: 1000000}
}
