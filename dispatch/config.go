// Package dispatch implements backend dispatcher: given a
// pattern, its search options, and the text size, it chooses one of
// {CPU, Metal, Vulkan}, applies the hard-rule short circuits, scores the
// workload when no hard rule fires, and falls back to the CPU engine when
// a GPU backend fails to initialize or execute.
package dispatch

import "fmt"

// Config holds the dispatcher's tunable parameters: gpu_bias,
// short_pattern_len, long_pattern_len, min_gpu_size, max_gpu_size.
type Config struct {
	// GPUBias is an additive, user-configurable nudge applied to every
	// workload score, clamped to [-20, 20]. Positive values favor the GPU,
	// negative values favor the CPU.
	// Default: 0
	GPUBias int

	// ShortPatternLen is the threshold at/under which a pattern earns the
	// "short pattern" scoring bonus (pattern_len <= short_pattern_len).
	// Default: 4
	ShortPatternLen int

	// LongPatternLen is the threshold at/over which a pattern earns the
	// "long pattern" scoring bonus.
	// Default: 8
	LongPatternLen int

	// MinGPUSize is the text-size floor below which the dispatcher always
	// chooses CPU, regardless of score (hard rule).
	// Default: 64 * 1024 (64 KiB)
	MinGPUSize uint64

	// MaxGPUSize is the text-size ceiling above which the dispatcher always
	// chooses CPU (GPU buffer limit).
	// Default: 512 * 1024 * 1024 (512 MiB)
	MaxGPUSize uint64
}

// DefaultConfig returns a Config with the defaults documents.
func DefaultConfig() Config {
	return Config{
		GPUBias:         0,
		ShortPatternLen: 4,
		LongPatternLen:  8,
		MinGPUSize:      64 * 1024,
		MaxGPUSize:      512 * 1024 * 1024,
	}
}

// Validate checks c's fields against the ranges these tuning knobs are
// documented to support. Returns a *ConfigError on the first violation.
func (c Config) Validate() error {
	if c.GPUBias < -20 || c.GPUBias > 20 {
		return &ConfigError{Field: "GPUBias", Message: "must be between -20 and 20"}
	}
	if c.ShortPatternLen < 1 || c.ShortPatternLen > 64 {
		return &ConfigError{Field: "ShortPatternLen", Message: "must be between 1 and 64"}
	}
	if c.LongPatternLen < c.ShortPatternLen || c.LongPatternLen > 256 {
		return &ConfigError{Field: "LongPatternLen", Message: "must be >= ShortPatternLen and <= 256"}
	}
	if c.MinGPUSize == 0 {
		return &ConfigError{Field: "MinGPUSize", Message: "must be > 0"}
	}
	if c.MaxGPUSize < c.MinGPUSize {
		return &ConfigError{Field: "MaxGPUSize", Message: "must be >= MinGPUSize"}
	}
	return nil
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("dispatch: invalid config: %s: %s", e.Field, e.Message)
}
