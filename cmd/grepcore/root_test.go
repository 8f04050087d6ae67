package main

import (
	"testing"

	"github.com/coregx/grepcore/dispatch"
)

func TestApplyBackendOverride(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		check   func(t *testing.T, cfg dispatch.Config)
	}{
		{"auto leaves defaults", "auto", func(t *testing.T, cfg dispatch.Config) {
			def := dispatch.DefaultConfig()
			if cfg != def {
				t.Fatalf("expected unchanged config, got %+v", cfg)
			}
		}},
		{"cpu pins ceiling to zero", "cpu", func(t *testing.T, cfg dispatch.Config) {
			if cfg.MaxGPUSize != 0 {
				t.Fatalf("expected MaxGPUSize 0, got %d", cfg.MaxGPUSize)
			}
		}},
		{"gpu pins floor and bias", "gpu", func(t *testing.T, cfg dispatch.Config) {
			if cfg.MinGPUSize != 1 || cfg.GPUBias != 20 {
				t.Fatalf("expected floor=1 bias=20, got floor=%d bias=%d", cfg.MinGPUSize, cfg.GPUBias)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := dispatch.DefaultConfig()
			applyBackendOverride(&cfg, tt.backend)
			tt.check(t, cfg)
		})
	}
}

func TestLineBytes(t *testing.T) {
	text := []byte("first\nsecond\nthird")
	got := string(lineBytes(text, 6))
	if got != "second" {
		t.Fatalf("lineBytes() = %q, want %q", got, "second")
	}
	got = string(lineBytes(text, 13))
	if got != "third" {
		t.Fatalf("lineBytes() = %q, want %q", got, "third")
	}
}
