package dispatch

import "github.com/coregx/grepcore/backend"

// HardwareTier buckets a probed GPU into one of four capability classes.
// The tier contributes a one-time bias to every score computed while
// that device is active, applied once, when the Dispatcher first
// constructs its GPU backend, rather than per search.
type HardwareTier int

const (
	TierEntry HardwareTier = iota
	TierMid
	TierHigh
	TierUltra
)

func (t HardwareTier) String() string {
	switch t {
	case TierEntry:
		return "entry"
	case TierMid:
		return "mid"
	case TierHigh:
		return "high"
	case TierUltra:
		return "ultra"
	default:
		return "unknown"
	}
}

// ultraWorkingSetBytes is the recommended-working-set floor used to
// separate "ultra" discrete GPUs (8 GiB+ of fast local memory) from
// merely "high" ones.
const ultraWorkingSetBytes = 8 << 30

// ultraThreadgroupThreads is the max-threadgroup-threads floor paired with
// ultraWorkingSetBytes for the ultra tier.
const ultraThreadgroupThreads = 1024

// ClassifyTier buckets caps into a HardwareTier using the discrete/
// unified-memory flag, max threadgroup size, and working-set size.
func ClassifyTier(caps backend.Capabilities) HardwareTier {
	switch {
	case caps.Discrete() && caps.MaxThreadgroupThreads >= ultraThreadgroupThreads && caps.RecommendedWorkingSetSize >= ultraWorkingSetBytes:
		return TierUltra
	case caps.Discrete() && caps.MaxThreadgroupThreads >= ultraThreadgroupThreads:
		return TierHigh
	case caps.UnifiedMemory:
		return TierMid
	default:
		return TierEntry
	}
}

// TierBias returns the one-time score adjustment assigned to each
// hardware tier.
func TierBias(t HardwareTier) int {
	switch t {
	case TierUltra:
		return 4
	case TierHigh:
		return 2
	case TierMid:
		return 0
	default:
		return -2
	}
}

// ApplyHardwareTier folds caps' tier bias into cfg.GPUBias, clamped back
// to the [-20, 20] range Config.Validate enforces.
func ApplyHardwareTier(cfg *Config, caps backend.Capabilities) {
	cfg.GPUBias += TierBias(ClassifyTier(caps))
	if cfg.GPUBias > 20 {
		cfg.GPUBias = 20
	}
	if cfg.GPUBias < -20 {
		cfg.GPUBias = -20
	}
}
