//go:build !darwin

package dispatch

import (
	"github.com/coregx/grepcore/backend"
	"github.com/coregx/grepcore/backend/vulkangpu"
)

// platformGPUName names the GPU backend this build targets.
const platformGPUName = "vulkan"

// newPlatformGPUBackend constructs the GPU backend for this platform.
func newPlatformGPUBackend() (backend.GPU, error) {
	return vulkangpu.New()
}
