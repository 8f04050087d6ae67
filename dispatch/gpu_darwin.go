//go:build darwin

package dispatch

import (
	"github.com/coregx/grepcore/backend"
	"github.com/coregx/grepcore/backend/metalgpu"
)

// platformGPUName names the GPU backend this build targets, used in log
// messages before the backend is actually constructed.
const platformGPUName = "metal"

// newPlatformGPUBackend constructs the GPU backend for this platform.
// Metal is preferred on Darwin; Vulkan-via-MoltenVK is not attempted
// when Metal is present.
func newPlatformGPUBackend() (backend.GPU, error) {
	return metalgpu.New()
}
