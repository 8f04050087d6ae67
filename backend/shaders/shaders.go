// Package shaders embeds the pre-"compiled" GPU kernel artifacts that the
// Metal and Vulkan host drivers (backend/metalgpu, backend/vulkangpu) load
// verbatim at init. An actual shader-compilation pipeline is out of scope
// here; what matters is that host drivers load a finished artifact rather
// than assembling kernel code at runtime.
//
// literal.metal and regex.metal are Metal Shading Language source text;
// Apple's Metal runtime compiles MSL source at pipeline-creation time, so
// no offline compiler is needed to embed them. literal.spv and regex.spv
// are placeholder SPIR-V binary blobs — an actual SPIR-V toolchain is not
// part of this repository's build (see DESIGN.md); they stand in for what
// `glslc`/`dxc` would produce from the same kernel contracts (bmh_search
// and regex_search_lines, respectively).
package shaders

import "embed"

//go:embed literal.metal regex.metal
var metalFS embed.FS

//go:embed literal.spv
var literalSPIRVFS embed.FS

//go:embed regex.spv
var regexSPIRVFS embed.FS

// MetalSource returns the embedded Metal Shading Language source
// containing build_skip_table and bmh_search (kernel names).
func MetalSource() ([]byte, error) {
	return metalFS.ReadFile("literal.metal")
}

// MetalRegexSource returns the embedded Metal Shading Language source
// containing regex_search_lines.
func MetalRegexSource() ([]byte, error) {
	return metalFS.ReadFile("regex.metal")
}

// LiteralSPIRV returns the embedded SPIR-V binary the Vulkan driver loads
// into the bmh_search compute pipeline's VkShaderModule.
func LiteralSPIRV() ([]byte, error) {
	return literalSPIRVFS.ReadFile("literal.spv")
}

// RegexSPIRV returns the embedded SPIR-V binary the Vulkan driver loads
// into the regex_search_lines compute pipeline's VkShaderModule. The
// checked-in blob is a placeholder header (see the package comment), so
// pipeline creation fails on a real driver and the dispatcher falls back
// to the CPU engine.
func RegexSPIRV() ([]byte, error) {
	return regexSPIRVFS.ReadFile("regex.spv")
}
