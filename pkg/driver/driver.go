// Package driver defines the native-GPU execution boundary: the interfaces
// the server dispatcher calls to actually run a CudaCommand or
// VulkanCommand against hardware. The default build links Software, a
// deterministic simulation driver with no GPU dependency, so the module
// builds and its tests run on any machine; cuda_native.go and
// vulkan_native.go provide real cgo-backed drivers behind the "cuda" and
// "vulkan" build tags, keeping the same build-tag boundary between a
// real cgo backend and a CPU-only fallback that a hardware-dependent
// driver package needs in any deployment.
package driver

import "github.com/rgpu/rgpu/pkg/protocol"

// CudaDriver executes CUDA Driver API commands against a device (real or
// simulated) and returns the matching response.
type CudaDriver interface {
	// Execute runs one command for the given session/device context and
	// returns its response, or an error if the command is malformed or
	// the native call failed.
	Execute(cmd *protocol.CudaCommand) (*protocol.CudaResponse, error)
	// DeviceCount reports how many CUDA-capable devices this driver
	// exposes, used by GPU discovery.
	DeviceCount() int
}

// VulkanDriver executes Vulkan commands, including replaying a
// SubmitRecordedCommands command buffer in order before the real submit.
type VulkanDriver interface {
	Execute(cmd *protocol.VulkanCommand) (*protocol.VulkanResponse, error)
}

// Name identifies which driver backend a process linked in, surfaced in
// metrics and startup logs.
type Name string

const (
	NameSoftware Name = "software"
	NameCuda     Name = "cuda"
	NameVulkan   Name = "vulkan-native"
)
