// Package dispatch implements the server-side command executors: GPU
// discovery, handle validation against the owning session, and routing
// each CudaCommand/VulkanCommand to the linked driver backend.
package dispatch

import (
	"github.com/rgpu/rgpu/pkg/driver"
	"github.com/rgpu/rgpu/pkg/protocol"
)

// nvidiaVendorID is NVIDIA's PCI vendor id, stamped on every device
// DiscoverGpus reports; no vendor-id check is made against real
// Vulkan physical device properties.
const nvidiaVendorID = 0x10DE

// DiscoverGpus builds the GpuList a server advertises in AuthResult:
// one entry per device cuda.DeviceCount reports, each with fixed
// simulated values (name, discrete type, 8 GiB in one device-local
// heap, NVIDIA vendor id, CUDA support) and a nil compute capability.
// vk is consulted only to set SupportsVulkan (true when vk is non-nil).
func DiscoverGpus(serverID uint16, cuda driver.CudaDriver, vk driver.VulkanDriver) []protocol.GpuInfo {
	n := cuda.DeviceCount()
	gpus := make([]protocol.GpuInfo, 0, n)
	for i := 0; i < n; i++ {
		gpus = append(gpus, protocol.GpuInfo{
			DeviceName:        "rgpu-simulated-device",
			VendorID:          nvidiaVendorID,
			DeviceID:          uint32(i),
			DeviceType:        protocol.GpuDeviceDiscrete,
			TotalMemory:       8 << 30,
			SupportsVulkan:    vk != nil,
			SupportsCuda:      true,
			QueueFamilyCount:  1,
			MemoryHeaps:       []protocol.MemoryHeapInfo{{Size: 8 << 30, IsDeviceLocal: true}},
			ServerDeviceIndex: uint32(i),
			ServerID:          serverID,
		})
	}
	return gpus
}
