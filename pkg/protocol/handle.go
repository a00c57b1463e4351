// Package protocol defines the wire-level data model shared by the RGPU
// server, client daemon, and intercept libraries: network handles,
// resource type tags, GPU capability descriptors, the CUDA/Vulkan command
// taxonomies, and the top-level message envelope. Nothing in this package
// touches a socket -- see pkg/wire for framing and encoding.
package protocol

import "fmt"

// ResourceType tags the kind of GPU resource a NetworkHandle refers to.
// The tag travels with every handle so the server can validate that a
// handle presented in, say, a VkDestroyBuffer command actually names a
// buffer and not a stale image handle reused after a resource_id wrap.
type ResourceType uint8

const (
	ResourceNone ResourceType = iota

	// Vulkan resources
	ResourceVkInstance
	ResourceVkPhysicalDevice
	ResourceVkDevice
	ResourceVkQueue
	ResourceVkCommandPool
	ResourceVkCommandBuffer
	ResourceVkDeviceMemory
	ResourceVkBuffer
	ResourceVkImage
	ResourceVkImageView
	ResourceVkSampler
	ResourceVkPipeline
	ResourceVkPipelineLayout
	ResourceVkDescriptorSetLayout
	ResourceVkDescriptorPool
	ResourceVkDescriptorSet
	ResourceVkShaderModule
	ResourceVkRenderPass
	ResourceVkFramebuffer
	ResourceVkFence
	ResourceVkSemaphore
	ResourceVkEvent
	ResourceVkSwapchain

	// CUDA resources
	ResourceCuDevice
	ResourceCuContext
	ResourceCuModule
	ResourceCuFunction
	ResourceCuDevicePtr
	ResourceCuStream
	ResourceCuEvent
	ResourceCuHostPtr
	ResourceCuMemPool
	ResourceCuLinker
)

var resourceTypeNames = [...]string{
	ResourceNone:                  "none",
	ResourceVkInstance:            "vk_instance",
	ResourceVkPhysicalDevice:      "vk_physical_device",
	ResourceVkDevice:              "vk_device",
	ResourceVkQueue:               "vk_queue",
	ResourceVkCommandPool:         "vk_command_pool",
	ResourceVkCommandBuffer:       "vk_command_buffer",
	ResourceVkDeviceMemory:        "vk_device_memory",
	ResourceVkBuffer:              "vk_buffer",
	ResourceVkImage:               "vk_image",
	ResourceVkImageView:           "vk_image_view",
	ResourceVkSampler:             "vk_sampler",
	ResourceVkPipeline:            "vk_pipeline",
	ResourceVkPipelineLayout:      "vk_pipeline_layout",
	ResourceVkDescriptorSetLayout: "vk_descriptor_set_layout",
	ResourceVkDescriptorPool:      "vk_descriptor_pool",
	ResourceVkDescriptorSet:       "vk_descriptor_set",
	ResourceVkShaderModule:        "vk_shader_module",
	ResourceVkRenderPass:          "vk_render_pass",
	ResourceVkFramebuffer:         "vk_framebuffer",
	ResourceVkFence:               "vk_fence",
	ResourceVkSemaphore:           "vk_semaphore",
	ResourceVkEvent:               "vk_event",
	ResourceVkSwapchain:           "vk_swapchain",
	ResourceCuDevice:              "cu_device",
	ResourceCuContext:             "cu_context",
	ResourceCuModule:              "cu_module",
	ResourceCuFunction:            "cu_function",
	ResourceCuDevicePtr:           "cu_device_ptr",
	ResourceCuStream:              "cu_stream",
	ResourceCuEvent:               "cu_event",
	ResourceCuHostPtr:             "cu_host_ptr",
	ResourceCuMemPool:             "cu_mem_pool",
	ResourceCuLinker:              "cu_linker",
}

// String implements fmt.Stringer for log and error messages.
func (rt ResourceType) String() string {
	if int(rt) < len(resourceTypeNames) {
		return resourceTypeNames[rt]
	}
	return fmt.Sprintf("resource_type(%d)", uint8(rt))
}

// NetworkHandle is a network-safe identifier for a GPU resource. It is
// opaque to the intercept library: the server mints the resource_id and
// the client only ever stores and forwards the 4-tuple.
type NetworkHandle struct {
	ServerID     uint16
	SessionID    uint32
	ResourceID   uint64
	ResourceType ResourceType
}

// NullHandle is the zero-value handle representing "no resource".
func NullHandle() NetworkHandle {
	return NetworkHandle{ResourceType: ResourceNone}
}

// NullStreamHandle represents the CUDA default (legacy) stream, which
// has no server-side allocation of its own.
func NullStreamHandle() NetworkHandle {
	return NetworkHandle{ResourceType: ResourceCuStream}
}

// IsNull reports whether h is the null handle.
func (h NetworkHandle) IsNull() bool {
	return h.ResourceType == ResourceNone && h.ResourceID == 0
}

func (h NetworkHandle) String() string {
	return fmt.Sprintf("%s{server=%d session=%d id=%d}", h.ResourceType, h.ServerID, h.SessionID, h.ResourceID)
}
