//go:build vulkan && (linux || windows || darwin)
// +build vulkan
// +build linux windows darwin

package driver

/*
#cgo linux LDFLAGS: -lvulkan
#cgo darwin LDFLAGS: -lvulkan
#cgo windows LDFLAGS: -lvulkan-1

#include <vulkan/vulkan.h>
#include <stdlib.h>
#include <string.h>

static VkResult rgpu_create_instance(VkInstance *instance) {
    VkApplicationInfo appInfo = {0};
    appInfo.sType = VK_STRUCTURE_TYPE_APPLICATION_INFO;
    appInfo.pApplicationName = "rgpu-server";
    appInfo.apiVersion = VK_API_VERSION_1_2;

    VkInstanceCreateInfo createInfo = {0};
    createInfo.sType = VK_STRUCTURE_TYPE_INSTANCE_CREATE_INFO;
    createInfo.pApplicationInfo = &appInfo;

    return vkCreateInstance(&createInfo, NULL, instance);
}

static uint32_t rgpu_enumerate_physical_devices(VkInstance instance, VkPhysicalDevice *out, uint32_t cap) {
    uint32_t count = cap;
    if (vkEnumeratePhysicalDevices(instance, &count, out) != VK_SUCCESS) {
        return 0;
    }
    return count;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/rgpu/rgpu/pkg/protocol"
)

const maxPhysicalDevices = 16

// Vulkan is the real Vulkan driver backend, linked only with `-tags
// vulkan`. It mirrors Software's handle-allocation contract: a monotonic
// resource id mapped to the native Vulkan handle of matching kind.
type Vulkan struct {
	mu         sync.Mutex
	next       uint64
	instances  map[uint64]C.VkInstance
	physDevs   map[uint64]C.VkPhysicalDevice
}

// NewVulkan returns an empty Vulkan backend; instances are created
// on demand via VkTagCreateInstance, matching real application behavior.
func NewVulkan() *Vulkan {
	return &Vulkan{
		next:      1,
		instances: make(map[uint64]C.VkInstance),
		physDevs:  make(map[uint64]C.VkPhysicalDevice),
	}
}

func (v *Vulkan) allocID() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.next
	v.next++
	return id
}

// Execute runs the subset of the Vulkan command taxonomy this backend
// implements against a real ICD. As with Cuda, unimplemented tags
// return UnsupportedCommand rather than a silent no-op.
func (v *Vulkan) Execute(cmd *protocol.VulkanCommand) (*protocol.VulkanResponse, error) {
	switch cmd.Tag {
	case protocol.VkTagCreateInstance:
		var inst C.VkInstance
		if res := C.rgpu_create_instance(&inst); res != C.VK_SUCCESS {
			return nil, fmt.Errorf("driver: vkCreateInstance failed: %d", int(res))
		}
		id := v.allocID()
		v.mu.Lock()
		v.instances[id] = inst
		v.mu.Unlock()
		h := protocol.NetworkHandle{ResourceID: id, ResourceType: protocol.ResourceVkInstance}
		return &protocol.VulkanResponse{Tag: protocol.VkRespHandle, Handle: h}, nil

	case protocol.VkTagDestroyInstance:
		v.mu.Lock()
		inst, ok := v.instances[cmd.Instance.ResourceID]
		delete(v.instances, cmd.Instance.ResourceID)
		v.mu.Unlock()
		if ok {
			C.vkDestroyInstance(inst, nil)
		}
		return &protocol.VulkanResponse{Tag: protocol.VkRespSuccess}, nil

	case protocol.VkTagEnumeratePhysicalDevices:
		v.mu.Lock()
		inst, ok := v.instances[cmd.Instance.ResourceID]
		v.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("driver: enumerate on unknown instance %v", cmd.Instance)
		}
		var raw [maxPhysicalDevices]C.VkPhysicalDevice
		n := C.rgpu_enumerate_physical_devices(inst, (*C.VkPhysicalDevice)(unsafe.Pointer(&raw[0])), C.uint32_t(maxPhysicalDevices))
		handles := make([]protocol.NetworkHandle, 0, n)
		v.mu.Lock()
		for i := 0; i < int(n); i++ {
			id := v.next
			v.next++
			v.physDevs[id] = raw[i]
			handles = append(handles, protocol.NetworkHandle{ResourceID: id, ResourceType: protocol.ResourceVkPhysicalDevice})
		}
		v.mu.Unlock()
		return &protocol.VulkanResponse{Tag: protocol.VkRespHandles, Handles: handles}, nil

	default:
		return nil, protocol.NewUnsupportedCommand(fmt.Sprintf("vulkan tag %d not implemented by native driver", cmd.Tag))
	}
}
