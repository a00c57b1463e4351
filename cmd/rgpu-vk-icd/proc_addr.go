// vk_icdGetInstanceProcAddr is the one entry point the Vulkan loader
// calls directly (by name, via dlsym); every other vk* symbol above is
// reached only through the table this file builds, exactly as the
// loader's ICD contract requires. _cgo_export.h declares the C
// prototypes for this package's other //export functions, letting the
// table below take their addresses.
package main

/*
#include <string.h>
#include "_cgo_export.h"

typedef void (*PFN_vkVoidFunction)(void);

static PFN_vkVoidFunction rgpu_resolve_proc(const char *name) {
    if (name == NULL) {
        return NULL;
    }
#define ENTRY(fn) if (strcmp(name, #fn) == 0) { return (PFN_vkVoidFunction)(fn); }
    ENTRY(vk_icdNegotiateLoaderICDInterfaceVersion)
    ENTRY(vkCreateInstance)
    ENTRY(vkDestroyInstance)
    ENTRY(vkEnumeratePhysicalDevices)
    ENTRY(vkGetPhysicalDeviceProperties)
    ENTRY(vkCreateDevice)
    ENTRY(vkDestroyDevice)
    ENTRY(vkGetDeviceQueue)
    ENTRY(vkCreateCommandPool)
    ENTRY(vkAllocateCommandBuffers)
    ENTRY(vkBeginCommandBuffer)
    ENTRY(vkEndCommandBuffer)
    ENTRY(vkResetCommandBuffer)
    ENTRY(vkCmdBindPipeline)
    ENTRY(vkCmdDispatch)
    ENTRY(vkCmdCopyBuffer)
    ENTRY(vkQueueSubmit)
    ENTRY(vkAllocateMemory)
    ENTRY(vkFreeMemory)
    ENTRY(vkMapMemory)
    ENTRY(vkUnmapMemory)
    ENTRY(vkFlushMappedMemoryRanges)
    ENTRY(vkInvalidateMappedMemoryRanges)
    ENTRY(vkCreateBuffer)
    ENTRY(vkDestroyBuffer)
    ENTRY(vkBindBufferMemory)
#undef ENTRY
    return NULL;
}
*/
import "C"

import "unsafe"

//export vk_icdGetInstanceProcAddr
func vk_icdGetInstanceProcAddr(instance unsafe.Pointer, name *C.char) C.PFN_vkVoidFunction {
	return C.rgpu_resolve_proc(name)
}

// vk_icdGetPhysicalDeviceProcAddr resolves the subset of entry points
// the loader is permitted to look up per-physical-device rather than
// per-instance; every function this ICD exports is instance-level, so
// it shares the same table.
//
//export vk_icdGetPhysicalDeviceProcAddr
func vk_icdGetPhysicalDeviceProcAddr(instance unsafe.Pointer, name *C.char) C.PFN_vkVoidFunction {
	return C.rgpu_resolve_proc(name)
}
