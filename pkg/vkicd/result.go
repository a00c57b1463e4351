package vkicd

// Vulkan VkResult codes the intercept library needs to return directly
// when a handle lookup or allocation fails before a command is even sent.
const (
	Success               int32 = 0
	ErrorOutOfHostMemory   int32 = -1
	ErrorOutOfDeviceMemory int32 = -2
	ErrorInitializationFailed int32 = -3
	ErrorDeviceLost        int32 = -4
	ErrorMemoryMapFailed   int32 = -5
	ErrorUnknown           int32 = -1000000000
)
