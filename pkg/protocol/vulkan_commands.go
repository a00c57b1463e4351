package protocol

// VulkanCommandTag discriminates a VulkanCommand variant. Unlike CUDA's
// flat Driver API surface, Vulkan work mostly arrives pre-batched: the
// intercept library accumulates vkCmd* calls locally and ships them as one
// RecordedCommand list inside SubmitRecordedCommands, so the tag set here
// stays small -- direct object/queue calls plus the recorded-command
// envelope.
type VulkanCommandTag uint16

const (
	VkTagCreateInstance VulkanCommandTag = iota
	VkTagDestroyInstance
	VkTagEnumeratePhysicalDevices
	VkTagGetPhysicalDeviceProperties
	VkTagGetPhysicalDeviceMemoryProperties
	VkTagGetPhysicalDeviceQueueFamilyProperties
	VkTagGetPhysicalDeviceFeatures
	VkTagGetPhysicalDeviceFormatProperties
	VkTagCreateDevice
	VkTagDestroyDevice
	VkTagGetDeviceQueue
	VkTagCreateCommandPool
	VkTagDestroyCommandPool
	VkTagAllocateCommandBuffers
	VkTagFreeCommandBuffers
	VkTagResetCommandBuffer
	VkTagBeginCommandBuffer
	VkTagEndCommandBuffer
	VkTagSubmitRecordedCommands
	VkTagQueueSubmit
	VkTagQueueWaitIdle
	VkTagDeviceWaitIdle
	VkTagAllocateMemory
	VkTagFreeMemory
	VkTagMapMemory
	VkTagUnmapMemory
	VkTagFlushMappedMemoryRanges
	VkTagInvalidateMappedMemoryRanges
	VkTagCreateBuffer
	VkTagDestroyBuffer
	VkTagBindBufferMemory
	VkTagCreateImage
	VkTagDestroyImage
	VkTagBindImageMemory
	VkTagCreateImageView
	VkTagDestroyImageView
	VkTagCreateSampler
	VkTagDestroySampler
	VkTagCreateShaderModule
	VkTagDestroyShaderModule
	VkTagCreatePipelineLayout
	VkTagDestroyPipelineLayout
	VkTagCreateDescriptorSetLayout
	VkTagDestroyDescriptorSetLayout
	VkTagCreateDescriptorPool
	VkTagDestroyDescriptorPool
	VkTagAllocateDescriptorSets
	VkTagUpdateDescriptorSets
	VkTagCreateGraphicsPipelines
	VkTagCreateComputePipelines
	VkTagDestroyPipeline
	VkTagCreateRenderPass
	VkTagDestroyRenderPass
	VkTagCreateFramebuffer
	VkTagDestroyFramebuffer
	VkTagCreateFence
	VkTagDestroyFence
	VkTagWaitForFences
	VkTagResetFences
	VkTagGetFenceStatus
	VkTagCreateSemaphore
	VkTagDestroySemaphore
	VkTagCreateEvent
	VkTagDestroyEvent
	VkTagSetEvent
	VkTagResetEvent
	VkTagGetEventStatus
	VkTagCreateSwapchain
	VkTagDestroySwapchain
)

// RecordedCommandKind enumerates the vkCmd* calls that can be captured
// into a command buffer's local recorded-command list between begin and
// end/reset (invariant 5: the list is monotone over that span).
type RecordedCommandKind uint16

const (
	RecBindPipeline RecordedCommandKind = iota
	RecBindDescriptorSets
	RecBindVertexBuffers
	RecBindIndexBuffer
	RecDraw
	RecDrawIndexed
	RecDispatch
	RecCopyBuffer
	RecCopyImage
	RecCopyBufferToImage
	RecCopyImageToBuffer
	RecPipelineBarrier
	RecPushConstants
	RecSetViewport
	RecSetScissor
	RecBeginRenderPass
	RecEndRenderPass
	RecNextSubpass
)

// RecordedCommand is one entry in a command buffer's local recording; the
// intercept library appends these and ships the whole slice in a single
// SubmitRecordedCommands message immediately before the real queue submit.
type RecordedCommand struct {
	Kind RecordedCommandKind

	Pipeline       NetworkHandle
	Layout         NetworkHandle
	DescriptorSets []NetworkHandle
	Buffers        []NetworkHandle
	Offsets        []uint64
	IndexBuffer    NetworkHandle
	IndexOffset    uint64
	IndexType      uint32

	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
	IndexCount    uint32
	FirstIndex    int32
	VertexOffset  int32

	GroupCountX, GroupCountY, GroupCountZ uint32

	SrcBuffer, DstBuffer NetworkHandle
	SrcImage, DstImage   NetworkHandle
	Regions              []byte

	SrcStageMask, DstStageMask uint32
	Barriers                   []byte

	StageFlags uint32
	Offset     uint32
	Values     []byte

	X, Y, Width, Height float32
	MinDepth, MaxDepth   float32

	RenderPass  NetworkHandle
	Framebuffer NetworkHandle
	RenderArea  []byte
	ClearValues []byte
}

// VulkanCommand is the Vulkan command request taxonomy, structured like
// CudaCommand: one flat struct tagged by Tag, with Recorded populated only
// for SubmitRecordedCommands.
type VulkanCommand struct {
	Tag VulkanCommandTag

	Instance       NetworkHandle
	PhysicalDevice NetworkHandle
	Device         NetworkHandle
	Queue          NetworkHandle
	CommandPool    NetworkHandle
	CommandBuffer  NetworkHandle
	Memory         NetworkHandle
	Buffer         NetworkHandle
	Image          NetworkHandle
	ImageView      NetworkHandle
	Sampler        NetworkHandle
	ShaderModule   NetworkHandle
	PipelineLayout NetworkHandle
	DescSetLayout  NetworkHandle
	DescPool       NetworkHandle
	DescSets       []NetworkHandle
	Pipeline       NetworkHandle
	RenderPass     NetworkHandle
	Framebuffer    NetworkHandle
	Fence          NetworkHandle
	Fences         []NetworkHandle
	Semaphore      NetworkHandle
	Event          NetworkHandle
	Swapchain      NetworkHandle

	QueueFamilyIndex uint32
	AllocationSize   uint64
	MemoryTypeIndex  uint32
	Offset           uint64
	Size             uint64

	// CreateInfo carries a create-struct blob for Create* calls, and is
	// reused for UnmapMemory's shadow-buffer write-back payload (the
	// full mapped region's current contents, per the shadow-memory
	// protocol's unmap step).
	CreateInfo []byte
	Count      uint32
	WaitAll    bool
	TimeoutNs  uint64

	// SubmitRecordedCommands payload: the full recorded-command list for
	// one command buffer, replayed server-side in order before submit.
	Recorded []RecordedCommand
}

// VulkanResponseTag discriminates a VulkanResponse variant.
type VulkanResponseTag uint16

const (
	VkRespSuccess VulkanResponseTag = iota
	VkRespError
	VkRespHandle
	VkRespHandles
	VkRespRawBytes
	VkRespBool
	VkRespUInt32
)

// VulkanResponse mirrors VulkanCommand: a flat struct tagged by kind.
// Query-style calls (device properties, memory properties, queue family
// properties, format properties) return RawBytes -- an opaque copy of the
// native vendor struct that the intercept library writes back into the
// application's struct verbatim, avoiding per-field schema drift between
// driver versions (per the server dispatcher's query-answering contract).
type VulkanResponse struct {
	Tag VulkanResponseTag

	Code    int32
	Message string

	Handle  NetworkHandle
	Handles []NetworkHandle

	RawBytes []byte
	Bool     bool
	UInt32   uint32
}
