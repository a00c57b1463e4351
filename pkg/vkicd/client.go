package vkicd

import (
	"github.com/rgpu/rgpu/pkg/daemon/ipcconn"
	"github.com/rgpu/rgpu/pkg/protocol"
)

// transport is the subset of ipcconn.Client's surface a Client needs --
// factored out so tests can substitute a fake connection instead of a
// real Unix socket.
type transport interface {
	Send(msg *protocol.Message) (*protocol.Message, error)
	NextRequestID() protocol.RequestID
}

// Client is the Vulkan ICD's connection to the client daemon plus the
// local state every exported vk* entry point resolves its arguments
// through: the handle store, the shadow-memory mirror, and the
// per-command-buffer recorder. One Client is created per process.
//
// Unlike pkg/cudainterpose.Client, Vulkan calls are not pipelined --
// every command round-trips individually except for the vkCmd* calls a
// command buffer accumulates locally and flushes as one
// SubmitRecordedCommands message right before vkQueueSubmit.
type Client struct {
	conn     transport
	handles  *HandleStore
	shadow   *ShadowTable
	recorder *CommandRecorder
}

// NewClient wires a Client over the daemon's IPC socket at path.
func NewClient(socketPath string) *Client {
	return &Client{
		conn:     ipcconn.New(socketPath),
		handles:  NewHandleStore(),
		shadow:   NewShadowTable(),
		recorder: NewCommandRecorder(),
	}
}

func (c *Client) send(cmd protocol.VulkanCommand) (*protocol.VulkanResponse, error) {
	msg := protocol.Message{
		Tag:       protocol.MsgTagVulkanCommand,
		RequestID: c.conn.NextRequestID(),
		VulkanCmd: &cmd,
	}
	resp, err := c.conn.Send(&msg)
	if err != nil {
		return nil, err
	}
	if resp.Tag == protocol.MsgTagError && resp.Err != nil {
		return nil, resp.Err
	}
	if resp.VulkanResp == nil {
		return nil, protocol.NewSerializationError("daemon returned no vulkan response")
	}
	return resp.VulkanResp, nil
}

func mapError(err error) int32 {
	perr, ok := err.(*protocol.ProtocolError)
	if !ok {
		return ErrorUnknown
	}
	switch perr.Kind {
	case protocol.ErrInvalidHandle:
		return ErrorDeviceLost
	case protocol.ErrOutOfMemory:
		return ErrorOutOfDeviceMemory
	case protocol.ErrGpu:
		if perr.GpuCode != 0 {
			return perr.GpuCode
		}
		return ErrorUnknown
	case protocol.ErrConnectionFailed, protocol.ErrDisconnected:
		return ErrorDeviceLost
	default:
		return ErrorUnknown
	}
}

func respErr(resp *protocol.VulkanResponse) int32 {
	if resp.Tag == protocol.VkRespError {
		return resp.Code
	}
	return Success
}

// CreateInstance mirrors vkCreateInstance. The returned id is wrapped in
// a dispatch cell by the cgo shim before being handed to the
// application, since VkInstance is dispatchable.
func (c *Client) CreateInstance() (uint64, int32) {
	resp, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagCreateInstance})
	if err != nil {
		return 0, mapError(err)
	}
	if code := respErr(resp); code != Success {
		return 0, code
	}
	return c.handles.StoreInstance(resp.Handle), Success
}

// DestroyInstance mirrors vkDestroyInstance.
func (c *Client) DestroyInstance(instance uint64) int32 {
	h, ok := c.handles.RemoveInstance(instance)
	if !ok {
		return ErrorDeviceLost
	}
	_, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagDestroyInstance, Instance: h})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// EnumeratePhysicalDevices mirrors vkEnumeratePhysicalDevices.
func (c *Client) EnumeratePhysicalDevices(instance uint64) ([]uint64, int32) {
	h, ok := c.handles.GetInstance(instance)
	if !ok {
		return nil, ErrorDeviceLost
	}
	resp, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagEnumeratePhysicalDevices, Instance: h})
	if err != nil {
		return nil, mapError(err)
	}
	if code := respErr(resp); code != Success {
		return nil, code
	}
	ids := make([]uint64, len(resp.Handles))
	for i, ph := range resp.Handles {
		ids[i] = c.handles.StorePhysicalDevice(ph)
	}
	return ids, Success
}

// GetPhysicalDeviceProperties mirrors vkGetPhysicalDeviceProperties,
// returning the opaque vendor struct bytes verbatim for the cgo shim to
// copy into the application's VkPhysicalDeviceProperties.
func (c *Client) GetPhysicalDeviceProperties(physicalDevice uint64) ([]byte, int32) {
	h, ok := c.handles.GetPhysicalDevice(physicalDevice)
	if !ok {
		return nil, ErrorDeviceLost
	}
	resp, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagGetPhysicalDeviceProperties, PhysicalDevice: h})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.RawBytes, Success
}

// CreateDevice mirrors vkCreateDevice.
func (c *Client) CreateDevice(physicalDevice uint64) (uint64, int32) {
	h, ok := c.handles.GetPhysicalDevice(physicalDevice)
	if !ok {
		return 0, ErrorDeviceLost
	}
	resp, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagCreateDevice, PhysicalDevice: h})
	if err != nil {
		return 0, mapError(err)
	}
	if code := respErr(resp); code != Success {
		return 0, code
	}
	return c.handles.StoreDevice(resp.Handle), Success
}

// DestroyDevice mirrors vkDestroyDevice.
func (c *Client) DestroyDevice(device uint64) int32 {
	h, ok := c.handles.RemoveDevice(device)
	if !ok {
		return ErrorDeviceLost
	}
	_, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagDestroyDevice, Device: h})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// GetDeviceQueue mirrors vkGetDeviceQueue.
func (c *Client) GetDeviceQueue(device uint64, queueFamilyIndex uint32) (uint64, int32) {
	h, ok := c.handles.GetDevice(device)
	if !ok {
		return 0, ErrorDeviceLost
	}
	resp, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagGetDeviceQueue, Device: h, QueueFamilyIndex: queueFamilyIndex})
	if err != nil {
		return 0, mapError(err)
	}
	return c.handles.StoreQueue(resp.Handle), Success
}

// CreateCommandPool mirrors vkCreateCommandPool.
func (c *Client) CreateCommandPool(device uint64, queueFamilyIndex uint32) (uint64, int32) {
	h, ok := c.handles.GetDevice(device)
	if !ok {
		return 0, ErrorDeviceLost
	}
	resp, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagCreateCommandPool, Device: h, QueueFamilyIndex: queueFamilyIndex})
	if err != nil {
		return 0, mapError(err)
	}
	return c.handles.StoreCmdPool(resp.Handle), Success
}

// AllocateCommandBuffers mirrors vkAllocateCommandBuffers.
func (c *Client) AllocateCommandBuffers(device, pool uint64, count uint32) ([]uint64, int32) {
	devHandle, ok := c.handles.GetDevice(device)
	if !ok {
		return nil, ErrorDeviceLost
	}
	poolHandle, ok := c.handles.GetCmdPool(pool)
	if !ok {
		return nil, ErrorDeviceLost
	}
	resp, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagAllocateCommandBuffers, Device: devHandle, CommandPool: poolHandle, Count: count})
	if err != nil {
		return nil, mapError(err)
	}
	ids := make([]uint64, len(resp.Handles))
	for i, cb := range resp.Handles {
		ids[i] = c.handles.StoreCmdBuffer(cb)
	}
	return ids, Success
}

// BeginCommandBuffer mirrors vkBeginCommandBuffer: no network round trip
// is needed, since recording happens entirely client-side until submit.
func (c *Client) BeginCommandBuffer(cmdBuffer uint64) int32 {
	c.recorder.Begin(cmdBuffer)
	return Success
}

// EndCommandBuffer mirrors vkEndCommandBuffer: the recorded list is left
// in place for QueueSubmit to flush.
func (c *Client) EndCommandBuffer(cmdBuffer uint64) int32 {
	return Success
}

// ResetCommandBuffer mirrors vkResetCommandBuffer, discarding anything
// recorded but not yet submitted.
func (c *Client) ResetCommandBuffer(cmdBuffer uint64) int32 {
	c.recorder.Reset(cmdBuffer)
	return Success
}

// RecordCmdBindPipeline mirrors vkCmdBindPipeline, appending to
// cmdBuffer's local recording rather than sending anything.
func (c *Client) RecordCmdBindPipeline(cmdBuffer, pipeline uint64) int32 {
	ph, ok := c.handles.GetPipeline(pipeline)
	if !ok {
		return ErrorDeviceLost
	}
	c.recorder.Append(cmdBuffer, protocol.RecordedCommand{Kind: protocol.RecBindPipeline, Pipeline: ph})
	return Success
}

// RecordCmdDispatch mirrors vkCmdDispatch.
func (c *Client) RecordCmdDispatch(cmdBuffer uint64, x, y, z uint32) int32 {
	c.recorder.Append(cmdBuffer, protocol.RecordedCommand{Kind: protocol.RecDispatch, GroupCountX: x, GroupCountY: y, GroupCountZ: z})
	return Success
}

// RecordCmdCopyBuffer mirrors vkCmdCopyBuffer.
func (c *Client) RecordCmdCopyBuffer(cmdBuffer, src, dst uint64) int32 {
	srcHandle, ok := c.handles.GetBuffer(src)
	if !ok {
		return ErrorDeviceLost
	}
	dstHandle, ok := c.handles.GetBuffer(dst)
	if !ok {
		return ErrorDeviceLost
	}
	c.recorder.Append(cmdBuffer, protocol.RecordedCommand{Kind: protocol.RecCopyBuffer, SrcBuffer: srcHandle, DstBuffer: dstHandle})
	return Success
}

// QueueSubmit mirrors vkQueueSubmit: it first flushes cmdBuffer's
// recorded vkCmd* calls as one SubmitRecordedCommands message, then
// issues the real submit, so every recorded vkCmd* call is visible to
// the server before the commands that depend on it run.
func (c *Client) QueueSubmit(queue, cmdBuffer uint64) int32 {
	queueHandle, ok := c.handles.GetQueue(queue)
	if !ok {
		return ErrorDeviceLost
	}
	cmdBufHandle, ok := c.handles.GetCmdBuffer(cmdBuffer)
	if !ok {
		return ErrorDeviceLost
	}

	recorded := c.recorder.Take(cmdBuffer)
	if len(recorded) > 0 {
		if _, err := c.send(protocol.VulkanCommand{
			Tag: protocol.VkTagSubmitRecordedCommands,
			CommandBuffer: cmdBufHandle, Recorded: recorded,
		}); err != nil {
			return mapError(err)
		}
	}

	resp, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagQueueSubmit, Queue: queueHandle, CommandBuffer: cmdBufHandle})
	if err != nil {
		return mapError(err)
	}
	return respErr(resp)
}

// AllocateMemory mirrors vkAllocateMemory.
func (c *Client) AllocateMemory(device uint64, allocationSize uint64, memoryTypeIndex uint32) (uint64, int32) {
	h, ok := c.handles.GetDevice(device)
	if !ok {
		return 0, ErrorDeviceLost
	}
	resp, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagAllocateMemory, Device: h, AllocationSize: allocationSize, MemoryTypeIndex: memoryTypeIndex})
	if err != nil {
		return 0, mapError(err)
	}
	if code := respErr(resp); code != Success {
		return 0, code
	}
	return c.handles.StoreMemory(resp.Handle), Success
}

// FreeMemory mirrors vkFreeMemory, tearing down any live shadow buffer
// first -- a mapped region must never outlive the memory it mirrors.
func (c *Client) FreeMemory(device, memory uint64) int32 {
	devHandle, ok := c.handles.GetDevice(device)
	if !ok {
		return Success // vkFreeMemory on an already-gone device is a no-op
	}
	memHandle, ok := c.handles.RemoveMemory(memory)
	if !ok {
		return Success
	}
	c.shadow.Unmap(memory)
	_, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagFreeMemory, Device: devHandle, Memory: memHandle})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// MapMemory mirrors vkMapMemory: step 1 of the shadow-memory protocol.
// It downloads the current server-side contents of [offset, offset+size)
// into a fresh shadow buffer and returns the client's own copy, which the
// cgo shim hands back to the application as the mapped pointer.
func (c *Client) MapMemory(device, memory, offset, size uint64) ([]byte, int32) {
	devHandle, ok := c.handles.GetDevice(device)
	if !ok {
		return nil, ErrorDeviceLost
	}
	memHandle, ok := c.handles.GetMemory(memory)
	if !ok {
		return nil, ErrorMemoryMapFailed
	}
	resp, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagMapMemory, Device: devHandle, Memory: memHandle, Offset: offset, Size: size})
	if err != nil {
		return nil, mapError(err)
	}
	if code := respErr(resp); code != Success {
		return nil, code
	}
	return c.shadow.Map(memory, offset, resp.RawBytes), Success
}

// UnmapMemory mirrors vkUnmapMemory: step 4 of the shadow-memory
// protocol. It reads the shadow buffer's full current contents, ships
// them to the server as the authoritative write-back, and tears the
// mirror down.
func (c *Client) UnmapMemory(device, memory uint64) int32 {
	devHandle, ok := c.handles.GetDevice(device)
	if !ok {
		return Success
	}
	memHandle, ok := c.handles.GetMemory(memory)
	if !ok {
		return Success
	}
	data, ok := c.shadow.Unmap(memory)
	if !ok {
		return Success
	}
	_, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagUnmapMemory, Device: devHandle, Memory: memHandle, CreateInfo: data})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// FlushMappedMemoryRanges mirrors vkFlushMappedMemoryRanges for a single
// range: step 2 of the shadow-memory protocol. It reads the sub-range
// [rangeOffset, rangeOffset+rangeSize) out of the shadow buffer and ships
// exactly those bytes to the server; rangeSize may be WholeSize.
func (c *Client) FlushMappedMemoryRanges(device, memory, rangeOffset, rangeSize uint64) int32 {
	devHandle, ok := c.handles.GetDevice(device)
	if !ok {
		return ErrorDeviceLost
	}
	memHandle, ok := c.handles.GetMemory(memory)
	if !ok {
		return ErrorMemoryMapFailed
	}
	data, ok := c.shadow.FlushRange(memory, rangeOffset, rangeSize)
	if !ok {
		return ErrorMemoryMapFailed
	}
	resp, err := c.send(protocol.VulkanCommand{
		Tag: protocol.VkTagFlushMappedMemoryRanges, Device: devHandle, Memory: memHandle,
		Offset: rangeOffset, Size: rangeSize, CreateInfo: data,
	})
	if err != nil {
		return mapError(err)
	}
	return respErr(resp)
}

// InvalidateMappedMemoryRanges mirrors vkInvalidateMappedMemoryRanges:
// step 3 of the shadow-memory protocol. It asks the server for the
// current contents of the range and writes them back into the shadow
// buffer so subsequent reads through the mapped pointer see fresh data.
func (c *Client) InvalidateMappedMemoryRanges(device, memory, rangeOffset, rangeSize uint64) int32 {
	devHandle, ok := c.handles.GetDevice(device)
	if !ok {
		return ErrorDeviceLost
	}
	memHandle, ok := c.handles.GetMemory(memory)
	if !ok {
		return ErrorMemoryMapFailed
	}
	resp, err := c.send(protocol.VulkanCommand{
		Tag: protocol.VkTagInvalidateMappedMemoryRanges, Device: devHandle, Memory: memHandle,
		Offset: rangeOffset, Size: rangeSize,
	})
	if err != nil {
		return mapError(err)
	}
	if code := respErr(resp); code != Success {
		return code
	}
	c.shadow.InvalidateRange(memory, rangeOffset, resp.RawBytes)
	return Success
}

// CreateBuffer mirrors vkCreateBuffer. usage is accepted for API parity
// but not yet threaded onto the wire -- the command taxonomy has no
// buffer-usage-flags field of its own, and the simulated driver does not
// need it to answer CreateBuffer.
func (c *Client) CreateBuffer(device uint64, size uint64, usage uint32) (uint64, int32) {
	_ = usage
	h, ok := c.handles.GetDevice(device)
	if !ok {
		return 0, ErrorDeviceLost
	}
	resp, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagCreateBuffer, Device: h, Size: size})
	if err != nil {
		return 0, mapError(err)
	}
	if code := respErr(resp); code != Success {
		return 0, code
	}
	return c.handles.StoreBuffer(resp.Handle), Success
}

// DestroyBuffer mirrors vkDestroyBuffer.
func (c *Client) DestroyBuffer(device, buffer uint64) int32 {
	devHandle, ok := c.handles.GetDevice(device)
	if !ok {
		return Success
	}
	bufHandle, ok := c.handles.RemoveBuffer(buffer)
	if !ok {
		return Success
	}
	_, err := c.send(protocol.VulkanCommand{Tag: protocol.VkTagDestroyBuffer, Device: devHandle, Buffer: bufHandle})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// BindBufferMemory mirrors vkBindBufferMemory.
func (c *Client) BindBufferMemory(device, buffer, memory, memoryOffset uint64) int32 {
	devHandle, ok := c.handles.GetDevice(device)
	if !ok {
		return ErrorDeviceLost
	}
	bufHandle, ok := c.handles.GetBuffer(buffer)
	if !ok {
		return ErrorUnknown
	}
	memHandle, ok := c.handles.GetMemory(memory)
	if !ok {
		return ErrorUnknown
	}
	resp, err := c.send(protocol.VulkanCommand{
		Tag: protocol.VkTagBindBufferMemory, Device: devHandle, Buffer: bufHandle,
		Memory: memHandle, Offset: memoryOffset,
	})
	if err != nil {
		return mapError(err)
	}
	return respErr(resp)
}
