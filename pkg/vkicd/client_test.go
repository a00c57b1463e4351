package vkicd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgpu/rgpu/pkg/protocol"
)

// fakeTransport answers every Send with a scripted response and records
// every command it was asked to send, standing in for the daemon's IPC
// socket.
type fakeTransport struct {
	reqID uint64
	sent  []protocol.VulkanCommand
	next  func(cmd protocol.VulkanCommand) protocol.VulkanResponse
}

func (f *fakeTransport) NextRequestID() protocol.RequestID {
	f.reqID++
	return protocol.RequestID(f.reqID)
}

func (f *fakeTransport) Send(msg *protocol.Message) (*protocol.Message, error) {
	f.sent = append(f.sent, *msg.VulkanCmd)
	resp := f.next(*msg.VulkanCmd)
	return &protocol.Message{Tag: protocol.MsgTagVulkanResponse, RequestID: msg.RequestID, VulkanResp: &resp}, nil
}

func newTestClient(next func(cmd protocol.VulkanCommand) protocol.VulkanResponse) (*Client, *fakeTransport) {
	ft := &fakeTransport{next: next}
	c := &Client{conn: ft, handles: NewHandleStore(), shadow: NewShadowTable(), recorder: NewCommandRecorder()}
	return c, ft
}

func constHandle(rt protocol.ResourceType, id uint64) protocol.VulkanResponse {
	return protocol.VulkanResponse{Tag: protocol.VkRespHandle, Handle: protocol.NetworkHandle{ResourceID: id, ResourceType: rt}}
}

func TestCreateAndDestroyInstance(t *testing.T) {
	c, ft := newTestClient(func(cmd protocol.VulkanCommand) protocol.VulkanResponse {
		return constHandle(protocol.ResourceVkInstance, 1)
	})

	inst, code := c.CreateInstance()
	require.Equal(t, Success, code)
	assert.GreaterOrEqual(t, inst, uint64(0x2000))

	code = c.DestroyInstance(inst)
	assert.Equal(t, Success, code)
	assert.Len(t, ft.sent, 2)
	assert.Equal(t, protocol.VkTagCreateInstance, ft.sent[0].Tag)
	assert.Equal(t, protocol.VkTagDestroyInstance, ft.sent[1].Tag)
}

func TestDestroyInstanceOnUnknownHandleFails(t *testing.T) {
	c, _ := newTestClient(func(cmd protocol.VulkanCommand) protocol.VulkanResponse {
		return protocol.VulkanResponse{Tag: protocol.VkRespSuccess}
	})
	code := c.DestroyInstance(0x12345)
	assert.Equal(t, ErrorDeviceLost, code)
}

func TestShadowMemoryRoundTripThroughClient(t *testing.T) {
	serverMem := []byte("hello, gpu memory")
	var device, memory uint64

	c, _ := newTestClient(func(cmd protocol.VulkanCommand) protocol.VulkanResponse {
		switch cmd.Tag {
		case protocol.VkTagCreateDevice:
			return constHandle(protocol.ResourceVkDevice, 1)
		case protocol.VkTagAllocateMemory:
			return constHandle(protocol.ResourceVkDeviceMemory, 1)
		case protocol.VkTagMapMemory:
			return protocol.VulkanResponse{Tag: protocol.VkRespRawBytes, RawBytes: append([]byte(nil), serverMem...)}
		case protocol.VkTagUnmapMemory, protocol.VkTagFlushMappedMemoryRanges:
			return protocol.VulkanResponse{Tag: protocol.VkRespSuccess}
		case protocol.VkTagInvalidateMappedMemoryRanges:
			return protocol.VulkanResponse{Tag: protocol.VkRespRawBytes, RawBytes: []byte("SERVERSIDE")}
		default:
			return protocol.VulkanResponse{Tag: protocol.VkRespSuccess}
		}
	})

	phys := c.handles.StorePhysicalDevice(protocol.NetworkHandle{})
	device, code := c.CreateDevice(phys)
	require.Equal(t, Success, code)

	memory, code = c.AllocateMemory(device, uint64(len(serverMem)), 0)
	require.Equal(t, Success, code)

	data, code := c.MapMemory(device, memory, 0, uint64(len(serverMem)))
	require.Equal(t, Success, code)
	assert.True(t, c.shadow.IsMapped(memory), "invariant 4: mapping must install a shadow buffer")
	assert.Equal(t, serverMem, data)

	data[0] = 'H' // application writes through the mapped pointer

	code = c.FlushMappedMemoryRanges(device, memory, 0, WholeSize)
	require.Equal(t, Success, code)

	code = c.InvalidateMappedMemoryRanges(device, memory, 0, 10)
	require.Equal(t, Success, code)
	assert.Equal(t, byte('S'), data[0], "invalidate must write server data back into the live mapping")

	code = c.UnmapMemory(device, memory)
	require.Equal(t, Success, code)
	assert.False(t, c.shadow.IsMapped(memory), "invariant 4: unmap must remove the shadow buffer")
}

func TestQueueSubmitFlushesRecordedCommandsBeforeSubmit(t *testing.T) {
	c, ft := newTestClient(func(cmd protocol.VulkanCommand) protocol.VulkanResponse {
		switch cmd.Tag {
		case protocol.VkTagGetDeviceQueue:
			return constHandle(protocol.ResourceVkQueue, 1)
		case protocol.VkTagAllocateCommandBuffers:
			return protocol.VulkanResponse{Tag: protocol.VkRespHandles, Handles: []protocol.NetworkHandle{{ResourceID: 1, ResourceType: protocol.ResourceVkCommandBuffer}}}
		default:
			return protocol.VulkanResponse{Tag: protocol.VkRespSuccess}
		}
	})

	device := c.handles.StoreDevice(protocol.NetworkHandle{})
	pool := c.handles.StoreCmdPool(protocol.NetworkHandle{})
	queue, code := c.GetDeviceQueue(device, 0)
	require.Equal(t, Success, code)

	cmdBufs, code := c.AllocateCommandBuffers(device, pool, 1)
	require.Equal(t, Success, code)
	require.Len(t, cmdBufs, 1)
	cmdBuf := cmdBufs[0]

	code = c.BeginCommandBuffer(cmdBuf)
	require.Equal(t, Success, code)

	pipeline := c.handles.StorePipeline(protocol.NetworkHandle{})
	code = c.RecordCmdBindPipeline(cmdBuf, pipeline)
	require.Equal(t, Success, code)
	code = c.RecordCmdDispatch(cmdBuf, 8, 1, 1)
	require.Equal(t, Success, code)
	assert.Equal(t, 2, c.recorder.Len(cmdBuf), "recording happens locally, not over the wire")

	code = c.EndCommandBuffer(cmdBuf)
	require.Equal(t, Success, code)

	ft.sent = nil
	code = c.QueueSubmit(queue, cmdBuf)
	require.Equal(t, Success, code)

	require.Len(t, ft.sent, 2, "submit must flush the recorded commands before the real queue submit")
	assert.Equal(t, protocol.VkTagSubmitRecordedCommands, ft.sent[0].Tag)
	require.Len(t, ft.sent[0].Recorded, 2)
	assert.Equal(t, protocol.RecBindPipeline, ft.sent[0].Recorded[0].Kind)
	assert.Equal(t, protocol.RecDispatch, ft.sent[0].Recorded[1].Kind)
	assert.Equal(t, protocol.VkTagQueueSubmit, ft.sent[1].Tag)
	assert.Equal(t, 0, c.recorder.Len(cmdBuf), "take must clear the recording after flush")
}
