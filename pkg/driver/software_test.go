package driver

import (
	"testing"

	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftwareCudaMemRoundTrip(t *testing.T) {
	d := NewSoftware(1)

	allocResp, err := d.Execute(&protocol.CudaCommand{Tag: protocol.CudaTagMemAlloc, ByteSize: 16})
	require.NoError(t, err)
	require.Equal(t, protocol.CudaRespMemAllocated, allocResp.Tag)
	dst := allocResp.Handle

	payload := []byte("0123456789abcdef")
	_, err = d.Execute(&protocol.CudaCommand{Tag: protocol.CudaTagMemcpyHtoD, Dst: dst, SrcData: payload, ByteCount: uint64(len(payload))})
	require.NoError(t, err)

	readResp, err := d.Execute(&protocol.CudaCommand{Tag: protocol.CudaTagMemcpyDtoH, Src: dst, ByteCount: uint64(len(payload))})
	require.NoError(t, err)
	assert.Equal(t, payload, readResp.Bytes)
}

func TestSoftwareVulkanShadowRoundTrip(t *testing.T) {
	d := NewSoftware(1)
	vk := d.AsVulkanDriver()

	allocResp, err := vk.Execute(&protocol.VulkanCommand{Tag: protocol.VkTagAllocateMemory, AllocationSize: 8})
	require.NoError(t, err)
	mem := allocResp.Handle

	mapResp, err := vk.Execute(&protocol.VulkanCommand{Tag: protocol.VkTagMapMemory, Memory: mem, Offset: 0, Size: 8})
	require.NoError(t, err)
	assert.Len(t, mapResp.RawBytes, 8)

	written := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	_, err = vk.Execute(&protocol.VulkanCommand{Tag: protocol.VkTagUnmapMemory, Memory: mem, CreateInfo: written})
	require.NoError(t, err)

	mapResp2, err := vk.Execute(&protocol.VulkanCommand{Tag: protocol.VkTagMapMemory, Memory: mem, Offset: 0, Size: 8})
	require.NoError(t, err)
	assert.Equal(t, written, mapResp2.RawBytes)
}

func TestSoftwareDeviceCount(t *testing.T) {
	d := NewSoftware(3)
	assert.Equal(t, 3, d.DeviceCount())
	resp, err := d.Execute(&protocol.CudaCommand{Tag: protocol.CudaTagDeviceGetCount})
	require.NoError(t, err)
	assert.Equal(t, int32(3), resp.Int32)
}
