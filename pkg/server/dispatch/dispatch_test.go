package dispatch

import (
	"testing"

	"github.com/rgpu/rgpu/pkg/driver"
	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/rgpu/rgpu/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchCudaAdoptsAllocatedHandle(t *testing.T) {
	sw := driver.NewSoftware(1)
	d := New(1, sw, sw.AsVulkanDriver())
	s := session.New(1, 1, "tester")

	resp, err := d.DispatchCuda(s, &protocol.CudaCommand{Tag: protocol.CudaTagMemAlloc, ByteSize: 64})
	require.NoError(t, err)
	require.Equal(t, protocol.CudaRespMemAllocated, resp.Tag)

	assert.True(t, s.Validate(resp.Handle))
	assert.Equal(t, uint16(1), resp.Handle.ServerID)
	assert.Equal(t, s.ID, resp.Handle.SessionID)
}

func TestDispatchCudaRejectsForeignHandle(t *testing.T) {
	sw := driver.NewSoftware(1)
	d := New(1, sw, sw.AsVulkanDriver())
	owner := session.New(1, 1, "owner")
	attacker := session.New(2, 1, "attacker")

	allocResp, err := d.DispatchCuda(owner, &protocol.CudaCommand{Tag: protocol.CudaTagMemAlloc, ByteSize: 64})
	require.NoError(t, err)

	_, err = d.DispatchCuda(attacker, &protocol.CudaCommand{Tag: protocol.CudaTagMemFree, Dptr: allocResp.Handle})
	require.Error(t, err)
	perr, ok := err.(*protocol.ProtocolError)
	require.True(t, ok)
	assert.Equal(t, protocol.ErrInvalidHandle, perr.Kind)
}

func TestDispatchVulkanAdoptsMultipleHandles(t *testing.T) {
	sw := driver.NewSoftware(2)
	d := New(7, sw, sw.AsVulkanDriver())
	s := session.New(1, 7, "tester")

	instResp, err := d.DispatchVulkan(s, &protocol.VulkanCommand{Tag: protocol.VkTagCreateInstance})
	require.NoError(t, err)

	devsResp, err := d.DispatchVulkan(s, &protocol.VulkanCommand{Tag: protocol.VkTagEnumeratePhysicalDevices, Instance: instResp.Handle})
	require.NoError(t, err)
	require.Len(t, devsResp.Handles, 2)
	for _, h := range devsResp.Handles {
		assert.True(t, s.Validate(h))
	}
}
