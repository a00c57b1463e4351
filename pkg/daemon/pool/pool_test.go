package pool

import (
	"testing"

	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gpu(mem uint64, cuda, vulkan bool) protocol.GpuInfo {
	return protocol.GpuInfo{DeviceName: "test", TotalMemory: mem, SupportsCuda: cuda, SupportsVulkan: vulkan}
}

func TestPoolLocalFirstOrdering(t *testing.T) {
	m := New(LocalFirst)
	remote := m.AddServer(&ServerConnection{Endpoint: "remote:9876", ServerID: 1, Status: StatusConnected})
	local := m.AddServer(&ServerConnection{Endpoint: "local", ServerID: 2, Status: StatusConnected})

	require.NoError(t, m.AddServerMapping(remote, []protocol.GpuInfo{gpu(4<<30, true, true)}, false))
	require.NoError(t, m.AddServerMapping(local, []protocol.GpuInfo{gpu(8<<30, true, true)}, true))

	all := m.GetAllGpus()
	require.Len(t, all, 2)
	assert.True(t, all[0].IsLocal)
	assert.Equal(t, 0, all[0].PoolIndex)
	assert.False(t, all[1].IsLocal)
	assert.Equal(t, 1, all[1].PoolIndex)
}

func TestPoolByCapabilityOrdering(t *testing.T) {
	m := New(ByCapability)
	s := m.AddServer(&ServerConnection{ServerID: 1, Status: StatusConnected})
	require.NoError(t, m.AddServerMapping(s, []protocol.GpuInfo{
		gpu(4<<30, true, true),
		gpu(16<<30, true, true),
		gpu(8<<30, true, true),
	}, false))

	all := m.GetAllGpus()
	require.Len(t, all, 3)
	assert.Equal(t, uint64(16<<30), all[0].Info.TotalMemory)
	assert.Equal(t, uint64(8<<30), all[1].Info.TotalMemory)
	assert.Equal(t, uint64(4<<30), all[2].Info.TotalMemory)
}

func TestPoolServerIndexForHandle(t *testing.T) {
	m := New(LocalFirst)
	s := m.AddServer(&ServerConnection{ServerID: 42, Status: StatusConnected})
	idx, err := m.ServerIndexForHandle(protocol.NetworkHandle{ServerID: 42})
	require.NoError(t, err)
	assert.Equal(t, s, idx)

	_, err = m.ServerIndexForHandle(protocol.NetworkHandle{ServerID: 99})
	assert.Error(t, err)
}

func TestPoolDeviceCounts(t *testing.T) {
	m := New(LocalFirst)
	s := m.AddServer(&ServerConnection{ServerID: 1, Status: StatusConnected})
	require.NoError(t, m.AddServerMapping(s, []protocol.GpuInfo{
		gpu(1<<30, true, false),
		gpu(1<<30, false, true),
		gpu(1<<30, true, true),
	}, false))

	assert.Equal(t, 2, m.CudaDeviceCount())
	assert.Equal(t, 2, m.VulkanDeviceCount())
	assert.Equal(t, 1, m.ServerCount())
}

func TestPoolSetServerStatusAndConnectedIndices(t *testing.T) {
	m := New(LocalFirst)
	a := m.AddServer(&ServerConnection{ServerID: 1, Status: StatusConnecting})
	b := m.AddServer(&ServerConnection{ServerID: 2, Status: StatusConnected})

	require.NoError(t, m.SetServerStatus(a, StatusConnected, ""))
	require.NoError(t, m.SetServerStatus(b, StatusDisconnected, "peer reset"))

	connected := m.AllConnectedServerIndices()
	assert.Equal(t, []int{a}, connected)
}

func TestPoolGetGpuAndServerForOrdinal(t *testing.T) {
	m := New(LocalFirst)
	s := m.AddServer(&ServerConnection{ServerID: 5, Status: StatusConnected})
	require.NoError(t, m.AddServerMapping(s, []protocol.GpuInfo{gpu(2<<30, true, true)}, true))

	entry, err := m.GetGpu(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), entry.ServerDeviceIdx)

	conn, devIdx, err := m.ServerForPoolOrdinal(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(5), conn.ServerID)
	assert.Equal(t, uint32(0), devIdx)
}
