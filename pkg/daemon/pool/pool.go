// Package pool maintains the client daemon's view of every GPU reachable
// through its connected servers (plus, optionally, its own local GPUs) as
// one flat, ordered list a CUDA/Vulkan call can address by pool index.
// Modeled on rgpu-client's GpuPoolManager, generalized from a
// tokio::sync::RwLock to sync.RWMutex.
package pool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rgpu/rgpu/pkg/protocol"
)

// Ordering selects how GetAllGpus/ApplyOrdering sorts the pool, mirroring
// rgpu-core's GpuOrdering config enum.
type Ordering int

const (
	// LocalFirst places this daemon's own GPUs ahead of every remote
	// server's, local-first within ties preserved as discovered.
	LocalFirst Ordering = iota
	// RemoteFirst places remote GPUs ahead of local ones.
	RemoteFirst
	// ByCapability sorts by total device memory, descending, ignoring
	// locality entirely.
	ByCapability
)

// ConnectionStatus is the liveness state of one server connection.
type ConnectionStatus int

const (
	StatusConnecting ConnectionStatus = iota
	StatusConnected
	StatusDisconnected
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ServerConnection is one remote rgpu-server this daemon has dialed (or is
// dialing), and the GPUs it has advertised.
type ServerConnection struct {
	Endpoint         string
	ServerID         uint16
	Gpus             []protocol.GpuInfo
	Status           ConnectionStatus
	DisconnectReason string
}

// GpuPoolEntry is one addressable slot in the flattened pool: a pool-wide
// index the daemon's intercepted CUDA/Vulkan calls use, resolved back to
// the owning server and that server's own device index.
type GpuPoolEntry struct {
	PoolIndex        int
	ServerIndex      int
	ServerDeviceIdx  uint32
	Info             protocol.GpuInfo
	IsLocal          bool
}

// GpuPoolManager owns the server list and the flattened, orderable GPU
// pool built from it.
type GpuPoolManager struct {
	mu                sync.RWMutex
	servers           []*ServerConnection
	pool              []GpuPoolEntry
	serverIDToIndex   map[uint16]int
	ordering          Ordering
}

// New creates an empty pool manager using the given ordering policy.
func New(ordering Ordering) *GpuPoolManager {
	return &GpuPoolManager{
		serverIDToIndex: make(map[uint16]int),
		ordering:        ordering,
	}
}

// AddServer registers a new server connection and returns its server
// index (stable for the lifetime of this GpuPoolManager).
func (m *GpuPoolManager) AddServer(conn *ServerConnection) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.servers)
	m.servers = append(m.servers, conn)
	m.serverIDToIndex[conn.ServerID] = idx
	return idx
}

// AddServerMapping replaces a server's advertised GPU list (e.g. after a
// reconnect's fresh AuthResult) and rebuilds the flattened pool.
func (m *GpuPoolManager) AddServerMapping(serverIndex int, gpus []protocol.GpuInfo, isLocal bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if serverIndex < 0 || serverIndex >= len(m.servers) {
		return fmt.Errorf("pool: server index %d out of range", serverIndex)
	}
	m.servers[serverIndex].Gpus = gpus
	m.rebuildLocked(serverIndex, isLocal)
	return nil
}

func (m *GpuPoolManager) rebuildLocked(serverIndex int, isLocal bool) {
	filtered := m.pool[:0]
	for _, e := range m.pool {
		if e.ServerIndex != serverIndex {
			filtered = append(filtered, e)
		}
	}
	m.pool = filtered
	for devIdx, info := range m.servers[serverIndex].Gpus {
		m.pool = append(m.pool, GpuPoolEntry{
			ServerIndex:     serverIndex,
			ServerDeviceIdx: uint32(devIdx),
			Info:            info,
			IsLocal:         isLocal,
		})
	}
	m.applyOrderingLocked()
}

// ServerIndexForHandle resolves the server index owning the server that
// minted h, by matching h.ServerID against the registered connections.
func (m *GpuPoolManager) ServerIndexForHandle(h protocol.NetworkHandle) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.serverIDToIndex[h.ServerID]
	if !ok {
		return 0, fmt.Errorf("pool: no server registered for server id %d", h.ServerID)
	}
	return idx, nil
}

// ServerForPoolOrdinal resolves a pool-wide GPU ordinal to the server
// connection that owns it and that server's own device index for it.
func (m *GpuPoolManager) ServerForPoolOrdinal(ordinal int) (*ServerConnection, uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.pool {
		if e.PoolIndex == ordinal {
			return m.servers[e.ServerIndex], e.ServerDeviceIdx, nil
		}
	}
	return nil, 0, fmt.Errorf("pool: no gpu at pool ordinal %d", ordinal)
}

// DefaultServerIndex returns the server index that should service a CUDA
// call naming device 0 when no explicit device has been selected yet --
// the first entry of the ordered pool.
func (m *GpuPoolManager) DefaultServerIndex() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.pool) == 0 {
		return 0, fmt.Errorf("pool: empty, no default server")
	}
	return m.pool[0].ServerIndex, nil
}

// AllConnectedServerIndices returns the indices of every server currently
// in StatusConnected.
func (m *GpuPoolManager) AllConnectedServerIndices() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []int
	for i, s := range m.servers {
		if s.Status == StatusConnected {
			out = append(out, i)
		}
	}
	return out
}

// SetServerStatus updates a server connection's liveness state.
func (m *GpuPoolManager) SetServerStatus(serverIndex int, status ConnectionStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if serverIndex < 0 || serverIndex >= len(m.servers) {
		return fmt.Errorf("pool: server index %d out of range", serverIndex)
	}
	m.servers[serverIndex].Status = status
	m.servers[serverIndex].DisconnectReason = reason
	return nil
}

// GetAllGpus returns every pool entry in current pool-index order.
func (m *GpuPoolManager) GetAllGpus() []GpuPoolEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]GpuPoolEntry, len(m.pool))
	copy(out, m.pool)
	return out
}

// GetGpu returns the pool entry at the given pool index.
func (m *GpuPoolManager) GetGpu(poolIndex int) (GpuPoolEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.pool {
		if e.PoolIndex == poolIndex {
			return e, nil
		}
	}
	return GpuPoolEntry{}, fmt.Errorf("pool: no gpu at pool index %d", poolIndex)
}

// CudaDeviceCount returns the number of pool entries that support CUDA.
func (m *GpuPoolManager) CudaDeviceCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.pool {
		if e.Info.SupportsCuda {
			n++
		}
	}
	return n
}

// VulkanDeviceCount returns the number of pool entries that support Vulkan.
func (m *GpuPoolManager) VulkanDeviceCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.pool {
		if e.Info.SupportsVulkan {
			n++
		}
	}
	return n
}

// ServerCount returns the number of registered server connections.
func (m *GpuPoolManager) ServerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.servers)
}

// ApplyOrdering re-sorts the pool under the manager's ordering policy and
// renumbers PoolIndex sequentially from 0. Called automatically whenever
// a server's GPU mapping changes; exposed directly so a later runtime
// change of ordering policy can be applied without a reconnect.
func (m *GpuPoolManager) ApplyOrdering(ordering Ordering) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ordering = ordering
	m.applyOrderingLocked()
}

func (m *GpuPoolManager) applyOrderingLocked() {
	switch m.ordering {
	case LocalFirst:
		sort.SliceStable(m.pool, func(i, j int) bool { return m.pool[i].IsLocal && !m.pool[j].IsLocal })
	case RemoteFirst:
		sort.SliceStable(m.pool, func(i, j int) bool { return !m.pool[i].IsLocal && m.pool[j].IsLocal })
	case ByCapability:
		sort.SliceStable(m.pool, func(i, j int) bool { return m.pool[i].Info.TotalMemory > m.pool[j].Info.TotalMemory })
	}
	for i := range m.pool {
		m.pool[i].PoolIndex = i
	}
}
