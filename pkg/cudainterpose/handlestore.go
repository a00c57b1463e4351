package cudainterpose

import (
	"sync"
	"sync/atomic"

	"github.com/rgpu/rgpu/pkg/protocol"
)

// firstLocalID is the first id the counter hands out; ids below this
// range are reserved for sentinel values (the null/default stream, for
// instance, never occupies a slot).
const firstLocalID = 0x1000

// kindMap is one resource kind's local-id -> NetworkHandle table. A
// plain mutex-guarded map is enough here: this module has no hot
// sharded-write path worth a concurrent map, and this tree reaches for
// sync.Mutex + map over a sharded structure everywhere else too.
type kindMap struct {
	mu sync.Mutex
	m  map[uint64]protocol.NetworkHandle
}

func newKindMap() *kindMap {
	return &kindMap{m: make(map[uint64]protocol.NetworkHandle)}
}

func (k *kindMap) get(id uint64) (protocol.NetworkHandle, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	h, ok := k.m[id]
	return h, ok
}

func (k *kindMap) insert(id uint64, h protocol.NetworkHandle) {
	k.mu.Lock()
	k.m[id] = h
	k.mu.Unlock()
}

func (k *kindMap) remove(id uint64) {
	k.mu.Lock()
	delete(k.m, id)
	k.mu.Unlock()
}

// HandleStore maps the process-local opaque ids the interpose library
// hands back to the application (in place of native CUdevice, CUcontext,
// CUdeviceptr, ... values) to the NetworkHandle the daemon and server use
// to identify the same resource. One counter is shared across every
// resource kind rather than one per kind, so ids stay globally unique
// and orderable across kinds within a process.
type HandleStore struct {
	nextID uint64

	device   *kindMap
	ctx      *kindMap
	module   *kindMap
	function *kindMap
	mem      *kindMap
	stream   *kindMap
	event    *kindMap
	mempool  *kindMap
	linker   *kindMap
	hostMem  *kindMap
}

// NewHandleStore creates an empty store.
func NewHandleStore() *HandleStore {
	return &HandleStore{
		nextID:   firstLocalID,
		device:   newKindMap(),
		ctx:      newKindMap(),
		module:   newKindMap(),
		function: newKindMap(),
		mem:      newKindMap(),
		stream:   newKindMap(),
		event:    newKindMap(),
		mempool:  newKindMap(),
		linker:   newKindMap(),
		hostMem:  newKindMap(),
	}
}

func (s *HandleStore) allocID() uint64 {
	return atomic.AddUint64(&s.nextID, 1) - 1
}

func (s *HandleStore) StoreDevice(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.device.insert(id, h)
	return id
}
func (s *HandleStore) GetDevice(id uint64) (protocol.NetworkHandle, bool) { return s.device.get(id) }

func (s *HandleStore) StoreCtx(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.ctx.insert(id, h)
	return id
}
func (s *HandleStore) GetCtx(id uint64) (protocol.NetworkHandle, bool) { return s.ctx.get(id) }
func (s *HandleStore) RemoveCtx(id uint64)                             { s.ctx.remove(id) }

func (s *HandleStore) StoreModule(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.module.insert(id, h)
	return id
}
func (s *HandleStore) GetModule(id uint64) (protocol.NetworkHandle, bool) { return s.module.get(id) }
func (s *HandleStore) RemoveModule(id uint64)                            { s.module.remove(id) }

func (s *HandleStore) StoreFunction(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.function.insert(id, h)
	return id
}
func (s *HandleStore) GetFunction(id uint64) (protocol.NetworkHandle, bool) {
	return s.function.get(id)
}

func (s *HandleStore) StoreMem(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.mem.insert(id, h)
	return id
}
func (s *HandleStore) GetMem(id uint64) (protocol.NetworkHandle, bool) { return s.mem.get(id) }
func (s *HandleStore) RemoveMem(id uint64)                            { s.mem.remove(id) }

func (s *HandleStore) StoreStream(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.stream.insert(id, h)
	return id
}
func (s *HandleStore) GetStream(id uint64) (protocol.NetworkHandle, bool) { return s.stream.get(id) }
func (s *HandleStore) RemoveStream(id uint64)                            { s.stream.remove(id) }

func (s *HandleStore) StoreEvent(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.event.insert(id, h)
	return id
}
func (s *HandleStore) GetEvent(id uint64) (protocol.NetworkHandle, bool) { return s.event.get(id) }
func (s *HandleStore) RemoveEvent(id uint64)                            { s.event.remove(id) }

func (s *HandleStore) StoreMemPool(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.mempool.insert(id, h)
	return id
}
func (s *HandleStore) GetMemPool(id uint64) (protocol.NetworkHandle, bool) {
	return s.mempool.get(id)
}
func (s *HandleStore) RemoveMemPool(id uint64) { s.mempool.remove(id) }

func (s *HandleStore) StoreLinker(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.linker.insert(id, h)
	return id
}
func (s *HandleStore) GetLinker(id uint64) (protocol.NetworkHandle, bool) { return s.linker.get(id) }
func (s *HandleStore) RemoveLinker(id uint64)                            { s.linker.remove(id) }

func (s *HandleStore) StoreHostMem(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.hostMem.insert(id, h)
	return id
}
func (s *HandleStore) GetHostMem(id uint64) (protocol.NetworkHandle, bool) {
	return s.hostMem.get(id)
}
func (s *HandleStore) RemoveHostMem(id uint64) { s.hostMem.remove(id) }
