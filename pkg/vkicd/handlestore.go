package vkicd

import (
	"sync"
	"sync/atomic"

	"github.com/rgpu/rgpu/pkg/protocol"
)

// firstLocalID is the first id the Vulkan-side counter hands out. It
// starts above pkg/cudainterpose's range (0x1000) so that, should the two
// intercept libraries ever share a log or trace, a bare id is enough to
// tell which one minted it without consulting a resource-kind tag.
const firstLocalID = 0x2000

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

func (k *kindMap) remove(id uint64) (protocol.NetworkHandle, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	h, ok := k.m[id]
	delete(k.m, id)
	return h, ok
}

// HandleStore maps process-local opaque ids to the NetworkHandle the
// daemon and server use for the same Vulkan object, one mutex-guarded
// map per resource kind behind a single shared id counter. Unlike
// pkg/cudainterpose.HandleStore, every kind here supports remove: Vulkan
// destroys every object it creates (instances, devices, buffers, ...),
// where CUDA leaves a couple of kinds (devices, functions) to live for
// the process lifetime.
type HandleStore struct {
	nextID uint64

	instance          *kindMap
	physicalDevice    *kindMap
	device            *kindMap
	queue             *kindMap
	memory            *kindMap
	buffer            *kindMap
	shaderModule      *kindMap
	descSetLayout     *kindMap
	pipelineLayout    *kindMap
	pipeline          *kindMap
	descPool          *kindMap
	descSet           *kindMap
	cmdPool           *kindMap
	cmdBuffer         *kindMap
	fence             *kindMap
	image             *kindMap
	imageView         *kindMap
	renderPass        *kindMap
	framebuffer       *kindMap
	semaphore         *kindMap
}

// NewHandleStore creates an empty store.
func NewHandleStore() *HandleStore {
	return &HandleStore{
		nextID:         firstLocalID,
		instance:       newKindMap(),
		physicalDevice: newKindMap(),
		device:         newKindMap(),
		queue:          newKindMap(),
		memory:         newKindMap(),
		buffer:         newKindMap(),
		shaderModule:   newKindMap(),
		descSetLayout:  newKindMap(),
		pipelineLayout: newKindMap(),
		pipeline:       newKindMap(),
		descPool:       newKindMap(),
		descSet:        newKindMap(),
		cmdPool:        newKindMap(),
		cmdBuffer:      newKindMap(),
		fence:          newKindMap(),
		image:          newKindMap(),
		imageView:      newKindMap(),
		renderPass:     newKindMap(),
		framebuffer:    newKindMap(),
		semaphore:      newKindMap(),
	}
}

func (s *HandleStore) allocID() uint64 {
	return atomic.AddUint64(&s.nextID, 1) - 1
}

func (s *HandleStore) StoreInstance(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.instance.insert(id, h)
	return id
}
func (s *HandleStore) GetInstance(id uint64) (protocol.NetworkHandle, bool) { return s.instance.get(id) }
func (s *HandleStore) RemoveInstance(id uint64) (protocol.NetworkHandle, bool) {
	return s.instance.remove(id)
}

func (s *HandleStore) StorePhysicalDevice(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.physicalDevice.insert(id, h)
	return id
}
func (s *HandleStore) GetPhysicalDevice(id uint64) (protocol.NetworkHandle, bool) {
	return s.physicalDevice.get(id)
}
func (s *HandleStore) RemovePhysicalDevice(id uint64) (protocol.NetworkHandle, bool) {
	return s.physicalDevice.remove(id)
}

func (s *HandleStore) StoreDevice(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.device.insert(id, h)
	return id
}
func (s *HandleStore) GetDevice(id uint64) (protocol.NetworkHandle, bool) { return s.device.get(id) }
func (s *HandleStore) RemoveDevice(id uint64) (protocol.NetworkHandle, bool) {
	return s.device.remove(id)
}

func (s *HandleStore) StoreQueue(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.queue.insert(id, h)
	return id
}
func (s *HandleStore) GetQueue(id uint64) (protocol.NetworkHandle, bool) { return s.queue.get(id) }
func (s *HandleStore) RemoveQueue(id uint64) (protocol.NetworkHandle, bool) {
	return s.queue.remove(id)
}

func (s *HandleStore) StoreMemory(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.memory.insert(id, h)
	return id
}
func (s *HandleStore) GetMemory(id uint64) (protocol.NetworkHandle, bool) { return s.memory.get(id) }
func (s *HandleStore) RemoveMemory(id uint64) (protocol.NetworkHandle, bool) {
	return s.memory.remove(id)
}

func (s *HandleStore) StoreBuffer(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.buffer.insert(id, h)
	return id
}
func (s *HandleStore) GetBuffer(id uint64) (protocol.NetworkHandle, bool) { return s.buffer.get(id) }
func (s *HandleStore) RemoveBuffer(id uint64) (protocol.NetworkHandle, bool) {
	return s.buffer.remove(id)
}

func (s *HandleStore) StoreShaderModule(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.shaderModule.insert(id, h)
	return id
}
func (s *HandleStore) GetShaderModule(id uint64) (protocol.NetworkHandle, bool) {
	return s.shaderModule.get(id)
}
func (s *HandleStore) RemoveShaderModule(id uint64) (protocol.NetworkHandle, bool) {
	return s.shaderModule.remove(id)
}

func (s *HandleStore) StoreDescSetLayout(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.descSetLayout.insert(id, h)
	return id
}
func (s *HandleStore) GetDescSetLayout(id uint64) (protocol.NetworkHandle, bool) {
	return s.descSetLayout.get(id)
}
func (s *HandleStore) RemoveDescSetLayout(id uint64) (protocol.NetworkHandle, bool) {
	return s.descSetLayout.remove(id)
}

func (s *HandleStore) StorePipelineLayout(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.pipelineLayout.insert(id, h)
	return id
}
func (s *HandleStore) GetPipelineLayout(id uint64) (protocol.NetworkHandle, bool) {
	return s.pipelineLayout.get(id)
}
func (s *HandleStore) RemovePipelineLayout(id uint64) (protocol.NetworkHandle, bool) {
	return s.pipelineLayout.remove(id)
}

func (s *HandleStore) StorePipeline(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.pipeline.insert(id, h)
	return id
}
func (s *HandleStore) GetPipeline(id uint64) (protocol.NetworkHandle, bool) {
	return s.pipeline.get(id)
}
func (s *HandleStore) RemovePipeline(id uint64) (protocol.NetworkHandle, bool) {
	return s.pipeline.remove(id)
}

func (s *HandleStore) StoreDescPool(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.descPool.insert(id, h)
	return id
}
func (s *HandleStore) GetDescPool(id uint64) (protocol.NetworkHandle, bool) {
	return s.descPool.get(id)
}
func (s *HandleStore) RemoveDescPool(id uint64) (protocol.NetworkHandle, bool) {
	return s.descPool.remove(id)
}

func (s *HandleStore) StoreDescSet(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.descSet.insert(id, h)
	return id
}
func (s *HandleStore) GetDescSet(id uint64) (protocol.NetworkHandle, bool) {
	return s.descSet.get(id)
}
func (s *HandleStore) RemoveDescSet(id uint64) (protocol.NetworkHandle, bool) {
	return s.descSet.remove(id)
}

func (s *HandleStore) StoreCmdPool(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.cmdPool.insert(id, h)
	return id
}
func (s *HandleStore) GetCmdPool(id uint64) (protocol.NetworkHandle, bool) {
	return s.cmdPool.get(id)
}
func (s *HandleStore) RemoveCmdPool(id uint64) (protocol.NetworkHandle, bool) {
	return s.cmdPool.remove(id)
}

func (s *HandleStore) StoreCmdBuffer(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.cmdBuffer.insert(id, h)
	return id
}
func (s *HandleStore) GetCmdBuffer(id uint64) (protocol.NetworkHandle, bool) {
	return s.cmdBuffer.get(id)
}
func (s *HandleStore) RemoveCmdBuffer(id uint64) (protocol.NetworkHandle, bool) {
	return s.cmdBuffer.remove(id)
}

func (s *HandleStore) StoreFence(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.fence.insert(id, h)
	return id
}
func (s *HandleStore) GetFence(id uint64) (protocol.NetworkHandle, bool) { return s.fence.get(id) }
func (s *HandleStore) RemoveFence(id uint64) (protocol.NetworkHandle, bool) {
	return s.fence.remove(id)
}

func (s *HandleStore) StoreImage(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.image.insert(id, h)
	return id
}
func (s *HandleStore) GetImage(id uint64) (protocol.NetworkHandle, bool) { return s.image.get(id) }
func (s *HandleStore) RemoveImage(id uint64) (protocol.NetworkHandle, bool) {
	return s.image.remove(id)
}

func (s *HandleStore) StoreImageView(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.imageView.insert(id, h)
	return id
}
func (s *HandleStore) GetImageView(id uint64) (protocol.NetworkHandle, bool) {
	return s.imageView.get(id)
}
func (s *HandleStore) RemoveImageView(id uint64) (protocol.NetworkHandle, bool) {
	return s.imageView.remove(id)
}

func (s *HandleStore) StoreRenderPass(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.renderPass.insert(id, h)
	return id
}
func (s *HandleStore) GetRenderPass(id uint64) (protocol.NetworkHandle, bool) {
	return s.renderPass.get(id)
}
func (s *HandleStore) RemoveRenderPass(id uint64) (protocol.NetworkHandle, bool) {
	return s.renderPass.remove(id)
}

func (s *HandleStore) StoreFramebuffer(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.framebuffer.insert(id, h)
	return id
}
func (s *HandleStore) GetFramebuffer(id uint64) (protocol.NetworkHandle, bool) {
	return s.framebuffer.get(id)
}
func (s *HandleStore) RemoveFramebuffer(id uint64) (protocol.NetworkHandle, bool) {
	return s.framebuffer.remove(id)
}

func (s *HandleStore) StoreSemaphore(h protocol.NetworkHandle) uint64 {
	id := s.allocID()
	s.semaphore.insert(id, h)
	return id
}
func (s *HandleStore) GetSemaphore(id uint64) (protocol.NetworkHandle, bool) {
	return s.semaphore.get(id)
}
func (s *HandleStore) RemoveSemaphore(id uint64) (protocol.NetworkHandle, bool) {
	return s.semaphore.remove(id)
}
