package driver

import (
	"fmt"
	"sync"

	"github.com/rgpu/rgpu/pkg/protocol"
)

// Software is a deterministic, hardware-free driver: it backs every
// allocation with a plain Go byte slice and answers queries with
// synthesized but internally-consistent data. It exists so the server,
// daemon, and wire layers can be built and tested end to end without a
// physical GPU.
type Software struct {
	mu       sync.Mutex
	nextID   uint64
	cudaMem  map[uint64][]byte
	vkMem    map[uint64][]byte
	deviceCount int
}

// NewSoftware creates a Software driver simulating n CUDA/Vulkan devices.
func NewSoftware(n int) *Software {
	return &Software{
		nextID:      1,
		cudaMem:     make(map[uint64][]byte),
		vkMem:       make(map[uint64][]byte),
		deviceCount: n,
	}
}

func (s *Software) DeviceCount() int { return s.deviceCount }

func (s *Software) allocID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// Execute runs a CudaCommand against the simulated device. Only the
// commands that touch observable state (memory, streams, events) are
// modeled; everything else succeeds trivially, which is sufficient for
// protocol-level testing where the dispatcher's behavior, not numerical
// GPU output, is under test.
func (s *Software) Execute(cmd *protocol.CudaCommand) (*protocol.CudaResponse, error) {
	switch cmd.Tag {
	case protocol.CudaTagInit:
		return &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}, nil

	case protocol.CudaTagDriverGetVersion:
		return &protocol.CudaResponse{Tag: protocol.CudaRespDriverVersion, Int32: 12040}, nil

	case protocol.CudaTagDeviceGetCount:
		return &protocol.CudaResponse{Tag: protocol.CudaRespDeviceCount, Int32: int32(s.deviceCount)}, nil

	case protocol.CudaTagMemAlloc, protocol.CudaTagMemAllocManaged:
		id := s.allocID()
		s.mu.Lock()
		s.cudaMem[id] = make([]byte, cmd.ByteSize)
		s.mu.Unlock()
		h := protocol.NetworkHandle{ResourceID: id, ResourceType: protocol.ResourceCuDevicePtr}
		return &protocol.CudaResponse{Tag: protocol.CudaRespMemAllocated, Handle: h}, nil

	case protocol.CudaTagMemFree, protocol.CudaTagMemFreeAsync:
		s.mu.Lock()
		delete(s.cudaMem, cmd.Dptr.ResourceID)
		s.mu.Unlock()
		return &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}, nil

	case protocol.CudaTagMemcpyHtoD, protocol.CudaTagMemcpyHtoDAsync:
		s.mu.Lock()
		buf, ok := s.cudaMem[cmd.Dst.ResourceID]
		if ok {
			copy(buf, cmd.SrcData)
		}
		s.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("driver: memcpy to unknown allocation %v", cmd.Dst)
		}
		return &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}, nil

	case protocol.CudaTagMemcpyDtoH:
		s.mu.Lock()
		buf, ok := s.cudaMem[cmd.Src.ResourceID]
		var out []byte
		if ok {
			n := cmd.ByteCount
			if n > uint64(len(buf)) {
				n = uint64(len(buf))
			}
			out = append(out, buf[:n]...)
		}
		s.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("driver: memcpy from unknown allocation %v", cmd.Src)
		}
		return &protocol.CudaResponse{Tag: protocol.CudaRespMemoryData, Bytes: out}, nil

	case protocol.CudaTagStreamCreate, protocol.CudaTagStreamCreateWithPriority:
		id := s.allocID()
		h := protocol.NetworkHandle{ResourceID: id, ResourceType: protocol.ResourceCuStream}
		return &protocol.CudaResponse{Tag: protocol.CudaRespStream, Handle: h}, nil

	case protocol.CudaTagStreamDestroy, protocol.CudaTagStreamSynchronize:
		return &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}, nil

	case protocol.CudaTagEventCreate:
		id := s.allocID()
		h := protocol.NetworkHandle{ResourceID: id, ResourceType: protocol.ResourceCuEvent}
		return &protocol.CudaResponse{Tag: protocol.CudaRespEvent, Handle: h}, nil

	case protocol.CudaTagLaunchKernel, protocol.CudaTagLaunchCooperativeKernel:
		return &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}, nil

	default:
		return &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}, nil
	}
}

// VulkanExecute runs a VulkanCommand against the simulated device,
// answering the query-style calls with a fixed RawBytes payload sized to
// look like a real vendor struct, and modeling memory map/unmap well
// enough to exercise the shadow-memory round trip end to end.
func (s *Software) VulkanExecute(cmd *protocol.VulkanCommand) (*protocol.VulkanResponse, error) {
	switch cmd.Tag {
	case protocol.VkTagCreateInstance:
		h := protocol.NetworkHandle{ResourceID: s.allocID(), ResourceType: protocol.ResourceVkInstance}
		return &protocol.VulkanResponse{Tag: protocol.VkRespHandle, Handle: h}, nil

	case protocol.VkTagEnumeratePhysicalDevices:
		handles := make([]protocol.NetworkHandle, s.deviceCount)
		for i := range handles {
			handles[i] = protocol.NetworkHandle{ResourceID: s.allocID(), ResourceType: protocol.ResourceVkPhysicalDevice}
		}
		return &protocol.VulkanResponse{Tag: protocol.VkRespHandles, Handles: handles}, nil

	case protocol.VkTagGetPhysicalDeviceProperties, protocol.VkTagGetPhysicalDeviceMemoryProperties,
		protocol.VkTagGetPhysicalDeviceQueueFamilyProperties, protocol.VkTagGetPhysicalDeviceFormatProperties,
		protocol.VkTagGetPhysicalDeviceFeatures:
		return &protocol.VulkanResponse{Tag: protocol.VkRespRawBytes, RawBytes: make([]byte, 256)}, nil

	case protocol.VkTagCreateDevice:
		h := protocol.NetworkHandle{ResourceID: s.allocID(), ResourceType: protocol.ResourceVkDevice}
		return &protocol.VulkanResponse{Tag: protocol.VkRespHandle, Handle: h}, nil

	case protocol.VkTagAllocateMemory:
		id := s.allocID()
		s.mu.Lock()
		s.vkMem[id] = make([]byte, cmd.AllocationSize)
		s.mu.Unlock()
		h := protocol.NetworkHandle{ResourceID: id, ResourceType: protocol.ResourceVkDeviceMemory}
		return &protocol.VulkanResponse{Tag: protocol.VkRespHandle, Handle: h}, nil

	case protocol.VkTagFreeMemory:
		s.mu.Lock()
		delete(s.vkMem, cmd.Memory.ResourceID)
		s.mu.Unlock()
		return &protocol.VulkanResponse{Tag: protocol.VkRespSuccess}, nil

	case protocol.VkTagMapMemory:
		s.mu.Lock()
		buf, ok := s.vkMem[cmd.Memory.ResourceID]
		var out []byte
		if ok {
			start := cmd.Offset
			end := start + cmd.Size
			if end > uint64(len(buf)) {
				end = uint64(len(buf))
			}
			out = append(out, buf[start:end]...)
		}
		s.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("driver: map of unknown memory %v", cmd.Memory)
		}
		return &protocol.VulkanResponse{Tag: protocol.VkRespRawBytes, RawBytes: out}, nil

	case protocol.VkTagUnmapMemory:
		s.mu.Lock()
		buf, ok := s.vkMem[cmd.Memory.ResourceID]
		if ok {
			copy(buf, cmd.CreateInfo)
		}
		s.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("driver: unmap of unknown memory %v", cmd.Memory)
		}
		return &protocol.VulkanResponse{Tag: protocol.VkRespSuccess}, nil

	case protocol.VkTagSubmitRecordedCommands, protocol.VkTagQueueSubmit:
		return &protocol.VulkanResponse{Tag: protocol.VkRespSuccess}, nil

	default:
		return &protocol.VulkanResponse{Tag: protocol.VkRespSuccess}, nil
	}
}

// AsVulkanDriver adapts Software to the VulkanDriver interface; Software
// itself can't implement both CudaDriver.Execute and VulkanDriver.Execute
// since Go has no overloading.
func (s *Software) AsVulkanDriver() VulkanDriver { return softwareVulkan{s} }

type softwareVulkan struct{ s *Software }

func (v softwareVulkan) Execute(cmd *protocol.VulkanCommand) (*protocol.VulkanResponse, error) {
	return v.s.VulkanExecute(cmd)
}
