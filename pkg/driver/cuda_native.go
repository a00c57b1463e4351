//go:build cuda && (linux || windows)
// +build cuda
// +build linux windows

package driver

/*
#cgo linux CFLAGS: -I/usr/local/cuda/include
#cgo linux LDFLAGS: -L/usr/local/cuda/lib64 -lcudart -lcuda
#cgo windows CFLAGS: -I"C:/Program Files/NVIDIA GPU Computing Toolkit/CUDA/v13.0/include"
#cgo windows LDFLAGS: -L${SRCDIR}/../../lib/cuda -lcudart -lcuda

#include <cuda.h>
#include <cuda_runtime_api.h>
#include <stdlib.h>
#include <string.h>

static CUresult rgpu_cu_init(void) {
    return cuInit(0);
}

static int rgpu_device_count(void) {
    int count = 0;
    if (cuDeviceGetCount(&count) != CUDA_SUCCESS) {
        return -1;
    }
    return count;
}

static CUresult rgpu_mem_alloc(CUdeviceptr *dptr, size_t bytesize) {
    return cuMemAlloc(dptr, bytesize);
}

static CUresult rgpu_mem_free(CUdeviceptr dptr) {
    return cuMemFree(dptr);
}

static CUresult rgpu_memcpy_htod(CUdeviceptr dst, const void *src, size_t byteCount) {
    return cuMemcpyHtoD(dst, src, byteCount);
}

static CUresult rgpu_memcpy_dtoh(void *dst, CUdeviceptr src, size_t byteCount) {
    return cuMemcpyDtoH(dst, src, byteCount);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/rgpu/rgpu/pkg/protocol"
)

// Cuda is the real NVIDIA driver backend, linked only when built with
// `-tags cuda`. It implements the same handle-allocation contract as
// Software (opaque monotonic resource ids mapped to native CUdeviceptr
// values) so the dispatcher is agnostic to which backend it talks to.
type Cuda struct {
	mu   sync.Mutex
	next uint64
	ptrs map[uint64]C.CUdeviceptr
}

// NewCuda initializes the CUDA driver API and returns a Cuda backend.
func NewCuda() (*Cuda, error) {
	if res := C.rgpu_cu_init(); res != C.CUDA_SUCCESS {
		return nil, fmt.Errorf("driver: cuInit failed: %d", int(res))
	}
	return &Cuda{next: 1, ptrs: make(map[uint64]C.CUdeviceptr)}, nil
}

func (c *Cuda) DeviceCount() int {
	n := C.rgpu_device_count()
	if n < 0 {
		return 0
	}
	return int(n)
}

func (c *Cuda) allocID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	return id
}

// Execute runs the subset of the CUDA command taxonomy this backend
// implements against real hardware. Commands outside that subset return
// an UnsupportedCommand protocol error rather than silently no-op'ing,
// so a caller can tell simulated success apart from unimplemented
// coverage.
func (c *Cuda) Execute(cmd *protocol.CudaCommand) (*protocol.CudaResponse, error) {
	switch cmd.Tag {
	case protocol.CudaTagInit:
		return &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}, nil

	case protocol.CudaTagDeviceGetCount:
		return &protocol.CudaResponse{Tag: protocol.CudaRespDeviceCount, Int32: int32(c.DeviceCount())}, nil

	case protocol.CudaTagMemAlloc:
		var dptr C.CUdeviceptr
		if res := C.rgpu_mem_alloc(&dptr, C.size_t(cmd.ByteSize)); res != C.CUDA_SUCCESS {
			return nil, fmt.Errorf("driver: cuMemAlloc failed: %d", int(res))
		}
		id := c.allocID()
		c.mu.Lock()
		c.ptrs[id] = dptr
		c.mu.Unlock()
		h := protocol.NetworkHandle{ResourceID: id, ResourceType: protocol.ResourceCuDevicePtr}
		return &protocol.CudaResponse{Tag: protocol.CudaRespMemAllocated, Handle: h}, nil

	case protocol.CudaTagMemFree:
		c.mu.Lock()
		dptr, ok := c.ptrs[cmd.Dptr.ResourceID]
		delete(c.ptrs, cmd.Dptr.ResourceID)
		c.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("driver: free of unknown allocation %v", cmd.Dptr)
		}
		if res := C.rgpu_mem_free(dptr); res != C.CUDA_SUCCESS {
			return nil, fmt.Errorf("driver: cuMemFree failed: %d", int(res))
		}
		return &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}, nil

	case protocol.CudaTagMemcpyHtoD:
		c.mu.Lock()
		dptr, ok := c.ptrs[cmd.Dst.ResourceID]
		c.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("driver: memcpy to unknown allocation %v", cmd.Dst)
		}
		if len(cmd.SrcData) == 0 {
			return &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}, nil
		}
		res := C.rgpu_memcpy_htod(dptr, unsafe.Pointer(&cmd.SrcData[0]), C.size_t(cmd.ByteCount))
		if res != C.CUDA_SUCCESS {
			return nil, fmt.Errorf("driver: cuMemcpyHtoD failed: %d", int(res))
		}
		return &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}, nil

	case protocol.CudaTagMemcpyDtoH:
		c.mu.Lock()
		dptr, ok := c.ptrs[cmd.Src.ResourceID]
		c.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("driver: memcpy from unknown allocation %v", cmd.Src)
		}
		out := make([]byte, cmd.ByteCount)
		if cmd.ByteCount > 0 {
			res := C.rgpu_memcpy_dtoh(unsafe.Pointer(&out[0]), dptr, C.size_t(cmd.ByteCount))
			if res != C.CUDA_SUCCESS {
				return nil, fmt.Errorf("driver: cuMemcpyDtoH failed: %d", int(res))
			}
		}
		return &protocol.CudaResponse{Tag: protocol.CudaRespMemoryData, Bytes: out}, nil

	default:
		return nil, protocol.NewUnsupportedCommand(fmt.Sprintf("cuda tag %d not implemented by native driver", cmd.Tag))
	}
}
