// Command rgpu-cuda-interpose builds the CUDA Driver API replacement
// library applications load via LD_PRELOAD in place of libcuda.so. Every
// exported cu* symbol below is a thin cgo trampoline: it unmarshals its C
// arguments, calls into pkg/cudainterpose.Client, and writes the result
// back through the pointers the caller passed in. All of the actual
// protocol, handle-management, and pipelining logic lives in
// pkg/cudainterpose so it can be tested without cgo.
package main

/*
#include <stdint.h>
#include <stddef.h>

typedef int CUresult;
typedef int CUdevice;
typedef void* CUcontext;
typedef void* CUstream;
typedef void* CUevent;
typedef void* CUmodule;
typedef void* CUfunction;
typedef unsigned long long CUdeviceptr;
*/
import "C"

import (
	"os"
	"sync"
	"unsafe"

	"github.com/rgpu/rgpu/pkg/cudainterpose"
	"github.com/rgpu/rgpu/pkg/protocol"
)

const defaultSocketPath = "/tmp/rgpu-daemon.sock"

var (
	clientOnce sync.Once
	client     *cudainterpose.Client
)

func getClient() *cudainterpose.Client {
	clientOnce.Do(func() {
		path := os.Getenv("RGPU_SOCKET")
		if path == "" {
			path = defaultSocketPath
		}
		client = cudainterpose.NewClient(path)
	})
	return client
}

//export cuInit
func cuInit(flags C.uint) C.CUresult {
	return C.CUresult(getClient().Init(uint32(flags)))
}

//export cuDriverGetVersion
func cuDriverGetVersion(driverVersion *C.int) C.CUresult {
	if driverVersion == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	version, code := getClient().DriverGetVersion()
	if code == cudainterpose.Success {
		*driverVersion = C.int(version)
	}
	return C.CUresult(code)
}

//export cuDeviceGetCount
func cuDeviceGetCount(count *C.int) C.CUresult {
	if count == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	n, code := getClient().DeviceGetCount()
	if code == cudainterpose.Success {
		*count = C.int(n)
	}
	return C.CUresult(code)
}

//export cuDeviceGet
func cuDeviceGet(device *C.CUdevice, ordinal C.int) C.CUresult {
	if device == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	id, code := getClient().DeviceGet(int32(ordinal))
	if code == cudainterpose.Success {
		*device = C.CUdevice(id)
	}
	return C.CUresult(code)
}

//export cuDeviceGetName
func cuDeviceGetName(name *C.char, length C.int, device C.CUdevice) C.CUresult {
	if name == nil || length <= 0 {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	str, code := getClient().DeviceGetName(uint64(device))
	if code != cudainterpose.Success {
		return C.CUresult(code)
	}
	copyCString(name, int(length), str)
	return C.CUresult(cudainterpose.Success)
}

//export cuDeviceTotalMem
func cuDeviceTotalMem(bytes *C.size_t, device C.CUdevice) C.CUresult {
	if bytes == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	total, code := getClient().DeviceTotalMem(uint64(device))
	if code == cudainterpose.Success {
		*bytes = C.size_t(total)
	}
	return C.CUresult(code)
}

//export cuCtxCreate
func cuCtxCreate(ctx *C.CUcontext, flags C.uint, device C.CUdevice) C.CUresult {
	if ctx == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	id, code := getClient().CtxCreate(uint32(flags), uint64(device))
	if code == cudainterpose.Success {
		*ctx = idToPointer(id)
	}
	return C.CUresult(code)
}

//export cuCtxDestroy
func cuCtxDestroy(ctx C.CUcontext) C.CUresult {
	return C.CUresult(getClient().CtxDestroy(pointerToID(ctx)))
}

//export cuCtxSetCurrent
func cuCtxSetCurrent(ctx C.CUcontext) C.CUresult {
	return C.CUresult(getClient().CtxSetCurrent(pointerToID(ctx)))
}

//export cuCtxSynchronize
func cuCtxSynchronize() C.CUresult {
	return C.CUresult(getClient().CtxSynchronize())
}

//export cuMemAlloc
func cuMemAlloc(dptr *C.CUdeviceptr, byteSize C.size_t) C.CUresult {
	if dptr == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	id, code := getClient().MemAlloc(uint64(byteSize))
	if code == cudainterpose.Success {
		*dptr = C.CUdeviceptr(id)
	}
	return C.CUresult(code)
}

//export cuMemFree
func cuMemFree(dptr C.CUdeviceptr) C.CUresult {
	return C.CUresult(getClient().MemFree(uint64(dptr)))
}

//export cuMemcpyHtoD
func cuMemcpyHtoD(dst C.CUdeviceptr, src unsafe.Pointer, byteCount C.size_t) C.CUresult {
	if src == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	return C.CUresult(getClient().MemcpyHtoD(uint64(dst), C.GoBytes(src, C.int(byteCount))))
}

//export cuMemcpyHtoDAsync
func cuMemcpyHtoDAsync(dst C.CUdeviceptr, src unsafe.Pointer, byteCount C.size_t, stream C.CUstream) C.CUresult {
	if src == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	data := C.GoBytes(src, C.int(byteCount))
	return C.CUresult(getClient().MemcpyHtoDAsync(uint64(dst), data, pointerToID(unsafe.Pointer(stream))))
}

//export cuMemcpyDtoH
func cuMemcpyDtoH(dst unsafe.Pointer, src C.CUdeviceptr, byteCount C.size_t) C.CUresult {
	if dst == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	buf := make([]byte, int(byteCount))
	code := getClient().MemcpyDtoH(buf, uint64(src))
	if code == cudainterpose.Success {
		C.memcpy(dst, unsafe.Pointer(&buf[0]), byteCount)
	}
	return C.CUresult(code)
}

//export cuMemsetD8
func cuMemsetD8(dptr C.CUdeviceptr, value C.uchar, count C.size_t) C.CUresult {
	return C.CUresult(getClient().MemsetD8(uint64(dptr), uint8(value), uint64(count)))
}

//export cuMemsetD8Async
func cuMemsetD8Async(dptr C.CUdeviceptr, value C.uchar, count C.size_t, stream C.CUstream) C.CUresult {
	return C.CUresult(getClient().MemsetD8Async(uint64(dptr), uint8(value), uint64(count), pointerToID(unsafe.Pointer(stream))))
}

//export cuStreamCreate
func cuStreamCreate(stream *C.CUstream, flags C.uint) C.CUresult {
	if stream == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	id, code := getClient().StreamCreate(uint32(flags))
	if code == cudainterpose.Success {
		*stream = idToPointer(id)
	}
	return C.CUresult(code)
}

//export cuStreamDestroy
func cuStreamDestroy(stream C.CUstream) C.CUresult {
	return C.CUresult(getClient().StreamDestroy(pointerToID(unsafe.Pointer(stream))))
}

//export cuStreamSynchronize
func cuStreamSynchronize(stream C.CUstream) C.CUresult {
	return C.CUresult(getClient().StreamSynchronize(pointerToID(unsafe.Pointer(stream))))
}

//export cuEventCreate
func cuEventCreate(event *C.CUevent, flags C.uint) C.CUresult {
	if event == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	id, code := getClient().EventCreate(uint32(flags))
	if code == cudainterpose.Success {
		*event = idToPointer(id)
	}
	return C.CUresult(code)
}

//export cuEventDestroy
func cuEventDestroy(event C.CUevent) C.CUresult {
	return C.CUresult(getClient().EventDestroy(pointerToID(unsafe.Pointer(event))))
}

//export cuEventRecord
func cuEventRecord(event C.CUevent, stream C.CUstream) C.CUresult {
	return C.CUresult(getClient().EventRecord(pointerToID(unsafe.Pointer(event)), pointerToID(unsafe.Pointer(stream))))
}

//export cuEventSynchronize
func cuEventSynchronize(event C.CUevent) C.CUresult {
	return C.CUresult(getClient().EventSynchronize(pointerToID(unsafe.Pointer(event))))
}

// cuModuleLoadData takes one argument beyond the real ABI: imageSize.
// The real call infers the fatbinary's length from its own header; this
// replacement asks the caller for it directly rather than parsing the
// container format to find where the image ends.
//
//export cuModuleLoadData
func cuModuleLoadData(module *C.CUmodule, image unsafe.Pointer, imageSize C.size_t) C.CUresult {
	if module == nil || image == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	id, code := getClient().ModuleLoadData(C.GoBytes(image, C.int(imageSize)))
	if code == cudainterpose.Success {
		*module = idToPointer(id)
	}
	return C.CUresult(code)
}

//export cuModuleGetFunction
func cuModuleGetFunction(fn *C.CUfunction, module C.CUmodule, name *C.char) C.CUresult {
	if fn == nil || name == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	id, code := getClient().ModuleGetFunction(pointerToID(unsafe.Pointer(module)), C.GoString(name))
	if code == cudainterpose.Success {
		*fn = idToPointer(id)
	}
	return C.CUresult(code)
}

// cuLaunchKernel takes one argument beyond the real ABI: numParams. The
// genuine driver infers the kernelParams layout from the fatbinary's
// per-kernel parameter metadata, which this replacement does not parse;
// callers here must say how many pointer-sized slots to read instead.
//
//export cuLaunchKernel
func cuLaunchKernel(
	fn C.CUfunction,
	gridDimX, gridDimY, gridDimZ C.uint,
	blockDimX, blockDimY, blockDimZ C.uint,
	sharedMemBytes C.uint,
	stream C.CUstream,
	kernelParams *unsafe.Pointer,
	numParams C.int,
	extra *unsafe.Pointer,
) C.CUresult {
	_ = extra
	params := make([]protocol.KernelParam, 0, int(numParams))
	if kernelParams != nil && numParams > 0 {
		slots := unsafe.Slice(kernelParams, int(numParams))
		for _, p := range slots {
			// Each slot is itself a pointer to the argument's bytes; the
			// real driver sizes the copy per the kernel's parameter
			// table, here a fixed pointer-sized word stands in for the
			// scalar/pointer arguments common kernels pass.
			params = append(params, protocol.KernelParam{Data: C.GoBytes(p, 8)})
		}
	}
	grid := [3]uint32{uint32(gridDimX), uint32(gridDimY), uint32(gridDimZ)}
	block := [3]uint32{uint32(blockDimX), uint32(blockDimY), uint32(blockDimZ)}
	return C.CUresult(getClient().LaunchKernel(
		pointerToID(unsafe.Pointer(fn)), grid, block, uint32(sharedMemBytes),
		pointerToID(unsafe.Pointer(stream)), params,
	))
}

//export cuGetErrorString
func cuGetErrorString(code C.CUresult, str **C.char) C.CUresult {
	if str == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	*str = C.CString(cudainterpose.ErrorString(int32(code)))
	return C.CUresult(cudainterpose.Success)
}

//export cuGetErrorName
func cuGetErrorName(code C.CUresult, str **C.char) C.CUresult {
	if str == nil {
		return C.CUresult(cudainterpose.ErrorInvalidValue)
	}
	*str = C.CString(cudainterpose.ErrorName(int32(code)))
	return C.CUresult(cudainterpose.Success)
}

// idToPointer and pointerToID let a process-local opaque id ride inside
// a C pointer-sized handle (CUcontext, CUstream, ...) without needing
// Vulkan's loader-owned dispatch cell: CUDA never overwrites these
// handles out from under the library, so the id can be the pointer bits
// directly instead of living behind an allocation.
func idToPointer(id uint64) unsafe.Pointer {
	return unsafe.Pointer(uintptr(id))
}

func pointerToID(p unsafe.Pointer) uint64 {
	return uint64(uintptr(p))
}

func copyCString(dst *C.char, cap int, s string) {
	if cap <= 0 {
		return
	}
	if len(s) > cap-1 {
		s = s[:cap-1]
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(dst)), cap)
	n := copy(buf, s)
	buf[n] = 0
}

func main() {}
