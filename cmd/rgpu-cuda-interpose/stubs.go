// Stub exports for CUDA Driver API families this replacement does not
// virtualize: graphs, stream capture, legacy texture/surface references,
// texture/surface objects, external memory/semaphore import, and
// callback-based functions (cuStreamAddCallback, cuLaunchHostFunc -- a
// function pointer into the application's address space cannot be
// invoked from across a network boundary). Each stub returns
// CUDA_ERROR_NOT_SUPPORTED without round-tripping to the daemon.
package main

/*
typedef int CUresult;
*/
import "C"

import "github.com/rgpu/rgpu/pkg/cudainterpose"

const notSupported = C.CUresult(cudainterpose.ErrorNotSupported)

//export cuGraphCreate
func cuGraphCreate() C.CUresult { return notSupported }

//export cuGraphDestroy
func cuGraphDestroy() C.CUresult { return notSupported }

//export cuGraphLaunch
func cuGraphLaunch() C.CUresult { return notSupported }

//export cuGraphInstantiate
func cuGraphInstantiate() C.CUresult { return notSupported }

//export cuGraphInstantiateWithFlags
func cuGraphInstantiateWithFlags() C.CUresult { return notSupported }

//export cuGraphExecDestroy
func cuGraphExecDestroy() C.CUresult { return notSupported }

//export cuGraphExecUpdate
func cuGraphExecUpdate() C.CUresult { return notSupported }

//export cuGraphAddKernelNode
func cuGraphAddKernelNode() C.CUresult { return notSupported }

//export cuGraphAddMemcpyNode
func cuGraphAddMemcpyNode() C.CUresult { return notSupported }

//export cuGraphAddMemsetNode
func cuGraphAddMemsetNode() C.CUresult { return notSupported }

//export cuGraphAddEmptyNode
func cuGraphAddEmptyNode() C.CUresult { return notSupported }

//export cuGraphGetNodes
func cuGraphGetNodes() C.CUresult { return notSupported }

//export cuGraphAddDependencies
func cuGraphAddDependencies() C.CUresult { return notSupported }

//export cuGraphClone
func cuGraphClone() C.CUresult { return notSupported }

//export cuStreamBeginCapture
func cuStreamBeginCapture() C.CUresult { return notSupported }

//export cuStreamEndCapture
func cuStreamEndCapture() C.CUresult { return notSupported }

//export cuStreamIsCapturing
func cuStreamIsCapturing() C.CUresult { return notSupported }

//export cuStreamGetCaptureInfo
func cuStreamGetCaptureInfo() C.CUresult { return notSupported }

//export cuTexRefSetAddress
func cuTexRefSetAddress() C.CUresult { return notSupported }

//export cuTexRefSetFormat
func cuTexRefSetFormat() C.CUresult { return notSupported }

//export cuTexRefGetAddress
func cuTexRefGetAddress() C.CUresult { return notSupported }

//export cuTexObjectCreate
func cuTexObjectCreate() C.CUresult { return notSupported }

//export cuTexObjectDestroy
func cuTexObjectDestroy() C.CUresult { return notSupported }

//export cuSurfObjectCreate
func cuSurfObjectCreate() C.CUresult { return notSupported }

//export cuSurfObjectDestroy
func cuSurfObjectDestroy() C.CUresult { return notSupported }

//export cuImportExternalMemory
func cuImportExternalMemory() C.CUresult { return notSupported }

//export cuExternalMemoryGetMappedBuffer
func cuExternalMemoryGetMappedBuffer() C.CUresult { return notSupported }

//export cuDestroyExternalMemory
func cuDestroyExternalMemory() C.CUresult { return notSupported }

//export cuImportExternalSemaphore
func cuImportExternalSemaphore() C.CUresult { return notSupported }

//export cuSignalExternalSemaphoresAsync
func cuSignalExternalSemaphoresAsync() C.CUresult { return notSupported }

//export cuWaitExternalSemaphoresAsync
func cuWaitExternalSemaphoresAsync() C.CUresult { return notSupported }

//export cuStreamAddCallback
func cuStreamAddCallback() C.CUresult { return notSupported }

//export cuLaunchHostFunc
func cuLaunchHostFunc() C.CUresult { return notSupported }

//export cuArrayCreate
func cuArrayCreate() C.CUresult { return notSupported }

//export cuArrayDestroy
func cuArrayDestroy() C.CUresult { return notSupported }

//export cuArray3DCreate
func cuArray3DCreate() C.CUresult { return notSupported }

//export cuMipmappedArrayCreate
func cuMipmappedArrayCreate() C.CUresult { return notSupported }

//export cuMipmappedArrayDestroy
func cuMipmappedArrayDestroy() C.CUresult { return notSupported }

//export cuModuleGetTexRef
func cuModuleGetTexRef() C.CUresult { return notSupported }

//export cuModuleGetSurfRef
func cuModuleGetSurfRef() C.CUresult { return notSupported }

//export cuMemHostRegister
func cuMemHostRegister() C.CUresult { return notSupported }

//export cuMemHostUnregister
func cuMemHostUnregister() C.CUresult { return notSupported }

// cuGetExportTable and cuFlushGPUDirectRDMAWrites are queried by some
// CUDA runtime builds during init; answering them plainly avoids forcing
// every application through the NOT_SUPPORTED path just to start up.

//export cuGetExportTable
func cuGetExportTable() C.CUresult { return C.CUresult(cudainterpose.ErrorNotFound) }

//export cuFlushGPUDirectRDMAWrites
func cuFlushGPUDirectRDMAWrites() C.CUresult { return C.CUresult(cudainterpose.Success) }
