package protocol

// CudaCommandTag is the wire discriminant for a CudaCommand variant.
type CudaCommandTag uint16

const (
	CudaTagInit CudaCommandTag = iota
	CudaTagDriverGetVersion
	CudaTagDeviceGetCount
	CudaTagDeviceGet
	CudaTagDeviceGetName
	CudaTagDeviceGetAttribute
	CudaTagDeviceTotalMem
	CudaTagDeviceComputeCapability
	CudaTagDeviceGetUuid
	CudaTagDeviceGetP2PAttribute
	CudaTagDeviceCanAccessPeer
	CudaTagDeviceGetByPCIBusId
	CudaTagDeviceGetPCIBusId
	CudaTagDeviceGetDefaultMemPool
	CudaTagDeviceGetMemPool
	CudaTagDeviceSetMemPool
	CudaTagDeviceGetTexture1DLinearMaxWidth
	CudaTagDeviceGetExecAffinitySupport
	CudaTagDevicePrimaryCtxRetain
	CudaTagDevicePrimaryCtxRelease
	CudaTagDevicePrimaryCtxReset
	CudaTagDevicePrimaryCtxGetState
	CudaTagDevicePrimaryCtxSetFlags
	CudaTagCtxCreate
	CudaTagCtxDestroy
	CudaTagCtxSetCurrent
	CudaTagCtxGetCurrent
	CudaTagCtxSynchronize
	CudaTagCtxPushCurrent
	CudaTagCtxPopCurrent
	CudaTagCtxGetDevice
	CudaTagCtxSetCacheConfig
	CudaTagCtxGetCacheConfig
	CudaTagCtxSetLimit
	CudaTagCtxGetLimit
	CudaTagCtxGetStreamPriorityRange
	CudaTagCtxGetApiVersion
	CudaTagCtxGetFlags
	CudaTagCtxSetFlags
	CudaTagCtxResetPersistingL2Cache
	CudaTagModuleLoadData
	CudaTagModuleUnload
	CudaTagModuleGetFunction
	CudaTagModuleGetGlobal
	CudaTagMemAlloc
	CudaTagMemFree
	CudaTagMemcpyHtoD
	CudaTagMemcpyDtoH
	CudaTagMemcpyDtoD
	CudaTagMemcpyHtoDAsync
	CudaTagMemcpyDtoHAsync
	CudaTagMemcpyDtoDAsync
	CudaTagMemsetD8
	CudaTagMemsetD16
	CudaTagMemsetD32
	CudaTagMemsetD8Async
	CudaTagMemsetD16Async
	CudaTagMemsetD32Async
	CudaTagMemGetInfo
	CudaTagMemGetAddressRange
	CudaTagMemAllocHost
	CudaTagMemFreeHost
	CudaTagMemHostAlloc
	CudaTagMemHostGetDevicePointer
	CudaTagMemHostGetFlags
	CudaTagMemAllocManaged
	CudaTagMemAllocPitch
	CudaTagMemHostRegister
	CudaTagMemHostUnregister
	CudaTagMemPrefetchAsync
	CudaTagMemAdvise
	CudaTagMemRangeGetAttribute
	CudaTagLaunchKernel
	CudaTagLaunchCooperativeKernel
	CudaTagFuncGetAttribute
	CudaTagFuncSetAttribute
	CudaTagFuncSetCacheConfig
	CudaTagFuncSetSharedMemConfig
	CudaTagFuncGetModule
	CudaTagFuncGetName
	CudaTagOccupancyMaxActiveBlocksPerMultiprocessor
	CudaTagOccupancyMaxActiveBlocksPerMultiprocessorWithFlags
	CudaTagOccupancyAvailableDynamicSMemPerBlock
	CudaTagStreamCreate
	CudaTagStreamCreateWithPriority
	CudaTagStreamDestroy
	CudaTagStreamSynchronize
	CudaTagStreamQuery
	CudaTagStreamWaitEvent
	CudaTagStreamGetPriority
	CudaTagStreamGetFlags
	CudaTagStreamGetCtx
	CudaTagEventCreate
	CudaTagEventDestroy
	CudaTagEventRecord
	CudaTagEventRecordWithFlags
	CudaTagEventSynchronize
	CudaTagEventQuery
	CudaTagEventElapsedTime
	CudaTagPointerGetAttribute
	CudaTagPointerGetAttributes
	CudaTagPointerSetAttribute
	CudaTagCtxEnablePeerAccess
	CudaTagCtxDisablePeerAccess
	CudaTagMemPoolCreate
	CudaTagMemPoolDestroy
	CudaTagMemPoolTrimTo
	CudaTagMemPoolSetAttribute
	CudaTagMemPoolGetAttribute
	CudaTagMemAllocAsync
	CudaTagMemFreeAsync
	CudaTagMemAllocFromPoolAsync
	CudaTagModuleLoad
	CudaTagModuleLoadDataEx
	CudaTagModuleLoadFatBinary
	CudaTagLinkCreate
	CudaTagLinkAddData
	CudaTagLinkAddFile
	CudaTagLinkComplete
	CudaTagLinkDestroy
)

// KernelParam is one argument slot of a kernel launch, passed as raw
// bytes the way cuLaunchKernel's void** kernelParams array is marshalled.
type KernelParam struct {
	Data []byte
}

// CudaCommand is the CUDA Driver API request taxonomy. Rather than one
// interface implementation per variant (which would be ~90 near-empty
// types for what is fundamentally one closed, wire-tagged union), the
// command carries every field any variant might need; unused fields are
// left at their zero value. Dispatch always switches on Tag first.
type CudaCommand struct {
	Tag CudaCommandTag

	Flags    uint32
	Ordinal  int32
	Attrib   int32
	PCIBusID string

	Device     NetworkHandle
	PeerDevice NetworkHandle
	SrcDevice  NetworkHandle
	DstDevice  NetworkHandle
	Ctx        NetworkHandle
	PeerCtx    NetworkHandle
	Module     NetworkHandle
	Func       NetworkHandle
	Stream     NetworkHandle
	Event      NetworkHandle
	EventStart NetworkHandle
	EventEnd   NetworkHandle
	MemPool    NetworkHandle
	Pool       NetworkHandle
	Ptr        NetworkHandle
	HostPtr    NetworkHandle
	Dptr       NetworkHandle
	Dst        NetworkHandle
	Src        NetworkHandle
	Link       NetworkHandle

	AffinityType int32
	Limit        int32
	Value        uint64
	Config       int32

	Name string

	ByteSize  uint64
	ByteCount uint64
	Width     uint64
	Height    uint64
	ElementSz uint32

	SrcData []byte
	Value8  uint8
	Value16 uint16
	Value32 uint32
	Count   uint64

	Image        []byte
	FatCubin     []byte
	NumOptions   uint32
	Options      []int32
	OptionValues []uint64
	JitType      int32
	Path         string

	GridDim   [3]uint32
	BlockDim  [3]uint32
	SharedMem uint32
	Params    []KernelParam

	BlockSize       int32
	DynamicSmemSize uint64
	NumBlocks       int32

	NumAttributes int32
	Attributes    []int32
	Advice        int32

	Priority int32

	PropsFlags      uint32
	MinBytesToKeep  uint64
	AttrID          int32

	Fname string
}

// IsVoid reports whether the command never produces a value the caller
// needs before proceeding (a "fire and forget" from the caller's point of
// view). The client daemon's pipelining batcher only ever queues void
// commands; anything else is a synchronization point and forces a flush.
func (c CudaCommand) IsVoid() bool {
	switch c.Tag {
	case CudaTagMemcpyHtoDAsync,
		CudaTagMemcpyDtoDAsync,
		CudaTagMemsetD8Async,
		CudaTagMemsetD16Async,
		CudaTagMemsetD32Async,
		CudaTagMemFree,
		CudaTagMemFreeAsync,
		CudaTagMemFreeHost,
		CudaTagCtxSetCurrent,
		CudaTagCtxSetCacheConfig,
		CudaTagCtxSetLimit,
		CudaTagCtxSetFlags,
		CudaTagEventRecord,
		CudaTagEventRecordWithFlags,
		CudaTagStreamWaitEvent,
		CudaTagFuncSetCacheConfig,
		CudaTagFuncSetSharedMemConfig,
		CudaTagFuncSetAttribute,
		CudaTagMemPoolSetAttribute,
		CudaTagMemPoolTrimTo,
		CudaTagDevicePrimaryCtxSetFlags,
		CudaTagDeviceSetMemPool,
		CudaTagLaunchKernel,
		CudaTagLaunchCooperativeKernel:
		return true
	default:
		return false
	}
}

// CudaResponseTag is the wire discriminant for a CudaResponse variant.
type CudaResponseTag uint16

const (
	CudaRespSuccess CudaResponseTag = iota
	CudaRespError
	CudaRespDriverVersion
	CudaRespDeviceCount
	CudaRespDevice
	CudaRespDeviceName
	CudaRespDeviceAttribute
	CudaRespDeviceTotalMem
	CudaRespComputeCapability
	CudaRespDeviceUuid
	CudaRespDevicePCIBusId
	CudaRespP2PAttribute
	CudaRespBoolResult
	CudaRespPrimaryCtxState
	CudaRespMemPool
	CudaRespTexture1DMaxWidth
	CudaRespContext
	CudaRespContextDevice
	CudaRespCacheConfig
	CudaRespContextLimit
	CudaRespStreamPriorityRange
	CudaRespContextApiVersion
	CudaRespContextFlags
	CudaRespModule
	CudaRespFunction
	CudaRespGlobalPtr
	CudaRespMemAllocated
	CudaRespMemAllocPitch
	CudaRespMemInfo
	CudaRespMemAddressRange
	CudaRespMemoryData
	CudaRespHostPtr
	CudaRespHostDevicePtr
	CudaRespHostFlags
	CudaRespMemRangeAttribute
	CudaRespStream
	CudaRespStreamStatus
	CudaRespStreamPriority
	CudaRespStreamFlags
	CudaRespStreamCtx
	CudaRespEvent
	CudaRespEventStatus
	CudaRespElapsedTime
	CudaRespPointerAttribute
	CudaRespPointerAttributes
	CudaRespFuncAttribute
	CudaRespFuncModule
	CudaRespFuncName
	CudaRespOccupancyBlocks
	CudaRespOccupancyDynamicSmem
	CudaRespMemPoolAttribute
	CudaRespLinker
	CudaRespLinkCompleted
)

// CudaResponse is the CUDA Driver API response taxonomy, the mirror image
// of CudaCommand: one flat struct tagged by the response kind.
type CudaResponse struct {
	Tag CudaResponseTag

	Code    int32
	Message string

	Int32  int32
	UInt32 uint32
	UInt64 uint64
	Bool   bool
	Float  float32

	Handle NetworkHandle

	Major, Minor int32
	Least, Greatest int32

	Bytes []byte
	Str   string

	PoolFree, PoolTotal uint64
	GlobalSize          uint64
	PitchDptr           NetworkHandle
	Pitch               uint64
	Active              bool

	Attrs []uint64
}
