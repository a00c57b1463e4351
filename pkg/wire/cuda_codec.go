package wire

import (
	"fmt"

	"github.com/rgpu/rgpu/pkg/protocol"
)

func encodeKernelParams(w *writer, params []protocol.KernelParam) {
	w.u32(uint32(len(params)))
	for _, p := range params {
		w.bytesField(p.Data)
	}
}

func decodeKernelParams(r *reader) ([]protocol.KernelParam, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]protocol.KernelParam, n)
	for i := range out {
		data, err := r.bytesField()
		if err != nil {
			return nil, err
		}
		out[i].Data = data
	}
	return out, nil
}

// encodeCudaCommand writes a CudaCommand's tag followed by exactly the
// fields that tag uses, in the same order CudaCommand declares them. This
// keeps every variant's wire shape minimal instead of spilling all ~60
// possible fields onto the wire for every command.
func encodeCudaCommand(w *writer, c *protocol.CudaCommand) {
	w.u16(uint16(c.Tag))

	switch c.Tag {
	case protocol.CudaTagInit:
		w.u32(c.Flags)
	case protocol.CudaTagDriverGetVersion, protocol.CudaTagDeviceGetCount,
		protocol.CudaTagCtxGetCurrent, protocol.CudaTagCtxSynchronize,
		protocol.CudaTagCtxPopCurrent, protocol.CudaTagCtxGetDevice,
		protocol.CudaTagCtxGetCacheConfig, protocol.CudaTagCtxGetStreamPriorityRange,
		protocol.CudaTagCtxGetFlags, protocol.CudaTagCtxResetPersistingL2Cache,
		protocol.CudaTagMemGetInfo:
		// no fields

	case protocol.CudaTagDeviceGet:
		w.i32(c.Ordinal)

	case protocol.CudaTagDeviceGetName, protocol.CudaTagDeviceTotalMem,
		protocol.CudaTagDeviceComputeCapability, protocol.CudaTagDeviceGetUuid,
		protocol.CudaTagDeviceGetPCIBusId, protocol.CudaTagDeviceGetDefaultMemPool,
		protocol.CudaTagDeviceGetMemPool, protocol.CudaTagDevicePrimaryCtxRetain,
		protocol.CudaTagDevicePrimaryCtxRelease, protocol.CudaTagDevicePrimaryCtxReset,
		protocol.CudaTagDevicePrimaryCtxGetState:
		encodeHandle(w, c.Device)

	case protocol.CudaTagDeviceGetAttribute:
		w.i32(c.Attrib)
		encodeHandle(w, c.Device)

	case protocol.CudaTagDeviceGetP2PAttribute:
		w.i32(c.Attrib)
		encodeHandle(w, c.SrcDevice)
		encodeHandle(w, c.DstDevice)

	case protocol.CudaTagDeviceCanAccessPeer:
		encodeHandle(w, c.Device)
		encodeHandle(w, c.PeerDevice)

	case protocol.CudaTagDeviceGetByPCIBusId:
		w.str(c.PCIBusID)

	case protocol.CudaTagDeviceSetMemPool:
		encodeHandle(w, c.Device)
		encodeHandle(w, c.MemPool)

	case protocol.CudaTagDeviceGetTexture1DLinearMaxWidth:
		w.u32(c.Flags) // format
		w.u32(uint32(c.NumOptions))
		encodeHandle(w, c.Device)

	case protocol.CudaTagDeviceGetExecAffinitySupport:
		w.i32(c.AffinityType)
		encodeHandle(w, c.Device)

	case protocol.CudaTagDevicePrimaryCtxSetFlags:
		encodeHandle(w, c.Device)
		w.u32(c.Flags)

	case protocol.CudaTagCtxCreate:
		w.u32(c.Flags)
		encodeHandle(w, c.Device)

	case protocol.CudaTagCtxDestroy, protocol.CudaTagCtxSetCurrent,
		protocol.CudaTagCtxPushCurrent, protocol.CudaTagCtxGetApiVersion:
		encodeHandle(w, c.Ctx)

	case protocol.CudaTagCtxSetCacheConfig, protocol.CudaTagCtxSetFlags:
		w.i32(c.Config)

	case protocol.CudaTagCtxSetLimit:
		w.i32(c.Limit)
		w.u64(c.Value)

	case protocol.CudaTagCtxGetLimit:
		w.i32(c.Limit)

	case protocol.CudaTagModuleLoadData:
		w.bytesField(c.Image)

	case protocol.CudaTagModuleUnload:
		encodeHandle(w, c.Module)

	case protocol.CudaTagModuleGetFunction, protocol.CudaTagModuleGetGlobal:
		encodeHandle(w, c.Module)
		w.str(c.Name)

	case protocol.CudaTagMemAlloc, protocol.CudaTagMemAllocHost,
		protocol.CudaTagMemAllocManaged:
		w.u64(c.ByteSize)
		if c.Tag == protocol.CudaTagMemAllocManaged {
			w.u32(c.Flags)
		}

	case protocol.CudaTagMemFree, protocol.CudaTagMemGetAddressRange:
		encodeHandle(w, c.Dptr)

	case protocol.CudaTagMemcpyHtoD:
		encodeHandle(w, c.Dst)
		w.bytesField(c.SrcData)
		w.u64(c.ByteCount)

	case protocol.CudaTagMemcpyDtoH:
		encodeHandle(w, c.Src)
		w.u64(c.ByteCount)

	case protocol.CudaTagMemcpyDtoD:
		encodeHandle(w, c.Dst)
		encodeHandle(w, c.Src)
		w.u64(c.ByteCount)

	case protocol.CudaTagMemcpyHtoDAsync:
		encodeHandle(w, c.Dst)
		w.bytesField(c.SrcData)
		w.u64(c.ByteCount)
		encodeHandle(w, c.Stream)

	case protocol.CudaTagMemcpyDtoHAsync:
		encodeHandle(w, c.Src)
		w.u64(c.ByteCount)
		encodeHandle(w, c.Stream)

	case protocol.CudaTagMemcpyDtoDAsync:
		encodeHandle(w, c.Dst)
		encodeHandle(w, c.Src)
		w.u64(c.ByteCount)
		encodeHandle(w, c.Stream)

	case protocol.CudaTagMemsetD8:
		encodeHandle(w, c.Dst)
		w.u8(c.Value8)
		w.u64(c.Count)

	case protocol.CudaTagMemsetD16:
		encodeHandle(w, c.Dst)
		w.u16(c.Value16)
		w.u64(c.Count)

	case protocol.CudaTagMemsetD32:
		encodeHandle(w, c.Dst)
		w.u32(c.Value32)
		w.u64(c.Count)

	case protocol.CudaTagMemsetD8Async:
		encodeHandle(w, c.Dst)
		w.u8(c.Value8)
		w.u64(c.Count)
		encodeHandle(w, c.Stream)

	case protocol.CudaTagMemsetD16Async:
		encodeHandle(w, c.Dst)
		w.u16(c.Value16)
		w.u64(c.Count)
		encodeHandle(w, c.Stream)

	case protocol.CudaTagMemsetD32Async:
		encodeHandle(w, c.Dst)
		w.u32(c.Value32)
		w.u64(c.Count)
		encodeHandle(w, c.Stream)

	case protocol.CudaTagMemFreeHost, protocol.CudaTagMemHostGetFlags,
		protocol.CudaTagMemHostUnregister:
		encodeHandle(w, c.HostPtr)

	case protocol.CudaTagMemHostAlloc:
		w.u64(c.ByteSize)
		w.u32(c.Flags)

	case protocol.CudaTagMemHostGetDevicePointer:
		encodeHandle(w, c.HostPtr)
		w.u32(c.Flags)

	case protocol.CudaTagMemAllocPitch:
		w.u64(c.Width)
		w.u64(c.Height)
		w.u32(c.ElementSz)

	case protocol.CudaTagMemHostRegister:
		w.u64(c.ByteSize)
		w.u32(c.Flags)

	case protocol.CudaTagMemPrefetchAsync:
		encodeHandle(w, c.Dptr)
		w.u64(c.Count)
		encodeHandle(w, c.DstDevice)
		encodeHandle(w, c.Stream)

	case protocol.CudaTagMemAdvise:
		encodeHandle(w, c.Dptr)
		w.u64(c.Count)
		w.i32(c.Advice)
		encodeHandle(w, c.Device)

	case protocol.CudaTagMemRangeGetAttribute:
		encodeHandle(w, c.Dptr)
		w.u64(c.Count)
		w.i32(c.Attrib)

	case protocol.CudaTagLaunchKernel, protocol.CudaTagLaunchCooperativeKernel:
		encodeHandle(w, c.Func)
		for _, d := range c.GridDim {
			w.u32(d)
		}
		for _, d := range c.BlockDim {
			w.u32(d)
		}
		w.u32(c.SharedMem)
		encodeHandle(w, c.Stream)
		encodeKernelParams(w, c.Params)

	case protocol.CudaTagFuncGetAttribute:
		w.i32(c.Attrib)
		encodeHandle(w, c.Func)

	case protocol.CudaTagFuncSetAttribute:
		w.i32(c.Attrib)
		encodeHandle(w, c.Func)
		w.i32(c.Config)

	case protocol.CudaTagFuncSetCacheConfig:
		encodeHandle(w, c.Func)
		w.i32(c.Config)

	case protocol.CudaTagFuncSetSharedMemConfig:
		encodeHandle(w, c.Func)
		w.i32(c.Config)

	case protocol.CudaTagFuncGetModule, protocol.CudaTagFuncGetName:
		encodeHandle(w, c.Func)

	case protocol.CudaTagOccupancyMaxActiveBlocksPerMultiprocessor:
		encodeHandle(w, c.Func)
		w.i32(c.BlockSize)
		w.u64(c.DynamicSmemSize)

	case protocol.CudaTagOccupancyMaxActiveBlocksPerMultiprocessorWithFlags:
		encodeHandle(w, c.Func)
		w.i32(c.BlockSize)
		w.u64(c.DynamicSmemSize)
		w.u32(c.Flags)

	case protocol.CudaTagOccupancyAvailableDynamicSMemPerBlock:
		encodeHandle(w, c.Func)
		w.i32(c.NumBlocks)
		w.i32(c.BlockSize)

	case protocol.CudaTagStreamCreate:
		w.u32(c.Flags)

	case protocol.CudaTagStreamCreateWithPriority:
		w.u32(c.Flags)
		w.i32(c.Priority)

	case protocol.CudaTagStreamDestroy, protocol.CudaTagStreamSynchronize,
		protocol.CudaTagStreamQuery, protocol.CudaTagStreamGetPriority,
		protocol.CudaTagStreamGetFlags, protocol.CudaTagStreamGetCtx:
		encodeHandle(w, c.Stream)

	case protocol.CudaTagStreamWaitEvent:
		encodeHandle(w, c.Stream)
		encodeHandle(w, c.Event)
		w.u32(c.Flags)

	case protocol.CudaTagEventCreate:
		w.u32(c.Flags)

	case protocol.CudaTagEventDestroy, protocol.CudaTagEventSynchronize,
		protocol.CudaTagEventQuery:
		encodeHandle(w, c.Event)

	case protocol.CudaTagEventRecord:
		encodeHandle(w, c.Event)
		encodeHandle(w, c.Stream)

	case protocol.CudaTagEventRecordWithFlags:
		encodeHandle(w, c.Event)
		encodeHandle(w, c.Stream)
		w.u32(c.Flags)

	case protocol.CudaTagEventElapsedTime:
		encodeHandle(w, c.EventStart)
		encodeHandle(w, c.EventEnd)

	case protocol.CudaTagPointerGetAttribute:
		w.i32(c.Attrib)
		encodeHandle(w, c.Ptr)

	case protocol.CudaTagPointerGetAttributes:
		w.i32(c.NumAttributes)
		w.i32slice(c.Attributes)
		encodeHandle(w, c.Ptr)

	case protocol.CudaTagPointerSetAttribute:
		w.i32(c.Attrib)
		encodeHandle(w, c.Ptr)
		w.u64(c.Value)

	case protocol.CudaTagCtxEnablePeerAccess:
		encodeHandle(w, c.PeerCtx)
		w.u32(c.Flags)

	case protocol.CudaTagCtxDisablePeerAccess:
		encodeHandle(w, c.PeerCtx)

	case protocol.CudaTagMemPoolCreate:
		encodeHandle(w, c.Device)
		w.u32(c.PropsFlags)

	case protocol.CudaTagMemPoolDestroy:
		encodeHandle(w, c.Pool)

	case protocol.CudaTagMemPoolTrimTo:
		encodeHandle(w, c.Pool)
		w.u64(c.MinBytesToKeep)

	case protocol.CudaTagMemPoolSetAttribute:
		encodeHandle(w, c.Pool)
		w.i32(c.AttrID)
		w.u64(c.Value)

	case protocol.CudaTagMemPoolGetAttribute:
		encodeHandle(w, c.Pool)
		w.i32(c.AttrID)

	case protocol.CudaTagMemAllocAsync:
		w.u64(c.ByteSize)
		encodeHandle(w, c.Stream)

	case protocol.CudaTagMemFreeAsync:
		encodeHandle(w, c.Dptr)
		encodeHandle(w, c.Stream)

	case protocol.CudaTagMemAllocFromPoolAsync:
		w.u64(c.ByteSize)
		encodeHandle(w, c.Pool)
		encodeHandle(w, c.Stream)

	case protocol.CudaTagModuleLoad:
		w.str(c.Fname)

	case protocol.CudaTagModuleLoadDataEx:
		w.bytesField(c.Image)
		w.u32(c.NumOptions)
		w.i32slice(c.Options)
		w.u64slice(c.OptionValues)

	case protocol.CudaTagModuleLoadFatBinary:
		w.bytesField(c.FatCubin)

	case protocol.CudaTagLinkCreate:
		w.u32(c.NumOptions)
		w.i32slice(c.Options)
		w.u64slice(c.OptionValues)

	case protocol.CudaTagLinkAddData:
		encodeHandle(w, c.Link)
		w.i32(c.JitType)
		w.bytesField(c.Image)
		w.str(c.Name)
		w.u32(c.NumOptions)
		w.i32slice(c.Options)
		w.u64slice(c.OptionValues)

	case protocol.CudaTagLinkAddFile:
		encodeHandle(w, c.Link)
		w.i32(c.JitType)
		w.str(c.Path)
		w.u32(c.NumOptions)
		w.i32slice(c.Options)
		w.u64slice(c.OptionValues)

	case protocol.CudaTagLinkComplete, protocol.CudaTagLinkDestroy:
		encodeHandle(w, c.Link)

	default:
		// Unknown/extension tag: no payload; the decoder rejects the tag
		// with an "unknown cuda command tag" error rather than guessing
		// field shapes.
	}
}

func decodeCudaCommand(r *reader) (*protocol.CudaCommand, error) {
	tag16, err := r.u16()
	if err != nil {
		return nil, err
	}
	c := &protocol.CudaCommand{Tag: protocol.CudaCommandTag(tag16)}

	var e error
	switch c.Tag {
	case protocol.CudaTagInit:
		c.Flags, e = r.u32()
	case protocol.CudaTagDriverGetVersion, protocol.CudaTagDeviceGetCount,
		protocol.CudaTagCtxGetCurrent, protocol.CudaTagCtxSynchronize,
		protocol.CudaTagCtxPopCurrent, protocol.CudaTagCtxGetDevice,
		protocol.CudaTagCtxGetCacheConfig, protocol.CudaTagCtxGetStreamPriorityRange,
		protocol.CudaTagCtxGetFlags, protocol.CudaTagCtxResetPersistingL2Cache,
		protocol.CudaTagMemGetInfo:
		// no fields

	case protocol.CudaTagDeviceGet:
		c.Ordinal, e = r.i32()

	case protocol.CudaTagDeviceGetName, protocol.CudaTagDeviceTotalMem,
		protocol.CudaTagDeviceComputeCapability, protocol.CudaTagDeviceGetUuid,
		protocol.CudaTagDeviceGetPCIBusId, protocol.CudaTagDeviceGetDefaultMemPool,
		protocol.CudaTagDeviceGetMemPool, protocol.CudaTagDevicePrimaryCtxRetain,
		protocol.CudaTagDevicePrimaryCtxRelease, protocol.CudaTagDevicePrimaryCtxReset,
		protocol.CudaTagDevicePrimaryCtxGetState:
		c.Device, e = decodeHandle(r)

	case protocol.CudaTagDeviceGetAttribute:
		if c.Attrib, e = r.i32(); e == nil {
			c.Device, e = decodeHandle(r)
		}

	case protocol.CudaTagDeviceGetP2PAttribute:
		if c.Attrib, e = r.i32(); e == nil {
			if c.SrcDevice, e = decodeHandle(r); e == nil {
				c.DstDevice, e = decodeHandle(r)
			}
		}

	case protocol.CudaTagDeviceCanAccessPeer:
		if c.Device, e = decodeHandle(r); e == nil {
			c.PeerDevice, e = decodeHandle(r)
		}

	case protocol.CudaTagDeviceGetByPCIBusId:
		c.PCIBusID, e = r.str()

	case protocol.CudaTagDeviceSetMemPool:
		if c.Device, e = decodeHandle(r); e == nil {
			c.MemPool, e = decodeHandle(r)
		}

	case protocol.CudaTagDeviceGetTexture1DLinearMaxWidth:
		if c.Flags, e = r.u32(); e == nil {
			var n uint32
			if n, e = r.u32(); e == nil {
				c.NumOptions = n
				c.Device, e = decodeHandle(r)
			}
		}

	case protocol.CudaTagDeviceGetExecAffinitySupport:
		if c.AffinityType, e = r.i32(); e == nil {
			c.Device, e = decodeHandle(r)
		}

	case protocol.CudaTagDevicePrimaryCtxSetFlags:
		if c.Device, e = decodeHandle(r); e == nil {
			c.Flags, e = r.u32()
		}

	case protocol.CudaTagCtxCreate:
		if c.Flags, e = r.u32(); e == nil {
			c.Device, e = decodeHandle(r)
		}

	case protocol.CudaTagCtxDestroy, protocol.CudaTagCtxSetCurrent,
		protocol.CudaTagCtxPushCurrent, protocol.CudaTagCtxGetApiVersion:
		c.Ctx, e = decodeHandle(r)

	case protocol.CudaTagCtxSetCacheConfig, protocol.CudaTagCtxSetFlags:
		c.Config, e = r.i32()

	case protocol.CudaTagCtxSetLimit:
		if c.Limit, e = r.i32(); e == nil {
			c.Value, e = r.u64()
		}

	case protocol.CudaTagCtxGetLimit:
		c.Limit, e = r.i32()

	case protocol.CudaTagModuleLoadData:
		c.Image, e = r.bytesField()

	case protocol.CudaTagModuleUnload:
		c.Module, e = decodeHandle(r)

	case protocol.CudaTagModuleGetFunction, protocol.CudaTagModuleGetGlobal:
		if c.Module, e = decodeHandle(r); e == nil {
			c.Name, e = r.str()
		}

	case protocol.CudaTagMemAlloc:
		c.ByteSize, e = r.u64()

	case protocol.CudaTagMemAllocHost:
		c.ByteSize, e = r.u64()

	case protocol.CudaTagMemAllocManaged:
		if c.ByteSize, e = r.u64(); e == nil {
			c.Flags, e = r.u32()
		}

	case protocol.CudaTagMemFree, protocol.CudaTagMemGetAddressRange:
		c.Dptr, e = decodeHandle(r)

	case protocol.CudaTagMemcpyHtoD:
		if c.Dst, e = decodeHandle(r); e == nil {
			if c.SrcData, e = r.bytesField(); e == nil {
				c.ByteCount, e = r.u64()
			}
		}

	case protocol.CudaTagMemcpyDtoH:
		if c.Src, e = decodeHandle(r); e == nil {
			c.ByteCount, e = r.u64()
		}

	case protocol.CudaTagMemcpyDtoD:
		if c.Dst, e = decodeHandle(r); e == nil {
			if c.Src, e = decodeHandle(r); e == nil {
				c.ByteCount, e = r.u64()
			}
		}

	case protocol.CudaTagMemcpyHtoDAsync:
		if c.Dst, e = decodeHandle(r); e == nil {
			if c.SrcData, e = r.bytesField(); e == nil {
				if c.ByteCount, e = r.u64(); e == nil {
					c.Stream, e = decodeHandle(r)
				}
			}
		}

	case protocol.CudaTagMemcpyDtoHAsync:
		if c.Src, e = decodeHandle(r); e == nil {
			if c.ByteCount, e = r.u64(); e == nil {
				c.Stream, e = decodeHandle(r)
			}
		}

	case protocol.CudaTagMemcpyDtoDAsync:
		if c.Dst, e = decodeHandle(r); e == nil {
			if c.Src, e = decodeHandle(r); e == nil {
				if c.ByteCount, e = r.u64(); e == nil {
					c.Stream, e = decodeHandle(r)
				}
			}
		}

	case protocol.CudaTagMemsetD8:
		if c.Dst, e = decodeHandle(r); e == nil {
			if c.Value8, e = r.u8(); e == nil {
				c.Count, e = r.u64()
			}
		}

	case protocol.CudaTagMemsetD16:
		if c.Dst, e = decodeHandle(r); e == nil {
			if c.Value16, e = r.u16(); e == nil {
				c.Count, e = r.u64()
			}
		}

	case protocol.CudaTagMemsetD32:
		if c.Dst, e = decodeHandle(r); e == nil {
			if c.Value32, e = r.u32(); e == nil {
				c.Count, e = r.u64()
			}
		}

	case protocol.CudaTagMemsetD8Async:
		if c.Dst, e = decodeHandle(r); e == nil {
			if c.Value8, e = r.u8(); e == nil {
				if c.Count, e = r.u64(); e == nil {
					c.Stream, e = decodeHandle(r)
				}
			}
		}

	case protocol.CudaTagMemsetD16Async:
		if c.Dst, e = decodeHandle(r); e == nil {
			if c.Value16, e = r.u16(); e == nil {
				if c.Count, e = r.u64(); e == nil {
					c.Stream, e = decodeHandle(r)
				}
			}
		}

	case protocol.CudaTagMemsetD32Async:
		if c.Dst, e = decodeHandle(r); e == nil {
			if c.Value32, e = r.u32(); e == nil {
				if c.Count, e = r.u64(); e == nil {
					c.Stream, e = decodeHandle(r)
				}
			}
		}

	case protocol.CudaTagMemFreeHost, protocol.CudaTagMemHostGetFlags,
		protocol.CudaTagMemHostUnregister:
		c.HostPtr, e = decodeHandle(r)

	case protocol.CudaTagMemHostAlloc:
		if c.ByteSize, e = r.u64(); e == nil {
			c.Flags, e = r.u32()
		}

	case protocol.CudaTagMemHostGetDevicePointer:
		if c.HostPtr, e = decodeHandle(r); e == nil {
			c.Flags, e = r.u32()
		}

	case protocol.CudaTagMemAllocPitch:
		if c.Width, e = r.u64(); e == nil {
			if c.Height, e = r.u64(); e == nil {
				c.ElementSz, e = r.u32()
			}
		}

	case protocol.CudaTagMemHostRegister:
		if c.ByteSize, e = r.u64(); e == nil {
			c.Flags, e = r.u32()
		}

	case protocol.CudaTagMemPrefetchAsync:
		if c.Dptr, e = decodeHandle(r); e == nil {
			if c.Count, e = r.u64(); e == nil {
				if c.DstDevice, e = decodeHandle(r); e == nil {
					c.Stream, e = decodeHandle(r)
				}
			}
		}

	case protocol.CudaTagMemAdvise:
		if c.Dptr, e = decodeHandle(r); e == nil {
			if c.Count, e = r.u64(); e == nil {
				if c.Advice, e = r.i32(); e == nil {
					c.Device, e = decodeHandle(r)
				}
			}
		}

	case protocol.CudaTagMemRangeGetAttribute:
		if c.Dptr, e = decodeHandle(r); e == nil {
			if c.Count, e = r.u64(); e == nil {
				c.Attrib, e = r.i32()
			}
		}

	case protocol.CudaTagLaunchKernel, protocol.CudaTagLaunchCooperativeKernel:
		if c.Func, e = decodeHandle(r); e == nil {
			for i := range c.GridDim {
				if c.GridDim[i], e = r.u32(); e != nil {
					break
				}
			}
			if e == nil {
				for i := range c.BlockDim {
					if c.BlockDim[i], e = r.u32(); e != nil {
						break
					}
				}
			}
			if e == nil {
				if c.SharedMem, e = r.u32(); e == nil {
					if c.Stream, e = decodeHandle(r); e == nil {
						c.Params, e = decodeKernelParams(r)
					}
				}
			}
		}

	case protocol.CudaTagFuncGetAttribute:
		if c.Attrib, e = r.i32(); e == nil {
			c.Func, e = decodeHandle(r)
		}

	case protocol.CudaTagFuncSetAttribute:
		if c.Attrib, e = r.i32(); e == nil {
			if c.Func, e = decodeHandle(r); e == nil {
				c.Config, e = r.i32()
			}
		}

	case protocol.CudaTagFuncSetCacheConfig, protocol.CudaTagFuncSetSharedMemConfig:
		if c.Func, e = decodeHandle(r); e == nil {
			c.Config, e = r.i32()
		}

	case protocol.CudaTagFuncGetModule, protocol.CudaTagFuncGetName:
		c.Func, e = decodeHandle(r)

	case protocol.CudaTagOccupancyMaxActiveBlocksPerMultiprocessor:
		if c.Func, e = decodeHandle(r); e == nil {
			if c.BlockSize, e = r.i32(); e == nil {
				c.DynamicSmemSize, e = r.u64()
			}
		}

	case protocol.CudaTagOccupancyMaxActiveBlocksPerMultiprocessorWithFlags:
		if c.Func, e = decodeHandle(r); e == nil {
			if c.BlockSize, e = r.i32(); e == nil {
				if c.DynamicSmemSize, e = r.u64(); e == nil {
					c.Flags, e = r.u32()
				}
			}
		}

	case protocol.CudaTagOccupancyAvailableDynamicSMemPerBlock:
		if c.Func, e = decodeHandle(r); e == nil {
			if c.NumBlocks, e = r.i32(); e == nil {
				c.BlockSize, e = r.i32()
			}
		}

	case protocol.CudaTagStreamCreate:
		c.Flags, e = r.u32()

	case protocol.CudaTagStreamCreateWithPriority:
		if c.Flags, e = r.u32(); e == nil {
			c.Priority, e = r.i32()
		}

	case protocol.CudaTagStreamDestroy, protocol.CudaTagStreamSynchronize,
		protocol.CudaTagStreamQuery, protocol.CudaTagStreamGetPriority,
		protocol.CudaTagStreamGetFlags, protocol.CudaTagStreamGetCtx:
		c.Stream, e = decodeHandle(r)

	case protocol.CudaTagStreamWaitEvent:
		if c.Stream, e = decodeHandle(r); e == nil {
			if c.Event, e = decodeHandle(r); e == nil {
				c.Flags, e = r.u32()
			}
		}

	case protocol.CudaTagEventCreate:
		c.Flags, e = r.u32()

	case protocol.CudaTagEventDestroy, protocol.CudaTagEventSynchronize,
		protocol.CudaTagEventQuery:
		c.Event, e = decodeHandle(r)

	case protocol.CudaTagEventRecord:
		if c.Event, e = decodeHandle(r); e == nil {
			c.Stream, e = decodeHandle(r)
		}

	case protocol.CudaTagEventRecordWithFlags:
		if c.Event, e = decodeHandle(r); e == nil {
			if c.Stream, e = decodeHandle(r); e == nil {
				c.Flags, e = r.u32()
			}
		}

	case protocol.CudaTagEventElapsedTime:
		if c.EventStart, e = decodeHandle(r); e == nil {
			c.EventEnd, e = decodeHandle(r)
		}

	case protocol.CudaTagPointerGetAttribute:
		if c.Attrib, e = r.i32(); e == nil {
			c.Ptr, e = decodeHandle(r)
		}

	case protocol.CudaTagPointerGetAttributes:
		if c.NumAttributes, e = r.i32(); e == nil {
			if c.Attributes, e = r.i32slice(); e == nil {
				c.Ptr, e = decodeHandle(r)
			}
		}

	case protocol.CudaTagPointerSetAttribute:
		if c.Attrib, e = r.i32(); e == nil {
			if c.Ptr, e = decodeHandle(r); e == nil {
				c.Value, e = r.u64()
			}
		}

	case protocol.CudaTagCtxEnablePeerAccess:
		if c.PeerCtx, e = decodeHandle(r); e == nil {
			c.Flags, e = r.u32()
		}

	case protocol.CudaTagCtxDisablePeerAccess:
		c.PeerCtx, e = decodeHandle(r)

	case protocol.CudaTagMemPoolCreate:
		if c.Device, e = decodeHandle(r); e == nil {
			c.PropsFlags, e = r.u32()
		}

	case protocol.CudaTagMemPoolDestroy:
		c.Pool, e = decodeHandle(r)

	case protocol.CudaTagMemPoolTrimTo:
		if c.Pool, e = decodeHandle(r); e == nil {
			c.MinBytesToKeep, e = r.u64()
		}

	case protocol.CudaTagMemPoolSetAttribute:
		if c.Pool, e = decodeHandle(r); e == nil {
			if c.AttrID, e = r.i32(); e == nil {
				c.Value, e = r.u64()
			}
		}

	case protocol.CudaTagMemPoolGetAttribute:
		if c.Pool, e = decodeHandle(r); e == nil {
			c.AttrID, e = r.i32()
		}

	case protocol.CudaTagMemAllocAsync:
		if c.ByteSize, e = r.u64(); e == nil {
			c.Stream, e = decodeHandle(r)
		}

	case protocol.CudaTagMemFreeAsync:
		if c.Dptr, e = decodeHandle(r); e == nil {
			c.Stream, e = decodeHandle(r)
		}

	case protocol.CudaTagMemAllocFromPoolAsync:
		if c.ByteSize, e = r.u64(); e == nil {
			if c.Pool, e = decodeHandle(r); e == nil {
				c.Stream, e = decodeHandle(r)
			}
		}

	case protocol.CudaTagModuleLoad:
		c.Fname, e = r.str()

	case protocol.CudaTagModuleLoadDataEx:
		if c.Image, e = r.bytesField(); e == nil {
			if c.NumOptions, e = r.u32(); e == nil {
				if c.Options, e = r.i32slice(); e == nil {
					c.OptionValues, e = r.u64slice()
				}
			}
		}

	case protocol.CudaTagModuleLoadFatBinary:
		c.FatCubin, e = r.bytesField()

	case protocol.CudaTagLinkCreate:
		if c.NumOptions, e = r.u32(); e == nil {
			if c.Options, e = r.i32slice(); e == nil {
				c.OptionValues, e = r.u64slice()
			}
		}

	case protocol.CudaTagLinkAddData:
		if c.Link, e = decodeHandle(r); e == nil {
			if c.JitType, e = r.i32(); e == nil {
				if c.Image, e = r.bytesField(); e == nil {
					if c.Name, e = r.str(); e == nil {
						if c.NumOptions, e = r.u32(); e == nil {
							if c.Options, e = r.i32slice(); e == nil {
								c.OptionValues, e = r.u64slice()
							}
						}
					}
				}
			}
		}

	case protocol.CudaTagLinkAddFile:
		if c.Link, e = decodeHandle(r); e == nil {
			if c.JitType, e = r.i32(); e == nil {
				if c.Path, e = r.str(); e == nil {
					if c.NumOptions, e = r.u32(); e == nil {
						if c.Options, e = r.i32slice(); e == nil {
							c.OptionValues, e = r.u64slice()
						}
					}
				}
			}
		}

	case protocol.CudaTagLinkComplete, protocol.CudaTagLinkDestroy:
		c.Link, e = decodeHandle(r)

	default:
		e = fmt.Errorf("wire: unknown cuda command tag %d", tag16)
	}

	if e != nil {
		return nil, e
	}
	return c, nil
}

// encodeCudaResponse and decodeCudaResponse mirror the command codec for
// the (much smaller) response shapes.
func encodeCudaResponse(w *writer, resp *protocol.CudaResponse) {
	w.u16(uint16(resp.Tag))
	switch resp.Tag {
	case protocol.CudaRespSuccess:
	case protocol.CudaRespError:
		w.i32(resp.Code)
		w.str(resp.Message)
	case protocol.CudaRespDriverVersion, protocol.CudaRespDeviceCount,
		protocol.CudaRespDeviceAttribute, protocol.CudaRespP2PAttribute,
		protocol.CudaRespCacheConfig, protocol.CudaRespFuncAttribute,
		protocol.CudaRespOccupancyBlocks:
		w.i32(resp.Int32)
	case protocol.CudaRespDevice, protocol.CudaRespMemPool,
		protocol.CudaRespContext, protocol.CudaRespContextDevice,
		protocol.CudaRespModule, protocol.CudaRespFunction,
		protocol.CudaRespMemAllocated, protocol.CudaRespHostPtr,
		protocol.CudaRespHostDevicePtr, protocol.CudaRespStream,
		protocol.CudaRespEvent, protocol.CudaRespFuncModule,
		protocol.CudaRespLinker:
		encodeHandle(w, resp.Handle)
	case protocol.CudaRespDeviceName, protocol.CudaRespDevicePCIBusId,
		protocol.CudaRespFuncName:
		w.str(resp.Str)
	case protocol.CudaRespDeviceTotalMem, protocol.CudaRespContextLimit,
		protocol.CudaRespHostFlags, protocol.CudaRespMemPoolAttribute,
		protocol.CudaRespOccupancyDynamicSmem, protocol.CudaRespTexture1DMaxWidth,
		protocol.CudaRespPointerAttribute:
		w.u64(resp.UInt64)
	case protocol.CudaRespComputeCapability:
		w.i32(resp.Major)
		w.i32(resp.Minor)
	case protocol.CudaRespDeviceUuid, protocol.CudaRespMemoryData,
		protocol.CudaRespMemRangeAttribute:
		w.bytesField(resp.Bytes)
	case protocol.CudaRespBoolResult, protocol.CudaRespStreamStatus,
		protocol.CudaRespEventStatus:
		w.bl(resp.Bool)
	case protocol.CudaRespPrimaryCtxState:
		w.u32(resp.UInt32)
		w.bl(resp.Active)
	case protocol.CudaRespContextApiVersion, protocol.CudaRespContextFlags,
		protocol.CudaRespStreamFlags:
		w.u32(resp.UInt32)
	case protocol.CudaRespStreamPriorityRange:
		w.i32(resp.Least)
		w.i32(resp.Greatest)
	case protocol.CudaRespGlobalPtr:
		encodeHandle(w, resp.Handle)
		w.u64(resp.GlobalSize)
	case protocol.CudaRespMemAllocPitch:
		encodeHandle(w, resp.PitchDptr)
		w.u64(resp.Pitch)
	case protocol.CudaRespMemInfo:
		w.u64(resp.PoolFree)
		w.u64(resp.PoolTotal)
	case protocol.CudaRespMemAddressRange:
		encodeHandle(w, resp.Handle)
		w.u64(resp.GlobalSize)
	case protocol.CudaRespStreamPriority:
		w.i32(resp.Int32)
	case protocol.CudaRespStreamCtx, protocol.CudaRespPointerAttributes:
		if resp.Tag == protocol.CudaRespStreamCtx {
			encodeHandle(w, resp.Handle)
		} else {
			w.u64slice(resp.Attrs)
		}
	case protocol.CudaRespElapsedTime:
		w.f32(resp.Float)
	case protocol.CudaRespLinkCompleted:
		w.bytesField(resp.Bytes)
	}
}

func decodeCudaResponse(r *reader) (*protocol.CudaResponse, error) {
	tag16, err := r.u16()
	if err != nil {
		return nil, err
	}
	resp := &protocol.CudaResponse{Tag: protocol.CudaResponseTag(tag16)}
	var e error
	switch resp.Tag {
	case protocol.CudaRespSuccess:
	case protocol.CudaRespError:
		if resp.Code, e = r.i32(); e == nil {
			resp.Message, e = r.str()
		}
	case protocol.CudaRespDriverVersion, protocol.CudaRespDeviceCount,
		protocol.CudaRespDeviceAttribute, protocol.CudaRespP2PAttribute,
		protocol.CudaRespCacheConfig, protocol.CudaRespFuncAttribute,
		protocol.CudaRespOccupancyBlocks, protocol.CudaRespStreamPriority:
		resp.Int32, e = r.i32()
	case protocol.CudaRespDevice, protocol.CudaRespMemPool,
		protocol.CudaRespContext, protocol.CudaRespContextDevice,
		protocol.CudaRespModule, protocol.CudaRespFunction,
		protocol.CudaRespMemAllocated, protocol.CudaRespHostPtr,
		protocol.CudaRespHostDevicePtr, protocol.CudaRespStream,
		protocol.CudaRespEvent, protocol.CudaRespFuncModule,
		protocol.CudaRespLinker:
		resp.Handle, e = decodeHandle(r)
	case protocol.CudaRespDeviceName, protocol.CudaRespDevicePCIBusId,
		protocol.CudaRespFuncName:
		resp.Str, e = r.str()
	case protocol.CudaRespDeviceTotalMem, protocol.CudaRespContextLimit,
		protocol.CudaRespHostFlags, protocol.CudaRespMemPoolAttribute,
		protocol.CudaRespOccupancyDynamicSmem, protocol.CudaRespTexture1DMaxWidth,
		protocol.CudaRespPointerAttribute:
		resp.UInt64, e = r.u64()
	case protocol.CudaRespComputeCapability:
		if resp.Major, e = r.i32(); e == nil {
			resp.Minor, e = r.i32()
		}
	case protocol.CudaRespDeviceUuid, protocol.CudaRespMemoryData,
		protocol.CudaRespMemRangeAttribute:
		resp.Bytes, e = r.bytesField()
	case protocol.CudaRespBoolResult, protocol.CudaRespStreamStatus,
		protocol.CudaRespEventStatus:
		resp.Bool, e = r.bl()
	case protocol.CudaRespPrimaryCtxState:
		if resp.UInt32, e = r.u32(); e == nil {
			resp.Active, e = r.bl()
		}
	case protocol.CudaRespContextApiVersion, protocol.CudaRespContextFlags,
		protocol.CudaRespStreamFlags:
		resp.UInt32, e = r.u32()
	case protocol.CudaRespStreamPriorityRange:
		if resp.Least, e = r.i32(); e == nil {
			resp.Greatest, e = r.i32()
		}
	case protocol.CudaRespGlobalPtr:
		if resp.Handle, e = decodeHandle(r); e == nil {
			resp.GlobalSize, e = r.u64()
		}
	case protocol.CudaRespMemAllocPitch:
		if resp.PitchDptr, e = decodeHandle(r); e == nil {
			resp.Pitch, e = r.u64()
		}
	case protocol.CudaRespMemInfo:
		if resp.PoolFree, e = r.u64(); e == nil {
			resp.PoolTotal, e = r.u64()
		}
	case protocol.CudaRespMemAddressRange:
		if resp.Handle, e = decodeHandle(r); e == nil {
			resp.GlobalSize, e = r.u64()
		}
	case protocol.CudaRespStreamCtx:
		resp.Handle, e = decodeHandle(r)
	case protocol.CudaRespPointerAttributes:
		resp.Attrs, e = r.u64slice()
	case protocol.CudaRespElapsedTime:
		resp.Float, e = r.f32()
	case protocol.CudaRespLinkCompleted:
		resp.Bytes, e = r.bytesField()
	default:
		e = fmt.Errorf("wire: unknown cuda response tag %d", tag16)
	}
	if e != nil {
		return nil, e
	}
	return resp, nil
}
