// Package cudainterpose holds the CUDA Driver API replacement logic that
// backs cmd/rgpu-cuda-interpose's cgo shim: local opaque id management,
// IPC-backed command dispatch with void-command pipelining, and the
// client-side CUDA_ERROR_* tables. None of it touches cgo or process
// memory directly so it can be exercised by ordinary Go tests; the cmd
// binary's job is only to marshal C arguments into these calls and write
// results back through the pointers the application passed in.
//
// Grounded on rgpu-cuda-interpose's ipc_client.rs (connection reuse and
// pipelining) and its call-site modules (per-API argument handling),
// generalized here into one Client instead of one free function per
// CUDA entry point.
package cudainterpose

import (
	"github.com/rgpu/rgpu/pkg/daemon/batcher"
	"github.com/rgpu/rgpu/pkg/daemon/ipcconn"
	"github.com/rgpu/rgpu/pkg/protocol"
)

// Client is the interpose library's single connection to the client
// daemon plus the local handle store every CUDA entry point resolves its
// arguments through. One Client is created per process, the cmd binary
// holding it behind a package-level sync.Once so every exported cu*
// symbol shares the same connection and handle namespace.
type Client struct {
	handles *HandleStore
	batch   *batcher.Batcher
}

// NewClient dials no connection yet (the underlying ipcconn.Client
// connects lazily); it only wires the pipelining batcher over the
// daemon's IPC socket at path.
func NewClient(socketPath string) *Client {
	conn := ipcconn.New(socketPath)
	return &Client{
		handles: NewHandleStore(),
		batch:   batcher.New(transportAdapter{conn}, batcher.DefaultCapacity),
	}
}

// transportAdapter satisfies batcher.Transport over an ipcconn.Client.
type transportAdapter struct{ conn *ipcconn.Client }

func (t transportAdapter) Send(msg protocol.Message) (protocol.Message, error) {
	msg.RequestID = t.conn.NextRequestID()
	resp, err := t.conn.Send(&msg)
	if err != nil {
		return protocol.Message{}, err
	}
	return *resp, nil
}

// send is the one path every CUDA entry point below funnels through; it
// hands cmd to the pipelining batcher, which buffers void commands and
// flushes them as a CudaBatch ahead of any synchronous call.
func (c *Client) send(cmd protocol.CudaCommand) (*protocol.CudaResponse, error) {
	return c.batch.Send(cmd)
}

// mapError turns a transport/protocol failure into a CUDA result code,
// since every interpose entry point must return a CUresult rather than
// propagate a Go error across the cgo boundary.
func mapError(err error) int32 {
	perr, ok := err.(*protocol.ProtocolError)
	if !ok {
		return ErrorUnknown
	}
	switch perr.Kind {
	case protocol.ErrAuthenticationFailed:
		return ErrorNotPermitted
	case protocol.ErrInvalidHandle:
		return ErrorInvalidHandle
	case protocol.ErrGpu:
		if perr.GpuCode != 0 {
			return perr.GpuCode
		}
		return ErrorUnknown
	case protocol.ErrUnsupportedCommand, protocol.ErrNotImplemented:
		return ErrorNotSupported
	case protocol.ErrTimeout:
		return ErrorLaunchTimeout
	case protocol.ErrConnectionFailed, protocol.ErrDisconnected:
		return ErrorNotInitialized
	case protocol.ErrOutOfMemory:
		return ErrorOutOfMemory
	default:
		return ErrorUnknown
	}
}

// Init mirrors cuInit: a no-op handshake with the daemon, since the real
// device enumeration happens lazily as the application queries devices.
func (c *Client) Init(flags uint32) int32 {
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagInit, Flags: flags})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// DriverGetVersion mirrors cuDriverGetVersion.
func (c *Client) DriverGetVersion() (int32, int32) {
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagDriverGetVersion})
	if err != nil {
		return 0, mapError(err)
	}
	return resp.Int32, Success
}

// DeviceGetCount mirrors cuDeviceGetCount.
func (c *Client) DeviceGetCount() (int32, int32) {
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagDeviceGetCount})
	if err != nil {
		return 0, mapError(err)
	}
	return resp.Int32, Success
}

// DeviceGet mirrors cuDeviceGet: the "device handle" CUDA hands the
// application is just the ordinal on the real driver, but here it must
// round-trip to the daemon once so later calls (context creation, memory
// queries) can be routed to the right server-side device.
func (c *Client) DeviceGet(ordinal int32) (uint64, int32) {
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagDeviceGet, Ordinal: ordinal})
	if err != nil {
		return 0, mapError(err)
	}
	return c.handles.StoreDevice(resp.Handle), Success
}

// DeviceGetName mirrors cuDeviceGetName.
func (c *Client) DeviceGetName(device uint64) (string, int32) {
	h, ok := c.handles.GetDevice(device)
	if !ok {
		return "", ErrorInvalidDevice
	}
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagDeviceGetName, Device: h})
	if err != nil {
		return "", mapError(err)
	}
	return resp.Str, Success
}

// DeviceTotalMem mirrors cuDeviceTotalMem.
func (c *Client) DeviceTotalMem(device uint64) (uint64, int32) {
	h, ok := c.handles.GetDevice(device)
	if !ok {
		return 0, ErrorInvalidDevice
	}
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagDeviceTotalMem, Device: h})
	if err != nil {
		return 0, mapError(err)
	}
	return resp.UInt64, Success
}

// CtxCreate mirrors cuCtxCreate.
func (c *Client) CtxCreate(flags uint32, device uint64) (uint64, int32) {
	h, ok := c.handles.GetDevice(device)
	if !ok {
		return 0, ErrorInvalidDevice
	}
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagCtxCreate, Flags: flags, Device: h})
	if err != nil {
		return 0, mapError(err)
	}
	return c.handles.StoreCtx(resp.Handle), Success
}

// CtxDestroy mirrors cuCtxDestroy.
func (c *Client) CtxDestroy(ctx uint64) int32 {
	h, ok := c.handles.GetCtx(ctx)
	if !ok {
		return ErrorInvalidContext
	}
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagCtxDestroy, Ctx: h})
	c.handles.RemoveCtx(ctx)
	if err != nil {
		return mapError(err)
	}
	return Success
}

// CtxSetCurrent mirrors cuCtxSetCurrent. It is void: the daemon never
// needs to answer before the call returns, so it only ever enters the
// pipeline buffer.
func (c *Client) CtxSetCurrent(ctx uint64) int32 {
	h, _ := c.handles.GetCtx(ctx) // ctx may be the null/no-context sentinel
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagCtxSetCurrent, Ctx: h})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// CtxSynchronize mirrors cuCtxSynchronize: a non-void sync point that
// forces the pipeline to flush before returning.
func (c *Client) CtxSynchronize() int32 {
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagCtxSynchronize})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// MemAlloc mirrors cuMemAlloc. The returned id stands in for a
// CUdeviceptr, which CUDA treats as an opaque integer address rather
// than a dispatchable handle, so no dispatch cell is needed here.
func (c *Client) MemAlloc(byteSize uint64) (uint64, int32) {
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagMemAlloc, ByteSize: byteSize})
	if err != nil {
		return 0, mapError(err)
	}
	return c.handles.StoreMem(resp.Handle), Success
}

// MemFree mirrors cuMemFree. It is void.
func (c *Client) MemFree(dptr uint64) int32 {
	h, ok := c.handles.GetMem(dptr)
	if !ok {
		return ErrorInvalidValue
	}
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagMemFree, Dptr: h})
	c.handles.RemoveMem(dptr)
	if err != nil {
		return mapError(err)
	}
	return Success
}

// MemcpyHtoD mirrors cuMemcpyHtoD (synchronous): it is not in the void
// set, so it always flushes the pipeline and round-trips immediately.
func (c *Client) MemcpyHtoD(dst uint64, src []byte) int32 {
	h, ok := c.handles.GetMem(dst)
	if !ok {
		return ErrorInvalidValue
	}
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagMemcpyHtoD, Dst: h, SrcData: src, ByteCount: uint64(len(src))})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// MemcpyHtoDAsync mirrors cuMemcpyHtoDAsync, a void command: the caller
// gets an optimistic success and any real failure surfaces at the next
// sync point (stream/context/device synchronize).
func (c *Client) MemcpyHtoDAsync(dst uint64, src []byte, stream uint64) int32 {
	h, ok := c.handles.GetMem(dst)
	if !ok {
		return ErrorInvalidValue
	}
	streamHandle, _ := c.handles.GetStream(stream)
	_, err := c.send(protocol.CudaCommand{
		Tag: protocol.CudaTagMemcpyHtoDAsync, Dst: h, SrcData: src,
		ByteCount: uint64(len(src)), Stream: streamHandle,
	})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// MemcpyDtoH mirrors cuMemcpyDtoH. Synchronous: byteCount bytes are
// copied into dst, which the caller owns.
func (c *Client) MemcpyDtoH(dst []byte, src uint64) int32 {
	h, ok := c.handles.GetMem(src)
	if !ok {
		return ErrorInvalidValue
	}
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagMemcpyDtoH, Src: h, ByteCount: uint64(len(dst))})
	if err != nil {
		return mapError(err)
	}
	copy(dst, resp.Bytes)
	return Success
}

// MemsetD8 mirrors cuMemsetD8, which is synchronous: it always flushes
// the pipeline and round-trips before returning.
func (c *Client) MemsetD8(dptr uint64, value uint8, count uint64) int32 {
	h, ok := c.handles.GetMem(dptr)
	if !ok {
		return ErrorInvalidValue
	}
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagMemsetD8, Dptr: h, Value8: value, Count: count})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// MemsetD8Async mirrors cuMemsetD8Async, a void command: the same fill
// submitted against a stream returns immediately and is only guaranteed
// complete at the next sync point.
func (c *Client) MemsetD8Async(dptr uint64, value uint8, count uint64, stream uint64) int32 {
	h, ok := c.handles.GetMem(dptr)
	if !ok {
		return ErrorInvalidValue
	}
	streamHandle, _ := c.handles.GetStream(stream)
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagMemsetD8Async, Dptr: h, Value8: value, Count: count, Stream: streamHandle})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// StreamCreate mirrors cuStreamCreate.
func (c *Client) StreamCreate(flags uint32) (uint64, int32) {
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagStreamCreate, Flags: flags})
	if err != nil {
		return 0, mapError(err)
	}
	return c.handles.StoreStream(resp.Handle), Success
}

// StreamDestroy mirrors cuStreamDestroy; it is not void, so it waits for
// the server's reply.
func (c *Client) StreamDestroy(stream uint64) int32 {
	h, ok := c.handles.GetStream(stream)
	if !ok {
		return ErrorInvalidHandle
	}
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagStreamDestroy, Stream: h})
	c.handles.RemoveStream(stream)
	if err != nil {
		return mapError(err)
	}
	return Success
}

// StreamSynchronize mirrors cuStreamSynchronize: a forced flush point.
func (c *Client) StreamSynchronize(stream uint64) int32 {
	h, _ := c.handles.GetStream(stream)
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagStreamSynchronize, Stream: h})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// EventCreate mirrors cuEventCreate.
func (c *Client) EventCreate(flags uint32) (uint64, int32) {
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagEventCreate, Flags: flags})
	if err != nil {
		return 0, mapError(err)
	}
	return c.handles.StoreEvent(resp.Handle), Success
}

// EventDestroy mirrors cuEventDestroy.
func (c *Client) EventDestroy(event uint64) int32 {
	h, ok := c.handles.GetEvent(event)
	if !ok {
		return ErrorInvalidHandle
	}
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagEventDestroy, Event: h})
	c.handles.RemoveEvent(event)
	if err != nil {
		return mapError(err)
	}
	return Success
}

// EventRecord mirrors cuEventRecord, void.
func (c *Client) EventRecord(event, stream uint64) int32 {
	h, ok := c.handles.GetEvent(event)
	if !ok {
		return ErrorInvalidHandle
	}
	streamHandle, _ := c.handles.GetStream(stream)
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagEventRecord, Event: h, Stream: streamHandle})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// EventSynchronize mirrors cuEventSynchronize: a forced flush point.
func (c *Client) EventSynchronize(event uint64) int32 {
	h, ok := c.handles.GetEvent(event)
	if !ok {
		return ErrorInvalidHandle
	}
	_, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagEventSynchronize, Event: h})
	if err != nil {
		return mapError(err)
	}
	return Success
}

// ModuleLoadData mirrors cuModuleLoadData.
func (c *Client) ModuleLoadData(image []byte) (uint64, int32) {
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagModuleLoadData, Image: image})
	if err != nil {
		return 0, mapError(err)
	}
	return c.handles.StoreModule(resp.Handle), Success
}

// ModuleGetFunction mirrors cuModuleGetFunction.
func (c *Client) ModuleGetFunction(module uint64, name string) (uint64, int32) {
	h, ok := c.handles.GetModule(module)
	if !ok {
		return 0, ErrorInvalidHandle
	}
	resp, err := c.send(protocol.CudaCommand{Tag: protocol.CudaTagModuleGetFunction, Module: h, Name: name})
	if err != nil {
		return 0, mapError(err)
	}
	return c.handles.StoreFunction(resp.Handle), Success
}

// LaunchKernel mirrors cuLaunchKernel, void per IsVoid: a launch is
// fire-and-forget from the application's perspective until the next
// stream/context sync.
func (c *Client) LaunchKernel(fn uint64, gridDim, blockDim [3]uint32, sharedMem uint32, stream uint64, params []protocol.KernelParam) int32 {
	h, ok := c.handles.GetFunction(fn)
	if !ok {
		return ErrorInvalidHandle
	}
	streamHandle, _ := c.handles.GetStream(stream)
	_, err := c.send(protocol.CudaCommand{
		Tag: protocol.CudaTagLaunchKernel, Func: h, GridDim: gridDim, BlockDim: blockDim,
		SharedMem: sharedMem, Stream: streamHandle, Params: params,
	})
	if err != nil {
		return mapError(err)
	}
	return Success
}
