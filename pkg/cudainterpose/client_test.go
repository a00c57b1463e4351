package cudainterpose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgpu/rgpu/pkg/daemon/batcher"
	"github.com/rgpu/rgpu/pkg/protocol"
)

// fakeTransport records every message it is asked to send and answers
// with a canned response, standing in for the daemon's IPC socket so the
// pipelining behavior can be tested without net.Pipe or a real listener.
type fakeTransport struct {
	sent []protocol.Message
	resp protocol.Message
}

func (f *fakeTransport) Send(msg protocol.Message) (protocol.Message, error) {
	f.sent = append(f.sent, msg)
	return f.resp, nil
}

func newTestClient(t *testing.T) (*Client, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{resp: protocol.Message{Tag: protocol.MsgTagCudaResponse, CudaResp: &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}}}
	c := &Client{handles: NewHandleStore(), batch: batcher.New(ft, batcher.DefaultCapacity)}
	return c, ft
}

func TestVoidCommandsAreBufferedNotSentImmediately(t *testing.T) {
	c, ft := newTestClient(t)

	// MemAlloc is synchronous and not void, so it round-trips immediately.
	mem, code := c.MemAlloc(1024)
	require.Equal(t, int32(Success), code)
	require.Len(t, ft.sent, 1)
	ft.sent = nil

	// MemFree is void: it must not hit the transport yet.
	code = c.MemFree(mem)
	require.Equal(t, int32(Success), code)
	assert.Empty(t, ft.sent, "void command should stay pipelined until a sync point")
}

func TestNonVoidCommandForcesPipelineFlushFirst(t *testing.T) {
	c, ft := newTestClient(t)

	stream, code := c.StreamCreate(0)
	require.Equal(t, int32(Success), code)

	dst, code := c.MemAlloc(64)
	require.Equal(t, int32(Success), code)
	ft.sent = nil // clear the setup calls' immediate sends

	code = c.MemsetD8Async(dst, 0, 64, stream) // void, buffered
	require.Equal(t, int32(Success), code)
	assert.Empty(t, ft.sent)

	// StreamSynchronize is a sync point: it must flush the buffered
	// MemsetD8Async as one CudaBatch before issuing its own request.
	code = c.StreamSynchronize(stream)
	require.Equal(t, int32(Success), code)
	require.Len(t, ft.sent, 2)
	assert.Equal(t, protocol.MsgTagCudaBatch, ft.sent[0].Tag)
	require.Len(t, ft.sent[0].Batch, 1)
	assert.Equal(t, protocol.CudaTagMemsetD8Async, ft.sent[0].Batch[0].Tag)
	assert.Equal(t, protocol.MsgTagCudaCommand, ft.sent[1].Tag)
	assert.Equal(t, protocol.CudaTagStreamSynchronize, ft.sent[1].CudaCmd.Tag)
}

func TestPipelineAutoFlushesAtCapacity(t *testing.T) {
	c, ft := newTestClient(t)

	mem, _ := c.MemAlloc(8)
	ft.sent = nil // clear MemAlloc's own immediate send

	for i := 0; i < batcher.DefaultCapacity; i++ {
		code := c.MemsetD8Async(mem, 0, 8, 0)
		require.Equal(t, int32(Success), code)
	}

	require.Len(t, ft.sent, 1)
	assert.Equal(t, protocol.MsgTagCudaBatch, ft.sent[0].Tag)
	assert.Len(t, ft.sent[0].Batch, batcher.DefaultCapacity)
}

func TestMapErrorTranslatesProtocolErrorKinds(t *testing.T) {
	assert.Equal(t, int32(ErrorOutOfMemory), mapError(protocol.NewOutOfMemory(4096)))
	assert.Equal(t, int32(ErrorInvalidHandle), mapError(protocol.NewInvalidHandle("bad mem")))
	assert.Equal(t, int32(ErrorNotPermitted), mapError(protocol.NewAuthFailed("denied")))
	assert.Equal(t, int32(42), mapError(protocol.NewGpuError(42, "device fault")))
}
