package batcher

import (
	"testing"

	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	sent []protocol.Message
	resp protocol.Message
}

func (f *fakeTransport) Send(msg protocol.Message) (protocol.Message, error) {
	f.sent = append(f.sent, msg)
	return f.resp, nil
}

func TestBatcherBuffersVoidCommands(t *testing.T) {
	tr := &fakeTransport{resp: protocol.Message{Tag: protocol.MsgTagCudaResponse, CudaResp: &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}}}
	b := New(tr, 4)

	for i := 0; i < 3; i++ {
		resp, err := b.Send(protocol.CudaCommand{Tag: protocol.CudaTagMemFree})
		require.NoError(t, err)
		assert.Equal(t, protocol.CudaRespSuccess, resp.Tag)
	}
	assert.Equal(t, 3, b.Pending())
	assert.Empty(t, tr.sent)
}

func TestBatcherAutoFlushesAtCapacity(t *testing.T) {
	tr := &fakeTransport{resp: protocol.Message{Tag: protocol.MsgTagCudaResponse, CudaResp: &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}}}
	b := New(tr, 2)

	_, err := b.Send(protocol.CudaCommand{Tag: protocol.CudaTagMemFree})
	require.NoError(t, err)
	_, err = b.Send(protocol.CudaCommand{Tag: protocol.CudaTagMemFree})
	require.NoError(t, err)

	require.Len(t, tr.sent, 1)
	assert.Equal(t, protocol.MsgTagCudaBatch, tr.sent[0].Tag)
	assert.Len(t, tr.sent[0].Batch, 2)
	assert.Equal(t, 0, b.Pending())
}

func TestBatcherFlushesBeforeSyncPointCommand(t *testing.T) {
	tr := &fakeTransport{resp: protocol.Message{Tag: protocol.MsgTagCudaResponse, CudaResp: &protocol.CudaResponse{Tag: protocol.CudaRespMemAllocated}}}
	b := New(tr, 32)

	_, err := b.Send(protocol.CudaCommand{Tag: protocol.CudaTagMemFree})
	require.NoError(t, err)

	resp, err := b.Send(protocol.CudaCommand{Tag: protocol.CudaTagMemAlloc, ByteSize: 64})
	require.NoError(t, err)
	assert.Equal(t, protocol.CudaRespMemAllocated, resp.Tag)

	require.Len(t, tr.sent, 2)
	assert.Equal(t, protocol.MsgTagCudaBatch, tr.sent[0].Tag)
	assert.Equal(t, protocol.MsgTagCudaCommand, tr.sent[1].Tag)
}

func TestBatcherSurfacesBatchError(t *testing.T) {
	tr := &fakeTransport{resp: protocol.Message{Tag: protocol.MsgTagCudaResponse, CudaResp: &protocol.CudaResponse{Tag: protocol.CudaRespError, Code: 700, Message: "illegal address"}}}
	b := New(tr, 32)

	_, err := b.Send(protocol.CudaCommand{Tag: protocol.CudaTagMemFree})
	require.NoError(t, err)

	err = b.Flush()
	assert.Error(t, err)
}
