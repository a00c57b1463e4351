package ipc

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/rgpu/rgpu/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerEchoesCudaResponse(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "rgpu-daemon.sock")

	l := New(sockPath, func(msg *protocol.Message) *protocol.Message {
		require.Equal(t, protocol.MsgTagCudaCommand, msg.Tag)
		return &protocol.Message{
			Tag:       protocol.MsgTagCudaResponse,
			RequestID: msg.RequestID,
			CudaResp:  &protocol.CudaResponse{Tag: protocol.CudaRespSuccess},
		}
	})

	done := make(chan error, 1)
	go func() { done <- l.Serve() }()
	defer l.Close()

	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("unix", sockPath)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	cmd := &protocol.CudaCommand{Tag: protocol.CudaTagInit}
	req := &protocol.Message{Tag: protocol.MsgTagCudaCommand, RequestID: 7, CudaCmd: cmd}
	frame, err := wire.EncodeMessage(req, 0)
	require.NoError(t, err)
	_, err = conn.Write(frame)
	require.NoError(t, err)

	hdr, payload, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	resp, err := wire.DecodeMessage(payload, hdr.Flags)
	require.NoError(t, err)

	assert.Equal(t, protocol.MsgTagCudaResponse, resp.Tag)
	require.NotNil(t, resp.CudaResp)
	assert.Equal(t, protocol.CudaRespSuccess, resp.CudaResp.Tag)
}
