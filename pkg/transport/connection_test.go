package transport

import (
	"net"
	"testing"
	"time"

	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionSendRequestRoundTrip(t *testing.T) {
	clientRaw, serverRaw := net.Pipe()
	client := New(RoleClient, clientRaw)
	server := New(RoleServer, serverRaw)
	defer client.Close()
	defer server.Close()

	go func() {
		req, err := server.Recv()
		if err != nil {
			return
		}
		_ = server.Send(&protocol.Message{
			Tag:       protocol.MsgTagCudaResponse,
			RequestID: req.RequestID,
			CudaResp:  &protocol.CudaResponse{Tag: protocol.CudaRespSuccess},
		})
	}()

	resp, err := client.SendRequest(&protocol.Message{Tag: protocol.MsgTagCudaCommand, CudaCmd: &protocol.CudaCommand{Tag: protocol.CudaTagInit}})
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgTagCudaResponse, resp.Tag)
	assert.Equal(t, protocol.CudaRespSuccess, resp.CudaResp.Tag)
}

func TestConnectionCloseUnblocksRecv(t *testing.T) {
	clientRaw, serverRaw := net.Pipe()
	client := New(RoleClient, clientRaw)
	server := New(RoleServer, serverRaw)
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		_, err := client.Recv()
		done <- err
	}()

	client.Close()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Recv did not unblock after Close")
	}
}
