package handler

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgpu/rgpu/pkg/driver"
	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/rgpu/rgpu/pkg/rgpuauth"
	"github.com/rgpu/rgpu/pkg/wire"
)

func newTestConfig() *Config {
	cuda := driver.NewSoftware(2)
	vulkan := cuda.AsVulkanDriver()
	auth := rgpuauth.NewAuthenticator([]string{"test-token"})
	gpus := []protocol.GpuInfo{{DeviceName: "sim0"}, {DeviceName: "sim1"}}
	return New(7, auth, cuda, vulkan, gpus)
}

func writeMsg(t *testing.T, conn net.Conn, msg *protocol.Message) {
	t.Helper()
	frame, err := wire.EncodeMessage(msg, 0)
	require.NoError(t, err)
	_, err = conn.Write(frame)
	require.NoError(t, err)
}

func readMsg(t *testing.T, conn net.Conn) *protocol.Message {
	t.Helper()
	hdr, payload, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	msg, err := wire.DecodeMessage(payload, hdr.Flags)
	require.NoError(t, err)
	return msg
}

func TestHandlerHandshakeAndDispatch(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	cfg := newTestConfig()
	go cfg.HandleConnection(serverConn)

	writeMsg(t, clientConn, &protocol.Message{Tag: protocol.MsgTagHello, PeerName: "tester", ProtocolVersion: protocol.ProtocolVersion})
	challenge := readMsg(t, clientConn)
	require.Equal(t, protocol.MsgTagHello, challenge.Tag)
	require.Len(t, challenge.Challenge, rgpuauth.ChallengeSize)

	response := rgpuauth.SignChallenge("test-token", challenge.Challenge)
	writeMsg(t, clientConn, &protocol.Message{Tag: protocol.MsgTagAuthenticate, Token: "test-token", ChallengeResponse: response})

	result := readMsg(t, clientConn)
	require.Equal(t, protocol.MsgTagAuthResult, result.Tag)
	assert.True(t, result.Success)
	assert.EqualValues(t, 7, result.ServerID)
	assert.Len(t, result.AvailableGpus, 2)

	writeMsg(t, clientConn, &protocol.Message{
		Tag:       protocol.MsgTagCudaCommand,
		RequestID: 1,
		CudaCmd:   &protocol.CudaCommand{Tag: protocol.CudaTagInit},
	})
	resp := readMsg(t, clientConn)
	require.Equal(t, protocol.MsgTagCudaResponse, resp.Tag)
	assert.Equal(t, protocol.RequestID(1), resp.RequestID)
	assert.Equal(t, protocol.CudaRespSuccess, resp.CudaResp.Tag)
}

func TestHandlerRejectsBadToken(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	cfg := newTestConfig()
	go cfg.HandleConnection(serverConn)

	writeMsg(t, clientConn, &protocol.Message{Tag: protocol.MsgTagHello, PeerName: "tester", ProtocolVersion: protocol.ProtocolVersion})
	challenge := readMsg(t, clientConn)

	writeMsg(t, clientConn, &protocol.Message{Tag: protocol.MsgTagAuthenticate, Token: "wrong-token", ChallengeResponse: challenge.Challenge})
	result := readMsg(t, clientConn)
	require.Equal(t, protocol.MsgTagAuthResult, result.Tag)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.AuthError)
}
