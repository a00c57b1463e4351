// Package client performs the daemon side of the Hello/Authenticate
// handshake against one server connection and adapts the resulting
// transport.Connection to the batcher.Transport interface the
// pipelining command batcher expects.
package client

import (
	"fmt"
	"os"

	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/rgpu/rgpu/pkg/rgpuauth"
	"github.com/rgpu/rgpu/pkg/transport"
)

// Session is one authenticated connection to a remote RGPU server.
type Session struct {
	Conn      *transport.Connection
	ServerID  uint16
	SessionID uint32
	Gpus      []protocol.GpuInfo
}

// Handshake runs Hello -> challenge -> Authenticate -> AuthResult over a
// freshly wrapped Connection and returns the resulting Session, or the
// server's reported AuthError on rejection.
func Handshake(conn *transport.Connection, token string) (*Session, error) {
	peerName, err := os.Hostname()
	if err != nil {
		peerName = "rgpu-daemon"
	}

	if err := conn.Send(&protocol.Message{Tag: protocol.MsgTagHello, PeerName: peerName, ProtocolVersion: protocol.ProtocolVersion}); err != nil {
		return nil, fmt.Errorf("client: sending hello: %w", err)
	}
	challengeMsg, err := conn.Recv()
	if err != nil {
		return nil, fmt.Errorf("client: awaiting challenge: %w", err)
	}
	if challengeMsg.Tag != protocol.MsgTagHello {
		return nil, fmt.Errorf("client: expected hello/challenge, got tag %d", challengeMsg.Tag)
	}

	response := rgpuauth.SignChallenge(token, challengeMsg.Challenge)
	if err := conn.Send(&protocol.Message{Tag: protocol.MsgTagAuthenticate, Token: token, ChallengeResponse: response}); err != nil {
		return nil, fmt.Errorf("client: sending authenticate: %w", err)
	}

	resultMsg, err := conn.Recv()
	if err != nil {
		return nil, fmt.Errorf("client: awaiting auth result: %w", err)
	}
	if resultMsg.Tag != protocol.MsgTagAuthResult {
		return nil, fmt.Errorf("client: expected auth result, got tag %d", resultMsg.Tag)
	}
	if !resultMsg.Success {
		return nil, fmt.Errorf("client: authentication rejected: %s", resultMsg.AuthError)
	}

	return &Session{
		Conn:      conn,
		ServerID:  resultMsg.ServerID,
		SessionID: resultMsg.SessionID,
		Gpus:      resultMsg.AvailableGpus,
	}, nil
}

// Transport adapts a Session's Connection to batcher.Transport.
type Transport struct {
	Session *Session
}

// Send round-trips msg through the underlying connection, matching
// requests to responses by RequestID the way batcher.Transport requires.
func (t Transport) Send(msg protocol.Message) (protocol.Message, error) {
	resp, err := t.Session.Conn.SendRequest(&msg)
	if err != nil {
		return protocol.Message{}, err
	}
	return *resp, nil
}
