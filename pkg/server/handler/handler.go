// Package handler drives one authenticated peer connection end to end:
// the Hello/Authenticate/AuthResult handshake, then a loop dispatching
// CudaCommand/VulkanCommand/CudaBatch requests to the linked Dispatcher
// until the peer disconnects, at which point the session's resources are
// torn down. Modeled on the Bolt server's per-connection goroutine
// (pkg/bolt/server.go's handleConnection), generalized from Bolt's
// single-protocol message loop to RGPU's handshake-then-dispatch shape.
package handler

import (
	"fmt"
	"log"
	"net"

	"github.com/rgpu/rgpu/pkg/driver"
	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/rgpu/rgpu/pkg/rgpuauth"
	"github.com/rgpu/rgpu/pkg/server/dispatch"
	"github.com/rgpu/rgpu/pkg/session"
	"github.com/rgpu/rgpu/pkg/wire"
)

// Config bundles the server-wide state a connection handler needs:
// identity, the auth gate, the command dispatcher, and the shared
// session table.
type Config struct {
	ServerID   uint16
	Auth       *rgpuauth.Authenticator
	Dispatcher *dispatch.Dispatcher
	Sessions   *session.Manager
	Gpus       []protocol.GpuInfo
}

// New builds a Config wiring a fresh Dispatcher and Sessions manager
// over the given driver backends.
func New(serverID uint16, auth *rgpuauth.Authenticator, cuda driver.CudaDriver, vulkan driver.VulkanDriver, gpus []protocol.GpuInfo) *Config {
	return &Config{
		ServerID:   serverID,
		Auth:       auth,
		Dispatcher: dispatch.New(serverID, cuda, vulkan),
		Sessions:   session.NewManager(),
		Gpus:       gpus,
	}
}

// HandleConnection runs the full handshake and command loop for one
// accepted connection, blocking until the peer disconnects or the
// handshake fails. Recovers from a panic in command dispatch the same
// way the Bolt server guards its own per-connection goroutine, so one
// bad command can never take the whole server down.
func (c *Config) HandleConnection(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("handler: recovered panic: %v", r)
		}
	}()

	sess, err := c.handshake(conn)
	if err != nil {
		log.Printf("handler: handshake with %s failed: %v", conn.RemoteAddr(), err)
		return
	}
	defer c.teardown(sess)

	log.Printf("handler: session %d (%s) authenticated from %s", sess.ID, sess.PeerName, conn.RemoteAddr())

	for {
		hdr, payload, err := wire.ReadFrame(conn)
		if err != nil {
			return
		}
		msg, err := wire.DecodeMessage(payload, hdr.Flags)
		if err != nil {
			continue
		}

		resp := c.dispatchMessage(sess, msg)
		if resp == nil {
			continue
		}
		frame, err := wire.EncodeMessage(resp, 0)
		if err != nil {
			log.Printf("handler: encoding response: %v", err)
			return
		}
		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}

// handshake performs Hello -> challenge -> Authenticate -> AuthResult and
// returns the freshly opened Session on success.
func (c *Config) handshake(conn net.Conn) (*session.Session, error) {
	hdr, payload, err := wire.ReadFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("reading hello: %w", err)
	}
	hello, err := wire.DecodeMessage(payload, hdr.Flags)
	if err != nil || hello.Tag != protocol.MsgTagHello {
		return nil, fmt.Errorf("expected hello, got %v (err=%v)", hdr, err)
	}
	if hello.ProtocolVersion != protocol.ProtocolVersion {
		reason := fmt.Sprintf("protocol version mismatch: server %d, client %d", protocol.ProtocolVersion, hello.ProtocolVersion)
		_ = writeMessage(conn, &protocol.Message{Tag: protocol.MsgTagAuthResult, Success: false, AuthError: reason})
		return nil, fmt.Errorf("%s", reason)
	}

	challenge, err := rgpuauth.GenerateChallenge()
	if err != nil {
		return nil, fmt.Errorf("generating challenge: %w", err)
	}
	challengeMsg := protocol.Message{Tag: protocol.MsgTagHello, Challenge: challenge}
	if err := writeMessage(conn, &challengeMsg); err != nil {
		return nil, fmt.Errorf("sending challenge: %w", err)
	}

	hdr, payload, err = wire.ReadFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("reading authenticate: %w", err)
	}
	authMsg, err := wire.DecodeMessage(payload, hdr.Flags)
	if err != nil || authMsg.Tag != protocol.MsgTagAuthenticate {
		return nil, fmt.Errorf("expected authenticate, got %v (err=%v)", hdr, err)
	}

	if verr := c.Auth.Verify(hello.PeerName, authMsg.Token, challenge, authMsg.ChallengeResponse); verr != nil {
		_ = writeMessage(conn, &protocol.Message{Tag: protocol.MsgTagAuthResult, Success: false, AuthError: verr.Error()})
		return nil, verr
	}

	sess := c.Sessions.Open(c.ServerID, hello.PeerName)
	result := protocol.Message{
		Tag:           protocol.MsgTagAuthResult,
		Success:       true,
		SessionID:     sess.ID,
		ServerID:      c.ServerID,
		AvailableGpus: c.Gpus,
	}
	if err := writeMessage(conn, &result); err != nil {
		c.Sessions.Close(sess.ID)
		return nil, fmt.Errorf("sending auth result: %w", err)
	}
	return sess, nil
}

// dispatchMessage routes one post-handshake Message to the dispatcher,
// returning the Message to write back, or nil for commands that expect
// no reply (there are currently none at this layer, but batches without
// a trailing response are a plausible future addition).
func (c *Config) dispatchMessage(sess *session.Session, msg *protocol.Message) *protocol.Message {
	switch msg.Tag {
	case protocol.MsgTagQueryGpus:
		return &protocol.Message{Tag: protocol.MsgTagGpuList, RequestID: msg.RequestID, Gpus: c.Gpus}

	case protocol.MsgTagCudaCommand:
		resp, err := c.Dispatcher.DispatchCuda(sess, msg.CudaCmd)
		if err != nil {
			return errorResponse(msg.RequestID, err)
		}
		return &protocol.Message{Tag: protocol.MsgTagCudaResponse, RequestID: msg.RequestID, CudaResp: resp}

	case protocol.MsgTagVulkanCommand:
		resp, err := c.Dispatcher.DispatchVulkan(sess, msg.VulkanCmd)
		if err != nil {
			return errorResponse(msg.RequestID, err)
		}
		return &protocol.Message{Tag: protocol.MsgTagVulkanResponse, RequestID: msg.RequestID, VulkanResp: resp}

	case protocol.MsgTagCudaBatch:
		return c.dispatchBatch(sess, msg)

	case protocol.MsgTagPing:
		return &protocol.Message{Tag: protocol.MsgTagPong, RequestID: msg.RequestID}

	default:
		return errorResponse(msg.RequestID, protocol.NewUnsupportedCommand(fmt.Sprintf("tag %d", msg.Tag)))
	}
}

// dispatchBatch runs every buffered command in order, stopping at the
// first failure and reporting it as a single error keyed to the batch's
// request id -- matching the pipelining client's expectation that a
// batch either succeeds silently or surfaces exactly one error.
func (c *Config) dispatchBatch(sess *session.Session, msg *protocol.Message) *protocol.Message {
	for i := range msg.Batch {
		if _, err := c.Dispatcher.DispatchCuda(sess, &msg.Batch[i]); err != nil {
			return errorResponse(msg.RequestID, err)
		}
	}
	return &protocol.Message{Tag: protocol.MsgTagCudaResponse, RequestID: msg.RequestID, CudaResp: &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}}
}

// teardown releases tracking for every resource the session still owns
// when its connection drops. The driver backends free their own memory
// on process exit (Software) or device reset (native backends); what
// matters here is that a stale session's handles stop validating so a
// reused session id can never collide with them.
func (c *Config) teardown(sess *session.Session) {
	defer c.Sessions.Close(sess.ID)
	sess.Teardown(func(h protocol.NetworkHandle) error {
		return nil
	})
}

func errorResponse(reqID protocol.RequestID, err error) *protocol.Message {
	pe, ok := err.(*protocol.ProtocolError)
	if !ok {
		pe = protocol.NewGpuError(0, err.Error())
	}
	return &protocol.Message{Tag: protocol.MsgTagError, RequestID: reqID, Err: pe}
}

func writeMessage(conn net.Conn, msg *protocol.Message) error {
	frame, err := wire.EncodeMessage(msg, 0)
	if err != nil {
		return err
	}
	_, err = conn.Write(frame)
	return err
}
