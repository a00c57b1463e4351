// Package transport wraps a raw net.Conn (TCP+TLS or QUIC stream) in a
// framed, request/response capable Connection: a writer goroutine drains
// an outgoing frame channel, a reader goroutine decodes frames and either
// resolves a pending request or forwards an unsolicited message to Recv.
// Modeled on rgpu-transport's RgpuConnection, generalized from Tokio
// mpsc/oneshot channels and a dashmap to buffered Go channels and a
// mutex-guarded map -- the same concurrency substitution pkg/session
// already uses in place of parking_lot.
package transport

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/rgpu/rgpu/pkg/wire"
)

// Role identifies which side of a Connection this process is.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

// ErrConnectionClosed is returned by Send/SendRequest/Recv once the
// underlying connection has been torn down.
var ErrConnectionClosed = errors.New("transport: connection closed")

const outgoingQueueSize = 256
const incomingQueueSize = 256

// Connection is an established peer connection: framing, a
// request/response correlation table keyed by RequestID, and a channel
// of unsolicited (non-response) messages for the caller to consume.
type Connection struct {
	role Role
	conn net.Conn

	outgoing chan []byte
	incoming chan *protocol.Message

	nextRequestID uint64

	mu      sync.Mutex
	pending map[protocol.RequestID]chan *protocol.Message

	closeOnce sync.Once
	closed    atomic.Bool
}

// New wraps conn and starts its reader/writer goroutines. conn may be a
// plain TCP connection, a tls.Conn, or a QUIC stream -- anything
// satisfying net.Conn.
func New(role Role, conn net.Conn) *Connection {
	c := &Connection{
		role:     role,
		conn:     conn,
		outgoing: make(chan []byte, outgoingQueueSize),
		incoming: make(chan *protocol.Message, incomingQueueSize),
		pending:  make(map[protocol.RequestID]chan *protocol.Message),
	}
	go c.writeLoop()
	go c.readLoop()
	return c
}

func (c *Connection) writeLoop() {
	for frame := range c.outgoing {
		if _, err := c.conn.Write(frame); err != nil {
			c.Close()
			return
		}
	}
}

func (c *Connection) readLoop() {
	defer c.Close()
	for {
		hdr, payload, err := wire.ReadFrame(c.conn)
		if err != nil {
			return
		}
		msg, err := wire.DecodeMessage(payload, hdr.Flags)
		if err != nil {
			continue
		}

		if isResponseTag(msg.Tag) {
			c.mu.Lock()
			ch, ok := c.pending[msg.RequestID]
			if ok {
				delete(c.pending, msg.RequestID)
			}
			c.mu.Unlock()
			if ok {
				ch <- msg
				continue
			}
		}

		select {
		case c.incoming <- msg:
		default:
			// Caller isn't draining Recv fast enough; drop rather than
			// block the reader and stall response delivery.
		}
	}
}

func isResponseTag(tag protocol.MessageTag) bool {
	switch tag {
	case protocol.MsgTagCudaResponse, protocol.MsgTagVulkanResponse, protocol.MsgTagAuthResult, protocol.MsgTagGpuList, protocol.MsgTagMetricsData, protocol.MsgTagPong, protocol.MsgTagError:
		return true
	default:
		return false
	}
}

// Send writes msg without waiting for a reply.
func (c *Connection) Send(msg *protocol.Message) error {
	frame, err := wire.EncodeMessage(msg, 0)
	if err != nil {
		return err
	}
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	select {
	case c.outgoing <- frame:
		return nil
	default:
		return ErrConnectionClosed
	}
}

// SendRequest allocates a fresh RequestID, sends msg, and blocks until
// the matching response tag arrives (or the connection closes).
func (c *Connection) SendRequest(msg *protocol.Message) (*protocol.Message, error) {
	reqID := protocol.RequestID(atomic.AddUint64(&c.nextRequestID, 1))
	msg.RequestID = reqID

	ch := make(chan *protocol.Message, 1)
	c.mu.Lock()
	c.pending[reqID] = ch
	c.mu.Unlock()

	if err := c.Send(msg); err != nil {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
		return nil, err
	}

	resp, ok := <-ch
	if !ok {
		return nil, ErrConnectionClosed
	}
	return resp, nil
}

// Recv returns the next unsolicited (non-response) message, such as a
// server-pushed metrics update.
func (c *Connection) Recv() (*protocol.Message, error) {
	msg, ok := <-c.incoming
	if !ok {
		return nil, ErrConnectionClosed
	}
	return msg, nil
}

// Role reports whether this Connection is the server or client side.
func (c *Connection) Role() Role { return c.role }

// Close tears down the connection and unblocks every pending SendRequest
// and Recv caller. Safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
		close(c.outgoing)
		close(c.incoming)
		c.mu.Lock()
		for _, ch := range c.pending {
			close(ch)
		}
		c.pending = nil
		c.mu.Unlock()
	})
	return err
}
