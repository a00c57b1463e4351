// Package quictransport implements the QUIC transport mode: always
// encrypted, one bidirectional stream per request/response pair. Modeled
// on rgpu-transport's quic.rs (quinn), ported to quic-go -- the only QUIC
// implementation in the example pack's dependency surface.
package quictransport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/rgpu/rgpu/pkg/wire"
)

// ALPN is the application protocol negotiated over QUIC's TLS handshake.
const ALPN = "rgpu/1"

// idleTimeout bounds how long a QUIC connection may sit silent before
// the transport tears it down.
const idleTimeout = 120 * time.Second

// ListenServer binds a QUIC endpoint presenting tlsConfig, with ALPN and
// idle timeout configured for the duration of a long-lived GPU session.
func ListenServer(bindAddr string, tlsConfig *tls.Config) (*quic.Listener, error) {
	cfg := tlsConfig.Clone()
	cfg.NextProtos = []string{ALPN}

	qConfig := &quic.Config{MaxIdleTimeout: idleTimeout}

	ln, err := quic.ListenAddr(bindAddr, cfg, qConfig)
	if err != nil {
		return nil, fmt.Errorf("quictransport: listen on %s: %w", bindAddr, err)
	}
	log.Printf("quictransport: listening on %s", bindAddr)
	return ln, nil
}

// Handler answers one decoded request Message with the response to
// write back to the stream. A nil return means no reply is sent; the
// stream is closed unanswered.
type Handler func(msg *protocol.Message) *protocol.Message

// Serve accepts QUIC connections from ln and dispatches every
// bidirectional stream opened on them to handler, one goroutine per
// stream, until ctx is canceled.
func Serve(ctx context.Context, ln *quic.Listener, handler Handler) error {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("quictransport: accept: %w", err)
		}
		go acceptStreams(ctx, conn, handler)
	}
}

func acceptStreams(ctx context.Context, conn *quic.Conn, handler Handler) {
	remote := conn.RemoteAddr()
	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			log.Printf("quictransport: %s disconnected: %v", remote, err)
			return
		}
		go handleStream(stream, handler)
	}
}

func handleStream(stream *quic.Stream, handler Handler) {
	msg, err := readMessage(stream)
	if err != nil {
		log.Printf("quictransport: stream read error: %v", err)
		return
	}

	resp := handler(msg)
	if resp == nil {
		return
	}

	frame, err := wire.EncodeMessage(resp, 0)
	if err != nil {
		log.Printf("quictransport: encode error: %v", err)
		return
	}
	if _, err := stream.Write(frame); err != nil {
		log.Printf("quictransport: stream write error: %v", err)
		return
	}
	_ = stream.Close()
}

// DialClient opens a QUIC connection to addr presenting tlsConfig (ALPN
// set automatically).
func DialClient(ctx context.Context, addr string, tlsConfig *tls.Config) (*quic.Conn, error) {
	cfg := tlsConfig.Clone()
	cfg.NextProtos = []string{ALPN}

	conn, err := quic.DialAddr(ctx, addr, cfg, &quic.Config{MaxIdleTimeout: idleTimeout})
	if err != nil {
		return nil, fmt.Errorf("quictransport: dial %s: %w", addr, err)
	}
	return conn, nil
}

// SendAndReceive opens a fresh bidirectional stream, writes msg, and
// reads back exactly one response frame: one stream per request.
func SendAndReceive(ctx context.Context, conn *quic.Conn, msg *protocol.Message) (*protocol.Message, error) {
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("quictransport: open stream: %w", err)
	}

	frame, err := wire.EncodeMessage(msg, 0)
	if err != nil {
		return nil, err
	}
	if _, err := stream.Write(frame); err != nil {
		return nil, fmt.Errorf("quictransport: stream write: %w", err)
	}
	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("quictransport: stream finish: %w", err)
	}

	return readMessage(stream)
}

func readMessage(r quicReader) (*protocol.Message, error) {
	hdr, payload, err := wire.ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return wire.DecodeMessage(payload, hdr.Flags)
}

// quicReader is the subset of quic.Stream that wire.ReadFrame needs.
type quicReader interface {
	Read(p []byte) (int, error)
}

// AcceptSession blocks until the first bidirectional stream opens on
// conn and returns it wrapped as a net.Conn, so a session-oriented
// handler (handshake, then a long-lived request/response loop) can
// drive it exactly like a TCP connection, one stream per client
// session rather than one stream per request, matching the
// connection-oriented handshake every other transport in this package
// shares.
func AcceptSession(ctx context.Context, conn *quic.Conn) (net.Conn, error) {
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("quictransport: accept session stream: %w", err)
	}
	return &streamConn{Stream: stream, conn: conn}, nil
}

// OpenSession opens the one bidirectional stream a client uses for its
// entire session, the dial-side counterpart of AcceptSession.
func OpenSession(ctx context.Context, conn *quic.Conn) (net.Conn, error) {
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("quictransport: open session stream: %w", err)
	}
	return &streamConn{Stream: stream, conn: conn}, nil
}

// streamConn adapts a *quic.Stream plus its parent *quic.Conn to
// net.Conn so transport-agnostic connection handlers never need to know
// whether they're driving TCP+TLS or QUIC.
type streamConn struct {
	*quic.Stream
	conn *quic.Conn
}

func (s *streamConn) LocalAddr() net.Addr  { return s.conn.LocalAddr() }
func (s *streamConn) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }
