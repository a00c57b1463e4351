// Package ipc implements the client daemon's local listener: the Vulkan
// ICD and CUDA interposition shim talk to the daemon over a Unix domain
// socket (there is no Windows named-pipe listener), one frame per request, exactly like
// a remote rgpu-server connection but over loopback IPC instead of TCP.
// Modeled on the Bolt server's accept loop (pkg/bolt/server.go), request
// framing modeled on rgpu-client's ipc.rs.
package ipc

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync/atomic"

	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/rgpu/rgpu/pkg/wire"
)

// Handler answers one decoded Message with the response to write back.
// A nil return means "no response" -- the caller still must reply with
// something, so Listener substitutes a generic error response rather
// than leaving the client to hang, mirroring the Rust listener's
// handler-returned-None fallback.
type Handler func(msg *protocol.Message) *protocol.Message

// Listener accepts local IPC connections and dispatches each frame to a
// Handler, one goroutine per connection.
type Listener struct {
	path    string
	handler Handler
	ln      net.Listener
	closed  atomic.Bool
}

// New creates a Listener bound to path (removed first if stale) but does
// not yet start accepting; call Serve to run the accept loop.
func New(path string, handler Handler) *Listener {
	return &Listener{path: path, handler: handler}
}

// Serve binds the local socket and accepts connections until Close is
// called. It blocks, so callers typically run it in its own goroutine.
func (l *Listener) Serve() error {
	_ = os.Remove(l.path)

	ln, err := net.Listen("unix", l.path)
	if err != nil {
		return fmt.Errorf("ipc: listen on %s: %w", l.path, err)
	}
	l.ln = ln
	log.Printf("ipc: listening on %s", l.path)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if l.closed.Load() {
				return nil
			}
			continue
		}
		go l.handleConn(conn)
	}
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	l.closed.Store(true)
	if l.ln != nil {
		return l.ln.Close()
	}
	return nil
}

func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ipc: recovered from panic in connection handler: %v", r)
		}
	}()

	for {
		hdr, payload, err := wire.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("ipc: frame read error: %v", err)
			}
			return
		}

		msg, err := wire.DecodeMessage(payload, hdr.Flags)
		if err != nil {
			log.Printf("ipc: message decode error: %v", err)
			continue
		}

		resp := l.handler(msg)
		if resp == nil {
			resp = &protocol.Message{
				Tag: protocol.MsgTagError,
				Err: protocol.NewSerializationError("internal daemon error: handler returned no response"),
			}
		}

		frame, err := wire.EncodeMessage(resp, hdr.StreamID)
		if err != nil {
			log.Printf("ipc: message encode error: %v", err)
			continue
		}
		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}
