// Package batcher implements the CUDA command pipelining the interpose
// shim's IPC client performs before handing commands to the client
// daemon: void commands (memcpy, memset, free, context/stream state
// changes) are buffered and shipped as a single CudaBatch message at the
// next synchronous call, rather than round-tripping one frame per call.
// Modeled on rgpu-cuda-interpose's IpcClient.send_command/flush_pipeline.
package batcher

import (
	"fmt"
	"sync"

	"github.com/rgpu/rgpu/pkg/protocol"
)

// DefaultCapacity is the buffer size at which a Batcher auto-flushes.
const DefaultCapacity = 32

// Transport sends a fully-formed Message to the daemon and returns its
// response. A Batcher never holds a connection itself; it only decides
// when to buffer versus flush.
type Transport interface {
	Send(msg protocol.Message) (protocol.Message, error)
}

// Batcher buffers void CudaCommands and flushes them as one CudaBatch
// message, either when the buffer fills or when a non-void command
// forces a sync point.
type Batcher struct {
	mu        sync.Mutex
	buf       []protocol.CudaCommand
	capacity  int
	transport Transport
	nextReqID uint64
}

// New creates a Batcher with the given flush capacity (DefaultCapacity
// if cap <= 0) over transport.
func New(transport Transport, capacity int) *Batcher {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Batcher{capacity: capacity, transport: transport, nextReqID: 1}
}

// Send submits a CUDA command. Void commands are buffered and answered
// immediately with a synthetic success, since the real response (if any
// error occurred) only surfaces at the next flush. Non-void commands
// force a flush of anything buffered first, then round-trip normally.
func (b *Batcher) Send(cmd protocol.CudaCommand) (*protocol.CudaResponse, error) {
	if cmd.IsVoid() {
		b.mu.Lock()
		b.buf = append(b.buf, cmd)
		full := len(b.buf) >= b.capacity
		b.mu.Unlock()
		if full {
			if err := b.Flush(); err != nil {
				return nil, err
			}
		}
		return &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}, nil
	}

	if err := b.Flush(); err != nil {
		return nil, err
	}

	reqID := b.allocReqID()
	msg := protocol.Message{Tag: protocol.MsgTagCudaCommand, RequestID: protocol.RequestID(reqID), CudaCmd: &cmd}
	resp, err := b.transport.Send(msg)
	if err != nil {
		return nil, err
	}
	if resp.Tag == protocol.MsgTagError && resp.Err != nil {
		return nil, resp.Err
	}
	if resp.CudaResp == nil {
		return nil, fmt.Errorf("batcher: daemon returned no cuda response for request %d", reqID)
	}
	return resp.CudaResp, nil
}

// Flush sends any buffered void commands as a single CudaBatch message.
// A no-op if the buffer is empty.
func (b *Batcher) Flush() error {
	b.mu.Lock()
	if len(b.buf) == 0 {
		b.mu.Unlock()
		return nil
	}
	batch := b.buf
	b.buf = nil
	b.mu.Unlock()

	reqID := b.allocReqID()
	msg := protocol.Message{Tag: protocol.MsgTagCudaBatch, RequestID: protocol.RequestID(reqID), Batch: batch}
	resp, err := b.transport.Send(msg)
	if err != nil {
		return err
	}
	if resp.Tag == protocol.MsgTagError && resp.Err != nil {
		return fmt.Errorf("batcher: batch error: %s", resp.Err.Error())
	}
	if resp.CudaResp != nil && resp.CudaResp.Tag == protocol.CudaRespError {
		return fmt.Errorf("batcher: batch error (code %d): %s", resp.CudaResp.Code, resp.CudaResp.Message)
	}
	return nil
}

// Pending returns the number of commands currently buffered, for tests
// and metrics.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

func (b *Batcher) allocReqID() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextReqID
	b.nextReqID++
	return id
}
