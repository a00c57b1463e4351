package vkicd

import (
	"sync"

	"github.com/rgpu/rgpu/pkg/protocol"
)

// CommandRecorder accumulates vkCmd* calls issued between
// vkBeginCommandBuffer and vkEndCommandBuffer/vkResetCommandBuffer, one
// ordered list per command buffer local id, flushed as a single
// SubmitRecordedCommands message immediately before the real
// vkQueueSubmit. Appends never reorder or drop entries between begin and
// end/reset, preserving monotonicity over that span.
type CommandRecorder struct {
	mu   sync.Mutex
	bufs map[uint64][]protocol.RecordedCommand
}

// NewCommandRecorder creates an empty recorder.
func NewCommandRecorder() *CommandRecorder {
	return &CommandRecorder{bufs: make(map[uint64][]protocol.RecordedCommand)}
}

// Begin starts (or restarts, for a reused buffer) recording for
// cmdBufLocalID with an empty list.
func (r *CommandRecorder) Begin(cmdBufLocalID uint64) {
	r.mu.Lock()
	r.bufs[cmdBufLocalID] = nil
	r.mu.Unlock()
}

// Append records one vkCmd* call onto cmdBufLocalID's list.
func (r *CommandRecorder) Append(cmdBufLocalID uint64, rc protocol.RecordedCommand) {
	r.mu.Lock()
	r.bufs[cmdBufLocalID] = append(r.bufs[cmdBufLocalID], rc)
	r.mu.Unlock()
}

// Take returns and clears cmdBufLocalID's recorded list -- the flush
// performed right before vkQueueSubmit ships it as one
// SubmitRecordedCommands message ahead of the real submit.
func (r *CommandRecorder) Take(cmdBufLocalID uint64) []protocol.RecordedCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.bufs[cmdBufLocalID]
	r.bufs[cmdBufLocalID] = nil
	return rec
}

// Reset discards cmdBufLocalID's recording without submitting it,
// matching vkResetCommandBuffer.
func (r *CommandRecorder) Reset(cmdBufLocalID uint64) {
	r.mu.Lock()
	delete(r.bufs, cmdBufLocalID)
	r.mu.Unlock()
}

// Len reports how many commands are currently recorded for
// cmdBufLocalID.
func (r *CommandRecorder) Len(cmdBufLocalID uint64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bufs[cmdBufLocalID])
}
