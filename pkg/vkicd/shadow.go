package vkicd

import "sync"

// WholeSize is VK_WHOLE_SIZE: a flush or invalidate range extending to
// the end of the mapped region rather than a fixed byte count.
const WholeSize = ^uint64(0)

// shadowBuffer is the client-side mirror of one vkMapMemory'd region.
type shadowBuffer struct {
	data   []byte
	offset uint64
}

// ShadowTable is the client-side mirror of every currently mapped device
// memory region, guarded by a single mutex -- not one lock per buffer --
// matching the map/flush/invalidate/unmap protocol's single global table.
// Invariant: a memory local id has an entry here if and only if it is
// currently mapped (between vkMapMemory and the matching vkUnmapMemory).
type ShadowTable struct {
	mu   sync.Mutex
	bufs map[uint64]*shadowBuffer
}

// NewShadowTable creates an empty table.
func NewShadowTable() *ShadowTable {
	return &ShadowTable{bufs: make(map[uint64]*shadowBuffer)}
}

// Map installs a fresh shadow buffer for memLocalID, copying in the bytes
// the server returned for the mapped range, and returns the client's own
// copy -- the pointer vkMapMemory hands back to the application.
func (t *ShadowTable) Map(memLocalID, offset uint64, serverData []byte) []byte {
	buf := make([]byte, len(serverData))
	copy(buf, serverData)
	t.mu.Lock()
	t.bufs[memLocalID] = &shadowBuffer{data: buf, offset: offset}
	t.mu.Unlock()
	return buf
}

// IsMapped reports whether memLocalID currently has a shadow buffer.
func (t *ShadowTable) IsMapped(memLocalID uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.bufs[memLocalID]
	return ok
}

// FlushRange returns the bytes of the sub-range [rangeOffset,
// rangeOffset+rangeSize) (or to the end of the buffer when rangeSize is
// WholeSize) that vkFlushMappedMemoryRanges must ship to the server.
func (t *ShadowTable) FlushRange(memLocalID, rangeOffset, rangeSize uint64) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sb, ok := t.bufs[memLocalID]
	if !ok {
		return nil, false
	}
	flushOffset := rangeOffset - sb.offset
	flushSize := rangeSize
	if rangeSize == WholeSize {
		flushSize = uint64(len(sb.data)) - flushOffset
	}
	end := flushOffset + flushSize
	if end > uint64(len(sb.data)) {
		end = uint64(len(sb.data))
	}
	out := make([]byte, end-flushOffset)
	copy(out, sb.data[flushOffset:end])
	return out, true
}

// InvalidateRange writes server-provided data for the sub-range starting
// at rangeOffset back into the shadow buffer, the mirror image of
// FlushRange, performed after vkInvalidateMappedMemoryRanges gets fresh
// data back from the server.
func (t *ShadowTable) InvalidateRange(memLocalID, rangeOffset uint64, data []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	sb, ok := t.bufs[memLocalID]
	if !ok {
		return false
	}
	invOffset := rangeOffset - sb.offset
	if invOffset > uint64(len(sb.data)) {
		return false
	}
	copy(sb.data[invOffset:], data)
	return true
}

// Unmap removes and returns the full current contents of the shadow
// buffer for memLocalID -- the payload vkUnmapMemory ships back to the
// server before the mirror is torn down. ok is false if memLocalID was
// never mapped.
func (t *ShadowTable) Unmap(memLocalID uint64) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sb, ok := t.bufs[memLocalID]
	if !ok {
		return nil, false
	}
	delete(t.bufs, memLocalID)
	return sb.data, true
}
