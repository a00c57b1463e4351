package vkicd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShadowBufferMapFlushInvalidateUnmapCycle(t *testing.T) {
	table := NewShadowTable()
	const memID = 0x2100

	assert.False(t, table.IsMapped(memID))

	serverData := []byte("0123456789abcdef")
	local := table.Map(memID, 100, serverData)
	require.Equal(t, serverData, local)
	assert.True(t, table.IsMapped(memID), "invariant 4: mapped iff a shadow buffer exists")

	// The application writes through the mapped pointer...
	local[0] = 'X'

	// ...and flushing a sub-range ships only that slice, computed
	// relative to the mapping's base offset.
	flushed, ok := table.FlushRange(memID, 100, 4)
	require.True(t, ok)
	assert.Equal(t, []byte("X123"), flushed)

	whole, ok := table.FlushRange(memID, 100, WholeSize)
	require.True(t, ok)
	assert.Equal(t, append([]byte{'X'}, serverData[1:]...), whole)

	// Invalidate writes server-provided bytes back into the mirror at the
	// range's offset.
	require.True(t, table.InvalidateRange(memID, 104, []byte("ZZZZ")))

	unmapped, ok := table.Unmap(memID)
	require.True(t, ok)
	assert.Equal(t, []byte("X123ZZZZ89abcdef"), unmapped)

	assert.False(t, table.IsMapped(memID))
	_, ok = table.Unmap(memID)
	assert.False(t, ok, "a second unmap of the same id must fail")
}

func TestShadowBufferOperationsFailWhenNotMapped(t *testing.T) {
	table := NewShadowTable()
	_, ok := table.FlushRange(0x9999, 0, 16)
	assert.False(t, ok)
	assert.False(t, table.InvalidateRange(0x9999, 0, []byte("x")))
	_, ok = table.Unmap(0x9999)
	assert.False(t, ok)
}
