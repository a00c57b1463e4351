package vkicd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgpu/rgpu/pkg/protocol"
)

func TestCommandRecorderMonotoneBetweenBeginAndTake(t *testing.T) {
	r := NewCommandRecorder()
	const cb = 0x2200

	r.Begin(cb)
	assert.Equal(t, 0, r.Len(cb))

	r.Append(cb, protocol.RecordedCommand{Kind: protocol.RecBindPipeline})
	r.Append(cb, protocol.RecordedCommand{Kind: protocol.RecDispatch, GroupCountX: 4})
	require.Equal(t, 2, r.Len(cb))

	recorded := r.Take(cb)
	require.Len(t, recorded, 2)
	assert.Equal(t, protocol.RecBindPipeline, recorded[0].Kind)
	assert.Equal(t, protocol.RecDispatch, recorded[1].Kind)

	// Take clears the list -- a second submit with nothing newly recorded
	// must not resend the same commands.
	assert.Equal(t, 0, r.Len(cb))
}

func TestCommandRecorderResetDiscardsUnsubmittedWork(t *testing.T) {
	r := NewCommandRecorder()
	const cb = 0x2201

	r.Begin(cb)
	r.Append(cb, protocol.RecordedCommand{Kind: protocol.RecDraw})
	require.Equal(t, 1, r.Len(cb))

	r.Reset(cb)
	assert.Equal(t, 0, r.Len(cb))
}

func TestCommandRecorderBeginClearsPriorReuse(t *testing.T) {
	r := NewCommandRecorder()
	const cb = 0x2202

	r.Begin(cb)
	r.Append(cb, protocol.RecordedCommand{Kind: protocol.RecDraw})
	r.Take(cb)

	// A reused command buffer starts from empty again on the next begin.
	r.Begin(cb)
	r.Append(cb, protocol.RecordedCommand{Kind: protocol.RecDrawIndexed})
	recorded := r.Take(cb)
	require.Len(t, recorded, 1)
	assert.Equal(t, protocol.RecDrawIndexed, recorded[0].Kind)
}
