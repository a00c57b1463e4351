package cudainterpose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgpu/rgpu/pkg/protocol"
)

func TestHandleStoreRoundTrip(t *testing.T) {
	s := NewHandleStore()

	h := protocol.NetworkHandle{ServerID: 1, SessionID: 2, ResourceID: 3, ResourceType: protocol.ResourceCuDevice}
	id := s.StoreDevice(h)
	assert.GreaterOrEqual(t, id, uint64(firstLocalID))

	got, ok := s.GetDevice(id)
	require.True(t, ok)
	assert.Equal(t, h, got)

	_, ok = s.GetDevice(id + 1)
	assert.False(t, ok)
}

func TestHandleStoreSharesOneCounterAcrossKinds(t *testing.T) {
	s := NewHandleStore()

	deviceID := s.StoreDevice(protocol.NetworkHandle{})
	ctxID := s.StoreCtx(protocol.NetworkHandle{})
	memID := s.StoreMem(protocol.NetworkHandle{})

	assert.Less(t, deviceID, ctxID)
	assert.Less(t, ctxID, memID)
}

func TestHandleStoreRemove(t *testing.T) {
	s := NewHandleStore()

	id := s.StoreCtx(protocol.NetworkHandle{ResourceID: 42})
	s.RemoveCtx(id)

	_, ok := s.GetCtx(id)
	assert.False(t, ok)
}
