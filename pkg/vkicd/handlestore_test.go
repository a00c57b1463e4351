package vkicd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgpu/rgpu/pkg/protocol"
)

func TestHandleStoreRoundTrip(t *testing.T) {
	s := NewHandleStore()

	h := protocol.NetworkHandle{ServerID: 1, SessionID: 2, ResourceID: 3, ResourceType: protocol.ResourceVkBuffer}
	id := s.StoreBuffer(h)
	assert.GreaterOrEqual(t, id, uint64(firstLocalID))

	got, ok := s.GetBuffer(id)
	require.True(t, ok)
	assert.Equal(t, h, got)
}

func TestHandleStoreStartsAboveCudaRange(t *testing.T) {
	s := NewHandleStore()
	id := s.StoreDevice(protocol.NetworkHandle{})
	assert.GreaterOrEqual(t, id, uint64(0x2000))
}

func TestHandleStoreRemoveReturnsValueAndClearsEntry(t *testing.T) {
	s := NewHandleStore()
	id := s.StoreImage(protocol.NetworkHandle{ResourceID: 77})

	h, ok := s.RemoveImage(id)
	require.True(t, ok)
	assert.EqualValues(t, 77, h.ResourceID)

	_, ok = s.GetImage(id)
	assert.False(t, ok)

	_, ok = s.RemoveImage(id)
	assert.False(t, ok)
}

func TestHandleStoreSharesOneCounterAcrossKinds(t *testing.T) {
	s := NewHandleStore()
	instanceID := s.StoreInstance(protocol.NetworkHandle{})
	deviceID := s.StoreDevice(protocol.NetworkHandle{})
	bufferID := s.StoreBuffer(protocol.NetworkHandle{})

	assert.Less(t, instanceID, deviceID)
	assert.Less(t, deviceID, bufferID)
}
