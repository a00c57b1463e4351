package session

import (
	"errors"
	"testing"

	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAllocAndValidate(t *testing.T) {
	s := New(1, 7, "tester")

	t.Run("allocated_handle_validates", func(t *testing.T) {
		h := s.AllocHandle(protocol.ResourceCuStream)
		assert.Equal(t, uint16(7), h.ServerID)
		assert.Equal(t, uint32(1), h.SessionID)
		assert.True(t, s.Validate(h))
	})

	t.Run("foreign_session_id_rejected", func(t *testing.T) {
		foreign := protocol.NetworkHandle{ServerID: 7, SessionID: 99, ResourceID: 1, ResourceType: protocol.ResourceCuStream}
		assert.False(t, s.Validate(foreign))
	})

	t.Run("released_handle_no_longer_validates", func(t *testing.T) {
		h := s.AllocHandle(protocol.ResourceCuEvent)
		s.Release(h)
		assert.False(t, s.Validate(h))
	})
}

func TestSessionTeardownOrder(t *testing.T) {
	s := New(1, 0, "tester")
	a := s.AllocHandle(protocol.ResourceCuContext)
	b := s.AllocHandle(protocol.ResourceCuStream)
	c := s.AllocHandle(protocol.ResourceCuEvent)

	order := s.TeardownOrder()
	require.Len(t, order, 3)
	assert.Equal(t, c, order[0])
	assert.Equal(t, b, order[1])
	assert.Equal(t, a, order[2])
}

func TestSessionTeardownSwallowsErrors(t *testing.T) {
	s := New(1, 0, "tester")
	bad := s.AllocHandle(protocol.ResourceVkBuffer)
	good := s.AllocHandle(protocol.ResourceCuStream)

	failed := s.Teardown(func(h protocol.NetworkHandle) error {
		if h == bad {
			return errors.New("simulated destroy failure")
		}
		return nil
	})

	assert.Equal(t, []protocol.NetworkHandle{bad}, failed)
	assert.Empty(t, s.AllHandles())
	assert.False(t, s.Validate(good))
}

func TestManagerOpenCloseCount(t *testing.T) {
	m := NewManager()
	s1 := m.Open(1, "alice")
	s2 := m.Open(1, "bob")
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Equal(t, 2, m.Count())

	assert.Same(t, s1, m.Get(s1.ID))
	m.Close(s1.ID)
	assert.Equal(t, 1, m.Count())
	assert.Nil(t, m.Get(s1.ID))
}
