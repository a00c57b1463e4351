// Package session tracks per-connection server-side state: the set of
// resource handles a client has allocated, so they can be torn down when
// the client disconnects. Modeled on the Bolt server's own Session type
// (pkg/bolt/server.go), generalized from "which Cypher transaction is
// open" to "which GPU resources does this client own".
package session

import (
	"sync"
	"sync/atomic"

	"github.com/rgpu/rgpu/pkg/protocol"
)

// Session is one authenticated client's server-side resource ledger.
type Session struct {
	ID       uint32
	ServerID uint16
	PeerName string

	mu         sync.RWMutex
	allocated  map[protocol.NetworkHandle]struct{}
	order      []protocol.NetworkHandle // allocation order, for reverse teardown
	nextResID  uint64
}

// New creates an empty session. Resource ids start at 1; 0 is reserved
// as part of the null-handle convention.
func New(id uint32, serverID uint16, peerName string) *Session {
	return &Session{
		ID:        id,
		ServerID:  serverID,
		PeerName:  peerName,
		allocated: make(map[protocol.NetworkHandle]struct{}),
		nextResID: 1,
	}
}

// AllocHandle mints a new handle of the given resource type and records
// it as owned by this session.
func (s *Session) AllocHandle(resourceType protocol.ResourceType) protocol.NetworkHandle {
	id := atomic.AddUint64(&s.nextResID, 1) - 1
	h := protocol.NetworkHandle{
		ServerID:     s.ServerID,
		SessionID:    s.ID,
		ResourceID:   id,
		ResourceType: resourceType,
	}
	s.mu.Lock()
	s.allocated[h] = struct{}{}
	s.order = append(s.order, h)
	s.mu.Unlock()
	return h
}

// Validate reports whether h was allocated by this session and is still
// live. Handles from other sessions or already-freed handles are rejected.
func (s *Session) Validate(h protocol.NetworkHandle) bool {
	if h.SessionID != s.ID {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.allocated[h]
	return ok
}

// Adopt registers a handle minted elsewhere (typically by a driver
// backend that knows nothing about sessions) as belonging to this
// session, without touching the resource-id counter. Used when a
// driver-allocated handle needs to become subject to this session's
// teardown-on-disconnect tracking.
func (s *Session) Adopt(h protocol.NetworkHandle) {
	s.mu.Lock()
	if _, exists := s.allocated[h]; !exists {
		s.allocated[h] = struct{}{}
		s.order = append(s.order, h)
	}
	s.mu.Unlock()
}

// Release stops tracking h. Safe to call on a handle that was never
// allocated or already released.
func (s *Session) Release(h protocol.NetworkHandle) {
	s.mu.Lock()
	delete(s.allocated, h)
	s.mu.Unlock()
}

// AllHandles returns every currently-live handle in allocation order,
// oldest first.
func (s *Session) AllHandles() []protocol.NetworkHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]protocol.NetworkHandle, 0, len(s.allocated))
	for _, h := range s.order {
		if _, ok := s.allocated[h]; ok {
			out = append(out, h)
		}
	}
	return out
}

// TeardownOrder returns every currently-live handle in reverse allocation
// order -- the order resources must be destroyed in so that, e.g., a
// stream is destroyed before the context it belongs to.
func (s *Session) TeardownOrder() []protocol.NetworkHandle {
	live := s.AllHandles()
	out := make([]protocol.NetworkHandle, len(live))
	for i, h := range live {
		out[len(live)-1-i] = h
	}
	return out
}

// Destroyer frees one resource on the native driver; it is the server
// dispatcher's responsibility to supply one per ResourceType. Teardown
// swallows individual destroy errors so one stuck resource never blocks
// the rest of a session's cleanup.
type Destroyer func(h protocol.NetworkHandle) error

// Teardown destroys every live handle in reverse allocation order via fn,
// releasing tracking for each regardless of whether fn returns an error.
// It returns the handles whose destroy call failed, for logging.
func (s *Session) Teardown(fn Destroyer) []protocol.NetworkHandle {
	var failed []protocol.NetworkHandle
	for _, h := range s.TeardownOrder() {
		if err := fn(h); err != nil {
			failed = append(failed, h)
		}
		s.Release(h)
	}
	return failed
}

// Manager owns the set of live sessions for one server process, keyed by
// session id, the same map+RWMutex shape the Bolt server uses to track
// its own per-connection sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uint32]*Session
	nextID   uint32
}

// NewManager creates an empty session manager. Session ids start at 1.
func NewManager() *Manager {
	return &Manager{sessions: make(map[uint32]*Session), nextID: 1}
}

// Open allocates a new session id and registers a Session for it.
func (m *Manager) Open(serverID uint16, peerName string) *Session {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	s := New(id, serverID, peerName)
	m.sessions[id] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with the given id, or nil if none is open.
func (m *Manager) Get(id uint32) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Close removes a session from the manager. It does not tear down the
// session's resources; callers must do that first via Session.Teardown.
func (m *Manager) Close(id uint32) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of currently open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
