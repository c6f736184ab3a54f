package chat

import (
	"sync"
)

// ConnManager indexes live sessions two ways: by connection ID (primary) and
// by user ID (a user may hold several concurrent sessions, one per device).
type ConnManager struct {
	mu     sync.RWMutex
	byConn map[string]*Session
	byUser map[string]map[string]*Session

	gwID string
}

func NewConnManager(gwID string) *ConnManager {
	return &ConnManager{
		byConn: make(map[string]*Session),
		byUser: make(map[string]map[string]*Session),
		gwID:   gwID,
	}
}

func (m *ConnManager) GwID() string { return m.gwID }

func (m *ConnManager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byConn[s.ID] = s
	if m.byUser[s.UserID] == nil {
		m.byUser[s.UserID] = make(map[string]*Session)
	}
	m.byUser[s.UserID][s.ID] = s
}

// Remove detaches the session from both indexes. Idempotent.
func (m *ConnManager) Remove(connID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byConn[connID]
	if !ok {
		return nil
	}
	delete(m.byConn, connID)
	if mm := m.byUser[s.UserID]; mm != nil {
		delete(mm, connID)
		if len(mm) == 0 {
			delete(m.byUser, s.UserID)
		}
	}
	return s
}

func (m *ConnManager) Get(connID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byConn[connID]
	return s, ok
}

// SessionsOfUser returns a snapshot of the user's live sessions.
func (m *ConnManager) SessionsOfUser(userID string) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mm := m.byUser[userID]
	out := make([]*Session, 0, len(mm))
	for _, s := range mm {
		out = append(out, s)
	}
	return out
}

func (m *ConnManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byConn)
}

// Close tears down every session, e.g. on process shutdown.
func (m *ConnManager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.byConn))
	for _, s := range m.byConn {
		sessions = append(sessions, s)
	}
	m.byConn = make(map[string]*Session)
	m.byUser = make(map[string]map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
