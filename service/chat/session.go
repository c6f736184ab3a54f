package chat

import (
	"sync"
	"sync/atomic"
	"time"
)

// Session states. A session is created only after the credential check
// passed, so it is born authenticated; Disconnected is terminal.
const (
	stateAuthenticated int32 = iota
	stateDisconnected
)

const sendQueueSize = 64

// Session is the per-connection state owned by this gateway process. It is
// transport-agnostic: the websocket layer pumps Outbound() to the peer, the
// router enqueues into it. Never shared across processes.
type Session struct {
	ID            string
	UserID        string
	Scopes        []string
	EstablishedAt time.Time

	lastActivity atomic.Int64
	state        atomic.Int32

	send     chan []byte
	closed   chan struct{}
	closeOne sync.Once
	downOne  sync.Once
}

func NewSession(connID string, id *Identity, now time.Time) *Session {
	s := &Session{
		ID:            connID,
		UserID:        id.UserID,
		Scopes:        id.Scopes,
		EstablishedAt: now,
		send:          make(chan []byte, sendQueueSize),
		closed:        make(chan struct{}),
	}
	s.lastActivity.Store(now.UnixMilli())
	return s
}

func (s *Session) HasScope(scope string) bool {
	for _, sc := range s.Scopes {
		if sc == scope {
			return true
		}
	}
	return false
}

// Enqueue hands a payload to the session's writer. Non-blocking: a closed
// session or a full queue drops the payload and reports false. The
// broadcaster treats such drops as a disconnect-in-progress, not an error.
func (s *Session) Enqueue(payload []byte) bool {
	if s.Disconnected() {
		return false
	}
	select {
	case <-s.closed:
		return false
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// Outbound is drained by the transport writer goroutine.
func (s *Session) Outbound() <-chan []byte { return s.send }

// Done is closed when the session is torn down.
func (s *Session) Done() <-chan struct{} { return s.closed }

// Close is idempotent; concurrent disconnect signals collapse into one.
func (s *Session) Close() {
	s.closeOne.Do(func() {
		s.state.Store(stateDisconnected)
		close(s.closed)
	})
}

// markDisconnected flips the state machine to its terminal state without
// closing the queue, so in-flight broadcasts drain instead of racing.
func (s *Session) markDisconnected() {
	s.state.Store(stateDisconnected)
}

func (s *Session) Disconnected() bool {
	return s.state.Load() == stateDisconnected
}

func (s *Session) Touch(now time.Time) {
	s.lastActivity.Store(now.UnixMilli())
}

func (s *Session) LastActivityAt() time.Time {
	return time.UnixMilli(s.lastActivity.Load())
}

// teardownOnce guards the disconnect cleanup path (leaveAll + presence
// decrement) so read-error and explicit logout racing run it exactly once.
func (s *Session) teardownOnce(fn func()) {
	s.downOne.Do(fn)
}
