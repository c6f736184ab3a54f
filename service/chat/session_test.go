package chat

import (
	"sync"
	"testing"
	"time"
)

func testSession(user string) *Session {
	return NewSession("conn-"+user, &Identity{UserID: user}, time.Now().UTC())
}

func TestSessionEnqueueLifecycle(t *testing.T) {
	s := testSession("u1")
	if !s.Enqueue([]byte("a")) {
		t.Fatalf("enqueue on live session failed")
	}
	if got := <-s.Outbound(); string(got) != "a" {
		t.Fatalf("outbound = %q", got)
	}

	s.Close()
	if s.Enqueue([]byte("b")) {
		t.Fatalf("enqueue after close must report false")
	}
	select {
	case <-s.Done():
	default:
		t.Fatalf("Done must be closed after Close")
	}
	// idempotent
	s.Close()
}

func TestSessionEnqueueDropsWhenFull(t *testing.T) {
	s := testSession("u1")
	for i := 0; i < sendQueueSize; i++ {
		if !s.Enqueue([]byte("x")) {
			t.Fatalf("queue filled early at %d", i)
		}
	}
	if s.Enqueue([]byte("overflow")) {
		t.Fatalf("full queue must drop, not block")
	}
}

func TestSessionMarkDisconnectedStopsEnqueue(t *testing.T) {
	s := testSession("u1")
	s.markDisconnected()
	if !s.Disconnected() {
		t.Fatalf("state not terminal")
	}
	if s.Enqueue([]byte("late")) {
		t.Fatalf("disconnected session must refuse payloads")
	}
	// queue stays open for the writer to drain until Close
	select {
	case <-s.Done():
		t.Fatalf("Done must not fire before Close")
	default:
	}
}

func TestSessionTeardownOnce(t *testing.T) {
	s := testSession("u1")
	var runs int
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.teardownOnce(func() {
				mu.Lock()
				runs++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	if runs != 1 {
		t.Fatalf("teardown ran %d times", runs)
	}
}

func TestSessionScopesAndActivity(t *testing.T) {
	s := NewSession("c1", &Identity{UserID: "u1", Scopes: []string{"moderator"}}, time.Now().UTC())
	if !s.HasScope("moderator") || s.HasScope("admin") {
		t.Fatalf("scope lookup wrong")
	}
	later := time.Now().Add(time.Minute).UTC()
	s.Touch(later)
	if got := s.LastActivityAt().UnixMilli(); got != later.UnixMilli() {
		t.Fatalf("last activity = %d want %d", got, later.UnixMilli())
	}
}
