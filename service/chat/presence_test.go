package chat

import (
	"fmt"
	"sync"
	"testing"
)

func TestPresenceConnectionCounting(t *testing.T) {
	tr := NewPresenceTracker()

	if !tr.NoteConnected("u1") {
		t.Fatalf("first connection must report first=true")
	}
	if tr.NoteConnected("u1") {
		t.Fatalf("second connection must not report first")
	}
	if got := tr.Count("u1"); got != 2 {
		t.Fatalf("count = %d", got)
	}
	if tr.NoteDisconnected("u1") {
		t.Fatalf("one connection still open, not last")
	}
	if !tr.NoteDisconnected("u1") {
		t.Fatalf("closing the final connection must report last=true")
	}
	if got := tr.Count("u1"); got != 0 {
		t.Fatalf("count after full disconnect = %d", got)
	}
	// underflow guard
	if tr.NoteDisconnected("u1") {
		t.Fatalf("disconnect with no connections must not report last")
	}
}

func TestPresenceApplyLastWriteWins(t *testing.T) {
	tr := NewPresenceTracker()

	if !tr.Apply(PresenceData{UserID: "u1", Status: StatusOnline, UpdatedAt: 100}) {
		t.Fatalf("first event must apply")
	}
	// duplicate echo at the same stamp is dropped
	if tr.Apply(PresenceData{UserID: "u1", Status: StatusOnline, UpdatedAt: 100}) {
		t.Fatalf("equal stamp must not apply")
	}
	// stale event arriving late is dropped
	if tr.Apply(PresenceData{UserID: "u1", Status: StatusDND, UpdatedAt: 50}) {
		t.Fatalf("older stamp must not apply")
	}
	if !tr.Apply(PresenceData{UserID: "u1", Status: StatusIdle, CustomStatus: "brb", UpdatedAt: 150}) {
		t.Fatalf("newer stamp must apply")
	}

	rec, ok := tr.Snapshot("u1")
	if !ok || rec.Status != StatusIdle || rec.CustomStatus != "brb" || rec.LastUpdatedAt != 150 {
		t.Fatalf("snapshot = %+v ok=%v", rec, ok)
	}
	if _, ok := tr.Snapshot("nobody"); ok {
		t.Fatalf("snapshot of unknown user must report ok=false")
	}
}

func TestPresenceConcurrentCounts(t *testing.T) {
	tr := NewPresenceTracker()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", i%4)
			for n := 0; n < 100; n++ {
				tr.NoteConnected(user)
				tr.NoteDisconnected(user)
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < 4; i++ {
		if got := tr.Count(fmt.Sprintf("u%d", i)); got != 0 {
			t.Fatalf("u%d count = %d after balanced churn", i, got)
		}
	}
}
