package chat

import (
	"sync"
)

type Status string

const (
	StatusOnline  Status = "ONLINE"
	StatusIdle    Status = "IDLE"
	StatusDND     Status = "DND"
	StatusOffline Status = "OFFLINE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusIdle, StatusDND, StatusOffline:
		return true
	}
	return false
}

// Presence actions carried on the broker topic.
const (
	PresenceActionJoin   = "join"
	PresenceActionLeave  = "leave"
	PresenceActionUpdate = "update"
)

// PresenceEvent is the broker topic payload.
type PresenceEvent struct {
	Type string       `json:"type"` // always "presence"
	Data PresenceData `json:"data"`
}

type PresenceData struct {
	UserID       string `json:"user_id"`
	Status       Status `json:"status"`
	CustomStatus string `json:"custom_status,omitempty"`
	Action       string `json:"action"` // join | leave | update
	UpdatedAt    int64  `json:"updated_at"` // unix millis; last-write-wins tiebreaker
}

// PresenceRecord is this instance's eventually-consistent view of one user.
type PresenceRecord struct {
	UserID        string
	Status        Status
	CustomStatus  string
	LastUpdatedAt int64
}

const presenceShards = 16

// PresenceTracker aggregates a user's state across that user's possibly-many
// connections on this instance, and caches the fleet view fed in from the
// bridge. Counts are local only: NoteDisconnected reaching zero means "no
// connections left *here*", which is why OFFLINE is best-effort.
type PresenceTracker struct {
	shards [presenceShards]presenceShard
}

type presenceShard struct {
	mu      sync.Mutex
	counts  map[string]int
	records map[string]*PresenceRecord
}

func NewPresenceTracker() *PresenceTracker {
	t := &PresenceTracker{}
	for i := range t.shards {
		t.shards[i].counts = make(map[string]int)
		t.shards[i].records = make(map[string]*PresenceRecord)
	}
	return t
}

func (t *PresenceTracker) shard(userID string) *presenceShard {
	return &t.shards[shardIdx(userID)%presenceShards]
}

// NoteConnected increments the local connection count; reports whether this
// was the user's first connection on this instance. The caller publishes
// ONLINE optimistically on first-local-connection — duplicates from other
// instances are expected and absorbed by last-write-wins consumers.
func (t *PresenceTracker) NoteConnected(userID string) (first bool) {
	sh := t.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.counts[userID]++
	return sh.counts[userID] == 1
}

// NoteDisconnected decrements; reports whether the local count hit zero.
func (t *PresenceTracker) NoteDisconnected(userID string) (last bool) {
	sh := t.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	n := sh.counts[userID]
	if n <= 1 {
		delete(sh.counts, userID)
		return n == 1
	}
	sh.counts[userID] = n - 1
	return false
}

func (t *PresenceTracker) Count(userID string) int {
	sh := t.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.counts[userID]
}

// Apply folds a presence event (local echo or remote) into the cached view.
// Strictly-newer wins; a stale or duplicate event reports false, which also
// swallows the broker's self-echo after the first delivery.
func (t *PresenceTracker) Apply(d PresenceData) bool {
	sh := t.shard(d.UserID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, ok := sh.records[d.UserID]
	if ok && d.UpdatedAt <= rec.LastUpdatedAt {
		return false
	}
	sh.records[d.UserID] = &PresenceRecord{
		UserID:        d.UserID,
		Status:        d.Status,
		CustomStatus:  d.CustomStatus,
		LastUpdatedAt: d.UpdatedAt,
	}
	return true
}

// Snapshot returns the cached record for a user, if any.
func (t *PresenceTracker) Snapshot(userID string) (PresenceRecord, bool) {
	sh := t.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, ok := sh.records[userID]
	if !ok {
		return PresenceRecord{}, false
	}
	return *rec, true
}
