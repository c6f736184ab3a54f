package chat

import (
	"hash/fnv"
	"sync"
)

const registryShards = 32

// Registry is the process-local room membership cache: which connections are
// actively listening on which channels. Authoritative membership lives in the
// store; the registry only mirrors successful joins.
//
// Both directions are kept: channel -> connections and connection ->
// channels. Locking is sharded by channel ID and by connection ID so
// unrelated traffic never serializes. Every mutation takes the channel shard
// lock first, then the connection shard lock, and updates both maps before
// either lock is released, so the two indexes never disagree.
type Registry struct {
	channels [registryShards]channelShard
	conns    [registryShards]connShard
}

type channelShard struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // channelID -> set of connID
}

type connShard struct {
	mu     sync.RWMutex
	joined map[string]map[string]struct{} // connID -> set of channelID
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.channels {
		r.channels[i].rooms = make(map[string]map[string]struct{})
	}
	for i := range r.conns {
		r.conns[i].joined = make(map[string]map[string]struct{})
	}
	return r
}

func shardIdx(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % registryShards
}

// Join adds the connection to the channel after the authorization capability
// approves it. Idempotent: a connection already in the channel reports false
// with no error and the check is skipped. check runs with no registry lock
// held.
func (r *Registry) Join(connID, channelID string, check func() error) (bool, error) {
	if r.Joined(connID, channelID) {
		return false, nil
	}
	if check != nil {
		if err := check(); err != nil {
			return false, err
		}
	}

	cs := &r.channels[shardIdx(channelID)]
	ns := &r.conns[shardIdx(connID)]
	cs.mu.Lock()
	ns.mu.Lock()
	defer cs.mu.Unlock()
	defer ns.mu.Unlock()
	if _, ok := ns.joined[connID][channelID]; ok {
		// lost the race with an identical join; still idempotent
		return false, nil
	}
	if cs.rooms[channelID] == nil {
		cs.rooms[channelID] = make(map[string]struct{})
	}
	cs.rooms[channelID][connID] = struct{}{}
	if ns.joined[connID] == nil {
		ns.joined[connID] = make(map[string]struct{})
	}
	ns.joined[connID][channelID] = struct{}{}
	return true, nil
}

// Leave removes the connection from the channel. Idempotent; reports whether
// a membership was actually removed.
func (r *Registry) Leave(connID, channelID string) bool {
	cs := &r.channels[shardIdx(channelID)]
	ns := &r.conns[shardIdx(connID)]
	cs.mu.Lock()
	ns.mu.Lock()
	defer cs.mu.Unlock()
	defer ns.mu.Unlock()

	room, ok := cs.rooms[channelID]
	if !ok {
		return false
	}
	if _, ok := room[connID]; !ok {
		return false
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(cs.rooms, channelID)
	}
	if set := ns.joined[connID]; set != nil {
		delete(set, channelID)
		if len(set) == 0 {
			delete(ns.joined, connID)
		}
	}
	return true
}

// LeaveAll removes every membership of the connection and returns the
// channels that were affected, so the caller can emit leave notices. Called
// once per disconnect.
func (r *Registry) LeaveAll(connID string) []string {
	channels := r.ChannelsOf(connID)
	affected := make([]string, 0, len(channels))
	for _, ch := range channels {
		if r.Leave(connID, ch) {
			affected = append(affected, ch)
		}
	}
	return affected
}

// MembersOf returns a point-in-time snapshot of the channel's connections.
// Callers iterate the snapshot tolerating connections that vanish mid-way.
func (r *Registry) MembersOf(channelID string) []string {
	cs := &r.channels[shardIdx(channelID)]
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	room := cs.rooms[channelID]
	out := make([]string, 0, len(room))
	for connID := range room {
		out = append(out, connID)
	}
	return out
}

// ChannelsOf returns a snapshot of the channels the connection has joined.
func (r *Registry) ChannelsOf(connID string) []string {
	ns := &r.conns[shardIdx(connID)]
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	set := ns.joined[connID]
	out := make([]string, 0, len(set))
	for ch := range set {
		out = append(out, ch)
	}
	return out
}

func (r *Registry) Joined(connID, channelID string) bool {
	ns := &r.conns[shardIdx(connID)]
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	_, ok := ns.joined[connID][channelID]
	return ok
}
