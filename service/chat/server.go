package chat

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/notdezzi/freedomtalk/config"
	"github.com/notdezzi/freedomtalk/logger"
	"github.com/notdezzi/freedomtalk/service/bridge"
	"github.com/notdezzi/freedomtalk/service/storage"
	"github.com/notdezzi/freedomtalk/tools/errs"
)

const storeCallTimeout = 5 * time.Second

// Options wires the gateway's collaborators. Everything is injected; the
// server holds no globals.
type Options struct {
	GatewayID     string
	Verifier      TokenVerifier
	Store         storage.Store
	Bridge        bridge.Bridge
	PresenceKeys  *storage.PresenceKeys // optional fleet-visible hint keys
	PresenceTopic string
	AuthFailMode  config.AuthFailMode
}

// Server is one gateway instance: it owns the sessions accepted here, the
// local room registry and presence view, and talks to the shared store and
// broker.
type Server struct {
	gatewayID     string
	verifier      TokenVerifier
	conns         *ConnManager
	rooms         *Registry
	presence      *PresenceTracker
	store         storage.Store
	bridge        bridge.Bridge
	pkeys         *storage.PresenceKeys
	disp          *Dispatcher
	presenceTopic string
	failClosed    bool

	presenceMS atomic.Int64 // last published presence stamp, kept strictly increasing
}

func NewServer(o Options) *Server {
	s := &Server{
		gatewayID:     o.GatewayID,
		verifier:      o.Verifier,
		conns:         NewConnManager(o.GatewayID),
		rooms:         NewRegistry(),
		presence:      NewPresenceTracker(),
		store:         o.Store,
		bridge:        o.Bridge,
		pkeys:         o.PresenceKeys,
		disp:          NewDispatcher(),
		presenceTopic: o.PresenceTopic,
		failClosed:    o.AuthFailMode == config.AuthFailClosed,
	}
	if s.presenceTopic == "" {
		s.presenceTopic = "presence"
	}
	for _, h := range []Handler{
		&joinHandler{s}, &leaveHandler{s},
		&messageSendHandler{s}, &messageEditHandler{s}, &messageDeleteHandler{s},
		&reactionAddHandler{s}, &reactionRemoveHandler{s},
		&typingHandler{s, KindTypingStart}, &typingHandler{s, KindTypingStop},
		&presenceUpdateHandler{s},
	} {
		s.disp.Register(h)
	}
	return s
}

func (s *Server) Conns() *ConnManager       { return s.conns }
func (s *Server) Rooms() *Registry          { return s.rooms }
func (s *Server) Presence() *PresenceTracker { return s.presence }

// Start installs the standing bridge subscription. The returned cancel func
// tears it down on shutdown.
func (s *Server) Start(ctx context.Context) (func(), error) {
	return s.bridge.Subscribe(ctx, s.presenceTopic, s.handlePresenceDelivery)
}

// Shutdown closes every live session.
func (s *Server) Shutdown() {
	s.conns.Close()
}

// Attach registers an already-verified session with the gateway and runs the
// first-connection presence bookkeeping. The transport layer (websocket) and
// tests both enter here.
func (s *Server) Attach(sess *Session) {
	s.conns.Add(sess)
	if s.presence.NoteConnected(sess.UserID) {
		// first local connection; fleet-wide is unknown, publish optimistically
		s.publishPresence(sess.UserID, StatusOnline, "", PresenceActionJoin)
		if s.pkeys != nil {
			ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
			if err := s.pkeys.Online(ctx, sess.UserID, s.gatewayID); err != nil {
				logger.Warnf("[presence] online key user=%s: %v", sess.UserID, err)
			}
			cancel()
		}
	}
	logger.Infof("[gateway] session attached conn=%s user=%s", sess.ID, sess.UserID)
}

// Detach runs the disconnect cleanup exactly once per session, no matter how
// many teardown signals race: leave every room, emit leave notices, decrement
// presence, and publish OFFLINE when the local count hits zero.
func (s *Server) Detach(sess *Session) {
	sess.teardownOnce(func() {
		sess.markDisconnected()
		now := time.Now().UTC()

		affected := s.rooms.LeaveAll(sess.ID)
		for _, ch := range affected {
			s.broadcastChannel(ch, BuildChannelLeave(ch, sess.UserID, now), "")
		}

		s.conns.Remove(sess.ID)

		if s.presence.NoteDisconnected(sess.UserID) {
			s.publishPresence(sess.UserID, StatusOffline, "", PresenceActionLeave)
			if s.pkeys != nil {
				ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
				if err := s.pkeys.Offline(ctx, sess.UserID); err != nil {
					logger.Warnf("[presence] offline key user=%s: %v", sess.UserID, err)
				}
				cancel()
			}
		}

		sess.Close()
		logger.Infof("[gateway] session detached conn=%s user=%s channels=%d",
			sess.ID, sess.UserID, len(affected))
	})
}

// HandleEvent runs one inbound frame through the router. Authorization and
// validation failures come back as CodeErrors and are answered on the
// originating session only; the event is dropped either way and the
// connection stays up.
func (s *Server) HandleEvent(ctx context.Context, sess *Session, f *Frame) {
	if err := s.disp.Dispatch(ctx, sess, f); err != nil {
		ce := errs.AsCodeError(err)
		if ce.Code == errs.CodeInternal {
			logger.Errorf("[router] kind=%s conn=%s: %v", f.Kind, sess.ID, err)
		} else {
			logger.Debugf("[router] rejected kind=%s conn=%s: %v", f.Kind, sess.ID, err)
		}
		sess.Enqueue(BuildErrorReply(f.Kind, ce))
	}
}

// ---- broker plumbing ----

// presenceStamp returns wall-clock millis forced strictly past the previous
// stamp, so consecutive publishes from this instance never tie under the
// consumers' last-write-wins rule.
func (s *Server) presenceStamp() int64 {
	now := time.Now().UnixMilli()
	for {
		last := s.presenceMS.Load()
		if now <= last {
			now = last + 1
		}
		if s.presenceMS.CompareAndSwap(last, now) {
			return now
		}
	}
}

func (s *Server) publishPresence(userID string, st Status, custom, action string) {
	ev := PresenceEvent{
		Type: "presence",
		Data: PresenceData{
			UserID:       userID,
			Status:       st,
			CustomStatus: custom,
			Action:       action,
			UpdatedAt:    s.presenceStamp(),
		},
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("[presence] marshal event: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
	defer cancel()
	if err := s.bridge.Publish(ctx, s.presenceTopic, payload); err != nil {
		// best-effort: other instances self-heal on the next update
		logger.Errorf("[presence] publish user=%s: %v", userID, err)
	}
}

// handlePresenceDelivery receives every presence event published by any
// instance, this one included. Stale and duplicate events (our own echo
// among them) fail the last-write-wins check and are dropped; fresh ones are
// broadcast to the locally-connected members of the user's channels.
func (s *Server) handlePresenceDelivery(payload []byte) {
	var ev PresenceEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		logger.Warnf("[presence] bad broker payload: %v", err)
		return
	}
	if ev.Type != "presence" || ev.Data.UserID == "" || !ev.Data.Status.Valid() {
		return
	}
	if !s.presence.Apply(ev.Data) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
	defer cancel()
	channels, err := s.store.ChannelsOfUser(ctx, ev.Data.UserID)
	if err != nil {
		logger.Errorf("[presence] channels of user=%s: %v", ev.Data.UserID, err)
		return
	}
	out := BuildPresenceBroadcast(ev.Data)
	for _, ch := range channels {
		s.broadcastChannel(ch, out, "")
	}
}

// checkMembership is the authorization capability backed by the store. A
// store failure is an internal error by default; with fail-closed policy it
// rejects like a failed member check instead.
func (s *Server) checkMembership(ctx context.Context, channelID, userID string) error {
	ok, err := s.store.IsChannelMember(ctx, channelID, userID)
	if err != nil {
		if s.failClosed {
			return errs.ErrNotAMember.WithDetail("membership check unavailable")
		}
		logger.Errorf("[router] membership check channel=%s user=%s: %v", channelID, userID, err)
		return errs.ErrInternal
	}
	if !ok {
		return errs.ErrNotAMember
	}
	return nil
}
