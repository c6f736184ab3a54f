package chat

// broadcastChannel delivers one payload to every member of the channel
// present on this instance, skipping excludeConn (empty = nobody excluded).
// It iterates a registry snapshot: a member that disconnected between the
// snapshot and the send just drops the payload, no retry.
func (s *Server) broadcastChannel(channelID string, payload []byte, excludeConn string) {
	if payload == nil {
		return
	}
	for _, connID := range s.rooms.MembersOf(channelID) {
		if connID == excludeConn {
			continue
		}
		sess, ok := s.conns.Get(connID)
		if !ok {
			continue
		}
		sess.Enqueue(payload)
	}
}
