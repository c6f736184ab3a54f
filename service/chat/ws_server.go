package chat

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/notdezzi/freedomtalk/logger"
	"github.com/notdezzi/freedomtalk/tools/errs"
	"github.com/notdezzi/freedomtalk/tools/ids"
)

const (
	readLimit     = 1 << 20 // 1MB
	pongWait      = 60 * time.Second
	pingEvery     = 25 * time.Second
	writeDeadline = 5 * time.Second

	// malformed frames tolerated before the connection is treated as a
	// protocol violator and closed
	maxProtocolViolations = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS authenticates and upgrades one client connection, then runs its
// read loop until the transport dies. The credential rides the query string
// or the Authorization header and is checked before the upgrade, so a
// refused connection never allocates session state.
func (s *Server) HandleWS(c *gin.Context) {
	identity, err := s.verifier.Verify(c.Request.Context(), bearerToken(c))
	if err != nil {
		ce := errs.AsCodeError(err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": ce.Msg, "code": ce.Code})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed: %v", err)
		return
	}

	now := time.Now().UTC()
	sess := NewSession(ids.GenerateString(), identity, now)
	s.Attach(sess)

	go s.writePump(ws, sess)
	s.readLoop(ws, sess)

	s.Detach(sess)
}

// writePump is the only goroutine writing data frames to the socket; control
// frames (ping/close) go through WriteControl which gorilla allows
// concurrently.
func (s *Server) writePump(ws *websocket.Conn, sess *Session) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	defer func() { _ = ws.Close() }()

	for {
		select {
		case payload := <-sess.Outbound():
			_ = ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debugf("[ws] write conn=%s: %v", sess.ID, err)
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		case <-sess.Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeDeadline))
			return
		}
	}
}

func (s *Server) readLoop(ws *websocket.Conn, sess *Session) {
	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		sess.Touch(time.Now())
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	violations := 0
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s", sess.ID)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s", sess.ID)
			} else {
				logger.Infof("[ws] read conn=%s: %v", sess.ID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		sess.Touch(time.Now())

		f, perr := ParseFrame(data)
		if perr != nil {
			violations++
			sess.Enqueue(BuildErrorReply("", errs.AsCodeError(perr)))
			if violations >= maxProtocolViolations {
				logger.Warnf("[ws] too many malformed frames conn=%s user=%s, closing", sess.ID, sess.UserID)
				return
			}
			continue
		}

		s.HandleEvent(context.Background(), sess, f)
		if sess.Disconnected() {
			return
		}
	}
}

func bearerToken(c *gin.Context) string {
	if tok := strings.TrimSpace(c.Query("token")); tok != "" {
		return tok
	}
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}
