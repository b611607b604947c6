package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"courier/internal/domain"
	"courier/internal/sessions"
)

// closeGrace bounds how long a close frame write may take.
const closeGrace = time.Second

// wsConn adapts a gorilla connection to the sessions.Conn contract. Frame
// writes are already serialised by the session's write mutex; WriteControl
// is safe to call concurrently with them.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v any) error { return c.conn.WriteJSON(v) }

func (c *wsConn) WriteRaw(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close(reason string) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	return c.conn.Close()
}

// handleWS upgrades the connection, opens a session and runs its read loop
// until the transport fails or the session is closed elsewhere.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}

	sess := s.sessions.Open(&wsConn{conn: conn})
	s.readLoop(sess, conn)
}

// readLoop drains inbound frames and dispatches them. Only a transport
// failure ends the loop; malformed frames draw an error reply and the
// session stays open.
func (s *Server) readLoop(sess *sessions.Session, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.sessions.Close(sess.ID, "connection closed")
			return
		}
		s.sessions.Touch(sess.ID)
		s.dispatch(sess, data)
	}
}

// dispatch routes one inbound frame by its type tag.
func (s *Server) dispatch(sess *sessions.Session, data []byte) {
	var frame domain.InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.sendError(sess, "malformed frame")
		return
	}

	switch frame.Type {
	case domain.FrameRegisterUser:
		if frame.ContactCode == "" {
			s.sendError(sess, "contactCode is required")
			return
		}
		if err := s.sessions.Bind(sess.ID, frame.ContactCode); err != nil {
			// The session raced a close; the reader is about to exit.
			return
		}
		if err := sess.WriteJSON(domain.RegistrationSuccessFrame{
			Type:      domain.FrameRegistrationSuccess,
			SessionID: sess.ID,
		}); err != nil {
			s.sessions.Close(sess.ID, "write failed")
		}

	case domain.FrameStatusUpdate:
		if frame.Status != "" {
			s.sessions.SetStatus(sess.ID, frame.Status)
		}
		s.engine.Broadcast(data)

	case domain.FrameRealTimeMessage:
		if frame.RecipientContactCode == "" {
			s.sendError(sess, "recipientContactCode is required")
			return
		}
		s.engine.Forward(frame.RecipientContactCode, data)

	default:
		s.sendError(sess, "unknown message type: "+frame.Type)
	}
}

// sendError replies with an error frame, closing the session only if even
// that write fails.
func (s *Server) sendError(sess *sessions.Session, msg string) {
	if err := sess.WriteJSON(domain.NewError(msg)); err != nil {
		s.sessions.Close(sess.ID, "write failed")
	}
}
