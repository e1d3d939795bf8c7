package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/imamik/stackpilot/internal/metrics"
	"github.com/imamik/stackpilot/internal/router"
)

// Websocket message types.
const (
	MessageFragment = "fragment"
	MessageDone     = "done"
	MessageError    = "error"
)

// Message is one server-to-client websocket message.
type Message struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.V(1).Info("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)

	var req router.Request
	if err := conn.ReadJSON(&req); err != nil {
		_ = writeMessage(conn, Message{Type: MessageError, Error: "invalid request: " + err.Error()})
		closeConn(conn, websocket.CloseUnsupportedData, "invalid request")
		return
	}
	req.SessionID = sessionID(r, req.SessionID)
	log := s.log.WithValues("session", req.SessionID, "transport", "websocket")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Any read failure after the request means the client is gone.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	out := s.runner.Run(ctx, req)
	for frag := range out {
		if err := writeMessage(conn, Message{Type: MessageFragment, Text: frag.Text}); err != nil {
			log.V(1).Info("client went away", "error", err.Error())
			cancel()
			drain(out)
			return
		}
		metrics.RecordFragment("websocket")
	}

	if ctx.Err() != nil {
		return
	}
	if err := writeMessage(conn, Message{Type: MessageDone}); err != nil {
		return
	}
	closeConn(conn, websocket.CloseNormalClosure, "")
}

func writeMessage(conn *websocket.Conn, msg Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

func closeConn(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsWriteTimeout))
}
