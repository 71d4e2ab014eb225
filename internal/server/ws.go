package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"appforge/internal/conversation"
)

const (
	sessionWSWriteWait = 10 * time.Second
	sessionWSPongWait  = 60 * time.Second
	sessionWSPingEvery = (sessionWSPongWait * 9) / 10
)

var sessionWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type sessionWSInbound struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type sessionWSOutbound struct {
	Type      string                  `json:"type"`
	SessionID string                  `json:"sessionId,omitempty"`
	Response  string                  `json:"response,omitempty"`
	Artifacts []conversation.Artifact `json:"artifacts,omitempty"`
	Code      string                  `json:"code,omitempty"`
	Message   string                  `json:"message,omitempty"`
}

// handleSessionWS streams assistant replies for one session and accepts
// "send" messages over the same connection.
func (h *Handler) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("id"))
	if sessionID == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return
	}

	conn, err := sessionWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(sessionWSPongWait)); err != nil {
		log.Printf("session ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(sessionWSPongWait))
	})

	writeCh := make(chan sessionWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(sessionWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(sessionWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(sessionWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	events, subErr := h.conversations.Subscribe(ctx, sessionID)
	if subErr != nil {
		pushSessionWS(writeCh, sessionWSOutbound{
			Type:    "error",
			Code:    "not_found",
			Message: subErr.Error(),
		})
		cancel()
		<-writerDone
		return
	}

	pushSessionWS(writeCh, sessionWSOutbound{
		Type:      "subscribed",
		SessionID: sessionID,
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				pushSessionWS(writeCh, sessionWSOutbound{
					Type:      "assistant_reply",
					SessionID: ev.SessionID,
					Response:  ev.Response,
					Artifacts: ev.Artifacts,
				})
			}
		}
	}()

	for {
		var in sessionWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushSessionWS(writeCh, sessionWSOutbound{Type: "pong"})
		case "send":
			if strings.TrimSpace(in.Message) == "" {
				pushSessionWS(writeCh, sessionWSOutbound{
					Type:    "error",
					Code:    "invalid_argument",
					Message: "message is required",
				})
				continue
			}
			// The reply also arrives via the subscription; the ack only
			// confirms the message was accepted.
			if _, err := h.conversations.SendMessage(ctx, sessionID, in.Message); err != nil {
				pushSessionWS(writeCh, sessionWSOutbound{
					Type:    "error",
					Code:    "internal",
					Message: err.Error(),
				})
				continue
			}
			pushSessionWS(writeCh, sessionWSOutbound{Type: "send_ack", SessionID: sessionID})
		default:
			pushSessionWS(writeCh, sessionWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + in.Type,
			})
		}
	}
}

func pushSessionWS(writeCh chan sessionWSOutbound, out sessionWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
