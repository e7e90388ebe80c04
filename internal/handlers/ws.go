package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/services"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 90 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
)

// FeedHandler streams newly posted comments over WebSocket.
type FeedHandler struct {
	hub      *services.Hub
	upgrader websocket.Upgrader
}

// NewFeedHandler accepts connections from allowedOrigins ("*" allows any).
// Requests without an Origin header are not from a browser and are allowed.
func NewFeedHandler(hub *services.Hub, allowedOrigins []string) *FeedHandler {
	return &FeedHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, a := range allowedOrigins {
					if a == "*" || strings.EqualFold(a, origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

// Serve handles GET /ws/comments. Clients only receive; anything they send is discarded.
func (h *FeedHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(feedPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
