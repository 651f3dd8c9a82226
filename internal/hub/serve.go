package hub

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sdbench/sdb/internal/authz"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP connections to WebSocket spectator sessions.
type Handler struct {
	hub    *Hub
	jwtMgr *authz.JWTManager
}

// NewHandler creates a spectator WebSocket Handler. jwtMgr may be nil to run
// without spectator auth (e.g. local development tournaments).
func NewHandler(hub *Hub, jwtMgr *authz.JWTManager) *Handler {
	return &Handler{hub: hub, jwtMgr: jwtMgr}
}

// ServeWS handles GET /spectate — upgrades to WebSocket. Auth, when
// configured, is via a ?token= query parameter since WebSocket handshakes
// can't carry a bearer header from a browser client.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.jwtMgr != nil {
		if _, err := h.jwtMgr.ValidateToken(r.URL.Query().Get("token")); err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("spectator websocket upgrade failed")
		return
	}

	c := NewConn(wsConn, sendBufSize)
	h.hub.Register(c)

	welcome, _ := json.Marshal(WSEvent{Type: "connected", Data: map[string]any{}})
	c.send <- welcome

	go h.writePump(c, wsConn)
	go h.readPump(c, wsConn)

	log.Info().Int("total", h.hub.ConnectionCount()).Msg("spectator connected")
}

func (h *Handler) readPump(c *Conn, wsConn *websocket.Conn) {
	defer func() {
		h.hub.Unregister(c)
		wsConn.Close()
		log.Info().Msg("spectator disconnected")
	}()

	wsConn.SetReadLimit(maxMsgSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("spectator websocket unexpected close")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "subscribe":
			if msg.MatchID != "" {
				h.hub.Subscribe(c, msg.MatchID)
			}
		case "unsubscribe":
			if msg.MatchID != "" {
				h.hub.Unsubscribe(c, msg.MatchID)
			}
		}
	}
}

func (h *Handler) writePump(c *Conn, wsConn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
