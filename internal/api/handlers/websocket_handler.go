package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/paces/backend/internal/dashboard"
	"github.com/paces/backend/pkg/logger"
)

// WebSocketHandler runs dashboard callbacks over one websocket per browser.
// Requests are {"type": <callback>, "id": <correlation id>, "payload": {...}}.
// Replies carry the request id with type "result" or "error"; the session is
// pushed as type "session" on connect and whenever it is replaced.
type WebSocketHandler struct {
	store     *dashboard.SessionStore
	callbacks *Callbacks
}

func NewWebSocketHandler(store *dashboard.SessionStore, callbacks *Callbacks) *WebSocketHandler {
	return &WebSocketHandler{
		store:     store,
		callbacks: callbacks,
	}
}

// Upgrade rejects plain HTTP requests to the websocket route.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Reply types.
const (
	ReplySession = "session"
	ReplyResult  = "result"
	ReplyError   = "error"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

type wsReply struct {
	Type    string      `json:"type"`
	ID      string      `json:"id"`
	Payload interface{} `json:"payload"`
}

type wsError struct {
	Error string `json:"error"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	id := c.Query("session")
	if id == "" {
		id = c.Cookies(SessionCookie)
	}
	s := h.store.GetOrCreate(id)

	logger.Info("WebSocket connection established", zap.String("session_id", s.ID))

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed", zap.String("session_id", s.ID))
	}()

	if err := h.send(c, wsReply{Type: ReplySession, Payload: h.callbacks.Session(s)}); err != nil {
		logger.Error("Failed to send session", zap.Error(err))
		return
	}

	for {
		var msg wsMessage
		err := c.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Error("Failed to read WebSocket message", zap.Error(err))
			}
			break
		}

		logger.Debug("Processing WebSocket callback", zap.String("callback", msg.Type))

		// Get also refreshes the idle timer. An expired session is replaced and the
		// browser is sent the new one.
		if _, ok := h.store.Get(s.ID); !ok {
			s = h.store.Create()
			if err := h.send(c, wsReply{Type: ReplySession, Payload: h.callbacks.Session(s)}); err != nil {
				logger.Error("Failed to send session", zap.Error(err))
				break
			}
		}

		result, err := h.callbacks.Dispatch(s, msg.Type, msg.Payload)
		reply := wsReply{Type: ReplyResult, ID: msg.ID, Payload: result}
		if err != nil {
			reply = wsReply{Type: ReplyError, ID: msg.ID, Payload: wsError{Error: err.Error()}}
		}

		if err := h.send(c, reply); err != nil {
			logger.Error("Failed to send callback result", zap.Error(err))
			break
		}
	}
}

func (h *WebSocketHandler) send(c *websocket.Conn, reply wsReply) error {
	return c.WriteJSON(reply)
}
