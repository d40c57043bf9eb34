package websocket

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/playsetlabs/partyroom-backend/internal/session"
)

const outboxSize = 16

// client wraps one upgraded connection. Gorilla supports a single
// concurrent writer, and both the write pump and the read side's error
// replies write, so every write funnels through writeJSON.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (that *client) writeJSON(v any) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.conn.WriteJSON(v)
}

func (that *client) close() {
	_ = that.conn.Close()
}

// Handler upgrades HTTP requests to websocket connections and bridges them
// to the room session named by the ?code= query parameter.
type Handler struct {
	logger   *slog.Logger
	hub      *session.Hub
	upgrader websocket.Upgrader
}

func NewHandler(logger *slog.Logger, hub *session.Hub) *Handler {
	return &Handler{
		logger: logger.With("component", "websocket"),
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (that *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	reply := make(chan *session.Session, 1)
	that.hub.Inbox() <- session.EnsureSession{Code: code, Reply: reply}
	s := <-reply
	if s == nil {
		http.Error(w, "room unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		that.logger.Error("upgrade failed", "code", code, "error", err)
		return
	}

	connID := uuid.NewString()
	outbox := make(chan session.Event, outboxSize)
	c := &client{conn: conn}

	log := that.logger.With("code", code, "conn", connID)
	log.Info("connection opened")

	go that.writePump(log, c, outbox)
	that.readPump(log, c, s, connID, outbox)
}

// readPump forwards decoded client messages into the session until the
// connection drops, then unbinds the connection. The session closes the
// outbox on Leave, which stops the write pump.
func (that *Handler) readPump(log *slog.Logger, c *client, s *session.Session, connID string, outbox chan session.Event) {
	defer func() {
		s.Inbox() <- session.Leave{ConnID: connID}
		c.close()
		log.Info("connection closed")
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("read failed", "error", err)
			}
			return
		}

		msg, err := decodeMessage(connID, outbox, raw)
		if err != nil {
			log.Warn("rejected message", "error", err)
			_ = c.writeJSON(errorMessage(err.Error()))
			continue
		}

		s.Inbox() <- msg
	}
}

// writePump drains the outbox until the session closes it.
func (that *Handler) writePump(log *slog.Logger, c *client, outbox chan session.Event) {
	for ev := range outbox {
		msg, err := encodeEvent(ev)
		if err != nil {
			log.Error("failed to encode event", "error", err)
			continue
		}

		if err = c.writeJSON(msg); err != nil {
			log.Warn("write failed", "error", err)
			c.close()
			return
		}
	}
	c.close()
}
