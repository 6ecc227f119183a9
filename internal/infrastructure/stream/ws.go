package stream

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Command is a message a WebSocket client may send.
type Command struct {
	Action  string               `json:"action"` // "submit" or "reset"
	Request review.ReviewRequest `json:"request"`
}

// wsMessage is the envelope written to WebSocket clients.
type wsMessage struct {
	Type     string          `json:"type"` // "snapshot" or "error"
	ID       uint64          `json:"id,omitempty"`
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// WSHandler streams snapshots over a WebSocket and accepts submit and
// reset commands from the client.
type WSHandler struct {
	hub      *Hub
	session  *submission.Session
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a handler. Any origin is accepted; the server is
// meant to listen on localhost.
func NewWSHandler(hub *Hub, session *submission.Session, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		hub:     hub,
		session: session,
		logger:  logger,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 5 * time.Second,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
	}
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(msg wsMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// ServeHTTP upgrades the connection and runs it until either side closes.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade websocket", zap.Error(err))
		return
	}
	client := &wsConn{conn: conn}
	log := h.logger.With(zap.String("remote", conn.RemoteAddr().String()))
	log.Info("websocket connected")

	ch, last := h.hub.subscribe()
	done := make(chan struct{})
	var wg sync.WaitGroup
	defer func() {
		close(done)
		h.hub.unsubscribe(ch)
		_ = conn.Close()
		wg.Wait()
	}()

	if last != nil {
		_ = client.send(snapshotMessage(*last))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case ev := <-ch:
				if err := client.send(snapshotMessage(ev)); err != nil {
					return
				}
			}
		}
	}()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket unexpected close", zap.Error(err))
			} else {
				log.Info("websocket closed")
			}
			return
		}
		if err := h.apply(cmd); err != nil {
			_ = client.send(wsMessage{Type: "error", Error: err.Error()})
		}
	}
}

func (h *WSHandler) apply(cmd Command) error {
	switch cmd.Action {
	case "submit":
		_, err := h.session.Submit(cmd.Request)
		return err
	case "reset":
		h.session.Reset()
		return nil
	default:
		return errors.New("unknown action: " + cmd.Action)
	}
}

func snapshotMessage(ev Event) wsMessage {
	return wsMessage{Type: "snapshot", ID: ev.ID, Snapshot: ev.Data}
}
