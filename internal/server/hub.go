package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket で配信するイベントの種類です。
const (
	EventView         = "view"
	EventSelectKey    = "select_key"
	EventKeySelected  = "key_selected"
	EventKeyCancelled = "key_cancelled"
)

const (
	clientSendBuffer = 64
	writeWait        = 10 * time.Second
)

// Event はブラウザへ送るメッセージです。
type Event struct {
	Type    string     `json:"type"`
	Variant string     `json:"variant,omitempty"`
	View    *ViewState `json:"view,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hub はひとつのセッションに接続しているブラウザの集合なのだ。
type hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{})}
}

func (h *hub) add(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast は全クライアントへイベントを送ります。送信バッファが詰まっているクライアントには落とすのだ。
func (h *hub) broadcast(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		slog.Error("イベントのエンコードに失敗しました", "type", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			slog.Warn("送信バッファが一杯のためイベントを破棄しました", "type", ev.Type)
		}
	}
}

// closeAll は接続を切断します。読み込みループ側が remove を呼ぶのだ。
func (h *hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Warn("WebSocket への書き込みに失敗しました", "error", err)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
