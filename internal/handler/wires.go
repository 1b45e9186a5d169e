package handler

import (
	"time"

	"github.com/gorilla/websocket"
	sockjs "github.com/igm/sockjs-go/v3/sockjs"

	"github.com/ycyw/support-chat-service/internal/config"
)

// wsWire adapts a native gorilla connection to hub.Wire. Read runs on the
// session's read pump, Write and Ping on its write pump; gorilla allows one
// concurrent reader and one concurrent writer, which is exactly that split.
type wsWire struct {
	conn *websocket.Conn
	cfg  config.WebSocketConfig
}

func newWSWire(conn *websocket.Conn, cfg config.WebSocketConfig) *wsWire {
	conn.SetReadLimit(cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
		return nil
	})
	return &wsWire{conn: conn, cfg: cfg}
}

func (w *wsWire) Read() ([]byte, error) {
	_, data, err := w.conn.ReadMessage()
	return data, err
}

func (w *wsWire) Write(data []byte) error {
	w.conn.SetWriteDeadline(time.Now().Add(w.cfg.WriteWait))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsWire) Ping() error {
	w.conn.SetWriteDeadline(time.Now().Add(w.cfg.WriteWait))
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

func (w *wsWire) Close() error {
	return w.conn.Close()
}

// sockjsWire adapts a SockJS session. The SockJS protocol heartbeats on its
// own, so Ping is a no-op.
type sockjsWire struct {
	session sockjs.Session
}

func (w *sockjsWire) Read() ([]byte, error) {
	msg, err := w.session.Recv()
	return []byte(msg), err
}

func (w *sockjsWire) Write(data []byte) error {
	return w.session.Send(string(data))
}

func (w *sockjsWire) Ping() error {
	return nil
}

func (w *sockjsWire) Close() error {
	return w.session.Close(3000, "going away")
}
