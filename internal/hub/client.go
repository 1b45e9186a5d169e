package hub

import (
	"sync"
	"time"

	"github.com/ycyw/support-chat-service/internal/domain"
	"github.com/ycyw/support-chat-service/internal/log"
	"github.com/ycyw/support-chat-service/internal/stomp"
)

// Wire is the transport under a session: one native WebSocket connection or
// one SockJS session. Read returns one inbound frame's raw bytes; Ping is a
// liveness probe and is a no-op on transports that heartbeat themselves.
type Wire interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Ping() error
	Close() error
}

// Client is one realtime session. The principal is nil until handshake
// authentication succeeds and is immutable once bound.
type Client struct {
	ID   string
	Send chan []byte

	hub  *Hub
	wire Wire

	mu        sync.RWMutex
	principal *domain.Principal

	pingInterval time.Duration
}

func NewClient(id string, h *Hub, wire Wire, pingInterval time.Duration) *Client {
	return &Client{
		ID:           id,
		Send:         make(chan []byte, 256),
		hub:          h,
		wire:         wire,
		pingInterval: pingInterval,
	}
}

// BindPrincipal binds the resolved identity to the session. Only the first
// bind takes effect; the identity is fixed for the session's lifetime.
func (c *Client) BindPrincipal(p *domain.Principal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.principal != nil {
		return false
	}
	c.principal = p
	return true
}

// Principal returns the bound identity, or nil for an unauthenticated
// session.
func (c *Client) Principal() *domain.Principal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.principal
}

// SendFrame enqueues a server frame for delivery. Delivery is best-effort:
// a full buffer drops the frame instead of blocking the caller.
func (c *Client) SendFrame(f *stomp.Frame) {
	c.enqueue(f.Marshal())
}

// enqueue queues raw frame bytes and reports whether they were accepted.
// It returns false for a full buffer or a session already torn down.
// Enqueueing races session teardown closing the channel; a frame lost to a
// dying session is equivalent to the session being gone already, so the
// send-on-closed panic is absorbed here.
func (c *Client) enqueue(data []byte) (queued bool) {
	defer func() {
		if recover() != nil {
			queued = false
		}
	}()
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// ReadPump reads inbound frames and hands them to the handler, one at a
// time. Per-session frame ordering follows from this single loop. It
// returns when the transport fails or closes; the caller is responsible for
// session teardown.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer c.wire.Close()
	for {
		data, err := c.wire.Read()
		if err != nil {
			log.L().Debug().Str(log.FieldSessionID, c.ID).Err(err).Msg("read loop ended")
			return
		}
		handler(c, data)
	}
}

// WritePump drains the send buffer onto the wire and probes liveness on a
// ticker. It exits when the session is unregistered (Send closed) or the
// transport fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.wire.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.wire.Write(data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.wire.Ping(); err != nil {
				return
			}
		}
	}
}
