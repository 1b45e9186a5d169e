// Package hub is the in-memory broker substrate: it owns session and
// subscription bookkeeping and delivers published frames to current
// subscribers. Business logic never iterates this state directly; it only
// goes through Subscribe/Unsubscribe/Publish.
package hub

import (
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/ycyw/support-chat-service/internal/domain"
	"github.com/ycyw/support-chat-service/internal/log"
	"github.com/ycyw/support-chat-service/internal/stomp"
)

// Subscription binds a session to a topic or a private user queue. It lives
// from the SUBSCRIBE frame until UNSUBSCRIBE or session teardown.
type Subscription struct {
	ID          string
	Client      *Client
	Destination string

	// routeKey is the delivery table key: the destination itself for
	// topics, or a per-user key for /user/... destinations.
	routeKey string
}

// Hub holds process-wide broker state. Delivery is at-most-once per
// subscription per publish; a slow consumer whose buffer is full is dropped
// rather than blocking the broadcast path.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*Client
	routes    map[string]map[string]*Subscription // routeKey -> subKey -> sub
	bySession map[string]map[string]*Subscription // clientID -> subID -> sub
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		routes:    make(map[string]map[string]*Subscription),
		bySession: make(map[string]map[string]*Subscription),
	}
}

func userQueueKey(userID int64, queue string) string {
	return "user:" + strconv.FormatInt(userID, 10) + queue
}

func subKey(clientID, subID string) string {
	return clientID + ":" + subID
}

// Register adds a session to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	log.L().Debug().Str(log.FieldSessionID, c.ID).Msg("session registered")
}

// Unregister removes a session and cascades the destroy to all of its
// subscriptions. The removed subscriptions are returned so callers can do
// their own bookkeeping (presence registry, audit).
func (h *Hub) Unregister(c *Client) []*Subscription {
	h.mu.Lock()
	removed := make([]*Subscription, 0, len(h.bySession[c.ID]))
	for _, sub := range h.bySession[c.ID] {
		h.dropRouteLocked(sub)
		removed = append(removed, sub)
	}
	delete(h.bySession, c.ID)
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.Send)
	}
	h.mu.Unlock()

	log.L().Debug().Str(log.FieldSessionID, c.ID).Int("subscriptions", len(removed)).Msg("session unregistered")
	return removed
}

// Subscribe binds the session to a destination under the client-chosen
// subscription id. A /user/... destination requires a bound principal and is
// routed to the per-user queue of that principal. Re-using a subscription id
// replaces the previous binding.
func (h *Hub) Subscribe(c *Client, subID, destination string) (*Subscription, error) {
	routeKey := destination
	if stomp.IsUserDestination(destination) {
		p := c.Principal()
		if p == nil {
			return nil, domain.ErrMissingIdentity
		}
		routeKey = userQueueKey(p.UserID, stomp.StripUserPrefix(destination))
	}

	sub := &Subscription{ID: subID, Client: c, Destination: destination, routeKey: routeKey}

	h.mu.Lock()
	if prev, ok := h.bySession[c.ID][subID]; ok {
		h.dropRouteLocked(prev)
	}
	if h.bySession[c.ID] == nil {
		h.bySession[c.ID] = make(map[string]*Subscription)
	}
	h.bySession[c.ID][subID] = sub
	if h.routes[routeKey] == nil {
		h.routes[routeKey] = make(map[string]*Subscription)
	}
	h.routes[routeKey][subKey(c.ID, subID)] = sub
	h.mu.Unlock()

	return sub, nil
}

// Unsubscribe removes one subscription; it reports the destroyed
// subscription, or nil when the id was unknown for this session.
func (h *Hub) Unsubscribe(c *Client, subID string) *Subscription {
	h.mu.Lock()
	sub, ok := h.bySession[c.ID][subID]
	if ok {
		h.dropRouteLocked(sub)
		delete(h.bySession[c.ID], subID)
	}
	h.mu.Unlock()
	if !ok {
		return nil
	}
	return sub
}

func (h *Hub) dropRouteLocked(sub *Subscription) {
	subs := h.routes[sub.routeKey]
	delete(subs, subKey(sub.Client.ID, sub.ID))
	if len(subs) == 0 {
		delete(h.routes, sub.routeKey)
	}
}

// SubscriberCount returns how many subscriptions are currently bound to a
// broadcast destination.
func (h *Hub) SubscriberCount(destination string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.routes[destination])
}

// Publish delivers a body to every current subscriber of a broadcast
// destination. Each subscriber receives an identical copy tagged with its
// own subscription id. Returns the number of sessions the frame was
// enqueued for.
func (h *Hub) Publish(destination string, body []byte, contentType string) int {
	return h.deliver(destination, destination, body, contentType)
}

// PublishToUser delivers a body to every session of one user subscribed to
// the given queue (e.g. /queue/errors reached via /user/queue/errors).
func (h *Hub) PublishToUser(userID int64, queue string, body []byte, contentType string) int {
	return h.deliver(userQueueKey(userID, queue), stomp.UserPrefix+queue, body, contentType)
}

func (h *Hub) deliver(routeKey, destination string, body []byte, contentType string) int {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.routes[routeKey]))
	for _, sub := range h.routes[routeKey] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		f := stomp.NewFrame(stomp.CmdMessage,
			stomp.HdrDestination, destination,
			stomp.HdrMessageID, uuid.New().String(),
			stomp.HdrSubscription, sub.ID,
			stomp.HdrContentType, contentType,
		)
		f.Body = body
		if sub.Client.enqueue(f.Marshal()) {
			delivered++
		} else {
			// Slow or already-departed consumer: drop the whole session
			// rather than block. Unregister tolerates repeats.
			go h.Unregister(sub.Client)
		}
	}
	return delivered
}
