package hub_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ycyw/support-chat-service/internal/domain"
	"github.com/ycyw/support-chat-service/internal/hub"
	"github.com/ycyw/support-chat-service/internal/stomp"
)

// stubWire satisfies hub.Wire for tests that never run the pumps.
type stubWire struct{}

func (stubWire) Read() ([]byte, error) { return nil, errors.New("closed") }
func (stubWire) Write([]byte) error    { return nil }
func (stubWire) Ping() error           { return nil }
func (stubWire) Close() error          { return nil }

func newTestClient(h *hub.Hub, id string) *hub.Client {
	c := hub.NewClient(id, h, stubWire{}, time.Minute)
	h.Register(c)
	return c
}

func recvFrame(t *testing.T, c *hub.Client) *stomp.Frame {
	t.Helper()
	select {
	case data := <-c.Send:
		f, err := stomp.Parse(data)
		if err != nil {
			t.Fatalf("parse delivered frame: %v", err)
		}
		return f
	default:
		t.Fatal("no frame delivered")
		return nil
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := hub.NewHub()
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	other := newTestClient(h, "c")

	mustSubscribe(t, h, a, "sub-0", "/topic/conversation/7")
	mustSubscribe(t, h, b, "sub-9", "/topic/conversation/7")
	mustSubscribe(t, h, other, "sub-0", "/topic/conversation/8")

	n := h.Publish("/topic/conversation/7", []byte(`{"id":1}`), "application/json")
	if n != 2 {
		t.Fatalf("Publish delivered to %d sessions, want 2", n)
	}

	for _, tc := range []struct {
		c     *hub.Client
		subID string
	}{{a, "sub-0"}, {b, "sub-9"}} {
		f := recvFrame(t, tc.c)
		if f.Command != stomp.CmdMessage {
			t.Errorf("command = %q", f.Command)
		}
		if got := f.Header(stomp.HdrSubscription); got != tc.subID {
			t.Errorf("subscription header = %q, want %q", got, tc.subID)
		}
		if got := f.Header(stomp.HdrDestination); got != "/topic/conversation/7" {
			t.Errorf("destination = %q", got)
		}
		if string(f.Body) != `{"id":1}` {
			t.Errorf("body = %q", f.Body)
		}
	}

	select {
	case data := <-other.Send:
		t.Errorf("unrelated subscriber received %q", data)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := hub.NewHub()
	a := newTestClient(h, "a")
	mustSubscribe(t, h, a, "sub-0", "/topic/conversation/7")

	if sub := h.Unsubscribe(a, "sub-0"); sub == nil || sub.Destination != "/topic/conversation/7" {
		t.Fatalf("Unsubscribe returned %+v", sub)
	}
	if n := h.Publish("/topic/conversation/7", []byte("x"), "text/plain"); n != 0 {
		t.Errorf("Publish after unsubscribe delivered to %d sessions", n)
	}
	if sub := h.Unsubscribe(a, "sub-0"); sub != nil {
		t.Errorf("second Unsubscribe returned %+v", sub)
	}
}

func TestUnregisterCascadesSubscriptions(t *testing.T) {
	h := hub.NewHub()
	a := newTestClient(h, "a")
	mustSubscribe(t, h, a, "sub-0", "/topic/conversation/7")
	mustSubscribe(t, h, a, "sub-1", "/topic/conversation/8")

	removed := h.Unregister(a)
	if len(removed) != 2 {
		t.Fatalf("Unregister removed %d subscriptions, want 2", len(removed))
	}
	if n := h.SubscriberCount("/topic/conversation/7"); n != 0 {
		t.Errorf("SubscriberCount = %d after teardown", n)
	}
	// The send channel is closed by teardown.
	if _, ok := <-a.Send; ok {
		t.Error("Send channel still open after Unregister")
	}
}

func TestUserQueueRequiresPrincipal(t *testing.T) {
	h := hub.NewHub()
	anon := newTestClient(h, "anon")

	if _, err := h.Subscribe(anon, "sub-0", "/user/queue/errors"); !errors.Is(err, domain.ErrMissingIdentity) {
		t.Fatalf("Subscribe err = %v, want ErrMissingIdentity", err)
	}

	authed := newTestClient(h, "authed")
	authed.BindPrincipal(&domain.Principal{UserID: 42, Email: "alice@ycyw.example"})
	mustSubscribe(t, h, authed, "sub-0", "/user/queue/errors")

	if n := h.PublishToUser(42, "/queue/errors", []byte(`{"error":"x"}`), "application/json"); n != 1 {
		t.Fatalf("PublishToUser delivered to %d sessions, want 1", n)
	}
	f := recvFrame(t, authed)
	if got := f.Header(stomp.HdrDestination); got != "/user/queue/errors" {
		t.Errorf("destination = %q", got)
	}

	if n := h.PublishToUser(99, "/queue/errors", []byte("x"), "text/plain"); n != 0 {
		t.Errorf("PublishToUser for another user delivered %d", n)
	}
}

func TestPrincipalImmutableOnceBound(t *testing.T) {
	h := hub.NewHub()
	c := newTestClient(h, "a")

	if !c.BindPrincipal(&domain.Principal{UserID: 1}) {
		t.Fatal("first BindPrincipal refused")
	}
	if c.BindPrincipal(&domain.Principal{UserID: 2}) {
		t.Fatal("second BindPrincipal accepted")
	}
	if got := c.Principal().UserID; got != 1 {
		t.Errorf("UserID = %d, want 1", got)
	}
}

func TestSubscriptionIDReuseReplacesBinding(t *testing.T) {
	h := hub.NewHub()
	a := newTestClient(h, "a")
	mustSubscribe(t, h, a, "sub-0", "/topic/conversation/7")
	mustSubscribe(t, h, a, "sub-0", "/topic/conversation/8")

	if n := h.SubscriberCount("/topic/conversation/7"); n != 0 {
		t.Errorf("old destination still has %d subscribers", n)
	}
	if n := h.SubscriberCount("/topic/conversation/8"); n != 1 {
		t.Errorf("new destination has %d subscribers, want 1", n)
	}
}

func TestFramesForTornDownSessionAreDropped(t *testing.T) {
	h := hub.NewHub()
	a := newTestClient(h, "a")
	mustSubscribe(t, h, a, "sub-0", "/topic/conversation/7")

	h.Unregister(a)

	// The send channel is closed now; late frames are dropped, not panicked on.
	a.SendFrame(stomp.NewFrame(stomp.CmdError, stomp.HdrMessage, "late"))
	if n := h.Publish("/topic/conversation/7", []byte("x"), "text/plain"); n != 0 {
		t.Errorf("Publish delivered %d to a torn-down session", n)
	}
}

func TestPublishDuringSessionChurn(t *testing.T) {
	h := hub.NewHub()
	for i := 0; i < 200; i++ {
		c := newTestClient(h, fmt.Sprintf("c%d", i))
		mustSubscribe(t, h, c, "sub-0", "/topic/conversation/7")

		done := make(chan struct{})
		go func() {
			h.Unregister(c)
			close(done)
		}()
		h.Publish("/topic/conversation/7", []byte("x"), "text/plain")
		<-done
	}
}

func mustSubscribe(t *testing.T, h *hub.Hub, c *hub.Client, subID, dest string) {
	t.Helper()
	if _, err := h.Subscribe(c, subID, dest); err != nil {
		t.Fatalf("Subscribe(%s, %s): %v", subID, dest, err)
	}
}
