package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ycyw/support-chat-service/internal/config"
	"github.com/ycyw/support-chat-service/internal/domain"
	"github.com/ycyw/support-chat-service/internal/hub"
	"github.com/ycyw/support-chat-service/internal/stomp"
)

type stubWire struct{}

func (stubWire) Read() ([]byte, error) { return nil, errors.New("closed") }
func (stubWire) Write([]byte) error    { return nil }
func (stubWire) Ping() error           { return nil }
func (stubWire) Close() error          { return nil }

// fakeService records which handler ran and can fail on demand.
type fakeService struct {
	calls []string
	fail  error
}

func (f *fakeService) record(name string) error {
	f.calls = append(f.calls, name)
	return f.fail
}

func (f *fakeService) HandleConnect(ctx context.Context, c *hub.Client, fr *stomp.Frame) error {
	return f.record("connect")
}

func (f *fakeService) HandleSubscribe(ctx context.Context, c *hub.Client, fr *stomp.Frame) error {
	return f.record("subscribe")
}

func (f *fakeService) HandleUnsubscribe(ctx context.Context, c *hub.Client, fr *stomp.Frame) error {
	return f.record("unsubscribe")
}

func (f *fakeService) HandleSend(ctx context.Context, c *hub.Client, fr *stomp.Frame) error {
	return f.record("send")
}

func (f *fakeService) HandleDisconnect(ctx context.Context, c *hub.Client) { f.record("disconnect") }
func (f *fakeService) Start(ctx context.Context) error                     { return nil }
func (f *fakeService) Stop() error                                         { return nil }

func testHandler(svc *fakeService) (*WSHandler, *hub.Hub) {
	h := hub.NewHub()
	wsCfg := config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
	}
	return NewWSHandler(h, svc, config.ServerConfig{AllowedOrigins: []string{"*"}}, wsCfg), h
}

func recvFrame(t *testing.T, c *hub.Client) *stomp.Frame {
	t.Helper()
	select {
	case data := <-c.Send:
		f, err := stomp.Parse(data)
		if err != nil {
			t.Fatalf("parse frame: %v", err)
		}
		return f
	default:
		t.Fatal("no frame queued")
		return nil
	}
}

func TestDispatchRoutesCommands(t *testing.T) {
	svc := &fakeService{}
	h, wsHub := testHandler(svc)
	c := hub.NewClient("s1", wsHub, stubWire{}, time.Minute)
	wsHub.Register(c)

	frames := [][]byte{
		[]byte("CONNECT\naccept-version:1.2\n\n\x00"),
		[]byte("SUBSCRIBE\nid:sub-0\ndestination:/topic/conversation/1\n\n\x00"),
		[]byte("SEND\ndestination:/app/chat/1\n\n{}\x00"),
		[]byte("UNSUBSCRIBE\nid:sub-0\n\n\x00"),
	}
	for _, raw := range frames {
		h.handleFrame(c, raw)
	}

	want := []string{"connect", "subscribe", "send", "unsubscribe"}
	if len(svc.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", svc.calls, want)
	}
	for i := range want {
		if svc.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, svc.calls[i], want[i])
		}
	}
}

func TestDispatchHeartbeatIgnored(t *testing.T) {
	svc := &fakeService{}
	h, wsHub := testHandler(svc)
	c := hub.NewClient("s1", wsHub, stubWire{}, time.Minute)
	wsHub.Register(c)

	h.handleFrame(c, []byte("\n"))

	if len(svc.calls) != 0 {
		t.Errorf("heartbeat reached the service: %v", svc.calls)
	}
	select {
	case data := <-c.Send:
		t.Errorf("heartbeat produced a reply: %q", data)
	default:
	}
}

func TestDispatchMalformedFrameAnswersError(t *testing.T) {
	svc := &fakeService{}
	h, wsHub := testHandler(svc)
	c := hub.NewClient("s1", wsHub, stubWire{}, time.Minute)
	wsHub.Register(c)

	h.handleFrame(c, []byte("GIBBERISH\n\n\x00"))

	f := recvFrame(t, c)
	if f.Command != stomp.CmdError {
		t.Errorf("reply = %q, want ERROR", f.Command)
	}
	if len(svc.calls) != 0 {
		t.Errorf("malformed frame reached the service: %v", svc.calls)
	}
}

func TestDispatchRejectionAnswersErrorWithReceipt(t *testing.T) {
	svc := &fakeService{fail: domain.ErrMissingIdentity}
	h, wsHub := testHandler(svc)
	c := hub.NewClient("s1", wsHub, stubWire{}, time.Minute)
	wsHub.Register(c)

	h.handleFrame(c, []byte("SEND\ndestination:/app/chat/1\nreceipt:r-1\n\n{}\x00"))

	f := recvFrame(t, c)
	if f.Command != stomp.CmdError {
		t.Fatalf("reply = %q, want ERROR", f.Command)
	}
	if got := f.Header(stomp.HdrReceiptID); got != "r-1" {
		t.Errorf("receipt-id = %q, want r-1", got)
	}
}

func TestDispatchReceiptOnSuccess(t *testing.T) {
	svc := &fakeService{}
	h, wsHub := testHandler(svc)
	c := hub.NewClient("s1", wsHub, stubWire{}, time.Minute)
	wsHub.Register(c)

	h.handleFrame(c, []byte("SUBSCRIBE\nid:sub-0\ndestination:/topic/conversation/1\nreceipt:r-2\n\n\x00"))

	f := recvFrame(t, c)
	if f.Command != stomp.CmdReceipt {
		t.Fatalf("reply = %q, want RECEIPT", f.Command)
	}
	if got := f.Header(stomp.HdrReceiptID); got != "r-2" {
		t.Errorf("receipt-id = %q, want r-2", got)
	}
}
