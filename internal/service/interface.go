package service

import (
	"context"

	"github.com/ycyw/support-chat-service/internal/hub"
	"github.com/ycyw/support-chat-service/internal/stomp"
)

// ChatService handles the STOMP frames of one realtime session. Frames for
// a given session arrive sequentially from its read loop, so handlers never
// race each other for the same session.
type ChatService interface {
	HandleConnect(ctx context.Context, c *hub.Client, f *stomp.Frame) error
	HandleSubscribe(ctx context.Context, c *hub.Client, f *stomp.Frame) error
	HandleUnsubscribe(ctx context.Context, c *hub.Client, f *stomp.Frame) error
	HandleSend(ctx context.Context, c *hub.Client, f *stomp.Frame) error
	HandleDisconnect(ctx context.Context, c *hub.Client)
	Start(ctx context.Context) error
	Stop() error
}
