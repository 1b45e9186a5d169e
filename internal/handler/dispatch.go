package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/ycyw/support-chat-service/internal/hub"
	"github.com/ycyw/support-chat-service/internal/log"
	"github.com/ycyw/support-chat-service/internal/service"
	"github.com/ycyw/support-chat-service/internal/stomp"
)

// handleFrame routes one inbound frame. A rejected frame answers the sender
// with an ERROR frame and keeps the session open; the broker substrate is
// deliberately lenient here so an unauthenticated session can still hold
// read-only subscriptions.
func (h *WSHandler) handleFrame(c *hub.Client, raw []byte) {
	f, err := stomp.Parse(raw)
	if errors.Is(err, stomp.ErrEmptyFrame) {
		return // heartbeat
	}
	if err != nil {
		c.SendFrame(errorFrame(err, ""))
		return
	}

	ctx := sessionContext(c)
	receipt := f.Header(stomp.HdrReceipt)

	switch {
	case f.IsConnect():
		err = h.service.HandleConnect(ctx, c, f)
	case f.Command == stomp.CmdSubscribe:
		err = h.service.HandleSubscribe(ctx, c, f)
	case f.Command == stomp.CmdUnsubscribe:
		err = h.service.HandleUnsubscribe(ctx, c, f)
	case f.Command == stomp.CmdSend:
		err = h.service.HandleSend(ctx, c, f)
	case f.Command == stomp.CmdDisconnect:
		// Teardown happens when the read loop observes the socket close.
	default:
		err = fmt.Errorf("%w: %s not accepted from clients", stomp.ErrUnknownCommand, f.Command)
	}

	if err != nil {
		if service.IsRejection(err) {
			log.Ctx(ctx).Info().Str(log.FieldFrame, string(f.Command)).Err(err).Msg("frame rejected")
		} else {
			log.Ctx(ctx).Error().Str(log.FieldFrame, string(f.Command)).Err(err).Msg("frame handling failed")
		}
		c.SendFrame(errorFrame(err, receipt))
		return
	}

	if receipt != "" && !f.IsConnect() {
		c.SendFrame(stomp.NewFrame(stomp.CmdReceipt, stomp.HdrReceiptID, receipt))
	}
}

func errorFrame(cause error, receipt string) *stomp.Frame {
	f := stomp.NewFrame(stomp.CmdError,
		stomp.HdrMessage, cause.Error(),
		stomp.HdrContentType, "text/plain",
	)
	if receipt != "" {
		f.Headers[stomp.HdrReceiptID] = receipt
	}
	f.Body = []byte(cause.Error())
	return f
}

func sessionContext(c *hub.Client) context.Context {
	return log.WithSession(context.Background(), c.ID)
}
