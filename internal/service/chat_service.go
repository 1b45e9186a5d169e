package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ycyw/support-chat-service/internal/audit"
	"github.com/ycyw/support-chat-service/internal/auth"
	"github.com/ycyw/support-chat-service/internal/domain"
	"github.com/ycyw/support-chat-service/internal/hub"
	"github.com/ycyw/support-chat-service/internal/log"
	"github.com/ycyw/support-chat-service/internal/registry"
	"github.com/ycyw/support-chat-service/internal/stomp"
	"github.com/ycyw/support-chat-service/internal/store"
)

const jsonContentType = "application/json"

type chatService struct {
	hub           *hub.Hub
	authenticator *auth.Authenticator
	messages      store.MessageStore
	registry      registry.ConversationRegistry
}

func NewChatService(
	h *hub.Hub,
	authenticator *auth.Authenticator,
	messages store.MessageStore,
	reg registry.ConversationRegistry,
) ChatService {
	return &chatService{
		hub:           h,
		authenticator: authenticator,
		messages:      messages,
		registry:      reg,
	}
}

// HandleConnect authenticates the session from the CONNECT frame's bearer
// header and always answers CONNECTED. Authentication is fail-soft: a bad
// or absent token leaves the session unauthenticated and established;
// authorization is enforced at send time instead.
func (s *chatService) HandleConnect(ctx context.Context, c *hub.Client, f *stomp.Frame) error {
	authHeader := f.Header(stomp.HdrAuthorization)
	if authHeader == "" {
		authHeader = f.Header("authorization")
	}

	p, err := s.authenticator.Authenticate(ctx, authHeader)
	switch {
	case err != nil:
		log.Ctx(ctx).Warn().Str(log.FieldSessionID, c.ID).Err(err).Msg("websocket auth failed")
		audit.LogWithDetail(ctx, audit.ActionAuthFailed, c.ID, "", err.Error(), "handshake authentication failed")
	case p != nil:
		c.BindPrincipal(p)
		audit.Log(ctx, audit.ActionConnect, c.ID, formatUserID(p.UserID), "session authenticated")
	}

	c.SendFrame(stomp.NewFrame(stomp.CmdConnected,
		stomp.HdrVersion, "1.2",
		stomp.HdrHeartBeat, "0,0",
		stomp.HdrSession, c.ID,
	))
	return nil
}

// HandleSubscribe binds the session to the requested destination and keeps
// the conversation presence registry in step when the first subscriber of a
// conversation topic arrives.
func (s *chatService) HandleSubscribe(ctx context.Context, c *hub.Client, f *stomp.Frame) error {
	subID := f.Header(stomp.HdrID)
	dest := f.Header(stomp.HdrDestination)
	if subID == "" || dest == "" {
		return fmt.Errorf("%w: SUBSCRIBE requires id and destination", stomp.ErrMalformedFrame)
	}

	sub, err := s.hub.Subscribe(c, subID, dest)
	if err != nil {
		return err
	}

	if convID, ok := stomp.ConversationFromTopic(dest); ok && s.hub.SubscriberCount(dest) == 1 {
		if err := s.registry.Register(ctx, convID); err != nil {
			log.Ctx(ctx).Error().Int64(log.FieldConversationID, convID).Err(err).Msg("registry register failed")
		}
	}

	audit.LogWithDetail(ctx, audit.ActionSubscribe, c.ID, principalUserID(c), sub.Destination, "subscribed")
	return nil
}

func (s *chatService) HandleUnsubscribe(ctx context.Context, c *hub.Client, f *stomp.Frame) error {
	subID := f.Header(stomp.HdrID)
	if subID == "" {
		return fmt.Errorf("%w: UNSUBSCRIBE requires id", stomp.ErrMalformedFrame)
	}

	sub := s.hub.Unsubscribe(c, subID)
	if sub == nil {
		return nil
	}
	s.releaseConversation(ctx, sub.Destination)
	audit.LogWithDetail(ctx, audit.ActionUnsubscribe, c.ID, principalUserID(c), sub.Destination, "unsubscribed")
	return nil
}

// HandleSend is the persist-then-broadcast path for /app/chat/{id} frames.
//
// The conversation id always comes from the destination path, never from
// the payload, closing the cross-conversation spoofing vector. Broadcast
// strictly happens-after durable persistence: the canonical stored form is
// the only thing subscribers ever see, and a store failure means nothing is
// broadcast at all.
func (s *chatService) HandleSend(ctx context.Context, c *hub.Client, f *stomp.Frame) error {
	dest := f.Header(stomp.HdrDestination)
	conversationID, err := stomp.ConversationFromSendDestination(dest)
	if err != nil {
		return err
	}

	p := c.Principal()
	if p == nil {
		audit.LogWithDetail(ctx, audit.ActionSendDenied, c.ID, "", dest, "send rejected: no identity bound")
		return domain.ErrMissingIdentity
	}

	var payload domain.SendPayload
	if err := json.Unmarshal(f.Body, &payload); err != nil {
		return fmt.Errorf("decode send payload: %w", err)
	}

	// Overwrite whatever conversation id the client claimed.
	payload.ConversationID = conversationID

	stored, err := s.messages.Store(ctx, payload, p.UserID)
	if err != nil {
		s.notifyRejection(p.UserID, conversationID, err)
		audit.LogWithDetail(ctx, audit.ActionSendDenied, c.ID, formatUserID(p.UserID), dest, "send rejected: store failed")
		return err
	}

	body, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode stored message: %w", err)
	}

	delivered := s.hub.Publish(stomp.ConversationTopic(conversationID), body, jsonContentType)

	log.Ctx(ctx).Debug().
		Int64(log.FieldConversationID, conversationID).
		Int64("message_id", stored.ID).
		Int("delivered", delivered).
		Msg("message broadcast")
	audit.LogWithDetail(ctx, audit.ActionSend, c.ID, formatUserID(p.UserID), dest, "message sent")
	return nil
}

// HandleDisconnect tears the session down and releases its subscriptions.
// In-flight sends for the session are unaffected: the durable record does
// not depend on the sender staying connected.
func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) {
	removed := s.hub.Unregister(c)
	for _, sub := range removed {
		s.releaseConversation(ctx, sub.Destination)
	}
	audit.Log(ctx, audit.ActionDisconnect, c.ID, principalUserID(c), "session closed")
}

func (s *chatService) releaseConversation(ctx context.Context, dest string) {
	convID, ok := stomp.ConversationFromTopic(dest)
	if !ok || s.hub.SubscriberCount(dest) > 0 {
		return
	}
	if err := s.registry.Deregister(ctx, convID); err != nil {
		log.Ctx(ctx).Error().Int64(log.FieldConversationID, convID).Err(err).Msg("registry deregister failed")
	}
}

// notifyRejection pushes a rejection notice onto the sender's private error
// queue, for clients subscribed to /user/queue/errors. The direct ERROR
// frame is sent by the frame dispatcher; this is the subscription-based
// channel for multi-device clients.
func (s *chatService) notifyRejection(userID, conversationID int64, cause error) {
	notice, err := json.Marshal(map[string]any{
		"conversationId": conversationID,
		"error":          cause.Error(),
	})
	if err != nil {
		return
	}
	s.hub.PublishToUser(userID, stomp.ErrorsQueue, notice, jsonContentType)
}

func (s *chatService) Start(ctx context.Context) error {
	if err := s.registry.StartHeartbeat(ctx); err != nil {
		return fmt.Errorf("failed to start registry heartbeat: %w", err)
	}
	log.L().Info().Msg("chat service started")
	return nil
}

func (s *chatService) Stop() error {
	s.registry.StopHeartbeat()
	return nil
}

func principalUserID(c *hub.Client) string {
	if p := c.Principal(); p != nil {
		return formatUserID(p.UserID)
	}
	return ""
}

func formatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// IsRejection reports whether err is a client-caused send rejection rather
// than an infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, domain.ErrMissingIdentity) || errors.Is(err, stomp.ErrBadDestination)
}
