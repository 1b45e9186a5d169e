package stomp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Destination namespace. The prefixes are load-bearing: the router and the
// broadcaster both rely on them being stable.
const (
	AppPrefix   = "/app"
	TopicPrefix = "/topic"
	QueuePrefix = "/queue"
	UserPrefix  = "/user"

	chatSendPrefix    = "/app/chat/"
	conversationTopic = "/topic/conversation/"

	// ErrorsQueue is the per-user destination rejected sends are reported on.
	ErrorsQueue = "/queue/errors"
)

var ErrBadDestination = errors.New("unroutable destination")

// ConversationFromSendDestination extracts the conversation id from an
// inbound /app/chat/{conversationId} destination.
func ConversationFromSendDestination(dest string) (int64, error) {
	rest, ok := strings.CutPrefix(dest, chatSendPrefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return 0, fmt.Errorf("%w: %q", ErrBadDestination, dest)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadDestination, dest)
	}
	return id, nil
}

// ConversationTopic returns the broadcast destination for a conversation.
func ConversationTopic(conversationID int64) string {
	return conversationTopic + strconv.FormatInt(conversationID, 10)
}

// ConversationFromTopic extracts the conversation id from a
// /topic/conversation/{id} destination; ok is false for other topics.
func ConversationFromTopic(dest string) (int64, bool) {
	rest, found := strings.CutPrefix(dest, conversationTopic)
	if !found || rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// IsUserDestination reports whether dest is in the per-user namespace
// (/user/queue/...).
func IsUserDestination(dest string) bool {
	return strings.HasPrefix(dest, UserPrefix+"/")
}

// StripUserPrefix maps /user/queue/errors to /queue/errors. The result is
// the session-independent queue name a user destination resolves to.
func StripUserPrefix(dest string) string {
	return strings.TrimPrefix(dest, UserPrefix)
}

// IsTopic reports whether dest is a broadcast destination.
func IsTopic(dest string) bool {
	return strings.HasPrefix(dest, TopicPrefix+"/")
}
