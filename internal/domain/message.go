package domain

import "time"

// Message is the persisted chat message. The id and sent timestamp are
// assigned by the store and are authoritative.
type Message struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID int64     `gorm:"index;not null" json:"conversationId"`
	SenderID       int64     `gorm:"index;not null" json:"senderId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	SentAt         time.Time `gorm:"not null" json:"sentAt"`
	IsRead         bool      `gorm:"not null;default:false" json:"isRead"`
}

// Conversation groups messages between a customer and a support agent.
type Conversation struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID int64     `gorm:"index;not null" json:"customerId"`
	AgentID    int64     `gorm:"index" json:"agentId"`
	Subject    string    `json:"subject"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SendPayload is the application-level message object a client sends to
// /app/chat/{conversationId}. The conversationId field is never trusted:
// the router overwrites it with the id parsed from the destination path.
type SendPayload struct {
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
}

// StoredMessage is the canonical post-persistence form, the only form ever
// broadcast to subscribers.
type StoredMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	SenderID       int64     `json:"senderId"`
	SenderName     string    `json:"senderName"`
	Content        string    `json:"content"`
	SentAt         time.Time `json:"sentAt"`
	IsRead         bool      `json:"isRead"`
}
