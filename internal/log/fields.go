package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID = "user_id"

	// Service
	FieldService = "service"

	// Realtime session
	FieldSessionID      = "session_id"
	FieldSubscriptionID = "subscription_id"
	FieldDestination    = "destination"
	FieldConversationID = "conversation_id"
	FieldFrame          = "frame"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
