package domain

// Principal is the resolved identity bound to a realtime session after a
// successful connection-time authentication. It is immutable for the
// session's lifetime.
type Principal struct {
	UserID      int64
	Email       string
	Name        string
	Authorities []string
}
