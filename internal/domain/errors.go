package domain

import "errors"

var (
	// ErrTokenDecode covers malformed, expired, or badly signed tokens.
	// Non-fatal at handshake; fatal at message send.
	ErrTokenDecode = errors.New("token decode failed")

	// ErrIdentityNotFound means the token subject resolved but no matching
	// identity record exists.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrMissingIdentity rejects a send from a session with no bound
	// principal, before any persistence attempt.
	ErrMissingIdentity = errors.New("no identity bound to session")
)
