// Package registry tracks which conversations currently have live
// subscribers on this instance. The data is operational (support dashboard,
// presence); message delivery never depends on it.
package registry

import "context"

type ConversationRegistry interface {
	Register(ctx context.Context, conversationID int64) error
	Deregister(ctx context.Context, conversationID int64) error
	StartHeartbeat(ctx context.Context) error
	StopHeartbeat()
	Close() error
}

// Noop is used when no Redis is configured.
type Noop struct{}

func (Noop) Register(ctx context.Context, conversationID int64) error   { return nil }
func (Noop) Deregister(ctx context.Context, conversationID int64) error { return nil }
func (Noop) StartHeartbeat(ctx context.Context) error                   { return nil }
func (Noop) StopHeartbeat()                                             {}
func (Noop) Close() error                                               { return nil }
