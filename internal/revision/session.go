// Package revision tracks pending revision sessions: a conversation that has
// asked to revise a call, keyed by the messaging conversation id, pointing at
// the call the next free-text message should patch.
package revision

import (
	"context"
	"sync"
)

// Tracker maps a conversation id to the call awaiting a revision message.
//
// Set overwrites any existing binding for the conversation; only one pending
// revision exists per conversation at a time. Get reports absence with a
// boolean, Clear on an unknown conversation is a no-op.
type Tracker interface {
	Set(ctx context.Context, conversationID, callID string) error
	Get(ctx context.Context, conversationID string) (string, bool, error)
	Clear(ctx context.Context, conversationID string) error
}

// MemoryTracker keeps sessions in process memory. Sessions live for the
// process lifetime; losing them only costs a re-initiated revision.
type MemoryTracker struct {
	mu       sync.Mutex
	sessions map[string]string
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{sessions: make(map[string]string)}
}

func (t *MemoryTracker) Set(ctx context.Context, conversationID, callID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[conversationID] = callID
	return nil
}

func (t *MemoryTracker) Get(ctx context.Context, conversationID string) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	callID, ok := t.sessions[conversationID]
	return callID, ok, nil
}

func (t *MemoryTracker) Clear(ctx context.Context, conversationID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, conversationID)
	return nil
}
