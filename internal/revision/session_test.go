package revision

import (
	"context"
	"testing"
)

func TestMemoryTracker_SetOverwrites(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	if err := tr.Set(ctx, "chat-1", "call-a"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := tr.Set(ctx, "chat-1", "call-b"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := tr.Get(ctx, "chat-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != "call-b" {
		t.Fatalf("expected latest binding, got %q", got)
	}
}

func TestMemoryTracker_GetMissing(t *testing.T) {
	tr := NewMemoryTracker()
	_, ok, err := tr.Get(context.Background(), "chat-404")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected absence")
	}
}

func TestMemoryTracker_Clear(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	_ = tr.Set(ctx, "chat-1", "call-a")
	if err := tr.Clear(ctx, "chat-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := tr.Get(ctx, "chat-1"); ok {
		t.Fatalf("expected cleared session")
	}

	// Clearing twice is a no-op.
	if err := tr.Clear(ctx, "chat-1"); err != nil {
		t.Fatalf("clear again: %v", err)
	}
}

func TestTrackerInterfaces(t *testing.T) {
	var _ Tracker = (*MemoryTracker)(nil)
	var _ Tracker = (*RedisTracker)(nil)
}
