package activity

import (
	"context"
	"testing"
	"time"
)

func TestHooksNotifyNormalizesAndSkipsInvalid(t *testing.T) {
	var called int
	hooks := Hooks{
		HookFunc(func(ctx context.Context, evt Event) error {
			called++
			if evt.Verb != "dashboard.widget.remove" {
				t.Fatalf("unexpected verb %q", evt.Verb)
			}
			if evt.ObjectType != "widget" || evt.ObjectID != "42" {
				t.Fatalf("unexpected object %s %s", evt.ObjectType, evt.ObjectID)
			}
			return nil
		}),
	}

	// Missing verb: should skip.
	_ = hooks.Notify(context.Background(), Event{})
	if called != 0 {
		t.Fatalf("expected no calls for invalid event")
	}

	// Valid event should trigger hook once.
	_ = hooks.Notify(context.Background(), Event{
		Verb:       " dashboard.widget.remove ",
		ObjectType: " widget ",
		ObjectID:   " 42 ",
	})
	if called != 1 {
		t.Fatalf("expected hook to be called once, got %d", called)
	}
}

func TestNormalizeEventClones(t *testing.T) {
	meta := map[string]any{"slug": "foo-bar"}
	now := time.Now()

	evt := Event{
		Verb:       "dashboard.archive",
		ObjectType: "dashboard",
		ObjectID:   "foo-bar",
		Metadata:   meta,
		OccurredAt: now,
	}
	n := NormalizeEvent(evt)

	if &n.Metadata == &evt.Metadata {
		t.Fatalf("metadata map should be cloned")
	}
	n.Metadata["slug"] = "changed"
	if evt.Metadata["slug"] != "foo-bar" {
		t.Fatalf("original metadata mutated")
	}

	if n.OccurredAt.IsZero() || !n.OccurredAt.Equal(now) {
		t.Fatalf("occurred_at should be preserved when set")
	}
}
